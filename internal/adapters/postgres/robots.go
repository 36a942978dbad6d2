package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
)

const robotSelect = `
	SELECT r.id, r.slug, r.name, COALESCE(r.manufacturer_id::text, ''), r.category, r.status,
	       r.description, r.height_cm, r.weight_kg, r.estimated_price_usd, r.rating_average,
	       r.walking_speed_kmh, r.max_payload_kg, r.battery_life_hours, r.release_date,
	       r.is_featured, r.is_verified, r.created_at, r.updated_at,
	       m.name, m.country, m.website, m.logo_url
	FROM robots r
	LEFT JOIN manufacturers m ON m.id = r.manufacturer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRobot(row rowScanner) (model.Robot, error) {
	var (
		r                             model.Robot
		releaseDate                   sql.NullTime
		mName, mCountry, mSite, mLogo sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.Slug, &r.Name, &r.ManufacturerID, &r.Category, &r.Status,
		&r.Description, &r.HeightCM, &r.WeightKG, &r.EstimatedPriceUSD, &r.RatingAverage,
		&r.WalkingSpeedKMH, &r.MaxPayloadKG, &r.BatteryLifeHours, &releaseDate,
		&r.IsFeatured, &r.IsVerified, &r.CreatedAt, &r.UpdatedAt,
		&mName, &mCountry, &mSite, &mLogo,
	)
	if err != nil {
		return model.Robot{}, err
	}
	if releaseDate.Valid {
		t := releaseDate.Time
		r.ReleaseDate = &t
	}
	if mName.Valid {
		r.Manufacturer = &model.Manufacturer{
			ID:      r.ManufacturerID,
			Name:    mName.String,
			Country: mCountry.String,
			Website: mSite.String,
			LogoURL: mLogo.String,
		}
	}
	return r, nil
}

func (s *Store) FindByID(ctx context.Context, id string, opts model.FetchOptions) (model.Robot, error) {
	return s.findOne(ctx, "r.id = $1", id, opts)
}

func (s *Store) FindBySlug(ctx context.Context, slug string, opts model.FetchOptions) (model.Robot, error) {
	return s.findOne(ctx, "r.slug = $1", slug, opts)
}

func (s *Store) findOne(ctx context.Context, where, key string, opts model.FetchOptions) (model.Robot, error) {
	r, err := scanRobot(s.db.QueryRowContext(ctx, robotSelect+" WHERE "+where, key))
	if err != nil {
		return model.Robot{}, translateLookup(err)
	}
	if opts.IncludeSpecs {
		if r.Specifications, err = s.loadSpecs(ctx, r.ID); err != nil {
			return model.Robot{}, err
		}
	}
	if opts.IncludeMedia {
		if r.Media, err = s.loadMedia(ctx, r.ID); err != nil {
			return model.Robot{}, err
		}
	}
	return r, nil
}

func (s *Store) loadSpecs(ctx context.Context, robotID string) ([]model.Specification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value, unit, category
		FROM robot_specifications
		WHERE robot_id = $1
		ORDER BY sort_order, name`, robotID)
	if err != nil {
		return nil, fmt.Errorf("query specifications: %w", err)
	}
	defer rows.Close()

	var out []model.Specification
	for rows.Next() {
		var sp model.Specification
		if err := rows.Scan(&sp.Name, &sp.Value, &sp.Unit, &sp.Category); err != nil {
			return nil, fmt.Errorf("scan specification: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) loadMedia(ctx context.Context, robotID string) ([]model.Media, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, media_type, title, alt_text, is_primary, sort_order
		FROM robot_media
		WHERE robot_id = $1
		ORDER BY sort_order, id`, robotID)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var out []model.Media
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(&m.ID, &m.URL, &m.MediaType, &m.Title, &m.AltText, &m.IsPrimary, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) FindMany(ctx context.Context, f repository.RobotFilter, limit int, random bool) ([]model.Robot, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "r.status = "+arg(f.Status))
	}
	if f.Category != "" {
		where = append(where, "r.category = "+arg(f.Category))
	}
	if f.ManufacturerID != "" {
		where = append(where, "r.manufacturer_id::text = "+arg(f.ManufacturerID))
	}
	if len(f.ExcludeIDs) > 0 {
		where = append(where, "NOT (r.id::text = ANY("+arg(pq.Array(f.ExcludeIDs))+"))")
	}

	query := robotSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if random {
		query += " ORDER BY random()"
	} else {
		query += " ORDER BY r.name, r.id"
	}
	if limit > 0 {
		query += " LIMIT " + arg(limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query robots: %w", err)
	}
	defer rows.Close()

	var out []model.Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan robot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertManufacturer(ctx context.Context, m model.Manufacturer) (model.Manufacturer, error) {
	var err error
	if m.ID == "" {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO manufacturers (name, country, website, logo_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE
			SET country = EXCLUDED.country, website = EXCLUDED.website, logo_url = EXCLUDED.logo_url
			RETURNING id`,
			m.Name, m.Country, m.Website, m.LogoURL,
		).Scan(&m.ID)
	} else {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO manufacturers (id, name, country, website, logo_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, country = EXCLUDED.country,
			    website = EXCLUDED.website, logo_url = EXCLUDED.logo_url
			RETURNING id`,
			m.ID, m.Name, m.Country, m.Website, m.LogoURL,
		).Scan(&m.ID)
	}
	if err != nil {
		return model.Manufacturer{}, fmt.Errorf("upsert manufacturer: %w", translate(err))
	}
	return m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// UpsertRobot writes the robot row keyed by slug and replaces its
// specifications and media in one transaction.
func (s *Store) UpsertRobot(ctx context.Context, r model.Robot) (model.Robot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Robot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var releaseDate any
	if r.ReleaseDate != nil {
		releaseDate = *r.ReleaseDate
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO robots (id, slug, name, manufacturer_id, category, status, description,
		                    height_cm, weight_kg, estimated_price_usd, rating_average,
		                    walking_speed_kmh, max_payload_kg, battery_life_hours, release_date,
		                    is_featured, is_verified)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7,
		        $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, manufacturer_id = EXCLUDED.manufacturer_id,
		    category = EXCLUDED.category, status = EXCLUDED.status,
		    description = EXCLUDED.description, height_cm = EXCLUDED.height_cm,
		    weight_kg = EXCLUDED.weight_kg, estimated_price_usd = EXCLUDED.estimated_price_usd,
		    rating_average = EXCLUDED.rating_average, walking_speed_kmh = EXCLUDED.walking_speed_kmh,
		    max_payload_kg = EXCLUDED.max_payload_kg, battery_life_hours = EXCLUDED.battery_life_hours,
		    release_date = EXCLUDED.release_date, is_featured = EXCLUDED.is_featured,
		    is_verified = EXCLUDED.is_verified, updated_at = now()
		RETURNING id, created_at, updated_at`,
		r.ID, r.Slug, r.Name, nullString(r.ManufacturerID), r.Category, r.Status, r.Description,
		r.HeightCM, r.WeightKG, r.EstimatedPriceUSD, r.RatingAverage,
		r.WalkingSpeedKMH, r.MaxPayloadKG, r.BatteryLifeHours, releaseDate,
		r.IsFeatured, r.IsVerified,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Robot{}, fmt.Errorf("upsert robot %s: %w", r.Slug, translate(err))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM robot_specifications WHERE robot_id = $1`, r.ID); err != nil {
		return model.Robot{}, fmt.Errorf("clear specifications: %w", err)
	}
	for i, sp := range r.Specifications {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO robot_specifications (robot_id, name, value, unit, category, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, sp.Name, sp.Value, sp.Unit, sp.Category, i,
		); err != nil {
			return model.Robot{}, fmt.Errorf("insert specification %s: %w", sp.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM robot_media WHERE robot_id = $1`, r.ID); err != nil {
		return model.Robot{}, fmt.Errorf("clear media: %w", err)
	}
	media := make([]model.Media, len(r.Media))
	copy(media, r.Media)
	for i := range media {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO robot_media (robot_id, url, media_type, title, alt_text, is_primary, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			r.ID, media[i].URL, media[i].MediaType, media[i].Title, media[i].AltText,
			media[i].IsPrimary, media[i].SortOrder,
		).Scan(&media[i].ID); err != nil {
			return model.Robot{}, fmt.Errorf("insert media %s: %w", media[i].URL, err)
		}
	}
	r.Media = media

	if err := tx.Commit(); err != nil {
		return model.Robot{}, fmt.Errorf("commit robot %s: %w", r.Slug, err)
	}
	return r, nil
}

func (s *Store) CountRobots(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM robots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count robots: %w", err)
	}
	return n, nil
}
