package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/robostorm/robostorm/internal/domain/model"
)

func (s *Store) Record(ctx context.Context, ev model.InteractionEvent) (model.InteractionEvent, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comparison_analytics (robot_1_id, robot_2_id, interaction_type, comparison_type, session_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		ev.RobotAID, ev.RobotBID, string(ev.InteractionType), string(ev.ComparisonType), ev.SessionID, ev.UserID,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return model.InteractionEvent{}, fmt.Errorf("record interaction: %w", translate(err))
	}
	return ev, nil
}

// UUIDs order bytewise, which matches the order of their canonical text.
const popularQuery = `
	SELECT LEAST(robot_1_id, robot_2_id)::text AS a,
	       GREATEST(robot_1_id, robot_2_id)::text AS b,
	       COUNT(*) AS cnt,
	       MAX(created_at) AS last_seen
	FROM comparison_analytics
	WHERE $1::timestamptz IS NULL OR created_at >= $1::timestamptz
	GROUP BY 1, 2
	ORDER BY cnt DESC, last_seen DESC, a, b
	LIMIT $2`

func (s *Store) AggregatePopular(ctx context.Context, limit int, since *time.Time) ([]model.PairCount, error) {
	var sinceArg any
	if since != nil {
		sinceArg = *since
	}
	rows, err := s.db.QueryContext(ctx, popularQuery, sinceArg, limit)
	if err != nil {
		return nil, fmt.Errorf("query popular comparisons: %w", err)
	}
	defer rows.Close()

	var out []model.PairCount
	for rows.Next() {
		var pc model.PairCount
		if err := rows.Scan(&pc.RobotAID, &pc.RobotBID, &pc.Count, &pc.LastSeen); err != nil {
			return nil, fmt.Errorf("scan popular comparison: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return model.RankPairs(out, limit), nil
}

const entityTallyQuery = `
	SELECT interaction_type,
	       comparison_type,
	       CASE WHEN robot_1_id = $1::uuid THEN 'a' ELSE 'b' END AS role,
	       (CASE WHEN robot_1_id = $1::uuid THEN robot_2_id ELSE robot_1_id END)::text AS opponent,
	       COUNT(*),
	       MAX(created_at)
	FROM comparison_analytics
	WHERE robot_1_id = $1::uuid OR robot_2_id = $1::uuid
	GROUP BY 1, 2, 3, 4`

func (s *Store) AggregateForEntity(ctx context.Context, robotID string) ([]model.InteractionTally, error) {
	rows, err := s.db.QueryContext(ctx, entityTallyQuery, robotID)
	if err != nil {
		return nil, fmt.Errorf("query entity tallies: %w", translateLookup(err))
	}
	defer rows.Close()

	var out []model.InteractionTally
	for rows.Next() {
		var (
			t                     model.InteractionTally
			typ, comparison, role string
		)
		if err := rows.Scan(&typ, &comparison, &role, &t.OpponentID, &t.Count, &t.LastSeen); err != nil {
			return nil, fmt.Errorf("scan entity tally: %w", err)
		}
		t.InteractionType = model.InteractionType(typ)
		t.ComparisonType = model.ComparisonContext(comparison)
		t.Role = model.Role(role)
		out = append(out, t)
	}
	return out, rows.Err()
}
