// Package fixtures loads robot catalog and news fixtures from YAML.
package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFixture is returned when a fixture document fails validation.
var ErrInvalidFixture = errors.New("invalid fixture")

// Robot is a robot entry that names its manufacturer instead of carrying an id.
type Robot struct {
	model.Robot  `yaml:",inline"`
	Manufacturer string `yaml:"manufacturer"`
}

// Set is one fixture document.
type Set struct {
	Manufacturers []model.Manufacturer `yaml:"manufacturers"`
	Robots        []Robot              `yaml:"robots"`
	News          []model.NewsArticle  `yaml:"news"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Manufacturers int
	Robots        int
}

// LoadFile reads a fixture document from path.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return Load(bytes.NewReader(data))
}

// Load decodes and normalizes a fixture document. Unknown keys are rejected.
func Load(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if err := set.normalize(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *Set) normalize() error {
	for i, m := range s.Manufacturers {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: manufacturer #%d has no name", ErrInvalidFixture, i+1)
		}
	}
	slugs := make(map[string]struct{}, len(s.Robots))
	for i := range s.Robots {
		r := &s.Robots[i]
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: robot #%d has no name", ErrInvalidFixture, i+1)
		}
		if r.Slug == "" {
			r.Slug = Slugify(r.Name)
		}
		if _, dup := slugs[r.Slug]; dup {
			return fmt.Errorf("%w: duplicate robot slug %q", ErrInvalidFixture, r.Slug)
		}
		slugs[r.Slug] = struct{}{}
		switch r.Status {
		case "":
			r.Status = model.StatusActive
		case model.StatusActive, model.StatusInactive, model.StatusDraft:
		default:
			return fmt.Errorf("%w: robot %q has unknown status %q", ErrInvalidFixture, r.Slug, r.Status)
		}
	}
	for i, a := range s.News {
		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("%w: news article #%d has no title", ErrInvalidFixture, i+1)
		}
	}
	return nil
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// Apply upserts the manufacturers and robots of set into store. Robots may
// reference manufacturers declared in the same document or already stored
// under the same name.
func Apply(ctx context.Context, store repository.RobotStore, set *Set) (Summary, error) {
	var sum Summary
	ids := make(map[string]string, len(set.Manufacturers))

	for _, m := range set.Manufacturers {
		saved, err := store.UpsertManufacturer(ctx, m)
		if err != nil {
			return sum, fmt.Errorf("seed manufacturer %q: %w", m.Name, err)
		}
		ids[saved.Name] = saved.ID
		sum.Manufacturers++
	}

	for _, fr := range set.Robots {
		r := fr.Robot
		if fr.Manufacturer != "" {
			id, ok := ids[fr.Manufacturer]
			if !ok {
				saved, err := store.UpsertManufacturer(ctx, model.Manufacturer{Name: fr.Manufacturer})
				if err != nil {
					return sum, fmt.Errorf("seed manufacturer %q: %w", fr.Manufacturer, err)
				}
				id = saved.ID
				ids[saved.Name] = id
				sum.Manufacturers++
			}
			r.ManufacturerID = id
		}
		if _, err := store.UpsertRobot(ctx, r); err != nil {
			return sum, fmt.Errorf("seed robot %q: %w", r.Slug, err)
		}
		sum.Robots++
	}
	return sum, nil
}
