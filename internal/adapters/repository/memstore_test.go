package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := repository.NewMemoryStore(context.Background(), repository.WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedRobots(ctx context.Context, s *repository.MemoryStore, n int) []model.Robot {
	m, err := s.UpsertManufacturer(ctx, model.Manufacturer{Name: "Acme"})
	So(err, ShouldBeNil)
	out := make([]model.Robot, 0, n)
	for i := 0; i < n; i++ {
		status := model.StatusActive
		if i%4 == 3 {
			status = model.StatusDraft
		}
		r, err := s.UpsertRobot(ctx, model.Robot{
			Slug:           fmt.Sprintf("bot-%02d", i),
			Name:           fmt.Sprintf("Bot %02d", i),
			ManufacturerID: m.ID,
			Category:       []string{"humanoid", "quadruped"}[i%2],
			Status:         status,
			HeightCM:       model.Some(float64(100 + i)),
			Specifications: []model.Specification{{Name: "dof", Value: "28"}},
			Media:          []model.Media{{URL: "https://img/" + fmt.Sprint(i), MediaType: "image"}},
		})
		So(err, ShouldBeNil)
		out = append(out, r)
	}
	return out
}

func TestMemoryStore_Robots(t *testing.T) {
	Convey("Given a memory store with seeded robots", t, func() {
		ctx := context.Background()
		s := newStore(t)
		robots := seedRobots(ctx, s, 8)

		Convey("Then robots get ids and a joined manufacturer", func() {
			So(robots[0].ID, ShouldNotBeEmpty)
			So(robots[0].Manufacturer, ShouldNotBeNil)
			So(robots[0].Manufacturer.Name, ShouldEqual, "Acme")
			So(robots[0].Media[0].ID, ShouldNotBeEmpty)
			n, err := s.CountRobots(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 8)
		})

		Convey("When fetching by id without relations", func() {
			r, err := s.FindByID(ctx, robots[1].ID, model.FetchOptions{})

			Convey("Then specs and media are omitted", func() {
				So(err, ShouldBeNil)
				So(r.Slug, ShouldEqual, "bot-01")
				So(r.Specifications, ShouldBeEmpty)
				So(r.Media, ShouldBeEmpty)
			})
		})

		Convey("When fetching by slug with relations", func() {
			r, err := s.FindBySlug(ctx, "bot-02", model.FetchOptions{IncludeSpecs: true, IncludeMedia: true})

			Convey("Then specs and media are loaded", func() {
				So(err, ShouldBeNil)
				So(r.Specifications, ShouldHaveLength, 1)
				So(r.Media, ShouldHaveLength, 1)
			})
		})

		Convey("When fetching an unknown robot", func() {
			_, err := s.FindByID(ctx, "missing", model.FetchOptions{})
			_, err2 := s.FindBySlug(ctx, "missing", model.FetchOptions{})

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
				So(err2, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When upserting an existing slug", func() {
			r, err := s.UpsertRobot(ctx, model.Robot{Slug: "bot-00", Name: "Renamed", ManufacturerID: robots[0].ManufacturerID, Status: model.StatusActive})

			Convey("Then the id and creation time are kept", func() {
				So(err, ShouldBeNil)
				So(r.ID, ShouldEqual, robots[0].ID)
				So(r.CreatedAt.Equal(robots[0].CreatedAt), ShouldBeTrue)
				So(r.UpdatedAt.After(robots[0].UpdatedAt), ShouldBeTrue)
				n, _ := s.CountRobots(ctx)
				So(n, ShouldEqual, 8)
			})
		})

		Convey("When upserting a robot with an unknown manufacturer", func() {
			_, err := s.UpsertRobot(ctx, model.Robot{Slug: "orphan", ManufacturerID: "nope"})

			Convey("Then ErrInvalidReference is returned", func() {
				So(err, ShouldEqual, repository.ErrInvalidReference)
			})
		})

		Convey("When listing with filters", func() {
			list, err := s.FindMany(ctx, repository.RobotFilter{
				Status:     model.StatusActive,
				Category:   "humanoid",
				ExcludeIDs: []string{robots[0].ID},
			}, 0, false)

			Convey("Then only matching robots are returned in name order", func() {
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
				So(list[0].Slug, ShouldEqual, "bot-02")
				So(list[1].Slug, ShouldEqual, "bot-04")
				So(list[2].Slug, ShouldEqual, "bot-06")
			})
		})

		Convey("When sampling at random", func() {
			list, err := s.FindMany(ctx, repository.RobotFilter{Status: model.StatusActive}, 3, true)

			Convey("Then the sample is distinct and bounded", func() {
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
				seen := map[string]bool{}
				for _, r := range list {
					So(seen[r.ID], ShouldBeFalse)
					So(r.Status, ShouldEqual, model.StatusActive)
					seen[r.ID] = true
				}
			})
		})
	})
}

func TestMemoryStore_Interactions(t *testing.T) {
	Convey("Given three robots A, B and C", t, func() {
		ctx := context.Background()
		s := newStore(t)
		robots := seedRobots(ctx, s, 3)
		a, b, c := robots[0].ID, robots[1].ID, robots[2].ID

		record := func(x, y string, typ model.InteractionType) model.InteractionEvent {
			ev, err := s.Record(ctx, model.InteractionEvent{RobotAID: x, RobotBID: y, InteractionType: typ, ComparisonType: model.ContextHomePage})
			So(err, ShouldBeNil)
			return ev
		}

		Convey("When recording interactions (A,B), (B,A), (A,C)", func() {
			first := record(a, b, model.InteractionView)
			record(b, a, model.InteractionSelect)
			last := record(a, c, model.InteractionView)

			Convey("Then each event has an id and timestamp", func() {
				So(first.ID, ShouldNotBeEmpty)
				So(first.ID, ShouldNotEqual, last.ID)
				So(last.CreatedAt.After(first.CreatedAt), ShouldBeTrue)
			})

			Convey("Then popular pairs rank {A,B} first with count 2", func() {
				pairs, err := s.AggregatePopular(ctx, 10, nil)
				So(err, ShouldBeNil)
				So(pairs, ShouldHaveLength, 2)
				wantA, wantB := model.CanonicalPair(a, b)
				So(pairs[0].RobotAID, ShouldEqual, wantA)
				So(pairs[0].RobotBID, ShouldEqual, wantB)
				So(pairs[0].Count, ShouldEqual, 2)
				So(pairs[1].Count, ShouldEqual, 1)
			})

			Convey("Then limit and since narrow the result", func() {
				pairs, err := s.AggregatePopular(ctx, 1, nil)
				So(err, ShouldBeNil)
				So(pairs, ShouldHaveLength, 1)

				since := last.CreatedAt
				pairs, err = s.AggregatePopular(ctx, 10, &since)
				So(err, ShouldBeNil)
				So(pairs, ShouldHaveLength, 1)
				So(pairs[0].Count, ShouldEqual, 1)
			})

			Convey("Then the entity stats for A add up", func() {
				tallies, err := s.AggregateForEntity(ctx, a)
				So(err, ShouldBeNil)
				stats := model.NewEntityStats(a, tallies)
				So(stats.TotalInteractions, ShouldEqual, 3)
				So(stats.AsRobotA, ShouldEqual, 2)
				So(stats.AsRobotB, ShouldEqual, 1)
				So(stats.ByType[model.InteractionView], ShouldEqual, 2)
				So(stats.ByType[model.InteractionSelect], ShouldEqual, 1)
				So(stats.ByType[model.InteractionSwitch], ShouldEqual, 0)
				So(stats.UniqueOpponents, ShouldEqual, 2)
				So(stats.MostComparedWith, ShouldEqual, b)
				So(stats.LastInteractionAt.Equal(last.CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When recording against an unknown robot", func() {
			_, err := s.Record(ctx, model.InteractionEvent{RobotAID: a, RobotBID: "ghost", InteractionType: model.InteractionView, ComparisonType: model.ContextRandom})

			Convey("Then nothing is persisted", func() {
				So(err, ShouldEqual, repository.ErrInvalidReference)
				pairs, _ := s.AggregatePopular(ctx, 10, nil)
				So(pairs, ShouldBeEmpty)
			})
		})

		Convey("When there are no interactions", func() {
			tallies, err := s.AggregateForEntity(ctx, c)

			Convey("Then the tallies are empty", func() {
				So(err, ShouldBeNil)
				So(tallies, ShouldBeEmpty)
			})
		})
	})
}

func TestMemoryStore_News(t *testing.T) {
	Convey("Given a memory store with news", t, func() {
		ctx := context.Background()
		s := newStore(t)
		day := func(d int) *time.Time {
			t := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
			return &t
		}
		_, err := s.InsertNews(ctx, model.NewsArticle{Title: "Old", SourceName: "wire", PublishedDate: day(1), Category: "industry", Tags: []string{"humanoid"}})
		So(err, ShouldBeNil)
		_, err = s.InsertNews(ctx, model.NewsArticle{Title: "New", SourceName: "wire", PublishedDate: day(5), Category: "research"})
		So(err, ShouldBeNil)
		_, err = s.InsertNews(ctx, model.NewsArticle{Title: "Undated", SourceName: "blog"})
		So(err, ShouldBeNil)

		Convey("Then articles list newest first with undated last", func() {
			list, err := s.ListNews(ctx, repository.NewsFilter{}, 0)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 3)
			So(list[0].Title, ShouldEqual, "New")
			So(list[1].Title, ShouldEqual, "Old")
			So(list[2].Title, ShouldEqual, "Undated")
		})

		Convey("Then filters apply", func() {
			list, err := s.ListNews(ctx, repository.NewsFilter{Tag: "Humanoid"}, 10)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].Title, ShouldEqual, "Old")
		})

		Convey("Then a duplicate title from the same source is rejected", func() {
			exists, err := s.NewsExists(ctx, "Old", "wire")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
			_, err = s.InsertNews(ctx, model.NewsArticle{Title: "Old", SourceName: "wire"})
			So(err, ShouldEqual, repository.ErrDuplicate)

			exists, err = s.NewsExists(ctx, "Old", "other")
			So(err, ShouldBeNil)
			So(exists, ShouldBeFalse)
		})
	})
}

func TestMemoryStore_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given a memory store with a fast metrics updater", t, func() {
		s := repository.NewMemoryStore(context.Background(), repository.WithMetricsUpdateInterval(time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		Convey("Then Close stops it and is idempotent", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		s := repository.NewMemoryStore(ctx)
		cancel()

		Convey("Then calls fail with the context error", func() {
			_, err := s.CountRobots(ctx)
			So(err, ShouldEqual, context.Canceled)
			So(s.Close(), ShouldBeNil)
		})
	})
}
