package repository

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/metrics"
)

// MemoryStore keeps robots, interactions and news in process memory. It
// implements RobotStore, InteractionRecorder and NewsStore and is used for
// local runs and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	manufacturers map[string]model.Manufacturer
	robots        map[string]model.Robot // by id
	slugs         map[string]string      // slug -> id
	events        []model.InteractionEvent
	news          []model.NewsArticle

	now                   func() time.Time
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var (
	_ RobotStore          = (*MemoryStore)(nil)
	_ InteractionRecorder = (*MemoryStore)(nil)
	_ NewsStore           = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		manufacturers:         make(map[string]model.Manufacturer),
		robots:                make(map[string]model.Robot),
		slugs:                 make(map[string]string),
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.robots)
				s.mu.RUnlock()
				metrics.UpdateRobotsTotal(n)
			}
		}
	}()
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) FindByID(ctx context.Context, id string, opts model.FetchOptions) (model.Robot, error) {
	if err := ctx.Err(); err != nil {
		return model.Robot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.robots[id]
	if !ok {
		return model.Robot{}, ErrNotFound
	}
	return s.view(r, opts), nil
}

func (s *MemoryStore) FindBySlug(ctx context.Context, slug string, opts model.FetchOptions) (model.Robot, error) {
	if err := ctx.Err(); err != nil {
		return model.Robot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return model.Robot{}, ErrNotFound
	}
	return s.view(s.robots[id], opts), nil
}

// view returns a copy of r safe to hand out, with the manufacturer joined
// and optional relations trimmed. Caller holds s.mu.
func (s *MemoryStore) view(r model.Robot, opts model.FetchOptions) model.Robot {
	if m, ok := s.manufacturers[r.ManufacturerID]; ok {
		r.Manufacturer = &m
	}
	if opts.IncludeSpecs {
		r.Specifications = append([]model.Specification(nil), r.Specifications...)
	} else {
		r.Specifications = nil
	}
	if opts.IncludeMedia {
		r.Media = append([]model.Media(nil), r.Media...)
	} else {
		r.Media = nil
	}
	return r
}

func (s *MemoryStore) FindMany(ctx context.Context, f RobotFilter, limit int, random bool) ([]model.Robot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[string]struct{}, len(f.ExcludeIDs))
	for _, id := range f.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	out := make([]model.Robot, 0, len(s.robots))
	for _, r := range s.robots {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.ManufacturerID != "" && r.ManufacturerID != f.ManufacturerID {
			continue
		}
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		out = append(out, s.view(r, model.FetchOptions{}))
	}

	if random {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Name != out[j].Name {
				return out[i].Name < out[j].Name
			}
			return out[i].ID < out[j].ID
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpsertManufacturer(ctx context.Context, m model.Manufacturer) (model.Manufacturer, error) {
	if err := ctx.Err(); err != nil {
		return model.Manufacturer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		for id, existing := range s.manufacturers {
			if existing.Name == m.Name {
				m.ID = id
				break
			}
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.manufacturers[m.ID] = m
	return m, nil
}

func (s *MemoryStore) UpsertRobot(ctx context.Context, r model.Robot) (model.Robot, error) {
	if err := ctx.Err(); err != nil {
		return model.Robot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ManufacturerID != "" {
		if _, ok := s.manufacturers[r.ManufacturerID]; !ok {
			return model.Robot{}, ErrInvalidReference
		}
	}

	now := s.now().UTC()
	if id, ok := s.slugs[r.Slug]; ok {
		r.ID = id
		r.CreatedAt = s.robots[id].CreatedAt
	} else {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	r.Manufacturer = nil
	r.Specifications = append([]model.Specification(nil), r.Specifications...)
	r.Media = append([]model.Media(nil), r.Media...)
	for i := range r.Media {
		if r.Media[i].ID == "" {
			r.Media[i].ID = uuid.NewString()
		}
	}

	s.robots[r.ID] = r
	s.slugs[r.Slug] = r.ID
	return s.view(r, model.FetchOptions{IncludeSpecs: true, IncludeMedia: true}), nil
}

func (s *MemoryStore) CountRobots(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.robots), nil
}

func (s *MemoryStore) Record(ctx context.Context, ev model.InteractionEvent) (model.InteractionEvent, error) {
	if err := ctx.Err(); err != nil {
		return model.InteractionEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.robots[ev.RobotAID]; !ok {
		return model.InteractionEvent{}, ErrInvalidReference
	}
	if _, ok := s.robots[ev.RobotBID]; !ok {
		return model.InteractionEvent{}, ErrInvalidReference
	}

	ev.ID = uuid.NewString()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *MemoryStore) AggregatePopular(ctx context.Context, limit int, since *time.Time) ([]model.PairCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type pairKey struct{ a, b string }
	byPair := make(map[pairKey]*model.PairCount)
	for _, ev := range s.events {
		if since != nil && ev.CreatedAt.Before(*since) {
			continue
		}
		a, b := model.CanonicalPair(ev.RobotAID, ev.RobotBID)
		pc, ok := byPair[pairKey{a, b}]
		if !ok {
			pc = &model.PairCount{RobotAID: a, RobotBID: b}
			byPair[pairKey{a, b}] = pc
		}
		pc.Count++
		if ev.CreatedAt.After(pc.LastSeen) {
			pc.LastSeen = ev.CreatedAt
		}
	}

	pairs := make([]model.PairCount, 0, len(byPair))
	for _, pc := range byPair {
		pairs = append(pairs, *pc)
	}
	return model.RankPairs(pairs, limit), nil
}

func (s *MemoryStore) AggregateForEntity(ctx context.Context, robotID string) ([]model.InteractionTally, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type tallyKey struct {
		typ      model.InteractionType
		ctx      model.ComparisonContext
		role     model.Role
		opponent string
	}
	var (
		order   []tallyKey
		tallies = make(map[tallyKey]*model.InteractionTally)
	)
	for _, ev := range s.events {
		var k tallyKey
		switch robotID {
		case ev.RobotAID:
			k = tallyKey{ev.InteractionType, ev.ComparisonType, model.RoleA, ev.RobotBID}
		case ev.RobotBID:
			k = tallyKey{ev.InteractionType, ev.ComparisonType, model.RoleB, ev.RobotAID}
		default:
			continue
		}
		t, ok := tallies[k]
		if !ok {
			t = &model.InteractionTally{InteractionType: k.typ, ComparisonType: k.ctx, Role: k.role, OpponentID: k.opponent}
			tallies[k] = t
			order = append(order, k)
		}
		t.Count++
		if ev.CreatedAt.After(t.LastSeen) {
			t.LastSeen = ev.CreatedAt
		}
	}

	out := make([]model.InteractionTally, 0, len(order))
	for _, k := range order {
		out = append(out, *tallies[k])
	}
	return out, nil
}

func (s *MemoryStore) ListNews(ctx context.Context, f NewsFilter, limit int) ([]model.NewsArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.NewsArticle, 0, len(s.news))
	for _, a := range s.news {
		if f.Category != "" && !strings.EqualFold(a.Category, f.Category) {
			continue
		}
		if f.Tag != "" && !hasTag(a.Tags, f.Tag) {
			continue
		}
		a.Tags = append([]string(nil), a.Tags...)
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].PublishedDate, out[j].PublishedDate
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case (pi == nil) != (pj == nil):
			return pi != nil
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) NewsExists(ctx context.Context, title, sourceName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newsExistsLocked(title, sourceName), nil
}

func (s *MemoryStore) newsExistsLocked(title, sourceName string) bool {
	for _, a := range s.news {
		if a.Title == title && a.SourceName == sourceName {
			return true
		}
	}
	return false
}

func (s *MemoryStore) InsertNews(ctx context.Context, a model.NewsArticle) (model.NewsArticle, error) {
	if err := ctx.Err(); err != nil {
		return model.NewsArticle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.newsExistsLocked(a.Title, a.SourceName) {
		return model.NewsArticle{}, ErrDuplicate
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()
	a.Tags = append([]string(nil), a.Tags...)
	s.news = append(s.news, a)
	return a, nil
}
