package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/comparison"
	"github.com/robostorm/robostorm/internal/domain/dedupe"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/errs"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/robostorm/robostorm/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Parameter defaults.
const (
	DefaultRandomCount  = 2
	DefaultPopularLimit = 10
)

// Time ranges accepted by getPopularComparisons.
const (
	TimeRangeDay   = "day"
	TimeRangeWeek  = "week"
	TimeRangeMonth = "month"
	TimeRangeAll   = "all"
)

// RandomRobotsResult is the data of getRandomRobots.
type RandomRobotsResult struct {
	Robots []model.Robot `json:"robots"`
	Count  int           `json:"count"`
}

// ComparisonDataResult is the data of getComparisonData.
type ComparisonDataResult struct {
	Robot1     model.Robot       `json:"robot1"`
	Robot2     model.Robot       `json:"robot2"`
	Comparison comparison.Result `json:"comparison"`
}

// TrackInteractionResult is the data of trackInteraction.
type TrackInteractionResult struct {
	AnalyticsID     string                  `json:"analyticsId"`
	InteractionType model.InteractionType   `json:"interactionType"`
	ComparisonType  model.ComparisonContext `json:"comparisonType"`
	Duplicate       bool                    `json:"duplicate"`
}

// PopularComparisonsResult is the data of getPopularComparisons.
type PopularComparisonsResult struct {
	Comparisons []model.PairCount `json:"comparisons"`
	Count       int               `json:"count"`
}

func (s *Service) getRandomRobots(ctx context.Context, p RandomRobotsParams) (RandomRobotsResult, error) {
	const op = "service.getRandomRobots"

	count := DefaultRandomCount
	if p.Count != nil {
		count = *p.Count
	}
	if count < 1 || count > s.maxRandomCount {
		return RandomRobotsResult{}, errs.WrapKind(op, ErrInvalidParameters,
			fmt.Errorf("count must be between 1 and %d", s.maxRandomCount))
	}

	excluded := make(map[string]struct{}, len(p.ExcludeIDs))
	for _, id := range p.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	filter := repository.RobotFilter{
		Status:         model.StatusActive,
		Category:       p.Category,
		ManufacturerID: p.Manufacturer,
		ExcludeIDs:     p.ExcludeIDs,
	}
	candidates, err := call(ctx, s, "FindMany", func(ctx context.Context) ([]model.Robot, error) {
		return s.robots.FindMany(ctx, filter, count+len(excluded), true)
	})
	if err != nil {
		return RandomRobotsResult{}, errs.Wrap(op, err)
	}

	picked := make([]model.Robot, 0, count)
	seen := make(map[string]struct{}, count)
	for _, r := range candidates {
		if len(picked) == count {
			break
		}
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		picked = append(picked, r)
	}
	if len(picked) < count {
		return RandomRobotsResult{}, errs.WrapKind(op, ErrNotEnoughCandidates,
			fmt.Errorf("requested %d robots, %d eligible", count, len(picked)))
	}
	return RandomRobotsResult{Robots: picked, Count: len(picked)}, nil
}

func (s *Service) getComparisonData(ctx context.Context, p ComparisonDataParams) (ComparisonDataResult, error) {
	const op = "service.getComparisonData"

	id1, id2 := strings.TrimSpace(p.Robot1ID), strings.TrimSpace(p.Robot2ID)
	if id1 == "" || id2 == "" {
		return ComparisonDataResult{}, errs.WrapKind(op, ErrInvalidParameters,
			errors.New("robot1Id and robot2Id are required"))
	}
	opts := model.FetchOptions{IncludeSpecs: true}
	if p.IncludeSpecs != nil {
		opts.IncludeSpecs = *p.IncludeSpecs
	}
	if p.IncludeMedia != nil {
		opts.IncludeMedia = *p.IncludeMedia
	}

	var r1, r2 model.Robot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r1, err = s.findRobot(gctx, id1, opts)
		return err
	})
	g.Go(func() error {
		var err error
		r2, err = s.findRobot(gctx, id2, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return ComparisonDataResult{}, errs.Wrap(op, err)
	}

	res := comparison.Compare(r1, r2)
	metrics.RecordComparison(string(res.OverallWinner))
	return ComparisonDataResult{Robot1: r1, Robot2: r2, Comparison: res}, nil
}

// findRobot loads a robot by id, reporting a missing robot as EntityNotFound.
func (s *Service) findRobot(ctx context.Context, id string, opts model.FetchOptions) (model.Robot, error) {
	r, err := call(ctx, s, "FindByID", func(ctx context.Context) (model.Robot, error) {
		return s.robots.FindByID(ctx, id, opts)
	})
	if errors.Is(err, ErrEntityNotFound) {
		return model.Robot{}, errs.WrapKind("service.findRobot", ErrEntityNotFound, fmt.Errorf("robot %s", id))
	}
	return r, err
}

// claimKey claims an idempotency key, waiting out a request that holds it.
// A settled key yields its event ID; a released one is claimed again. The
// wait is bounded by the store timeout because that bounds the holder's write.
func (s *Service) claimKey(ctx context.Context, key string) (dedupe.Claim, error) {
	for {
		claim := s.deduper.SeenAndRecord(ctx, key)
		if claim.Pending == nil {
			return claim, nil
		}

		timer := time.NewTimer(s.storeTimeout)
		select {
		case <-claim.Pending:
			timer.Stop()
		case <-timer.C:
			return dedupe.Claim{}, errs.WrapKind("dedupe.wait", ErrDependencyTimeout,
				fmt.Errorf("interaction %s still in flight", key))
		case <-ctx.Done():
			timer.Stop()
			return dedupe.Claim{}, errs.WrapKind("dedupe.wait", ErrDependencyTimeout, ctx.Err())
		}
	}
}

func (s *Service) trackInteraction(ctx context.Context, p TrackInteractionParams, rc RequestContext) (TrackInteractionResult, error) {
	const op = "service.trackInteraction"

	id1, id2 := strings.TrimSpace(p.Robot1ID), strings.TrimSpace(p.Robot2ID)
	if id1 == "" || id2 == "" {
		return TrackInteractionResult{}, errs.WrapKind(op, ErrInvalidParameters,
			errors.New("robot1Id and robot2Id are required"))
	}
	typ := model.InteractionType(p.InteractionType)
	if !typ.Valid() {
		return TrackInteractionResult{}, errs.WrapKind(op, ErrInvalidInteractionType,
			fmt.Errorf("interactionType %q is not one of %v", p.InteractionType, model.InteractionTypes()))
	}
	ctxType := model.ContextHomePage
	if p.ComparisonType != "" {
		ctxType = model.ComparisonContext(p.ComparisonType)
	}
	if !ctxType.Valid() {
		return TrackInteractionResult{}, errs.WrapKind(op, ErrInvalidInteractionType,
			fmt.Errorf("comparisonType %q is not one of %v", p.ComparisonType, model.ComparisonContexts()))
	}

	result := TrackInteractionResult{InteractionType: typ, ComparisonType: ctxType}

	key := strings.TrimSpace(p.IdempotencyKey)
	var token uint64
	if key != "" {
		claim, err := s.claimKey(ctx, key)
		if err != nil {
			return TrackInteractionResult{}, errs.Wrap(op, err)
		}
		if claim.Seen {
			metrics.RecordInteractionDuplicate()
			s.logger.Debug(ctx, "duplicate interaction collapsed",
				logger.String("idempotency_key", key),
				logger.String("analytics_id", claim.EventID),
			)
			result.AnalyticsID = claim.EventID
			result.Duplicate = true
			return result, nil
		}
		token = claim.Token
	}

	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = rc.SessionID
	}
	ev := model.InteractionEvent{
		RobotAID:        id1,
		RobotBID:        id2,
		InteractionType: typ,
		ComparisonType:  ctxType,
		SessionID:       sessionID,
		UserID:          rc.UserID,
	}
	saved, err := call(ctx, s, "Record", func(ctx context.Context) (model.InteractionEvent, error) {
		return s.recorder.Record(ctx, ev)
	})
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key, token)
		}
		if errors.Is(err, ErrEntityNotFound) {
			return TrackInteractionResult{}, errs.WrapKind(op, ErrEntityNotFound,
				fmt.Errorf("robot %s or %s", id1, id2))
		}
		return TrackInteractionResult{}, errs.Wrap(op, err)
	}
	if key != "" {
		s.deduper.Complete(ctx, key, token, saved.ID)
	}

	metrics.RecordInteraction(string(typ))
	result.AnalyticsID = saved.ID
	return result, nil
}

// sinceFor maps a time range onto the earliest included timestamp.
func sinceFor(timeRange string, now time.Time) (*time.Time, error) {
	var d time.Duration
	switch timeRange {
	case "", TimeRangeAll:
		return nil, nil
	case TimeRangeDay:
		d = 24 * time.Hour
	case TimeRangeWeek:
		d = 7 * 24 * time.Hour
	case TimeRangeMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil, fmt.Errorf("timeRange %q is not one of day, week, month, all", timeRange)
	}
	since := now.Add(-d)
	return &since, nil
}

func (s *Service) getPopularComparisons(ctx context.Context, p PopularComparisonsParams) (PopularComparisonsResult, error) {
	const op = "service.getPopularComparisons"

	limit := DefaultPopularLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	if limit < 1 || limit > s.maxPopularLimit {
		return PopularComparisonsResult{}, errs.WrapKind(op, ErrInvalidParameters,
			fmt.Errorf("limit must be between 1 and %d", s.maxPopularLimit))
	}
	since, err := sinceFor(p.TimeRange, s.now())
	if err != nil {
		return PopularComparisonsResult{}, errs.WrapKind(op, ErrInvalidParameters, err)
	}

	pairs, err := call(ctx, s, "AggregatePopular", func(ctx context.Context) ([]model.PairCount, error) {
		return s.recorder.AggregatePopular(ctx, limit, since)
	})
	if err != nil {
		return PopularComparisonsResult{}, errs.Wrap(op, err)
	}
	if pairs == nil {
		pairs = []model.PairCount{}
	}
	return PopularComparisonsResult{Comparisons: pairs, Count: len(pairs)}, nil
}

func (s *Service) getComparisonStats(ctx context.Context, p ComparisonStatsParams) (model.EntityStats, error) {
	const op = "service.getComparisonStats"

	id := strings.TrimSpace(p.RobotID)
	if id == "" {
		return model.EntityStats{}, errs.WrapKind(op, ErrInvalidParameters, errors.New("robotId is required"))
	}
	if _, err := s.findRobot(ctx, id, model.FetchOptions{}); err != nil {
		return model.EntityStats{}, errs.Wrap(op, err)
	}

	tallies, err := call(ctx, s, "AggregateForEntity", func(ctx context.Context) ([]model.InteractionTally, error) {
		return s.recorder.AggregateForEntity(ctx, id)
	})
	if err != nil {
		return model.EntityStats{}, errs.Wrap(op, err)
	}
	return model.NewEntityStats(id, tallies), nil
}
