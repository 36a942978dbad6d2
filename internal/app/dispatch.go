package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robostorm/robostorm/pkg/errs"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/robostorm/robostorm/pkg/metrics"
)

// ToolComparison is the only tool this service answers for.
const ToolComparison = "comparison"

// Action names a dispatcher operation.
type Action string

// Actions.
const (
	ActionGetRandomRobots       Action = "getRandomRobots"
	ActionGetComparisonData     Action = "getComparisonData"
	ActionTrackInteraction      Action = "trackInteraction"
	ActionGetPopularComparisons Action = "getPopularComparisons"
	ActionGetComparisonStats    Action = "getComparisonStats"
)

// Actions lists every action in declaration order.
func Actions() []Action {
	return []Action{
		ActionGetRandomRobots,
		ActionGetComparisonData,
		ActionTrackInteraction,
		ActionGetPopularComparisons,
		ActionGetComparisonStats,
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// Request is the dispatcher envelope.
type Request struct {
	Tool       string          `json:"tool"`
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Context    *RequestContext `json:"context,omitempty"`
}

// RequestContext carries caller identity. None of it is authenticated.
type RequestContext struct {
	UserID    string `json:"userId,omitempty"`
	UserRole  string `json:"userRole,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Response is the dispatcher envelope returned for every request. A failed
// response never carries data.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Tool    string `json:"tool"`
	Action  string `json:"action"`
}

// Params is the parameter record of one action.
type Params interface {
	Action() Action
}

// RandomRobotsParams are the parameters of getRandomRobots.
type RandomRobotsParams struct {
	Count        *int     `json:"count"`
	ExcludeIDs   []string `json:"excludeIds"`
	Category     string   `json:"category"`
	Manufacturer string   `json:"manufacturer"`
}

// ComparisonDataParams are the parameters of getComparisonData.
type ComparisonDataParams struct {
	Robot1ID     string `json:"robot1Id"`
	Robot2ID     string `json:"robot2Id"`
	IncludeSpecs *bool  `json:"includeSpecs"`
	IncludeMedia *bool  `json:"includeMedia"`
}

// TrackInteractionParams are the parameters of trackInteraction.
type TrackInteractionParams struct {
	Robot1ID        string `json:"robot1Id"`
	Robot2ID        string `json:"robot2Id"`
	InteractionType string `json:"interactionType"`
	ComparisonType  string `json:"comparisonType"`
	SessionID       string `json:"sessionId"`
	IdempotencyKey  string `json:"idempotencyKey"`
}

// PopularComparisonsParams are the parameters of getPopularComparisons.
type PopularComparisonsParams struct {
	Limit     *int   `json:"limit"`
	TimeRange string `json:"timeRange"`
}

// ComparisonStatsParams are the parameters of getComparisonStats.
type ComparisonStatsParams struct {
	RobotID string `json:"robotId"`
}

func (RandomRobotsParams) Action() Action       { return ActionGetRandomRobots }
func (ComparisonDataParams) Action() Action     { return ActionGetComparisonData }
func (TrackInteractionParams) Action() Action   { return ActionTrackInteraction }
func (PopularComparisonsParams) Action() Action { return ActionGetPopularComparisons }
func (ComparisonStatsParams) Action() Action    { return ActionGetComparisonStats }

// DecodeParams decodes raw into the parameter record of action. Absent or
// null parameters decode to the zero record.
func DecodeParams(action Action, raw json.RawMessage) (Params, error) {
	const op = "service.DecodeParams"

	var p Params
	switch action {
	case ActionGetRandomRobots:
		var v RandomRobotsParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, errs.WrapKind(op, ErrInvalidParameters, err)
		}
		p = v
	case ActionGetComparisonData:
		var v ComparisonDataParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, errs.WrapKind(op, ErrInvalidParameters, err)
		}
		p = v
	case ActionTrackInteraction:
		var v TrackInteractionParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, errs.WrapKind(op, ErrInvalidParameters, err)
		}
		p = v
	case ActionGetPopularComparisons:
		var v PopularComparisonsParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, errs.WrapKind(op, ErrInvalidParameters, err)
		}
		p = v
	case ActionGetComparisonStats:
		var v ComparisonStatsParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, errs.WrapKind(op, ErrInvalidParameters, err)
		}
		p = v
	default:
		return nil, errs.WrapKind(op, ErrUnknownOperation, fmt.Errorf("unknown action %q", action))
	}
	return p, nil
}

func unmarshalParams(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return errors.New("parameters must be an object")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("malformed parameters: %w", err)
	}
	return nil
}

func joinActions() string {
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// Dispatch validates req, runs the requested action and converts the
// outcome into a response envelope. It never returns an error; failures are
// reported in the envelope.
func (s *Service) Dispatch(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := Response{Tool: req.Tool, Action: req.Action}

	data, err := s.dispatch(ctx, req)

	actionLabel := req.Action
	if !Action(actionLabel).Valid() {
		actionLabel = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = Code(err)
		resp.Error = publicMessage(err)
		resp.Code = outcome
		fields := []logger.Field{
			logger.String("tool", req.Tool),
			logger.String("action", req.Action),
			logger.String("code", outcome),
			logger.Error(err),
		}
		if errors.Is(err, ErrDependencyFailure) {
			s.logger.Error(ctx, "dispatch failed", fields...)
			metrics.RecordErrorByComponent("dispatcher", outcome)
		} else {
			s.logger.Debug(ctx, "dispatch rejected", fields...)
		}
	} else {
		resp.Success = true
		resp.Data = data
	}
	metrics.RecordDispatch(actionLabel, outcome, float64(time.Since(start).Microseconds())/1000)
	return resp
}

func (s *Service) dispatch(ctx context.Context, req Request) (any, error) {
	const op = "service.Dispatch"

	if strings.TrimSpace(req.Tool) == "" || strings.TrimSpace(req.Action) == "" {
		return nil, errs.NewKind(op, ErrMissingFields)
	}
	if req.Tool != ToolComparison {
		return nil, errs.WrapKind(op, ErrUnknownOperation,
			fmt.Errorf("unknown tool %q; available tools: %s", req.Tool, ToolComparison))
	}
	action := Action(req.Action)
	if !action.Valid() {
		return nil, errs.WrapKind(op, ErrUnknownOperation,
			fmt.Errorf("unknown action %q; available actions: %s", req.Action, joinActions()))
	}

	params, err := DecodeParams(action, req.Parameters)
	if err != nil {
		return nil, err
	}

	var rc RequestContext
	if req.Context != nil {
		rc = *req.Context
	}

	switch p := params.(type) {
	case RandomRobotsParams:
		return s.getRandomRobots(ctx, p)
	case ComparisonDataParams:
		return s.getComparisonData(ctx, p)
	case TrackInteractionParams:
		return s.trackInteraction(ctx, p, rc)
	case PopularComparisonsParams:
		return s.getPopularComparisons(ctx, p)
	case ComparisonStatsParams:
		return s.getComparisonStats(ctx, p)
	default:
		return nil, errs.WrapKind(op, ErrUnknownOperation, fmt.Errorf("unhandled action %q", params.Action()))
	}
}
