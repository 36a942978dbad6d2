package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	service "github.com/robostorm/robostorm/internal/app"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/errs"
)

// RobotsDependencies defines the interface for catalog reads.
type RobotsDependencies interface {
	ListRobots(ctx context.Context, f repository.RobotFilter, limit int) ([]model.Robot, error)
	GetRobot(ctx context.Context, key string, opts model.FetchOptions) (model.Robot, error)
}

// RobotsHandler handles robot catalog requests.
type RobotsHandler struct {
	deps     RobotsDependencies
	maxLimit int
}

// NewRobotsHandler creates a new robots handler.
func NewRobotsHandler(deps RobotsDependencies, maxLimit int) *RobotsHandler {
	return &RobotsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type robotsResponse struct {
	Robots []model.Robot `json:"robots"`
	Count  int           `json:"count"`
}

// HandleList handles GET /robots?category=&manufacturer=&status=&limit=N.
// Status defaults to active; "all" lists every status.
func (h *RobotsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_robots"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errs.NewKind(op, ErrMethodNotAllowed))
		return
	}
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.WrapKind(op, ErrBadRequest, err))
		return
	}

	f := repository.RobotFilter{
		Status:         q.Get("status"),
		Category:       q.Get("category"),
		ManufacturerID: q.Get("manufacturer"),
	}
	switch f.Status {
	case "":
		f.Status = model.StatusActive
	case "all":
		f.Status = ""
	}

	robots, err := h.deps.ListRobots(r.Context(), f, limit)
	if err != nil {
		writeServiceError(w, errs.Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, robotsResponse{Robots: robots, Count: len(robots)})
}

// HandleGet handles GET /robots/{id-or-slug}?specs=&media= requests.
func (h *RobotsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_robot"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errs.NewKind(op, ErrMethodNotAllowed))
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/robots/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errs.NewKind(op, ErrBadRequest))
		return
	}

	q := r.URL.Query()
	specs, err := parseBool(q.Get("specs"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	media, err := parseBool(q.Get("media"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.WrapKind(op, ErrBadRequest, err))
		return
	}

	robot, err := h.deps.GetRobot(r.Context(), key, model.FetchOptions{IncludeSpecs: specs, IncludeMedia: media})
	if err != nil {
		writeServiceError(w, errs.Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, robot)
}

// writeServiceError translates service kinds into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDependencyTimeout):
		writeError(w, http.StatusGatewayTimeout, "dependency_timeout", service.ErrDependencyTimeout)
	default:
		writeError(w, http.StatusServiceUnavailable, "dependency_failure", service.ErrDependencyFailure)
	}
}
