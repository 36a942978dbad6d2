// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	service "github.com/robostorm/robostorm/internal/app"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/robostorm/robostorm/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Dispatch runs one comparison tool request and never fails; errors are
	// carried in the envelope.
	Dispatch(ctx context.Context, req service.Request) service.Response

	// Read operations expose the robot catalog and curated news.
	ListRobots(ctx context.Context, f repository.RobotFilter, limit int) ([]model.Robot, error)
	GetRobot(ctx context.Context, key string, opts model.FetchOptions) (model.Robot, error)
	ListNews(ctx context.Context, f repository.NewsFilter, limit int) ([]model.NewsArticle, error)

	Ping(ctx context.Context) error
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	mcpHandler    *MCPHandler
	robotsHandler *RobotsHandler
	newsHandler   *NewsHandler
	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	allowOrigin string
	maxLimit    int
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		allowOrigin: "*",
		maxLimit:    100,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpHandler = NewMCPHandler(deps, s.logger)
	s.robotsHandler = NewRobotsHandler(deps, s.maxLimit)
	s.newsHandler = NewNewsHandler(deps, s.maxLimit)
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	cors := CORSMiddleware(s.allowOrigin)

	mux.HandleFunc("/mcp", MetricsMiddleware(cors(s.mcpHandler.HandleMCP), "mcp"))
	mux.HandleFunc("/robots", MetricsMiddleware(cors(s.robotsHandler.HandleList), "robots"))
	mux.HandleFunc("/robots/", MetricsMiddleware(cors(s.robotsHandler.HandleGet), "robot"))
	mux.HandleFunc("/news", MetricsMiddleware(cors(s.newsHandler.HandleList), "news"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
