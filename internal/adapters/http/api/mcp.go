package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/robostorm/robostorm/internal/app"
	"github.com/robostorm/robostorm/pkg/logger"
)

// maxRequestBytes bounds a dispatcher request body.
const maxRequestBytes = 1 << 20

var errTrailingData = errors.New("trailing data after request")

// Dispatcher runs comparison tool requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req service.Request) service.Response
}

// MCPHandler serves the tool dispatcher envelope.
type MCPHandler struct {
	deps   Dispatcher
	logger logger.Logger
}

// NewMCPHandler creates a new dispatcher handler.
func NewMCPHandler(deps Dispatcher, l logger.Logger) *MCPHandler {
	return &MCPHandler{deps: deps, logger: l}
}

// failure is the envelope written when a request never reaches the dispatcher.
type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleMCP handles POST /mcp requests. Successful dispatches answer 200 and
// failed ones 400, both with the response envelope.
func (h *MCPHandler) HandleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, failure{Error: "Method not allowed"})
		return
	}

	var req service.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	err := dec.Decode(&req)
	if err == nil && !errors.Is(dec.Decode(&struct{}{}), io.EOF) {
		err = errTrailingData
	}
	if err != nil {
		h.logger.Debug(r.Context(), "malformed dispatcher request", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, failure{Error: "Invalid request format"})
		return
	}

	resp := h.deps.Dispatch(r.Context(), req)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}
