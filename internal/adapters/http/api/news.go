package api

import (
	"context"
	"net/http"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/errs"
)

// NewsDependencies defines the interface for news reads.
type NewsDependencies interface {
	ListNews(ctx context.Context, f repository.NewsFilter, limit int) ([]model.NewsArticle, error)
}

// NewsHandler handles curated news requests.
type NewsHandler struct {
	deps     NewsDependencies
	maxLimit int
}

// NewNewsHandler creates a new news handler.
func NewNewsHandler(deps NewsDependencies, maxLimit int) *NewsHandler {
	return &NewsHandler{deps: deps, maxLimit: maxLimit}
}

type newsResponse struct {
	Articles []model.NewsArticle `json:"articles"`
	Count    int                 `json:"count"`
}

// HandleList handles GET /news?category=&tag=&limit=N requests.
func (h *NewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_news"
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

	articles, err := h.deps.ListNews(r.Context(), repository.NewsFilter{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}, limit)
	if err != nil {
		writeServiceError(w, errs.Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newsResponse{Articles: articles, Count: len(articles)})
}
