package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/apperr"
	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
	"github.com/glbter/distributed-systems/portfolio-analytics/news/newsapi"
)

type NewsProvider interface {
	News(ctx context.Context, symbols []string) ([]entities.Article, error)
}

type NewsHandler struct {
	Logger *zap.Logger
	News   NewsProvider
}

func (h NewsHandler) Routes(r chi.Router) {
	r.Get("/news", h.GetNews)
}

// GetNews fails as a whole when the provider rejects any symbol.
func (h NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GetNews"))

	symbols, err := symbolsParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	articles, err := h.News.News(r.Context(), symbols)
	if err != nil {
		if errors.Is(err, newsapi.ErrUpstream) {
			writeError(w, r, logger, apperr.Upstream("news provider error", err))
			return
		}
		writeError(w, r, logger, apperr.Internal("failed to fetch news", err))
		return
	}
	if articles == nil {
		articles = []entities.Article{}
	}

	writeOK(w, logger, articles)
}
