package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/apperr"
	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

type QuoteProvider interface {
	LiveQuotes(ctx context.Context, symbols []string) ([]entities.Quote, error)
}

type MarketHandler struct {
	Logger *zap.Logger
	Quotes QuoteProvider
}

func (h MarketHandler) Routes(r chi.Router) {
	r.Get("/quotes", h.GetQuotes)
}

// GetQuotes returns the quotes that could be fetched; failing symbols are
// left out.
func (h MarketHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GetQuotes"))

	symbols, err := symbolsParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	quotes, err := h.Quotes.LiveQuotes(r.Context(), symbols)
	if err != nil {
		writeError(w, r, logger, apperr.Upstream("quotes unavailable", err))
		return
	}
	if quotes == nil {
		quotes = []entities.Quote{}
	}

	writeOK(w, logger, quotes)
}
