package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/apperr"
	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

type SummaryService interface {
	Summary(ctx context.Context, userID int64) (entities.Summary, error)
}

// HistoryService is served either by the valuation engine in process or by
// the history workers over RabbitMQ.
type HistoryService interface {
	History(ctx context.Context, userID int64, months int) ([]entities.HistoryItem, error)
}

type LotLister interface {
	ListLots(ctx context.Context, userID int64, status entities.LotStatus) ([]entities.Lot, error)
}

type AnalyticsHandler struct {
	Logger    *zap.Logger
	Summaries SummaryService
	History   HistoryService
	Lots      LotLister
}

func (h AnalyticsHandler) Routes(r chi.Router) {
	r.Get("/analytics/summary", h.GetSummary)
	r.Get("/analytics/history", h.GetHistory)
	r.Get("/positions", h.GetPositions)
}

func (h AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GetSummary"))

	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	summary, err := h.Summaries.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, logger, apperr.Internal("failed to compute summary", err))
		return
	}

	writeOK(w, logger, summary)
}

func (h AnalyticsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GetHistory"))

	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}
	months, err := monthsParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	items, err := h.History.History(r.Context(), userID, months)
	if err != nil {
		writeError(w, r, logger, apperr.Internal("failed to compute history", err))
		return
	}
	if items == nil {
		items = []entities.HistoryItem{}
	}

	writeOK(w, logger, items)
}

func (h AnalyticsHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GetPositions"))

	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}
	status, err := statusParam(r)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	lots, err := h.Lots.ListLots(r.Context(), userID, status)
	if err != nil {
		writeError(w, r, logger, apperr.Internal("failed to list positions", err))
		return
	}
	if lots == nil {
		lots = []entities.Lot{}
	}

	writeOK(w, logger, lots)
}
