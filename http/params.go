package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/glbter/distributed-systems/portfolio-analytics/apperr"
	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

const defaultMonths = 12

func userIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return 0, apperr.Validation("userId is required", nil)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("userId %q is not an integer", raw), nil)
	}
	return id, nil
}

func monthsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return defaultMonths, nil
	}

	months, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("months %q is not an integer", raw), nil)
	}
	if months < 1 {
		return 0, apperr.Validation(fmt.Sprintf("months must be at least 1, got %d", months), nil)
	}
	return months, nil
}

func symbolsParam(r *http.Request) ([]string, error) {
	symbols := entities.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		return nil, apperr.Validation("symbols is required", nil)
	}
	return symbols, nil
}

func statusParam(r *http.Request) (entities.LotStatus, error) {
	status, err := entities.ParseLotStatus(r.URL.Query().Get("status"))
	if err != nil {
		return "", apperr.Validation("status must be open or closed", err)
	}
	return status, nil
}
