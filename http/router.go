package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/apperr"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

type RouterOptions struct {
	BasePath       string
	FrontendOrigin string
	Timeout        time.Duration
}

// NewRouter builds the common middleware stack of every service and mounts
// routes plus /health under the base path. /metrics stays at the root.
func NewRouter(opts RouterOptions, logger *zap.Logger, m *metrics.Metrics, routes func(r chi.Router)) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{opts.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)
	if m != nil {
		r.Use(m.Middleware)
	}
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	mount := func(r chi.Router) {
		r.Get("/health", HealthHandler{Origin: opts.FrontendOrigin}.Health)
		routes(r)
	}

	base := strings.TrimRight(opts.BasePath, "/")
	if base == "" {
		r.Group(mount)
	} else {
		r.Route(base, mount)
	}

	return r
}

// RequestLogger writes one zap entry per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.With(zap.String("caller", "RequestLogger"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("requestId", middleware.GetReqID(r.Context())),
					zap.String("httpMethod", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func writeOK(w http.ResponseWriter, logger *zap.Logger, v any) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		logger.Error(err.Error())
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := apperr.From(err)
	reqID := middleware.GetReqID(r.Context())

	if appErr.Kind == apperr.KindValidation {
		logger.Info(appErr.Error(), zap.String("requestId", reqID))
	} else {
		logger.Error(appErr.Error(), zap.String("requestId", reqID))
	}

	if err := writeJSON(w, appErr.StatusCode(), appErr.Public(reqID)); err != nil {
		logger.Error(err.Error())
	}
}
