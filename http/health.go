package http

import (
	"net/http"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

type HealthHandler struct {
	Origin string
}

func (h HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, entities.Health{Status: "OK", Origin: h.Origin})
}
