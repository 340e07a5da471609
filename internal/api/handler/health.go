package handler

import (
	"net/http"

	"github.com/mcoot/relayview/internal/api/response"
	"github.com/mcoot/relayview/internal/services/federation"
	"github.com/mcoot/relayview/internal/services/roster"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	federations *federation.Service
	registry    *roster.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(federations *federation.Service, registry *roster.Registry) *HealthHandler {
	return &HealthHandler{federations: federations, registry: registry}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		Federations: h.federations.Count(),
		Rosters:     h.registry.Len(),
	})
}
