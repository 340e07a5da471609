package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/relay"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/sse"
	"github.com/mcoot/relayview/internal/web/templates/components"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// RelayHandler serves the broadcast manager of a round
type RelayHandler struct {
	relay       *relay.Service
	hubManager  *sse.HubManager
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewRelayHandler creates a new RelayHandler
func NewRelayHandler(relayService *relay.Service, hubManager *sse.HubManager, broadcaster *sse.Broadcaster, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		relay:       relayService,
		hubManager:  hubManager,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Manager renders the manager panel as seen by the current user
func (h *RelayHandler) Manager(w http.ResponseWriter, r *http.Request) {
	roundID := model.RoundID(pathVar(r, "roundId"))
	userID := env.From(r.Context()).UserID

	panel, err := h.relay.Panel(r.Context(), roundID, userID)
	if err != nil {
		h.fail(w, r, roundID, err)
		return
	}
	renderFragment(w, r, h.logger, components.RelayManager(panel),
		pages.RelayManager(pages.RelayManagerData{PageData: pageData(r, "Broadcast manager"), Panel: panel}))
}

// Sync turns polling of the round source on or off
func (h *RelayHandler) Sync(w http.ResponseWriter, r *http.Request) {
	roundID := model.RoundID(pathVar(r, "roundId"))
	userID := env.From(r.Context()).UserID

	on, err := strconv.ParseBool(r.FormValue("sync"))
	if err != nil {
		fragmentError(w, http.StatusBadRequest, "sync must be true or false")
		return
	}

	panel, err := h.relay.SetSync(r.Context(), roundID, userID, on)
	if err != nil {
		h.fail(w, r, roundID, err)
		return
	}

	h.broadcaster.BroadcastRelayRefresh(roundID)
	render(w, r, h.logger, http.StatusOK, components.RelayManager(panel))
}

// Events streams refresh signals of the round's manager panels
func (h *RelayHandler) Events(w http.ResponseWriter, r *http.Request) {
	roundID := model.RoundID(pathVar(r, "roundId"))
	hub := h.hubManager.GetOrCreateHub(sse.RoundTopic(roundID))
	sse.ServeSSE(w, r, hub, env.From(r.Context()).ViewerID, nil)
}

func (h *RelayHandler) fail(w http.ResponseWriter, r *http.Request, roundID model.RoundID, err error) {
	switch {
	case errors.Is(err, model.ErrRoundNotFound):
		fragmentError(w, http.StatusNotFound, "Round not found")
	case errors.Is(err, model.ErrNotContributor):
		fragmentError(w, http.StatusForbidden, "Only contributors can change the source")
	default:
		requestLogger(r, h.logger).Error("relay manager request failed",
			slog.String("round_id", string(roundID)),
			slog.String("error", err.Error()))
		fragmentError(w, http.StatusBadGateway, "Could not reach the broadcast server")
	}
}
