package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/middleware"
	"github.com/mcoot/relayview/internal/web/sse"
	"github.com/mcoot/relayview/internal/web/templates/components"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// PlayersHandler serves the players tab of a broadcast
type PlayersHandler struct {
	registry   *roster.Registry
	loader     *roster.Loader
	renderer   *sse.RosterRenderer
	hubManager *sse.HubManager
	logger     *slog.Logger
}

// NewPlayersHandler creates a new PlayersHandler
func NewPlayersHandler(registry *roster.Registry, loader *roster.Loader, renderer *sse.RosterRenderer, hubManager *sse.HubManager, logger *slog.Logger) *PlayersHandler {
	return &PlayersHandler{
		registry:   registry,
		loader:     loader,
		renderer:   renderer,
		hubManager: hubManager,
		logger:     logger,
	}
}

func (h *PlayersHandler) controller(r *http.Request) (*roster.Controller, string, model.TourID) {
	viewerID := env.From(r.Context()).ViewerID
	tourID := model.TourID(pathVar(r, "tourId"))
	return h.registry.Get(viewerID, tourID), viewerID, tourID
}

// warmTour fetches the tour metadata once so views can read it from cache
func (h *PlayersHandler) warmTour(r *http.Request, tourID model.TourID) {
	if _, ok := h.loader.CachedTour(tourID); ok {
		return
	}
	if _, err := h.loader.Tour(r.Context(), tourID); err != nil {
		requestLogger(r, h.logger).Warn("failed to fetch tour",
			slog.String("tour_id", string(tourID)),
			slog.String("error", err.Error()))
	}
}

// Page renders the players tab. The first display of a viewer's list
// loads the roster before rendering.
func (h *PlayersHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctrl, viewerID, tourID := h.controller(r)
	h.warmTour(r, tourID)

	if ctrl.State().Roster == nil {
		if err := ctrl.LoadRoster(r.Context(), true); err != nil && errors.Is(err, model.ErrTourNotFound) {
			h.notFound(w, r, "Tournament not found")
			return
		}
	}

	h.respondPanel(w, r, h.renderer.Data(viewerID, tourID))
}

// Show switches to the players tab and shows one player
func (h *PlayersHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctrl, viewerID, tourID := h.controller(r)
	key := model.PlayerKey(pathVar(r, "key"))
	h.warmTour(r, tourID)

	if err := ctrl.Dispatch(r.Context(), roster.Event{Kind: roster.EventSwitchAndShow, Key: key}); err != nil {
		h.playerError(w, r, tourID, err)
		return
	}

	data := h.renderer.Data(viewerID, tourID)
	if isHTMX(r) {
		render(w, r, h.logger, http.StatusOK, components.PlayersContent(data))
		return
	}
	h.respondPanel(w, r, data)
}

// FromHash follows the deep link of a page opened on "#players/{key}".
// Other fragments leave the list displayed.
func (h *PlayersHandler) FromHash(w http.ResponseWriter, r *http.Request) {
	ctrl, viewerID, tourID := h.controller(r)
	fragment := r.FormValue("hash")
	if v, err := url.PathUnescape(fragment); err == nil {
		fragment = v
	}
	h.warmTour(r, tourID)

	if err := ctrl.Dispatch(r.Context(), roster.Event{Kind: roster.EventShowFromHash, Fragment: fragment}); err != nil {
		h.playerError(w, r, tourID, err)
		return
	}
	h.respondContent(w, r, viewerID, tourID)
}

// Close returns to the list
func (h *PlayersHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctrl, viewerID, tourID := h.controller(r)
	_ = ctrl.Dispatch(r.Context(), roster.Event{Kind: roster.EventClosePlayer})
	h.respondContent(w, r, viewerID, tourID)
}

// Reload refetches the roster. The spinner of an empty list posts insert=true.
func (h *PlayersHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctrl, viewerID, tourID := h.controller(r)
	onInsert := r.FormValue("insert") == "true"

	if err := ctrl.Dispatch(r.Context(), roster.Event{Kind: roster.EventLoadRoster, OnInsert: onInsert}); err != nil {
		if errors.Is(err, model.ErrTourNotFound) {
			fragmentError(w, http.StatusNotFound, "Tournament not found")
			return
		}
		fragmentError(w, http.StatusBadGateway, "Could not load players")
		return
	}
	h.respondContent(w, r, viewerID, tourID)
}

// Tip renders the tooltip of a player
func (h *PlayersHandler) Tip(w http.ResponseWriter, r *http.Request) {
	ctrl, _, tourID := h.controller(r)
	key := model.PlayerKey(pathVar(r, "key"))

	p, err := ctrl.Tip(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPlayerNotFound), errors.Is(err, model.ErrEmptyPlayerKey):
			fragmentError(w, http.StatusNotFound, "Player not found")
		default:
			requestLogger(r, h.logger).Error("failed to load player tip",
				slog.String("tour_id", string(tourID)),
				slog.String("player_key", string(key)),
				slog.String("error", err.Error()))
			fragmentError(w, http.StatusBadGateway, "Could not load player")
		}
		return
	}
	render(w, r, h.logger, http.StatusOK, components.PlayerTip(tourID, p))
}

// Events streams redraws of the viewer's player list
func (h *PlayersHandler) Events(w http.ResponseWriter, r *http.Request) {
	_, viewerID, tourID := h.controller(r)
	hub := h.hubManager.GetOrCreateHub(sse.PlayersTopic(viewerID, tourID))
	sse.ServeSSE(w, r, hub, viewerID, func() { h.renderer.Redraw(viewerID, tourID) })
}

func (h *PlayersHandler) respondContent(w http.ResponseWriter, r *http.Request, viewerID string, tourID model.TourID) {
	if !isHTMX(r) {
		http.Redirect(w, r, components.PlayersURL(tourID), http.StatusSeeOther)
		return
	}
	render(w, r, h.logger, http.StatusOK, components.PlayersContent(h.renderer.Data(viewerID, tourID)))
}

// respondPanel writes the players panel, inside the site layout for full loads
func (h *PlayersHandler) respondPanel(w http.ResponseWriter, r *http.Request, data components.PlayersData) {
	renderFragment(w, r, h.logger, components.PlayersPanel(data),
		pages.Players(pages.PlayersData{PageData: pageData(r, "Players"), Players: data}))
}

func (h *PlayersHandler) playerError(w http.ResponseWriter, r *http.Request, tourID model.TourID, err error) {
	status, message := http.StatusBadGateway, "Could not load player"
	if errors.Is(err, model.ErrPlayerNotFound) || errors.Is(err, model.ErrEmptyPlayerKey) {
		status, message = http.StatusNotFound, "Player not found"
	}
	if isHTMX(r) {
		fragmentError(w, status, message)
		return
	}
	middleware.SetFlash(w, "error", message)
	http.Redirect(w, r, components.PlayersURL(tourID), http.StatusSeeOther)
}

func (h *PlayersHandler) notFound(w http.ResponseWriter, r *http.Request, message string) {
	if isHTMX(r) {
		fragmentError(w, http.StatusNotFound, message)
		return
	}
	renderError(w, r, h.logger, http.StatusNotFound, "Not found", message)
}
