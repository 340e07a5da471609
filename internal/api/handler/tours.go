package handler

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/mcoot/relayview/internal/api/response"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/roster"
)

// TourHandler serves the player data of broadcast tours
type TourHandler struct {
	loader *roster.Loader
}

// NewTourHandler creates a new tour handler
func NewTourHandler(loader *roster.Loader) *TourHandler {
	return &TourHandler{loader: loader}
}

func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// Players handles GET /api/v1/tours/{tourId}/players
// ?refresh=true bypasses the cache
func (h *TourHandler) Players(w http.ResponseWriter, r *http.Request) {
	tourID := model.TourID(pathVar(r, "tourId"))

	load := h.loader.Roster
	if r.URL.Query().Get("refresh") == "true" {
		load = h.loader.FetchRoster
	}
	rst, err := load(r.Context(), tourID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RosterFromModel(tourID, rst))
}

// Player handles GET /api/v1/tours/{tourId}/players/{key}
func (h *TourHandler) Player(w http.ResponseWriter, r *http.Request) {
	tourID := model.TourID(pathVar(r, "tourId"))
	key := model.PlayerKey(pathVar(r, "key"))

	p, err := h.loader.PlayerWithGames(r.Context(), tourID, key)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerDetailFromModel(p))
}
