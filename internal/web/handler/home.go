package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/web/templates/components"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// HomeHandler handles the home page
type HomeHandler struct {
	logger *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(logger *slog.Logger) *HomeHandler {
	return &HomeHandler{logger: logger}
}

// Home renders the tour lookup form, or opens the players tab of ?tour=
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if tour := strings.TrimSpace(r.URL.Query().Get("tour")); tour != "" {
		http.Redirect(w, r, components.PlayersURL(model.TourID(tour)), http.StatusSeeOther)
		return
	}
	render(w, r, h.logger, http.StatusOK, pages.Home(pages.HomeData{PageData: pageData(r, "Home")}))
}
