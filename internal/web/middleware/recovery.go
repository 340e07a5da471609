package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/relayview/internal/middleware"
	"github.com/mcoot/relayview/internal/web/templates/layout"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// Recovery creates panic recovery middleware for the web interface.
// Full page loads get the error page; htmx swaps get a plain fragment so
// a broken panel does not swallow the page around it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	if r.Header.Get("HX-Request") == "true" {
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = pages.Error(pages.ErrorData{
		PageData: layout.PageData{Title: "Internal Server Error"},
		Message:  "Something went wrong. Please try again later.",
	}).Render(r.Context(), w)
}
