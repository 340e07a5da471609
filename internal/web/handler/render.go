package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	httpmw "github.com/mcoot/relayview/internal/middleware"
	"github.com/mcoot/relayview/internal/web/middleware"
	"github.com/mcoot/relayview/internal/web/templates/layout"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// isHTMX reports whether the request was issued by htmx and wants a fragment
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render writes a component as HTML
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		requestLogger(r, logger).Error("failed to render", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// renderFragment writes the fragment for htmx requests and the full page otherwise
func renderFragment(w http.ResponseWriter, r *http.Request, logger *slog.Logger, fragment, page templ.Component) {
	if isHTMX(r) {
		render(w, r, logger, http.StatusOK, fragment)
		return
	}
	render(w, r, logger, http.StatusOK, page)
}

func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{Title: title, Flash: middleware.GetFlash(r.Context())}
}

// renderError writes the error page
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, title, message string) {
	render(w, r, logger, status, pages.Error(pages.ErrorData{PageData: pageData(r, title), Message: message}))
}

// pathVar returns an unescaped route variable. The router matches on the
// encoded path so player names may contain slashes.
func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// fragmentError answers a failed htmx request. htmx leaves the target
// untouched on error statuses.
func fragmentError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

// requestLogger returns the logger carrying the request id
func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	return httpmw.Logger(r.Context(), fallback)
}
