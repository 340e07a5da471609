package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/relayview/internal/web/env"
)

const viewerCookieName = "relay_viewer"

// EnvOptions configures the per-request environment
type EnvOptions struct {
	AssetBase  string
	ScriptBase string
	// UserHeader names the header the fronting site sets to the signed-in user
	UserHeader string
}

// Env returns middleware that attaches the rendering environment. Every
// browser gets a viewer id cookie that keys its player list state.
func Env(opts EnvOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewerID := ""
			if cookie, err := r.Cookie(viewerCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					viewerID = cookie.Value
				}
			}
			if viewerID == "" {
				viewerID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     viewerCookieName,
					Value:    viewerID,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			e := env.Env{
				Locale:     env.MatchLocale(r.Header.Get("Accept-Language")),
				AssetBase:  opts.AssetBase,
				ScriptBase: opts.ScriptBase,
				ViewerID:   viewerID,
			}
			if opts.UserHeader != "" {
				e.UserID = r.Header.Get(opts.UserHeader)
			}

			next.ServeHTTP(w, r.WithContext(env.With(r.Context(), e)))
		})
	}
}
