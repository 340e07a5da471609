package env

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Env is the per-request rendering environment
type Env struct {
	Locale    language.Tag
	AssetBase string
	// ScriptBase serves the pinned htmx builds
	ScriptBase string
	// UserID is the signed-in user as reported by the fronting site, empty for anonymous
	UserID string
	// ViewerID identifies the browser session
	ViewerID string
}

type contextKey struct{}

// With returns a context carrying e
func With(ctx context.Context, e Env) context.Context {
	return context.WithValue(ctx, contextKey{}, e)
}

// From returns the Env of a context, or a default English Env
func From(ctx context.Context) Env {
	if e, ok := ctx.Value(contextKey{}).(Env); ok {
		return e
	}
	return Env{Locale: language.English, AssetBase: "/static", ScriptBase: DefaultScriptBase}
}

// DefaultScriptBase is the CDN the htmx scripts load from
const DefaultScriptBase = "https://unpkg.com"

// AssetURL resolves a static asset path
func (e Env) AssetURL(path string) string {
	return strings.TrimSuffix(e.AssetBase, "/") + "/" + strings.TrimPrefix(path, "/")
}

// ScriptURL resolves a versioned script path against ScriptBase
func (e Env) ScriptURL(path string) string {
	base := e.ScriptBase
	if base == "" {
		base = DefaultScriptBase
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// SignedIn reports whether a user is signed in
func (e Env) SignedIn() bool {
	return e.UserID != ""
}

var supported = []language.Tag{
	language.English,
	language.French,
	language.German,
	language.Spanish,
	language.Norwegian,
	language.Russian,
	language.Hindi,
}

var matcher = language.NewMatcher(supported)

// MatchLocale picks the best supported locale for an Accept-Language header
func MatchLocale(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}
