package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/factory"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/testutil"
	"github.com/mcoot/relayview/internal/upstream/upstreamtest"
	"github.com/mcoot/relayview/internal/web"
	"github.com/mcoot/relayview/internal/web/handler"
	"github.com/mcoot/relayview/internal/web/middleware"
)

const userHeader = "X-Relay-User"

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t        *testing.T
	handler  http.Handler
	app      *factory.TestApp
	upstream *upstreamtest.Server
	cookies  *cookieJar
	headers  http.Header
}

// newWebTestServer creates a new test server with all dependencies wired
// against a fake upstream holding one tour. opts adjust the router config.
func newWebTestServer(t *testing.T, opts ...func(*web.RouterConfig)) *webTestServer {
	t.Helper()

	up := upstreamtest.NewServer()
	t.Cleanup(up.Close)
	up.AddTour(model.ServerTour{ID: "tour1", Name: "Norway Chess"},
		model.ServerPlayer{Name: "Carlsen, Magnus", FideID: 1503014, Fed: "NOR", Rating: 2830},
		model.ServerPlayer{Name: "Firouzja, Alireza", FideID: 12573981, Fed: "FRA", Rating: 2760},
		model.ServerPlayer{Name: "Anonymous"},
	)

	app := factory.NewTestApp(up.URL)
	app.LoadTestFederations()

	cfg := web.RouterConfig{
		Logger:          testutil.NopLogger(),
		Registry:        app.Registry,
		Loader:          app.Loader,
		RosterRenderer:  app.RosterRenderer,
		HubManager:      app.HubManager,
		Broadcaster:     app.Broadcaster,
		RelayService:    app.RelayService,
		StudyService:    app.StudyService,
		CheckoutService: app.CheckoutService,
		Checkout:        handler.CheckoutOptions{DefaultCurrency: "USD", StripePublicKey: "pk_test", PayPalClientID: "pp_test"},
		Env:             middleware.EnvOptions{AssetBase: "/static", UserHeader: userHeader},
		StaticDir:       "", // No static files in tests
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router := web.NewRouter(cfg)

	return &webTestServer{
		t:        t,
		handler:  router,
		app:      app,
		upstream: up,
		cookies:  newCookieJar(),
		headers:  make(http.Header),
	}
}

// signIn makes later requests come from a signed-in user
func (ts *webTestServer) signIn(userID string) {
	ts.headers.Set(userHeader, userID)
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for name, values := range ts.headers {
		req.Header[name] = values
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, false)
}

// getHTMX makes a GET request as an HTMX request
func (ts *webTestServer) getHTMX(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, true)
}

// post makes a POST request with form data (non-HTMX)
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, false)
}

// postHTMX makes a POST request with form data as an HTMX request
func (ts *webTestServer) postHTMX(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, true)
}

// followRedirect follows a redirect and returns the response
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	location := rr.Header().Get("Location")
	require.NotEmpty(ts.t, location, "Expected Location header for redirect")
	return ts.get(location)
}

// viewerID returns the anonymous viewer cookie issued so far
func (ts *webTestServer) viewerID() string {
	c, ok := ts.cookies.cookies["relay_viewer"]
	if !ok {
		return ""
	}
	return c.Value
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}

func TestHomePage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")

	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "form.tour-lookup input#tour")
	assertContainsText(t, doc, "title", "Home")
	require.NotEmpty(t, ts.viewerID(), "viewer cookie issued on first visit")
}

func TestHomeTourLookupRedirects(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/?tour=tour1")

	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/broadcast/tour1/players", rr.Header().Get("Location"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/metrics")

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "# metrics")
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestLayoutScriptsResolve(t *testing.T) {
	ts := newWebTestServer(t, func(cfg *web.RouterConfig) {
		cfg.StaticDir = "static"
	})

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	var local, pinned []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if strings.HasPrefix(src, "/") {
			local = append(local, src)
		} else {
			pinned = append(pinned, src)
		}
	})
	doc.Find("link[rel=stylesheet]").Each(func(_ int, s *goquery.Selection) {
		local = append(local, s.AttrOr("href", ""))
	})

	require.Equal(t, []string{"/static/js/relayview.js", "/static/css/site.css"}, local)
	for _, src := range local {
		asset := ts.get(src)
		require.Equal(t, http.StatusOK, asset.Code, src)
		require.NotZero(t, asset.Body.Len(), src)
	}

	require.Equal(t, []string{
		"https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js",
		"https://unpkg.com/htmx-ext-sse@2.2.2/sse.js",
	}, pinned)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/nope")

	require.Equal(t, http.StatusNotFound, rr.Code)
}
