// Package upstreamtest provides an in-process broadcast server for tests.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v79"

	"github.com/mcoot/relayview/internal/model"
)

// Tour is the canned data of one tour
type Tour struct {
	Info    model.ServerTour
	Players []model.ServerPlayer
	Details map[model.PlayerKey]*model.ServerPlayerWithGames
}

// Checkout is the canned answer of a checkout endpoint. Error wins over the
// id; an empty id with no error makes the gateway answer with nothing.
type Checkout struct {
	Status int
	Error  string
	ID     string
	URL    string // stripe only
}

// Server is a fake upstream. Zero-valued data answers 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tours    map[model.TourID]*Tour
	rounds   map[model.RoundID]*model.RelayRound
	nodes    map[string]*model.StudyNode
	failures map[string]int
	calls    map[string]int
	captures []url.Values
	paypal   Checkout
	stripe   Checkout
}

// NewServer starts a fake upstream. The caller closes it.
func NewServer() *Server {
	s := &Server{
		tours:    make(map[model.TourID]*Tour),
		rounds:   make(map[model.RoundID]*model.RelayRound),
		nodes:    make(map[string]*model.StudyNode),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}

	r := mux.NewRouter()
	r.UseEncodedPath()
	r.HandleFunc("/broadcast/round/{roundId}/sync", s.handleSync).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/broadcast/{tourId}", s.handleTour).Methods(http.MethodGet)
	r.HandleFunc("/broadcast/{tourId}/players", s.handlePlayers).Methods(http.MethodGet)
	r.HandleFunc("/broadcast/{tourId}/players/{key}", s.handlePlayer).Methods(http.MethodGet)
	r.HandleFunc("/study/{studyId}/{chapterId}/node", s.handleNode).Methods(http.MethodGet)
	r.HandleFunc("/study/{studyId}/{chapterId}/comment/delete", s.handleDeleteComment).Methods(http.MethodPost)
	r.HandleFunc("/patron/paypal/checkout", s.handlePayPal).Methods(http.MethodPost)
	r.HandleFunc("/patron/paypal/capture/{orderId}", s.handleCapture).Methods(http.MethodPost)
	r.HandleFunc("/patron/stripe/checkout", s.handleStripe).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// AddTour registers a tour with its players; every player gets an empty
// game list detail.
func (s *Server) AddTour(info model.ServerTour, players ...model.ServerPlayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Tour{Info: info, Players: players, Details: make(map[model.PlayerKey]*model.ServerPlayerWithGames)}
	for _, p := range players {
		t.Details[p.Convert(nil).Key()] = &model.ServerPlayerWithGames{ServerPlayer: p, Games: []model.ServerPlayerGame{}}
	}
	s.tours[info.ID] = t
}

// SetDetail replaces the detail of one player of a tour
func (s *Server) SetDetail(tourID model.TourID, key model.PlayerKey, detail *model.ServerPlayerWithGames) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tours[tourID]; ok {
		t.Details[key] = detail
	}
}

// AddRound registers a relay round
func (s *Server) AddRound(round *model.RelayRound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.ID] = round
}

// Round returns the current state of a round
func (s *Server) Round(id model.RoundID) *model.RelayRound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds[id]
}

// AddNode registers a study node
func (s *Server) AddNode(studyID string, chapterID model.ChapterID, node *model.StudyNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodeKey(studyID, string(chapterID), node.Node.Path)] = node
}

// Node returns the current state of a study node
func (s *Server) Node(studyID string, chapterID model.ChapterID, path string) *model.StudyNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[nodeKey(studyID, string(chapterID), path)]
}

// SetPayPal sets the answer of the PayPal checkout endpoint
func (s *Server) SetPayPal(c Checkout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paypal = c
}

// SetStripe sets the answer of the Stripe checkout endpoint
func (s *Server) SetStripe(c Checkout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stripe = c
}

// Fail makes the next n requests of an endpoint answer 500
func (s *Server) Fail(endpoint string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = n
}

// Calls returns how often an endpoint was requested
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// Captures returns the query of every capture request
func (s *Server) Captures() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.captures))
	copy(out, s.captures)
	return out
}

func nodeKey(studyID, chapterID, path string) string {
	return studyID + "/" + chapterID + "/" + path
}

// enter counts a call and reports whether it should fail
func (s *Server) enter(w http.ResponseWriter, endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[endpoint]++
	if s.failures[endpoint] > 0 {
		s.failures[endpoint]--
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upstream failure"})
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) tour(r *http.Request) *Tour {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tours[model.TourID(pathVar(r, "tourId"))]
}

func (s *Server) handleTour(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "tour") {
		return
	}
	t := s.tour(r)
	if t == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tour": t.Info})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "players") {
		return
	}
	t := s.tour(r)
	if t == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, t.Players)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "player") {
		return
	}
	t := s.tour(r)
	if t == nil {
		notFound(w)
		return
	}
	s.mu.Lock()
	detail := t.Details[model.PlayerKey(pathVar(r, "key"))]
	s.mu.Unlock()
	if detail == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "relay_sync") {
		return
	}
	id := model.RoundID(pathVar(r, "roundId"))
	s.mu.Lock()
	defer s.mu.Unlock()
	round := s.rounds[id]
	if round == nil {
		notFound(w)
		return
	}
	if r.Method == http.MethodPost {
		on, _ := strconv.ParseBool(r.FormValue("sync"))
		if round.Sync == nil {
			round.Sync = &model.RelaySync{}
		}
		round.Sync.Ongoing = on
	}
	writeJSON(w, http.StatusOK, round)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "study_node") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.nodes[nodeKey(pathVar(r, "studyId"), pathVar(r, "chapterId"), r.URL.Query().Get("path"))]
	if node == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "study_comment_delete") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.nodes[nodeKey(pathVar(r, "studyId"), pathVar(r, "chapterId"), r.FormValue("path"))]
	if node == nil {
		notFound(w)
		return
	}
	id := r.FormValue("id")
	kept := node.Node.Comments[:0]
	for _, c := range node.Node.Comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	node.Node.Comments = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayPal(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "paypal_checkout") {
		return
	}
	s.mu.Lock()
	c := s.paypal
	s.mu.Unlock()

	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := map[string]any{}
	switch {
	case c.Error != "":
		body["error"] = c.Error
	case c.ID != "" && r.FormValue("freq") == string(model.FreqMonthly):
		body["subscription"] = map[string]string{"id": c.ID}
	case c.ID != "":
		body["order"] = map[string]string{"id": c.ID}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "paypal_capture") {
		return
	}
	s.mu.Lock()
	s.captures = append(s.captures, url.Values{
		"order": {pathVar(r, "orderId")},
		"sub":   {r.URL.Query().Get("sub")},
	})
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStripe(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, "stripe_checkout") {
		return
	}
	s.mu.Lock()
	c := s.stripe
	s.mu.Unlock()

	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := map[string]any{}
	switch {
	case c.Error != "":
		body["error"] = c.Error
	case c.ID != "":
		body["session"] = &stripe.CheckoutSession{ID: c.ID, URL: c.URL}
	}
	writeJSON(w, status, body)
}
