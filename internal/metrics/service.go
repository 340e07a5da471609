package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// Service holds all the Prometheus metrics for the application
type Service struct {
	UpstreamRequests      *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec
	RosterLoads           prometheus.Counter
	PlayerShows           prometheus.Counter
	StaleDetailsDiscarded prometheus.Counter
	ActiveRosters         prometheus.Gauge
	SSEClients            prometheus.Gauge
	CheckoutStarts        *prometheus.CounterVec
	CheckoutFailures      *prometheus.CounterVec
	StartupTimeSeconds    prometheus.Gauge
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayview_upstream_requests_total",
			Help: "Requests made to the upstream server, by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relayview_upstream_request_duration_seconds",
			Help:    "Duration of upstream requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		RosterLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayview_roster_loads_total",
			Help: "Player list loads completed.",
		}),
		PlayerShows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayview_player_shows_total",
			Help: "Player details shown.",
		}),
		StaleDetailsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayview_stale_details_discarded_total",
			Help: "Player detail responses dropped because the panel was closed meanwhile.",
		}),
		ActiveRosters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayview_active_rosters",
			Help: "Player list controllers currently held by the registry.",
		}),
		SSEClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayview_sse_clients",
			Help: "Connected server-sent event streams.",
		}),
		CheckoutStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayview_checkout_starts_total",
			Help: "Checkouts started, by provider kind.",
		}, []string{"kind"}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayview_checkout_failures_total",
			Help: "Checkouts that failed to start, by provider kind.",
		}, []string{"kind"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayview_startup_time_seconds",
			Help: "Time taken for the server to start.",
		}),
	}

	reg.MustRegister(
		s.UpstreamRequests,
		s.UpstreamDuration,
		s.RosterLoads,
		s.PlayerShows,
		s.StaleDetailsDiscarded,
		s.ActiveRosters,
		s.SSEClients,
		s.CheckoutStarts,
		s.CheckoutFailures,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) ObserveUpstreamRequest(endpoint string, status int, seconds float64) {
	s.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	s.UpstreamDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (s *Service) IncRosterLoads() {
	s.RosterLoads.Inc()
}

func (s *Service) IncPlayerShows() {
	s.PlayerShows.Inc()
}

func (s *Service) IncStaleDetailsDiscarded() {
	s.StaleDetailsDiscarded.Inc()
}

func (s *Service) SetActiveRosters(n int) {
	s.ActiveRosters.Set(float64(n))
}

func (s *Service) AddSSEClients(delta int) {
	s.SSEClients.Add(float64(delta))
}

func (s *Service) IncCheckoutStarts(kind string) {
	s.CheckoutStarts.WithLabelValues(kind).Inc()
}

func (s *Service) IncCheckoutFailures(kind string) {
	s.CheckoutFailures.WithLabelValues(kind).Inc()
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
