package metrics

// Metrics defines the interface for collecting application metrics.
// Callers depend on this rather than on Prometheus directly.
type Metrics interface {
	ObserveUpstreamRequest(endpoint string, status int, seconds float64)
	IncRosterLoads()
	IncPlayerShows()
	IncStaleDetailsDiscarded()
	SetActiveRosters(n int)
	AddSSEClients(delta int)
	IncCheckoutStarts(kind string)
	IncCheckoutFailures(kind string)
	SetStartupTime(seconds float64)
}
