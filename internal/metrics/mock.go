package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                    sync.Mutex
	upstreamRequests      map[string]int
	rosterLoads           int
	playerShows           int
	staleDetailsDiscarded int
	activeRosters         int
	sseClients            int
	checkoutStarts        map[string]int
	checkoutFailures      map[string]int
	startupTime           float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		upstreamRequests: make(map[string]int),
		checkoutStarts:   make(map[string]int),
		checkoutFailures: make(map[string]int),
	}
}

var _ Metrics = (*Mock)(nil)

func (m *Mock) ObserveUpstreamRequest(endpoint string, status int, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamRequests[endpoint]++
}

func (m *Mock) IncRosterLoads() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosterLoads++
}

func (m *Mock) IncPlayerShows() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerShows++
}

func (m *Mock) IncStaleDetailsDiscarded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleDetailsDiscarded++
}

func (m *Mock) SetActiveRosters(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeRosters = n
}

func (m *Mock) AddSSEClients(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sseClients += delta
}

func (m *Mock) IncCheckoutStarts(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkoutStarts[kind]++
}

func (m *Mock) IncCheckoutFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkoutFailures[kind]++
}

func (m *Mock) SetStartupTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = seconds
}

// UpstreamRequests returns how many requests were observed for endpoint.
func (m *Mock) UpstreamRequests(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upstreamRequests[endpoint]
}

// RosterLoads returns the number of times IncRosterLoads was called.
func (m *Mock) RosterLoads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosterLoads
}

// PlayerShows returns the number of times IncPlayerShows was called.
func (m *Mock) PlayerShows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerShows
}

// StaleDetailsDiscarded returns the number of times IncStaleDetailsDiscarded was called.
func (m *Mock) StaleDetailsDiscarded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleDetailsDiscarded
}

// ActiveRosters returns the last value passed to SetActiveRosters.
func (m *Mock) ActiveRosters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeRosters
}

// CheckoutStarts returns how many checkouts were started for kind.
func (m *Mock) CheckoutStarts(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkoutStarts[kind]
}

// CheckoutFailures returns how many checkouts failed for kind.
func (m *Mock) CheckoutFailures(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkoutFailures[kind]
}

// SSEClients returns the sum of the deltas passed to AddSSEClients.
func (m *Mock) SSEClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sseClients
}
