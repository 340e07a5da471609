package factory

import (
	"time"

	"github.com/mcoot/relayview/internal/dependencies/mocks"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/storage/memory"
	"github.com/mcoot/relayview/internal/testutil"
	"github.com/mcoot/relayview/internal/upstream"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockMetrics *metrics.Mock
}

// NewTestApp creates an App against a fake upstream with mocked clock and metrics
func NewTestApp(upstreamURL string) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	mockMetrics := metrics.NewMock()
	store := memory.NewWithClock(mockClock, memory.Config{})

	app := newWithDependencies(dependencies{
		store:     store,
		clock:     mockClock,
		metrics:   mockMetrics,
		upstream:  upstream.NewClient(upstreamURL, mockMetrics),
		pricings:  checkout.DefaultPricings(),
		assetBase: "/static",
		logger:    testutil.NopLogger(),
	})

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockMetrics: mockMetrics,
	}
}

// LoadTestFederations loads a small federation map
func (t *TestApp) LoadTestFederations() {
	t.Federations.Load(model.Federations{
		"FRA": "France",
		"GER": "Germany",
		"IND": "India",
		"NOR": "Norway",
		"USA": "United States of America",
	})
}
