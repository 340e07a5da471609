package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/testutil"
	"github.com/mcoot/relayview/internal/upstream"
)

type ServiceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	requests []*http.Request
	metrics  *metrics.Mock
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.requests = nil
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseForm())
		s.requests = append(s.requests, r)
		s.handler(w, r)
	}))
	s.metrics = metrics.NewMock()
	client := upstream.NewClient(s.server.URL, s.metrics, upstream.WithHTTPClient(s.server.Client()))
	s.service = New(DefaultPricings(), client, s.metrics, testutil.NopLogger())
}

func (s *ServiceTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServiceTestSuite) form() Form {
	p, err := s.service.Pricing("USD")
	s.Require().NoError(err)
	return NewForm(p, "viewer", false)
}

func (s *ServiceTestSuite) TestOrderCheckout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"order":{"id":"ORDER-1"}}`)
	}
	f := s.form()
	f.Amount = 20

	start, err := s.service.Checkout(context.Background(), KindOrder, f, "a@b.c")

	s.Require().NoError(err)
	s.Equal(&Start{Kind: KindOrder, Token: "ORDER-1"}, start)
	s.Require().Len(s.requests, 1)
	r := s.requests[0]
	s.Equal("/patron/paypal/checkout", r.URL.Path)
	s.Equal("USD", r.URL.Query().Get("currency"))
	s.Equal("20", r.PostForm.Get("amount"))
	s.Equal("onetime", r.PostForm.Get("freq"))
	s.Equal("a@b.c", r.PostForm.Get("email"))
	s.Equal("", r.PostForm.Get("gift"))
	s.Equal(1, s.metrics.CheckoutStarts("order"))
	s.Equal(0, s.metrics.CheckoutFailures("order"))
}

func (s *ServiceTestSuite) TestSubscriptionCheckout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"subscription":{"id":"SUB-1"}}`)
	}
	f := s.form()
	f.SetFreq(model.FreqMonthly)

	start, err := s.service.Checkout(context.Background(), KindSubscription, f, "")

	s.Require().NoError(err)
	s.Equal("SUB-1", start.Token)
	s.Equal("monthly", s.requests[0].PostForm.Get("freq"))
}

func (s *ServiceTestSuite) TestCardSessionCheckout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"session":{"id":"cs_test_1","url":"https://checkout.example/cs_test_1"}}`)
	}
	f := s.form()
	f.SetDest(model.DestGift)
	f.GiftUsername = "Friend"
	f.SetFreq(model.FreqLifetime)

	start, err := s.service.Checkout(context.Background(), KindCardSession, f, "")

	s.Require().NoError(err)
	s.Equal("cs_test_1", start.Token)
	s.Equal("https://checkout.example/cs_test_1", start.RedirectURL)
	r := s.requests[0]
	s.Equal("/patron/stripe/checkout", r.URL.Path)
	s.Equal("250", r.PostForm.Get("amount"))
	s.Equal("friend", r.PostForm.Get("gift"))
}

func (s *ServiceTestSuite) TestGatewayErrorBody() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Card declined"}`)
	}

	_, err := s.service.Checkout(context.Background(), KindCardSession, s.form(), "")

	var gwErr *GatewayError
	s.Require().True(errors.As(err, &gwErr))
	s.Equal("Card declined", gwErr.Message)
	s.Equal(KindCardSession, gwErr.Kind)
	s.Equal(1, s.metrics.CheckoutFailures("card-session"))
}

func (s *ServiceTestSuite) TestNoIDIsNoCheckout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}

	_, err := s.service.Checkout(context.Background(), KindOrder, s.form(), "")

	s.ErrorIs(err, ErrNoCheckout)
}

func (s *ServiceTestSuite) TestRejectsBeforeCallingGateway() {
	f := s.form()
	f.Amount = 0.1
	_, err := s.service.Checkout(context.Background(), KindOrder, f, "")
	s.ErrorIs(err, model.ErrInvalidAmount)

	f = s.form()
	f.SetDest(model.DestGift)
	_, err = s.service.Checkout(context.Background(), KindOrder, f, "")
	s.ErrorIs(err, model.ErrInvalidGiftDest)

	_, err = s.service.Checkout(context.Background(), KindSubscription, s.form(), "")
	s.ErrorIs(err, model.ErrUnknownProvider, "subscription needs monthly")

	_, err = s.service.Checkout(context.Background(), Kind("cash"), s.form(), "")
	s.ErrorIs(err, model.ErrUnknownProvider)

	s.Empty(s.requests)
	s.Equal(0, s.metrics.CheckoutStarts("order"))
}

func (s *ServiceTestSuite) TestCapture() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}

	next, err := s.service.Capture(context.Background(), "ORDER-1", "SUB-1")

	s.Require().NoError(err)
	s.Equal(ThanksPath, next)
	s.Equal("/patron/paypal/capture/ORDER-1", s.requests[0].URL.Path)
	s.Equal("SUB-1", s.requests[0].URL.Query().Get("sub"))
}

func (s *ServiceTestSuite) TestCaptureFailure() {
	next, err := s.service.Capture(context.Background(), "ORDER-1", "")
	s.Error(err)
	s.Equal(PatronPath, next)

	next, err = s.service.Capture(context.Background(), "", "")
	s.ErrorIs(err, ErrNoCheckout)
	s.Equal(PatronPath, next)
}

func TestQuote(t *testing.T) {
	svc := New(DefaultPricings(), nil, metrics.NewMock(), testutil.NopLogger())
	p, err := svc.Pricing("EUR")
	require.NoError(t, err)
	f := NewForm(p, "viewer", false)
	f.Amount = 7.5

	q, err := svc.Quote(f)

	require.NoError(t, err)
	assert.Equal(t, &Quote{Currency: "EUR", Amount: 7.5, Freq: model.FreqOnetime, Display: "EUR 7.5"}, q)
}

func TestQuoteGiftOnlyForGiftDest(t *testing.T) {
	svc := New(DefaultPricings(), nil, metrics.NewMock(), testutil.NopLogger())
	p, err := svc.Pricing("EUR")
	require.NoError(t, err)
	f := NewForm(p, "viewer", false)
	f.Amount = 7.5
	f.GiftUsername = "Bob"

	q, err := svc.Quote(f)
	require.NoError(t, err)
	assert.Empty(t, q.Gift, "a leftover recipient is ignored when paying for oneself")

	f.SetDest(model.DestGift)
	f.GiftUsername = "Bob"
	q, err = svc.Quote(f)
	require.NoError(t, err)
	assert.Equal(t, "bob", q.Gift)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("card-session")
	require.NoError(t, err)
	assert.Equal(t, KindCardSession, k)

	_, err = ParseKind("cash")
	assert.ErrorIs(t, err, model.ErrUnknownProvider)
}
