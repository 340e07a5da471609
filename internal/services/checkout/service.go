package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
)

const (
	// PatronPath is where failed or abandoned checkouts return to
	PatronPath = "/patron"
	// ThanksPath is where a captured payment lands
	ThanksPath = "/patron/thanks"
)

// Service validates checkout forms and starts payments
type Service struct {
	pricings  Pricings
	providers map[Kind]Provider
	gateway   Gateway
	metrics   metrics.Metrics
	logger    *slog.Logger
}

// New creates a checkout service with the three standard providers
func New(pricings Pricings, gateway Gateway, m metrics.Metrics, logger *slog.Logger) *Service {
	return NewWithProviders(pricings, gateway, m, logger,
		NewPayPalOrder(gateway),
		NewPayPalSubscription(gateway),
		NewStripeSession(gateway),
	)
}

// NewWithProviders creates a checkout service with explicit providers
func NewWithProviders(pricings Pricings, gateway Gateway, m metrics.Metrics, logger *slog.Logger, providers ...Provider) *Service {
	byKind := make(map[Kind]Provider, len(providers))
	for _, p := range providers {
		byKind[p.Kind()] = p
	}
	return &Service{
		pricings:  pricings,
		providers: byKind,
		gateway:   gateway,
		metrics:   m,
		logger:    logger,
	}
}

// Pricings returns the supported pricings
func (s *Service) Pricings() Pricings {
	return s.pricings
}

// Pricing returns the pricing of a currency
func (s *Service) Pricing(currency string) (model.Pricing, error) {
	return s.pricings.Get(currency)
}

// Quote is the validated outcome of a form, without contacting a gateway
type Quote struct {
	Currency string
	Amount   float64
	Freq     model.Frequency
	Gift     string
	Display  string
}

// Quote validates a form and returns what would be charged
func (s *Service) Quote(form Form) (*Quote, error) {
	if form.IsGift() && !form.CheckoutEnabled() {
		return nil, model.ErrInvalidGiftDest
	}
	amount, err := form.AmountToCharge()
	if err != nil {
		return nil, err
	}
	var gift string
	if form.IsGift() {
		gift, _ = form.GiftDest()
	}
	return &Quote{
		Currency: form.Pricing.Currency,
		Amount:   amount,
		Freq:     form.Freq,
		Gift:     gift,
		Display:  FormatAmount(form.Pricing.Currency, amount),
	}, nil
}

// providerMatches reports whether a provider can charge a frequency
func providerMatches(kind Kind, freq model.Frequency) bool {
	switch kind {
	case KindOrder:
		return freq != model.FreqMonthly
	case KindSubscription:
		return freq == model.FreqMonthly
	}
	return true
}

// Checkout validates the form and starts a checkout with the chosen provider
func (s *Service) Checkout(ctx context.Context, kind Kind, form Form, email string) (*Start, error) {
	provider, ok := s.providers[kind]
	if !ok {
		return nil, model.ErrUnknownProvider
	}
	if !providerMatches(kind, form.Freq) {
		return nil, fmt.Errorf("%s cannot charge %s: %w", kind, form.Freq, model.ErrUnknownProvider)
	}

	quote, err := s.Quote(form)
	if err != nil {
		return nil, err
	}

	s.metrics.IncCheckoutStarts(string(kind))
	start, err := provider.Start(ctx, Request{
		Currency: quote.Currency,
		Email:    email,
		Amount:   quote.Amount,
		Freq:     quote.Freq,
		Gift:     quote.Gift,
	})
	if err != nil {
		s.metrics.IncCheckoutFailures(string(kind))
		var gwErr *GatewayError
		switch {
		case errors.As(err, &gwErr):
			s.logger.Warn("checkout refused by gateway", "kind", kind, "message", gwErr.Message)
		case errors.Is(err, ErrNoCheckout):
			s.logger.Warn("checkout returned no id", "kind", kind)
		default:
			s.logger.Error("checkout failed", "kind", kind, "error", err)
		}
		return nil, err
	}

	s.logger.Info("checkout started", "kind", kind, "currency", quote.Currency, "amount", quote.Amount)
	return start, nil
}

// Capture finalizes an approved PayPal order and returns where to go next
func (s *Service) Capture(ctx context.Context, orderID, subscriptionID string) (string, error) {
	if orderID == "" {
		return PatronPath, ErrNoCheckout
	}
	if err := s.gateway.PayPalCapture(ctx, orderID, subscriptionID); err != nil {
		s.logger.Error("paypal capture failed", "order", orderID, "error", err)
		return PatronPath, fmt.Errorf("capture order %s: %w", orderID, err)
	}
	return ThanksPath, nil
}
