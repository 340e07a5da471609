package checkout

import (
	"context"
	"errors"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/upstream"
)

// Kind identifies a payment provider
type Kind string

const (
	KindOrder        Kind = "order"
	KindSubscription Kind = "subscription"
	KindCardSession  Kind = "card-session"
)

// ParseKind returns the provider kind named by s
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindOrder, KindSubscription, KindCardSession:
		return k, nil
	}
	return "", model.ErrUnknownProvider
}

// ErrNoCheckout is returned when the gateway answered with neither an
// error nor a checkout id. The caller navigates back to the patron page.
var ErrNoCheckout = errors.New("no checkout created")

// GatewayError is an error message reported by the payment gateway
type GatewayError struct {
	Kind    Kind
	Message string
}

func (e *GatewayError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Request is what every provider needs to start a checkout
type Request struct {
	Currency string
	Email    string
	Amount   float64
	Freq     model.Frequency
	Gift     string
}

func (r Request) form() upstream.CheckoutForm {
	return upstream.CheckoutForm{
		Email:  r.Email,
		Amount: r.Amount,
		Freq:   r.Freq,
		Gift:   r.Gift,
	}
}

// Start is a started checkout. Token is the id the client SDK continues
// with; RedirectURL is set when the browser should navigate away.
type Start struct {
	Kind        Kind
	Token       string
	RedirectURL string
}

// Provider starts checkouts with one payment flow
type Provider interface {
	Kind() Kind
	Start(ctx context.Context, req Request) (*Start, error)
}

// Gateway is the upstream endpoint set the providers call
type Gateway interface {
	PayPalCheckout(ctx context.Context, currency string, form upstream.CheckoutForm) (*upstream.PayPalCheckout, error)
	PayPalCapture(ctx context.Context, orderID, subscriptionID string) error
	StripeCheckout(ctx context.Context, currency string, form upstream.CheckoutForm) (*upstream.StripeCheckout, error)
}

// PayPalOrder is a one-off PayPal payment
type PayPalOrder struct {
	gateway Gateway
}

// NewPayPalOrder creates the one-off PayPal provider
func NewPayPalOrder(gateway Gateway) *PayPalOrder {
	return &PayPalOrder{gateway: gateway}
}

func (p *PayPalOrder) Kind() Kind { return KindOrder }

func (p *PayPalOrder) Start(ctx context.Context, req Request) (*Start, error) {
	resp, err := p.gateway.PayPalCheckout(ctx, req.Currency, req.form())
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &GatewayError{Kind: KindOrder, Message: resp.Error}
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return nil, ErrNoCheckout
	}
	return &Start{Kind: KindOrder, Token: resp.Order.ID}, nil
}

// PayPalSubscription is a monthly PayPal payment
type PayPalSubscription struct {
	gateway Gateway
}

// NewPayPalSubscription creates the monthly PayPal provider
func NewPayPalSubscription(gateway Gateway) *PayPalSubscription {
	return &PayPalSubscription{gateway: gateway}
}

func (p *PayPalSubscription) Kind() Kind { return KindSubscription }

func (p *PayPalSubscription) Start(ctx context.Context, req Request) (*Start, error) {
	resp, err := p.gateway.PayPalCheckout(ctx, req.Currency, req.form())
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &GatewayError{Kind: KindSubscription, Message: resp.Error}
	}
	if resp.Subscription == nil || resp.Subscription.ID == "" {
		return nil, ErrNoCheckout
	}
	return &Start{Kind: KindSubscription, Token: resp.Subscription.ID}, nil
}

// StripeSession is a card payment through a Stripe checkout session
type StripeSession struct {
	gateway Gateway
}

// NewStripeSession creates the card provider
func NewStripeSession(gateway Gateway) *StripeSession {
	return &StripeSession{gateway: gateway}
}

func (p *StripeSession) Kind() Kind { return KindCardSession }

func (p *StripeSession) Start(ctx context.Context, req Request) (*Start, error) {
	resp, err := p.gateway.StripeCheckout(ctx, req.Currency, req.form())
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &GatewayError{Kind: KindCardSession, Message: resp.Error}
	}
	if resp.Session == nil || resp.Session.ID == "" {
		return nil, ErrNoCheckout
	}
	return &Start{Kind: KindCardSession, Token: resp.Session.ID, RedirectURL: resp.Session.URL}, nil
}
