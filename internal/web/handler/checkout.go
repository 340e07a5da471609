package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/middleware"
	"github.com/mcoot/relayview/internal/web/templates/components"
	"github.com/mcoot/relayview/internal/web/templates/pages"
)

// LifetimeHeader is set by the fronting site when the viewer already holds
// lifetime patron status
const LifetimeHeader = "X-Relay-Lifetime"

// EmailHeader carries the signed-in user's email for the payment provider
const EmailHeader = "X-Relay-Email"

// CheckoutOptions are the client-side payment settings
type CheckoutOptions struct {
	DefaultCurrency string
	StripePublicKey string
	PayPalClientID  string
}

// CheckoutHandler serves the patron pages
type CheckoutHandler struct {
	checkout *checkout.Service
	opts     CheckoutOptions
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkout.Service, opts CheckoutOptions, logger *slog.Logger) *CheckoutHandler {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	return &CheckoutHandler{checkout: checkoutService, opts: opts, logger: logger}
}

// pricing returns the pricing of the requested currency, or the default one
func (h *CheckoutHandler) pricing(currency string) model.Pricing {
	if currency != "" {
		if p, err := h.checkout.Pricing(currency); err == nil {
			return p
		}
	}
	p, err := h.checkout.Pricing(h.opts.DefaultCurrency)
	if err != nil {
		// Config validation guarantees the default is supported
		h.logger.Error("default currency has no pricing", slog.String("currency", h.opts.DefaultCurrency))
	}
	return p
}

func (h *CheckoutHandler) data(r *http.Request, form checkout.Form) components.CheckoutData {
	return components.CheckoutData{
		Form:            form,
		Currencies:      h.checkout.Pricings().Currencies(),
		Email:           r.Header.Get(EmailHeader),
		StripePublicKey: h.opts.StripePublicKey,
		PayPalClientID:  h.opts.PayPalClientID,
	}
}

func hasLifetime(r *http.Request) bool {
	return r.Header.Get(LifetimeHeader) == "true"
}

// Page renders the patron page. Query parameters preselect the form.
func (h *CheckoutHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := checkout.NewForm(h.pricing(q.Get("currency")), env.From(r.Context()).UserID, hasLifetime(r))
	form.ApplyQuery(q)
	render(w, r, h.logger, http.StatusOK, pages.Patron(pages.PatronData{
		PageData: pageData(r, "Become a patron"),
		Checkout: h.data(r, form),
	}))
}

// Form re-renders the checkout form after a change
func (h *CheckoutHandler) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := checkout.FormFromValues(h.pricing(q.Get("currency")), env.From(r.Context()).UserID, hasLifetime(r), q)
	render(w, r, h.logger, http.StatusOK, components.CheckoutForm(h.data(r, form)))
}

// Start begins a checkout with the provider named in the path
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	kind, err := checkout.ParseKind(pathVar(r, "kind"))
	if err != nil {
		http.Error(w, "Unknown payment provider", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.backToPatron(w, r, "", "Invalid form data")
		return
	}

	form := checkout.FormFromValues(h.pricing(r.PostForm.Get("currency")), env.From(r.Context()).UserID, hasLifetime(r), r.PostForm)
	email := r.PostForm.Get("email")
	if email == "" {
		email = r.Header.Get(EmailHeader)
	}

	start, err := h.checkout.Checkout(r.Context(), kind, form, email)
	if err != nil {
		currency := form.Pricing.Currency
		var gwErr *checkout.GatewayError
		var amountErr *checkout.AmountError
		switch {
		case errors.As(err, &gwErr):
			h.backToPatron(w, r, currency, gwErr.Message)
		case errors.Is(err, checkout.ErrNoCheckout):
			h.backToPatron(w, r, currency, "")
		case errors.As(err, &amountErr):
			h.backToPatron(w, r, currency, amountErr.Message)
		case errors.Is(err, model.ErrInvalidGiftDest):
			h.backToPatron(w, r, currency, "Enter a valid username to gift")
		case errors.Is(err, model.ErrUnknownProvider):
			http.Error(w, "This provider cannot charge that frequency", http.StatusBadRequest)
		default:
			h.backToPatron(w, r, currency, "The payment could not be started. Please try again.")
		}
		return
	}

	currency := form.Pricing.Currency
	switch start.Kind {
	case checkout.KindCardSession:
		switch {
		case start.RedirectURL != "":
			http.Redirect(w, r, start.RedirectURL, http.StatusSeeOther)
		case h.opts.StripePublicKey == "":
			requestLogger(r, h.logger).Error("stripe session has no url and no public key is configured",
				slog.String("session_id", start.Token))
			h.backToPatron(w, r, currency, "The payment could not be started. Please try again.")
		default:
			render(w, r, h.logger, http.StatusOK, pages.StripeRedirect(pages.StripeRedirectData{
				PageData:  pageData(r, "Credit card"),
				PublicKey: h.opts.StripePublicKey,
				SessionID: start.Token,
			}))
		}
	case checkout.KindOrder, checkout.KindSubscription:
		render(w, r, h.logger, http.StatusOK, pages.PayPalApprove(pages.PayPalApproveData{
			PageData: pageData(r, "PayPal"),
			Start:    start,
			Currency: currency,
		}))
	default:
		h.backToPatron(w, r, currency, "")
	}
}

// Approve captures a PayPal checkout the buyer approved
func (h *CheckoutHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.backToPatron(w, r, "", "Invalid form data")
		return
	}
	next, err := h.checkout.Capture(r.Context(), r.PostForm.Get("orderID"), r.PostForm.Get("subscriptionID"))
	if err != nil && !errors.Is(err, checkout.ErrNoCheckout) {
		middleware.SetFlash(w, "error", "The payment could not be completed.")
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Thanks renders the page shown after payment
func (h *CheckoutHandler) Thanks(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.Thanks(pageData(r, "Thank you")))
}

// backToPatron navigates to the patron page, flashing message when set
func (h *CheckoutHandler) backToPatron(w http.ResponseWriter, r *http.Request, currency, message string) {
	if message != "" {
		middleware.SetFlash(w, "error", message)
	}
	target := checkout.PatronPath
	if currency != "" {
		target += "?" + url.Values{"currency": {currency}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
