package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mcoot/relayview/internal/api/request"
	"github.com/mcoot/relayview/internal/api/response"
	"github.com/mcoot/relayview/internal/services/checkout"
)

// CheckoutHandler validates checkout forms without charging
type CheckoutHandler struct {
	checkout *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkoutService}
}

// values maps a quote request onto the fields of the web form
func values(req request.QuoteRequest) url.Values {
	v := url.Values{}
	if req.Dest != "" {
		v.Set("dest", req.Dest)
	}
	if req.Freq != "" {
		v.Set("freq", req.Freq)
	}
	if req.GiftUsername != "" {
		v.Set("giftUsername", req.GiftUsername)
	}
	if req.Other != "" {
		v.Set("other", req.Other)
	}
	if req.Amount > 0 {
		v.Set("amount", strconv.FormatFloat(req.Amount, 'f', -1, 64))
	}
	return v
}

// Quote handles POST /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req request.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Currency == "" {
		WriteError(w, NewInvalidRequestError("currency is required"))
		return
	}

	pricing, err := h.checkout.Pricing(req.Currency)
	if err != nil {
		WriteError(w, err)
		return
	}

	form := checkout.FormFromValues(pricing, req.UserID, req.HasLifetime, values(req))
	q, err := h.checkout.Quote(form)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuoteFromCheckout(q))
}
