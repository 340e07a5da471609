package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stripe/stripe-go/v79"

	"github.com/mcoot/relayview/internal/model"
)

// Players fetches the player list of a broadcast tour
func (c *Client) Players(ctx context.Context, tourID model.TourID) ([]model.ServerPlayer, error) {
	var players []model.ServerPlayer
	err := c.do(ctx, request{
		endpoint: "players",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/broadcast/%s/players", url.PathEscape(string(tourID))),
	}, &players)
	if err != nil {
		return nil, err
	}
	return players, nil
}

// PlayerWithGames fetches one player of a tour with their games
func (c *Client) PlayerWithGames(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.ServerPlayerWithGames, error) {
	var player model.ServerPlayerWithGames
	err := c.do(ctx, request{
		endpoint: "player",
		method:   http.MethodGet,
		path: fmt.Sprintf("/broadcast/%s/players/%s",
			url.PathEscape(string(tourID)), url.PathEscape(string(key))),
	}, &player)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// Tour fetches the tour metadata
func (c *Client) Tour(ctx context.Context, tourID model.TourID) (*model.ServerTour, error) {
	var body struct {
		Tour model.ServerTour `json:"tour"`
	}
	err := c.do(ctx, request{
		endpoint: "tour",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/broadcast/%s", url.PathEscape(string(tourID))),
	}, &body)
	if err != nil {
		return nil, err
	}
	return &body.Tour, nil
}

// RelayRound fetches a round with its sync configuration and study permissions
func (c *Client) RelayRound(ctx context.Context, roundID model.RoundID) (*model.RelayRound, error) {
	var round model.RelayRound
	err := c.do(ctx, request{
		endpoint: "relay_sync",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/broadcast/round/%s/sync", url.PathEscape(string(roundID))),
	}, &round)
	if err != nil {
		return nil, err
	}
	if round.ID == "" {
		round.ID = roundID
	}
	return &round, nil
}

// SetSync turns source polling of a round on or off
func (c *Client) SetSync(ctx context.Context, roundID model.RoundID, on bool) (*model.RelayRound, error) {
	var round model.RelayRound
	err := c.do(ctx, request{
		endpoint: "relay_sync",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/broadcast/round/%s/sync", url.PathEscape(string(roundID))),
		form:     url.Values{"sync": {strconv.FormatBool(on)}},
	}, &round)
	if err != nil {
		return nil, err
	}
	if round.ID == "" {
		round.ID = roundID
	}
	return &round, nil
}

// Node fetches a study chapter node with its comments
func (c *Client) Node(ctx context.Context, studyID string, chapterID model.ChapterID, path string) (*model.StudyNode, error) {
	var node model.StudyNode
	err := c.do(ctx, request{
		endpoint: "study_node",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/study/%s/%s/node", url.PathEscape(studyID), url.PathEscape(string(chapterID))),
		query:    url.Values{"path": {path}},
	}, &node)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteComment removes a comment from a study node
func (c *Client) DeleteComment(ctx context.Context, studyID string, chapterID model.ChapterID, path, commentID string) error {
	return c.do(ctx, request{
		endpoint: "study_comment_delete",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/study/%s/%s/comment/delete", url.PathEscape(studyID), url.PathEscape(string(chapterID))),
		form:     url.Values{"path": {path}, "id": {commentID}},
	}, nil)
}

// CheckoutForm is the form body sent to the checkout endpoints
type CheckoutForm struct {
	Email  string
	Amount float64
	Freq   model.Frequency
	Gift   string
}

func (f CheckoutForm) values() url.Values {
	return url.Values{
		"email":  {f.Email},
		"amount": {strconv.FormatFloat(f.Amount, 'f', -1, 64)},
		"freq":   {string(f.Freq)},
		"gift":   {f.Gift},
	}
}

// IDRef is a {"id": ...} object in checkout responses
type IDRef struct {
	ID string `json:"id"`
}

// PayPalCheckout is the response of the PayPal checkout endpoint
type PayPalCheckout struct {
	Error        string `json:"error,omitempty"`
	Order        *IDRef `json:"order,omitempty"`
	Subscription *IDRef `json:"subscription,omitempty"`
}

// StripeCheckout is the response of the Stripe checkout endpoint
type StripeCheckout struct {
	Error   string                  `json:"error,omitempty"`
	Session *stripe.CheckoutSession `json:"session,omitempty"`
}

// PayPalCheckout starts a PayPal order or subscription
func (c *Client) PayPalCheckout(ctx context.Context, currency string, form CheckoutForm) (*PayPalCheckout, error) {
	var resp PayPalCheckout
	err := c.do(ctx, request{
		endpoint:  "paypal_checkout",
		method:    http.MethodPost,
		path:      "/patron/paypal/checkout",
		query:     url.Values{"currency": {currency}},
		form:      form.values(),
		anyStatus: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// PayPalCapture captures an approved PayPal order. subscriptionID is empty
// for one-off orders.
func (c *Client) PayPalCapture(ctx context.Context, orderID, subscriptionID string) error {
	var query url.Values
	if subscriptionID != "" {
		query = url.Values{"sub": {subscriptionID}}
	}
	return c.do(ctx, request{
		endpoint: "paypal_capture",
		method:   http.MethodPost,
		path:     "/patron/paypal/capture/" + url.PathEscape(orderID),
		query:    query,
	}, nil)
}

// StripeCheckout creates a Stripe checkout session
func (c *Client) StripeCheckout(ctx context.Context, currency string, form CheckoutForm) (*StripeCheckout, error) {
	var resp StripeCheckout
	err := c.do(ctx, request{
		endpoint:  "stripe_checkout",
		method:    http.MethodPost,
		path:      "/patron/stripe/checkout",
		query:     url.Values{"currency": {currency}},
		form:      form.values(),
		anyStatus: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
