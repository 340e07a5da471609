package request

// QuoteRequest is the request body for quoting a checkout
type QuoteRequest struct {
	Currency     string  `json:"currency"`
	Freq         string  `json:"freq,omitempty"`
	Dest         string  `json:"dest,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Other        string  `json:"other,omitempty"` // typed-in amount, as entered
	GiftUsername string  `json:"gift_username,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	HasLifetime  bool    `json:"has_lifetime,omitempty"`
}
