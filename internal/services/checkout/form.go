package checkout

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcoot/relayview/internal/model"
)

var (
	giftDestPattern = regexp.MustCompile(`^[a-z0-9][\w-]{2,29}$`)
	notAmountChars  = regexp.MustCompile(`[^0-9.]`)
	notQueryWord    = regexp.MustCompile(`(?i)[^a-z_-]`)
	notUsername     = regexp.MustCompile(`(?i)[^a-z0-9_-]`)
)

// Form is the state of the checkout form
type Form struct {
	Pricing      model.Pricing
	Freq         model.Frequency
	Dest         model.Destination
	Amount       float64
	GiftUsername string
	// UserID is the viewer, who cannot gift to themselves
	UserID string
	// HasLifetime is set when the viewer already holds lifetime status
	HasLifetime bool
}

// NewForm returns a form with the default selections for a pricing
func NewForm(p model.Pricing, userID string, hasLifetime bool) Form {
	return Form{
		Pricing:     p,
		Freq:        model.FreqOnetime,
		Dest:        model.DestMe,
		Amount:      p.Default,
		UserID:      userID,
		HasLifetime: hasLifetime,
	}
}

// IsGift reports whether the gift destination is selected
func (f Form) IsGift() bool {
	return f.Dest == model.DestGift
}

// ShowFixedAmount reports whether the fixed lifetime price is shown
func (f Form) ShowFixedAmount() bool {
	return f.Freq == model.FreqLifetime
}

// ShowAmountChoice reports whether the amount picker is shown
func (f Form) ShowAmountChoice() bool {
	return f.Freq != model.FreqLifetime
}

// ShowPayPalOrder reports whether the PayPal one-off button is shown
func (f Form) ShowPayPalOrder() bool {
	return f.Freq != model.FreqMonthly
}

// ShowPayPalSubscription reports whether the PayPal subscription button is shown
func (f Form) ShowPayPalSubscription() bool {
	return f.Freq == model.FreqMonthly
}

// MonthlyEnabled reports whether monthly can be chosen; gifts are one-off
func (f Form) MonthlyEnabled() bool {
	return !f.IsGift()
}

// LifetimeEnabled reports whether lifetime can be chosen
func (f Form) LifetimeEnabled() bool {
	return f.IsGift() || !f.HasLifetime
}

// GiftDest returns the normalized gift recipient if it is a valid username
// other than the viewer.
func (f Form) GiftDest() (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(f.GiftUsername))
	if raw == "" || raw == strings.ToLower(f.UserID) || !giftDestPattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

// CheckoutEnabled reports whether the payment buttons are active
func (f Form) CheckoutEnabled() bool {
	if !f.IsGift() {
		return true
	}
	_, ok := f.GiftDest()
	return ok
}

// SetDest switches the destination. Choosing gift moves a monthly
// selection to one-off; leaving gift clears the recipient.
func (f *Form) SetDest(d model.Destination) {
	f.Dest = d
	if d == model.DestGift {
		if f.Freq == model.FreqMonthly {
			f.Freq = model.FreqOnetime
		}
	}
	f.GiftUsername = ""
}

// SetFreq switches the frequency when it is enabled
func (f *Form) SetFreq(freq model.Frequency) {
	switch {
	case !freq.Valid():
	case freq == model.FreqMonthly && !f.MonthlyEnabled():
	case freq == model.FreqLifetime && !f.LifetimeEnabled():
	default:
		f.Freq = freq
	}
}

// ParseOtherAmount reads a typed-in amount. The first comma is a decimal
// separator and other characters are ignored. It returns false when the
// input is zero or unreadable, in which case the caller resets to the
// default amount. Valid amounts are clamped to the pricing limits.
func ParseOtherAmount(raw string, p model.Pricing, isGift bool) (float64, bool) {
	cleaned := notAmountChars.ReplaceAllString(strings.Replace(raw, ",", ".", 1), "")
	amount, ok := parseLeadingFloat(cleaned)
	if !ok || amount == 0 {
		return p.Default, false
	}
	lower := p.Min
	if isGift {
		lower = p.GiftMin
	}
	return max(lower, min(p.Max, amount)), true
}

// parseLeadingFloat parses the longest numeric prefix, so "1.2.3" reads as 1.2
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end++
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AmountError is a user-facing amount limit violation
type AmountError struct {
	Message string
}

func (e *AmountError) Error() string {
	return e.Message
}

func (e *AmountError) Unwrap() error {
	return model.ErrInvalidAmount
}

// AmountToCharge returns the lifetime price for lifetime, else the chosen
// amount, checked against the limits.
func (f Form) AmountToCharge() (float64, error) {
	p := f.Pricing
	amount := f.Amount
	if f.Freq == model.FreqLifetime {
		amount = p.Lifetime
	}

	isGift := f.IsGift() && f.GiftUsername != ""
	lower := p.Min
	if isGift {
		lower = p.GiftMin
	}

	switch {
	case amount < lower && isGift:
		return 0, &AmountError{Message: fmt.Sprintf("Minimum gift amount is %s", FormatAmount(p.Currency, p.GiftMin))}
	case amount < lower:
		return 0, &AmountError{Message: fmt.Sprintf("Minimum amount is %s", FormatAmount(p.Currency, p.Min))}
	case amount > p.Max:
		return 0, &AmountError{Message: fmt.Sprintf("Maximum amount is %s", FormatAmount(p.Currency, p.Max))}
	}
	return amount, nil
}

// ApplyQuery preselects destination, frequency and recipient from query
// parameters, after stripping unexpected characters.
func (f *Form) ApplyQuery(q url.Values) {
	if q.Has("dest") {
		f.SetDest(model.Destination(notQueryWord.ReplaceAllString(q.Get("dest"), "")))
		if !f.Dest.Valid() {
			f.Dest = model.DestMe
		}
	}
	if q.Has("freq") {
		f.SetFreq(model.Frequency(notQueryWord.ReplaceAllString(q.Get("freq"), "")))
	}
	if q.Has("giftUsername") {
		f.GiftUsername = notUsername.ReplaceAllString(q.Get("giftUsername"), "")
	}
}

// AmountChoices are the preset amounts offered for a pricing
func AmountChoices(p model.Pricing) []float64 {
	var choices []float64
	for _, factor := range []float64{1, 2, 5, 10, 20} {
		amount := p.Default * factor
		if amount >= p.Min && amount <= p.Max {
			choices = append(choices, amount)
		}
	}
	return choices
}

// FormFromValues rebuilds a form from submitted or query values. A typed
// "other" amount takes precedence over the preset "amount" choice.
func FormFromValues(p model.Pricing, userID string, hasLifetime bool, v url.Values) Form {
	f := NewForm(p, userID, hasLifetime)
	f.ApplyQuery(v)

	if other := strings.TrimSpace(v.Get("other")); other != "" {
		f.Amount, _ = ParseOtherAmount(other, p, f.IsGift() && f.GiftUsername != "")
		return f
	}
	if raw := v.Get("amount"); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount > 0 {
			f.Amount = amount
		}
	}
	return f
}
