package checkout

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/model"
)

var usd = model.Pricing{Currency: "USD", Default: 5, Min: 1, Max: 10000, Lifetime: 250, GiftMin: 2}

func TestFormToggles(t *testing.T) {
	f := NewForm(usd, "viewer", false)

	assert.True(t, f.ShowAmountChoice())
	assert.False(t, f.ShowFixedAmount())
	assert.True(t, f.ShowPayPalOrder())
	assert.False(t, f.ShowPayPalSubscription())
	assert.True(t, f.MonthlyEnabled())
	assert.True(t, f.LifetimeEnabled())
	assert.True(t, f.CheckoutEnabled())

	f.SetFreq(model.FreqMonthly)
	assert.True(t, f.ShowPayPalSubscription())
	assert.False(t, f.ShowPayPalOrder())

	f.SetFreq(model.FreqLifetime)
	assert.True(t, f.ShowFixedAmount())
	assert.False(t, f.ShowAmountChoice())
	assert.True(t, f.ShowPayPalOrder())
}

func TestLifetimeDisabledWhenAlreadyLifetime(t *testing.T) {
	f := NewForm(usd, "viewer", true)
	assert.False(t, f.LifetimeEnabled())

	f.SetFreq(model.FreqLifetime)
	assert.Equal(t, model.FreqOnetime, f.Freq, "disabled frequency is ignored")

	f.SetDest(model.DestGift)
	assert.True(t, f.LifetimeEnabled(), "lifetime can always be gifted")
}

func TestGiftDisablesMonthly(t *testing.T) {
	f := NewForm(usd, "viewer", false)
	f.SetFreq(model.FreqMonthly)

	f.SetDest(model.DestGift)

	assert.False(t, f.MonthlyEnabled())
	assert.Equal(t, model.FreqOnetime, f.Freq)
	f.SetFreq(model.FreqMonthly)
	assert.Equal(t, model.FreqOnetime, f.Freq)
}

func TestGiftDest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"valid", "  Some_User ", "some_user", true},
		{"too short", "ab", "", false},
		{"leading underscore", "_abc", "", false},
		{"self", "Viewer", "", false},
		{"bad char", "abc.def", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(usd, "viewer", false)
			f.SetDest(model.DestGift)
			f.GiftUsername = tt.input

			got, ok := f.GiftDest()

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ok, f.CheckoutEnabled())
		})
	}
}

func TestParseOtherAmount(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		isGift bool
		want   float64
		ok     bool
	}{
		{"plain", "12", false, 12, true},
		{"comma decimal", "12,5", false, 12.5, true},
		{"currency noise", "$ 7.25", false, 7.25, true},
		{"zero resets", "0", false, 5, false},
		{"garbage resets", "abc", false, 5, false},
		{"clamped to max", "20000", false, 10000, true},
		{"clamped to min", "0.5", false, 1, true},
		{"gift clamped to gift min", "1", true, 2, true},
		{"later commas dropped", "1,2,3", false, 1.23, true},
		{"second dot ends number", "1.2.3", false, 1.2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseOtherAmount(tt.raw, usd, tt.isGift)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAmountToCharge(t *testing.T) {
	f := NewForm(usd, "viewer", false)
	f.Amount = 12

	amount, err := f.AmountToCharge()
	require.NoError(t, err)
	assert.Equal(t, 12.0, amount)

	f.SetFreq(model.FreqLifetime)
	amount, err = f.AmountToCharge()
	require.NoError(t, err)
	assert.Equal(t, 250.0, amount)
}

func TestAmountToChargeLimits(t *testing.T) {
	f := NewForm(usd, "viewer", false)

	f.Amount = 0.5
	_, err := f.AmountToCharge()
	assert.EqualError(t, err, "Minimum amount is USD 1")
	assert.True(t, errors.Is(err, model.ErrInvalidAmount))

	f.Amount = 10001
	_, err = f.AmountToCharge()
	assert.EqualError(t, err, "Maximum amount is USD 10000")

	f.SetDest(model.DestGift)
	f.GiftUsername = "friend"
	f.Amount = 1.5
	_, err = f.AmountToCharge()
	assert.EqualError(t, err, "Minimum gift amount is USD 2")
}

func TestApplyQuery(t *testing.T) {
	f := NewForm(usd, "viewer", false)

	f.ApplyQuery(url.Values{
		"dest":         {"gift!"},
		"freq":         {"lifetime!"},
		"giftUsername": {"Friend.<b>"},
	})

	assert.Equal(t, model.DestGift, f.Dest)
	assert.Equal(t, model.FreqLifetime, f.Freq)
	assert.Equal(t, "Friendb", f.GiftUsername)
}

func TestApplyQueryUnknownDest(t *testing.T) {
	f := NewForm(usd, "viewer", false)
	f.ApplyQuery(url.Values{"dest": {"someone"}, "freq": {"weekly"}})
	assert.Equal(t, model.DestMe, f.Dest)
	assert.Equal(t, model.FreqOnetime, f.Freq)
}

func TestAmountChoices(t *testing.T) {
	assert.Equal(t, []float64{5, 10, 25, 50, 100}, AmountChoices(usd))

	tight := model.Pricing{Currency: "XTS", Default: 10, Min: 10, Max: 60}
	assert.Equal(t, []float64{10, 20, 50}, AmountChoices(tight))
}

func TestFormFromValues(t *testing.T) {
	f := FormFromValues(usd, "viewer", false, url.Values{
		"freq":   {"monthly"},
		"amount": {"25"},
	})
	assert.Equal(t, model.FreqMonthly, f.Freq)
	assert.Equal(t, 25.0, f.Amount)

	f = FormFromValues(usd, "viewer", false, url.Values{
		"amount": {"25"},
		"other":  {"12,5"},
	})
	assert.Equal(t, 12.5, f.Amount)

	f = FormFromValues(usd, "viewer", false, url.Values{
		"dest":         {"gift"},
		"giftUsername": {"friend"},
		"other":        {"1"},
	})
	assert.Equal(t, 2.0, f.Amount, "gift minimum applies to typed amounts")

	f = FormFromValues(usd, "viewer", false, url.Values{"amount": {"nope"}})
	assert.Equal(t, usd.Default, f.Amount)
}
