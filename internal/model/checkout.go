package model

// Pricing holds the donation limits for one currency
type Pricing struct {
	Currency string
	Default  float64
	Min      float64
	Max      float64
	Lifetime float64
	GiftMin  float64
}

// Frequency is how often a donation is charged
type Frequency string

const (
	FreqOnetime  Frequency = "onetime"
	FreqMonthly  Frequency = "monthly"
	FreqLifetime Frequency = "lifetime"
)

// Valid reports whether f is a known frequency
func (f Frequency) Valid() bool {
	switch f {
	case FreqOnetime, FreqMonthly, FreqLifetime:
		return true
	}
	return false
}

// Destination is who receives the patron status
type Destination string

const (
	DestMe   Destination = "me"
	DestGift Destination = "gift"
)

// Valid reports whether d is a known destination
func (d Destination) Valid() bool {
	return d == DestMe || d == DestGift
}
