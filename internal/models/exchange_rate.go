package models

import (
	"math"
	"time"
)

// InverseEpsilon is the tolerance for Rate*InverseRate around 1.
const InverseEpsilon = 1e-6

// ExchangeRate is a quote for one ordered currency pair. Entries are
// replaced wholesale on refresh and never partially mutated.
type ExchangeRate struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Rate        float64   `json:"rate"`
	InverseRate float64   `json:"inverse_rate"`
	Spread      float64   `json:"spread"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
	IsLive      bool      `json:"is_live"`
}

// PairKey identifies an ordered currency pair.
func PairKey(from, to string) string {
	return from + "-" + to
}

// Key returns the ordered pair key of the rate.
func (r ExchangeRate) Key() string {
	return PairKey(r.From, r.To)
}

// IsFresh reports whether the rate can be served without a refetch.
func (r ExchangeRate) IsFresh(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastUpdated) < window
}

// InverseConsistent reports whether Rate*InverseRate is within InverseEpsilon of 1.
func (r ExchangeRate) InverseConsistent() bool {
	return math.Abs(r.Rate*r.InverseRate-1) <= InverseEpsilon
}
