package rates

import (
	"context"
	"errors"
	"fmt"
	"math"

	"remit/internal/services/currency"
)

// ErrInvalidRate is returned when a provider quotes a non-positive or
// non-finite rate. Such quotes are never stored or served.
var ErrInvalidRate = errors.New("provider returned invalid rate")

// Quote is what a provider returns for one ordered pair.
type Quote struct {
	Rate        float64 `json:"rate"`
	InverseRate float64 `json:"inverse_rate"`
	Spread      float64 `json:"spread"`
	Source      string  `json:"source"`
	IsLive      bool    `json:"is_live"`
}

// Provider fetches a quote for one ordered currency pair.
type Provider interface {
	FetchRate(ctx context.Context, from, to string) (Quote, error)
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ReferenceProvider derives cross rates from the registry's reference rates.
type ReferenceProvider struct {
	registry *currency.Registry
	spread   float64
}

func NewReferenceProvider(registry *currency.Registry, spread float64) *ReferenceProvider {
	return &ReferenceProvider{registry: registry, spread: spread}
}

func (p *ReferenceProvider) FetchRate(_ context.Context, from, to string) (Quote, error) {
	src, err := p.registry.Get(from)
	if err != nil {
		return Quote{}, err
	}
	dst, err := p.registry.Get(to)
	if err != nil {
		return Quote{}, err
	}
	if !validRate(src.RateToBase) || !validRate(dst.RateToBase) {
		return Quote{}, fmt.Errorf("%w: %s-%s", ErrInvalidRate, from, to)
	}
	return Quote{
		Rate:        dst.RateToBase / src.RateToBase,
		InverseRate: src.RateToBase / dst.RateToBase,
		Spread:      p.spread,
		Source:      "reference",
		IsLive:      false,
	}, nil
}
