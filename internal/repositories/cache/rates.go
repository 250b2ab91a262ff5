package cache

import (
	"context"

	"remit/internal/models"
)

// RateStore mirrors exchange rates into Redis so that several engine
// instances share one set of fresh quotes.
type RateStore struct {
	cache *CacheService
}

func NewRateStore(cache *CacheService) *RateStore {
	return &RateStore{cache: cache}
}

func (r *RateStore) key(from, to string) string {
	return r.cache.GenerateKey("rate", "pair", models.PairKey(from, to))
}

// SaveRate stores the rate under its ordered pair with the service TTL.
func (r *RateStore) SaveRate(ctx context.Context, rate models.ExchangeRate) error {
	return r.cache.Set(ctx, r.key(rate.From, rate.To), rate)
}

// LoadRate returns the mirrored rate for the pair, if any.
func (r *RateStore) LoadRate(ctx context.Context, from, to string) (models.ExchangeRate, bool, error) {
	var rate models.ExchangeRate
	found, err := r.cache.Get(ctx, r.key(from, to), &rate)
	if err != nil || !found {
		return models.ExchangeRate{}, false, err
	}
	return rate, true, nil
}
