// Package rates serves exchange rates from a freshness-bounded cache that is
// refreshed lazily on stale reads and eagerly by a background sweep.
package rates

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "remit/internal/errors"
	"remit/internal/metrics"
	"remit/internal/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleness        = 5 * time.Minute
	defaultSweepConcurrency = 4
)

// Mirror is a shared second-level store, typically Redis.
type Mirror interface {
	SaveRate(ctx context.Context, rate models.ExchangeRate) error
	LoadRate(ctx context.Context, from, to string) (models.ExchangeRate, bool, error)
}

// PairSource lists the ordered pairs the sweep refreshes.
type PairSource interface {
	Pairs() [][2]string
}

type Config struct {
	Staleness        time.Duration
	SweepConcurrency int
}

// Cache holds the latest rate per ordered pair. Entries are replaced
// wholesale under the write lock so readers never see a partial entry.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]models.ExchangeRate
	group    singleflight.Group
	provider Provider
	mirror   Mirror
	pairs    PairSource
	cfg      Config
	metrics  metrics.Collector
	logger   *slog.Logger
	now      func() time.Time
}

func NewCache(provider Provider, pairs PairSource, cfg Config, collector metrics.Collector, logger *slog.Logger) *Cache {
	if cfg.Staleness <= 0 {
		cfg.Staleness = DefaultStaleness
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = defaultSweepConcurrency
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Cache{
		entries:  make(map[string]models.ExchangeRate),
		provider: provider,
		pairs:    pairs,
		cfg:      cfg,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// WithMirror attaches a shared store consulted before the provider.
func (c *Cache) WithMirror(m Mirror) *Cache {
	c.mirror = m
	return c
}

// GetRate returns a fresh rate for the ordered pair, fetching it when the
// cached entry is missing or stale.
func (c *Cache) GetRate(ctx context.Context, from, to string) (models.ExchangeRate, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == "" || to == "" {
		return models.ExchangeRate{}, apperrors.Validation("currency pair requires both codes")
	}
	if from == to {
		return c.identity(from), nil
	}

	if rate, ok := c.lookup(from, to); ok {
		c.metrics.RecordRateLookup(true)
		return rate, nil
	}
	c.metrics.RecordRateLookup(false)

	v, err, _ := c.group.Do(models.PairKey(from, to), func() (interface{}, error) {
		if rate, ok := c.lookup(from, to); ok {
			return rate, nil
		}
		if rate, ok := c.fromMirror(ctx, from, to); ok {
			return rate, nil
		}
		return c.refresh(ctx, from, to)
	})
	if err != nil {
		return models.ExchangeRate{}, err
	}
	return v.(models.ExchangeRate), nil
}

func (c *Cache) identity(code string) models.ExchangeRate {
	return models.ExchangeRate{
		From:        code,
		To:          code,
		Rate:        1,
		InverseRate: 1,
		Source:      "identity",
		LastUpdated: c.now(),
		IsLive:      true,
	}
}

func (c *Cache) lookup(from, to string) (models.ExchangeRate, bool) {
	c.mu.RLock()
	rate, ok := c.entries[models.PairKey(from, to)]
	c.mu.RUnlock()
	if !ok || !rate.IsFresh(c.now(), c.cfg.Staleness) {
		return models.ExchangeRate{}, false
	}
	return rate, true
}

func (c *Cache) fromMirror(ctx context.Context, from, to string) (models.ExchangeRate, bool) {
	if c.mirror == nil {
		return models.ExchangeRate{}, false
	}
	rate, found, err := c.mirror.LoadRate(ctx, from, to)
	if err != nil {
		c.logger.Warn("rate mirror read failed", "pair", models.PairKey(from, to), "error", err)
		return models.ExchangeRate{}, false
	}
	if !found || !rate.IsFresh(c.now(), c.cfg.Staleness) || !validRate(rate.Rate) || !rate.InverseConsistent() {
		return models.ExchangeRate{}, false
	}
	c.store(rate)
	return rate, true
}

// refresh fetches, validates and stores one pair.
func (c *Cache) refresh(ctx context.Context, from, to string) (models.ExchangeRate, error) {
	quote, err := c.provider.FetchRate(ctx, from, to)
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return models.ExchangeRate{}, err
		}
		return models.ExchangeRate{}, apperrors.External("rate provider", err)
	}
	if !validRate(quote.Rate) {
		return models.ExchangeRate{}, apperrors.External("rate provider",
			fmt.Errorf("%w: %s-%s rate=%v", ErrInvalidRate, from, to, quote.Rate))
	}

	rate := models.ExchangeRate{
		From:        from,
		To:          to,
		Rate:        quote.Rate,
		InverseRate: quote.InverseRate,
		Spread:      quote.Spread,
		Source:      quote.Source,
		LastUpdated: c.now(),
		IsLive:      quote.IsLive,
	}
	if !validRate(rate.InverseRate) || !rate.InverseConsistent() {
		rate.InverseRate = 1 / rate.Rate
	}

	c.store(rate)
	if c.mirror != nil {
		if err := c.mirror.SaveRate(ctx, rate); err != nil {
			c.logger.Warn("rate mirror write failed", "pair", rate.Key(), "error", err)
		}
	}
	return rate, nil
}

func (c *Cache) store(rate models.ExchangeRate) {
	c.mu.Lock()
	c.entries[rate.Key()] = rate
	c.mu.Unlock()
}

// RefreshAll refreshes every known pair. A failing pair is logged and
// skipped; the sweep never aborts early.
func (c *Cache) RefreshAll(ctx context.Context) (refreshed, failed int) {
	pairs := c.pairs.Pairs()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.SweepConcurrency)
	for _, pair := range pairs {
		from, to := pair[0], pair[1]
		g.Go(func() error {
			_, err := c.refresh(gctx, from, to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.metrics.RecordRateRefreshFailure(models.PairKey(from, to))
				c.logger.Warn("rate refresh failed", "pair", models.PairKey(from, to), "error", err)
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("rate sweep finished", "pairs", len(pairs), "refreshed", refreshed, "failed", failed)
	return refreshed, failed
}

// Snapshot returns every cached entry ordered by pair key.
func (c *Cache) Snapshot() []models.ExchangeRate {
	c.mu.RLock()
	out := make([]models.ExchangeRate, 0, len(c.entries))
	for _, r := range c.entries {
		out = append(out, r)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
