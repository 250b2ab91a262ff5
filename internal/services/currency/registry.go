// Package currency owns the set of supported currencies and their metadata.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	apperrors "remit/internal/errors"
	"remit/internal/models"
	"remit/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is used when rounding an amount in an unknown currency.
const DefaultDecimals = 2

// Registry is a synchronized snapshot of the currency table.
type Registry struct {
	mu         sync.RWMutex
	currencies map[string]models.Currency
	repo       repositories.CurrencyRepository
	logger     *slog.Logger
}

func NewRegistry(repo repositories.CurrencyRepository, logger *slog.Logger) *Registry {
	return &Registry{
		currencies: make(map[string]models.Currency),
		repo:       repo,
		logger:     logger,
	}
}

// Load replaces the snapshot with what the repository holds.
func (r *Registry) Load(ctx context.Context) error {
	list, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load currencies: %w", err)
	}
	r.replace(list)
	r.logger.Info("currency registry loaded", "count", len(list))
	return nil
}

// Reload persists currencies and then swaps the snapshot. Existing entries
// not named in currencies are kept.
func (r *Registry) Reload(ctx context.Context, currencies []models.Currency) error {
	for i := range currencies {
		c := currencies[i]
		c.Code = strings.ToUpper(c.Code)
		if err := validate(c); err != nil {
			return err
		}
		if err := r.repo.Upsert(ctx, &c); err != nil {
			return err
		}
	}
	return r.Load(ctx)
}

func validate(c models.Currency) error {
	if len(c.Code) != 3 {
		return apperrors.Validation("currency code %q must have three letters", c.Code)
	}
	if c.RateToBase <= 0 {
		return apperrors.Validation("currency %s must have a positive reference rate", c.Code)
	}
	if c.Decimals < 0 {
		return apperrors.Validation("currency %s has negative precision", c.Code)
	}
	return nil
}

func (r *Registry) replace(list []models.Currency) {
	next := make(map[string]models.Currency, len(list))
	for _, c := range list {
		next[c.Code] = c
	}
	r.mu.Lock()
	r.currencies = next
	r.mu.Unlock()
}

// Get returns the currency with the given code.
func (r *Registry) Get(code string) (models.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.currencies[strings.ToUpper(code)]
	if !ok {
		return models.Currency{}, apperrors.NotFound("currency %s not supported", code)
	}
	return c, nil
}

// Supported reports whether code is registered.
func (r *Registry) Supported(code string) bool {
	_, err := r.Get(code)
	return err == nil
}

// List returns every currency ordered by code.
func (r *Registry) List() []models.Currency {
	r.mu.RLock()
	out := make([]models.Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Codes returns the registered codes ordered alphabetically.
func (r *Registry) Codes() []string {
	list := r.List()
	codes := make([]string, len(list))
	for i, c := range list {
		codes[i] = c.Code
	}
	return codes
}

// Pairs returns every ordered pair of distinct registered currencies.
func (r *Registry) Pairs() [][2]string {
	codes := r.Codes()
	pairs := make([][2]string, 0, len(codes)*(len(codes)-1))
	for _, from := range codes {
		for _, to := range codes {
			if from != to {
				pairs = append(pairs, [2]string{from, to})
			}
		}
	}
	return pairs
}

// Decimals returns the precision of code, or DefaultDecimals when unknown.
func (r *Registry) Decimals(code string) int32 {
	c, err := r.Get(code)
	if err != nil {
		return DefaultDecimals
	}
	return int32(c.Decimals)
}

// Round rounds amount half away from zero to the precision of code.
func (r *Registry) Round(code string, amount decimal.Decimal) decimal.Decimal {
	return amount.Round(r.Decimals(code))
}
