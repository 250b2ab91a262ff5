// Package corridor owns the catalog of payment corridors and the pure
// validation and fee rules that apply to them.
package corridor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "remit/internal/errors"
	"remit/internal/models"
	"remit/internal/repositories"
	"remit/internal/validation"
)

// Catalog is a synchronized view over the corridor table. Resolve and List
// hand out deep copies, so later catalog edits never reach a caller's copy.
type Catalog struct {
	mu        sync.RWMutex
	corridors map[string]*models.PaymentCorridor
	order     []string
	repo      repositories.CorridorRepository
	logger    *slog.Logger
}

func NewCatalog(repo repositories.CorridorRepository, logger *slog.Logger) *Catalog {
	return &Catalog{
		corridors: make(map[string]*models.PaymentCorridor),
		repo:      repo,
		logger:    logger,
	}
}

// Load replaces the in-memory view with the repository contents.
func (c *Catalog) Load(ctx context.Context) error {
	list, err := c.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load corridors: %w", err)
	}

	next := make(map[string]*models.PaymentCorridor, len(list))
	order := make([]string, 0, len(list))
	for _, corridor := range list {
		next[corridor.Key()] = corridor.Clone()
		order = append(order, corridor.Key())
	}

	c.mu.Lock()
	c.corridors = next
	c.order = order
	c.mu.Unlock()

	c.logger.Info("corridor catalog loaded", "count", len(list))
	return nil
}

// Upsert validates, persists and publishes a corridor.
func (c *Catalog) Upsert(ctx context.Context, corridor *models.PaymentCorridor) error {
	corridor = corridor.Clone()
	corridor.OriginCountry = strings.ToUpper(corridor.OriginCountry)
	corridor.DestinationCountry = strings.ToUpper(corridor.DestinationCountry)
	corridor.SourceCurrency = strings.ToUpper(corridor.SourceCurrency)
	corridor.TargetCurrency = strings.ToUpper(corridor.TargetCurrency)
	if err := validateCorridor(corridor); err != nil {
		return err
	}
	if err := c.repo.Upsert(ctx, corridor); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := corridor.Key()
	if _, ok := c.corridors[key]; !ok {
		c.order = append(c.order, key)
	}
	c.corridors[key] = corridor
	return nil
}

func validateCorridor(c *models.PaymentCorridor) error {
	v := validation.New()
	v.CountryCode("origin_country", c.OriginCountry)
	v.CountryCode("destination_country", c.DestinationCountry)
	v.CurrencyCode("source_currency", c.SourceCurrency)
	v.CurrencyCode("target_currency", c.TargetCurrency)
	v.Check(c.MinAmount >= 0, "min_amount", "must not be negative")
	v.Check(c.MaxAmount >= c.MinAmount, "max_amount", "must be at least min_amount")
	v.Check(c.FeePercent >= 0 && c.FeePercent < 100, "fee_percent", "must be in [0, 100)")
	v.Check(c.FixedFee >= 0, "fixed_fee", "must not be negative")
	v.OneOf("compliance_tier", string(c.ComplianceTier),
		string(models.ComplianceTierBasic), string(models.ComplianceTierEnhanced), string(models.ComplianceTierFull))

	seen := map[string]bool{}
	for i, m := range c.PaymentMethods {
		field := fmt.Sprintf("payment_methods[%d]", i)
		v.Check(m.Type != "", field, "type is required")
		v.Check(!seen[m.Type], field, "duplicates method "+m.Type)
		v.Check(m.MaxAmount == 0 || m.MaxAmount >= m.MinAmount, field, "max_amount below min_amount")
		v.Check(m.DailyLimit >= 0 && m.MonthlyLimit >= 0, field, "limits must not be negative")
		seen[m.Type] = true
	}
	return v.Err("corridor " + c.Key())
}

// Resolve returns a copy of the corridor for the lane, or NotFound.
func (c *Catalog) Resolve(originCountry, destinationCountry string) (*models.PaymentCorridor, error) {
	key := models.CorridorKey(strings.ToUpper(originCountry), strings.ToUpper(destinationCountry))

	c.mu.RLock()
	defer c.mu.RUnlock()
	corridor, ok := c.corridors[key]
	if !ok {
		return nil, apperrors.NotFound("corridor %s not found", key)
	}
	return corridor.Clone(), nil
}

// List returns copies of every corridor in insertion order. When activeOnly
// is set inactive lanes are skipped.
func (c *Catalog) List(activeOnly bool) []*models.PaymentCorridor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.PaymentCorridor, 0, len(c.order))
	for _, key := range c.order {
		corridor := c.corridors[key]
		if activeOnly && !corridor.IsActive {
			continue
		}
		out = append(out, corridor.Clone())
	}
	return out
}

// ValidateAmount fails with AmountOutOfBounds when amount is outside
// [MinAmount, MaxAmount].
func ValidateAmount(corridor *models.PaymentCorridor, amount float64) error {
	if amount < corridor.MinAmount || amount > corridor.MaxAmount {
		return apperrors.AmountOutOfBounds("amount %.2f %s outside corridor %s limits [%.2f, %.2f]",
			amount, corridor.SourceCurrency, corridor.Key(), corridor.MinAmount, corridor.MaxAmount)
	}
	return nil
}

// ValidateMethod checks that methodType is offered on the corridor and that
// amount fits the method's own limits. An empty methodType is accepted.
func ValidateMethod(corridor *models.PaymentCorridor, methodType string, amount float64) (*models.PaymentMethod, error) {
	if methodType == "" {
		return nil, nil
	}
	method, ok := corridor.Method(methodType)
	if !ok {
		return nil, apperrors.Validation("payment method %s not offered on corridor %s", methodType, corridor.Key())
	}
	if method.MinAmount > 0 && amount < method.MinAmount {
		return nil, apperrors.AmountOutOfBounds("amount %.2f below %s minimum %.2f", amount, methodType, method.MinAmount)
	}
	if method.MaxAmount > 0 && amount > method.MaxAmount {
		return nil, apperrors.AmountOutOfBounds("amount %.2f above %s maximum %.2f", amount, methodType, method.MaxAmount)
	}
	return &method, nil
}

// ValidateUsage checks amount against the method's rolling totals. Zero
// limits are unlimited.
func ValidateUsage(method *models.PaymentMethod, amount, usedToday, usedThisMonth float64) error {
	if method == nil {
		return nil
	}
	if method.DailyLimit > 0 && usedToday+amount > method.DailyLimit {
		return apperrors.AmountOutOfBounds("amount %.2f exceeds %s daily limit %.2f (%.2f already used)",
			amount, method.Type, method.DailyLimit, usedToday)
	}
	if method.MonthlyLimit > 0 && usedThisMonth+amount > method.MonthlyLimit {
		return apperrors.AmountOutOfBounds("amount %.2f exceeds %s monthly limit %.2f (%.2f already used)",
			amount, method.Type, method.MonthlyLimit, usedThisMonth)
	}
	return nil
}
