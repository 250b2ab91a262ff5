// Package partner owns the settlement partner directory, partner selection
// and the gateways used to hand transfers to partners.
package partner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	apperrors "remit/internal/errors"
	"remit/internal/models"
	"remit/internal/repositories"
	"remit/internal/validation"
)

// Directory is the synchronized, insertion-ordered set of partners.
type Directory struct {
	mu       sync.RWMutex
	partners []*models.TransferPartner
	index    map[string]int
	repo     repositories.PartnerRepository
	logger   *slog.Logger
}

func NewDirectory(repo repositories.PartnerRepository, logger *slog.Logger) *Directory {
	return &Directory{
		index:  make(map[string]int),
		repo:   repo,
		logger: logger,
	}
}

// Load replaces the directory with the repository contents.
func (d *Directory) Load(ctx context.Context) error {
	list, err := d.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load partners: %w", err)
	}

	d.mu.Lock()
	d.partners = make([]*models.TransferPartner, 0, len(list))
	d.index = make(map[string]int, len(list))
	for _, p := range list {
		d.index[p.ID] = len(d.partners)
		d.partners = append(d.partners, p.Clone())
	}
	d.mu.Unlock()

	d.logger.Info("partner directory loaded", "count", len(list))
	return nil
}

// Upsert adds or replaces a partner. A new partner goes to the end of the
// selection order; a replaced one keeps its position.
func (d *Directory) Upsert(ctx context.Context, p *models.TransferPartner) error {
	if err := validatePartner(p); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p = p.Clone()
	pos, exists := d.index[p.ID]
	if exists {
		p.Position = d.partners[pos].Position
	} else {
		p.Position = len(d.partners)
	}
	if err := d.repo.Upsert(ctx, p); err != nil {
		return err
	}
	if exists {
		d.partners[pos] = p
	} else {
		d.index[p.ID] = len(d.partners)
		d.partners = append(d.partners, p)
	}
	return nil
}

func validatePartner(p *models.TransferPartner) error {
	v := validation.New()
	v.Required("id", p.ID)
	v.Required("name", p.Name)
	v.Range("trust_score", p.TrustScore, 0, 100)
	v.Range("success_rate", p.SuccessRate, 0, 100)
	v.Check(len(p.Countries) > 0, "countries", "must contain at least one item")
	v.Check(len(p.Currencies) > 0, "currencies", "must contain at least one item")
	return v.Err("partner " + p.ID)
}

// Get returns a copy of the partner with the given id.
func (d *Directory) Get(id string) (*models.TransferPartner, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	pos, ok := d.index[id]
	if !ok {
		return nil, apperrors.NotFound("partner %s not found", id)
	}
	return d.partners[pos].Clone(), nil
}

// List returns copies of all partners in insertion order.
func (d *Directory) List() []*models.TransferPartner {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*models.TransferPartner, len(d.partners))
	for i, p := range d.partners {
		out[i] = p.Clone()
	}
	return out
}

// UpdatePerformance records a new historical success rate for a partner.
func (d *Directory) UpdatePerformance(ctx context.Context, id string, successRate float64) error {
	if successRate < 0 || successRate > 100 {
		return apperrors.Validation("success rate %.2f outside [0, 100]", successRate)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pos, ok := d.index[id]
	if !ok {
		return apperrors.NotFound("partner %s not found", id)
	}
	if err := d.repo.UpdateSuccessRate(ctx, id, successRate); err != nil {
		return err
	}
	updated := d.partners[pos].Clone()
	updated.SuccessRate = successRate
	d.partners[pos] = updated
	return nil
}

// Select returns the active partner covering both legs of t with the
// highest TrustScore*SuccessRate. Ties go to the partner added first.
func (d *Directory) Select(t *models.Transfer) (*models.TransferPartner, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var best *models.TransferPartner
	for _, p := range d.partners {
		if !p.IsActive || !p.Covers(t) {
			continue
		}
		if best == nil || p.Score() > best.Score() {
			best = p
		}
	}
	if best == nil {
		return nil, false
	}
	return best.Clone(), true
}
