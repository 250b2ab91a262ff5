package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"remit/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryTransferRepository keeps transfers in process memory. Values are
// cloned on the way in and out so callers never share state with the store.
type MemoryTransferRepository struct {
	mu         sync.RWMutex
	transfers  map[string]*models.Transfer
	byTracking map[string]string
	now        func() time.Time
}

func NewMemoryTransferRepository() *MemoryTransferRepository {
	return &MemoryTransferRepository{
		transfers:  make(map[string]*models.Transfer),
		byTracking: make(map[string]string),
		now:        time.Now,
	}
}

func (r *MemoryTransferRepository) Create(_ context.Context, t *models.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transfers[t.ID]; ok {
		return ErrDuplicateTransfer
	}
	if _, ok := r.byTracking[t.TrackingNumber]; ok {
		return ErrDuplicateTransfer
	}
	now := r.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.transfers[t.ID] = t.Clone()
	r.byTracking[t.TrackingNumber] = t.ID
	return nil
}

func (r *MemoryTransferRepository) GetByID(_ context.Context, id string) (*models.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transfers[id]
	if !ok {
		return nil, ErrTransferNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryTransferRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Transfer, error) {
	r.mu.RLock()
	id, ok := r.byTracking[trackingNumber]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTransferNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryTransferRepository) Update(_ context.Context, t *models.Transfer, expected models.TransferStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.transfers[t.ID]
	if !ok {
		return ErrTransferNotFound
	}
	if current.Status != expected {
		return ErrStaleStatus
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = r.now()
	r.transfers[t.ID] = t.Clone()
	return nil
}

func (r *MemoryTransferRepository) ListBySender(_ context.Context, senderID string, limit, offset int) ([]*models.Transfer, int64, error) {
	r.mu.RLock()
	var matched []*models.Transfer
	for _, t := range r.transfers {
		if t.SenderID == senderID {
			matched = append(matched, t.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return []*models.Transfer{}, total, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *MemoryTransferRepository) SumBySenderMethodSince(_ context.Context, senderID, paymentMethod string, since time.Time) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, t := range r.transfers {
		if t.SenderID != senderID || t.PaymentMethod != paymentMethod || t.CreatedAt.Before(since) {
			continue
		}
		switch t.Status {
		case models.StatusCancelled, models.StatusFailed, models.StatusRefunded:
			continue
		}
		total = total.Add(decimal.NewFromFloat(t.SendAmount))
	}
	return total.InexactFloat64(), nil
}

func (r *MemoryTransferRepository) ListCreatedBetween(_ context.Context, start, end time.Time) ([]*models.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Transfer
	for _, t := range r.transfers {
		if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type MemoryCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]models.Currency
}

func NewMemoryCurrencyRepository() *MemoryCurrencyRepository {
	return &MemoryCurrencyRepository{currencies: make(map[string]models.Currency)}
}

func (r *MemoryCurrencyRepository) Upsert(_ context.Context, c *models.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currencies[c.Code] = *c
	return nil
}

func (r *MemoryCurrencyRepository) List(_ context.Context) ([]models.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type MemoryCorridorRepository struct {
	mu        sync.RWMutex
	corridors map[string]*models.PaymentCorridor
	order     []string
}

func NewMemoryCorridorRepository() *MemoryCorridorRepository {
	return &MemoryCorridorRepository{corridors: make(map[string]*models.PaymentCorridor)}
}

func (r *MemoryCorridorRepository) Upsert(_ context.Context, c *models.PaymentCorridor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.Key()
	if _, ok := r.corridors[key]; !ok {
		r.order = append(r.order, key)
	}
	r.corridors[key] = c.Clone()
	return nil
}

func (r *MemoryCorridorRepository) List(_ context.Context) ([]*models.PaymentCorridor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.PaymentCorridor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.corridors[key].Clone())
	}
	return out, nil
}

type MemoryPartnerRepository struct {
	mu       sync.RWMutex
	partners map[string]*models.TransferPartner
	order    []string
}

func NewMemoryPartnerRepository() *MemoryPartnerRepository {
	return &MemoryPartnerRepository{partners: make(map[string]*models.TransferPartner)}
}

func (r *MemoryPartnerRepository) Upsert(_ context.Context, p *models.TransferPartner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.partners[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.partners[p.ID] = p.Clone()
	return nil
}

func (r *MemoryPartnerRepository) List(_ context.Context) ([]*models.TransferPartner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.TransferPartner, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.partners[id].Clone())
	}
	return out, nil
}

func (r *MemoryPartnerRepository) UpdateSuccessRate(_ context.Context, id string, successRate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.partners[id]
	if !ok {
		return ErrPartnerNotFound
	}
	p.SuccessRate = successRate
	return nil
}
