// Package repositories provides data access layer implementations.
// Each repository has a GORM implementation for Postgres and an in-memory
// implementation used by tests and single-node development.
package repositories

import (
	"context"
	"errors"
	"time"

	"remit/internal/models"
)

var (
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrDuplicateTransfer = errors.New("transfer already exists")
	ErrStaleStatus       = errors.New("transfer status changed concurrently")
	ErrCorridorNotFound  = errors.New("corridor not found")
	ErrPartnerNotFound   = errors.New("partner not found")
)

// TransferRepository is the durable store for transfers.
type TransferRepository interface {
	Create(ctx context.Context, t *models.Transfer) error
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Transfer, error)
	// Update persists t only if the stored status still equals expected,
	// returning ErrStaleStatus otherwise.
	Update(ctx context.Context, t *models.Transfer, expected models.TransferStatus) error
	ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*models.Transfer, int64, error)
	// ListCreatedBetween returns transfers with CreatedAt in [start, end].
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Transfer, error)
	// SumBySenderMethodSince totals the send amounts of the sender's transfers
	// on paymentMethod created at or after since, skipping cancelled, failed
	// and refunded ones.
	SumBySenderMethodSince(ctx context.Context, senderID, paymentMethod string, since time.Time) (float64, error)
}

type CurrencyRepository interface {
	Upsert(ctx context.Context, c *models.Currency) error
	List(ctx context.Context) ([]models.Currency, error)
}

type CorridorRepository interface {
	Upsert(ctx context.Context, c *models.PaymentCorridor) error
	List(ctx context.Context) ([]*models.PaymentCorridor, error)
}

type PartnerRepository interface {
	Upsert(ctx context.Context, p *models.TransferPartner) error
	// List returns partners in insertion order.
	List(ctx context.Context) ([]*models.TransferPartner, error)
	UpdateSuccessRate(ctx context.Context, id string, successRate float64) error
}
