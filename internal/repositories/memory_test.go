package repositories

import (
	"context"
	"testing"
	"time"

	"remit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransfer(id, sender string, status models.TransferStatus) *models.Transfer {
	return &models.Transfer{
		ID:             id,
		TrackingNumber: "RM" + id,
		SenderID:       sender,
		Status:         status,
		SendAmount:     100,
	}
}

func TestMemoryTransferRepository_UpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	require.NoError(t, repo.Create(ctx, newTransfer("t1", "s1", models.StatusAwaitingPayment)))

	first, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)

	first.Status = models.StatusPaymentConfirmed
	require.NoError(t, repo.Update(ctx, first, models.StatusAwaitingPayment))

	second.Status = models.StatusCancelled
	err = repo.Update(ctx, second, models.StatusAwaitingPayment)
	assert.ErrorIs(t, err, ErrStaleStatus)

	stored, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentConfirmed, stored.Status)
}

func TestMemoryTransferRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	tr := newTransfer("t1", "s1", models.StatusInitiated)
	tr.ComplianceChecks = models.ComplianceChecks{{Type: models.CheckAML, Flags: []string{"a"}}}
	require.NoError(t, repo.Create(ctx, tr))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	got.Status = models.StatusFailed
	got.ComplianceChecks[0].Flags[0] = "mutated"

	again, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInitiated, again.Status)
	assert.Equal(t, "a", again.ComplianceChecks[0].Flags[0])
}

func TestMemoryTransferRepository_NotFoundAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransferNotFound)

	err = repo.Update(ctx, newTransfer("missing", "s", models.StatusFailed), models.StatusProcessing)
	assert.ErrorIs(t, err, ErrTransferNotFound)

	require.NoError(t, repo.Create(ctx, newTransfer("t1", "s1", models.StatusInitiated)))
	assert.ErrorIs(t, repo.Create(ctx, newTransfer("t1", "s1", models.StatusInitiated)), ErrDuplicateTransfer)

	got, err := repo.GetByTrackingNumber(ctx, "RMt1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
}

func TestMemoryTransferRepository_ListCreatedBetweenIsInclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{-time.Hour, 0, 12 * time.Hour, 24 * time.Hour, 25 * time.Hour} {
		tr := newTransfer(string(rune('a'+i)), "s1", models.StatusCompleted)
		tr.CreatedAt = base.Add(offset)
		require.NoError(t, repo.Create(ctx, tr))
	}

	got, err := repo.ListCreatedBetween(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "d", got[2].ID)
}

func TestMemoryTransferRepository_ListBySenderPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tr := newTransfer(string(rune('a'+i)), "s1", models.StatusInitiated)
		tr.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, tr))
	}
	require.NoError(t, repo.Create(ctx, newTransfer("other", "s2", models.StatusInitiated)))

	page, total, err := repo.ListBySender(ctx, "s1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "e", page[0].ID)

	page, _, err = repo.ListBySender(ctx, "s1", 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)
}

func TestMemoryPartnerRepository_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPartnerRepository()
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, repo.Upsert(ctx, &models.TransferPartner{ID: id}))
	}
	require.NoError(t, repo.Upsert(ctx, &models.TransferPartner{ID: "a", TrustScore: 50}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 50.0, list[1].TrustScore)

	require.NoError(t, repo.UpdateSuccessRate(ctx, "m", 87))
	assert.ErrorIs(t, repo.UpdateSuccessRate(ctx, "missing", 1), ErrPartnerNotFound)
}

func TestMemoryTransferRepository_SumBySenderMethodSince(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	add := func(id, sender, method string, status models.TransferStatus, amount float64, at time.Time) {
		tr := newTransfer(id, sender, status)
		tr.PaymentMethod = method
		tr.SendAmount = amount
		tr.CreatedAt = at
		require.NoError(t, repo.Create(ctx, tr))
	}
	add("a", "s1", "mobile_money", models.StatusAwaitingPayment, 100, since)
	add("b", "s1", "mobile_money", models.StatusCompleted, 250.5, since.Add(time.Hour))
	add("c", "s1", "mobile_money", models.StatusCancelled, 1000, since.Add(time.Hour))
	add("d", "s1", "mobile_money", models.StatusFailed, 1000, since.Add(time.Hour))
	add("e", "s1", "bank_transfer", models.StatusCompleted, 1000, since.Add(time.Hour))
	add("f", "s2", "mobile_money", models.StatusCompleted, 1000, since.Add(time.Hour))
	add("g", "s1", "mobile_money", models.StatusCompleted, 1000, since.Add(-time.Second))

	total, err := repo.SumBySenderMethodSince(ctx, "s1", "mobile_money", since)
	require.NoError(t, err)
	assert.Equal(t, 350.5, total)

	total, err = repo.SumBySenderMethodSince(ctx, "nobody", "mobile_money", since)
	require.NoError(t, err)
	assert.Zero(t, total)
}
