package reporting

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "remit/internal/errors"
	"remit/internal/logger"
	"remit/internal/metrics"
	"remit/internal/models"
	"remit/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *repositories.MemoryTransferRepository, origin, dest string, amount float64, status models.TransferStatus, at time.Time) {
	t.Helper()
	id := fmt.Sprintf("%s-%s-%d", origin, dest, at.UnixNano())
	require.NoError(t, repo.Create(context.Background(), &models.Transfer{
		ID:                 id,
		TrackingNumber:     id,
		SenderID:           "u1",
		OriginCountry:      origin,
		DestinationCountry: dest,
		SendAmount:         amount,
		Status:             status,
		CreatedAt:          at,
	}))
}

func TestGenerateReport_EmptyWindow(t *testing.T) {
	a := NewAggregator(repositories.NewMemoryTransferRepository(), time.Minute, metrics.Noop{}, logger.Discard())

	report, err := a.GenerateReport(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.TotalTransfers)
	assert.Zero(t, report.AverageAmount)
	assert.Zero(t, report.SuccessRate)
	assert.Zero(t, report.TotalVolume)
	assert.Empty(t, report.TopCorridors)
}

func TestGenerateReport_Breakdown(t *testing.T) {
	repo := repositories.NewMemoryTransferRepository()
	seed(t, repo, "UG", "KE", 100000, models.StatusCompleted, day.Add(1*time.Hour))
	seed(t, repo, "UG", "KE", 200000, models.StatusFailed, day.Add(2*time.Hour))
	seed(t, repo, "GB", "NG", 500, models.StatusCompleted, day.Add(3*time.Hour))
	seed(t, repo, "KE", "UG", 3000, models.StatusAwaitingPayment, day.Add(4*time.Hour))
	// outside the window
	seed(t, repo, "UG", "TZ", 900000, models.StatusCompleted, day.Add(-time.Hour))

	a := NewAggregator(repo, time.Minute, metrics.Noop{}, logger.Discard())
	report, err := a.GenerateReport(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalTransfers)
	assert.Equal(t, 2, report.CompletedTransfers)
	assert.Equal(t, 1, report.FailedTransfers)
	assert.Equal(t, 303500.0, report.TotalVolume)
	assert.Equal(t, 75875.0, report.AverageAmount)
	assert.Equal(t, 50.0, report.SuccessRate)

	require.Len(t, report.TopCorridors, 3)
	top := report.TopCorridors[0]
	assert.Equal(t, "UG-KE", top.Corridor)
	assert.Equal(t, 2, top.Count)
	assert.Equal(t, 300000.0, top.Volume)
	assert.Equal(t, 150000.0, top.AverageAmount)
	assert.Equal(t, 50.0, top.SuccessRate)
	assert.Equal(t, "KE-UG", report.TopCorridors[1].Corridor)
	assert.Equal(t, "GB-NG", report.TopCorridors[2].Corridor)
	assert.Equal(t, 100.0, report.TopCorridors[2].SuccessRate)
}

func TestGenerateReport_InclusiveBounds(t *testing.T) {
	repo := repositories.NewMemoryTransferRepository()
	seed(t, repo, "UG", "KE", 100, models.StatusCompleted, day)
	seed(t, repo, "UG", "KE", 100, models.StatusCompleted, day.Add(time.Hour))

	a := NewAggregator(repo, time.Minute, metrics.Noop{}, logger.Discard())
	report, err := a.GenerateReport(context.Background(), day, day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTransfers)
}

func TestGenerateReport_TopTen(t *testing.T) {
	repo := repositories.NewMemoryTransferRepository()
	countries := []string{"AA", "BB", "CC", "DD", "EE", "FF", "GG", "HH", "II", "JJ", "KK", "LL"}
	for i, c := range countries {
		seed(t, repo, c, "ZZ", float64(100*(i+1)), models.StatusCompleted, day.Add(time.Duration(i)*time.Minute))
	}

	a := NewAggregator(repo, time.Minute, metrics.Noop{}, logger.Discard())
	report, err := a.GenerateReport(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)

	require.Len(t, report.TopCorridors, TopCorridorLimit)
	assert.Equal(t, "LL-ZZ", report.TopCorridors[0].Corridor)
	assert.Equal(t, "CC-ZZ", report.TopCorridors[9].Corridor)
	assert.Equal(t, 12, report.TotalTransfers)
}

func TestGenerateReport_InvalidWindow(t *testing.T) {
	a := NewAggregator(repositories.NewMemoryTransferRepository(), time.Minute, metrics.Noop{}, logger.Discard())

	_, err := a.GenerateReport(context.Background(), day, day.Add(-time.Second))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = a.GenerateReport(context.Background(), time.Time{}, day)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Transfer, error) {
	args := m.Called(start, end)
	return args.Get(0).([]*models.Transfer), args.Error(1)
}

func TestGenerateReport_CachesClosedWindowsOnly(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListCreatedBetween", mock.Anything, mock.Anything).Return([]*models.Transfer{
		{OriginCountry: "UG", DestinationCountry: "KE", SendAmount: 100, Status: models.StatusCompleted},
	}, nil)

	a := NewAggregator(lister, time.Minute, metrics.Noop{}, logger.Discard())
	a.now = func() time.Time { return day.Add(48 * time.Hour) }

	closedEnd := day.Add(24 * time.Hour)
	first, err := a.GenerateReport(context.Background(), day, closedEnd)
	require.NoError(t, err)
	first.TopCorridors[0].Count = 99

	second, err := a.GenerateReport(context.Background(), day, closedEnd)
	require.NoError(t, err)
	assert.Equal(t, 1, second.TopCorridors[0].Count)
	lister.AssertNumberOfCalls(t, "ListCreatedBetween", 1)

	openEnd := day.Add(72 * time.Hour)
	_, err = a.GenerateReport(context.Background(), day, openEnd)
	require.NoError(t, err)
	_, err = a.GenerateReport(context.Background(), day, openEnd)
	require.NoError(t, err)
	lister.AssertNumberOfCalls(t, "ListCreatedBetween", 3)
}

func TestGenerateReport_ClosedWindowTracksInFlightTransfers(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryTransferRepository()
	seed(t, repo, "UG", "KE", 100000, models.StatusSentToPartner, day.Add(time.Hour))

	a := NewAggregator(repo, time.Hour, metrics.Noop{}, logger.Discard())
	a.now = func() time.Time { return day.Add(48 * time.Hour) }

	before, err := a.GenerateReport(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, before.CompletedTransfers)
	assert.Zero(t, before.SuccessRate)

	list, err := repo.ListCreatedBetween(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	tr := list[0]
	tr.Status = models.StatusCompleted
	require.NoError(t, repo.Update(ctx, tr, models.StatusSentToPartner))

	after, err := a.GenerateReport(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, after.CompletedTransfers)
	assert.Equal(t, 100.0, after.SuccessRate)
	assert.Equal(t, 100.0, after.TopCorridors[0].SuccessRate)
}
