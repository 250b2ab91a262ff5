package partner

import (
	"context"
	"testing"

	apperrors "remit/internal/errors"
	"remit/internal/logger"
	"remit/internal/models"
	"remit/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eastAfrica(id string, trust, success float64) *models.TransferPartner {
	return &models.TransferPartner{
		ID:          id,
		Name:        id,
		Countries:   models.StringList{"UG", "KE"},
		Currencies:  models.StringList{"UGX", "KES"},
		TrustScore:  trust,
		SuccessRate: success,
		IsActive:    true,
	}
}

func ugToKe() *models.Transfer {
	return &models.Transfer{
		ID:                 "t1",
		OriginCountry:      "UG",
		DestinationCountry: "KE",
		SourceCurrency:     "UGX",
		TargetCurrency:     "KES",
	}
}

func newDirectory(t *testing.T, partners ...*models.TransferPartner) *Directory {
	t.Helper()
	d := NewDirectory(repositories.NewMemoryPartnerRepository(), logger.Discard())
	for _, p := range partners {
		require.NoError(t, d.Upsert(context.Background(), p))
	}
	return d
}

func TestDirectory_Select_HighestScoreWins(t *testing.T) {
	d := newDirectory(t, eastAfrica("first", 95, 98.5), eastAfrica("second", 99, 99.2))

	p, ok := d.Select(ugToKe())
	require.True(t, ok)
	assert.Equal(t, "second", p.ID)
}

func TestDirectory_Select_TieGoesToEarliest(t *testing.T) {
	d := newDirectory(t, eastAfrica("a", 90, 90), eastAfrica("b", 90, 90), eastAfrica("c", 81, 100))

	p, ok := d.Select(ugToKe())
	require.True(t, ok)
	assert.Equal(t, "a", p.ID)
}

func TestDirectory_Select_Eligibility(t *testing.T) {
	inactive := eastAfrica("inactive", 100, 100)
	inactive.IsActive = false
	wrongCurrency := eastAfrica("usd-only", 100, 100)
	wrongCurrency.Currencies = models.StringList{"UGX", "USD"}
	oneCountry := eastAfrica("ug-only", 100, 100)
	oneCountry.Countries = models.StringList{"UG"}

	d := newDirectory(t, inactive, wrongCurrency, oneCountry)
	_, ok := d.Select(ugToKe())
	assert.False(t, ok)

	require.NoError(t, d.Upsert(context.Background(), eastAfrica("ok", 10, 10)))
	p, ok := d.Select(ugToKe())
	require.True(t, ok)
	assert.Equal(t, "ok", p.ID)
}

func TestDirectory_UpsertKeepsPosition(t *testing.T) {
	d := newDirectory(t, eastAfrica("a", 90, 90), eastAfrica("b", 90, 90))
	require.NoError(t, d.Upsert(context.Background(), eastAfrica("a", 90, 90)))

	list := d.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, 0, list[0].Position)

	p, _ := d.Select(ugToKe())
	assert.Equal(t, "a", p.ID)
}

func TestDirectory_UpdatePerformance(t *testing.T) {
	d := newDirectory(t, eastAfrica("first", 95, 98.5), eastAfrica("second", 99, 99.2))

	require.NoError(t, d.UpdatePerformance(context.Background(), "second", 50))
	p, _ := d.Select(ugToKe())
	assert.Equal(t, "first", p.ID)

	assert.ErrorIs(t, d.UpdatePerformance(context.Background(), "second", 101), apperrors.ErrValidation)
	assert.ErrorIs(t, d.UpdatePerformance(context.Background(), "missing", 50), apperrors.ErrNotFound)
}

func TestDirectory_UpsertValidates(t *testing.T) {
	d := newDirectory(t)
	bad := eastAfrica("", 120, 50)
	assert.ErrorIs(t, d.Upsert(context.Background(), bad), apperrors.ErrValidation)
}

func TestDirectory_GetReturnsCopy(t *testing.T) {
	d := newDirectory(t, eastAfrica("a", 90, 90))
	p, err := d.Get("a")
	require.NoError(t, err)
	p.Countries[0] = "ZZ"

	again, _ := d.Get("a")
	assert.Equal(t, "UG", again.Countries[0])

	_, err = d.Get("nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
