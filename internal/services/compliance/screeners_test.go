package compliance

import (
	"context"
	"errors"
	"testing"

	"remit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type currencyTable map[string]float64

func (c currencyTable) Get(code string) (models.Currency, error) {
	rate, ok := c[code]
	if !ok {
		return models.Currency{}, errors.New("unknown currency")
	}
	return models.Currency{Code: code, RateToBase: rate}, nil
}

func TestAMLScreener(t *testing.T) {
	s := NewAMLScreener(currencyTable{"UGX": 3700, "USD": 1})

	v, err := s.Screen(context.Background(), &models.Transfer{
		SourceCurrency: "UGX", SendAmount: 100000, Purpose: "family", SourceOfFunds: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceStatusPassed, v.Status)
	assert.Empty(t, v.Flags)

	v, err = s.Screen(context.Background(), &models.Transfer{SourceCurrency: "USD", SendAmount: 60000})
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceStatusManualReview, v.Status)
	assert.Contains(t, v.Flags, "large_value")

	_, err = s.Screen(context.Background(), &models.Transfer{SourceCurrency: "XXX", SendAmount: 1})
	assert.Error(t, err)
}

func TestAMLScreener_TierTightensThresholds(t *testing.T) {
	s := NewAMLScreener(currencyTable{"USD": 1})

	tests := []struct {
		name  string
		tier  models.ComplianceTier
		usd   float64
		score float64
		flag  bool
	}{
		{"basic below elevated", models.ComplianceTierBasic, 9000, 10, false},
		{"unset tier behaves as basic", "", 30000, 45, false},
		{"enhanced elevated", models.ComplianceTierEnhanced, 5000, 45, false},
		{"enhanced review", models.ComplianceTierEnhanced, 25000, 85, true},
		{"full elevated", models.ComplianceTierFull, 2500, 45, false},
		{"full review", models.ComplianceTierFull, 12500, 85, true},
		{"full below elevated", models.ComplianceTierFull, 2000, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := s.Screen(context.Background(), &models.Transfer{
				SourceCurrency: "USD", SendAmount: tt.usd, ComplianceTier: tt.tier,
				Purpose: "family", SourceOfFunds: "salary",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.score, v.RiskScore)
			assert.Equal(t, tt.flag, len(v.Flags) > 0)
		})
	}
}

func TestSanctionsAndPEPScreeners(t *testing.T) {
	lists := Watchlists{
		SanctionedNames:    []string{"Blocked  Person"},
		EmbargoedCountries: []string{"kp"},
		PEPNames:           []string{"Minister Example"},
	}
	sanctions := NewSanctionsScreener(lists)
	pep := NewPEPScreener(lists)

	clean := &models.Transfer{SenderName: "Jane Doe", Recipient: models.Recipient{Name: "John Doe"}, OriginCountry: "UG", DestinationCountry: "KE"}
	v, err := sanctions.Screen(context.Background(), clean)
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceStatusPassed, v.Status)

	hit := &models.Transfer{SenderName: "blocked person", OriginCountry: "UG", DestinationCountry: "KP"}
	v, err = sanctions.Screen(context.Background(), hit)
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceStatusFailed, v.Status)
	assert.ElementsMatch(t, []string{"sanctions_match", "embargoed_country"}, v.Flags)

	v, err = pep.Screen(context.Background(), &models.Transfer{Recipient: models.Recipient{Name: "MINISTER EXAMPLE"}})
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceStatusManualReview, v.Status)
	assert.Equal(t, 80.0, v.RiskScore)
}
