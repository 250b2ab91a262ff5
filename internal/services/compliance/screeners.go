package compliance

import (
	"context"
	"strings"

	"remit/internal/models"
)

// CurrencyLookup resolves reference rates so amounts can be compared in USD.
type CurrencyLookup interface {
	Get(code string) (models.Currency, error)
}

// Watchlists holds the names and countries the rule screeners match against.
type Watchlists struct {
	SanctionedNames    []string
	EmbargoedCountries []string
	PEPNames           []string
}

// AMLScreener scores transfers by USD-equivalent size and missing
// provenance metadata. The thresholds apply to basic corridors; enhanced
// corridors halve them and full corridors quarter them.
type AMLScreener struct {
	currencies CurrencyLookup
	// ReviewUSD is the USD amount at or above which the transfer is flagged.
	ReviewUSD float64
	// ElevatedUSD raises the score without flagging.
	ElevatedUSD float64
}

func NewAMLScreener(currencies CurrencyLookup) *AMLScreener {
	return &AMLScreener{currencies: currencies, ReviewUSD: 50000, ElevatedUSD: 10000}
}

func (s *AMLScreener) Type() models.ComplianceCheckType { return models.CheckAML }

func (s *AMLScreener) Screen(_ context.Context, t *models.Transfer) (Verdict, error) {
	c, err := s.currencies.Get(t.SourceCurrency)
	if err != nil {
		return Verdict{}, err
	}
	usd := t.SendAmount / c.RateToBase
	scale := tierScale(t.ComplianceTier)

	score := 10.0
	var flags []string
	switch {
	case usd >= s.ReviewUSD*scale:
		score = 85
		flags = append(flags, "large_value")
	case usd >= s.ElevatedUSD*scale:
		score = 45
	}
	if strings.TrimSpace(t.SourceOfFunds) == "" {
		score += 15
	}
	if strings.TrimSpace(t.Purpose) == "" {
		score += 10
	}
	return verdictFor(score, flags), nil
}

func tierScale(tier models.ComplianceTier) float64 {
	switch tier {
	case models.ComplianceTierEnhanced:
		return 0.5
	case models.ComplianceTierFull:
		return 0.25
	}
	return 1
}

// SanctionsScreener fails transfers touching a sanctioned party or an
// embargoed country.
type SanctionsScreener struct {
	names     map[string]bool
	countries map[string]bool
}

func NewSanctionsScreener(lists Watchlists) *SanctionsScreener {
	return &SanctionsScreener{
		names:     normalizedSet(lists.SanctionedNames),
		countries: upperSet(lists.EmbargoedCountries),
	}
}

func (s *SanctionsScreener) Type() models.ComplianceCheckType { return models.CheckSanctions }

func (s *SanctionsScreener) Screen(_ context.Context, t *models.Transfer) (Verdict, error) {
	var flags []string
	if s.names[normalizeName(t.SenderName)] || s.names[normalizeName(t.Recipient.Name)] {
		flags = append(flags, "sanctions_match")
	}
	if s.countries[strings.ToUpper(t.OriginCountry)] || s.countries[strings.ToUpper(t.DestinationCountry)] {
		flags = append(flags, "embargoed_country")
	}
	if len(flags) > 0 {
		return Verdict{Status: models.ComplianceStatusFailed, RiskScore: 100, Flags: flags}, nil
	}
	return Verdict{Status: models.ComplianceStatusPassed, RiskScore: 0}, nil
}

// PEPScreener routes transfers involving politically exposed persons to review.
type PEPScreener struct {
	names map[string]bool
}

func NewPEPScreener(lists Watchlists) *PEPScreener {
	return &PEPScreener{names: normalizedSet(lists.PEPNames)}
}

func (s *PEPScreener) Type() models.ComplianceCheckType { return models.CheckPEP }

func (s *PEPScreener) Screen(_ context.Context, t *models.Transfer) (Verdict, error) {
	if s.names[normalizeName(t.SenderName)] || s.names[normalizeName(t.Recipient.Name)] {
		return Verdict{Status: models.ComplianceStatusManualReview, RiskScore: 80, Flags: []string{"pep_match"}}, nil
	}
	return Verdict{Status: models.ComplianceStatusPassed, RiskScore: 5}, nil
}

// TaxReportingScreener records the reporting obligation for large transfers.
// It only runs above the pipeline threshold and never blocks on its own.
type TaxReportingScreener struct{}

func (TaxReportingScreener) Type() models.ComplianceCheckType { return models.CheckTaxReporting }

func (TaxReportingScreener) Screen(_ context.Context, t *models.Transfer) (Verdict, error) {
	return Verdict{Status: models.ComplianceStatusPassed, RiskScore: 10}, nil
}

// DefaultScreeners returns the rule-based screeners for every check type.
func DefaultScreeners(currencies CurrencyLookup, lists Watchlists) []Screener {
	return []Screener{
		NewAMLScreener(currencies),
		NewSanctionsScreener(lists),
		NewPEPScreener(lists),
		TaxReportingScreener{},
	}
}

func verdictFor(score float64, flags []string) Verdict {
	status := models.ComplianceStatusPassed
	if score > models.ManualReviewRiskThreshold || len(flags) > 0 {
		status = models.ComplianceStatusManualReview
	}
	return Verdict{Status: status, RiskScore: score, Flags: flags}
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func normalizedSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n = normalizeName(n); n != "" {
			set[n] = true
		}
	}
	return set
}

func upperSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(strings.TrimSpace(v))] = true
	}
	return set
}
