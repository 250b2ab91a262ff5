package config

import (
	"fmt"
	"time"

	"remit/internal/models"

	"github.com/spf13/viper"
)

// Catalog is the reference data the engine boots with.
type Catalog struct {
	Currencies []CurrencyEntry `mapstructure:"currencies"`
	Corridors  []CorridorEntry `mapstructure:"corridors"`
	Partners   []PartnerEntry  `mapstructure:"partners"`
	Screening  ScreeningEntry  `mapstructure:"screening"`
}

// ScreeningEntry feeds the rule-based compliance screeners.
type ScreeningEntry struct {
	SanctionedNames    []string `mapstructure:"sanctioned_names"`
	EmbargoedCountries []string `mapstructure:"embargoed_countries"`
	PEPNames           []string `mapstructure:"pep_names"`
}

type CurrencyEntry struct {
	Code       string  `mapstructure:"code"`
	Name       string  `mapstructure:"name"`
	Symbol     string  `mapstructure:"symbol"`
	Decimals   int     `mapstructure:"decimals"`
	RateToBase float64 `mapstructure:"rate_to_base"`
	Country    string  `mapstructure:"country"`
	IsStable   bool    `mapstructure:"is_stable"`
}

type CorridorEntry struct {
	OriginCountry      string                 `mapstructure:"origin_country"`
	DestinationCountry string                 `mapstructure:"destination_country"`
	SourceCurrency     string                 `mapstructure:"source_currency"`
	TargetCurrency     string                 `mapstructure:"target_currency"`
	IsActive           *bool                  `mapstructure:"is_active"`
	MinAmount          float64                `mapstructure:"min_amount"`
	MaxAmount          float64                `mapstructure:"max_amount"`
	FeePercent         float64                `mapstructure:"fee_percent"`
	FixedFee           float64                `mapstructure:"fixed_fee"`
	EstimatedDelivery  time.Duration          `mapstructure:"estimated_delivery"`
	ComplianceTier     string                 `mapstructure:"compliance_tier"`
	PaymentMethods     []models.PaymentMethod `mapstructure:"payment_methods"`
}

type PartnerEntry struct {
	ID               string   `mapstructure:"id"`
	Name             string   `mapstructure:"name"`
	SettlementType   string   `mapstructure:"settlement_type"`
	Countries        []string `mapstructure:"countries"`
	Currencies       []string `mapstructure:"currencies"`
	TrustScore       float64  `mapstructure:"trust_score"`
	SuccessRate      float64  `mapstructure:"success_rate"`
	IsActive         *bool    `mapstructure:"is_active"`
	ComplianceRating string   `mapstructure:"compliance_rating"`
	APIEndpoint      string   `mapstructure:"api_endpoint"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return &c, nil
}

// CurrencyModels converts the catalog currencies into models.
func (c *Catalog) CurrencyModels() []models.Currency {
	out := make([]models.Currency, 0, len(c.Currencies))
	for _, e := range c.Currencies {
		out = append(out, models.Currency{
			Code:       e.Code,
			Name:       e.Name,
			Symbol:     e.Symbol,
			Decimals:   e.Decimals,
			RateToBase: e.RateToBase,
			Country:    e.Country,
			IsStable:   e.IsStable,
		})
	}
	return out
}

// CorridorModels converts the catalog corridors into models. A missing
// is_active defaults to true.
func (c *Catalog) CorridorModels() []*models.PaymentCorridor {
	out := make([]*models.PaymentCorridor, 0, len(c.Corridors))
	for _, e := range c.Corridors {
		tier := models.ComplianceTier(e.ComplianceTier)
		if tier == "" {
			tier = models.ComplianceTierBasic
		}
		out = append(out, &models.PaymentCorridor{
			OriginCountry:      e.OriginCountry,
			DestinationCountry: e.DestinationCountry,
			SourceCurrency:     e.SourceCurrency,
			TargetCurrency:     e.TargetCurrency,
			IsActive:           boolOr(e.IsActive, true),
			MinAmount:          e.MinAmount,
			MaxAmount:          e.MaxAmount,
			FeePercent:         e.FeePercent,
			FixedFee:           e.FixedFee,
			EstimatedDelivery:  e.EstimatedDelivery,
			ComplianceTier:     tier,
			PaymentMethods:     models.PaymentMethods(e.PaymentMethods),
		})
	}
	return out
}

// PartnerModels converts the catalog partners into models, preserving file order.
func (c *Catalog) PartnerModels() []*models.TransferPartner {
	out := make([]*models.TransferPartner, 0, len(c.Partners))
	for i, e := range c.Partners {
		out = append(out, &models.TransferPartner{
			ID:               e.ID,
			Name:             e.Name,
			SettlementType:   e.SettlementType,
			Countries:        models.StringList(e.Countries),
			Currencies:       models.StringList(e.Currencies),
			TrustScore:       e.TrustScore,
			SuccessRate:      e.SuccessRate,
			IsActive:         boolOr(e.IsActive, true),
			ComplianceRating: e.ComplianceRating,
			APIEndpoint:      e.APIEndpoint,
			Position:         i,
		})
	}
	return out
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
