package models

import "time"

// Settlement types
const (
	SettlementBank        = "bank"
	SettlementMTO         = "mto"
	SettlementMobileMoney = "mobile_money"
)

// TransferPartner is an external settlement entity that completes final-mile delivery.
type TransferPartner struct {
	ID               string     `gorm:"primaryKey;size:64" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	SettlementType   string     `json:"settlement_type"`
	Countries        StringList `gorm:"type:jsonb" json:"countries"`
	Currencies       StringList `gorm:"type:jsonb" json:"currencies"`
	TrustScore       float64    `json:"trust_score"`
	SuccessRate      float64    `json:"success_rate"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	ComplianceRating string     `json:"compliance_rating"`
	APIEndpoint      string     `json:"api_endpoint,omitempty"`
	Position         int        `gorm:"index" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Score is the selection weight of the partner.
func (p *TransferPartner) Score() float64 {
	return p.TrustScore * p.SuccessRate
}

// Covers reports whether the partner serves both legs of a transfer.
func (p *TransferPartner) Covers(t *Transfer) bool {
	return p.Countries.Contains(t.OriginCountry) &&
		p.Countries.Contains(t.DestinationCountry) &&
		p.Currencies.Contains(t.SourceCurrency) &&
		p.Currencies.Contains(t.TargetCurrency)
}

// Clone returns a copy that does not share slices with the receiver.
func (p *TransferPartner) Clone() *TransferPartner {
	if p == nil {
		return nil
	}
	out := *p
	out.Countries = append(StringList(nil), p.Countries...)
	out.Currencies = append(StringList(nil), p.Currencies...)
	return &out
}
