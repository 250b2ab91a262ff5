package models

import (
	"database/sql/driver"
	"time"
)

// ComplianceTier controls how strictly a corridor is screened.
type ComplianceTier string

const (
	ComplianceTierBasic    ComplianceTier = "basic"
	ComplianceTierEnhanced ComplianceTier = "enhanced"
	ComplianceTierFull     ComplianceTier = "full"
)

// Payment method types
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMobileMoney  = "mobile_money"
	PaymentMethodCard         = "card"
	PaymentMethodCashPickup   = "cash_pickup"
)

// PaymentMethod is a way of funding or delivering a transfer on one corridor.
type PaymentMethod struct {
	Type           string        `json:"type" mapstructure:"type"`
	ProcessingTime time.Duration `json:"processing_time" mapstructure:"processing_time"`
	Fee            float64       `json:"fee" mapstructure:"fee"`
	MinAmount      float64       `json:"min_amount" mapstructure:"min_amount"`
	MaxAmount      float64       `json:"max_amount" mapstructure:"max_amount"`
	DailyLimit     float64       `json:"daily_limit" mapstructure:"daily_limit"`
	MonthlyLimit   float64       `json:"monthly_limit" mapstructure:"monthly_limit"`
	RequiredFields []string      `json:"required_fields" mapstructure:"required_fields"`
}

// PaymentMethods is stored as a JSON column on the corridor.
type PaymentMethods []PaymentMethod

// Value implements the driver.Valuer interface
func (m PaymentMethods) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return marshalColumn([]PaymentMethod(m))
}

// Scan implements the sql.Scanner interface
func (m *PaymentMethods) Scan(value interface{}) error {
	return unmarshalColumn(value, (*[]PaymentMethod)(m))
}

// PaymentCorridor is a directional lane between two countries.
type PaymentCorridor struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	OriginCountry      string         `gorm:"size:2;uniqueIndex:idx_corridor_lane" json:"origin_country"`
	DestinationCountry string         `gorm:"size:2;uniqueIndex:idx_corridor_lane" json:"destination_country"`
	SourceCurrency     string         `gorm:"size:3;not null" json:"source_currency"`
	TargetCurrency     string         `gorm:"size:3;not null" json:"target_currency"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	MinAmount          float64        `gorm:"not null" json:"min_amount"`
	MaxAmount          float64        `gorm:"not null" json:"max_amount"`
	FeePercent         float64        `json:"fee_percent"`
	FixedFee           float64        `json:"fixed_fee"`
	EstimatedDelivery  time.Duration  `json:"estimated_delivery"`
	ComplianceTier     ComplianceTier `gorm:"default:'basic'" json:"compliance_tier"`
	PaymentMethods     PaymentMethods `gorm:"type:jsonb" json:"payment_methods"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// CorridorKey identifies a corridor by its lane.
func CorridorKey(origin, destination string) string {
	return origin + "-" + destination
}

// Key returns the lane identity of the corridor.
func (c *PaymentCorridor) Key() string {
	return CorridorKey(c.OriginCountry, c.DestinationCountry)
}

// Method returns the payment method with the given type.
func (c *PaymentCorridor) Method(methodType string) (PaymentMethod, bool) {
	for _, m := range c.PaymentMethods {
		if m.Type == methodType {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// Clone returns a deep copy so callers never share payment methods.
func (c *PaymentCorridor) Clone() *PaymentCorridor {
	if c == nil {
		return nil
	}
	out := *c
	if c.PaymentMethods != nil {
		out.PaymentMethods = make(PaymentMethods, len(c.PaymentMethods))
		for i, m := range c.PaymentMethods {
			m.RequiredFields = append([]string(nil), m.RequiredFields...)
			out.PaymentMethods[i] = m
		}
	}
	return &out
}
