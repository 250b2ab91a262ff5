package models

import (
	"database/sql/driver"
	"time"
)

// Recipient describes who receives the funds and where.
type Recipient struct {
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	MobileWallet  string `json:"mobile_wallet,omitempty"`
}

// StatusEvent is an audit annotation recorded on every transition.
type StatusEvent struct {
	From   TransferStatus `json:"from"`
	To     TransferStatus `json:"to"`
	Reason string         `json:"reason,omitempty"`
	At     time.Time      `json:"at"`
}

// StatusHistory is stored as a JSON column on the transfer.
type StatusHistory []StatusEvent

// Value implements the driver.Valuer interface
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return marshalColumn([]StatusEvent(h))
}

// Scan implements the sql.Scanner interface
func (h *StatusHistory) Scan(value interface{}) error {
	return unmarshalColumn(value, (*[]StatusEvent)(h))
}

// Transfer is a single cross-border remittance. Economics (rate, fee,
// receive amount, total cost) are frozen at initiation.
type Transfer struct {
	ID                 string           `gorm:"primaryKey;size:36" json:"id"`
	TrackingNumber     string           `gorm:"uniqueIndex;size:32" json:"tracking_number"`
	SenderID           string           `gorm:"index;not null" json:"sender_id"`
	SenderName         string           `json:"sender_name"`
	Recipient          Recipient        `gorm:"embedded;embeddedPrefix:recipient_" json:"recipient"`
	OriginCountry      string           `gorm:"size:2" json:"origin_country"`
	DestinationCountry string           `gorm:"size:2" json:"destination_country"`
	SourceCurrency     string           `gorm:"size:3" json:"source_currency"`
	TargetCurrency     string           `gorm:"size:3" json:"target_currency"`
	SendAmount         float64          `json:"send_amount"`
	ReceiveAmount      float64          `json:"receive_amount"`
	ExchangeRate       float64          `json:"exchange_rate"`
	Fee                float64          `json:"fee"`
	MethodFee          float64          `json:"method_fee"`
	TotalCost          float64          `json:"total_cost"`
	PaymentMethod      string           `json:"payment_method"`
	DeliveryMethod     string           `json:"delivery_method"`
	PaymentReference   string           `json:"payment_reference,omitempty"`
	Status             TransferStatus   `gorm:"index;size:32" json:"status"`
	ComplianceTier     ComplianceTier   `gorm:"size:16" json:"compliance_tier"`
	ComplianceChecks   ComplianceChecks `gorm:"type:jsonb" json:"compliance_checks"`
	StatusHistory      StatusHistory    `gorm:"type:jsonb" json:"status_history"`
	PartnerID          string           `json:"partner_id,omitempty"`
	PartnerReference   string           `json:"partner_reference,omitempty"`
	EstimatedDelivery  *time.Time       `json:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time       `json:"actual_delivery,omitempty"`
	Purpose            string           `json:"purpose"`
	SourceOfFunds      string           `json:"source_of_funds"`
	Relationship       string           `json:"relationship"`
	FailureReason      string           `json:"failure_reason,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	RefundAmount       float64          `json:"refund_amount,omitempty"`
	RefundedAt         *time.Time       `json:"refunded_at,omitempty"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CorridorKey returns the lane the transfer travels on.
func (t *Transfer) CorridorKey() string {
	return CorridorKey(t.OriginCountry, t.DestinationCountry)
}

// RequiresManualReview reports whether any recorded check gates the transfer.
func (t *Transfer) RequiresManualReview() bool {
	for _, c := range t.ComplianceChecks {
		if c.RequiresReview() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transfer.
func (t *Transfer) Clone() *Transfer {
	if t == nil {
		return nil
	}
	out := *t
	if t.ComplianceChecks != nil {
		out.ComplianceChecks = make(ComplianceChecks, len(t.ComplianceChecks))
		for i, c := range t.ComplianceChecks {
			c.Flags = append([]string(nil), c.Flags...)
			out.ComplianceChecks[i] = c
		}
	}
	if t.StatusHistory != nil {
		out.StatusHistory = append(StatusHistory(nil), t.StatusHistory...)
	}
	out.EstimatedDelivery = cloneTime(t.EstimatedDelivery)
	out.ActualDelivery = cloneTime(t.ActualDelivery)
	out.RefundedAt = cloneTime(t.RefundedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
