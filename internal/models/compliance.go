package models

import (
	"database/sql/driver"
	"time"
)

// ComplianceCheckType names a screening step.
type ComplianceCheckType string

const (
	CheckAML          ComplianceCheckType = "aml"
	CheckSanctions    ComplianceCheckType = "sanctions"
	CheckPEP          ComplianceCheckType = "pep"
	CheckTaxReporting ComplianceCheckType = "tax_reporting"
)

// ComplianceStatus is the outcome of a single check.
type ComplianceStatus string

const (
	ComplianceStatusPending      ComplianceStatus = "pending"
	ComplianceStatusPassed       ComplianceStatus = "passed"
	ComplianceStatusFailed       ComplianceStatus = "failed"
	ComplianceStatusManualReview ComplianceStatus = "manual_review"
)

// ManualReviewRiskThreshold is the score above which a check needs a human.
const ManualReviewRiskThreshold = 70

// ComplianceCheck is one screening result appended to a Transfer.
type ComplianceCheck struct {
	Type      ComplianceCheckType `json:"type"`
	Status    ComplianceStatus    `json:"status"`
	RiskScore float64             `json:"risk_score"`
	Flags     []string            `json:"flags"`
	CheckedAt time.Time           `json:"checked_at"`
}

// RequiresReview reports whether this check alone gates the transfer.
func (c ComplianceCheck) RequiresReview() bool {
	return c.RiskScore > ManualReviewRiskThreshold ||
		c.Status == ComplianceStatusFailed ||
		c.Status == ComplianceStatusManualReview ||
		len(c.Flags) > 0
}

// ComplianceChecks is the append-only check list stored as JSON.
type ComplianceChecks []ComplianceCheck

// Value implements the driver.Valuer interface
func (c ComplianceChecks) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return marshalColumn([]ComplianceCheck(c))
}

// Scan implements the sql.Scanner interface
func (c *ComplianceChecks) Scan(value interface{}) error {
	return unmarshalColumn(value, (*[]ComplianceCheck)(c))
}
