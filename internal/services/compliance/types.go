package compliance

import (
	"context"
	"time"

	"remit/internal/models"
)

// Verdict is the opaque outcome a screener reports for one transfer.
type Verdict struct {
	Status    models.ComplianceStatus
	RiskScore float64
	Flags     []string
}

// Screener runs one kind of compliance check.
type Screener interface {
	Type() models.ComplianceCheckType
	Screen(ctx context.Context, t *models.Transfer) (Verdict, error)
}

// Config controls the pipeline.
type Config struct {
	// CheckTimeout bounds each individual check.
	CheckTimeout time.Duration
	// TaxReportingThreshold is the USD-equivalent send amount above which
	// the tax check runs.
	TaxReportingThreshold float64
}

const (
	DefaultCheckTimeout          = 3 * time.Second
	DefaultTaxReportingThreshold = 10000

	FlagCheckTimeout = "check_timeout"
	FlagCheckError   = "check_error"
	FlagNoScreener   = "screener_missing"
)
