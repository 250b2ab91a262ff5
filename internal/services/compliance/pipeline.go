// Package compliance runs the screening checks a transfer must clear before
// it can be funded. Whether the results gate the transfer is decided by
// models.Transfer.RequiresManualReview.
package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"remit/internal/metrics"
	"remit/internal/models"

	"golang.org/x/sync/errgroup"
)

// Pipeline runs the AML, sanctions, PEP and (above the threshold) tax
// reporting checks concurrently and joins them before returning.
type Pipeline struct {
	screeners  map[models.ComplianceCheckType]Screener
	currencies CurrencyLookup
	cfg        Config
	metrics   metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

func NewPipeline(cfg Config, currencies CurrencyLookup, screeners []Screener, collector metrics.Collector, logger *slog.Logger) *Pipeline {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultCheckTimeout
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	byType := make(map[models.ComplianceCheckType]Screener, len(screeners))
	for _, s := range screeners {
		byType[s.Type()] = s
	}
	return &Pipeline{
		screeners:  byType,
		currencies: currencies,
		cfg:        cfg,
		metrics:    collector,
		logger:     logger,
		now:        time.Now,
	}
}

// Plan returns the ordered check types that apply to t.
func (p *Pipeline) Plan(t *models.Transfer) []models.ComplianceCheckType {
	plan := []models.ComplianceCheckType{models.CheckAML, models.CheckSanctions, models.CheckPEP}
	if p.reportable(t) {
		plan = append(plan, models.CheckTaxReporting)
	}
	return plan
}

// reportable compares the USD equivalent of the send amount with the tax
// threshold. A source currency without a usable reference rate is reported.
func (p *Pipeline) reportable(t *models.Transfer) bool {
	c, err := p.currencies.Get(t.SourceCurrency)
	if err != nil || c.RateToBase <= 0 {
		return true
	}
	return t.SendAmount/c.RateToBase > p.cfg.TaxReportingThreshold
}

// RunChecks evaluates every planned check and returns them in plan order,
// regardless of the order in which they complete. A check that errors or
// outlives its timeout is recorded as manual_review with score 100.
func (p *Pipeline) RunChecks(ctx context.Context, t *models.Transfer) []models.ComplianceCheck {
	plan := p.Plan(t)
	results := make([]models.ComplianceCheck, len(plan))

	var g errgroup.Group
	for i, checkType := range plan {
		g.Go(func() error {
			results[i] = p.runOne(ctx, checkType, t)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range results {
		p.metrics.RecordComplianceVerdict(string(c.Type), string(c.Status))
	}
	return results
}

type outcome struct {
	verdict Verdict
	err     error
}

func (p *Pipeline) runOne(ctx context.Context, checkType models.ComplianceCheckType, t *models.Transfer) models.ComplianceCheck {
	screener, ok := p.screeners[checkType]
	if !ok {
		return p.unresolved(checkType, FlagNoScreener)
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.CheckTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		v, err := screener.Screen(cctx, t)
		done <- outcome{verdict: v, err: err}
	}()

	select {
	case <-cctx.Done():
		p.logger.Warn("compliance check timed out", "transfer_id", t.ID, "check", checkType)
		return p.unresolved(checkType, FlagCheckTimeout)
	case res := <-done:
		if res.err != nil {
			flag := FlagCheckError
			if errors.Is(res.err, context.DeadlineExceeded) {
				flag = FlagCheckTimeout
			}
			p.logger.Warn("compliance check failed", "transfer_id", t.ID, "check", checkType, "error", res.err)
			return p.unresolved(checkType, flag)
		}
		return models.ComplianceCheck{
			Type:      checkType,
			Status:    normalizeStatus(res.verdict),
			RiskScore: clampScore(res.verdict.RiskScore),
			Flags:     append([]string{}, res.verdict.Flags...),
			CheckedAt: p.now(),
		}
	}
}

func (p *Pipeline) unresolved(checkType models.ComplianceCheckType, flag string) models.ComplianceCheck {
	return models.ComplianceCheck{
		Type:      checkType,
		Status:    models.ComplianceStatusManualReview,
		RiskScore: 100,
		Flags:     []string{flag},
		CheckedAt: p.now(),
	}
}

func normalizeStatus(v Verdict) models.ComplianceStatus {
	switch v.Status {
	case models.ComplianceStatusPassed, models.ComplianceStatusFailed, models.ComplianceStatusManualReview:
		return v.Status
	}
	return models.ComplianceStatusManualReview
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
