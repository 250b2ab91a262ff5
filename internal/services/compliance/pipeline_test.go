package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"remit/internal/logger"
	"remit/internal/metrics"
	"remit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScreener struct {
	mock.Mock
	checkType models.ComplianceCheckType
	delay     time.Duration
}

func (m *MockScreener) Type() models.ComplianceCheckType { return m.checkType }

func (m *MockScreener) Screen(ctx context.Context, t *models.Transfer) (Verdict, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	args := m.Called(t.ID)
	return args.Get(0).(Verdict), args.Error(1)
}

func passing(checkType models.ComplianceCheckType, delay time.Duration) *MockScreener {
	s := &MockScreener{checkType: checkType, delay: delay}
	s.On("Screen", mock.Anything).Return(Verdict{Status: models.ComplianceStatusPassed, RiskScore: 5}, nil)
	return s
}

func newPipeline(timeout time.Duration, screeners ...Screener) *Pipeline {
	cfg := Config{CheckTimeout: timeout, TaxReportingThreshold: 10000}
	return NewPipeline(cfg, currencyTable{"USD": 1, "UGX": 3700}, screeners, metrics.Noop{}, logger.Discard())
}

func types(checks []models.ComplianceCheck) []models.ComplianceCheckType {
	out := make([]models.ComplianceCheckType, len(checks))
	for i, c := range checks {
		out[i] = c.Type
	}
	return out
}

func TestPipeline_RunChecks_FixedOrderRegardlessOfCompletion(t *testing.T) {
	p := newPipeline(time.Second,
		passing(models.CheckAML, 40*time.Millisecond),
		passing(models.CheckSanctions, 20*time.Millisecond),
		passing(models.CheckPEP, 0),
		passing(models.CheckTaxReporting, 0),
	)

	checks := p.RunChecks(context.Background(), &models.Transfer{ID: "t1", SourceCurrency: "USD", SendAmount: 50000})
	assert.Equal(t, []models.ComplianceCheckType{
		models.CheckAML, models.CheckSanctions, models.CheckPEP, models.CheckTaxReporting,
	}, types(checks))
	assert.False(t, (&models.Transfer{ComplianceChecks: checks}).RequiresManualReview())
}

func TestPipeline_RunChecks_TaxOnlyAboveThreshold(t *testing.T) {
	tax := passing(models.CheckTaxReporting, 0)
	p := newPipeline(time.Second,
		passing(models.CheckAML, 0), passing(models.CheckSanctions, 0), passing(models.CheckPEP, 0), tax)

	checks := p.RunChecks(context.Background(), &models.Transfer{ID: "t1", SourceCurrency: "USD", SendAmount: 10000})
	assert.Len(t, checks, 3)
	tax.AssertNotCalled(t, "Screen", mock.Anything)

	checks = p.RunChecks(context.Background(), &models.Transfer{ID: "t2", SourceCurrency: "USD", SendAmount: 10000.01})
	assert.Len(t, checks, 4)
}

func TestPipeline_RunChecks_TimeoutBecomesManualReview(t *testing.T) {
	p := newPipeline(30*time.Millisecond,
		passing(models.CheckAML, 0),
		passing(models.CheckSanctions, 300*time.Millisecond),
		passing(models.CheckPEP, 0),
	)

	start := time.Now()
	checks := p.RunChecks(context.Background(), &models.Transfer{ID: "t1", SourceCurrency: "USD", SendAmount: 100})
	assert.Less(t, time.Since(start), 250*time.Millisecond)

	require.Len(t, checks, 3)
	slow := checks[1]
	assert.Equal(t, models.CheckSanctions, slow.Type)
	assert.Equal(t, models.ComplianceStatusManualReview, slow.Status)
	assert.Equal(t, 100.0, slow.RiskScore)
	assert.Equal(t, []string{FlagCheckTimeout}, slow.Flags)
	assert.True(t, (&models.Transfer{ComplianceChecks: checks}).RequiresManualReview())
}

func TestPipeline_RunChecks_ErrorBecomesManualReview(t *testing.T) {
	broken := &MockScreener{checkType: models.CheckPEP}
	broken.On("Screen", "t1").Return(Verdict{}, errors.New("provider down"))

	p := newPipeline(time.Second, passing(models.CheckAML, 0), passing(models.CheckSanctions, 0), broken)
	checks := p.RunChecks(context.Background(), &models.Transfer{ID: "t1", SourceCurrency: "USD", SendAmount: 100})

	assert.Equal(t, models.ComplianceStatusManualReview, checks[2].Status)
	assert.Equal(t, 100.0, checks[2].RiskScore)
	assert.Equal(t, []string{FlagCheckError}, checks[2].Flags)
	broken.AssertExpectations(t)
}

func TestPipeline_RunChecks_MissingScreener(t *testing.T) {
	p := newPipeline(time.Second, passing(models.CheckAML, 0))
	checks := p.RunChecks(context.Background(), &models.Transfer{ID: "t1", SourceCurrency: "USD", SendAmount: 100})

	require.Len(t, checks, 3)
	assert.Equal(t, []string{FlagNoScreener}, checks[1].Flags)
}

func TestPipeline_Plan_TaxThresholdIsInUSD(t *testing.T) {
	p := newPipeline(time.Second)
	tax := func(currency string, amount float64) bool {
		plan := p.Plan(&models.Transfer{SourceCurrency: currency, SendAmount: amount})
		return plan[len(plan)-1] == models.CheckTaxReporting
	}

	// 100,000 UGX is about 27 USD.
	assert.False(t, tax("UGX", 100000))
	assert.False(t, tax("UGX", 37000000))
	assert.True(t, tax("UGX", 37000370))
	assert.False(t, tax("USD", 10000))
	assert.True(t, tax("USD", 10000.01))
	assert.True(t, tax("XXX", 1))
}
