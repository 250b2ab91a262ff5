// Package reporting derives window statistics from the transfer store.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "remit/internal/errors"
	"remit/internal/metrics"
	"remit/internal/models"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// TopCorridorLimit caps the per-corridor breakdown.
const TopCorridorLimit = 10

// TransferLister is the part of the transfer store the aggregator reads.
type TransferLister interface {
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Transfer, error)
}

// Aggregator builds RemittanceReports. Reports over windows that ended in
// the past and hold only terminal transfers are memoised; anything else is
// recomputed on every call.
type Aggregator struct {
	transfers TransferLister
	cache     *cache.Cache
	metrics   metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

func NewAggregator(transfers TransferLister, ttl time.Duration, collector metrics.Collector, logger *slog.Logger) *Aggregator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Aggregator{
		transfers: transfers,
		cache:     cache.New(ttl, 2*ttl),
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateReport summarises transfers created within [start, end].
func (a *Aggregator) GenerateReport(ctx context.Context, start, end time.Time) (*models.RemittanceReport, error) {
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.Validation("report window needs both start and end")
	}
	if end.Before(start) {
		return nil, apperrors.Validation("report end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	closed := end.Before(a.now())
	key := fmt.Sprintf("%d:%d", start.UnixNano(), end.UnixNano())
	if closed {
		if cached, ok := a.cache.Get(key); ok {
			a.metrics.RecordReportGenerated(true)
			report := *cached.(*models.RemittanceReport)
			report.TopCorridors = append([]models.CorridorStats(nil), report.TopCorridors...)
			return &report, nil
		}
	}

	list, err := a.transfers.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transfers for report: %w", err)
	}

	report := Summarise(list, start, end)
	report.GeneratedAt = a.now()

	if closed && settled(list) {
		stored := *report
		stored.TopCorridors = append([]models.CorridorStats(nil), report.TopCorridors...)
		a.cache.SetDefault(key, &stored)
	}
	a.metrics.RecordReportGenerated(false)
	a.logger.Info("report generated", "start", start, "end", end,
		"transfers", report.TotalTransfers, "closed", closed)
	return report, nil
}

// settled reports whether every transfer has reached a terminal status, so
// a report over them can no longer change.
func settled(list []*models.Transfer) bool {
	for _, t := range list {
		if !t.Status.IsTerminal() {
			return false
		}
	}
	return true
}

type corridorTotals struct {
	origin, destination string
	count, completed    int
	volume              decimal.Decimal
}

// Summarise computes a report over list. Volume is the sum of send amounts
// and success rate is completed/total as a percentage.
func Summarise(list []*models.Transfer, start, end time.Time) *models.RemittanceReport {
	report := &models.RemittanceReport{
		PeriodStart:  start,
		PeriodEnd:    end,
		TopCorridors: []models.CorridorStats{},
	}

	volume := decimal.Zero
	byCorridor := make(map[string]*corridorTotals)
	var order []string

	for _, t := range list {
		amount := decimal.NewFromFloat(t.SendAmount)
		volume = volume.Add(amount)
		report.TotalTransfers++
		switch t.Status {
		case models.StatusCompleted:
			report.CompletedTransfers++
		case models.StatusFailed:
			report.FailedTransfers++
		}

		key := t.CorridorKey()
		ct, ok := byCorridor[key]
		if !ok {
			ct = &corridorTotals{origin: t.OriginCountry, destination: t.DestinationCountry, volume: decimal.Zero}
			byCorridor[key] = ct
			order = append(order, key)
		}
		ct.count++
		ct.volume = ct.volume.Add(amount)
		if t.Status == models.StatusCompleted {
			ct.completed++
		}
	}

	report.TotalVolume = volume.InexactFloat64()
	report.AverageAmount = average(volume, report.TotalTransfers)
	report.SuccessRate = percent(report.CompletedTransfers, report.TotalTransfers)

	for _, key := range order {
		ct := byCorridor[key]
		report.TopCorridors = append(report.TopCorridors, models.CorridorStats{
			Corridor:           key,
			OriginCountry:      ct.origin,
			DestinationCountry: ct.destination,
			Count:              ct.count,
			Volume:             ct.volume.InexactFloat64(),
			AverageAmount:      average(ct.volume, ct.count),
			SuccessRate:        percent(ct.completed, ct.count),
		})
	}
	sort.SliceStable(report.TopCorridors, func(i, j int) bool {
		return report.TopCorridors[i].Volume > report.TopCorridors[j].Volume
	})
	if len(report.TopCorridors) > TopCorridorLimit {
		report.TopCorridors = report.TopCorridors[:TopCorridorLimit]
	}
	return report
}

func average(sum decimal.Decimal, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).Round(2).InexactFloat64()
}
