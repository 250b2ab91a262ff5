package partner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"remit/internal/metrics"
	"remit/internal/models"
)

const DefaultTimeout = 10 * time.Second

// Dispatcher bounds every gateway call with a timeout. A call still running
// when the timeout fires is abandoned, not cancelled, and ErrGatewayTimeout
// is returned.
type Dispatcher struct {
	gateway Gateway
	timeout time.Duration
	metrics metrics.Collector
	logger  *slog.Logger
}

func NewDispatcher(gateway Gateway, timeout time.Duration, collector metrics.Collector, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Dispatcher{gateway: gateway, timeout: timeout, metrics: collector, logger: logger}
}

// Dispatch sends t to p.
func (d *Dispatcher) Dispatch(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (SendResult, error) {
	start := time.Now()
	res, err := call(ctx, d.timeout, func(cctx context.Context) (SendResult, error) {
		return d.gateway.Send(cctx, p, t)
	})

	outcome := "accepted"
	switch {
	case errors.Is(err, ErrGatewayTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case !res.Accepted:
		outcome = "rejected"
	}
	d.metrics.RecordDispatch(p.ID, outcome, time.Since(start))
	d.logger.Info("partner dispatch", "transfer_id", t.ID, "partner_id", p.ID, "outcome", outcome)
	return res, err
}

// Poll asks p for the delivery state of t.
func (d *Dispatcher) Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (StatusUpdate, error) {
	update, err := call(ctx, d.timeout, func(cctx context.Context) (StatusUpdate, error) {
		return d.gateway.Poll(cctx, p, t)
	})
	if err != nil {
		return StatusUpdate{}, err
	}
	switch update.State {
	case DeliveryPending, DeliveryCompleted, DeliveryFailed:
		return update, nil
	}
	return StatusUpdate{}, ErrUnknownPollState
}

type result[T any] struct {
	val T
	err error
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(cctx)
		done <- result[T]{val: v, err: err}
	}()

	var zero T
	select {
	case <-cctx.Done():
		return zero, ErrGatewayTimeout
	case r := <-done:
		if r.err != nil && cctx.Err() != nil {
			return zero, ErrGatewayTimeout
		}
		return r.val, r.err
	}
}
