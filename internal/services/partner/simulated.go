package partner

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"remit/internal/models"

	"github.com/google/uuid"
)

// SimulatedGateway stands in for real partners in development. Every send
// is accepted; each poll completes the transfer with probability
// SuccessRate/100 and otherwise reports it as still pending.
type SimulatedGateway struct {
	mu      sync.Mutex
	rng     *rand.Rand
	latency time.Duration
	now     func() time.Time
}

func NewSimulatedGateway(seed uint64, latency time.Duration) *SimulatedGateway {
	return &SimulatedGateway{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		latency: latency,
		now:     time.Now,
	}
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(g.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *SimulatedGateway) Send(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (SendResult, error) {
	if err := g.wait(ctx); err != nil {
		return SendResult{}, err
	}
	ref := strings.ToUpper(p.ID) + "-" + strings.ToUpper(uuid.NewString()[:8])
	return SendResult{Accepted: true, PartnerReference: ref}, nil
}

func (g *SimulatedGateway) Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (StatusUpdate, error) {
	if err := g.wait(ctx); err != nil {
		return StatusUpdate{}, err
	}
	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll < p.SuccessRate/100 {
		at := g.now()
		return StatusUpdate{State: DeliveryCompleted, DeliveredAt: &at}, nil
	}
	return StatusUpdate{State: DeliveryPending}, nil
}
