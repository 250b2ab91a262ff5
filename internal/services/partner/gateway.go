package partner

import (
	"context"
	"errors"
	"time"

	"remit/internal/models"
)

var (
	ErrGatewayTimeout    = errors.New("partner gateway timed out")
	ErrNoEligiblePartner = errors.New("no eligible partner")
	ErrUnknownPollState  = errors.New("partner returned unknown state")
)

// SendResult is the partner's answer to a dispatch.
type SendResult struct {
	Accepted         bool   `json:"accepted"`
	PartnerReference string `json:"partner_reference"`
	Reason           string `json:"reason,omitempty"`
}

// Delivery states reported by Poll.
const (
	DeliveryPending   = "pending"
	DeliveryCompleted = "completed"
	DeliveryFailed    = "failed"
)

// StatusUpdate is the partner's view of a dispatched transfer.
type StatusUpdate struct {
	State       string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Gateway talks to a settlement partner.
type Gateway interface {
	Send(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (SendResult, error)
	Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (StatusUpdate, error)
}
