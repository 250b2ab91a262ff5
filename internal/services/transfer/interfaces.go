package transfer

import (
	"context"
	"errors"

	"remit/internal/models"
	"remit/internal/services/partner"
)

// ErrDispatchTimeout is returned when a partner did not answer in time. The
// transfer stays in processing and may be retried with RetryDispatch.
var ErrDispatchTimeout = errors.New("partner dispatch timed out")

// InitiateRequest is what a sender submits to start a transfer. Currencies
// come from the corridor.
type InitiateRequest struct {
	SenderID           string           `json:"-"`
	SenderName         string           `json:"sender_name"`
	Recipient          models.Recipient `json:"recipient"`
	OriginCountry      string           `json:"origin_country"`
	DestinationCountry string           `json:"destination_country"`
	SendAmount         float64          `json:"send_amount"`
	PaymentMethod      string           `json:"payment_method"`
	DeliveryMethod     string           `json:"delivery_method"`
	Purpose            string           `json:"purpose"`
	SourceOfFunds      string           `json:"source_of_funds"`
	Relationship       string           `json:"relationship"`
}

// CorridorResolver looks up the lane a transfer travels on.
type CorridorResolver interface {
	Resolve(originCountry, destinationCountry string) (*models.PaymentCorridor, error)
}

// RateSource returns a fresh exchange rate for an ordered pair.
type RateSource interface {
	GetRate(ctx context.Context, from, to string) (models.ExchangeRate, error)
}

// ComplianceRunner screens a transfer and returns its checks in fixed order.
type ComplianceRunner interface {
	RunChecks(ctx context.Context, t *models.Transfer) []models.ComplianceCheck
}

// PartnerDirectory selects and looks up settlement partners.
type PartnerDirectory interface {
	Select(t *models.Transfer) (*models.TransferPartner, bool)
	Get(id string) (*models.TransferPartner, error)
}

// PartnerDispatcher hands transfers to partners under a timeout.
type PartnerDispatcher interface {
	Dispatch(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (partner.SendResult, error)
	Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (partner.StatusUpdate, error)
}

// Service drives transfers through their lifecycle.
type Service interface {
	InitiateTransfer(ctx context.Context, req InitiateRequest) (*models.Transfer, error)
	ProcessPayment(ctx context.Context, id, proof string) (*models.Transfer, error)
	GetTransferStatus(ctx context.Context, id string) (*models.Transfer, error)
	TrackTransfer(ctx context.Context, trackingNumber string) (*models.Transfer, error)
	CancelTransfer(ctx context.Context, id, reason string) (*models.Transfer, error)
	RetryDispatch(ctx context.Context, id string) (*models.Transfer, error)
	ListTransfers(ctx context.Context, senderID string, limit, offset int) ([]*models.Transfer, int64, error)
}
