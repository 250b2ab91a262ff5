package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"remit/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/refund"
)

// StripeVerifier treats the proof as a PaymentIntent id. The intent must
// have succeeded for exactly the transfer's total cost in its source currency.
type StripeVerifier struct {
	decimals Decimals
	logger   *slog.Logger

	getIntent    func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	createRefund func(params *stripe.RefundParams) (*stripe.Refund, error)
}

func NewStripeVerifier(secretKey string, decimals Decimals, logger *slog.Logger) *StripeVerifier {
	stripe.Key = secretKey
	return &StripeVerifier{
		decimals:     decimals,
		logger:       logger,
		getIntent:    paymentintent.Get,
		createRefund: refund.New,
	}
}

func (v *StripeVerifier) Verify(ctx context.Context, t *models.Transfer, proof string) (bool, error) {
	if proof == "" {
		return false, nil
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := v.getIntent(proof, params)
	if err != nil {
		return false, fmt.Errorf("retrieve payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		v.logger.Warn("payment intent not settled", "transfer_id", t.ID, "intent", pi.ID, "status", pi.Status)
		return false, nil
	}
	if !strings.EqualFold(string(pi.Currency), t.SourceCurrency) {
		v.logger.Warn("payment currency mismatch", "transfer_id", t.ID, "intent", pi.ID, "currency", pi.Currency)
		return false, nil
	}
	if want := v.minorUnits(t.SourceCurrency, t.TotalCost); pi.AmountReceived != want {
		v.logger.Warn("payment amount mismatch", "transfer_id", t.ID, "intent", pi.ID,
			"received", pi.AmountReceived, "expected", want)
		return false, nil
	}
	return true, nil
}

// Refund returns the full total cost against the PaymentIntent that funded t.
func (v *StripeVerifier) Refund(ctx context.Context, t *models.Transfer) (string, error) {
	if t.PaymentReference == "" {
		return "", fmt.Errorf("transfer %s has no payment reference", t.ID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(t.PaymentReference),
		Amount:        stripe.Int64(v.minorUnits(t.SourceCurrency, t.TotalCost)),
	}
	params.Context = ctx
	params.AddMetadata("transfer_id", t.ID)
	params.AddMetadata("tracking_number", t.TrackingNumber)

	r, err := v.createRefund(params)
	if err != nil {
		return "", fmt.Errorf("create refund: %w", err)
	}
	return r.ID, nil
}

func (v *StripeVerifier) minorUnits(code string, amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(v.decimals(code)).Round(0).IntPart()
}
