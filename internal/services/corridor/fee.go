package corridor

import (
	"remit/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rounder rounds an amount to a currency's declared precision.
type Rounder interface {
	Round(code string, amount decimal.Decimal) decimal.Decimal
}

// Quote is the frozen economics of a transfer.
type Quote struct {
	SendAmount    float64 `json:"send_amount"`
	Fee           float64 `json:"fee"`
	MethodFee     float64 `json:"method_fee"`
	ExchangeRate  float64 `json:"exchange_rate"`
	ReceiveAmount float64 `json:"receive_amount"`
	TotalCost     float64 `json:"total_cost"`
}

// CalculateFee returns amount*feePercent/100 + fixedFee, unrounded.
func CalculateFee(corridor *models.PaymentCorridor, amount decimal.Decimal) decimal.Decimal {
	pct := decimal.NewFromFloat(corridor.FeePercent)
	return amount.Mul(pct).Div(hundred).Add(decimal.NewFromFloat(corridor.FixedFee))
}

// Price computes the quote for sending sendAmount over corridor at rate.
// The corridor fee is rounded to the source currency and carved out of the
// send amount, capped at it; the remainder is converted and rounded to the
// target currency. A method fee is charged on top, so
// TotalCost = SendAmount + MethodFee.
func Price(corridor *models.PaymentCorridor, method *models.PaymentMethod, sendAmount, rate float64, r Rounder) Quote {
	send := decimal.NewFromFloat(sendAmount)
	fee := r.Round(corridor.SourceCurrency, CalculateFee(corridor, send))
	if fee.GreaterThan(send) {
		fee = send
	}
	methodFee := decimal.Zero
	if method != nil && method.Fee > 0 {
		methodFee = r.Round(corridor.SourceCurrency, decimal.NewFromFloat(method.Fee))
	}

	receive := r.Round(corridor.TargetCurrency, send.Sub(fee).Mul(decimal.NewFromFloat(rate)))

	return Quote{
		SendAmount:    send.InexactFloat64(),
		Fee:           fee.InexactFloat64(),
		MethodFee:     methodFee.InexactFloat64(),
		ExchangeRate:  rate,
		ReceiveAmount: receive.InexactFloat64(),
		TotalCost:     send.Add(methodFee).InexactFloat64(),
	}
}
