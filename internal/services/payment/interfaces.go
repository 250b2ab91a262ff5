// Package payment verifies that a sender has funded a transfer and returns
// funds when a confirmed transfer is cancelled.
package payment

import (
	"context"

	"remit/internal/models"
)

// Verifier decides whether proof settles t. A false result with a nil error
// is a definitive decline; an error means the verifier could not decide.
type Verifier interface {
	Verify(ctx context.Context, t *models.Transfer, proof string) (bool, error)
}

// Refunder returns the total cost of a confirmed transfer to the sender and
// yields the refund reference.
type Refunder interface {
	Refund(ctx context.Context, t *models.Transfer) (string, error)
}

// Decimals resolves the minor-unit precision of a currency.
type Decimals func(code string) int32
