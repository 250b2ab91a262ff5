package payment

import (
	"context"
	"strings"

	"remit/internal/models"
)

// DeclinedProof is the proof value StaticVerifier always rejects.
const DeclinedProof = "declined"

// StaticVerifier accepts any non-empty proof except DeclinedProof. Used in
// development and tests where no payment processor is available.
type StaticVerifier struct{}

func (StaticVerifier) Verify(_ context.Context, _ *models.Transfer, proof string) (bool, error) {
	proof = strings.TrimSpace(proof)
	return proof != "" && !strings.EqualFold(proof, DeclinedProof), nil
}

func (StaticVerifier) Refund(_ context.Context, t *models.Transfer) (string, error) {
	return "refund-" + t.TrackingNumber, nil
}
