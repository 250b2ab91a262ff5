package validation

import (
	"testing"

	apperrors "remit/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidator_CollectsFieldErrors(t *testing.T) {
	v := New()
	v.CountryCode("origin_country", "Uganda")
	v.CurrencyCode("source_currency", "UGX")
	v.Positive("send_amount", -5)
	v.Required("recipient.name", "  ")
	v.Phone("recipient.phone", "+256700000000")
	v.OneOf("delivery_method", "pigeon", "bank_transfer", "mobile_money")

	assert.False(t, v.Valid())
	assert.Len(t, v.Errors, 4)

	err := v.Err("transfer request")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "origin_country must be a two-letter country code")
	assert.Contains(t, err.Error(), "send_amount must be greater than zero")
}

func TestValidator_FirstMessageWins(t *testing.T) {
	v := New()
	v.AddError("amount", "first")
	v.AddError("amount", "second")
	assert.Equal(t, "first", v.Errors["amount"])
}

func TestValidator_ValidHasNoErr(t *testing.T) {
	v := New()
	v.Email("email", "a@b.io")
	v.Range("score", 50, 0, 100)
	assert.NoError(t, v.Err("x"))
}
