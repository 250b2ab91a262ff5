package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "remit/internal/errors"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	countryRegex  = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Validator defines validation methods
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator. The first message for a field wins.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Email validates email format
func (v *Validator) Email(field, email string) {
	v.Check(emailRegex.MatchString(email), field, "must be a valid email address")
}

// Phone validates phone number format
func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(phone), field, "must be a valid phone number")
}

// Required checks if a value is not empty
func (v *Validator) Required(field string, value interface{}) {
	if value == nil {
		v.AddError(field, "must not be nil")
		return
	}

	switch val := value.(type) {
	case string:
		v.Check(strings.TrimSpace(val) != "", field, "must not be empty")
	case []string:
		v.Check(len(val) > 0, field, "must contain at least one item")
	case float64:
		v.Check(val != 0, field, "must not be zero")
	case int:
		v.Check(val != 0, field, "must not be zero")
	}
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Range checks if a number is between min and max
func (v *Validator) Range(field string, value float64, min, max float64) {
	v.Check(value >= min && value <= max, field, fmt.Sprintf("must be between %v and %v", min, max))
}

// Positive checks that an amount is strictly greater than zero
func (v *Validator) Positive(field string, value float64) {
	v.Check(value > 0, field, "must be greater than zero")
}

// CountryCode checks an ISO 3166-1 alpha-2 code
func (v *Validator) CountryCode(field, code string) {
	v.Check(countryRegex.MatchString(code), field, "must be a two-letter country code")
}

// CurrencyCode checks an ISO 4217 code
func (v *Validator) CurrencyCode(field, code string) {
	v.Check(currencyRegex.MatchString(code), field, "must be a three-letter currency code")
}

// OneOf checks value against an allowed set
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, "must be one of "+strings.Join(allowed, ", "))
}

// Err returns a ValidationError listing every field problem, or nil.
func (v *Validator) Err(subject string) error {
	if v.Valid() {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + v.Errors[f]
	}
	return apperrors.Validation("%s: %s", subject, strings.Join(parts, "; "))
}
