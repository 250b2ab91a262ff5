package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransfer_RequiresManualReview(t *testing.T) {
	tests := []struct {
		name   string
		checks ComplianceChecks
		want   bool
	}{
		{"empty", nil, false},
		{"all clear", ComplianceChecks{{Status: ComplianceStatusPassed, RiskScore: 70}}, false},
		{"high risk", ComplianceChecks{{Status: ComplianceStatusPassed, RiskScore: 70.5}}, true},
		{"failed", ComplianceChecks{{Status: ComplianceStatusFailed}}, true},
		{"awaiting review", ComplianceChecks{{Status: ComplianceStatusManualReview}}, true},
		{"flagged", ComplianceChecks{{Status: ComplianceStatusPassed, Flags: []string{"x"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transfer{ComplianceChecks: tt.checks}
			assert.Equal(t, tt.want, tr.RequiresManualReview())
		})
	}
}
