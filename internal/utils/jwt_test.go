package utils

import (
	"testing"
	"time"

	"remit/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateToken_RoundTrip(t *testing.T) {
	signed, err := GenerateToken(secret, models.UserClaims{UserID: "sender-9", Role: models.RoleSender}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, signed)
	require.NoError(t, err)
	assert.Equal(t, "sender-9", claims.UserID)
	assert.Equal(t, "sender-9", claims.Subject)
	assert.True(t, claims.HasPermission(models.PermissionTransferWrite))
	assert.False(t, claims.HasPermission(models.PermissionReportRead))
}

func TestGenerateToken_Validation(t *testing.T) {
	_, err := GenerateToken("", models.UserClaims{UserID: "u"}, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = GenerateToken(secret, models.UserClaims{}, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(secret, models.UserClaims{UserID: "u"}, -time.Minute)
	require.NoError(t, err)

	wrongKey, err := GenerateToken("other", models.UserClaims{UserID: "u"}, time.Hour)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, models.UserClaims{UserID: "u"}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"missing user", noUser},
		{"other algorithm", hs512},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(secret, tt.token)
			assert.Error(t, err)
		})
	}
}
