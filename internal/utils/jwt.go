package utils

import (
	"errors"
	"time"

	"remit/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "remit-api"

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// GenerateToken signs an HS256 access token for the given claims.
// Permissions default to the role's set when empty.
func GenerateToken(secret string, claims models.UserClaims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if claims.UserID == "" {
		return "", ErrInvalidClaims
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   claims.UserID,
	}
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string.
// Only HS256 is accepted and the claims must carry a user id.
func ParseToken(secret, tokenStr string) (*models.UserClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
