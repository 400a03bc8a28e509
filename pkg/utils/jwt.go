package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

const tokenIssuer = "socialflow"

var ErrInvalidSession = errors.New("invalid session token")

// GenerateToken signs a session token for userID that expires after ttl.
func GenerateToken(secretKey, userID string, ttl time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("session secret is empty")
	}

	now := time.Now()
	claims := transfer.CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

// ValidateToken parses a session token and returns its claims. Only HS256
// tokens from this issuer with an expiry are accepted.
func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	claims := &transfer.CustomClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return claims, nil
}
