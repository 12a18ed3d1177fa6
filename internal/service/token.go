package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"booksearch/internal/model"
)

// DefaultTokenTTL is the validity window of an issued token
const DefaultTokenTTL = 2 * time.Hour

type tokenClaims struct {
	Data model.Identity `json:"data"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for identity that expires ttl from now.
// There is no revocation: a token stays valid until it expires.
func IssueToken(secret string, ttl time.Duration, identity model.Identity) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Data: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken returns the identity in a valid token. Malformed, tampered,
// wrongly signed and expired tokens all produce the same false result.
func VerifyToken(secret, tokenString string) (model.Identity, bool) {
	if tokenString == "" {
		return model.Identity{}, false
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Data.ID == "" {
		return model.Identity{}, false
	}
	return claims.Data, true
}
