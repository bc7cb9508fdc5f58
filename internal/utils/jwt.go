package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type merchantClaims struct {
	jwt.RegisteredClaims
}

// GenerateToken creates a signed dashboard JWT for the merchant.
func GenerateToken(secret string, ttl time.Duration) (string, error) {
	claims := &merchantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "merchant",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token signature and expiry.
func ParseToken(secret, tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &merchantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}

	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
