package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. All of them must be treated as "unauthenticated"
// by callers; the distinction exists for logging and tests only.
var (
	ErrMalformed        = errors.New("malformed_token")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrExpired          = errors.New("token_expired")
)

type Claims struct {
	jwt.RegisteredClaims
}

// NewAccessToken issues an HS256-signed token whose subject is the account's
// login email. The token carries nothing else: role and profile are re-read
// from the store on every request, so role changes and bans apply immediately.
func NewAccessToken(secret, issuer string, ttl time.Duration, subject string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry and returns the subject.
// No clock-skew leeway is granted.
func ParseToken(secret, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		default:
			return "", ErrMalformed
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}
