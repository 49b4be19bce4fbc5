package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrMissingKey   = errors.New("session signing key is not set")
)

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(sessionID string) (string, error) {
	if len(i.key) == 0 {
		return "", ErrMissingKey
	}

	now := i.now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

func (i *Issuer) Parse(tokenStr string) (*SessionClaims, error) {
	if len(i.key) == 0 {
		return nil, ErrMissingKey
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return i.key, nil
		},
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
