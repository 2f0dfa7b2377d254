package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minTokenSecretBytes = 32

// ErrTokenInvalid is returned for handles that fail signature or shape
// checks.
var ErrTokenInvalid = errors.New("invalid session token")

type handleClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// tokenCodec signs and verifies session handles. HS256 only; the token
// carries nothing but the session ID and an expiry matching the Redis TTL.
type tokenCodec struct {
	secret []byte
}

func newTokenCodec(secret []byte) (*tokenCodec, error) {
	if len(secret) < minTokenSecretBytes {
		return nil, errors.New("session token secret must be at least 32 bytes")
	}
	return &tokenCodec{secret: secret}, nil
}

func (c *tokenCodec) Encode(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := handleClaims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *tokenCodec) Decode(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &handleClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*handleClaims)
	if !ok || claims.SID == "" {
		return "", ErrTokenInvalid
	}

	return claims.SID, nil
}
