package ws

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

// Claims carries the authenticated participant address.
type Claims struct {
	Address string `json:"addr"`
	jwt.RegisteredClaims
}

// IssueToken signs a token binding the given participant address.
func IssueToken(secret []byte, addr engine.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token and returns the participant address it binds.
func ParseToken(secret []byte, token string) (engine.Address, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return engine.ZeroAddress, fmt.Errorf("parse token: %w", err)
	}
	var addr engine.Address
	if err := addr.UnmarshalText([]byte(claims.Address)); err != nil {
		return engine.ZeroAddress, fmt.Errorf("token address: %w", err)
	}
	return addr, nil
}
