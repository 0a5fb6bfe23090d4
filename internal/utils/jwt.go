package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AuthenticatedUser is the identity carried by a validated bearer token.
type AuthenticatedUser struct {
	Address string
	Admin   bool
}

type authClaims struct {
	Address string `json:"address"`
	Admin   bool   `json:"admin"`
	jwt.RegisteredClaims
}

// JwtAuthenticator issues and validates HS256 bearer tokens.
type JwtAuthenticator struct {
	secret []byte
	issuer string
}

func NewJwtAuthenticator(secret, issuer string) *JwtAuthenticator {
	return &JwtAuthenticator{secret: []byte(secret), issuer: issuer}
}

// GenerateToken signs a token for an address, valid for the given duration.
func (a *JwtAuthenticator) GenerateToken(address string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := authClaims{
		Address: NormalizeAddress(address),
		Admin:   admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken parses and verifies a bearer token.
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	var claims authClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if a.issuer != "" && claims.Issuer != a.issuer {
		return nil, fmt.Errorf("invalid token issuer")
	}
	return &AuthenticatedUser{Address: claims.Address, Admin: claims.Admin}, nil
}
