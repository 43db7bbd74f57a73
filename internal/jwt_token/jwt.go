// Package jwttoken validates administrator bearer tokens. Token issuance is
// the external auth service's job; this package only verifies signatures and
// extracts the claims the middleware needs.
package jwttoken

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"steeple/internal/platform/middleware"
)

// Validator verifies HS256-signed admin tokens against a shared signing key.
type Validator struct {
	signingKey []byte
}

// NewValidator creates a Validator for the given signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a token string, returning the admin
// identity claims. Expired or malformed tokens return an error.
func (v *Validator) ValidateToken(tokenString string) (*middleware.AdminClaims, error) {
	var claims adminClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token did not pass validation")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return &middleware.AdminClaims{
		AdminID: claims.Subject,
		Role:    claims.Role,
	}, nil
}
