// Package auth issues and verifies operator bearer credentials and hashes
// operator passwords.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VerifyResult is the outcome of checking a bearer credential. OperatorID is
// only meaningful when Valid is true.
type VerifyResult struct {
	Valid      bool
	OperatorID uuid.UUID
}

// TokenService issues and verifies HS256 bearer credentials whose subject is
// an operator id. It keeps no state besides its signing configuration.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service signing with secret
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

// TTL returns how long issued credentials stay valid
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a credential for operatorID expiring after the configured TTL
func (s *TokenService) Issue(operatorID uuid.UUID) (string, error) {
	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   operatorID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer, expiry and subject. Every
// failure yields an invalid result; it never returns an error.
func (s *TokenService) Verify(token string) VerifyResult {
	if token == "" {
		return VerifyResult{}
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return VerifyResult{}
	}

	operatorID, err := uuid.Parse(claims.Subject)
	if err != nil || operatorID == uuid.Nil {
		return VerifyResult{}
	}

	return VerifyResult{Valid: true, OperatorID: operatorID}
}
