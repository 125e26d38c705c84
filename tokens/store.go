// Package tokens owns persistence of the access/refresh token pair. The
// store treats tokens as opaque strings: it never validates their contents,
// and every Set or Clear writes through to durable storage immediately.
package tokens

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/internal/errors"
)

// Kind selects which token of the stored pair to read.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Store is the contract for token persistence. At most one token pair is
// active per store; Set replaces the pair, Clear removes it.
type Store interface {
	// Get returns the stored token of the given kind, or "" when absent.
	Get(kind Kind) string
	// Set replaces the stored pair with the tokens from the response.
	Set(tokens *api.TokenResponse) error
	// Clear removes both tokens from storage.
	Clear() error
	// IsAuthenticated reports whether an access token is present.
	IsAuthenticated() bool
}

// AccessTokenExpiry extracts the "exp" claim from a JWT access token without
// verifying its signature. The client only uses this as a refresh hint; the
// server remains authoritative for token validity.
func AccessTokenExpiry(rawToken string) (time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, errors.ErrNoAccessToken
	}
	parser := jwtlib.NewParser()
	token, _, err := parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidToken, "parse access token: %v", err)
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidToken, "access token has no exp claim")
	}
	return exp.Time, nil
}
