// Package session owns the client-visible authentication state: who is
// logged in, whether the session survives restarts, and when it expires.
package session

import (
	"fmt"
	"strconv"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Subject claim candidates, tried in order; the first non-empty value wins.
// "nameid" is what the API mints today, "sub" is the RFC 7519 subject, and
// the WS-* URI shows up in tokens minted before the auth service rewrite.
const (
	claimNameID       = "nameid"
	claimSubject      = "sub"
	claimLegacyNameID = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
)

// subjectExtractor pulls a candidate subject out of the decoded claims,
// returning "" when the claim is absent or unusable.
type subjectExtractor func(jwt.MapClaims) string

// subjectExtractors is the documented fallback order for locating the
// subject identifier. Order matters; do not reorder without checking what
// the API currently mints.
var subjectExtractors = []subjectExtractor{
	claimString(claimNameID),
	claimString(claimSubject),
	claimString(claimLegacyNameID),
}

func claimString(name string) subjectExtractor {
	return func(claims jwt.MapClaims) string {
		switch v := claims[name].(type) {
		case string:
			return v
		case float64:
			// Some issuers encode numeric IDs as JSON numbers.
			return strconv.FormatUint(uint64(v), 10)
		default:
			return ""
		}
	}
}

// TokenClaims is the decoded view of a stored bearer token. The token is
// otherwise opaque to this client; only expiry and subject are read.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// DecodeToken decodes the claims payload of a bearer token without verifying
// its signature. Only the remote API holds the signing key; the client needs
// just the expiry and subject to manage its local session.
func DecodeToken(raw string) (*TokenClaims, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, models.NewAuthenticationError("stored token is not decodable")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewAuthenticationError("stored token has no claims payload")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewAuthenticationError("stored token has no expiry")
	}

	var subject string
	for _, extract := range subjectExtractors {
		if s := extract(claims); s != "" {
			subject = s
			break
		}
	}

	return &TokenClaims{
		Subject:   subject,
		ExpiresAt: exp.Time,
	}, nil
}

// Expired reports whether the token's expiry has passed at the given instant.
func (tc *TokenClaims) Expired(now time.Time) bool {
	return !now.Before(tc.ExpiresAt)
}

// UserID parses the subject claim into the numeric user identifier used by
// the profile endpoints.
func (tc *TokenClaims) UserID() (uint, error) {
	if tc.Subject == "" {
		return 0, models.NewAuthenticationError("stored token has no subject identifier")
	}
	id, err := strconv.ParseUint(tc.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewAuthenticationError(fmt.Sprintf("invalid subject identifier %q", tc.Subject))
	}
	return uint(id), nil
}
