package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrOpaque is returned when the bearer token is not a decodable JWT. The
// client treats tokens as opaque, so this is informational only.
var ErrOpaque = errors.New("token is opaque")

// Details captures what can be read from a bearer token without verifying
// it. The signature is never checked: the remote API is the authority.
type Details struct {
	Subject   string     `json:"sub,omitempty"`
	Tenant    string     `json:"tenant,omitempty"`
	Role      string     `json:"role,omitempty"`
	ID        string     `json:"jti,omitempty"`
	IssuedAt  *time.Time `json:"iat,omitempty"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}

// Inspect decodes the claims of a JWT shaped bearer token.
func Inspect(rawToken string) (*Details, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrOpaque
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaque, err)
	}

	details := &Details{
		Subject: stringClaim(claims, "sub"),
		Tenant:  stringClaim(claims, "tenant"),
		Role:    stringClaim(claims, "role"),
		ID:      stringClaim(claims, "jti"),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		details.IssuedAt = &iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		details.ExpiresAt = &exp.Time
	}
	return details, nil
}

// Expired reports whether the token carries an expiry that has passed.
// Tokens without an expiry never expire client side.
func (d *Details) Expired(now time.Time) bool {
	return d != nil && d.ExpiresAt != nil && !now.Before(*d.ExpiresAt)
}

// Mask shortens a token for display, keeping the first and last 4 characters.
func Mask(rawToken string) string {
	if len(rawToken) <= 12 {
		return strings.Repeat("*", len(rawToken))
	}
	return rawToken[:4] + "..." + rawToken[len(rawToken)-4:]
}

func stringClaim(claims jwtlib.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
