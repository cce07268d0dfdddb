package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims read from an access token for display and
// logging. They are not verified; the remote service is the only authority.
type AccessClaims struct {
	Subject   string
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is before now. A token with
// no exp claim never reports expired.
func (c AccessClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectAccess decodes the claims of a JWT access token without checking its
// signature.
func InspectAccess(raw string) (AccessClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return AccessClaims{}, fmt.Errorf("InspectAccess: %w", err)
	}

	var out AccessClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if v, ok := claims["user_id"]; ok {
		out.UserID = fmt.Sprint(v)
	}
	if v, ok := claims["token_type"].(string); ok {
		out.TokenType = v
	}
	return out, nil
}
