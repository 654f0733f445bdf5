package secrets

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the console can tell about an admin token without
// verifying it.
type TokenInfo struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect reads the claims of a JWT without checking its signature. Opaque
// tokens are not an error; they yield an empty TokenInfo and ok=false.
func Inspect(token string) (TokenInfo, bool, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}, false, nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false, fmt.Errorf("parse token: %w", err)
	}
	var info TokenInfo
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	info.Email, _ = claims["email"].(string)
	info.Role, _ = claims["role"].(string)
	if info.Subject == "" {
		// many backends put the user id in "id" or "userId"
		for _, k := range []string{"id", "userId"} {
			if v, ok := claims[k].(string); ok && v != "" {
				info.Subject = v
				break
			}
		}
	}
	return info, true, nil
}
