package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity describes an authenticated chat participant.
type Identity struct {
	// Label is the display name shown to other participants, derived from
	// the name claims and never the raw account identifier.
	Label   string
	IsAdmin bool
}

// Verifier authenticates a connection handshake. Implementations return
// ErrUnauthenticated when no valid credential is present.
type Verifier interface {
	Authenticate(r *http.Request) (Identity, error)
}

// CookieVerifier validates the signed access token carried in a cookie.
type CookieVerifier struct {
	secret     []byte
	algorithm  string
	cookieName string
}

// NewCookieVerifier builds a verifier for HS-family signed access tokens.
func NewCookieVerifier(secret, algorithm, cookieName string) *CookieVerifier {
	return &CookieVerifier{secret: []byte(secret), algorithm: algorithm, cookieName: cookieName}
}

// Authenticate extracts and validates the access token from the request
// cookies. Only tokens of type "access" are accepted.
func (v *CookieVerifier) Authenticate(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(v.cookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != v.algorithm {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrUnauthenticated
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Identity{}, ErrUnauthenticated
	}

	label := displayLabel(claims)
	if label == "" {
		return Identity{}, ErrUnauthenticated
	}

	isAdmin, _ := claims["is_admin"].(bool)
	return Identity{Label: label, IsAdmin: isAdmin}, nil
}

// displayLabel renders "Last F.M." from the name claims, degrading to the
// parts that are present.
func displayLabel(claims jwt.MapClaims) string {
	last, _ := claims["last_name"].(string)
	first, _ := claims["first_name"].(string)
	middle, _ := claims["middle_name"].(string)

	parts := []string{}
	if last = strings.TrimSpace(last); last != "" {
		parts = append(parts, last)
	}
	initials := initial(first) + initial(middle)
	if initials != "" {
		parts = append(parts, initials)
	}
	return strings.Join(parts, " ")
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	runes := []rune(name)
	return string(runes[0]) + "."
}
