// Package session issues and verifies the signed cookie that carries a
// user's display name between the login page, the chat pages and the
// websocket endpoint.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the name of the session cookie.
const CookieName = "directchat_session"

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager signs session tokens with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. Tokens expire after ttl.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for name.
func (m *Manager) Issue(name identity.Name) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: name.Display,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name.Canonical,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the name it was issued for.
func (m *Manager) Parse(raw string) (identity.Name, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return identity.Name{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	name, err := identity.Canonicalize(c.Username)
	if err != nil {
		return identity.Name{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return name, nil
}

// SetCookie writes a session cookie for name.
func (m *Manager) SetCookie(w http.ResponseWriter, name identity.Name) error {
	token, err := m.Issue(name)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest returns the name carried by the request's session cookie.
func (m *Manager) FromRequest(r *http.Request) (identity.Name, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return identity.Name{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return m.Parse(cookie.Value)
}
