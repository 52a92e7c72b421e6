package session

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
)

// Manager signs and encrypts the session id cookie. Two keys are derived
// from the one configured secret so rotation means changing a single env
// var.
type Manager struct {
	codec *securecookie.SecureCookie
}

func NewManager() *Manager {
	h := sha256.Sum256([]byte("auth:" + config.SessionSecret))
	e := sha256.Sum256([]byte("enc:" + config.SessionSecret))
	codec := securecookie.New(h[:], e[:])
	codec.MaxAge(int(config.SessionMaxAge.Seconds()))
	return &Manager{codec: codec}
}

// SessionID returns the id carried by the request cookie, issuing a fresh
// one when the cookie is missing, expired or fails to decode. A tampered
// cookie silently becomes a new session rather than an error. The cookie
// is re-set on every call so the expiry window slides, an active chat
// never loses its session mid conversation.
func (m *Manager) SessionID(w http.ResponseWriter, r *http.Request) string {
	id, ok := m.Peek(r)
	if !ok {
		id = utils.GetNewUUID()
	}
	m.set(w, id)
	return id
}

// Peek decodes the session id without ever setting a cookie.
func (m *Manager) Peek(r *http.Request) (string, bool) {
	c, err := r.Cookie(config.SessionCookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := m.codec.Decode(config.SessionCookieName, c.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

// Clear expires the cookie and returns the id it carried so the caller can
// drop the stored history too.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := m.Peek(r)
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, ok
}

func (m *Manager) set(w http.ResponseWriter, id string) {
	encoded, err := m.codec.Encode(config.SessionCookieName, id)
	if err != nil {
		// keys are fixed size, encoding only fails on a broken clock
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
