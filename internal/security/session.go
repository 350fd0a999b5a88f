package security

import (
	"fmt"
	"net/http"
	"os"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/domain"

	"github.com/gorilla/sessions"
)

const sessionName = "arriendo-session"

// SessionManager keeps the logged-in principal in a gorilla session
type SessionManager struct {
	store sessions.Store
}

// NewSessionManager builds a cookie or filesystem backed session store
func NewSessionManager(cfg config.SessionConfig) (*SessionManager, error) {
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	switch cfg.Store {
	case "filesystem":
		if cfg.Dir != "" {
			if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create session dir: %w", err)
			}
		}
		fs := sessions.NewFilesystemStore(cfg.Dir, []byte(cfg.Secret))
		fs.Options = opts
		// filesystem sessions are not limited by cookie size
		fs.MaxLength(0)
		return &SessionManager{store: fs}, nil
	default:
		cs := sessions.NewCookieStore([]byte(cfg.Secret))
		cs.Options = opts
		return &SessionManager{store: cs}, nil
	}
}

// Save stores the principal in the session cookie
func (m *SessionManager) Save(w http.ResponseWriter, r *http.Request, p *domain.Principal) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = p.UserID
	session.Values["email"] = p.Email
	session.Values["role"] = string(p.Role)
	delete(session.Values, "driver_id")
	delete(session.Values, "customer_id")
	if p.DriverID != nil {
		session.Values["driver_id"] = *p.DriverID
	}
	if p.CustomerID != nil {
		session.Values["customer_id"] = *p.CustomerID
	}
	return session.Save(r, w)
}

// Load returns the principal of an authenticated session
func (m *SessionManager) Load(r *http.Request) (*domain.Principal, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil, false
	}
	if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
		return nil, false
	}

	userID, _ := session.Values["user_id"].(int64)
	role, _ := session.Values["role"].(string)
	if userID == 0 || !domain.Role(role).IsValid() {
		return nil, false
	}

	p := &domain.Principal{UserID: userID, Role: domain.Role(role)}
	p.Email, _ = session.Values["email"].(string)
	if id, ok := session.Values["driver_id"].(int64); ok {
		p.DriverID = &id
	}
	if id, ok := session.Values["customer_id"].(int64); ok {
		p.CustomerID = &id
	}
	return p, true
}

// Clear expires the session
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
