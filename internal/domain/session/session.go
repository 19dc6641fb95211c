package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

var (
	ErrMissingEmail    = errors.New("email is required")
	ErrMissingPassword = errors.New("password is required")
	ErrMissingUsername = errors.New("username is required")
	ErrNotFound        = errors.New("session not found")
)

// Session is the viewer's authentication and authorization state. The
// anonymous default is the zero value.
type Session struct {
	ID         string    `json:"id"`
	IsLoggedIn bool      `json:"isLoggedIn"`
	IsAdmin    bool      `json:"isAdmin"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Anonymous is the logged-out default session.
func Anonymous() Session {
	return Session{}
}

type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminAccount is the fixed administrator record. Elevation requires an
// exact match of all three fields; the password is held as a bcrypt hash
// but the policy is still exact-match-or-nothing. This is a deliberately
// preserved placeholder mechanism, not a real credential system.
type AdminAccount struct {
	Username     string
	Email        string
	PasswordHash string
}

// Manager tracks active sessions. Every change is persisted under the
// session key so a restart resumes logins; peer writes arrive through the
// store subscription.
type Manager struct {
	mu       sync.RWMutex
	st       store.Store
	admin    AdminAccount
	sessions map[string]Session
	failures int
}

func NewManager(ctx context.Context, st store.Store, admin AdminAccount) (*Manager, error) {
	m := &Manager{
		st:       st,
		admin:    admin,
		sessions: make(map[string]Session),
	}
	if _, err := st.Load(ctx, store.KeySession, &m.sessions); err != nil {
		return nil, err
	}

	st.Subscribe(store.KeySession, func(_ string, raw []byte) {
		sessions := make(map[string]Session)
		if err := json.Unmarshal(raw, &sessions); err != nil {
			log.Printf("[Session] Ignoring bad external session value: %v", err)
			return
		}
		m.mu.Lock()
		m.sessions = sessions
		m.mu.Unlock()
	})

	return m, nil
}

// Login authenticates credentials and opens a session.
//
// An exact match of username, email and password against the fixed admin
// record yields an admin session. Any other identity with a password of at
// least 6 characters yields a regular session with no further verification
// (the username falls back to the email local part). Shorter passwords fail
// with the weak-credential error.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	if creds.Email == "" {
		m.recordFailure()
		return Session{}, ErrMissingEmail
	}
	if creds.Password == "" {
		m.recordFailure()
		return Session{}, ErrMissingPassword
	}

	sess := Session{
		ID:         uuid.New().String(),
		IsLoggedIn: true,
		CreatedAt:  time.Now(),
		Email:      creds.Email,
	}

	if creds.Username == m.admin.Username &&
		creds.Email == m.admin.Email &&
		auth.CheckPassword(creds.Password, m.admin.PasswordHash) {
		sess.IsAdmin = true
		sess.Username = m.admin.Username
	} else {
		if err := auth.CheckLength(creds.Password); err != nil {
			m.recordFailure()
			return Session{}, err
		}
		sess.Username = creds.Username
		if sess.Username == "" {
			sess.Username = strings.SplitN(creds.Email, "@", 2)[0]
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
	m.sessions[sess.ID] = sess
	if err := m.st.Save(ctx, store.KeySession, m.sessions); err != nil {
		delete(m.sessions, sess.ID)
		return Session{}, err
	}
	return sess, nil
}

// Register validates a new identity. Nothing is stored: the plain-login
// path accepts any sufficiently long password, so registration is only a
// validation step before the user is sent back to login.
func (m *Manager) Register(creds Credentials) error {
	if creds.Username == "" {
		return ErrMissingUsername
	}
	if creds.Email == "" {
		return ErrMissingEmail
	}
	return auth.CheckLength(creds.Password)
}

// Logout drops the session and persists the change. Unknown IDs are a
// no-op: logging out twice is fine.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil
	}
	delete(m.sessions, sessionID)
	return m.st.Save(ctx, store.KeySession, m.sessions)
}

// Get returns the active session for an ID, or the anonymous session.
func (m *Manager) Get(sessionID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return Anonymous(), false
	}
	return sess, true
}

func (m *Manager) recordFailure() {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

// Failures is the running count of failed login attempts, surfaced to the
// user. There is no lockout and no backoff.
func (m *Manager) Failures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}
