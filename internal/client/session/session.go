package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.etcd.io/bbolt"

	"tasklist/internal/token"
)

var (
	bucketSession = []byte("session")
	keyToken      = []byte("token")
)

// User is the client-side view of the authenticated account, derived from
// token claims rather than a server profile fetch.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Manager holds at most one session token, persisted in a local bbolt file so
// it survives process restarts. Claims are decoded locally without a network
// call; the signature is only ever verified by the server.
type Manager struct {
	db *bbolt.DB

	mu    sync.Mutex
	token string
	user  *User
}

// Open loads any stored token from path. An expired or undecodable token is
// discarded and the manager starts unauthenticated.
func Open(path string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	m := &Manager{db: db}

	var stored string
	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		if v := bucket.Get(keyToken); v != nil {
			stored = string(v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if stored != "" {
		user, ok := decodeUser(stored, time.Now())
		if ok {
			m.token = stored
			m.user = user
		} else {
			// stale token, drop the stored copy
			_ = m.clearStored()
		}
	}

	return m, nil
}

// SetToken stores a freshly issued token and switches the manager to the
// authenticated state.
func (m *Manager) SetToken(tokenString string) error {
	user, ok := decodeUser(tokenString, time.Now())
	if !ok {
		return fmt.Errorf("token is expired or malformed")
	}

	err := m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyToken, []byte(tokenString))
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	m.mu.Lock()
	m.token = tokenString
	m.user = user
	m.mu.Unlock()
	return nil
}

// Token returns the current bearer token, or empty when unauthenticated.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the current user view, or nil when unauthenticated.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Authenticated reports whether a valid token is held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// Logout clears the stored token and in-memory state. Purely local: the token
// itself stays valid server-side until it expires.
func (m *Manager) Logout() error {
	if err := m.clearStored(); err != nil {
		return err
	}
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *Manager) clearStored() error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(keyToken)
	})
}

// decodeUser parses claims without verifying the signature and checks expiry
// against the local clock.
func decodeUser(tokenString string, now time.Time) (*User, bool) {
	claims := &token.Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, false
	}
	return &User{
		ID:    id,
		Name:  claims.Name,
		Email: claims.Email,
	}, true
}
