package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/Odenfis/sedimApp/internal/log"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "sedim_session"

	sessionMaxAge = 24 * 60 * 60

	// gorilla's FilesystemStore names its records session_<id>
	sessionFilePrefix = "session_"

	keyUserID   = "uid"
	keyUsername = "usuario"
	keyName     = "nombre"
)

// ErrNoSession is returned when a request carries no valid session
var ErrNoSession = errors.New("no session")

// SessionConfig controls the session cookie and where session records live
type SessionConfig struct {
	Secret string
	Secure bool
	Dir    string
}

// SessionManager keeps session records on disk. The cookie only carries the
// signed session id, so ending a session revokes it for every copy of the
// cookie.
type SessionManager struct {
	store *sessions.FilesystemStore
	dir   string
	now   func() time.Time
}

// NewSessionManager creates the session directory and the store. An empty
// secret gets a random key, which invalidates sessions on every restart.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		log.Warn("No session secret configured, using a random key; sessions will not survive a restart")
		key = securecookie.GenerateRandomKey(32)
	}
	if cfg.Dir == "" {
		return nil, errors.New("session directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	store := sessions.NewFilesystemStore(cfg.Dir, key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(sessionMaxAge)
	return &SessionManager{store: store, dir: cfg.Dir, now: time.Now}, nil
}

// Start stores p in a new session with a fresh id
func (m *SessionManager) Start(w http.ResponseWriter, r *http.Request, p Principal) error {
	session := sessions.NewSession(m.store, SessionCookieName)
	opts := *m.store.Options
	session.Options = &opts
	session.IsNew = true
	session.Values[keyUserID] = p.ID
	session.Values[keyUsername] = p.Username
	session.Values[keyName] = p.Name
	return session.Save(r, w)
}

// End deletes the session record and expires the cookie
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, SessionCookieName)
	if err != nil || session.IsNew {
		opts := *m.store.Options
		opts.MaxAge = -1
		http.SetCookie(w, sessions.NewCookie(SessionCookieName, "", &opts))
		return nil
	}
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Current returns the principal of the request's session, or ErrNoSession
// when the cookie is missing, fails verification or its record is gone.
func (m *SessionManager) Current(r *http.Request) (Principal, error) {
	session, err := m.store.Get(r, SessionCookieName)
	if err != nil || session.IsNew {
		return Principal{}, ErrNoSession
	}

	id, ok := session.Values[keyUserID].(int64)
	if !ok {
		return Principal{}, ErrNoSession
	}
	username, _ := session.Values[keyUsername].(string)
	name, _ := session.Values[keyName].(string)
	return Principal{ID: id, Username: username, Name: name}, nil
}

// Prune removes session records older than the session lifetime and returns
// how many were deleted.
func (m *SessionManager) Prune() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-sessionMaxAge * time.Second)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), sessionFilePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		log.Debug("Expired sessions pruned", "count", removed)
	}
	return removed, nil
}
