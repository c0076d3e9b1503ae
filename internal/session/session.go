// Package session keeps per-visitor UI state on the server. A session is the
// lifetime of the visitor's contact form: created on first request, torn down
// when it goes idle or the server stops.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andrewotz/portfolio/internal/contact"
)

const (
	// CookieName carries the session id.
	CookieName = "portfolio_session"

	contextKey = "portfolio.session"
)

// Session is one visitor's server-side state.
type Session struct {
	ID      string
	Contact *contact.Controller

	lastSeen time.Time
}

// Factory builds the contact controller for a new session.
type Factory func() *contact.Controller

// Store holds live sessions in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	now      func() time.Time
	log      zerolog.Logger
	secure   bool
}

// Options configures a Store.
type Options struct {
	TTL           time.Duration
	Factory       Factory
	Logger        zerolog.Logger
	SecureCookies bool
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	factory := opts.Factory
	if factory == nil {
		factory = func() *contact.Controller {
			return contact.NewController(contact.Options{Logger: opts.Logger})
		}
	}
	return &Store{
		sessions: map[string]*Session{},
		ttl:      opts.TTL,
		factory:  factory,
		now:      time.Now,
		log:      opts.Logger,
		secure:   opts.SecureCookies,
	}
}

// Get returns a live session and marks it as seen.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		s.evictLocked(id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// Create starts a session with a fresh contact form.
func (s *Store) Create() *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Contact:  s.factory(),
		lastSeen: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep tears down idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			s.evictLocked(id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Int("live", len(s.sessions)).Msg("swept idle sessions")
	}
	return removed
}

// Run sweeps every interval until stop is closed.
func (s *Store) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close tears down every session.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.evictLocked(id)
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl
}

func (s *Store) evictLocked(id string) {
	if sess, ok := s.sessions[id]; ok {
		sess.Contact.Close()
		delete(s.sessions, id)
	}
}

// Middleware attaches the visitor's session to the request, creating one
// when the cookie is missing or stale.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *Session
		if id, err := c.Cookie(CookieName); err == nil {
			sess, _ = s.Get(id)
		}
		if sess == nil {
			sess = s.Create()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, sess.ID, 0, "/", "", s.secure, true)
		}
		c.Set(contextKey, sess)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware.
func FromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}
