package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Driver is the persistence backend for sessions. Implementations live in
// store/db. A missing session is reported as (nil, nil); the facade maps
// that to ErrSessionNotFound.
type Driver interface {
	CreateSession(ctx context.Context, sess *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	PutSession(ctx context.Context, sess *Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*Session, error)
}

// Store owns all conversation sessions. It layers TTL expiry and
// per-session write serialization on top of a Driver.
type Store struct {
	driver   Driver
	ttl      time.Duration
	maxTurns int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle time after which a session expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithMaxTurns caps the history length kept per session.
func WithMaxTurns(n int) Option {
	return func(s *Store) { s.maxTurns = n }
}

// New creates a session store backed by the given driver.
func New(driver Driver, opts ...Option) (*Store, error) {
	if driver == nil {
		return nil, ErrInvalidConfig
	}
	s := &Store{
		driver:   driver,
		ttl:      30 * time.Minute,
		maxTurns: 20,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxTurns returns the configured history cap.
func (s *Store) MaxTurns() int { return s.maxTurns }

// Create allocates a new session in the GREETING state.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:           uuid.New().String(),
		State:        StateGreeting,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.driver.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get retrieves a session by id. Expired sessions are evicted on access
// and reported as ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.driver.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(s.ttl, time.Now().UTC()) {
		// Evict through Delete so the per-session lock entry goes too.
		_ = s.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Update applies mutate to the session under the per-session lock and
// persists the result. At most one mutation is in flight per session id;
// concurrent turns for the same session are serialized here.
func (s *Store) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(sess); err != nil {
		return nil, err
	}
	sess.LastActiveAt = time.Now().UTC()
	if err := s.driver.PutSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session. Idempotent: deleting an unknown id is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.dropLock(id)
	return s.driver.DeleteSession(ctx, id)
}

// DeleteStrict removes a session and fails with ErrSessionNotFound if it
// does not exist.
func (s *Store) DeleteStrict(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

// CleanupExpired evicts all expired sessions and returns how many were
// removed. Expiry is otherwise lazy (checked on Get), so calling this is
// optional.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	sessions, err := s.driver.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, sess := range sessions {
		if sess.Expired(s.ttl, now) {
			if err := s.Delete(ctx, sess.ID); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Count returns the number of live (non-expired) sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	sessions, err := s.driver.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	n := 0
	for _, sess := range sessions {
		if !sess.Expired(s.ttl, now) {
			n++
		}
	}
	return n, nil
}

func (s *Store) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *Store) dropLock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}
