// Package token holds the bearer token used by the visual-search backend and
// decides when it needs refreshing.
package token

import (
	"sync/atomic"
	"time"
)

// RefreshBuffer is how far ahead of expiry a token is treated as stale.
const RefreshBuffer = 5 * time.Minute

// State is derived from the current token and clock, never stored.
type State int

// Token states.
const (
	NoToken State = iota
	Valid
	ExpiringSoon
	Expired
)

// String returns the state name used in logs and API responses.
func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case ExpiringSoon:
		return "expiring_soon"
	case Expired:
		return "expired"
	default:
		return "no_token"
	}
}

// Snapshot is an immutable view of the stored token.
type Snapshot struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// Persister receives every snapshot change. A nil snapshot means the token
// was cleared.
type Persister interface {
	PersistToken(snap *Snapshot) error
}

// Store holds one bearer token and its absolute expiry. Reads are lock-free
// snapshot loads; Save and Clear swap the snapshot atomically.
type Store struct {
	snap      atomic.Pointer[Snapshot]
	nowFunc   func() time.Time
	persister Persister
	onPersist func(error)
}

// Option configures the Store.
type Option func(*Store)

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = f
	}
}

// WithPersister mirrors every change into p. Persist errors are reported to
// onErr (if set) and never fail the in-memory write.
func WithPersister(p Persister, onErr func(error)) Option {
	return func(s *Store) {
		s.persister = p
		s.onPersist = onErr
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores token with an expiry of now+ttl.
func (s *Store) Save(token string, ttl time.Duration) {
	snap := &Snapshot{Token: token, Expiry: s.nowFunc().Add(ttl)}
	s.snap.Store(snap)
	s.persist(snap)
}

// Restore installs a previously persisted snapshot without re-persisting it.
// Empty snapshots are ignored.
func (s *Store) Restore(snap Snapshot) {
	if snap.Token == "" {
		return
	}
	s.snap.Store(&snap)
}

// Clear drops the token, returning the store to NoToken.
func (s *Store) Clear() {
	s.snap.Store(nil)
	s.persist(nil)
}

// Current returns the token and whether one is held. Expired tokens are
// still returned; callers decide via IsExpiredOrExpiringSoon.
func (s *Store) Current() (string, bool) {
	snap := s.snap.Load()
	if snap == nil {
		return "", false
	}
	return snap.Token, true
}

// Snapshot returns a copy of the current token state, or nil.
func (s *Store) Snapshot() *Snapshot {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	cp := *snap
	return &cp
}

// Expiry returns the absolute expiry, or the zero time when no token is held.
func (s *Store) Expiry() time.Time {
	snap := s.snap.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.Expiry
}

// IsExpiredOrExpiringSoon reports whether the token is missing, expired, or
// expires within RefreshBuffer. It is the only refresh trigger signal.
func (s *Store) IsExpiredOrExpiringSoon() bool {
	switch s.State() {
	case Valid:
		return false
	default:
		return true
	}
}

// State derives the token state from the stored expiry and the clock.
func (s *Store) State() State {
	snap := s.snap.Load()
	if snap == nil {
		return NoToken
	}

	remaining := snap.Expiry.Sub(s.nowFunc())
	switch {
	case remaining <= 0:
		return Expired
	case remaining < RefreshBuffer:
		return ExpiringSoon
	default:
		return Valid
	}
}

func (s *Store) persist(snap *Snapshot) {
	if s.persister == nil {
		return
	}
	if err := s.persister.PersistToken(snap); err != nil && s.onPersist != nil {
		s.onPersist(err)
	}
}
