// Package session keeps per-user conversation state in memory.
package session

import (
	"sync"

	"github.com/set-night/cardtask/internal/domain"
)

// Store is the in-memory session store. Sessions are created as Idle on
// first lookup and never persisted: a restart simply forgets in-flight
// wizards.
//
// Reads and writes of the map are guarded by mu. Ordering of whole
// transitions for one user is the caller's job via LockUser.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session

	userLocks sync.Map // int64 -> *sync.Mutex
}

func New() *Store {
	return &Store{sessions: make(map[int64]domain.Session)}
}

// Get returns a copy of the user's session, creating an Idle one if the
// user has never been seen. It never fails.
func (s *Store) Get(userID int64) domain.Session {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	sess = domain.Session{UserID: userID, State: domain.StateIdle}
	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		sess = existing
	} else {
		s.sessions[userID] = sess
	}
	s.mu.Unlock()
	return sess
}

// Save stores the session, replacing whatever was there.
func (s *Store) Save(sess domain.Session) {
	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()
}

// SoftClear resets the user's state to Idle keeping only the age
// preference, and returns the resulting session.
func (s *Store) SoftClear(userID int64) domain.Session {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = domain.Session{UserID: userID, State: domain.StateIdle}
	}
	sess.SoftClear()
	s.sessions[userID] = sess
	s.mu.Unlock()
	return sess
}

// LockUser serializes event processing for one user. It blocks until the
// user's slot is free and returns the unlock function. Events for
// different users proceed in parallel.
func (s *Store) LockUser(userID int64) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
