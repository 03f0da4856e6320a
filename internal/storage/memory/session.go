// Package memory implements the session repository in process memory, for
// local development and tests. Sessions are lost on restart and are not
// shared between instances.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/print-order/internal/domain/session"
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository is a session.Repository backed by a map.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]session.Session)}
}

// Create stores s.
func (r *SessionRepository) Create(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return errors.Errorf("session %q already exists", s.ID)
	}
	r.sessions[s.ID] = *s
	return nil
}

// Get returns a copy of the session id.
func (r *SessionRepository) Get(_ context.Context, id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

// Update saves the state of an open session.
func (r *SessionRepository) Update(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.ID]
	if !ok {
		return session.ErrNotFound
	}
	if cur.Status != session.StatusOpen {
		return session.ErrNotOpen
	}
	cur.State = s.State
	cur.Total = s.Total
	cur.UpdatedAt = s.UpdatedAt
	cur.Version++
	r.sessions[s.ID] = cur
	s.Version = cur.Version
	return nil
}

// BeginSubmit moves an open session still at version to submitting.
func (r *SessionRepository) BeginSubmit(_ context.Context, id string, version int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[id]
	if !ok || cur.Status != session.StatusOpen || cur.Version != version {
		return false, nil
	}
	cur.Status = session.StatusSubmitting
	cur.UpdatedAt = at
	r.sessions[id] = cur
	return true, nil
}

// FinishSubmit marks a submitting session submitted.
func (r *SessionRepository) FinishSubmit(_ context.Context, s *session.Session) error {
	return r.endSubmit(s, session.StatusSubmitted)
}

// AbortSubmit returns a submitting session to open.
func (r *SessionRepository) AbortSubmit(_ context.Context, s *session.Session) error {
	return r.endSubmit(s, session.StatusOpen)
}

func (r *SessionRepository) endSubmit(s *session.Session, to session.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.ID]
	if !ok || cur.Status != session.StatusSubmitting {
		return errors.Errorf("session %q is not submitting", s.ID)
	}
	cur.Status = to
	cur.State = s.State
	cur.Total = s.Total
	cur.CheckoutURL = s.CheckoutURL
	cur.UpdatedAt = s.UpdatedAt
	cur.Version++
	r.sessions[s.ID] = cur
	s.Version = cur.Version
	return nil
}

// DeleteExpired removes sessions that expired before the given time.
func (r *SessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
