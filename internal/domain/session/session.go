// Package session persists print order wizards between requests so that a
// browser can drive the wizard through the HTTP API.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/print-order/internal/wizard"
)

// Status is the submission status of a session.
type Status string

const (
	StatusOpen       Status = "open"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrExpired          = errors.New("session expired")
	ErrAlreadySubmitted = errors.New("order already submitted")
	// ErrNotOpen is returned by Repository when a conditional update finds the
	// session no longer open.
	ErrNotOpen = errors.New("session is not open")
)

// Session is a wizard owned by one caller.
type Session struct {
	ID string
	// OwnerHash identifies the caller; see auth.Hasher.
	OwnerHash   string
	State       wizard.State
	Status      Status
	CheckoutURL string
	// Total is the price of State at the last save.
	Total decimal.Decimal
	// Version counts saves of State.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether s is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Repository persists sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound when no session has the id.
	Get(ctx context.Context, id string) (*Session, error)
	// Update saves State and Total of an open session, or returns ErrNotOpen.
	// It sets s.Version to the stored version.
	Update(ctx context.Context, s *Session) error
	// BeginSubmit moves an open session at the given version to submitting.
	// It reports false when the session was not open or was saved since.
	BeginSubmit(ctx context.Context, id string, version int64, at time.Time) (bool, error)
	// FinishSubmit marks a submitting session submitted with its checkout URL
	// and sets s.Version.
	FinishSubmit(ctx context.Context, s *Session) error
	// AbortSubmit returns a submitting session to open, saving State, and sets
	// s.Version.
	AbortSubmit(ctx context.Context, s *Session) error
	// DeleteExpired removes sessions that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
