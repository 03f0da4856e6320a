package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/print-order/internal/domain/session"
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository backed by PostgreSQL. The
// wizard state is stored as JSONB.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, owner_hash, state, status, total, checkout_url, version, created_at, updated_at, expires_at`

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	state, err := s.State.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO wizard_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.OwnerHash, state, string(s.Status), s.Total, s.CheckoutURL, s.Version,
		s.CreatedAt, s.UpdatedAt, s.ExpiresAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert session %q", s.ID)
	}
	return nil
}

// Get returns the session with the given id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM wizard_sessions WHERE id = $1`, id)

	var (
		s      session.Session
		state  []byte
		status string
	)
	err := row.Scan(&s.ID, &s.OwnerHash, &state, &status, &s.Total, &s.CheckoutURL, &s.Version,
		&s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select session %q", id)
	}
	if err := s.State.UnmarshalJSON(state); err != nil {
		return nil, errors.Wrapf(err, "decode state of session %q", id)
	}
	s.Status = session.Status(status)
	return &s, nil
}

// Update saves the state of an open session.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	state, err := s.State.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	err = r.pool.QueryRow(ctx, `
		UPDATE wizard_sessions
		SET state = $2, total = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND status = 'open'
		RETURNING version`,
		s.ID, state, s.Total, s.UpdatedAt,
	).Scan(&s.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.ErrNotOpen
		}
		return errors.Wrapf(err, "update session %q", s.ID)
	}
	return nil
}

// BeginSubmit moves an open session still at version to submitting. Only one
// caller across all instances observes true for a given session.
func (r *SessionRepository) BeginSubmit(ctx context.Context, id string, version int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE wizard_sessions
		SET status = 'submitting', updated_at = $3
		WHERE id = $1 AND status = 'open' AND version = $2`,
		id, version, at,
	)
	if err != nil {
		return false, errors.Wrapf(err, "begin submit of session %q", id)
	}
	return tag.RowsAffected() == 1, nil
}

// FinishSubmit marks a submitting session submitted.
func (r *SessionRepository) FinishSubmit(ctx context.Context, s *session.Session) error {
	return r.endSubmit(ctx, s, session.StatusSubmitted)
}

// AbortSubmit returns a submitting session to open.
func (r *SessionRepository) AbortSubmit(ctx context.Context, s *session.Session) error {
	return r.endSubmit(ctx, s, session.StatusOpen)
}

func (r *SessionRepository) endSubmit(ctx context.Context, s *session.Session, to session.Status) error {
	state, err := s.State.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	err = r.pool.QueryRow(ctx, `
		UPDATE wizard_sessions
		SET status = $2, state = $3, total = $4, checkout_url = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND status = 'submitting'
		RETURNING version`,
		s.ID, string(to), state, s.Total, s.CheckoutURL, s.UpdatedAt,
	).Scan(&s.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.Errorf("session %q is not submitting", s.ID)
		}
		return errors.Wrapf(err, "set session %q %s", s.ID, to)
	}
	return nil
}

// DeleteExpired removes sessions that expired before the given time.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wizard_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "delete expired sessions")
	}
	return tag.RowsAffected(), nil
}
