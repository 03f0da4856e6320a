package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/wizard"
)

const instrumentationName = "github.com/xenking/print-order/internal/domain/session"

// DefaultTTL is the session lifetime used when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Config configures a Service.
type Config struct {
	TTL time.Duration
}

// Change is a partial update of a wizard. Nil fields are left untouched.
type Change struct {
	Cover    *catalog.Cover
	Paper    *catalog.Paper
	Finish   *catalog.Finish
	Quantity *int
	Shipping *order.ShippingAddress
}

// Service runs wizards stored in a Repository.
type Service struct {
	repo   Repository
	orders order.Creator
	ttl    time.Duration
	now    func() time.Time

	submits singleflight.Group

	tracer    trace.Tracer
	started   metric.Int64Counter
	submitted metric.Int64Counter
}

// NewService creates a Service.
func NewService(
	repo Repository,
	orders order.Creator,
	cfg Config,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	meter := mp.Meter(instrumentationName)

	started, err := meter.Int64Counter("print_order.sessions.started",
		metric.WithDescription("Wizard sessions created"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "sessions counter")
	}
	submitted, err := meter.Int64Counter("print_order.orders.submitted",
		metric.WithDescription("Order submissions to the orders API by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "submissions counter")
	}

	return &Service{
		repo:      repo,
		orders:    orders,
		ttl:       cfg.TTL,
		now:       time.Now,
		tracer:    tp.Tracer(instrumentationName),
		started:   started,
		submitted: submitted,
	}, nil
}

// Start creates a session for owner with a fresh wizard.
func (s *Service) Start(ctx context.Context, owner string) (*Session, error) {
	now := s.now().UTC()
	state := wizard.NewState()
	sess := &Session{
		ID:        uuid.New().String(),
		OwnerHash: owner,
		State:     state,
		Status:    StatusOpen,
		Total:     state.Total(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	s.started.Add(ctx, 1)
	return sess, nil
}

// Get returns the session id owned by owner. Sessions of other owners are
// reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id, owner string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get session")
	}
	if sess.OwnerHash != owner {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		return nil, ErrExpired
	}
	return sess, nil
}

// Apply applies c to the wizard of session id.
func (s *Service) Apply(ctx context.Context, id, owner string, c Change) (*Session, error) {
	return s.mutate(ctx, id, owner, func(w *wizard.Wizard) error {
		if c.Cover != nil {
			if err := w.SelectCover(*c.Cover); err != nil {
				return err
			}
		}
		if c.Paper != nil {
			if err := w.SelectPaper(*c.Paper); err != nil {
				return err
			}
		}
		if c.Finish != nil {
			if err := w.SelectFinish(*c.Finish); err != nil {
				return err
			}
		}
		if c.Quantity != nil {
			if err := w.SetQuantity(*c.Quantity); err != nil {
				return err
			}
		}
		if c.Shipping != nil {
			if err := w.SetShipping(*c.Shipping); err != nil {
				return err
			}
		}
		return nil
	})
}

// Next advances the wizard of session id.
func (s *Service) Next(ctx context.Context, id, owner string) (*Session, error) {
	return s.mutate(ctx, id, owner, (*wizard.Wizard).Next)
}

// Back moves the wizard of session id one step back.
func (s *Service) Back(ctx context.Context, id, owner string) (*Session, error) {
	return s.mutate(ctx, id, owner, (*wizard.Wizard).Back)
}

func (s *Service) mutate(ctx context.Context, id, owner string, fn func(w *wizard.Wizard) error) (*Session, error) {
	sess, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(sess); err != nil {
		return nil, err
	}
	w, err := wizard.Restore(sess.State)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}

	sess.State = w.State()
	sess.Total = sess.State.Total()
	sess.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, sess); err != nil {
		if errors.Is(err, ErrNotOpen) {
			return nil, wizard.ErrSubmitInFlight
		}
		return nil, errors.Wrap(err, "update session")
	}
	return sess, nil
}

func checkOpen(sess *Session) error {
	switch sess.Status {
	case StatusSubmitted:
		return ErrAlreadySubmitted
	case StatusSubmitting:
		return wizard.ErrSubmitInFlight
	default:
		return nil
	}
}

// Submit sends the order of session id to the orders API and returns the
// session carrying the checkout URL. A session already submitted returns its
// stored checkout URL without a new call.
//
// Concurrent submissions of one session share a single upstream call; a
// submission in flight elsewhere yields wizard.ErrSubmitInFlight. The
// upstream call is not cancelled when ctx is.
func (s *Service) Submit(ctx context.Context, id, owner string) (*Session, error) {
	v, err, shared := s.submits.Do(owner+"/"+id, func() (any, error) {
		return s.submit(context.WithoutCancel(ctx), id, owner)
	})
	if shared {
		zctx.From(ctx).Debug("Shared in-flight submission", zap.String("session_id", id))
	}
	if err != nil {
		return nil, err
	}
	sess := *v.(*Session)
	return &sess, nil
}

func (s *Service) submit(ctx context.Context, id, owner string) (_ *Session, rerr error) {
	ctx, span := s.tracer.Start(ctx, "session.Submit",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()
	lg := zctx.From(ctx).With(zap.String("session_id", id))

	sess, w, err := s.lock(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusSubmitted {
		lg.Info("Replaying checkout of submitted session")
		return sess, nil
	}

	checkout, submitErr := w.Submit(ctx, s.orders)

	sess.State = w.State()
	sess.Total = sess.State.Total()
	sess.UpdatedAt = s.now().UTC()

	if submitErr != nil {
		s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		lg.Warn("Order submission failed", zap.Error(submitErr))

		sess.Status = StatusOpen
		s.reopen(ctx, sess)
		return nil, submitErr
	}

	s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	sess.Status = StatusSubmitted
	sess.CheckoutURL = checkout.URL
	if err := s.repo.FinishSubmit(ctx, sess); err != nil {
		// The order exists upstream; hand out the URL even if it was not stored.
		lg.Error("Store checkout url", zap.Error(err))
	}
	lg.Info("Order submitted", zap.String("order_id", checkout.OrderID))
	return sess, nil
}

// lockAttempts bounds how often lock re-reads a session edited between its
// read and the status change.
const lockAttempts = 3

// lock moves the session to submitting and returns it with the wizard the
// order is built from. The wizard reflects every edit saved before the lock.
// A session already submitted is returned as is with a nil wizard.
func (s *Service) lock(ctx context.Context, id, owner string) (*Session, *wizard.Wizard, error) {
	for range lockAttempts {
		sess, err := s.Get(ctx, id, owner)
		if err != nil {
			return nil, nil, err
		}
		switch sess.Status {
		case StatusSubmitted:
			return sess, nil, nil
		case StatusSubmitting:
			return nil, nil, wizard.ErrSubmitInFlight
		}

		w, err := wizard.Restore(sess.State)
		if err != nil {
			return nil, nil, err
		}
		if err := w.CheckSubmit(); err != nil {
			return nil, nil, err
		}

		ok, err := s.repo.BeginSubmit(ctx, id, sess.Version, s.now().UTC())
		if err != nil {
			return nil, nil, errors.Wrap(err, "begin submit")
		}
		if ok {
			sess.Status = StatusSubmitting
			return sess, w, nil
		}
	}
	return nil, nil, wizard.ErrSubmitInFlight
}

// reopenBackoff is the pause before the second attempt to reopen a session
// after a failed submission.
const reopenBackoff = 100 * time.Millisecond

// reopen returns a session whose submission failed to open, retrying once.
// A session that cannot be reopened stays locked until it expires.
func (s *Service) reopen(ctx context.Context, sess *Session) {
	lg := zctx.From(ctx).With(zap.String("session_id", sess.ID))

	err := s.repo.AbortSubmit(ctx, sess)
	if err == nil {
		return
	}
	lg.Warn("Reopen session after failed submission, retrying", zap.Error(err))

	select {
	case <-ctx.Done():
		return
	case <-time.After(reopenBackoff):
	}
	if err := s.repo.AbortSubmit(ctx, sess); err != nil {
		lg.Error("Reopen session after failed submission", zap.Error(err))
	}
}

// Purge deletes sessions that expired before now.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "delete expired sessions")
	}
	return n, nil
}
