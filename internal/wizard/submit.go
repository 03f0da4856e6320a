package wizard

import (
	"context"

	"github.com/xenking/print-order/internal/domain/order"
)

// SubmitError is returned by Submit when the orders API call failed or
// returned no checkout URL.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return "create order: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// CheckSubmit reports why the wizard cannot be submitted right now, or nil.
func (w *Wizard) CheckSubmit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checkSubmitLocked()
}

func (w *Wizard) checkSubmitLocked() error {
	switch {
	case w.submitting:
		return ErrSubmitInFlight
	case w.state.Step != StepReview:
		return ErrNotReviewStep
	case !w.state.Ready():
		return ErrIncomplete
	default:
		return nil
	}
}

// Submit creates the order through orders and returns the checkout to
// redirect to. Only one submission may be in flight; a concurrent call fails
// with ErrSubmitInFlight without reaching orders.
//
// On failure the wizard stays on the review step and Err reports a message
// suitable for display. Submissions are never retried automatically.
func (w *Wizard) Submit(ctx context.Context, orders order.Creator) (*order.Checkout, error) {
	w.mu.Lock()
	if err := w.checkSubmitLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	req, err := order.NewCreateRequest(w.state.Config, w.state.Shipping)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	w.state.Error = ""
	w.mu.Unlock()

	checkout, err := orders.CreateOrder(ctx, req)
	if err == nil && (checkout == nil || checkout.URL == "") {
		err = order.ErrMissingCheckoutURL
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.state.Error = order.UserMessage(err)
		return nil, &SubmitError{Err: err}
	}
	return checkout, nil
}
