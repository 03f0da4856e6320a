// Package wizard implements the five-step print order configuration flow:
// cover, paper, finish, shipping address, then review and payment.
//
// A Wizard accumulates the order configuration across steps, derives its
// price, gates forward navigation on per-step completeness and performs the
// single terminal submission to the orders API. It is safe for concurrent use;
// at most one submission can be in flight at a time.
package wizard

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
)

// Step is a wizard step, numbered from 1.
type Step int

const (
	StepCover Step = iota + 1
	StepPaper
	StepFinish
	StepShipping
	StepReview
)

// TotalSteps is the number of steps in the flow.
const TotalSteps = int(StepReview)

var stepLabels = [...]string{
	StepCover:    "Couverture",
	StepPaper:    "Papier",
	StepFinish:   "Finition",
	StepShipping: "Livraison",
	StepReview:   "Payer",
}

// Valid reports whether s is within 1..TotalSteps.
func (s Step) Valid() bool {
	return s >= StepCover && s <= StepReview
}

// Label returns the progress bar label of s.
func (s Step) Label() string {
	if !s.Valid() {
		return ""
	}
	return stepLabels[s]
}

var (
	ErrCannotProceed   = errors.New("current step is incomplete")
	ErrFirstStep       = errors.New("already at the first step")
	ErrInvalidStep     = errors.New("invalid step")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10000")
	ErrUnknownOption   = errors.New("unknown option")
	ErrNotReviewStep   = errors.New("orders can only be submitted from the review step")
	ErrIncomplete      = errors.New("order configuration is incomplete")
	ErrSubmitInFlight  = errors.New("order submission already in progress")
)

// State is the serialisable state of a wizard.
type State struct {
	Step     Step
	Config   order.Configuration
	Shipping order.ShippingAddress
	// Error is the message of the last failed submission, cleared when a new
	// submission starts.
	Error string
}

// NewState returns the initial state: first step, nothing selected.
func NewState() State {
	return State{
		Step:     StepCover,
		Config:   order.NewConfiguration(),
		Shipping: order.NewShippingAddress(),
	}
}

// CanProceed reports whether the current step is complete.
func (s State) CanProceed() bool {
	return s.stepComplete(s.Step)
}

func (s State) stepComplete(step Step) bool {
	switch step {
	case StepCover:
		return s.Config.CoverType != ""
	case StepPaper:
		return s.Config.PaperType != ""
	case StepFinish:
		return s.Config.FinishType != ""
	case StepShipping:
		return s.Shipping.Complete()
	case StepReview:
		return true
	default:
		return false
	}
}

// Ready reports whether every step before the review step is complete.
func (s State) Ready() bool {
	for step := StepCover; step < StepReview; step++ {
		if !s.stepComplete(step) {
			return false
		}
	}
	return true
}

// Total returns the derived price of the configuration.
func (s State) Total() decimal.Decimal {
	return order.Total(s.Config)
}

// Validate checks the invariants a restored state must hold.
func (s State) Validate() error {
	if !s.Step.Valid() {
		return errors.Wrapf(ErrInvalidStep, "step %d", s.Step)
	}
	if s.Config.Quantity < 1 || s.Config.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// SummaryRow is one line of the review step recap.
type SummaryRow struct {
	Label string
	Value string
}

// Summary returns the review recap: chosen cover and paper names and the
// shipping destination.
func (s State) Summary() []SummaryRow {
	return []SummaryRow{
		{Label: "Couverture", Value: catalog.NameOf(catalog.Covers(), s.Config.CoverType)},
		{Label: "Papier", Value: catalog.NameOf(catalog.Papers(), s.Config.PaperType)},
		{Label: "Finition", Value: catalog.NameOf(catalog.Finishes(), s.Config.FinishType)},
		{Label: "Livraison", Value: s.Shipping.Name + "\n" + s.Shipping.City + " (" + string(s.Shipping.Country) + ")"},
	}
}

// Wizard is a print order configuration flow.
type Wizard struct {
	mu         sync.Mutex
	state      State
	submitting bool
}

// New returns a wizard at the first step with nothing selected.
func New() *Wizard {
	return &Wizard{state: NewState()}
}

// Restore returns a wizard continuing from s.
func Restore(s State) (*Wizard, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "restore wizard")
	}
	return &Wizard{state: s}, nil
}

// State returns a snapshot of the wizard state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step
}

// CanProceed reports whether the current step is complete.
func (w *Wizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.CanProceed()
}

// Total returns the derived price of the current configuration.
func (w *Wizard) Total() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Total()
}

// FormattedTotal returns Total formatted for display.
func (w *Wizard) FormattedTotal() string {
	return order.FormatEUR(w.Total())
}

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Err returns the message of the last failed submission.
func (w *Wizard) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Error
}

// Next advances to the following step when the current one is complete.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step == StepReview {
		return errors.Wrap(ErrInvalidStep, "already at the review step")
	}
	if !w.state.CanProceed() {
		return ErrCannotProceed
	}
	w.state.Step++
	return nil
}

// Back returns to the previous step. Selections are kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step <= StepCover {
		return ErrFirstStep
	}
	w.state.Step--
	return nil
}

// SelectCover chooses the cover type.
func (w *Wizard) SelectCover(c catalog.Cover) error {
	if !c.Valid() {
		return errors.Wrapf(ErrUnknownOption, "cover %q", c)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Config.CoverType = c
	return nil
}

// SelectPaper chooses the paper type.
func (w *Wizard) SelectPaper(p catalog.Paper) error {
	if !p.Valid() {
		return errors.Wrapf(ErrUnknownOption, "paper %q", p)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Config.PaperType = p
	return nil
}

// SelectFinish chooses the cover finish.
func (w *Wizard) SelectFinish(f catalog.Finish) error {
	if !f.Valid() {
		return errors.Wrapf(ErrUnknownOption, "finish %q", f)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Config.FinishType = f
	return nil
}

// MaxQuantity is the largest number of copies in one order.
const MaxQuantity = 10_000

// SetQuantity sets the number of copies, from 1 to MaxQuantity.
func (w *Wizard) SetQuantity(n int) error {
	if n < 1 || n > MaxQuantity {
		return ErrInvalidQuantity
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Config.Quantity = n
	return nil
}

// SetShipping replaces the shipping address. An empty country defaults to France.
func (w *Wizard) SetShipping(a order.ShippingAddress) error {
	if a.Country == "" {
		a.Country = catalog.France
	}
	if !a.Country.Valid() {
		return errors.Wrapf(ErrUnknownOption, "country %q", a.Country)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Shipping = a
	return nil
}
