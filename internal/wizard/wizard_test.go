package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
)

// --- Mock implementations ---

type mockCreator struct {
	calls    atomic.Int32
	lastReq  order.CreateRequest
	checkout *order.Checkout
	err      error
	// started, when set, is closed on the first call; release blocks the call.
	started chan struct{}
	release chan struct{}
}

func (m *mockCreator) CreateOrder(_ context.Context, req order.CreateRequest) (*order.Checkout, error) {
	if m.calls.Add(1) == 1 && m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	m.lastReq = req
	return m.checkout, m.err
}

type userError struct{ msg string }

func (e *userError) Error() string       { return "orders api: " + e.msg }
func (e *userError) UserMessage() string { return e.msg }

// --- Helpers ---

func validAddress() order.ShippingAddress {
	return order.ShippingAddress{
		Name:       "Alice",
		Line1:      "10 rue de la Paix",
		City:       "Paris",
		PostalCode: "75001",
		Country:    catalog.France,
	}
}

// reviewWizard walks a wizard to the review step.
func reviewWizard(t *testing.T) *Wizard {
	t.Helper()

	w := New()
	require.NoError(t, w.SelectCover(catalog.Hardcover))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectPaper(catalog.PremiumSilk))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectFinish(catalog.Glossy))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetShipping(validAddress()))
	require.NoError(t, w.Next())
	require.Equal(t, StepReview, w.Step())
	return w
}

// --- Tests ---

func TestNew(t *testing.T) {
	w := New()
	s := w.State()

	assert.Equal(t, StepCover, s.Step)
	assert.Empty(t, s.Config.CoverType)
	assert.Equal(t, 1, s.Config.Quantity)
	assert.Equal(t, "A5", s.Config.Format)
	assert.Equal(t, catalog.France, s.Shipping.Country)
	assert.False(t, w.CanProceed())
	assert.False(t, w.Submitting())
}

func TestCanProceed_OptionSteps(t *testing.T) {
	tests := []struct {
		step   Step
		fill func(s *State)
	}{
		{step: StepCover, fill: func(s *State) { s.Config.CoverType = catalog.Softcover }},
		{step: StepPaper, fill: func(s *State) { s.Config.PaperType = catalog.StandardMatte }},
		{step: StepFinish, fill: func(s *State) { s.Config.FinishType = catalog.Matte }},
	}

	for _, tt := range tests {
		t.Run(tt.step.Label(), func(t *testing.T) {
			s := NewState()
			s.Step = tt.step
			assert.False(t, s.CanProceed())

			tt.fill(&s)
			assert.True(t, s.CanProceed())
		})
	}
}

func TestCanProceed_Shipping(t *testing.T) {
	s := NewState()
	s.Step = StepShipping
	assert.False(t, s.CanProceed())

	s.Shipping = validAddress()
	s.Shipping.Name = "Al"
	assert.False(t, s.CanProceed(), "two-letter name must not pass")

	s.Shipping.Name = "Alice"
	assert.True(t, s.CanProceed())
}

func TestCanProceed_Review(t *testing.T) {
	s := NewState()
	s.Step = StepReview
	assert.True(t, s.CanProceed())
}

func TestNext_BlockedWhenIncomplete(t *testing.T) {
	w := New()
	require.ErrorIs(t, w.Next(), ErrCannotProceed)
	assert.Equal(t, StepCover, w.Step())
}

func TestNext_AtReview(t *testing.T) {
	w := reviewWizard(t)
	require.ErrorIs(t, w.Next(), ErrInvalidStep)
	assert.Equal(t, StepReview, w.Step())
}

func TestBack(t *testing.T) {
	w := New()
	require.ErrorIs(t, w.Back(), ErrFirstStep)

	w = reviewWizard(t)
	before := w.State()

	for range TotalSteps - 1 {
		require.NoError(t, w.Back())
	}
	assert.Equal(t, StepCover, w.Step())
	assert.Equal(t, before.Config, w.State().Config, "going back must keep selections")
	assert.Equal(t, before.Shipping, w.State().Shipping)

	for range TotalSteps - 1 {
		require.NoError(t, w.Next())
	}
	assert.Equal(t, before, w.State(), "back then forward must be a round trip")
}

func TestSelect_Idempotent(t *testing.T) {
	w := New()
	require.NoError(t, w.SelectCover(catalog.Hardcover))
	first := w.State()
	total := w.Total()

	require.NoError(t, w.SelectCover(catalog.Hardcover))
	assert.Equal(t, first, w.State())
	assert.True(t, total.Equal(w.Total()))
}

func TestSelect_Unknown(t *testing.T) {
	w := New()
	assert.ErrorIs(t, w.SelectCover("spiral"), ErrUnknownOption)
	assert.ErrorIs(t, w.SelectPaper(""), ErrUnknownOption)
	assert.ErrorIs(t, w.SelectFinish("satin"), ErrUnknownOption)

	addr := validAddress()
	addr.Country = "DE"
	assert.ErrorIs(t, w.SetShipping(addr), ErrUnknownOption)

	assert.Equal(t, NewState(), w.State())
}

func TestSetShipping_DefaultsCountry(t *testing.T) {
	w := New()
	addr := validAddress()
	addr.Country = ""
	require.NoError(t, w.SetShipping(addr))
	assert.Equal(t, catalog.France, w.State().Shipping.Country)
}

func TestSetQuantity(t *testing.T) {
	w := New()
	assert.ErrorIs(t, w.SetQuantity(0), ErrInvalidQuantity)
	assert.ErrorIs(t, w.SetQuantity(-3), ErrInvalidQuantity)
	assert.ErrorIs(t, w.SetQuantity(MaxQuantity+1), ErrInvalidQuantity)
	assert.ErrorIs(t, w.SetQuantity(1<<60), ErrInvalidQuantity)
	assert.Equal(t, 1, w.State().Config.Quantity)

	require.NoError(t, w.SetQuantity(4))
	assert.Equal(t, 4, w.State().Config.Quantity)
	require.NoError(t, w.SetQuantity(MaxQuantity))
	assert.Equal(t, MaxQuantity, w.State().Config.Quantity)
}

func TestTotal(t *testing.T) {
	t.Run("hardcover premium silk times two", func(t *testing.T) {
		w := New()
		require.NoError(t, w.SelectCover(catalog.Hardcover))
		require.NoError(t, w.SelectPaper(catalog.PremiumSilk))
		require.NoError(t, w.SetQuantity(2))

		assert.True(t, decimal.NewFromInt(60).Equal(w.Total()))
		assert.Equal(t, "60,00\u00a0€", w.FormattedTotal())
	})

	t.Run("softcover standard matte", func(t *testing.T) {
		w := New()
		require.NoError(t, w.SelectCover(catalog.Softcover))
		require.NoError(t, w.SelectPaper(catalog.StandardMatte))

		assert.True(t, decimal.NewFromInt(15).Equal(w.Total()))
		assert.Equal(t, "15,00\u00a0€", w.FormattedTotal())
	})

	t.Run("finish is free", func(t *testing.T) {
		w := New()
		require.NoError(t, w.SelectCover(catalog.Softcover))
		before := w.Total()
		require.NoError(t, w.SelectFinish(catalog.Glossy))
		assert.True(t, before.Equal(w.Total()))
	})
}

func TestSummary(t *testing.T) {
	s := NewState()
	s.Config.CoverType = catalog.Softcover
	s.Shipping = validAddress()

	rows := s.Summary()
	require.Len(t, rows, 4)
	assert.Equal(t, "Couverture Souple", rows[0].Value)
	assert.Equal(t, catalog.Unset, rows[1].Value)
	assert.Equal(t, "Alice\nParis (FR)", rows[3].Value)
}

func TestRestore(t *testing.T) {
	s := NewState()
	s.Step = StepFinish
	s.Config.CoverType = catalog.Hardcover

	w, err := Restore(s)
	require.NoError(t, err)
	assert.Equal(t, s, w.State())

	s.Step = 6
	_, err = Restore(s)
	require.ErrorIs(t, err, ErrInvalidStep)

	s.Step = StepCover
	s.Config.Quantity = 0
	_, err = Restore(s)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	s.Config.Quantity = MaxQuantity + 1
	_, err = Restore(s)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSubmit_Success(t *testing.T) {
	w := reviewWizard(t)
	require.NoError(t, w.SetQuantity(2))
	creator := &mockCreator{checkout: &order.Checkout{URL: "https://pay.example/abc"}}

	checkout, err := w.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", checkout.URL)

	assert.Equal(t, int32(1), creator.calls.Load())
	assert.Equal(t, int64(6000), creator.lastReq.AmountTotal)
	assert.Equal(t, "eur", creator.lastReq.Currency)
	assert.Equal(t, 2, creator.lastReq.Quantity)
	assert.Equal(t, catalog.Glossy, creator.lastReq.PrintOptions.FinishType)
	assert.Equal(t, validAddress(), creator.lastReq.ShippingAddress)
	assert.False(t, w.Submitting())
	assert.Empty(t, w.Err())
}

func TestSubmit_ServerError(t *testing.T) {
	w := reviewWizard(t)
	creator := &mockCreator{err: &userError{msg: "Erreur interne"}}

	_, err := w.Submit(context.Background(), creator)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "Erreur interne", order.UserMessage(err))

	assert.Equal(t, "Erreur interne", w.Err())
	assert.Equal(t, StepReview, w.Step())
	assert.False(t, w.Submitting(), "submit must be re-enabled after a failure")
	require.NoError(t, w.CheckSubmit())

	// The user may resubmit; the previous error is cleared on success.
	creator.err = nil
	creator.checkout = &order.Checkout{URL: "https://pay.example/retry"}
	checkout, err := w.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/retry", checkout.URL)
	assert.Empty(t, w.Err())
	assert.Equal(t, int32(2), creator.calls.Load())
}

func TestSubmit_GenericError(t *testing.T) {
	w := reviewWizard(t)

	_, err := w.Submit(context.Background(), &mockCreator{err: errors.New("dial tcp: connection refused")})
	require.Error(t, err)
	assert.Equal(t, order.GenericErrorMessage, w.Err())
}

func TestSubmit_MissingCheckoutURL(t *testing.T) {
	w := reviewWizard(t)

	_, err := w.Submit(context.Background(), &mockCreator{checkout: &order.Checkout{OrderID: "ord_1"}})
	require.ErrorIs(t, err, order.ErrMissingCheckoutURL)
	assert.NotEmpty(t, w.Err())
	assert.Equal(t, StepReview, w.Step())
}

func TestSubmit_NotOnReviewStep(t *testing.T) {
	w := reviewWizard(t)
	require.NoError(t, w.Back())
	creator := &mockCreator{}

	_, err := w.Submit(context.Background(), creator)
	require.ErrorIs(t, err, ErrNotReviewStep)
	assert.Zero(t, creator.calls.Load())
}

func TestSubmit_Incomplete(t *testing.T) {
	s := NewState()
	s.Step = StepReview
	s.Config.CoverType = catalog.Hardcover
	w, err := Restore(s)
	require.NoError(t, err)
	creator := &mockCreator{}

	_, err = w.Submit(context.Background(), creator)
	require.ErrorIs(t, err, ErrIncomplete)
	assert.Zero(t, creator.calls.Load())
}

func TestSubmit_DoubleClick(t *testing.T) {
	w := reviewWizard(t)
	creator := &mockCreator{
		checkout: &order.Checkout{URL: "https://pay.example/abc"},
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = w.Submit(context.Background(), creator)
	}()

	select {
	case <-creator.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the orders API")
	}
	assert.True(t, w.Submitting())

	_, err := w.Submit(context.Background(), creator)
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(creator.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, int32(1), creator.calls.Load())
	assert.False(t, w.Submitting())
}

func TestStateJSON(t *testing.T) {
	w := reviewWizard(t)
	_, _ = w.Submit(context.Background(), &mockCreator{err: &userError{msg: "Stock épuisé"}})
	s := w.State()

	data, err := s.MarshalJSON()
	require.NoError(t, err)

	var got State
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, s, got)
}
