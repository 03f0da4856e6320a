package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/domain/session"
	"github.com/xenking/print-order/internal/wizard"
)

// CreateWizard starts a wizard session for the caller.
func (h *Handler) CreateWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Start(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeView(w, http.StatusCreated, sess)
}

// GetWizard returns a wizard session.
func (h *Handler) GetWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"), ownerFrom(r.Context()))
	h.respond(w, r, sess, err)
}

// UpdateWizard applies option selections, quantity and shipping address.
func (h *Handler) UpdateWizard(w http.ResponseWriter, r *http.Request) {
	change, err := decodeChange(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		fail(w, r, err)
		return
	}
	sess, err := h.sessions.Apply(r.Context(), r.PathValue("id"), ownerFrom(r.Context()), change)
	h.respond(w, r, sess, err)
}

// NextStep advances the wizard.
func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Next(r.Context(), r.PathValue("id"), ownerFrom(r.Context()))
	h.respond(w, r, sess, err)
}

// PreviousStep moves the wizard one step back.
func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Back(r.Context(), r.PathValue("id"), ownerFrom(r.Context()))
	h.respond(w, r, sess, err)
}

// SubmitWizard creates the order and returns the view carrying checkoutUrl.
func (h *Handler) SubmitWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Submit(r.Context(), r.PathValue("id"), ownerFrom(r.Context()))
	h.respond(w, r, sess, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	writeView(w, http.StatusOK, sess)
}

func writeView(w http.ResponseWriter, code int, sess *session.Session) {
	writeJSON(w, code, func(e *jx.Encoder) {
		encodeView(e, sess)
	})
}

func encodeView(e *jx.Encoder, sess *session.Session) {
	st := sess.State
	total := st.Total()

	e.ObjStart()
	e.FieldStart("id")
	e.Str(sess.ID)
	e.FieldStart("status")
	e.Str(string(sess.Status))
	e.FieldStart("step")
	e.Int(int(st.Step))
	e.FieldStart("stepLabel")
	e.Str(st.Step.Label())
	e.FieldStart("totalSteps")
	e.Int(wizard.TotalSteps)
	e.FieldStart("canProceed")
	e.Bool(sess.Status == session.StatusOpen && st.CanProceed())
	e.FieldStart("ready")
	e.Bool(st.Ready())
	e.FieldStart("printOptions")
	st.Config.Encode(e)
	e.FieldStart("shippingAddress")
	st.Shipping.Encode(e)
	e.FieldStart("total")
	e.Float64(total.InexactFloat64())
	e.FieldStart("formattedTotal")
	e.Str(order.FormatEUR(total))

	e.FieldStart("summary")
	e.ArrStart()
	for _, row := range st.Summary() {
		e.ObjStart()
		e.FieldStart("label")
		e.Str(row.Label)
		e.FieldStart("value")
		e.Str(row.Value)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("error")
	encodeOptStr(e, st.Error)
	e.FieldStart("checkoutUrl")
	encodeOptStr(e, sess.CheckoutURL)
	e.FieldStart("expiresAt")
	e.Str(sess.ExpiresAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

func encodeOptStr(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

// decodeChange reads a PATCH body. Absent and null fields are left unchanged.
func decodeChange(body io.Reader) (session.Change, error) {
	var c session.Change
	data, err := io.ReadAll(body)
	if err != nil {
		return c, badRequest(err, "read body")
	}
	if len(data) == 0 {
		return c, badRequest(errors.New("empty body"), "decode body")
	}

	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "coverType":
			var v string
			if v, err = d.Str(); err == nil {
				c.Cover = ptr(catalog.Cover(v))
			}
		case "paperType":
			var v string
			if v, err = d.Str(); err == nil {
				c.Paper = ptr(catalog.Paper(v))
			}
		case "finishType":
			var v string
			if v, err = d.Str(); err == nil {
				c.Finish = ptr(catalog.Finish(v))
			}
		case "quantity":
			var v int
			if v, err = d.Int(); err == nil {
				c.Quantity = &v
			}
		case "shippingAddress":
			var a order.ShippingAddress
			if err = a.Decode(d); err == nil {
				c.Shipping = &a
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return c, badRequest(err, "decode body")
	}
	return c, nil
}

func ptr[T any](v T) *T {
	return &v
}
