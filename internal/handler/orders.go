package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/print-order/internal/domain/order"
)

// ListOrders returns the caller's order history from the orders API, with
// formatted totals and status labels.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		fail(w, r, &upstreamError{err: err})
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			encodeOrder(e, o)
		}
		e.ArrEnd()
	})
}

// upstreamError is a failed call to the orders API outside of submission.
type upstreamError struct {
	err error
}

func (e *upstreamError) Error() string { return "orders api: " + e.err.Error() }
func (e *upstreamError) Unwrap() error { return e.err }

func encodeOrder(e *jx.Encoder, o order.Order) {
	total := o.Total()

	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("statusLabel")
	e.Str(o.Status.Label())
	e.FieldStart("amountTotal")
	e.Int64(o.AmountTotal)
	e.FieldStart("currency")
	e.Str(o.Currency)
	e.FieldStart("formattedTotal")
	e.Str(order.FormatEUR(total))
	e.FieldStart("quantity")
	e.Int(o.Quantity)
	e.FieldStart("printOptions")
	o.PrintOptions.Encode(e)
	if o.ShippingAddress != nil {
		e.FieldStart("shippingAddress")
		o.ShippingAddress.Encode(e)
	}
	e.FieldStart("trackingNumber")
	encodeOptStr(e, o.TrackingNumber)
	e.FieldStart("trackingUrl")
	encodeOptStr(e, o.TrackingURL)
	if !o.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
}
