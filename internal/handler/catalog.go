package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/wizard"
)

// GetCatalog returns the print options with prices, the shipping countries
// and the wizard step labels.
func (h *Handler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("covers")
		encodeOptions(e, catalog.Covers())
		e.FieldStart("papers")
		encodeOptions(e, catalog.Papers())
		e.FieldStart("finishes")
		encodeOptions(e, catalog.Finishes())

		e.FieldStart("countries")
		e.ArrStart()
		for _, c := range catalog.Countries() {
			e.ObjStart()
			e.FieldStart("code")
			e.Str(string(c.Code))
			e.FieldStart("name")
			e.Str(c.Name)
			e.ObjEnd()
		}
		e.ArrEnd()

		e.FieldStart("steps")
		e.ArrStart()
		for step := wizard.StepCover; step <= wizard.StepReview; step++ {
			e.ObjStart()
			e.FieldStart("step")
			e.Int(int(step))
			e.FieldStart("label")
			e.Str(step.Label())
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// encodeOptions writes options; price is present only for priced options.
func encodeOptions[T ~string](e *jx.Encoder, opts []catalog.Option[T]) {
	e.ArrStart()
	for _, o := range opts {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(string(o.ID))
		e.FieldStart("name")
		e.Str(o.Name)
		e.FieldStart("description")
		e.Str(o.Description)
		if o.Priced {
			e.FieldStart("price")
			e.Float64(o.Price.InexactFloat64())
		}
		e.ObjEnd()
	}
	e.ArrEnd()
}
