package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/print-order/internal/domain/auth"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/domain/session"
	"github.com/xenking/print-order/internal/wizard"
)

// badRequestError is a malformed request body or parameter.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error, msg string) error {
	return &badRequestError{err: errors.Wrap(err, msg)}
}

// errorStatus maps err to an HTTP status and the message returned to the
// client.
func errorStatus(err error) (int, string) {
	var (
		badReq    *badRequestError
		submitErr *wizard.SubmitError
		upstream  *upstreamError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest, badReq.Error()
	case errors.Is(err, auth.ErrNoCredential):
		return http.StatusUnauthorized, "missing bearer token"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "wizard not found"
	case errors.Is(err, session.ErrExpired):
		return http.StatusGone, "wizard expired"
	case errors.Is(err, session.ErrAlreadySubmitted),
		errors.Is(err, wizard.ErrSubmitInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, wizard.ErrCannotProceed),
		errors.Is(err, wizard.ErrFirstStep),
		errors.Is(err, wizard.ErrInvalidStep),
		errors.Is(err, wizard.ErrInvalidQuantity),
		errors.Is(err, wizard.ErrUnknownOption),
		errors.Is(err, wizard.ErrNotReviewStep),
		errors.Is(err, wizard.ErrIncomplete),
		errors.Is(err, order.ErrAmountOutOfRange):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &submitErr), errors.As(err, &upstream):
		return http.StatusBadGateway, order.UserMessage(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail writes the error response for err, logging server-side failures.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := errorStatus(err)
	if code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(code)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
