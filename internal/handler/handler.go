// Package handler serves the print order wizard API used by the web client.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/domain/session"
	"github.com/xenking/print-order/pkg/httpmiddleware"
)

// maxBodySize caps request bodies.
const maxBodySize = 64 << 10

// Sessions is the wizard session service.
type Sessions interface {
	Start(ctx context.Context, owner string) (*session.Session, error)
	Get(ctx context.Context, id, owner string) (*session.Session, error)
	Apply(ctx context.Context, id, owner string, c session.Change) (*session.Session, error)
	Next(ctx context.Context, id, owner string) (*session.Session, error)
	Back(ctx context.Context, id, owner string) (*session.Session, error)
	Submit(ctx context.Context, id, owner string) (*session.Session, error)
}

var _ Sessions = (*session.Service)(nil)

// Handler serves the catalog, wizard session and order history routes.
type Handler struct {
	sessions Sessions
	orders   order.Lister
}

// New creates a Handler.
func New(sessions Sessions, orders order.Lister) *Handler {
	return &Handler{
		sessions: sessions,
		orders:   orders,
	}
}

// Register adds the API routes to mux. Routes acting on behalf of a user are
// wrapped with authn.
func (h *Handler) Register(mux *http.ServeMux, authn httpmiddleware.Middleware) {
	handle := func(pattern string, fn http.HandlerFunc, mws ...httpmiddleware.Middleware) {
		mws = append([]httpmiddleware.Middleware{httpmiddleware.Route(pattern)}, mws...)
		mux.Handle(pattern, httpmiddleware.Wrap(fn, mws...))
	}

	handle("GET /api/catalog", h.GetCatalog)

	handle("POST /api/wizards", h.CreateWizard, authn)
	handle("GET /api/wizards/{id}", h.GetWizard, authn)
	handle("PATCH /api/wizards/{id}", h.UpdateWizard, authn)
	handle("POST /api/wizards/{id}/next", h.NextStep, authn)
	handle("POST /api/wizards/{id}/back", h.PreviousStep, authn)
	handle("POST /api/wizards/{id}/submit", h.SubmitWizard, authn)

	handle("GET /api/orders", h.ListOrders, authn)
}
