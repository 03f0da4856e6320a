package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/ordersapi"
)

type fakeAPI struct {
	reqs      []order.CreateRequest
	createErr error
	orders    []order.Order
}

func (f *fakeAPI) CreateOrder(_ context.Context, req order.CreateRequest) (*order.Checkout, error) {
	f.reqs = append(f.reqs, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &order.Checkout{OrderID: "ord_42", URL: "https://pay.example/ord_42"}, nil
}

func (f *fakeAPI) ListOrders(context.Context) ([]order.Order, error) {
	return f.orders, nil
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// fullOrder walks every step: hardcover, premium silk, glossy, an address in
// Paris and two copies.
var fullOrder = []string{
	"1", "n",
	"2", "n",
	"2", "n",
	"address", "Alice Martin", "10 rue de la Paix", "", "Paris", "75001", "",
	"n",
	"qty 2",
	"pay",
}

func runScript(t *testing.T, api *fakeAPI, in *strings.Reader) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, run(ctx, in, &out, api))
	return out.String()
}

func TestRun_Order(t *testing.T) {
	api := &fakeAPI{}
	out := runScript(t, api, script(fullOrder...))

	require.Len(t, api.reqs, 1)
	req := api.reqs[0]
	assert.Equal(t, int64(6000), req.AmountTotal)
	assert.Equal(t, order.Currency, req.Currency)
	assert.Equal(t, 2, req.Quantity)
	assert.Equal(t, catalog.Hardcover, req.PrintOptions.CoverType)
	assert.Equal(t, catalog.PremiumSilk, req.PrintOptions.PaperType)
	assert.Equal(t, catalog.Glossy, req.PrintOptions.FinishType)
	assert.Equal(t, "Alice Martin", req.ShippingAddress.Name)
	assert.Equal(t, catalog.France, req.ShippingAddress.Country)

	assert.Contains(t, out, "Étape 5/5 · Payer")
	assert.Contains(t, out, "Total: 60,00\u00a0€")
	assert.Contains(t, out, "https://pay.example/ord_42")
}

func TestRun_IncompleteStep(t *testing.T) {
	api := &fakeAPI{}
	out := runScript(t, api, script("n", "b", "9", "pay", "quit"))

	assert.Contains(t, out, "Complétez cette étape pour continuer.")
	assert.Contains(t, out, "Vous êtes à la première étape.")
	assert.Contains(t, out, `Commande inconnue: "9"`)
	assert.Contains(t, out, "Impossible de commander")
	assert.Empty(t, api.reqs)
}

func TestRun_QuantityLimit(t *testing.T) {
	api := &fakeAPI{}
	out := runScript(t, api, script("qty 10001", "qty 1152921504606846976", "quit"))

	assert.Contains(t, out, `Quantité invalide: "10001"`)
	assert.Contains(t, out, `Quantité invalide: "1152921504606846976"`)
	assert.NotContains(t, out, "Quantité: 10001")
	assert.Empty(t, api.reqs)
}

func TestRun_SubmitFailure(t *testing.T) {
	api := &fakeAPI{
		createErr: &ordersapi.APIError{StatusCode: 400, Message: "Adresse invalide"},
	}
	out := runScript(t, api, script(fullOrder...))

	require.Len(t, api.reqs, 1)
	assert.Contains(t, out, "Erreur: Adresse invalide")
	assert.NotContains(t, out, "Finalisez le paiement")
}

func TestRun_UnsupportedCountry(t *testing.T) {
	api := &fakeAPI{}
	out := runScript(t, api, script(
		"1", "n", "1", "n", "1", "n",
		"address", "Alice Martin", "10 rue de la Paix", "", "Paris", "75001", "de",
		"n",
	))

	assert.Contains(t, out, "Pays non desservi: DE")
	assert.Contains(t, out, "Complétez cette étape pour continuer.")
	assert.NotContains(t, out, "Étape 5/5")
}

func TestRun_Orders(t *testing.T) {
	api := &fakeAPI{orders: []order.Order{{
		ID:          "ord_1",
		AmountTotal: 3000,
		Status:      order.StatusShipped,
		Quantity:    1,
		TrackingURL: "https://track.example/1",
	}}}
	out := runScript(t, api, script("orders"))

	assert.Contains(t, out, "ord_1")
	assert.Contains(t, out, order.StatusShipped.Label())
	assert.Contains(t, out, "30,00\u00a0€")
	assert.Contains(t, out, "https://track.example/1")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Input that never ends.
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	var out bytes.Buffer
	err := run(ctx, in, &out, &fakeAPI{})
	require.ErrorIs(t, err, context.Canceled)
}
