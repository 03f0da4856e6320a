// Package ordersapi is a client for the external orders API that owns print
// orders and their checkout sessions.
package ordersapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/print-order/internal/domain/auth"
	"github.com/xenking/print-order/internal/domain/order"
)

// maxErrorBody caps how much of a failed response body is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the orders API.
type APIError struct {
	StatusCode int
	// Message is the server-supplied message, empty when the body carried none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orders api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("orders api: status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the server-supplied message.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client calls the orders API with the credential of the current caller.
type Client struct {
	base  string
	http  *http.Client
	creds auth.Source
}

var (
	_ order.Creator = (*Client)(nil)
	_ order.Lister  = (*Client)(nil)
)

// New creates a Client.
func New(opts Options, creds auth.Source) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("orders api base url is required")
	}
	if creds == nil {
		return nil, errors.New("credential source is required")
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}
	return &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base, otelOpts...),
		},
		creds: creds,
	}, nil
}

// CreateOrder posts req to /orders and returns the checkout to redirect to.
func (c *Client) CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Checkout, error) {
	var e jx.Encoder
	req.Encode(&e)

	resp, err := c.do(ctx, http.MethodPost, "/orders", e.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	var checkout order.Checkout
	if err := decodeCheckout(jx.Decode(resp.Body, 512), &checkout); err != nil {
		// An empty or unreadable success body carries no checkout URL.
		zctx.From(ctx).Warn("Decode order creation response",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return nil, order.ErrMissingCheckoutURL
	}
	if checkout.URL == "" {
		return nil, order.ErrMissingCheckoutURL
	}

	zctx.From(ctx).Info("Order created",
		zap.String("order_id", checkout.OrderID),
		zap.Int64("amount_total", req.AmountTotal),
	)
	return &checkout, nil
}

// ListOrders returns the caller's orders from GET /orders.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	resp, err := c.do(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	orders := make([]order.Order, 0)
	d := jx.Decode(resp.Body, 4096)
	if err := d.Arr(func(d *jx.Decoder) error {
		var o order.Order
		if err := o.Decode(d); err != nil {
			return err
		}
		orders = append(orders, o)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	cred, err := c.creds.Credential(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "credential")
	}

	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return resp, nil
}

func decodeCheckout(d *jx.Decoder, c *order.Checkout) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "checkoutUrl":
			c.URL, err = optString(d)
		case "orderId", "id":
			var v string
			if v, err = optString(d); err == nil && c.OrderID == "" {
				c.OrderID = v
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// readAPIError builds an APIError from a failed response. A body that cannot
// be parsed yields an empty Message.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	msg, err := errorMessage(jx.DecodeBytes(data))
	if err != nil {
		return apiErr
	}
	apiErr.Message = msg
	return apiErr
}

// errorMessage extracts "message" from an error body. The field may be a
// string or an array of strings, of which the first is used.
func errorMessage(d *jx.Decoder) (string, error) {
	var msg string
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "message" {
			return d.Skip()
		}
		switch d.Next() {
		case jx.String:
			v, err := d.Str()
			if err != nil {
				return err
			}
			msg = v
			return nil
		case jx.Array:
			return d.Arr(func(d *jx.Decoder) error {
				if d.Next() != jx.String {
					return d.Skip()
				}
				v, err := d.Str()
				if err != nil {
					return err
				}
				if msg == "" {
					msg = v
				}
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(msg), nil
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
