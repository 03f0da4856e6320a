package order

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xenking/print-order/internal/domain/catalog"
)

// DefaultFormat is the only book format offered today.
const DefaultFormat = "A5"

// Configuration holds the print options accumulated by the order wizard.
// Zero-valued option fields mean the choice has not been made yet.
type Configuration struct {
	CoverType  catalog.Cover
	PaperType  catalog.Paper
	FinishType catalog.Finish
	Quantity   int
	Format     string
}

// NewConfiguration returns an empty configuration with default quantity and format.
func NewConfiguration() Configuration {
	return Configuration{
		Quantity: 1,
		Format:   DefaultFormat,
	}
}

// ShippingAddress is the delivery address of a print order.
type ShippingAddress struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    catalog.Country
}

// NewShippingAddress returns an empty address shipping to France.
func NewShippingAddress() ShippingAddress {
	return ShippingAddress{Country: catalog.France}
}

// Complete reports whether the address passes the minimum length rules
// required before an order can be reviewed.
func (a ShippingAddress) Complete() bool {
	return utf8.RuneCountInString(a.Name) > 2 &&
		utf8.RuneCountInString(a.Line1) > 5 &&
		utf8.RuneCountInString(a.City) > 2 &&
		utf8.RuneCountInString(a.PostalCode) > 4
}

// Order is a print order as owned by the orders API.
type Order struct {
	ID              string
	AmountTotal     int64
	Currency        string
	Status          Status
	Quantity        int
	PrintOptions    Configuration
	ShippingAddress *ShippingAddress
	TrackingNumber  string
	TrackingURL     string
	CreatedAt       time.Time
}

// Total returns the order amount in major currency units.
func (o Order) Total() decimal.Decimal {
	return decimal.New(o.AmountTotal, -2)
}

// CreateRequest is the payload sent to the orders API to create an order.
type CreateRequest struct {
	AmountTotal     int64
	Currency        string
	Quantity        int
	PrintOptions    Configuration
	ShippingAddress ShippingAddress
}

// NewCreateRequest derives the creation payload from a configuration and address.
func NewCreateRequest(cfg Configuration, addr ShippingAddress) (CreateRequest, error) {
	amount, err := MinorUnits(Total(cfg))
	if err != nil {
		return CreateRequest{}, err
	}
	return CreateRequest{
		AmountTotal:     amount,
		Currency:        Currency,
		Quantity:        cfg.Quantity,
		PrintOptions:    cfg,
		ShippingAddress: addr,
	}, nil
}

// Checkout is the orders API answer to a successful creation.
type Checkout struct {
	OrderID string
	URL     string
}

// Creator creates orders on behalf of the current credential holder.
type Creator interface {
	CreateOrder(ctx context.Context, req CreateRequest) (*Checkout, error)
}

// Lister lists orders of the current credential holder.
type Lister interface {
	ListOrders(ctx context.Context) ([]Order, error)
}
