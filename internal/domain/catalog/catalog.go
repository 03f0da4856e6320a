// Package catalog holds the static print option catalog: cover, paper and
// finish choices with their add-on prices, and the shipping countries.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Cover identifies a cover type.
type Cover string

// Paper identifies a paper type.
type Paper string

// Finish identifies a cover finish.
type Finish string

// Country is an ISO 3166-1 alpha-2 shipping country code.
type Country string

const (
	Hardcover Cover = "hardcover"
	Softcover Cover = "softcover"

	StandardMatte Paper = "standard_matte"
	PremiumSilk   Paper = "premium_silk"

	Matte  Finish = "matte"
	Glossy Finish = "glossy"

	France      Country = "FR"
	Belgium     Country = "BE"
	Switzerland Country = "CH"
	Canada      Country = "CA"
)

// Unset is the display name used for a choice that has not been made yet.
const Unset = "Non défini"

// Option is a selectable catalog entry. Priced is false for options that never
// contribute to the order price (finishes).
type Option[T ~string] struct {
	ID          T
	Name        string
	Description string
	Price       decimal.Decimal
	Priced      bool
}

// CountryOption is a selectable shipping country.
type CountryOption struct {
	Code Country
	Name string
}

var (
	covers = []Option[Cover]{
		{ID: Hardcover, Name: "Couverture Rigide", Description: "Robuste et élégant.", Price: decimal.NewFromInt(25), Priced: true},
		{ID: Softcover, Name: "Couverture Souple", Description: "Léger et flexible.", Price: decimal.NewFromInt(15), Priced: true},
	}
	papers = []Option[Paper]{
		{ID: StandardMatte, Name: "Standard Mat", Description: "Rendu naturel.", Price: decimal.Zero, Priced: true},
		{ID: PremiumSilk, Name: "Premium Silk", Description: "Toucher soyeux.", Price: decimal.NewFromInt(5), Priced: true},
	}
	finishes = []Option[Finish]{
		{ID: Matte, Name: "Lamination Mate", Description: "Moderne."},
		{ID: Glossy, Name: "Lamination Brillante", Description: "Éclatant."},
	}
	countries = []CountryOption{
		{Code: France, Name: "France"},
		{Code: Belgium, Name: "Belgique"},
		{Code: Switzerland, Name: "Suisse"},
		{Code: Canada, Name: "Canada"},
	}
)

// Covers returns the cover catalog in display order.
func Covers() []Option[Cover] { return clone(covers) }

// Papers returns the paper catalog in display order.
func Papers() []Option[Paper] { return clone(papers) }

// Finishes returns the finish catalog in display order.
func Finishes() []Option[Finish] { return clone(finishes) }

// Countries returns the supported shipping countries.
func Countries() []CountryOption { return clone(countries) }

// Lookup finds the option with the given id.
func Lookup[T ~string](opts []Option[T], id T) (Option[T], bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option[T]{}, false
}

// PriceOf returns the add-on price of id, or zero when id is unknown, unset,
// or carries no price.
func PriceOf[T ~string](opts []Option[T], id T) decimal.Decimal {
	o, ok := Lookup(opts, id)
	if !ok || !o.Priced {
		return decimal.Zero
	}
	return o.Price
}

// NameOf returns the display name of id, or Unset.
func NameOf[T ~string](opts []Option[T], id T) string {
	if o, ok := Lookup(opts, id); ok {
		return o.Name
	}
	return Unset
}

func (c Cover) Valid() bool {
	_, ok := Lookup(covers, c)
	return ok
}

func (p Paper) Valid() bool {
	_, ok := Lookup(papers, p)
	return ok
}

func (f Finish) Valid() bool {
	_, ok := Lookup(finishes, f)
	return ok
}

// Valid reports whether c is a supported shipping country.
func (c Country) Valid() bool {
	for _, o := range countries {
		if o.Code == c {
			return true
		}
	}
	return false
}

// Name returns the country display name, or the raw code when unsupported.
func (c Country) Name() string {
	for _, o := range countries {
		if o.Code == c {
			return o.Name
		}
	}
	return string(c)
}

func clone[S ~[]E, E any](s S) S {
	out := make(S, len(s))
	copy(out, s)
	return out
}
