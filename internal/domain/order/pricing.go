package order

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/print-order/internal/domain/catalog"
)

// Currency is the ISO 4217 code (lowercase, as the payment provider expects)
// all print orders are charged in.
const Currency = "eur"

var hundred = decimal.NewFromInt(100)

// ErrAmountOutOfRange is returned for amounts with no int64 minor-unit value.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Total returns the price of cfg: the cover and paper add-ons multiplied by
// the quantity. Finish and format do not affect the price.
func Total(cfg Configuration) decimal.Decimal {
	unit := catalog.PriceOf(catalog.Covers(), cfg.CoverType).
		Add(catalog.PriceOf(catalog.Papers(), cfg.PaperType))
	return unit.Mul(decimal.NewFromInt(int64(cfg.Quantity)))
}

// MinorUnits converts a major-unit amount to minor units (cents), rounding
// half away from zero.
func MinorUnits(d decimal.Decimal) (int64, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, errors.Wrapf(ErrAmountOutOfRange, "%s", d)
	}
	return cents.IntPart(), nil
}

// FormatEUR formats d the way fr-FR renders euro amounts: two decimals, a
// decimal comma, narrow no-break spaces between thousands and a no-break space
// before the euro sign ("1\u202f234,50\u00a0€").
func FormatEUR(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune('\u202f')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString("\u00a0€")
	return b.String()
}
