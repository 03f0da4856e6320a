package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/print-order/internal/domain/catalog"
)

// Encode writes the configuration as the orders API printOptions object.
// Unset choices are encoded as null.
func (c Configuration) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("coverType")
	encodeOptString(e, string(c.CoverType))
	e.FieldStart("paperType")
	encodeOptString(e, string(c.PaperType))
	e.FieldStart("finishType")
	encodeOptString(e, string(c.FinishType))
	e.FieldStart("quantity")
	e.Int(c.Quantity)
	e.FieldStart("format")
	e.Str(c.Format)
	e.ObjEnd()
}

// Decode reads a printOptions object. Missing fields keep their current value.
func (c *Configuration) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "coverType":
			var v string
			v, err = decodeOptString(d)
			c.CoverType = catalog.Cover(v)
		case "paperType":
			var v string
			v, err = decodeOptString(d)
			c.PaperType = catalog.Paper(v)
		case "finishType":
			var v string
			v, err = decodeOptString(d)
			c.FinishType = catalog.Finish(v)
		case "quantity":
			c.Quantity, err = d.Int()
		case "format":
			c.Format, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// Encode writes the address as the orders API shippingAddress object.
func (a ShippingAddress) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(a.Name)
	e.FieldStart("line1")
	e.Str(a.Line1)
	e.FieldStart("line2")
	e.Str(a.Line2)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("postalCode")
	e.Str(a.PostalCode)
	e.FieldStart("country")
	e.Str(string(a.Country))
	e.ObjEnd()
}

// Decode reads a shippingAddress object. Missing fields keep their current value.
func (a *ShippingAddress) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			a.Name, err = decodeOptString(d)
		case "line1":
			a.Line1, err = decodeOptString(d)
		case "line2":
			a.Line2, err = decodeOptString(d)
		case "city":
			a.City, err = decodeOptString(d)
		case "postalCode":
			a.PostalCode, err = decodeOptString(d)
		case "country":
			var v string
			v, err = decodeOptString(d)
			a.Country = catalog.Country(v)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// Encode writes the order creation body.
func (r CreateRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("amountTotal")
	e.Int64(r.AmountTotal)
	e.FieldStart("currency")
	e.Str(r.Currency)
	e.FieldStart("quantity")
	e.Int(r.Quantity)
	e.FieldStart("printOptions")
	r.PrintOptions.Encode(e)
	e.FieldStart("shippingAddress")
	r.ShippingAddress.Encode(e)
	e.ObjEnd()
}

// Decode reads an order creation body.
func (r *CreateRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "amountTotal":
			r.AmountTotal, err = d.Int64()
		case "currency":
			r.Currency, err = d.Str()
		case "quantity":
			r.Quantity, err = d.Int()
		case "printOptions":
			err = r.PrintOptions.Decode(d)
		case "shippingAddress":
			err = r.ShippingAddress.Decode(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// Encode writes the order as returned by the orders API.
func (o Order) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("amountTotal")
	e.Int64(o.AmountTotal)
	e.FieldStart("currency")
	e.Str(o.Currency)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("quantity")
	e.Int(o.Quantity)
	e.FieldStart("printOptions")
	o.PrintOptions.Encode(e)
	if o.ShippingAddress != nil {
		e.FieldStart("shippingAddress")
		o.ShippingAddress.Encode(e)
	}
	if o.TrackingNumber != "" {
		e.FieldStart("trackingNumber")
		e.Str(o.TrackingNumber)
	}
	if o.TrackingURL != "" {
		e.FieldStart("trackingUrl")
		e.Str(o.TrackingURL)
	}
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

// Decode reads an order as returned by the orders API.
func (o *Order) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "amountTotal":
			o.AmountTotal, err = d.Int64()
		case "currency":
			o.Currency, err = d.Str()
		case "status":
			var v string
			v, err = d.Str()
			o.Status = ParseStatus(v)
		case "quantity":
			o.Quantity, err = d.Int()
		case "printOptions":
			err = o.PrintOptions.Decode(d)
		case "shippingAddress":
			if d.Next() == jx.Null {
				err = d.Null()
				break
			}
			var a ShippingAddress
			err = a.Decode(d)
			o.ShippingAddress = &a
		case "trackingNumber":
			o.TrackingNumber, err = decodeOptString(d)
		case "trackingUrl":
			o.TrackingURL, err = decodeOptString(d)
		case "createdAt":
			var v string
			if v, err = decodeOptString(d); err == nil && v != "" {
				o.CreatedAt, err = time.Parse(time.RFC3339Nano, v)
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

func encodeOptString(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
