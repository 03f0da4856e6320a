package wizard

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes the state as a JSON object.
func (s State) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("step")
	e.Int(int(s.Step))
	e.FieldStart("printOptions")
	s.Config.Encode(e)
	e.FieldStart("shippingAddress")
	s.Shipping.Encode(e)
	if s.Error != "" {
		e.FieldStart("error")
		e.Str(s.Error)
	}
	e.ObjEnd()
}

// Decode reads a state written by Encode.
func (s *State) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "step":
			var v int
			v, err = d.Int()
			s.Step = Step(v)
		case "printOptions":
			err = s.Config.Decode(d)
		case "shippingAddress":
			err = s.Shipping.Decode(d)
		case "error":
			s.Error, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	*s = NewState()
	return s.Decode(jx.DecodeBytes(data))
}
