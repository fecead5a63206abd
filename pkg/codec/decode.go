package codec

import (
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// Decoder turns cells into values. The zero Decoder only accepts scalar
// elements inside lists, sets and maps; see WithNesting.
type Decoder struct {
	nesting bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithNesting allows collections, tuples and user defined types as
// elements of lists and sets and as map values. Map keys stay text only.
func WithNesting() Option {
	return func(d *Decoder) { d.nesting = true }
}

// NewDecoder returns a Decoder with the given options.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, o := range opts {
		o(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes one cell of type t with the default Decoder.
func Decode(cell []byte, t cqltype.Type) (cqlvalue.Value, error) {
	return defaultDecoder.Decode(cell, t)
}

// Decode validates t and decodes cell. A nil cell is null and decodes to a
// nil Value.
func (d *Decoder) Decode(cell []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if err := d.Validate(t); err != nil {
		return nil, err
	}
	return d.decode(cell, t)
}

// Validate checks that every kind in t can be decoded and that nesting and
// map key rules hold, before any bytes are looked at.
func (d *Decoder) Validate(t cqltype.Type) error {
	if _, err := lookup(t); err != nil {
		return err
	}
	switch t.Kind() {
	case cqltype.KindList, cqltype.KindSet:
		return d.validateElem(t, t.Elem())
	case cqltype.KindMap:
		if !t.Key().Kind().IsString() {
			return Newf(ErrUnsupportedMapKeyType, "%s: keys must be ascii or text", t)
		}
		return d.validateElem(t, t.Value())
	case cqltype.KindTuple:
		for i := 0; i < t.NumElems(); i++ {
			if err := d.Validate(t.ElemAt(i)); err != nil {
				return WithPath(err, index(i))
			}
		}
	case cqltype.KindUDT:
		for i := 0; i < t.NumFields(); i++ {
			f := t.FieldAt(i)
			if err := d.Validate(f.Type); err != nil {
				return WithPath(err, f.Name)
			}
		}
	}
	return nil
}

func (d *Decoder) validateElem(parent, elem cqltype.Type) error {
	if elem.Kind().IsComposite() && !d.nesting {
		return Newf(ErrUnsupportedNesting, "%s cannot hold %s", parent, elem)
	}
	return d.Validate(elem)
}

// For validates t once and returns a decoder bound to it, for decoding many
// cells of the same column.
func (d *Decoder) For(t cqltype.Type) (*ColumnDecoder, error) {
	if err := d.Validate(t); err != nil {
		return nil, err
	}
	return &ColumnDecoder{d: d, t: t}, nil
}

// ColumnDecoder decodes cells of a single, already validated, type.
type ColumnDecoder struct {
	d *Decoder
	t cqltype.Type
}

func (c *ColumnDecoder) Type() cqltype.Type { return c.t }

func (c *ColumnDecoder) Decode(cell []byte) (cqlvalue.Value, error) {
	return c.d.decode(cell, c.t)
}

func (d *Decoder) decode(cell []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if cell == nil {
		return nil, nil
	}
	c, err := lookup(t)
	if err != nil {
		return nil, err
	}
	return c.decode(d, cell, t)
}
