package codec

import (
	"strconv"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// Lists and sets share a layout. Either value kind is accepted for either
// column kind, the server applies set semantics.
func encodeCollection(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	var elems []cqlvalue.Value
	switch x := v.(type) {
	case cqlvalue.List:
		elems = x
	case cqlvalue.Set:
		elems = x
	default:
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	dst, err := appendCount(dst, len(elems))
	if err != nil {
		return dst, err
	}
	et := t.Elem()
	for i, e := range elems {
		if isNull(e) {
			return dst, WithPath(Newf(ErrTypeMismatch, "%s cannot contain null", t), index(i))
		}
		if dst, err = AppendValue(dst, e, et); err != nil {
			return dst, WithPath(err, index(i))
		}
	}
	return dst, nil
}

func decodeCollection(d *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	n, rest, err := readCount(b)
	if err != nil {
		return nil, err
	}
	// Every element takes at least 4 bytes, do not trust n for the allocation.
	out := make([]cqlvalue.Value, 0, min(n, len(rest)/4))
	et := t.Elem()
	for i := 0; i < n; i++ {
		var cell []byte
		if cell, rest, err = ReadCell(rest); err != nil {
			return nil, WithPath(err, index(i))
		}
		if cell == nil {
			return nil, WithPath(malformed(t, "null element"), index(i))
		}
		v, err := d.decode(cell, et)
		if err != nil {
			return nil, WithPath(err, index(i))
		}
		out = append(out, v)
	}
	if len(rest) != 0 {
		return nil, malformed(t, "%d trailing bytes", len(rest))
	}
	if t.Kind() == cqltype.KindSet {
		return cqlvalue.Set(out), nil
	}
	return cqlvalue.List(out), nil
}

func encodeMap(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	m, ok := v.(*cqlvalue.Map)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	kt, vt := t.Key(), t.Value()
	if !kt.Kind().IsString() {
		return dst, Newf(ErrUnsupportedMapKeyType, "%s: keys must be ascii or text", t)
	}
	dst, err := appendCount(dst, m.Len())
	if err != nil {
		return dst, err
	}
	m.Range(func(k string, e cqlvalue.Value) bool {
		seg := "{" + strconv.Quote(k) + "}"
		if isNull(e) {
			err = WithPath(Newf(ErrTypeMismatch, "%s cannot contain null", t), seg)
			return false
		}
		if dst, err = AppendValue(dst, cqlvalue.Text(k), kt); err != nil {
			err = WithPath(err, seg)
			return false
		}
		if dst, err = AppendValue(dst, e, vt); err != nil {
			err = WithPath(err, seg)
			return false
		}
		return true
	})
	return dst, err
}

func decodeMap(d *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	n, rest, err := readCount(b)
	if err != nil {
		return nil, err
	}
	out := cqlvalue.NewMap(min(n, len(rest)/8))
	kt, vt := t.Key(), t.Value()
	for i := 0; i < n; i++ {
		var kc, vc []byte
		if kc, rest, err = ReadCell(rest); err != nil {
			return nil, WithPath(err, index(i))
		}
		if vc, rest, err = ReadCell(rest); err != nil {
			return nil, WithPath(err, index(i))
		}
		if kc == nil || vc == nil {
			return nil, WithPath(malformed(t, "null entry"), index(i))
		}
		k, err := d.decode(kc, kt)
		if err != nil {
			return nil, WithPath(err, index(i))
		}
		key := string(k.(cqlvalue.Text))
		v, err := d.decode(vc, vt)
		if err != nil {
			return nil, WithPath(err, "{"+strconv.Quote(key)+"}")
		}
		out.Set(key, v)
	}
	if len(rest) != 0 {
		return nil, malformed(t, "%d trailing bytes", len(rest))
	}
	return out, nil
}

func encodeTuple(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Tuple)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	if len(x) != t.NumElems() {
		return dst, Newf(ErrTypeMismatch, "%d elements for %s", len(x), t)
	}
	var err error
	for i, e := range x {
		if dst, err = AppendValue(dst, e, t.ElemAt(i)); err != nil {
			return dst, WithPath(err, index(i))
		}
	}
	return dst, nil
}

// A tuple or user defined type value may be shorter than its type, the
// missing trailing positions are null.
func decodeTuple(d *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	out := make(cqlvalue.Tuple, t.NumElems())
	rest := b
	for i := range out {
		if len(rest) == 0 {
			break
		}
		var (
			cell []byte
			err  error
		)
		if cell, rest, err = ReadCell(rest); err != nil {
			return nil, WithPath(err, index(i))
		}
		if out[i], err = d.decode(cell, t.ElemAt(i)); err != nil {
			return nil, WithPath(err, index(i))
		}
	}
	if len(rest) != 0 {
		return nil, malformed(t, "%d trailing bytes", len(rest))
	}
	return out, nil
}

// User defined types are written in declared field order. Keys of the
// value that the type does not declare are rejected rather than dropped.
func encodeUDT(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	m, ok := v.(*cqlvalue.Map)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	declared := make(map[string]struct{}, t.NumFields())
	for i := 0; i < t.NumFields(); i++ {
		declared[t.FieldAt(i).Name] = struct{}{}
	}
	var err error
	m.Range(func(k string, _ cqlvalue.Value) bool {
		if _, ok := declared[k]; !ok {
			err = WithPath(Newf(ErrTypeMismatch, "%s has no field %q", t, k), k)
			return false
		}
		return true
	})
	if err != nil {
		return dst, err
	}
	for i := 0; i < t.NumFields(); i++ {
		f := t.FieldAt(i)
		fv, _ := m.Get(f.Name)
		if dst, err = AppendValue(dst, fv, f.Type); err != nil {
			return dst, WithPath(err, f.Name)
		}
	}
	return dst, nil
}

// Null fields are left out of the decoded map.
func decodeUDT(d *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	out := cqlvalue.NewMap(t.NumFields())
	rest := b
	for i := 0; i < t.NumFields() && len(rest) > 0; i++ {
		f := t.FieldAt(i)
		var (
			cell []byte
			err  error
		)
		if cell, rest, err = ReadCell(rest); err != nil {
			return nil, WithPath(err, f.Name)
		}
		v, err := d.decode(cell, f.Type)
		if err != nil {
			return nil, WithPath(err, f.Name)
		}
		if v != nil {
			out.Set(f.Name, v)
		}
	}
	if len(rest) != 0 {
		return nil, malformed(t, "%d trailing bytes", len(rest))
	}
	return out, nil
}
