package codec

import (
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

var inferred = map[cqlvalue.Kind]cqltype.Type{
	cqlvalue.KindText:      cqltype.Text,
	cqlvalue.KindInt:       cqltype.BigInt,
	cqlvalue.KindUint32:    cqltype.Int,
	cqlvalue.KindFloat32:   cqltype.Float,
	cqlvalue.KindFloat64:   cqltype.Double,
	cqlvalue.KindBool:      cqltype.Boolean,
	cqlvalue.KindBlob:      cqltype.Blob,
	cqlvalue.KindUUID:      cqltype.UUID,
	cqlvalue.KindVarint:    cqltype.Varint,
	cqlvalue.KindDecimal:   cqltype.Decimal,
	cqlvalue.KindDuration:  cqltype.Duration,
	cqlvalue.KindTimestamp: cqltype.Timestamp,
	cqlvalue.KindDate:      cqltype.Date,
	cqlvalue.KindTime:      cqltype.Time,
	cqlvalue.KindInet:      cqltype.Inet,
}

// Infer guesses a column type from the shape of v, for statements that
// carry no parameter metadata. It cannot tell a user defined type from a
// map: a *cqlvalue.Map is always a map<text, T>. Elements of empty
// collections and null tuple elements are typed as blob, which only
// affects the null or empty encoding. Collections whose elements infer to
// different types are rejected.
func Infer(v cqlvalue.Value) (cqltype.Type, error) {
	switch x := v.(type) {
	case nil:
		return cqltype.Blob, nil
	case cqlvalue.List:
		elem, err := inferCommon(x)
		if err != nil {
			return cqltype.Type{}, err
		}
		return cqltype.List(elem), nil
	case cqlvalue.Set:
		elem, err := inferCommon(x)
		if err != nil {
			return cqltype.Type{}, err
		}
		return cqltype.Set(elem), nil
	case cqlvalue.Tuple:
		elems := make([]cqltype.Type, len(x))
		for i, e := range x {
			t, err := Infer(e)
			if err != nil {
				return cqltype.Type{}, WithPath(err, index(i))
			}
			elems[i] = t
		}
		return cqltype.Tuple(elems...), nil
	case *cqlvalue.Map:
		values := make([]cqlvalue.Value, 0, x.Len())
		x.Range(func(_ string, e cqlvalue.Value) bool {
			if e != nil {
				values = append(values, e)
			}
			return true
		})
		elem, err := inferCommon(values)
		if err != nil {
			return cqltype.Type{}, err
		}
		return cqltype.Map(cqltype.Text, elem), nil
	}
	t, ok := inferred[v.Kind()]
	if !ok || !Supported(t.Kind()) {
		return cqltype.Type{}, Newf(ErrUnsupportedColumnType, "no column type for %s", cqlvalue.Describe(v))
	}
	return t, nil
}

func inferCommon(vs []cqlvalue.Value) (cqltype.Type, error) {
	var (
		common cqltype.Type
		found  bool
	)
	for i, e := range vs {
		if e == nil {
			continue
		}
		t, err := Infer(e)
		if err != nil {
			return cqltype.Type{}, WithPath(err, index(i))
		}
		if !found {
			common, found = t, true
			continue
		}
		if !common.Equal(t) {
			return cqltype.Type{}, WithPath(Newf(ErrTypeMismatch, "mixed element types %s and %s", common, t), index(i))
		}
	}
	if !found {
		return cqltype.Blob, nil
	}
	return common, nil
}
