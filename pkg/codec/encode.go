package codec

import (
	"encoding/binary"
	"math"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// Marshal encodes v as a cell body of type t. A nil v yields a nil slice,
// the null marker; any other value yields a non-nil slice owned by the
// caller.
func Marshal(v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	if isNull(v) {
		return nil, nil
	}
	return appendBody(make([]byte, 0, 16), v, t)
}

// AppendValue appends v to dst as a [bytes] item: an int32 length, -1 for
// null, followed by the body. On error dst is returned unchanged.
func AppendValue(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	if isNull(v) {
		return appendInt32(dst, -1), nil
	}
	start := len(dst)
	out, err := appendBody(append(dst, 0, 0, 0, 0), v, t)
	if err != nil {
		return dst[:start], err
	}
	n := len(out) - start - 4
	if n > math.MaxInt32 {
		return dst[:start], Newf(ErrNumericOverflow, "value of %d bytes is too large", n)
	}
	binary.BigEndian.PutUint32(out[start:], uint32(n))
	return out, nil
}

// isNull also treats a nil *Map held in a Value as null.
func isNull(v cqlvalue.Value) bool {
	if v == nil {
		return true
	}
	m, ok := v.(*cqlvalue.Map)
	return ok && m == nil
}

func appendBody(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	c, err := lookup(t)
	if err != nil {
		return dst, err
	}
	return c.encode(dst, v, t)
}
