package codec

import (
	"encoding/binary"
	"math"
	"math/big"
	"net/netip"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

func encodeText(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	s, ok := v.(cqlvalue.Text)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	if t.Kind() == cqltype.KindAscii {
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return dst, Newf(ErrTypeMismatch, "non-ASCII byte 0x%x at offset %d", s[i], i)
			}
		}
	} else if !utf8.ValidString(string(s)) {
		return dst, Newf(ErrTypeMismatch, "text is not valid UTF-8")
	}
	return append(dst, string(s)...), nil
}

func decodeText(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if t.Kind() == cqltype.KindAscii {
		for i := 0; i < len(b); i++ {
			if b[i] >= utf8.RuneSelf {
				return nil, malformed(t, "non-ASCII byte 0x%x at offset %d", b[i], i)
			}
		}
	} else if !utf8.Valid(b) {
		return nil, malformed(t, "text is not valid UTF-8")
	}
	return cqlvalue.Text(b), nil
}

func encodeBoolean(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Bool)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	if x {
		return append(dst, 1), nil
	}
	return append(dst, 0), nil
}

func decodeBoolean(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 1 {
		return nil, malformed(t, "expected 1 byte, got %d", len(b))
	}
	return cqlvalue.Bool(b[0] != 0), nil
}

// integerWidth returns the size in bytes of a fixed width integer kind.
func integerWidth(k cqltype.Kind) int {
	switch k {
	case cqltype.KindTinyInt:
		return 1
	case cqltype.KindSmallInt:
		return 2
	case cqltype.KindInt:
		return 4
	}
	return 8
}

func toInt64(v cqlvalue.Value, t cqltype.Type) (int64, error) {
	switch x := v.(type) {
	case cqlvalue.Int:
		return int64(x), nil
	case cqlvalue.Uint32:
		return int64(x), nil
	case cqlvalue.Varint:
		n := x.Big()
		if !n.IsInt64() {
			return 0, overflow(t, x)
		}
		return n.Int64(), nil
	}
	return 0, mismatch(t, cqlvalue.Describe(v))
}

func encodeInteger(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	n, err := toInt64(v, t)
	if err != nil {
		return dst, err
	}
	width := integerWidth(t.Kind())
	if width < 8 {
		limit := int64(1) << (width*8 - 1)
		if n < -limit || n >= limit {
			return dst, overflow(t, v)
		}
	}
	switch width {
	case 1:
		return append(dst, byte(n)), nil
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(n)), nil
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(n)), nil
	}
	return binary.BigEndian.AppendUint64(dst, uint64(n)), nil
}

func decodeInteger(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	width := integerWidth(t.Kind())
	if len(b) != width {
		return nil, malformed(t, "expected %d bytes, got %d", width, len(b))
	}
	switch width {
	case 1:
		return cqlvalue.Int(int8(b[0])), nil
	case 2:
		return cqlvalue.Int(int16(binary.BigEndian.Uint16(b))), nil
	case 4:
		return cqlvalue.Int(int32(binary.BigEndian.Uint32(b))), nil
	}
	return cqlvalue.Int(int64(binary.BigEndian.Uint64(b))), nil
}

func encodeFloat(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	var f float32
	switch x := v.(type) {
	case cqlvalue.Float32:
		f = float32(x)
	case cqlvalue.Float64:
		f = float32(x)
		if float64(f) != float64(x) && !math.IsNaN(float64(x)) {
			return dst, overflow(t, x)
		}
	default:
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(f)), nil
}

func decodeFloat(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 4 {
		return nil, malformed(t, "expected 4 bytes, got %d", len(b))
	}
	return cqlvalue.Float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
}

func encodeDouble(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	var f float64
	switch x := v.(type) {
	case cqlvalue.Float64:
		f = float64(x)
	case cqlvalue.Float32:
		f = float64(x)
	default:
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	return binary.BigEndian.AppendUint64(dst, math.Float64bits(f)), nil
}

func decodeDouble(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 8 {
		return nil, malformed(t, "expected 8 bytes, got %d", len(b))
	}
	return cqlvalue.Float64(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
}

func encodeBlob(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Blob)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	return append(dst, x...), nil
}

func decodeBlob(_ *Decoder, b []byte, _ cqltype.Type) (cqlvalue.Value, error) {
	return cqlvalue.Blob(append(make([]byte, 0, len(b)), b...)), nil
}

func encodeInet(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Inet)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	addr := netip.Addr(x)
	switch {
	case addr.Is4():
		a := addr.As4()
		return append(dst, a[:]...), nil
	case addr.Is6():
		a := addr.As16()
		return append(dst, a[:]...), nil
	}
	return dst, Newf(ErrTypeMismatch, "invalid IP address")
}

func decodeInet(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	switch len(b) {
	case 4:
		return cqlvalue.Inet(netip.AddrFrom4([4]byte(b))), nil
	case 16:
		return cqlvalue.Inet(netip.AddrFrom16([16]byte(b))), nil
	}
	return nil, malformed(t, "expected 4 or 16 bytes, got %d", len(b))
}

func toBig(v cqlvalue.Value, t cqltype.Type) (*big.Int, error) {
	switch x := v.(type) {
	case cqlvalue.Varint:
		return x.Big(), nil
	case cqlvalue.Int:
		return big.NewInt(int64(x)), nil
	case cqlvalue.Uint32:
		return big.NewInt(int64(x)), nil
	}
	return nil, mismatch(t, cqlvalue.Describe(v))
}

func encodeVarint(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	n, err := toBig(v, t)
	if err != nil {
		return dst, err
	}
	return appendVarint(dst, n), nil
}

func decodeVarint(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) == 0 {
		return nil, malformed(t, "empty varint")
	}
	return cqlvalue.VarintFromBytes(b), nil
}

func encodeDecimal(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	if d, ok := v.(cqlvalue.Decimal); ok {
		dst = appendInt32(dst, d.Scale())
		return appendVarint(dst, d.Unscaled()), nil
	}
	n, err := toBig(v, t)
	if err != nil {
		return dst, err
	}
	dst = appendInt32(dst, 0)
	return appendVarint(dst, n), nil
}

func decodeDecimal(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) < 5 {
		return nil, malformed(t, "expected a 4 byte scale and at least 1 byte, got %d bytes", len(b))
	}
	scale := int32(binary.BigEndian.Uint32(b))
	unscaled := cqlvalue.VarintFromBytes(b[4:])
	return cqlvalue.DecimalOf(unscaled.Big(), scale), nil
}

func encodeDuration(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Duration)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	dst = appendVint(dst, int64(x.Months))
	dst = appendVint(dst, int64(x.Days))
	return appendVint(dst, x.Nanoseconds), nil
}

func decodeDuration(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	months, rest, ok := readVint(b)
	if !ok {
		return nil, malformed(t, "truncated months")
	}
	days, rest, ok := readVint(rest)
	if !ok {
		return nil, malformed(t, "truncated days")
	}
	nanos, rest, ok := readVint(rest)
	if !ok {
		return nil, malformed(t, "truncated nanoseconds")
	}
	if len(rest) != 0 {
		return nil, malformed(t, "%d trailing bytes", len(rest))
	}
	if months < math.MinInt32 || months > math.MaxInt32 || days < math.MinInt32 || days > math.MaxInt32 {
		return nil, malformed(t, "months or days out of range")
	}
	return cqlvalue.Duration{Months: int32(months), Days: int32(days), Nanoseconds: nanos}, nil
}

func encodeTimestamp(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	var ms int64
	switch x := v.(type) {
	case cqlvalue.Timestamp:
		ms = int64(x)
	case cqlvalue.Int:
		ms = int64(x)
	default:
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	return binary.BigEndian.AppendUint64(dst, uint64(ms)), nil
}

func decodeTimestamp(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 8 {
		return nil, malformed(t, "expected 8 bytes, got %d", len(b))
	}
	return cqlvalue.Timestamp(int64(binary.BigEndian.Uint64(b))), nil
}

// Dates are unsigned days with the epoch at 2^31.
const dateEpoch = int64(1) << 31

func encodeDate(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Date)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	return binary.BigEndian.AppendUint32(dst, uint32(int64(x)+dateEpoch)), nil
}

func decodeDate(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 4 {
		return nil, malformed(t, "expected 4 bytes, got %d", len(b))
	}
	return cqlvalue.Date(int64(binary.BigEndian.Uint32(b)) - dateEpoch), nil
}

func encodeTime(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.Time)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	if !x.Valid() {
		return dst, Newf(ErrNumericOverflow, "%d nanoseconds is not a time of day", int64(x))
	}
	return binary.BigEndian.AppendUint64(dst, uint64(x)), nil
}

func decodeTime(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 8 {
		return nil, malformed(t, "expected 8 bytes, got %d", len(b))
	}
	x := cqlvalue.Time(int64(binary.BigEndian.Uint64(b)))
	if !x.Valid() {
		return nil, malformed(t, "%d nanoseconds is not a time of day", int64(x))
	}
	return x, nil
}

func encodeUUID(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error) {
	x, ok := v.(cqlvalue.UUID)
	if !ok {
		return dst, mismatch(t, cqlvalue.Describe(v))
	}
	if t.Kind() == cqltype.KindTimeUUID && uuid.UUID(x).Version() != 1 {
		return dst, Newf(ErrTypeMismatch, "%s is a version %d UUID, timeuuid needs version 1", x, uuid.UUID(x).Version())
	}
	return append(dst, x[:]...), nil
}

func decodeUUID(_ *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error) {
	if len(b) != 16 {
		return nil, malformed(t, "expected 16 bytes, got %d", len(b))
	}
	var u uuid.UUID
	copy(u[:], b)
	return cqlvalue.UUID(u), nil
}
