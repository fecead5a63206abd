// Package cqlvalue is the dynamic value vocabulary shared by callers and the
// codec. Parameters and results use the same sum type; which shapes are
// accepted where is decided by the codec against the declared column type.
package cqlvalue

import (
	"fmt"
	"math/big"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// Kind is the dynamic tag of a Value.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindInt
	KindUint32
	KindFloat32
	KindFloat64
	KindBool
	KindBlob
	KindUUID
	KindVarint
	KindDecimal
	KindDuration
	KindTimestamp
	KindDate
	KindTime
	KindInet
	KindList
	KindSet
	KindTuple
	KindMap
)

var kindNames = map[Kind]string{
	KindText:      "text",
	KindInt:       "int64",
	KindUint32:    "uint32",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindBool:      "bool",
	KindBlob:      "blob",
	KindUUID:      "uuid",
	KindVarint:    "varint",
	KindDecimal:   "decimal",
	KindDuration:  "duration",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTime:      "time",
	KindInet:      "inet",
	KindList:      "list",
	KindSet:       "set",
	KindTuple:     "tuple",
	KindMap:       "map",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsComposite reports whether values of this kind hold other values.
func (k Kind) IsComposite() bool {
	return k == KindList || k == KindSet || k == KindTuple || k == KindMap
}

// Value is a dynamically typed CQL value. A nil Value is CQL null.
type Value interface {
	Kind() Kind
	String() string

	value()
}

// KindOf returns the kind of v, or 0 for null.
func KindOf(v Value) Kind {
	if v == nil {
		return 0
	}
	return v.Kind()
}

// Describe renders a kind name for error messages, "null" for nil.
func Describe(v Value) string {
	if v == nil {
		return "null"
	}
	return v.Kind().String()
}

type (
	// Text is an ascii or text value.
	Text string
	// Int is a signed 64 bit integer. All fixed width integer columns
	// decode to Int.
	Int int64
	// Uint32 is an unsigned 32 bit integer supplied by a caller.
	Uint32 uint32
	Float32 float32
	Float64 float64
	Bool bool
	// Blob is a raw byte sequence.
	Blob []byte
	UUID uuid.UUID
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64
	// Date is days since the Unix epoch.
	Date int32
	// Time is nanoseconds since midnight.
	Time int64
	Inet netip.Addr
	List []Value
	Set  []Value
	// Tuple is positional; nil elements are null.
	Tuple []Value
)

// Duration is a calendar duration. Months and days are kept apart from
// nanoseconds because their length varies.
type Duration struct {
	Months      int32
	Days        int32
	Nanoseconds int64
}

// Varint is an arbitrary precision integer.
type Varint struct {
	v *big.Int
}

// Decimal is an arbitrary precision fixed point number: an unscaled
// integer and a base 10 scale.
type Decimal struct {
	d *inf.Dec
}

func (Text) Kind() Kind      { return KindText }
func (Int) Kind() Kind       { return KindInt }
func (Uint32) Kind() Kind    { return KindUint32 }
func (Float32) Kind() Kind   { return KindFloat32 }
func (Float64) Kind() Kind   { return KindFloat64 }
func (Bool) Kind() Kind      { return KindBool }
func (Blob) Kind() Kind      { return KindBlob }
func (UUID) Kind() Kind      { return KindUUID }
func (Varint) Kind() Kind    { return KindVarint }
func (Decimal) Kind() Kind   { return KindDecimal }
func (Duration) Kind() Kind  { return KindDuration }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Date) Kind() Kind      { return KindDate }
func (Time) Kind() Kind      { return KindTime }
func (Inet) Kind() Kind      { return KindInet }
func (List) Kind() Kind      { return KindList }
func (Set) Kind() Kind       { return KindSet }
func (Tuple) Kind() Kind     { return KindTuple }

func (Text) value()      {}
func (Int) value()       {}
func (Uint32) value()    {}
func (Float32) value()   {}
func (Float64) value()   {}
func (Bool) value()      {}
func (Blob) value()      {}
func (UUID) value()      {}
func (Varint) value()    {}
func (Decimal) value()   {}
func (Duration) value()  {}
func (Timestamp) value() {}
func (Date) value()      {}
func (Time) value()      {}
func (Inet) value()      {}
func (List) value()      {}
func (Set) value()       {}
func (Tuple) value()     {}

func (v Text) String() string    { return string(v) }
func (v Int) String() string     { return fmt.Sprint(int64(v)) }
func (v Uint32) String() string  { return fmt.Sprint(uint32(v)) }
func (v Float32) String() string { return fmt.Sprint(float32(v)) }
func (v Float64) String() string { return fmt.Sprint(float64(v)) }
func (v Bool) String() string    { return fmt.Sprint(bool(v)) }
func (v Blob) String() string    { return fmt.Sprintf("0x%x", []byte(v)) }
func (v UUID) String() string    { return uuid.UUID(v).String() }
func (v Inet) String() string    { return netip.Addr(v).String() }

func (v Duration) String() string {
	return fmt.Sprintf("%dmo%dd%dns", v.Months, v.Days, v.Nanoseconds)
}

func (v Timestamp) String() string {
	return v.Time().Format(time.RFC3339Nano)
}

func (v Date) String() string {
	return v.Time().Format("2006-01-02")
}

func (v Time) String() string {
	d := time.Duration(v)
	return fmt.Sprintf("%02d:%02d:%02d.%09d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60, int64(d)%int64(time.Second))
}

func (v List) String() string  { return joinValues("[", []Value(v), "]") }
func (v Set) String() string   { return joinValues("{", []Value(v), "}") }
func (v Tuple) String() string { return joinValues("(", []Value(v), ")") }

func joinValues(open string, vs []Value, closing string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, v := range vs {
		if i > 0 {
			sb.WriteString(", ")
		}
		if v == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(v.String())
		}
	}
	sb.WriteString(closing)
	return sb.String()
}

// Time converts the timestamp to a UTC time.
func (v Timestamp) Time() time.Time {
	return time.UnixMilli(int64(v)).UTC()
}

// TimestampOf truncates t to millisecond precision.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

const nanosPerDay = int64(24 * time.Hour)

// Time converts the date to midnight UTC.
func (v Date) Time() time.Time {
	return time.Unix(int64(v)*86400, 0).UTC()
}

// DateOf returns the day t falls on, in UTC.
func DateOf(t time.Time) Date {
	secs := t.Unix()
	days := secs / 86400
	if secs < 0 && secs%86400 != 0 {
		days--
	}
	return Date(days)
}

// TimeOf returns the time of day of t.
func TimeOf(t time.Time) Time {
	h, m, s := t.Clock()
	return Time(int64(h)*int64(time.Hour) + int64(m)*int64(time.Minute) + int64(s)*int64(time.Second) + int64(t.Nanosecond()))
}

// Valid reports whether the value is within a single day.
func (v Time) Valid() bool {
	return v >= 0 && int64(v) < nanosPerDay
}

// NewVarint wraps a copy of n.
func NewVarint(n *big.Int) Varint {
	return Varint{v: new(big.Int).Set(n)}
}

// VarintFromInt64 builds a Varint from a machine integer.
func VarintFromInt64(n int64) Varint {
	return Varint{v: big.NewInt(n)}
}

// VarintFromBytes interprets b as a big-endian two's complement integer.
// Leading sign bytes are accepted, they do not change the value.
func VarintFromBytes(b []byte) Varint {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8))
	}
	return Varint{v: n}
}

// Big returns a copy of the integer.
func (v Varint) Big() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.v)
}

// Cmp compares without copying.
func (v Varint) Cmp(o Varint) int {
	return v.bigRef().Cmp(o.bigRef())
}

func (v Varint) bigRef() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return v.v
}

func (v Varint) String() string { return v.bigRef().String() }

// NewDecimal wraps a copy of d.
func NewDecimal(d *inf.Dec) Decimal {
	return Decimal{d: new(inf.Dec).Set(d)}
}

// DecimalOf builds unscaled * 10^-scale.
func DecimalOf(unscaled *big.Int, scale int32) Decimal {
	return Decimal{d: inf.NewDecBig(new(big.Int).Set(unscaled), inf.Scale(scale))}
}

// ParseDecimal parses a base 10 number such as "-12.340".
func ParseDecimal(s string) (Decimal, error) {
	d, ok := new(inf.Dec).SetString(s)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	return Decimal{d: d}, nil
}

func (v Decimal) dec() *inf.Dec {
	if v.d == nil {
		return new(inf.Dec)
	}
	return v.d
}

// Dec returns a copy of the decimal.
func (v Decimal) Dec() *inf.Dec { return new(inf.Dec).Set(v.dec()) }

// Unscaled returns a copy of the unscaled integer.
func (v Decimal) Unscaled() *big.Int { return new(big.Int).Set(v.dec().UnscaledBig()) }

// Scale returns the base 10 scale.
func (v Decimal) Scale() int32 { return int32(v.dec().Scale()) }

func (v Decimal) String() string { return v.dec().String() }

// Equal reports whether both values have the same kind and content.
// Decimals compare by unscaled value and scale, so 1.0 and 1.00 differ,
// like they do on the wire.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Blob:
		bv := b.(Blob)
		return string(av) == string(bv)
	case Varint:
		return av.Cmp(b.(Varint)) == 0
	case Decimal:
		bv := b.(Decimal)
		return av.Scale() == bv.Scale() && av.dec().UnscaledBig().Cmp(bv.dec().UnscaledBig()) == 0
	case List:
		return equalSlices(av, b.(List))
	case Set:
		return equalSlices(av, b.(Set))
	case Tuple:
		return equalSlices(av, b.(Tuple))
	case *Map:
		return av.Equal(b.(*Map))
	}
	return a == b
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
