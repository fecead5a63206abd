package cqlvalue

import (
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// Of converts a plain Go value into a Value. It accepts Values unchanged,
// the Go types the driver ecosystem commonly uses and nested []interface{}
// and map[string]interface{} (keys are sorted to keep encoding deterministic).
func Of(x interface{}) (Value, error) {
	switch v := x.(type) {
	case nil:
		return nil, nil
	case *Map:
		if v == nil {
			return nil, nil
		}
		return v, nil
	case Value:
		return v, nil
	case string:
		return Text(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Uint32(v), nil
	case uint64:
		if v > 1<<63-1 {
			return NewVarint(new(big.Int).SetUint64(v)), nil
		}
		return Int(v), nil
	case float32:
		return Float32(v), nil
	case float64:
		return Float64(v), nil
	case []byte:
		return Blob(append([]byte(nil), v...)), nil
	case uuid.UUID:
		return UUID(v), nil
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		return NewVarint(v), nil
	case *inf.Dec:
		if v == nil {
			return nil, nil
		}
		return NewDecimal(v), nil
	case time.Time:
		return TimestampOf(v), nil
	case time.Duration:
		return Duration{Nanoseconds: int64(v)}, nil
	case netip.Addr:
		return Inet(v), nil
	case net.IP:
		addr, ok := netip.AddrFromSlice(v)
		if !ok {
			return nil, fmt.Errorf("invalid IP address %v", v)
		}
		return Inet(addr), nil
	case []interface{}:
		out := make(List, len(v))
		for i, e := range v {
			ev, err := Of(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case []string:
		out := make(List, len(v))
		for i, e := range v {
			out[i] = Text(e)
		}
		return out, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap(len(keys))
		for _, k := range keys {
			ev, err := Of(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Set(k, ev)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported Go type %T", x)
}

// MustOf is Of for literals known to be convertible.
func MustOf(x interface{}) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Values converts a list of Go values.
func Values(xs ...interface{}) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, x := range xs {
		v, err := Of(x)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ToNative converts a Value into plain Go values: numbers stay numbers,
// arbitrary precision numbers become *big.Int and *inf.Dec, collections
// become []interface{} and Maps become map[string]interface{}.
func ToNative(v Value) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case Text:
		return string(x)
	case Int:
		return int64(x)
	case Uint32:
		return uint32(x)
	case Float32:
		return float32(x)
	case Float64:
		return float64(x)
	case Bool:
		return bool(x)
	case Blob:
		return []byte(x)
	case UUID:
		return uuid.UUID(x)
	case Varint:
		return x.Big()
	case Decimal:
		return x.Dec()
	case Duration:
		return x
	case Timestamp:
		return x.Time()
	case Date:
		return x.Time()
	case Time:
		return time.Duration(x)
	case Inet:
		return netip.Addr(x)
	case List:
		return nativeSlice(x)
	case Set:
		return nativeSlice(x)
	case Tuple:
		return nativeSlice(x)
	case *Map:
		out := make(map[string]interface{}, x.Len())
		x.Range(func(k string, e Value) bool {
			out[k] = ToNative(e)
			return true
		})
		return out
	}
	return nil
}

func nativeSlice(vs []Value) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = ToNative(v)
	}
	return out
}
