package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// numberJSON keeps numbers as json.Number so that each type parses them.
var numberJSON = jsoniter.Config{UseNumber: true}.Froze()

// literal is a parameter given on the command line, either TYPE:VALUE or a
// bare JSON VALUE. With a type, values that are not valid JSON are taken as
// a string, so uuid:f81d4fae-7dec-11d0-a765-00a0c91e6bf6 works unquoted.
type literal struct {
	typ   cqltype.Type
	typed bool
	value cqlvalue.Value
}

func parseLiteral(s string) (literal, error) {
	if i := strings.IndexByte(s, ':'); i > 0 {
		if t, err := cqltype.Parse(s[:i]); err == nil {
			v, err := typedValue(t, s[i+1:])
			if err != nil {
				return literal{}, fmt.Errorf("%s: %w", s, err)
			}
			return literal{typ: t, typed: true, value: v}, nil
		}
	}

	var x interface{}
	if err := numberJSON.UnmarshalFromString(s, &x); err != nil {
		return literal{}, fmt.Errorf("%s: not TYPE:VALUE and not JSON: %w", s, err)
	}
	v, err := untyped(x)
	if err != nil {
		return literal{}, fmt.Errorf("%s: %w", s, err)
	}
	return literal{value: v}, nil
}

func parseLiterals(args []string) ([]literal, error) {
	out := make([]literal, len(args))
	for i, a := range args {
		l, err := parseLiteral(a)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = l
	}
	return out, nil
}

func values(ls []literal) []cqlvalue.Value {
	out := make([]cqlvalue.Value, len(ls))
	for i, l := range ls {
		out[i] = l.value
	}
	return out
}

func typedValue(t cqltype.Type, raw string) (cqlvalue.Value, error) {
	if raw == "null" {
		return nil, nil
	}
	if bareString(t.Kind()) && !strings.HasPrefix(raw, `"`) {
		return fromJSON(t, raw)
	}
	var x interface{}
	if err := numberJSON.UnmarshalFromString(raw, &x); err != nil {
		if t.Kind().IsComposite() {
			return nil, err
		}
		x = raw
	}
	return fromJSON(t, x)
}

// bareString reports whether values of kind k are written as strings, so
// that text:123 is the text "123".
func bareString(k cqltype.Kind) bool {
	switch k {
	case cqltype.KindAscii, cqltype.KindText, cqltype.KindBlob, cqltype.KindCustom, cqltype.KindInet,
		cqltype.KindUUID, cqltype.KindTimeUUID, cqltype.KindDuration:
		return true
	}
	return false
}

// untyped converts JSON without a declared type: strings are text, whole
// numbers bigint, other numbers double, arrays lists and objects maps.
func untyped(x interface{}) (cqlvalue.Value, error) {
	switch v := x.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return cqlvalue.Int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return cqlvalue.Float64(f), nil
	case []interface{}:
		out := make(cqlvalue.List, len(v))
		for i, e := range v {
			ev, err := untyped(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]interface{}:
		out := cqlvalue.NewMap(len(v))
		for _, k := range sortedKeys(v) {
			ev, err := untyped(v[k])
			if err != nil {
				return nil, err
			}
			out.Set(k, ev)
		}
		return out, nil
	}
	return cqlvalue.Of(x)
}

// fromJSON converts decoded JSON into a value of type t.
func fromJSON(t cqltype.Type, x interface{}) (cqlvalue.Value, error) {
	if x == nil {
		return nil, nil
	}
	switch t.Kind() {
	case cqltype.KindAscii, cqltype.KindText:
		s, err := str(t, x)
		return cqlvalue.Text(s), err
	case cqltype.KindBoolean:
		switch v := x.(type) {
		case bool:
			return cqlvalue.Bool(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			return cqlvalue.Bool(b), err
		}
	case cqltype.KindTinyInt, cqltype.KindSmallInt, cqltype.KindInt, cqltype.KindBigInt, cqltype.KindCounter:
		s, err := num(t, x)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return cqlvalue.Int(n), err
	case cqltype.KindVarint:
		s, err := num(t, x)
		if err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid varint %q", s)
		}
		return cqlvalue.NewVarint(n), nil
	case cqltype.KindFloat:
		s, err := num(t, x)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(s, 32)
		return cqlvalue.Float32(f), err
	case cqltype.KindDouble:
		s, err := num(t, x)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(s, 64)
		return cqlvalue.Float64(f), err
	case cqltype.KindDecimal:
		s, err := num(t, x)
		if err != nil {
			return nil, err
		}
		return cqlvalue.ParseDecimal(s)
	case cqltype.KindBlob, cqltype.KindCustom:
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		return cqlvalue.Blob(b), err
	case cqltype.KindInet:
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		a, err := netip.ParseAddr(s)
		return cqlvalue.Inet(a), err
	case cqltype.KindUUID, cqltype.KindTimeUUID:
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		return cqlvalue.UUID(id), err
	case cqltype.KindTimestamp:
		if n, ok := x.(json.Number); ok {
			ms, err := n.Int64()
			return cqlvalue.Timestamp(ms), err
		}
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		return cqlvalue.TimestampOf(ts), err
	case cqltype.KindDate:
		if n, ok := x.(json.Number); ok {
			days, err := strconv.ParseInt(string(n), 10, 32)
			return cqlvalue.Date(days), err
		}
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(time.DateOnly, s)
		return cqlvalue.DateOf(d), err
	case cqltype.KindTime:
		if n, ok := x.(json.Number); ok {
			ns, err := n.Int64()
			return cqlvalue.Time(ns), err
		}
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		d, err := time.Parse("15:04:05.999999999", s)
		if err != nil {
			return nil, err
		}
		return cqlvalue.TimeOf(d), nil
	case cqltype.KindDuration:
		s, err := str(t, x)
		if err != nil {
			return nil, err
		}
		d, err := time.ParseDuration(s)
		return cqlvalue.Duration{Nanoseconds: int64(d)}, err
	case cqltype.KindList, cqltype.KindSet:
		arr, ok := x.([]interface{})
		if !ok {
			break
		}
		out := make([]cqlvalue.Value, len(arr))
		for i, e := range arr {
			v, err := fromJSON(t.Elem(), e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		if t.Kind() == cqltype.KindSet {
			return cqlvalue.Set(out), nil
		}
		return cqlvalue.List(out), nil
	case cqltype.KindTuple:
		arr, ok := x.([]interface{})
		if !ok || len(arr) != t.NumElems() {
			break
		}
		out := make(cqlvalue.Tuple, len(arr))
		for i, e := range arr {
			v, err := fromJSON(t.ElemAt(i), e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case cqltype.KindMap:
		obj, ok := x.(map[string]interface{})
		if !ok {
			break
		}
		out := cqlvalue.NewMap(len(obj))
		for _, k := range sortedKeys(obj) {
			v, err := fromJSON(t.Value(), obj[k])
			if err != nil {
				return nil, fmt.Errorf("{%s}: %w", k, err)
			}
			out.Set(k, v)
		}
		return out, nil
	case cqltype.KindUDT:
		obj, ok := x.(map[string]interface{})
		if !ok {
			break
		}
		out := cqlvalue.NewMap(len(obj))
		for _, f := range t.Fields() {
			e, ok := obj[f.Name]
			if !ok {
				continue
			}
			v, err := fromJSON(f.Type, e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out.Set(f.Name, v)
		}
		if out.Len() != len(obj) {
			return nil, fmt.Errorf("%s has no field named %s", t, unknownField(t, obj))
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot use %s as %s", describe(x), t)
}

func str(t cqltype.Type, x interface{}) (string, error) {
	if s, ok := x.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("cannot use %s as %s", describe(x), t)
}

func num(t cqltype.Type, x interface{}) (string, error) {
	switch v := x.(type) {
	case json.Number:
		return string(v), nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("cannot use %s as %s", describe(x), t)
}

func describe(x interface{}) string {
	switch x.(type) {
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", x)
}

func unknownField(t cqltype.Type, obj map[string]interface{}) string {
	known := make(map[string]bool, t.NumFields())
	for _, f := range t.Fields() {
		known[f.Name] = true
	}
	for _, k := range sortedKeys(obj) {
		if !known[k] {
			return k
		}
	}
	return ""
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
