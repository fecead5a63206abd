package cqltype

import (
	"fmt"
	"strings"
)

// Kind identifies the protocol type of a column or a nested position.
type Kind uint8

const (
	KindCustom Kind = iota
	KindAscii
	KindText
	KindBoolean
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindFloat
	KindDouble
	KindBlob
	KindInet
	KindVarint
	KindDecimal
	KindDuration
	KindTimestamp
	KindDate
	KindTime
	KindUUID
	KindTimeUUID
	KindCounter
	KindList
	KindSet
	KindMap
	KindTuple
	KindUDT

	// NumKinds is the number of kinds, not a kind.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindCustom:    "custom",
	KindAscii:     "ascii",
	KindText:      "text",
	KindBoolean:   "boolean",
	KindTinyInt:   "tinyint",
	KindSmallInt:  "smallint",
	KindInt:       "int",
	KindBigInt:    "bigint",
	KindFloat:     "float",
	KindDouble:    "double",
	KindBlob:      "blob",
	KindInet:      "inet",
	KindVarint:    "varint",
	KindDecimal:   "decimal",
	KindDuration:  "duration",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTime:      "time",
	KindUUID:      "uuid",
	KindTimeUUID:  "timeuuid",
	KindCounter:   "counter",
	KindList:      "list",
	KindSet:       "set",
	KindMap:       "map",
	KindTuple:     "tuple",
	KindUDT:       "udt",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsComposite reports whether values of this kind contain other values.
func (k Kind) IsComposite() bool {
	switch k {
	case KindList, KindSet, KindMap, KindTuple, KindUDT:
		return true
	}
	return false
}

// IsString reports whether the kind decodes to a string value.
func (k Kind) IsString() bool {
	return k == KindAscii || k == KindText
}

// Field is one named member of a user defined type.
type Field struct {
	Name string
	Type Type
}

// Type describes the wire type of a column. A Type is immutable once built:
// accessors hand out copies so that a descriptor tree can be shared between
// goroutines decoding the same result.
type Type struct {
	kind     Kind
	keyspace string
	name     string // udt name or custom class
	params   []Type // list/set: elem; map: key, value; tuple: elems
	fields   []Field
}

// Column associates a name with a wire type. It is used both for result
// column specs and for bound parameter slots.
type Column struct {
	Keyspace string `json:"keyspace,omitempty"`
	Table    string `json:"table,omitempty"`
	Name     string `json:"name"`
	Type     Type   `json:"type"`
}

func (c Column) String() string {
	return c.Name + " " + c.Type.String()
}

var (
	Ascii     = Native(KindAscii)
	Text      = Native(KindText)
	Boolean   = Native(KindBoolean)
	TinyInt   = Native(KindTinyInt)
	SmallInt  = Native(KindSmallInt)
	Int       = Native(KindInt)
	BigInt    = Native(KindBigInt)
	Float     = Native(KindFloat)
	Double    = Native(KindDouble)
	Blob      = Native(KindBlob)
	Inet      = Native(KindInet)
	Varint    = Native(KindVarint)
	Decimal   = Native(KindDecimal)
	Duration  = Native(KindDuration)
	Timestamp = Native(KindTimestamp)
	Date      = Native(KindDate)
	Time      = Native(KindTime)
	UUID      = Native(KindUUID)
	TimeUUID  = Native(KindTimeUUID)
	Counter   = Native(KindCounter)
)

// Native returns the descriptor of a scalar kind. It panics when called
// with a composite kind, those have their own constructors.
func Native(k Kind) Type {
	if k.IsComposite() {
		panic(fmt.Sprintf("cqltype: %s is not a native kind", k))
	}
	return Type{kind: k}
}

// Custom describes a server side type the bridge knows only by class name.
func Custom(class string) Type {
	return Type{kind: KindCustom, name: class}
}

func List(elem Type) Type {
	return Type{kind: KindList, params: []Type{elem}}
}

func Set(elem Type) Type {
	return Type{kind: KindSet, params: []Type{elem}}
}

func Map(key, value Type) Type {
	return Type{kind: KindMap, params: []Type{key, value}}
}

func Tuple(elems ...Type) Type {
	return Type{kind: KindTuple, params: append([]Type(nil), elems...)}
}

// UDT describes a user defined type. Field order is the order declared by
// the server and is the order used on the wire.
func UDT(keyspace, name string, fields ...Field) Type {
	return Type{kind: KindUDT, keyspace: keyspace, name: name, fields: append([]Field(nil), fields...)}
}

func (t Type) Kind() Kind { return t.kind }

// Keyspace returns the keyspace of a UDT.
func (t Type) Keyspace() string { return t.keyspace }

// Name returns the UDT name, or the class name of a custom type.
func (t Type) Name() string { return t.name }

// Elem returns the element type of a list or set.
func (t Type) Elem() Type {
	if (t.kind == KindList || t.kind == KindSet) && len(t.params) == 1 {
		return t.params[0]
	}
	return Type{}
}

// Key returns the key type of a map.
func (t Type) Key() Type {
	if t.kind == KindMap && len(t.params) == 2 {
		return t.params[0]
	}
	return Type{}
}

// Value returns the value type of a map.
func (t Type) Value() Type {
	if t.kind == KindMap && len(t.params) == 2 {
		return t.params[1]
	}
	return Type{}
}

// Elems returns the element types of a tuple.
func (t Type) Elems() []Type {
	if t.kind != KindTuple {
		return nil
	}
	return append([]Type(nil), t.params...)
}

// NumElems returns the arity of a tuple without copying.
func (t Type) NumElems() int {
	if t.kind != KindTuple {
		return 0
	}
	return len(t.params)
}

// ElemAt returns the i-th tuple element type.
func (t Type) ElemAt(i int) Type {
	return t.params[i]
}

// Fields returns the ordered fields of a UDT.
func (t Type) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// NumFields returns the number of UDT fields without copying.
func (t Type) NumFields() int { return len(t.fields) }

// FieldAt returns the i-th UDT field.
func (t Type) FieldAt(i int) Field { return t.fields[i] }

// Children returns every directly nested type, in wire order.
func (t Type) Children() []Type {
	if t.kind == KindUDT {
		out := make([]Type, len(t.fields))
		for i, f := range t.fields {
			out[i] = f.Type
		}
		return out
	}
	return append([]Type(nil), t.params...)
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind || t.keyspace != o.keyspace || t.name != o.name ||
		len(t.params) != len(o.params) || len(t.fields) != len(o.fields) {
		return false
	}
	for i := range t.params {
		if !t.params[i].Equal(o.params[i]) {
			return false
		}
	}
	for i := range t.fields {
		if t.fields[i].Name != o.fields[i].Name || !t.fields[i].Type.Equal(o.fields[i].Type) {
			return false
		}
	}
	return true
}

// MarshalText renders t in CQL syntax.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// String renders the type in CQL syntax.
func (t Type) String() string {
	var sb strings.Builder
	t.writeTo(&sb)
	return sb.String()
}

func (t Type) writeTo(sb *strings.Builder) {
	switch t.kind {
	case KindList, KindSet, KindMap, KindTuple:
		sb.WriteString(t.kind.String())
		sb.WriteByte('<')
		for i, p := range t.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.writeTo(sb)
		}
		sb.WriteByte('>')
	case KindUDT:
		if t.keyspace != "" {
			sb.WriteString(t.keyspace)
			sb.WriteByte('.')
		}
		sb.WriteString(t.name)
	case KindCustom:
		sb.WriteByte('\'')
		sb.WriteString(t.name)
		sb.WriteByte('\'')
	default:
		sb.WriteString(t.kind.String())
	}
}
