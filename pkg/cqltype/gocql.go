package cqltype

import (
	"github.com/gocql/gocql"
)

// ProtoVersion is the native protocol version the bridge encodes for.
// Collections use 32 bit sizes, which requires v3 or later.
const ProtoVersion = 4

var fromGocql = map[gocql.Type]Kind{
	gocql.TypeAscii:     KindAscii,
	gocql.TypeText:      KindText,
	gocql.TypeVarchar:   KindText,
	gocql.TypeBoolean:   KindBoolean,
	gocql.TypeTinyInt:   KindTinyInt,
	gocql.TypeSmallInt:  KindSmallInt,
	gocql.TypeInt:       KindInt,
	gocql.TypeBigInt:    KindBigInt,
	gocql.TypeFloat:     KindFloat,
	gocql.TypeDouble:    KindDouble,
	gocql.TypeBlob:      KindBlob,
	gocql.TypeInet:      KindInet,
	gocql.TypeVarint:    KindVarint,
	gocql.TypeDecimal:   KindDecimal,
	gocql.TypeDuration:  KindDuration,
	gocql.TypeTimestamp: KindTimestamp,
	gocql.TypeDate:      KindDate,
	gocql.TypeTime:      KindTime,
	gocql.TypeUUID:      KindUUID,
	gocql.TypeTimeUUID:  KindTimeUUID,
	gocql.TypeCounter:   KindCounter,
}

var toGocql = map[Kind]gocql.Type{
	KindAscii:     gocql.TypeAscii,
	KindText:      gocql.TypeVarchar,
	KindBoolean:   gocql.TypeBoolean,
	KindTinyInt:   gocql.TypeTinyInt,
	KindSmallInt:  gocql.TypeSmallInt,
	KindInt:       gocql.TypeInt,
	KindBigInt:    gocql.TypeBigInt,
	KindFloat:     gocql.TypeFloat,
	KindDouble:    gocql.TypeDouble,
	KindBlob:      gocql.TypeBlob,
	KindInet:      gocql.TypeInet,
	KindVarint:    gocql.TypeVarint,
	KindDecimal:   gocql.TypeDecimal,
	KindDuration:  gocql.TypeDuration,
	KindTimestamp: gocql.TypeTimestamp,
	KindDate:      gocql.TypeDate,
	KindTime:      gocql.TypeTime,
	KindUUID:      gocql.TypeUUID,
	KindTimeUUID:  gocql.TypeTimeUUID,
	KindCounter:   gocql.TypeCounter,
	KindList:      gocql.TypeList,
	KindSet:       gocql.TypeSet,
	KindMap:       gocql.TypeMap,
	KindTuple:     gocql.TypeTuple,
	KindUDT:       gocql.TypeUDT,
	KindCustom:    gocql.TypeCustom,
}

// FromTypeInfo converts driver metadata into a descriptor. Types the bridge
// does not know become Custom so that decoding them fails loudly later
// instead of being guessed here.
func FromTypeInfo(info gocql.TypeInfo) Type {
	if info == nil {
		return Custom("")
	}
	switch t := info.(type) {
	case gocql.CollectionType:
		switch t.Type() {
		case gocql.TypeList:
			return List(FromTypeInfo(t.Elem))
		case gocql.TypeSet:
			return Set(FromTypeInfo(t.Elem))
		case gocql.TypeMap:
			return Map(FromTypeInfo(t.Key), FromTypeInfo(t.Elem))
		}
	case gocql.TupleTypeInfo:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = FromTypeInfo(e)
		}
		return Tuple(elems...)
	case gocql.UDTTypeInfo:
		fields := make([]Field, len(t.Elements))
		for i, e := range t.Elements {
			fields[i] = Field{Name: e.Name, Type: FromTypeInfo(e.Type)}
		}
		return UDT(t.KeySpace, t.Name, fields...)
	}

	if k, ok := fromGocql[info.Type()]; ok {
		return Native(k)
	}
	if info.Type() == gocql.TypeCustom {
		return Custom(info.Custom())
	}
	return Custom(info.Type().String())
}

// FromColumns converts driver column metadata.
func FromColumns(cols []gocql.ColumnInfo) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{Keyspace: c.Keyspace, Table: c.Table, Name: c.Name, Type: FromTypeInfo(c.TypeInfo)}
	}
	return out
}

// ToTypeInfo converts a descriptor into driver metadata for the given
// protocol version.
func ToTypeInfo(t Type, proto byte) gocql.TypeInfo {
	native := gocql.NewNativeType(proto, toGocql[t.kind], "")
	switch t.kind {
	case KindList, KindSet:
		return gocql.CollectionType{NativeType: native, Elem: ToTypeInfo(t.Elem(), proto)}
	case KindMap:
		return gocql.CollectionType{NativeType: native, Key: ToTypeInfo(t.Key(), proto), Elem: ToTypeInfo(t.Value(), proto)}
	case KindTuple:
		elems := make([]gocql.TypeInfo, len(t.params))
		for i, e := range t.params {
			elems[i] = ToTypeInfo(e, proto)
		}
		return gocql.TupleTypeInfo{NativeType: native, Elems: elems}
	case KindUDT:
		fields := make([]gocql.UDTField, len(t.fields))
		for i, f := range t.fields {
			fields[i] = gocql.UDTField{Name: f.Name, Type: ToTypeInfo(f.Type, proto)}
		}
		return gocql.UDTTypeInfo{NativeType: native, KeySpace: t.keyspace, Name: t.name, Elements: fields}
	case KindCustom:
		return gocql.NewNativeType(proto, gocql.TypeCustom, t.name)
	}
	return native
}
