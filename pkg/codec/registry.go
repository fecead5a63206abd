// Package codec converts between dynamic values and the CQL binary
// protocol (v4) encoding of a declared column type.
//
// Encoding and decoding share a single per-kind registry: a kind is
// supported in both directions or in neither, and a descriptor naming any
// other kind is reported as ErrUnsupportedColumnType.
package codec

import (
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// encodeFunc appends the body of v, without the length prefix, to dst.
// v is never nil.
type encodeFunc func(dst []byte, v cqlvalue.Value, t cqltype.Type) ([]byte, error)

// decodeFunc decodes a non-null cell body. t has been validated.
type decodeFunc func(d *Decoder, b []byte, t cqltype.Type) (cqlvalue.Value, error)

type kindCodec struct {
	encode encodeFunc
	decode decodeFunc
}

// registry is filled in init since the composite codecs refer back to it.
var registry map[cqltype.Kind]kindCodec

func init() {
	registry = map[cqltype.Kind]kindCodec{
		cqltype.KindAscii:     {encodeText, decodeText},
		cqltype.KindText:      {encodeText, decodeText},
		cqltype.KindBoolean:   {encodeBoolean, decodeBoolean},
		cqltype.KindTinyInt:   {encodeInteger, decodeInteger},
		cqltype.KindSmallInt:  {encodeInteger, decodeInteger},
		cqltype.KindInt:       {encodeInteger, decodeInteger},
		cqltype.KindBigInt:    {encodeInteger, decodeInteger},
		cqltype.KindCounter:   {encodeInteger, decodeInteger},
		cqltype.KindFloat:     {encodeFloat, decodeFloat},
		cqltype.KindDouble:    {encodeDouble, decodeDouble},
		cqltype.KindBlob:      {encodeBlob, decodeBlob},
		cqltype.KindInet:      {encodeInet, decodeInet},
		cqltype.KindVarint:    {encodeVarint, decodeVarint},
		cqltype.KindDecimal:   {encodeDecimal, decodeDecimal},
		cqltype.KindDuration:  {encodeDuration, decodeDuration},
		cqltype.KindTimestamp: {encodeTimestamp, decodeTimestamp},
		cqltype.KindDate:      {encodeDate, decodeDate},
		cqltype.KindTime:      {encodeTime, decodeTime},
		cqltype.KindUUID:      {encodeUUID, decodeUUID},
		cqltype.KindTimeUUID:  {encodeUUID, decodeUUID},
		cqltype.KindList:      {encodeCollection, decodeCollection},
		cqltype.KindSet:       {encodeCollection, decodeCollection},
		cqltype.KindMap:       {encodeMap, decodeMap},
		cqltype.KindTuple:     {encodeTuple, decodeTuple},
		cqltype.KindUDT:       {encodeUDT, decodeUDT},
	}
}

func lookup(t cqltype.Type) (kindCodec, error) {
	c, ok := registry[t.Kind()]
	if !ok {
		return kindCodec{}, Newf(ErrUnsupportedColumnType, "%s", t)
	}
	return c, nil
}

// Supported reports whether values of kind k can be encoded and decoded.
func Supported(k cqltype.Kind) bool {
	_, ok := registry[k]
	return ok
}
