package cqlvalue

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders the map as a JSON object, keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	WriteJSON(stream, m)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// MarshalJSON renders any value, including nil, as JSON.
func MarshalJSON(v Value) ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	WriteJSON(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// WriteJSON writes v to stream. Integers that do not fit a float64 exactly
// (varint, decimal) are written as strings, timestamps as milliseconds,
// dates and times in their CQL literal form and blobs as base64.
func WriteJSON(stream *jsoniter.Stream, v Value) {
	switch x := v.(type) {
	case nil:
		stream.WriteNil()
	case Text:
		stream.WriteString(string(x))
	case Int:
		stream.WriteInt64(int64(x))
	case Uint32:
		stream.WriteUint32(uint32(x))
	case Float32:
		stream.WriteFloat32(float32(x))
	case Float64:
		stream.WriteFloat64(float64(x))
	case Bool:
		stream.WriteBool(bool(x))
	case Blob:
		stream.WriteVal([]byte(x))
	case Timestamp:
		stream.WriteInt64(int64(x))
	case Duration:
		stream.WriteObjectStart()
		stream.WriteObjectField("months")
		stream.WriteInt32(x.Months)
		stream.WriteMore()
		stream.WriteObjectField("days")
		stream.WriteInt32(x.Days)
		stream.WriteMore()
		stream.WriteObjectField("nanoseconds")
		stream.WriteInt64(x.Nanoseconds)
		stream.WriteObjectEnd()
	case List:
		writeJSONArray(stream, x)
	case Set:
		writeJSONArray(stream, x)
	case Tuple:
		writeJSONArray(stream, x)
	case *Map:
		stream.WriteObjectStart()
		first := true
		x.Range(func(k string, e Value) bool {
			if !first {
				stream.WriteMore()
			}
			first = false
			stream.WriteObjectField(k)
			WriteJSON(stream, e)
			return true
		})
		stream.WriteObjectEnd()
	default:
		// uuid, varint, decimal, date, time, inet
		stream.WriteString(v.String())
	}
}

func writeJSONArray(stream *jsoniter.Stream, vs []Value) {
	stream.WriteArrayStart()
	for i, e := range vs {
		if i > 0 {
			stream.WriteMore()
		}
		WriteJSON(stream, e)
	}
	stream.WriteArrayEnd()
}
