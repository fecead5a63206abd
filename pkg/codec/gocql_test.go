package codec

import (
	"math/big"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/inf.v0"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// The driver's own marshalling is the reference for the byte layouts.
func TestMatchesDriverEncoding(t *testing.T) {
	id := uuid.MustParse("c2d2a4a2-8c3a-11ee-b9d1-0242ac120002")
	ts := time.Date(2023, 11, 26, 10, 30, 0, 0, time.UTC)
	person := cqltype.UDT("ks", "person",
		cqltype.Field{Name: "name", Type: cqltype.Text},
		cqltype.Field{Name: "age", Type: cqltype.Int},
	)

	for _, tc := range []struct {
		name   string
		typ    cqltype.Type
		ours   cqlvalue.Value
		driver interface{}
	}{
		{"text", cqltype.Text, cqlvalue.Text("Alice"), "Alice"},
		{"ascii", cqltype.Ascii, cqlvalue.Text("abc"), "abc"},
		{"boolean", cqltype.Boolean, cqlvalue.Bool(true), true},
		{"tinyint", cqltype.TinyInt, cqlvalue.Int(-1), int8(-1)},
		{"smallint", cqltype.SmallInt, cqlvalue.Int(-300), int16(-300)},
		{"int", cqltype.Int, cqlvalue.Int(-123456), int32(-123456)},
		{"bigint", cqltype.BigInt, cqlvalue.Int(1 << 40), int64(1 << 40)},
		{"counter", cqltype.Counter, cqlvalue.Int(7), int64(7)},
		{"float", cqltype.Float, cqlvalue.Float32(3.25), float32(3.25)},
		{"double", cqltype.Double, cqlvalue.Float64(-2.5e100), -2.5e100},
		{"blob", cqltype.Blob, cqlvalue.Blob{1, 2, 3}, []byte{1, 2, 3}},
		{"inet4", cqltype.Inet, cqlvalue.Inet(netip.MustParseAddr("10.1.2.3")), net.ParseIP("10.1.2.3")},
		{"inet6", cqltype.Inet, cqlvalue.Inet(netip.MustParseAddr("fe80::1")), net.ParseIP("fe80::1")},
		{"varint", cqltype.Varint, cqlvalue.NewVarint(new(big.Int).Lsh(big.NewInt(1), 70)), new(big.Int).Lsh(big.NewInt(1), 70)},
		{"small varint", cqltype.Varint, cqlvalue.VarintFromInt64(300), int64(300)},
		{"decimal", cqltype.Decimal, cqlvalue.DecimalOf(big.NewInt(123456), 3), inf.NewDec(123456, 3)},
		{"duration", cqltype.Duration, cqlvalue.Duration{Months: 14, Days: -3, Nanoseconds: 1500}, gocql.Duration{Months: 14, Days: -3, Nanoseconds: 1500}},
		{"timestamp", cqltype.Timestamp, cqlvalue.TimestampOf(ts), ts},
		{"time", cqltype.Time, cqlvalue.Time(10*time.Hour + 30*time.Minute), 10*time.Hour + 30*time.Minute},
		{"uuid", cqltype.UUID, cqlvalue.UUID(id), gocql.UUID(id)},
		{"timeuuid", cqltype.TimeUUID, cqlvalue.UUID(id), gocql.UUID(id)},
		{"list", cqltype.List(cqltype.Int), cqlvalue.List{cqlvalue.Int(1), cqlvalue.Int(2), cqlvalue.Int(3)}, []int32{1, 2, 3}},
		{"set", cqltype.Set(cqltype.Text), cqlvalue.Set{cqlvalue.Text("a")}, []string{"a"}},
		{"map", cqltype.Map(cqltype.Text, cqltype.BigInt), cqlvalue.MapOf("k", cqlvalue.Int(9)), map[string]int64{"k": 9}},
		{"tuple", cqltype.Tuple(cqltype.Int, cqltype.Text), cqlvalue.Tuple{cqlvalue.Int(1), cqlvalue.Text("x")}, []interface{}{int32(1), "x"}},
		{"udt", person, cqlvalue.MapOf("name", cqlvalue.Text("Bob"), "age", cqlvalue.Int(40)), map[string]interface{}{"name": "Bob", "age": int32(40)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			info := cqltype.ToTypeInfo(tc.typ, cqltype.ProtoVersion)
			expected, err := gocql.Marshal(info, tc.driver)
			require.NoError(t, err)

			actual, err := Marshal(tc.ours, tc.typ)
			require.NoError(t, err)
			require.Equal(t, expected, actual)

			// And the driver reads back what we decode.
			decoded, err := Decode(expected, tc.typ)
			require.NoError(t, err)
			again, err := Marshal(decoded, tc.typ)
			require.NoError(t, err)
			require.Equal(t, expected, again)
		})
	}
}
