package cqlvalue

import (
	"math/big"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/inf.v0"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap(0)
	m.Set("b", Int(1)).Set("a", Int(2)).Set("c", Int(3))
	m.Set("a", Int(20))

	require.Equal(t, []string{"b", "a", "c"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, Int(20), v)
	require.Equal(t, 3, m.Len())
	require.Equal(t, `{"b": 1, "a": 20, "c": 3}`, m.String())
}

func TestMapEqual(t *testing.T) {
	a := MapOf("x", Int(1), "y", Text("y"))
	require.True(t, a.Equal(MapOf("x", Int(1), "y", Text("y"))))
	require.False(t, a.Equal(MapOf("y", Text("y"), "x", Int(1))))
	require.False(t, a.Equal(MapOf("x", Int(1))))

	var empty *Map
	require.True(t, empty.Equal(NewMap(0)))
	require.Equal(t, 0, empty.Len())
	require.False(t, empty.Has("x"))
}

func TestEqual(t *testing.T) {
	for _, tc := range []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"nil", nil, nil, true},
		{"nil vs value", nil, Int(0), false},
		{"kinds differ", Int(1), Uint32(1), false},
		{"blob", Blob{1, 2}, Blob{1, 2}, true},
		{"varint", VarintFromInt64(-5), NewVarint(big.NewInt(-5)), true},
		{"decimal scale matters", DecimalOf(big.NewInt(10), 1), DecimalOf(big.NewInt(100), 2), false},
		{"decimal", mustDecimal(t, "-1.25"), DecimalOf(big.NewInt(-125), 2), true},
		{"list", List{Int(1), Int(2)}, List{Int(1), Int(2)}, true},
		{"list order", List{Int(1), Int(2)}, List{Int(2), Int(1)}, false},
		{"tuple with null", Tuple{Int(1), nil}, Tuple{Int(1), nil}, true},
		{"duration", Duration{1, 2, 3}, Duration{1, 2, 3}, true},
		{"inet", Inet(netip.MustParseAddr("10.0.0.1")), Inet(netip.MustParseAddr("10.0.0.1")), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.equal, Equal(tc.a, tc.b))
		})
	}
}

func mustDecimal(t *testing.T, s string) Decimal {
	d, err := ParseDecimal(s)
	require.NoError(t, err)
	return d
}

func TestVarintFromBytes(t *testing.T) {
	require.Equal(t, "-1", VarintFromBytes([]byte{0xff}).String())
	require.Equal(t, "255", VarintFromBytes([]byte{0x00, 0xff}).String())
	require.Equal(t, "-129", VarintFromBytes([]byte{0xff, 0x7f}).String())
	// Non normalized input keeps its value.
	require.Equal(t, "-1", VarintFromBytes([]byte{0xff, 0xff, 0xff}).String())
	require.Equal(t, "0", VarintFromBytes(nil).String())
}

func TestVarintIsCopied(t *testing.T) {
	n := big.NewInt(7)
	v := NewVarint(n)
	n.SetInt64(8)
	require.Equal(t, "7", v.String())
	v.Big().SetInt64(9)
	require.Equal(t, "7", v.String())
}

func TestDecimal(t *testing.T) {
	d, err := ParseDecimal("12.340")
	require.NoError(t, err)
	require.Equal(t, int32(3), d.Scale())
	require.Equal(t, "12340", d.Unscaled().String())
	require.Equal(t, "12.340", d.String())

	_, err = ParseDecimal("twelve")
	require.Error(t, err)
}

func TestDatesAndTimes(t *testing.T) {
	day := time.Date(2024, 2, 29, 13, 14, 15, 16, time.UTC)
	require.Equal(t, "2024-02-29", DateOf(day).String())
	require.Equal(t, Date(-1), DateOf(time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)))
	require.Equal(t, Date(0), DateOf(time.Unix(0, 0)))

	tod := TimeOf(day)
	require.True(t, tod.Valid())
	require.Equal(t, "13:14:15.000000016", tod.String())
	require.False(t, Time(24*time.Hour).Valid())
	require.False(t, Time(-1).Valid())

	ts := TimestampOf(day)
	require.True(t, day.Truncate(time.Millisecond).Equal(ts.Time()))
}

func TestOf(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	for _, tc := range []struct {
		in       interface{}
		expected Value
	}{
		{nil, nil},
		{"a", Text("a")},
		{42, Int(42)},
		{int8(-1), Int(-1)},
		{uint32(7), Uint32(7)},
		{uint64(1 << 63), NewVarint(new(big.Int).SetUint64(1 << 63))},
		{float32(1.5), Float32(1.5)},
		{2.5, Float64(2.5)},
		{true, Bool(true)},
		{[]byte{1}, Blob{1}},
		{id, UUID(id)},
		{big.NewInt(3), VarintFromInt64(3)},
		{inf.NewDec(15, 1), DecimalOf(big.NewInt(15), 1)},
		{now, TimestampOf(now)},
		{netip.MustParseAddr("::1"), Inet(netip.MustParseAddr("::1"))},
		{[]interface{}{1, "x"}, List{Int(1), Text("x")}},
		{[]string{"x"}, List{Text("x")}},
		{map[string]interface{}{"b": 1, "a": nil}, MapOf("a", nil, "b", Int(1))},
		{Int(5), Int(5)},
		{(*Map)(nil), nil},
	} {
		got, err := Of(tc.in)
		require.NoError(t, err)
		require.True(t, Equal(tc.expected, got), "%v: expected %v, got %v", tc.in, tc.expected, got)
		if tc.expected == nil {
			require.True(t, got == nil, "%v: expected an untyped nil", tc.in)
		}
	}

	_, err := Of(struct{}{})
	require.Error(t, err)
	_, err = Of([]interface{}{struct{}{}})
	require.Error(t, err)
}

func TestToNative(t *testing.T) {
	m := MapOf("id", Int(1), "tags", List{Text("a")}, "rate", DecimalOf(big.NewInt(5), 1))
	native := ToNative(m).(map[string]interface{})
	require.Equal(t, int64(1), native["id"])
	require.Equal(t, []interface{}{"a"}, native["tags"])
	require.Equal(t, "0.5", native["rate"].(*inf.Dec).String())
	require.Nil(t, ToNative(nil))
}

func TestMarshalJSON(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	row := MapOf(
		"name", Text("Alice"),
		"id", UUID(id),
		"age", Int(30),
		"big", VarintFromInt64(1<<62),
		"blob", Blob("hi"),
		"tags", Set{Text("a"), Text("b")},
		"ttl", Duration{Months: 1, Days: 2, Nanoseconds: 3},
		"at", Timestamp(1500),
		"nothing", nil,
	)
	out, err := row.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name": "Alice",
		"id": "123e4567-e89b-12d3-a456-426614174000",
		"age": 30,
		"big": "4611686018427387904",
		"blob": "aGk=",
		"tags": ["a", "b"],
		"ttl": {"months": 1, "days": 2, "nanoseconds": 3},
		"at": 1500,
		"nothing": null
	}`, string(out))
	// Key order follows insertion order.
	require.True(t, len(out) > 8 && string(out[:8]) == `{"name":`)

	out, err = MarshalJSON(Tuple{Int(1), nil})
	require.NoError(t, err)
	require.Equal(t, `[1,null]`, string(out))
}
