package session

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

func columnInfo(name string, t cqltype.Type) gocql.ColumnInfo {
	return gocql.ColumnInfo{Keyspace: "ks", Table: "t", Name: name, TypeInfo: cqltype.ToTypeInfo(t, cqltype.ProtoVersion)}
}

func TestRawValue(t *testing.T) {
	info := cqltype.ToTypeInfo(cqltype.Int, cqltype.ProtoVersion)
	b, err := gocql.Marshal(info, rawValue{0, 0, 0, 1})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1}, b)

	b, err = gocql.Marshal(info, rawValue(nil))
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestRawCell(t *testing.T) {
	var c rawCell
	data := []byte{1, 2, 3}
	require.NoError(t, gocql.Unmarshal(cqltype.ToTypeInfo(cqltype.Blob, cqltype.ProtoVersion), data, &c))
	data[0] = 9
	require.Equal(t, []byte{1, 2, 3}, c.b)

	require.NoError(t, c.UnmarshalCQL(nil, nil))
	require.Nil(t, c.b)

	require.NoError(t, c.UnmarshalCQL(nil, []byte{}))
	require.NotNil(t, c.b)
	require.Empty(t, c.b)
}

func TestBinder(t *testing.T) {
	info := &gocql.QueryInfo{Args: []gocql.ColumnInfo{
		columnInfo("id", cqltype.Int),
		columnInfo("name", cqltype.Text),
	}}

	b := &binder{values: []cqlvalue.Value{cqlvalue.Int(7), nil}, failed: atomic.NewBool(false)}
	out, err := b.bind(info)
	require.NoError(t, err)
	require.Equal(t, []interface{}{rawValue{0, 0, 0, 7}, rawValue(nil)}, out)
	require.False(t, b.failed.Load())

	// The cells marshal to exactly what the driver would have produced.
	want, err := gocql.Marshal(info.Args[0].TypeInfo, 7)
	require.NoError(t, err)
	got, err := gocql.Marshal(info.Args[0].TypeInfo, out[0])
	require.NoError(t, err)
	require.Equal(t, want, got)

	b = &binder{values: []cqlvalue.Value{cqlvalue.Text("x"), nil}, failed: atomic.NewBool(false)}
	_, err = b.bind(info)
	require.ErrorIs(t, err, codec.ErrTypeMismatch)
	require.ErrorContains(t, err, "id")
	require.True(t, b.failed.Load())

	b = &binder{values: []cqlvalue.Value{cqlvalue.Int(1)}}
	_, err = b.bind(info)
	require.ErrorIs(t, err, codec.ErrShapeMismatch)
}

func TestScanner(t *testing.T) {
	cols := []gocql.ColumnInfo{
		columnInfo("id", cqltype.Int),
		columnInfo("pair", cqltype.Tuple(cqltype.Int, cqltype.Text)),
		columnInfo("name", cqltype.Text),
	}
	sc := newScanner(cols)
	require.Len(t, sc.dest, 4)

	fill := func(cells ...[]byte) {
		for i, c := range cells {
			sc.cells[i].b = c
		}
	}

	fill([]byte{0, 0, 0, 1}, []byte{0, 0, 0, 2}, []byte("b"), []byte("n"))
	row := sc.row()
	require.Len(t, row, 3)
	require.Equal(t, []byte{0, 0, 0, 1}, row[0])
	require.Equal(t, []byte("n"), row[2])

	v, err := codec.Decode(row[1], cqltype.Tuple(cqltype.Int, cqltype.Text))
	require.NoError(t, err)
	require.Equal(t, cqlvalue.Tuple{cqlvalue.Int(2), cqlvalue.Text("b")}, v)

	// A tuple with one null element keeps it.
	fill([]byte{0, 0, 0, 1}, nil, []byte("b"), nil)
	row = sc.row()
	require.Nil(t, row[2])
	v, err = codec.Decode(row[1], cqltype.Tuple(cqltype.Int, cqltype.Text))
	require.NoError(t, err)
	require.Equal(t, cqlvalue.Tuple{nil, cqlvalue.Text("b")}, v)

	// All elements null reads as a null tuple.
	fill([]byte{0, 0, 0, 1}, nil, nil, nil)
	require.Nil(t, sc.row()[1])
}

func TestJoinTuple(t *testing.T) {
	require.Nil(t, joinTuple(nil))
	require.Nil(t, joinTuple([]rawCell{{}, {}}))
	require.Equal(t,
		[]byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff},
		joinTuple([]rawCell{{b: []byte{}}, {}}),
	)
}
