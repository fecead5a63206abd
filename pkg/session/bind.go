package session

import (
	"github.com/gocql/gocql"
	"go.uber.org/atomic"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
	"github.com/grafana/cqlbridge/pkg/params"
)

// rawValue is a parameter that is already encoded. nil is null.
type rawValue []byte

func (v rawValue) MarshalCQL(gocql.TypeInfo) ([]byte, error) {
	return v, nil
}

// rawCell captures a result cell without decoding it.
type rawCell struct {
	b []byte
}

func (c *rawCell) UnmarshalCQL(_ gocql.TypeInfo, data []byte) error {
	if data == nil {
		c.b = nil
		return nil
	}
	// The driver reuses its frame buffers.
	c.b = append(make([]byte, 0, len(data)), data...)
	return nil
}

// binder encodes values once the driver has prepared the statement and
// knows its parameter types.
type binder struct {
	values []cqlvalue.Value
	// failed is shared by the binders of one request so that retries can
	// give up on encoding errors.
	failed *atomic.Bool
}

func (b *binder) bind(info *gocql.QueryInfo) ([]interface{}, error) {
	block, err := params.Encode(b.values, cqltype.FromColumns(info.Args))
	if err != nil {
		if b.failed != nil {
			b.failed.Store(true)
		}
		return nil, err
	}
	cells := block.Values()
	out := make([]interface{}, len(cells))
	for i, cell := range cells {
		out[i] = rawValue(cell)
	}
	return out, nil
}

// scanner reads rows as raw cells. The driver hands every element of a
// tuple column to its own destination, so a row has one destination per
// tuple element and tuples are put back together here.
type scanner struct {
	cols  []gocql.ColumnInfo
	cells []rawCell
	dest  []interface{}
}

func newScanner(cols []gocql.ColumnInfo) *scanner {
	n := 0
	for _, c := range cols {
		n += width(c)
	}
	s := &scanner{cols: cols, cells: make([]rawCell, n), dest: make([]interface{}, n)}
	for i := range s.cells {
		s.dest[i] = &s.cells[i]
	}
	return s
}

func width(c gocql.ColumnInfo) int {
	if t, ok := c.TypeInfo.(gocql.TupleTypeInfo); ok {
		return len(t.Elems)
	}
	return 1
}

// row returns the cells of the last scanned row, one per column.
func (s *scanner) row() [][]byte {
	out := make([][]byte, len(s.cols))
	i := 0
	for j, c := range s.cols {
		w := width(c)
		if _, ok := c.TypeInfo.(gocql.TupleTypeInfo); ok {
			out[j] = joinTuple(s.cells[i : i+w])
		} else {
			out[j] = s.cells[i].b
		}
		i += w
	}
	return out
}

// joinTuple rebuilds a tuple cell from its elements. A tuple whose elements
// are all null cannot be told apart from a null tuple and reads as null.
func joinTuple(elems []rawCell) []byte {
	null := true
	size := 0
	for _, e := range elems {
		if e.b != nil {
			null = false
		}
		size += 4 + len(e.b)
	}
	if null {
		return nil
	}
	buf := make([]byte, 0, size)
	for _, e := range elems {
		buf = codec.AppendCell(buf, e.b)
	}
	return buf
}
