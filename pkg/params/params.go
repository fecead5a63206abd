// Package params builds the argument block of a statement: a [short] count
// followed by one [value] per bound parameter.
package params

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// Block is an encoded argument block.
type Block struct {
	buf []byte
	n   int
}

// Encode encodes values against the parameter slots of a statement. With a
// nil ctx each type is inferred from its value, which cannot produce user
// defined types and should be avoided for anything but ad hoc queries.
func Encode(values []cqlvalue.Value, ctx []cqltype.Column) (*Block, error) {
	if ctx != nil && len(values) != len(ctx) {
		return nil, codec.Newf(codec.ErrShapeMismatch, "statement has %d parameters, %d values given", len(ctx), len(values))
	}
	if len(values) > math.MaxUint16 {
		return nil, codec.Newf(codec.ErrShapeMismatch, "%d values exceed the parameter limit", len(values))
	}

	buf := binary.BigEndian.AppendUint16(make([]byte, 0, 2+8*len(values)), uint16(len(values)))
	for i, v := range values {
		var (
			typ cqltype.Type
			seg = slotName(i, ctx)
			err error
		)
		if ctx != nil {
			typ = ctx[i].Type
		} else if typ, err = codec.Infer(v); err != nil {
			return nil, codec.WithPath(err, seg)
		}
		if buf, err = codec.AppendValue(buf, v, typ); err != nil {
			return nil, codec.WithPath(err, seg)
		}
	}
	return &Block{buf: buf, n: len(values)}, nil
}

func slotName(i int, ctx []cqltype.Column) string {
	if ctx != nil && ctx[i].Name != "" {
		return ctx[i].Name
	}
	return fmt.Sprintf("$%d", i+1)
}

// Read parses a serialized block.
func Read(b []byte) (*Block, error) {
	if len(b) < 2 {
		return nil, codec.Newf(codec.ErrMalformedBytes, "argument block of %d bytes", len(b))
	}
	n := int(binary.BigEndian.Uint16(b))
	rest := b[2:]
	for i := 0; i < n; i++ {
		var err error
		if _, rest, err = codec.ReadCell(rest); err != nil {
			return nil, codec.WithPath(err, fmt.Sprintf("$%d", i+1))
		}
	}
	if len(rest) != 0 {
		return nil, codec.Newf(codec.ErrMalformedBytes, "%d trailing bytes after %d values", len(rest), n)
	}
	return &Block{buf: append([]byte(nil), b...), n: n}, nil
}

// Len returns the number of values.
func (b *Block) Len() int { return b.n }

// Bytes returns the serialized block. The slice must not be modified.
func (b *Block) Bytes() []byte { return b.buf }

// Values splits the block into value bodies, nil for null. The bodies
// alias the block.
func (b *Block) Values() [][]byte {
	out := make([][]byte, 0, b.n)
	rest := b.buf[2:]
	for i := 0; i < b.n; i++ {
		// Blocks are well formed by construction.
		cell, r, _ := codec.ReadCell(rest)
		out = append(out, cell)
		rest = r
	}
	return out
}
