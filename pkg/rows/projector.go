// Package rows turns the raw cells of a result set into one map per row.
package rows

import (
	"context"
	"fmt"

	"github.com/grafana/dskit/concurrency"
	"github.com/grafana/dskit/multierror"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// FailurePolicy decides what a decoding error costs.
type FailurePolicy int

const (
	// FailStatement aborts the projection on the first bad cell.
	FailStatement FailurePolicy = iota
	// FailRow leaves a nil map in place of each bad row and returns every
	// row error together with the rows that did decode.
	FailRow
)

func (p FailurePolicy) String() string {
	switch p {
	case FailStatement:
		return "statement"
	case FailRow:
		return "row"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy parses "statement" or "row".
func ParsePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "statement", "":
		return FailStatement, nil
	case "row":
		return FailRow, nil
	}
	return 0, fmt.Errorf("unknown failure policy %q, expected statement or row", s)
}

// Projector decodes result rows. The zero value decodes sequentially with
// the default decoder and fails the whole statement on the first error.
type Projector struct {
	Policy FailurePolicy
	// Parallelism above 1 decodes rows concurrently. Output order is the
	// input order either way.
	Parallelism int
	Decoder     *codec.Decoder
}

// Project decodes rows against cols. Null cells are left out of the row
// maps. A result without rows yields an empty, non-nil slice.
//
// Rows are keyed by column name, so when cols repeats a name (SELECT a, a)
// the last non-null cell with that name wins. Alias the columns to keep both.
//
// Shape and column type errors fail the statement regardless of Policy,
// since no row could decode.
func (p *Projector) Project(ctx context.Context, rows [][][]byte, cols []cqltype.Column) ([]*cqlvalue.Map, error) {
	dec := p.Decoder
	if dec == nil {
		dec = codec.NewDecoder()
	}
	columns := make([]*codec.ColumnDecoder, len(cols))
	for i, c := range cols {
		cd, err := dec.For(c.Type)
		if err != nil {
			return nil, codec.WithPath(err, c.Name)
		}
		columns[i] = cd
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, codec.Newf(codec.ErrShapeMismatch, "row %d has %d cells for %d columns", i, len(row), len(cols))
		}
	}

	out := make([]*cqlvalue.Map, len(rows))
	rowErrs := make([]error, len(rows))
	decodeRow := func(_ context.Context, i int) error {
		m, err := projectRow(rows[i], cols, columns)
		if err != nil {
			err = errors.Wrapf(err, "row %d", i)
			if p.Policy == FailStatement {
				return err
			}
			rowErrs[i] = err
			return nil
		}
		out[i] = m
		return nil
	}

	if p.Parallelism > 1 && len(rows) > 1 {
		if err := concurrency.ForEachJob(ctx, len(rows), p.Parallelism, decodeRow); err != nil {
			return nil, err
		}
	} else {
		for i := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := decodeRow(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	errs := multierror.New()
	for _, err := range rowErrs {
		if err != nil {
			errs.Add(err)
		}
	}
	return out, errs.Err()
}

func projectRow(row [][]byte, cols []cqltype.Column, columns []*codec.ColumnDecoder) (*cqlvalue.Map, error) {
	m := cqlvalue.NewMap(len(cols))
	for j, cell := range row {
		v, err := columns[j].Decode(cell)
		if err != nil {
			return nil, codec.WithPath(err, cols[j].Name)
		}
		if v != nil {
			m.Set(cols[j].Name, v)
		}
	}
	return m, nil
}
