package session

import (
	"strings"
	"unicode"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// Statement is a *Query or a *Prepared.
type Statement interface {
	statement() (string, *Options)
}

// Options override session defaults for one statement.
type Options struct {
	// Consistency and SerialConsistency are left to the session when nil.
	Consistency       *gocql.Consistency
	SerialConsistency *gocql.SerialConsistency
	// PageSize is left to the session when zero.
	PageSize int
	// Tracing asks the coordinator to trace the statement. The trace id is
	// returned in Result.TraceID.
	Tracing bool
}

// SetConsistency sets the consistency of the statement.
func (o *Options) SetConsistency(c gocql.Consistency) { o.Consistency = &c }

// SetSerialConsistency sets the serial consistency of the statement.
func (o *Options) SetSerialConsistency(c gocql.SerialConsistency) { o.SerialConsistency = &c }

func (o *Options) apply(q *gocql.Query) *gocql.Query {
	if o.Consistency != nil {
		q = q.Consistency(*o.Consistency)
	}
	if o.SerialConsistency != nil {
		q = q.SerialConsistency(*o.SerialConsistency)
	}
	if o.PageSize > 0 {
		q = q.PageSize(o.PageSize)
	}
	return q
}

// Query is an unprepared statement. The driver still prepares it behind the
// scenes when it takes parameters, which is how parameter types are known.
type Query struct {
	CQL string
	Options
}

// NewQuery returns a Query with the session's defaults.
func NewQuery(cql string) *Query {
	return &Query{CQL: cql}
}

func (q *Query) statement() (string, *Options) { return q.CQL, &q.Options }

func (q *Query) String() string { return q.CQL }

// Prepared is a statement whose parameter and result columns are known.
type Prepared struct {
	CQL string
	Options
	// Params are the bind markers in order. Anonymous markers are named
	// after the column they are compared to by the server.
	Params []cqltype.Column
	// Columns of the result. Empty for statements that return no rows.
	Columns []cqltype.Column
}

func (p *Prepared) statement() (string, *Options) { return p.CQL, &p.Options }

func (p *Prepared) String() string { return p.CQL }

// Result of a statement.
type Result struct {
	Columns []cqltype.Column
	// Rows has one map per row, keyed by column name. Null columns are
	// absent. Statements without rows yield an empty slice.
	Rows     []*cqlvalue.Map
	Warnings []string
	// TraceID is uuid.Nil unless tracing was requested.
	TraceID uuid.UUID
}

// Batch groups data modifying statements that are sent as one request.
type Batch struct {
	Type gocql.BatchType
	// Consistency and SerialConsistency are left to the session when nil.
	Consistency       *gocql.Consistency
	SerialConsistency *gocql.SerialConsistency
	Statements        []Statement
}

// NewBatch returns an empty batch of the given type.
func NewBatch(typ gocql.BatchType) *Batch {
	return &Batch{Type: typ}
}

// Append adds a statement to the batch. Simple statements that take
// parameters are prepared by the driver every time the batch runs, so
// prefer prepared statements.
func (b *Batch) Append(stmt Statement) *Batch {
	b.Statements = append(b.Statements, stmt)
	return b
}

func (b *Batch) String() string {
	var sb strings.Builder
	sb.WriteString("BATCH [")
	for i, stmt := range b.Statements {
		if i > 0 {
			sb.WriteString("; ")
		}
		cql, _ := stmt.statement()
		sb.WriteString(cql)
	}
	sb.WriteString("]")
	return sb.String()
}

// preparable reports whether the driver prepares stmt before running it.
// Only those statements can take parameters.
func preparable(stmt string) bool {
	stmt = strings.TrimLeftFunc(strings.TrimRightFunc(stmt, func(r rune) bool {
		return unicode.IsSpace(r) || r == ';'
	}), unicode.IsSpace)

	var verb string
	if n := strings.IndexFunc(stmt, unicode.IsSpace); n >= 0 {
		verb = strings.ToLower(stmt[:n])
	}
	if verb == "begin" {
		if n := strings.LastIndexFunc(stmt, unicode.IsSpace); n >= 0 {
			verb = strings.ToLower(stmt[n+1:])
		}
	}
	switch verb {
	case "select", "insert", "update", "delete", "batch":
		return true
	}
	return false
}
