package session

import (
	"fmt"
	"strings"

	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// QueryError is returned when a statement could not be executed or its
// result could not be decoded.
type QueryError struct {
	Statement string
	Params    []cqlvalue.Value
	Err       error
}

func (e *QueryError) Error() string {
	var sb strings.Builder
	sb.WriteString("executing [")
	sb.WriteString(e.Statement)
	sb.WriteString("]")
	if len(e.Params) > 0 {
		sb.WriteString(" with ")
		sb.WriteString(cqlvalue.Tuple(e.Params).String())
	}
	fmt.Fprintf(&sb, ": %v", e.Err)
	return sb.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryError(stmt string, params []cqlvalue.Value, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Statement: stmt, Params: params, Err: err}
}
