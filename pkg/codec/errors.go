package codec

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these, test with errors.Is.
var (
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrNumericOverflow       = errors.New("numeric overflow")
	ErrUnsupportedColumnType = errors.New("unsupported column type")
	ErrUnsupportedNesting    = errors.New("unsupported nesting")
	ErrUnsupportedMapKeyType = errors.New("unsupported map key type")
	ErrMalformedBytes        = errors.New("malformed bytes")
	ErrShapeMismatch         = errors.New("shape mismatch")
)

// Error is a codec failure at a position inside a value. Path uses dots for
// record fields and columns, [i] for list, set and tuple positions and {k}
// for map entries, e.g. "person.tags[2]".
type Error struct {
	Err  error
	Path string
	Msg  string
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Newf builds an Error of the given kind at the top level.
func Newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Err: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithPath prefixes the position of err with seg. Errors that are not an
// *Error are returned untouched.
func WithPath(err error, seg string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	switch {
	case e.Path == "":
		e.Path = seg
	case e.Path[0] == '[' || e.Path[0] == '{':
		e.Path = seg + e.Path
	default:
		e.Path = seg + "." + e.Path
	}
	return err
}

func index(i int) string { return fmt.Sprintf("[%d]", i) }

func mismatch(t fmt.Stringer, got string) *Error {
	return Newf(ErrTypeMismatch, "cannot use %s as %s", got, t)
}

func overflow(t fmt.Stringer, v fmt.Stringer) *Error {
	return Newf(ErrNumericOverflow, "%s does not fit %s", v, t)
}

func malformed(t fmt.Stringer, format string, args ...interface{}) *Error {
	return Newf(ErrMalformedBytes, "%s: %s", t, fmt.Sprintf(format, args...))
}
