package ssa

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// ErrorKind classifies a fatal assertion.
type ErrorKind int

const (
	// NotImplemented reports a construct the lifter does not handle.
	NotImplemented ErrorKind = iota + 1
	// InvariantViolation reports a graph shape that cannot occur for
	// well-formed input.
	InvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case NotImplemented:
		return "not implemented"
	case InvariantViolation:
		return "invariant violation"
	}
	return "unknown"
}

// Error is a fatal assertion raised while building, optimizing or lowering
// a function. It aborts the function; there is no partial result.
type Error struct {
	Kind ErrorKind
	Func string
	Pos  ir.Pos
	Msg  string
}

func (e *Error) Error() string {
	s := e.Kind.String() + ": " + e.Msg
	if e.Func != "" {
		s = "func " + e.Func + ": " + s
	}
	if e.Pos.IsValid() {
		s = e.Pos.String() + ": " + s
	}
	return s
}

func notImplementedf(inst *ir.Instr, format string, args ...interface{}) *Error {
	e := &Error{Kind: NotImplemented, Msg: fmt.Sprintf(format, args...)}
	if inst != nil {
		e.Pos = inst.Pos
	}
	return e
}

func invariantf(format string, args ...interface{}) *Error {
	return &Error{Kind: InvariantViolation, Msg: fmt.Sprintf(format, args...)}
}

// Catch runs fn and converts a panicking *Error into a returned error
// tagged with the function name. Other panics propagate.
func Catch(fname string, fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(*Error)
		if !ok {
			panic(r)
		}
		if e.Func == "" {
			e.Func = fname
		}
		err = errors.WithStack(e)
	}()
	fn()
	return nil
}

// AsError extracts the *Error behind err, if any.
func AsError(err error) (*Error, bool) {
	e, ok := errors.Cause(err).(*Error)
	return e, ok
}
