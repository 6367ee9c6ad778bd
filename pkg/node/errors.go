package node

import (
	"fmt"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/pkg/errors"
)

// Steps of Run an error can come from.
const (
	PhaseRead   = "read"
	PhaseDecode = "decode"
	PhaseHandle = "handle"
	PhaseWrite  = "write"
)

// MalformedInputError reports a record that could not be decoded into a
// Message. Line is 1-based and zero when the record did not come from Run.
type MalformedInputError struct {
	Line int
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Code is the Maelstrom error code matching this failure.
func (e *MalformedInputError) Code() int { return maelstrom.MalformedRequest }

// RPCError renders the failure the way Maelstrom reports errors.
func (e *MalformedInputError) RPCError() *maelstrom.RPCError {
	return maelstrom.NewRPCError(e.Code(), e.Error())
}

// WriteFailureError reports a reply the output stream did not accept.
type WriteFailureError struct {
	Err error
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("write failure: %v", e.Err)
}

func (e *WriteFailureError) Unwrap() error { return e.Err }

func (e *WriteFailureError) Code() int { return maelstrom.Crash }

func (e *WriteFailureError) RPCError() *maelstrom.RPCError {
	return maelstrom.NewRPCError(e.Code(), e.Error())
}

// stageError tags a failure of Run that has no dedicated type with its step.
type stageError struct {
	phase string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

// Phase names the step of Run that produced err, or "" when err did not come
// from Run.
func Phase(err error) string {
	var malformed *MalformedInputError
	var write *WriteFailureError
	var stage *stageError

	switch {
	case errors.As(err, &malformed):
		return PhaseDecode
	case errors.As(err, &write):
		return PhaseWrite
	case errors.As(err, &stage):
		return stage.phase
	default:
		return ""
	}
}
