package domain

import (
	"errors"
	"fmt"
)

// Contract sentinels. They are wrapped by ContractViolation and never returned
// as ordinary errors: a violation means generated code or the host is broken.
var (
	ErrStackOverflow    = errors.New("frame stack overflow")
	ErrEmptyStack       = errors.New("no active frame")
	ErrNilNode          = errors.New("nil node procedure")
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrBufferOverflow   = errors.New("buffer capacity exceeded")
	ErrKeyOutOfRange    = errors.New("flag key out of range")
	ErrInvalidStep      = errors.New("invalid resume label")
	ErrParamKind        = errors.New("attribute parameter kind mismatch")
	ErrUnknownVariable  = errors.New("unknown story variable")
	ErrVariableKind     = errors.New("story variable kind mismatch")
)

// ErrSaveNotFound is returned when a save slot cannot be found in the store.
var ErrSaveNotFound = errors.New("save not found")

// ErrUnknownNode is returned when a snapshot references a node the registry does not know.
var ErrUnknownNode = errors.New("unknown node")

// ContractViolation is the panic value raised on programmer errors.
type ContractViolation struct {
	Op     string
	Err    error
	Detail string
}

func (c *ContractViolation) Error() string {
	if c.Detail == "" {
		return fmt.Sprintf("threadbare: %s: %v", c.Op, c.Err)
	}
	return fmt.Sprintf("threadbare: %s: %v: %s", c.Op, c.Err, c.Detail)
}

func (c *ContractViolation) Unwrap() error { return c.Err }

// Violate panics with a ContractViolation.
func Violate(op string, err error, format string, args ...any) {
	panic(&ContractViolation{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)})
}
