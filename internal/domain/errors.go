package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for mock operations
var (
	// ErrNodeUnreachable is returned when an RPC round trip to the node fails
	ErrNodeUnreachable = errors.New("node unreachable")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidDomain is returned when a domain cannot be normalized or hashed
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrAccountIndexOutOfRange is returned when the owner account index does not exist on the node
	ErrAccountIndexOutOfRange = errors.New("account index out of range")

	// ErrInvalidSlot is returned when a storage slot is malformed
	ErrInvalidSlot = errors.New("invalid storage slot")

	// ErrBytecodeUnavailable is returned when no source can provide contract bytecode
	ErrBytecodeUnavailable = errors.New("bytecode unavailable")

	// ErrUnknownConsumer is returned when a configured consumer name is not supported
	ErrUnknownConsumer = errors.New("unknown consumer")
)

// NodeError wraps a failed RPC round trip. It matches ErrNodeUnreachable
// and unwraps to the transport error.
type NodeError struct {
	Method string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNodeUnreachable, e.Method, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return target == ErrNodeUnreachable
}

// AccountIndexErr reports the requested index and the number of accounts available
type AccountIndexErr struct {
	Index    int
	Accounts int
}

func (e AccountIndexErr) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: index %d is negative", ErrAccountIndexOutOfRange, e.Index)
	}
	return fmt.Sprintf("%s: index %d, node has %d accounts", ErrAccountIndexOutOfRange, e.Index, e.Accounts)
}

func (e AccountIndexErr) Is(target error) bool {
	return target == ErrAccountIndexOutOfRange
}
