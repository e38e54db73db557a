package device

import (
	"errors"
	"fmt"
)

// Error classes of the device path. Every error returned by this package
// matches exactly one of them with errors.Is.
var (
	ErrEnumeration     = errors.New("device enumeration failed")
	ErrIndex           = errors.New("device index out of range")
	ErrContextCreation = errors.New("context creation failed")
	ErrQueueCreation   = errors.New("command queue creation failed")
	ErrAllocation      = errors.New("buffer allocation failed")
	ErrTransfer        = errors.New("buffer transfer failed")
	ErrBuild           = errors.New("program build failed")
	ErrNoProgram       = errors.New("no programs built")
	ErrKernelLookup    = errors.New("kernel lookup failed")
	ErrArgumentBind    = errors.New("kernel argument bind failed")
	ErrDispatch        = errors.New("kernel dispatch failed")
	ErrFinish          = errors.New("queue finish failed")
)

// ErrNotBuilt indicates the binary was built without OpenCL support.
var ErrNotBuilt = errors.New("opencl support requires building with '-tags opencl'")

// Error attaches an error class and the failing operation to a driver error.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IndexError reports a device index outside the enumerated device list.
type IndexError struct {
	Requested int
	Available int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("requesting device number %d, but only %d exist", e.Requested, e.Available)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}
