// Package dispatch sizes, binds and submits one-dimensional kernel launches.
package dispatch

import (
	"fmt"

	"github.com/23skdu/longbow-clvecadd/internal/device"
)

// DefaultLocalSize is the work-group size used for vector kernels.
const DefaultLocalSize = 256

// WorkSize rounds elements up to the next multiple of local. Kernels launched
// with it must bounds-check the work-item index against the element count.
func WorkSize(local, elements int) int {
	if local <= 0 {
		panic(fmt.Sprintf("dispatch: local work size must be positive, got %d", local))
	}
	return (elements + local - 1) / local * local
}

// ArgumentBindError identifies the argument that could not be bound. Index
// is 1-based.
type ArgumentBindError struct {
	Index int
	Err   error
}

func (e *ArgumentBindError) Error() string {
	return fmt.Sprintf("error setting kernel argument %d: %v", e.Index, e.Err)
}

func (e *ArgumentBindError) Unwrap() []error {
	return []error{device.ErrArgumentBind, e.Err}
}

// BindArguments binds buffers by position followed by the scalars. By
// convention the inputs come first and the output buffer last.
func BindArguments(k *device.Kernel, buffers []device.Memory, scalars ...any) error {
	idx := 0
	for _, b := range buffers {
		if err := k.SetArg(idx, b); err != nil {
			return &ArgumentBindError{Index: idx + 1, Err: err}
		}
		idx++
	}
	for _, s := range scalars {
		if err := k.SetArg(idx, s); err != nil {
			return &ArgumentBindError{Index: idx + 1, Err: err}
		}
		idx++
	}
	return nil
}

// Submit enqueues a one-dimensional dispatch of k that starts once every
// event in wait has completed.
func Submit(q *device.Queue, k *device.Kernel, global, local int, wait []*device.Event) (*device.Event, error) {
	ev, err := q.EnqueueKernel(k, global, local, wait)
	if err != nil {
		return nil, &device.Error{Kind: device.ErrDispatch, Op: "error executing kernel", Err: err}
	}
	return ev, nil
}
