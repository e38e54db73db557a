package vecadd

import (
	"errors"
	"fmt"
)

// State is the progress of one device run.
type State int

const (
	Init State = iota
	BuffersAllocated
	KernelReady
	Dispatched
	Completed
	Failed
)

var stateNames = [...]string{"init", "buffers-allocated", "kernel-ready", "dispatched", "completed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Stage names the step of a device run that failed.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageAllocate Stage = "allocate"
	StageBuild    Stage = "build"
	StageBind     Stage = "bind"
	StageWrite    Stage = "write"
	StageDispatch Stage = "dispatch"
	StageRead     Stage = "read"
	StageFinish   Stage = "finish"
	StageEvents   Stage = "events"
)

// ErrNoDevice is returned by device runs on an engine without a bound
// execution context.
var ErrNoDevice = errors.New("no device bound")

// ErrBreakerOpen is returned when the breaker skipped the device.
var ErrBreakerOpen = errors.New("device breaker open")

// StageError reports a failed device run. From is the last state reached
// before the failure.
type StageError struct {
	From  State
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("device path failed at %s stage (state %s): %v", e.Stage, e.From, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	if errors.Is(err, ErrBreakerOpen) {
		return "breaker"
	}
	return "unknown"
}
