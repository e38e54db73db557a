package vecadd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/x448/float16"

	"github.com/23skdu/longbow-clvecadd/internal/kernelcache"
)

// Path names the computation that produced a result.
type Path string

const (
	PathDevice Path = "device"
	PathHost   Path = "host"
)

// Result is the outcome of Add. Err is the device failure that caused a
// fallback to the host; it is informational.
type Result[T Element] struct {
	C       []T
	Path    Path
	RunID   string
	Err     error
	Elapsed time.Duration
}

// Add computes the elementwise sum of a and b truncated to the shorter
// input. The device is tried first; on any device failure the sum is
// computed on the host instead, so Add always produces a result.
func Add[T Element](ctx context.Context, e *Engine, a, b []T) Result[T] {
	start := time.Now()
	res := Result[T]{RunID: uuid.NewString()}

	strategies := []struct {
		path Path
		run  func() ([]T, error)
	}{
		{PathDevice, func() ([]T, error) {
			return guarded(ctx, e, func() ([]T, error) { return deviceRun(ctx, e, res.RunID, a, b) })
		}},
		{PathHost, func() ([]T, error) { return Host(a, b), nil }},
	}

	for _, s := range strategies {
		c, err := s.run()
		if err != nil {
			res.Err = err
			noteFallback(res.RunID, err)
			continue
		}
		res.C, res.Path = c, s.path
		break
	}

	res.Elapsed = time.Since(start)
	runsTotal.WithLabelValues(string(res.Path), kernelcache.TypeName[T]()).Inc()
	runDuration.WithLabelValues(string(res.Path)).Observe(res.Elapsed.Seconds())
	elementsProcessed.WithLabelValues(string(res.Path)).Add(float64(len(res.C)))
	return res
}

// guarded runs fn behind the engine's breaker. A missing device or a
// caller that went away is not a device failure and does not count against
// the breaker.
func guarded[T Element](ctx context.Context, e *Engine, fn func() ([]T, error)) ([]T, error) {
	if !e.HasDevice() {
		return nil, &StageError{From: Init, Stage: StageSetup, Err: ErrNoDevice}
	}
	if !e.breaker.Allow() {
		return nil, ErrBreakerOpen
	}

	c, err := fn()
	switch {
	case err == nil:
		e.breaker.Success()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		e.breaker.Skip()
	default:
		e.breaker.Failure()
	}
	if e.breaker.State() == BreakerClosed {
		breakerOpen.Set(0)
	} else {
		breakerOpen.Set(1)
	}
	return c, err
}

func noteFallback(id string, err error) {
	if errors.Is(err, ErrNoDevice) {
		log.Trace().Str("run", id).Msg("No device bound, computing on host")
		return
	}
	stage := stageOf(err)
	fallbacksTotal.WithLabelValues(stage).Inc()
	if errors.Is(err, ErrBreakerOpen) {
		log.Debug().Str("run", id).Msg("Device breaker open, computing on host")
		return
	}
	log.Info().Msg("not able to perform vector addition on device, falling back to host...")
	log.Debug().Err(err).Str("run", id).Str("stage", stage).Msg("Device path failure")
}

// AnyResult is a Result whose element type is only known at run time.
type AnyResult struct {
	C       any
	Path    Path
	RunID   string
	Err     error
	Elapsed time.Duration
}

var (
	ErrUnsupportedType = errors.New("unsupported element type")
	ErrTypeMismatch    = errors.New("operand types differ")
)

// AddAny is Add for operands whose slice type is decided by the caller at
// run time, such as decoded request bodies. Both operands must have the
// same slice type.
func (e *Engine) AddAny(ctx context.Context, a, b any) (AnyResult, error) {
	switch x := a.(type) {
	case []int8:
		return addAny(ctx, e, x, b)
	case []int16:
		return addAny(ctx, e, x, b)
	case []int32:
		return addAny(ctx, e, x, b)
	case []int64:
		return addAny(ctx, e, x, b)
	case []uint8:
		return addAny(ctx, e, x, b)
	case []uint16:
		return addAny(ctx, e, x, b)
	case []uint32:
		return addAny(ctx, e, x, b)
	case []uint64:
		return addAny(ctx, e, x, b)
	case []float16.Float16:
		return addAny(ctx, e, x, b)
	case []float32:
		return addAny(ctx, e, x, b)
	case []float64:
		return addAny(ctx, e, x, b)
	case []kernelcache.Char:
		return addAny(ctx, e, x, b)
	}
	return AnyResult{}, fmt.Errorf("%w: %T", ErrUnsupportedType, a)
}

func addAny[T Element](ctx context.Context, e *Engine, a []T, b any) (AnyResult, error) {
	y, ok := b.([]T)
	if !ok {
		return AnyResult{}, fmt.Errorf("%w: %T and %T", ErrTypeMismatch, a, b)
	}
	r := Add(ctx, e, a, y)
	return AnyResult{C: r.C, Path: r.Path, RunID: r.RunID, Err: r.Err, Elapsed: r.Elapsed}, nil
}
