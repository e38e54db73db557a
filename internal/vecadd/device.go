package vecadd

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/23skdu/longbow-clvecadd/internal/device"
	"github.com/23skdu/longbow-clvecadd/internal/dispatch"
	"github.com/23skdu/longbow-clvecadd/internal/kernelcache"
)

// Device computes c[i] = a[i] + b[i] for i < min(len(a), len(b)) on the
// engine's device. The inputs are borrowed by the device until Device
// returns and must not be modified concurrently.
func Device[T Element](ctx context.Context, e *Engine, a, b []T) ([]T, error) {
	return deviceRun(ctx, e, uuid.NewString(), a, b)
}

func deviceRun[T Element](ctx context.Context, e *Engine, id string, a, b []T) (c []T, err error) {
	if !e.HasDevice() {
		return nil, &StageError{From: Init, Stage: StageSetup, Err: ErrNoDevice}
	}

	size := min(len(a), len(b))
	typeName := kernelcache.TypeName[T]()

	ctx, span := tracer.Start(ctx, "vecadd.Device")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", id),
		attribute.String("type", typeName),
		attribute.Int("size", size),
	)

	c = make([]T, size)
	if size == 0 {
		return c, nil
	}

	r := &run[T]{e: e, id: id, q: e.ec.Queue()}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "device path failed")
		}
		r.release(err != nil)
	}()

	if err := r.allocate(a[:size], b[:size], c); err != nil {
		return nil, err
	}
	if err := r.prepare(kernelcache.BuildOptions[T](e.cfg.BaseOptions), uint64(size)); err != nil {
		return nil, err
	}
	if err := r.execute(ctx, a[:size], b[:size], c); err != nil {
		return nil, err
	}

	log.Debug().
		Str("run", id).
		Str("type", typeName).
		Int("size", size).
		Msg("Vector addition completed on device")
	return c, nil
}

// run holds the device resources of one Device call.
type run[T Element] struct {
	e     *Engine
	id    string
	q     *device.Queue
	state State

	bufs   []*device.Buffer[T]
	kernel *device.Kernel
	events []*device.Event

	// queued is set once a command reached the queue; stuck once the finish
	// barrier failed and the queue may still be draining.
	queued bool
	stuck  bool
}

func (r *run[T]) fail(stage Stage, err error) error {
	se := &StageError{From: r.state, Stage: stage, Err: err}
	r.state = Failed
	return se
}

func (r *run[T]) allocate(a, b, c []T) error {
	regions := []struct {
		host []T
		mode device.MemMode
	}{
		{a, device.ReadOnly},
		{b, device.ReadOnly},
		{c, device.WriteOnly},
	}
	for _, reg := range regions {
		buf, err := device.Allocate(r.e.ec, reg.host, reg.mode)
		if err != nil {
			return r.fail(StageAllocate, err)
		}
		r.bufs = append(r.bufs, buf)
	}
	r.state = BuffersAllocated
	return nil
}

func (r *run[T]) prepare(options string, n uint64) error {
	cfg := r.e.cfg
	binPath := ""
	if cfg.BinaryDir != "" {
		binPath = kernelcache.BinaryPath(cfg.BinaryDir, cfg.BinaryName, r.e.ec, options)
	}

	build, err := r.e.programs.LoadOrBuild(r.e.ec, binPath, cfg.SourcePath, options)
	if err != nil {
		return r.fail(StageBuild, err)
	}
	k, err := build.Kernel(cfg.Entry)
	if err != nil {
		return r.fail(StageBuild, err)
	}
	r.kernel = k

	mems := []device.Memory{r.bufs[0], r.bufs[1], r.bufs[2]}
	if err := dispatch.BindArguments(k, mems, n); err != nil {
		return r.fail(StageBind, err)
	}
	r.state = KernelReady
	return nil
}

func (r *run[T]) execute(ctx context.Context, a, b, c []T) error {
	writes := make([]*device.Event, 0, 2)
	for i, host := range [][]T{a, b} {
		ev, err := device.Write(r.q, r.bufs[i], host, nil)
		if err != nil {
			return r.fail(StageWrite, err)
		}
		r.track(ev)
		writes = append(writes, ev)
	}

	local := r.e.cfg.LocalSize
	kev, err := dispatch.Submit(r.q, r.kernel, dispatch.WorkSize(local, len(c)), local, writes)
	if err != nil {
		return r.fail(StageDispatch, err)
	}
	r.track(kev)
	r.state = Dispatched

	rev, err := device.Read(r.q, r.bufs[2], c, []*device.Event{kev})
	if err != nil {
		return r.fail(StageRead, err)
	}
	r.track(rev)

	// The barrier outlives the caller: submitted commands cannot be
	// cancelled, so only FinishTimeout bounds the wait.
	fctx := context.WithoutCancel(ctx)
	if timeout := r.e.cfg.FinishTimeout; timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(fctx, timeout)
		defer cancel()
	}
	if err := r.q.Finish(fctx); err != nil {
		r.stuck = true
		return r.fail(StageFinish, err)
	}

	if err := device.CheckEvents(r.events...); err != nil {
		return r.fail(StageEvents, err)
	}
	device.RecordProfiles(r.events...)
	r.state = Completed
	return nil
}

func (r *run[T]) track(ev *device.Event) {
	r.events = append(r.events, ev)
	r.queued = true
}

// release frees the run's resources in reverse order of creation. After a
// failure with queued commands the queue is drained first so no command
// outlives the memory it references.
func (r *run[T]) release(failed bool) {
	if r.stuck {
		r.e.drains.Add(1)
		go func() {
			defer r.e.drains.Done()
			r.drain()
			r.free()
		}()
		return
	}
	if failed && r.queued {
		r.drain()
	}
	r.free()
}

func (r *run[T]) drain() {
	if err := r.q.Finish(context.Background()); err != nil {
		log.Debug().Err(err).Str("run", r.id).Msg("Queue drain failed")
	}
}

func (r *run[T]) free() {
	errs := []error{device.ReleaseEvents(r.events...)}
	if r.kernel != nil {
		errs = append(errs, r.kernel.Release())
	}
	for _, buf := range r.bufs {
		errs = append(errs, buf.Release())
	}
	if err := errors.Join(errs...); err != nil {
		log.Debug().Err(err).Str("run", r.id).Msg("Failed to release device resources")
	}
}
