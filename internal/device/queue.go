package device

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Queue is a command queue. With QueueOutOfOrder, ordering between commands
// comes only from the wait lists passed at submission.
type Queue struct {
	driver Driver
	id     QueueID
	props  QueueProperties
}

// Properties reports the flags the queue was created with.
func (q *Queue) Properties() QueueProperties { return q.props }

// Finish blocks until every command submitted to the queue has completed.
// Submitted work cannot be cancelled; when ctx expires first Finish returns
// while the driver keeps draining in the background.
func (q *Queue) Finish(ctx context.Context) error {
	if ctx.Done() == nil {
		if err := q.driver.Finish(q.id); err != nil {
			return wrap(ErrFinish, "cannot finish queue", err)
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- q.driver.Finish(q.id) }()
	select {
	case err := <-done:
		if err != nil {
			return wrap(ErrFinish, "cannot finish queue", err)
		}
		return nil
	case <-ctx.Done():
		return wrap(ErrFinish, "cannot finish queue", ctx.Err())
	}
}

// EnqueueKernel submits a one-dimensional kernel dispatch.
func (q *Queue) EnqueueKernel(k *Kernel, global, local int, wait []*Event) (*Event, error) {
	id, err := q.driver.EnqueueKernel(q.id, k.id, global, local, eventIDs(wait))
	if err != nil {
		return nil, err
	}
	commandsEnqueued.WithLabelValues(KindKernel).Inc()
	return &Event{driver: q.driver, id: id, kind: KindKernel}, nil
}

// Command kinds recorded on events.
const (
	KindWrite  = "write"
	KindRead   = "read"
	KindKernel = "kernel"
)

// Event is the completion handle of exactly one submitted command.
type Event struct {
	driver Driver
	id     EventID
	kind   string

	pin      runtime.Pinner
	once     sync.Once
	released error
}

// Kind returns the command kind the event belongs to.
func (e *Event) Kind() string { return e.kind }

// Status queries the execution status of the command.
func (e *Event) Status() (EventStatus, error) {
	return e.driver.EventStatus(e.id)
}

// Err returns a non-nil error when the command finished with an error
// status. Transfers report ErrTransfer and kernels ErrDispatch.
func (e *Event) Err() error {
	st, err := e.Status()
	if err != nil {
		return wrap(e.errKind(), fmt.Sprintf("error querying %s event", e.kind), err)
	}
	if st < 0 {
		return wrap(e.errKind(), fmt.Sprintf("%s command failed", e.kind), statusError("execution status", int(st)))
	}
	return nil
}

func (e *Event) errKind() error {
	if e.kind == KindKernel {
		return ErrDispatch
	}
	return ErrTransfer
}

// Profile returns the device timestamps of the command.
func (e *Event) Profile() (Profile, error) {
	return e.driver.EventProfile(e.id)
}

// Release frees the event and unpins the host region of a transfer. It must
// only be called once the command is known to be complete.
func (e *Event) Release() error {
	e.once.Do(func() {
		e.released = e.driver.ReleaseEvent(e.id)
		e.pin.Unpin()
	})
	return e.released
}

// CheckEvents returns the errors of every failed command, joined.
func CheckEvents(events ...*Event) error {
	var errs []error
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := ev.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordProfiles feeds the profiling timestamps of completed commands into
// the command duration histogram.
func RecordProfiles(events ...*Event) {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		p, err := ev.Profile()
		if err != nil || p.End < p.Start {
			continue
		}
		d := time.Duration(p.End - p.Start)
		commandDuration.WithLabelValues(ev.kind).Observe(d.Seconds())
		log.Trace().Str("kind", ev.kind).Dur("device_time", d).Msg("Command profile")
	}
}

// ReleaseEvents releases every non-nil event.
func ReleaseEvents(events ...*Event) error {
	var errs []error
	for _, ev := range events {
		if ev == nil {
			continue
		}
		errs = append(errs, ev.Release())
	}
	return errors.Join(errs...)
}

func eventIDs(events []*Event) []EventID {
	if len(events) == 0 {
		return nil
	}
	ids := make([]EventID, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			ids = append(ids, ev.id)
		}
	}
	return ids
}
