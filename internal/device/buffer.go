package device

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

var errEmptyRegion = errors.New("host region is empty")

// Memory is a device memory object that can be bound as a kernel argument.
type Memory interface {
	memID() MemID
	ByteSize() int
}

// Buffer is a device-visible view of a caller-owned host slice. No copy is
// made at allocation: the device uses the host memory directly, so the slice
// must not be mutated while a command referencing it is in flight. The
// backing array stays pinned until Release.
type Buffer[T any] struct {
	driver Driver
	id     MemID
	host   []T
	mode   MemMode

	pin  runtime.Pinner
	once sync.Once
	err  error
}

var _ Memory = (*Buffer[int32])(nil)

// Allocate creates a buffer backed by host.
func Allocate[T any](ec *ExecContext, host []T, mode MemMode) (*Buffer[T], error) {
	if len(host) == 0 {
		return nil, wrap(ErrAllocation, "error creating buffer", errEmptyRegion)
	}

	b := &Buffer[T]{driver: ec.driver, host: host, mode: mode}
	b.pin.Pin(&host[0])

	id, err := ec.driver.CreateBuffer(ec.id, mode, unsafe.Pointer(&host[0]), b.ByteSize())
	if err != nil {
		b.pin.Unpin()
		return nil, wrap(ErrAllocation, "error creating buffer", err)
	}
	b.id = id

	buffersLive.Inc()
	bufferBytes.Add(float64(b.ByteSize()))
	log.Trace().
		Str("mode", mode.String()).
		Int("len", len(host)).
		Str("size", humanize.Bytes(uint64(b.ByteSize()))).
		Msg("Allocated buffer")
	return b, nil
}

func (b *Buffer[T]) memID() MemID { return b.id }

// Len returns the element count.
func (b *Buffer[T]) Len() int { return len(b.host) }

// Mode returns the device access mode.
func (b *Buffer[T]) Mode() MemMode { return b.mode }

// Host returns the backing host slice.
func (b *Buffer[T]) Host() []T { return b.host }

// ByteSize returns the size of the buffer in bytes.
func (b *Buffer[T]) ByteSize() int {
	return regionSize(b.host)
}

// Release frees the device buffer and unpins the host memory. Commands that
// reference the buffer must have completed.
func (b *Buffer[T]) Release() error {
	b.once.Do(func() {
		b.err = b.driver.ReleaseBuffer(b.id)
		b.pin.Unpin()
		buffersLive.Dec()
		bufferBytes.Sub(float64(b.ByteSize()))
	})
	return b.err
}

// Write submits a non-blocking transfer of the whole host region into buf
// and returns immediately with the pending command's event.
func Write[T any](q *Queue, buf *Buffer[T], host []T, wait []*Event) (*Event, error) {
	return transfer(q, buf, host, wait, KindWrite, "error writing buffer", q.driver.EnqueueWrite)
}

// Read submits a non-blocking transfer of buf into the whole host region.
func Read[T any](q *Queue, buf *Buffer[T], host []T, wait []*Event) (*Event, error) {
	return transfer(q, buf, host, wait, KindRead, "error reading buffer", q.driver.EnqueueRead)
}

type enqueueFunc func(q QueueID, m MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error)

func transfer[T any](q *Queue, buf *Buffer[T], host []T, wait []*Event, kind, op string, enqueue enqueueFunc) (*Event, error) {
	if len(host) == 0 {
		return nil, wrap(ErrTransfer, op, errEmptyRegion)
	}
	if len(host) > buf.Len() {
		return nil, wrap(ErrTransfer, op, fmt.Errorf("host region of %d elements exceeds buffer of %d", len(host), buf.Len()))
	}

	ev := &Event{driver: q.driver, kind: kind}
	ev.pin.Pin(&host[0])
	id, err := enqueue(q.id, buf.id, unsafe.Pointer(&host[0]), regionSize(host), eventIDs(wait))
	if err != nil {
		ev.pin.Unpin()
		return nil, wrap(ErrTransfer, op, err)
	}
	ev.id = id
	commandsEnqueued.WithLabelValues(kind).Inc()
	return ev, nil
}

func regionSize[T any](host []T) int {
	var zero T
	return len(host) * int(unsafe.Sizeof(zero))
}
