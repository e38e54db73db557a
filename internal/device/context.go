package device

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ExecContext binds one device to a context and an out-of-order, profiling
// command queue. It is created once per run and closed by its creator.
type ExecContext struct {
	driver Driver
	device Device
	id     ContextID
	queue  *Queue

	closeOnce sync.Once
	closeErr  error
}

// Bind creates a context and command queue for devices[index]. An index out
// of range fails with *IndexError before any driver call is made.
func Bind(devices []Device, index int) (*ExecContext, error) {
	if index < 0 || index >= len(devices) {
		return nil, &IndexError{Requested: index, Available: len(devices)}
	}
	dev := devices[index]
	drv := dev.driver

	ctxID, err := drv.CreateContext(dev.id)
	if err != nil {
		return nil, wrap(ErrContextCreation, "error getting context", err)
	}

	props := QueueOutOfOrder | QueueProfiling
	qID, err := drv.CreateQueue(ctxID, dev.id, props)
	if err != nil {
		_ = drv.ReleaseContext(ctxID)
		return nil, wrap(ErrQueueCreation, "not able to create command queue", err)
	}

	log.Debug().
		Str("driver", drv.Name()).
		Str("device", dev.Info.Name).
		Int("index", index).
		Msg("Bound execution context")

	return &ExecContext{
		driver: drv,
		device: dev,
		id:     ctxID,
		queue:  &Queue{driver: drv, id: qID, props: props},
	}, nil
}

// Device returns the bound device.
func (c *ExecContext) Device() Device { return c.device }

// Driver returns the driver that owns the context.
func (c *ExecContext) Driver() Driver { return c.driver }

// Queue returns the command queue created with the context.
func (c *ExecContext) Queue() *Queue { return c.queue }

// Close releases the queue and then the context. Every buffer, program and
// event created from the context must be released first.
func (c *ExecContext) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(
			c.driver.ReleaseQueue(c.queue.id),
			c.driver.ReleaseContext(c.id),
		)
	})
	return c.closeErr
}

// BuildFromSource compiles program source for the bound device.
func (c *ExecContext) BuildFromSource(source, options string) (*Program, error) {
	id, err := c.driver.BuildFromSource(c.id, c.device.id, source, options)
	if err != nil {
		return nil, err
	}
	return &Program{driver: c.driver, id: id, options: options}, nil
}

// BuildFromBinary builds a program from a previously persisted binary. The
// device rejects binaries that were built for another device or options.
func (c *ExecContext) BuildFromBinary(binary []byte, options string) (*Program, error) {
	id, err := c.driver.BuildFromBinary(c.id, c.device.id, binary, options)
	if err != nil {
		return nil, err
	}
	return &Program{driver: c.driver, id: id, options: options}, nil
}
