// Package vecadd adds two vectors on a compute device and falls back to the
// host when the device path fails.
package vecadd

import (
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/23skdu/longbow-clvecadd/internal/device"
	"github.com/23skdu/longbow-clvecadd/internal/kernelcache"
)

var tracer = otel.Tracer("clvecadd")

// Engine owns the kernel cache and breaker for one execution context. It is
// safe for concurrent use; every run allocates its own buffers and kernel.
type Engine struct {
	ec       *device.ExecContext
	cfg      Config
	programs *kernelcache.Cache
	breaker  *Breaker

	// drains tracks runs whose resources are released in the background
	// after the finish barrier gave up.
	drains sync.WaitGroup
}

// NewEngine creates an engine on ec. A nil ec yields a host-only engine.
// The engine takes ownership of ec.
func NewEngine(ec *device.ExecContext, cfg Config) *Engine {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = DefaultConfig("", "").LocalSize
	}
	if cfg.Entry == "" {
		cfg.Entry = DefaultConfig("", "").Entry
	}
	return &Engine{
		ec:       ec,
		cfg:      cfg,
		programs: kernelcache.New(),
		breaker:  NewBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	}
}

// Context returns the bound execution context, or nil for a host-only
// engine.
func (e *Engine) Context() *device.ExecContext { return e.ec }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Breaker returns the device breaker.
func (e *Engine) Breaker() *Breaker { return e.breaker }

// HasDevice reports whether the engine has a bound device.
func (e *Engine) HasDevice() bool { return e != nil && e.ec != nil }

// Close waits for background releases, frees every cached program and
// closes the execution context.
func (e *Engine) Close() error {
	if e.ec == nil {
		return nil
	}
	e.drains.Wait()
	if err := e.programs.Purge(e.ec); err != nil {
		log.Warn().Err(err).Msg("Failed to release programs")
	}
	return e.ec.Close()
}
