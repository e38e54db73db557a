package kernelcache

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/23skdu/longbow-clvecadd/internal/cache"
	"github.com/23skdu/longbow-clvecadd/internal/device"
)

// Origin records which artifact a program was built from.
type Origin int

const (
	OriginBinary Origin = iota
	OriginSource
)

func (o Origin) String() string {
	if o == OriginBinary {
		return "binary"
	}
	return "source"
}

// Key identifies one build. The options carry the element type macro, so a
// key is valid for exactly one element type.
type Key struct {
	Context *device.ExecContext
	Binary  string
	Source  string
	Options string
}

func (k Key) String() string {
	return fmt.Sprintf("%p|%s|%s|%s", k.Context, k.Binary, k.Source, k.Options)
}

// Build is the set of programs produced for one key.
type Build struct {
	Programs []*device.Program
	Origin   Origin
	Options  string
}

// Kernel creates an invocation object for name from the first program that
// defines it.
func (b *Build) Kernel(name string) (*device.Kernel, error) {
	if b == nil || len(b.Programs) == 0 {
		return nil, &device.Error{Kind: device.ErrNoProgram, Op: fmt.Sprintf("not able to get kernel %q", name)}
	}
	var errs []error
	for _, p := range b.Programs {
		k, err := p.Kernel(name)
		if err == nil {
			return k, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (b *Build) release() error {
	var errs []error
	for _, p := range b.Programs {
		errs = append(errs, p.Release())
	}
	return errors.Join(errs...)
}

// Cache builds programs from artifacts and keeps them in memory per Key.
// Concurrent requests for the same key share one build.
type Cache struct {
	builds cache.Cache[Key, *Build]
	group  singleflight.Group
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{builds: cache.NewMapCache[Key, *Build]()}
}

// Size returns the number of cached builds.
func (c *Cache) Size() int { return c.builds.Size() }

// LoadOrBuild returns the program set for the key, trying in order: memory,
// the binary at binaryPath, then the source at sourcePath. A binary failure is
// never fatal. After a source build the program binary is written to
// binaryPath; failing to write it is logged and ignored.
func (c *Cache) LoadOrBuild(ec *device.ExecContext, binaryPath, sourcePath, options string) (*Build, error) {
	key := Key{Context: ec, Binary: binaryPath, Source: sourcePath, Options: options}
	if b, ok := c.builds.Get(key); ok {
		programCacheHits.Inc()
		return b, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if b, ok := c.builds.Get(key); ok {
			programCacheHits.Inc()
			return b, nil
		}
		b, err := build(ec, binaryPath, sourcePath, options)
		if err != nil {
			return nil, err
		}
		c.builds.Put(key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Build), nil
}

// Purge releases and forgets every build that belongs to ec. It must be
// called before the context is closed.
func (c *Cache) Purge(ec *device.ExecContext) error {
	removed := c.builds.DeleteFunc(func(k Key, _ *Build) bool { return k.Context == ec })
	var errs []error
	for _, b := range removed {
		errs = append(errs, b.release())
	}
	return errors.Join(errs...)
}

type strategy struct {
	origin Origin
	build  func() (*device.Program, error)
}

func build(ec *device.ExecContext, binaryPath, sourcePath, options string) (*Build, error) {
	strategies := []strategy{
		{OriginBinary, func() (*device.Program, error) { return fromBinary(ec, binaryPath, options) }},
		{OriginSource, func() (*device.Program, error) { return fromSource(ec, sourcePath, options) }},
	}

	var binErr error
	for _, s := range strategies {
		start := time.Now()
		prog, err := s.build()
		if err != nil {
			if s.origin == OriginBinary {
				binErr = err
				binaryFallbacks.Inc()
				log.Debug().Err(err).Str("path", binaryPath).Msg("Binary build failed, compiling source")
				continue
			}
			return nil, &BuildError{Binary: binErr, Source: err}
		}

		programBuilds.WithLabelValues(s.origin.String()).Inc()
		programBuildDuration.WithLabelValues(s.origin.String()).Observe(time.Since(start).Seconds())
		log.Debug().
			Str("origin", s.origin.String()).
			Str("options", options).
			Dur("elapsed", time.Since(start)).
			Msg("Program built")

		if s.origin == OriginSource {
			persist(ec, prog, binaryPath, options)
		}
		return &Build{Programs: []*device.Program{prog}, Origin: s.origin, Options: options}, nil
	}
	// The source strategy always returns.
	return nil, &BuildError{Binary: binErr}
}

func fromBinary(ec *device.ExecContext, path, options string) (*device.Program, error) {
	if path == "" {
		return nil, errors.New("no binary path given")
	}
	bin, err := readBinary(path, ec, options)
	if err != nil {
		return nil, err
	}
	prog, err := ec.BuildFromBinary(bin, options)
	if err != nil {
		return nil, fmt.Errorf("error building binary file %s: %w", path, err)
	}
	return prog, nil
}

func fromSource(ec *device.ExecContext, path, options string) (*device.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading source file %s: %w", path, err)
	}
	prog, err := ec.BuildFromSource(string(src), options)
	if err != nil {
		return nil, fmt.Errorf("error building source file %s: %w", path, err)
	}
	return prog, nil
}

func persist(ec *device.ExecContext, prog *device.Program, path, options string) {
	if path == "" {
		return
	}
	bin, err := prog.Binary()
	if err == nil {
		err = writeBinary(path, bin, ec, options)
	}
	if err != nil {
		binaryPersistFailures.Inc()
		log.Debug().Err(err).Str("path", path).Msg("Not able to persist program binary")
	}
}
