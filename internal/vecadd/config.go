package vecadd

import (
	"time"

	"github.com/23skdu/longbow-clvecadd/internal/dispatch"
	"github.com/23skdu/longbow-clvecadd/internal/kernelcache"
	"github.com/23skdu/longbow-clvecadd/internal/kernels"
)

// Config holds the kernel artifacts and tuning of an Engine.
type Config struct {
	// SourcePath is the kernel source file compiled when no usable binary
	// exists.
	SourcePath string
	// BinaryDir is where program binaries are persisted. Empty disables the
	// binary artifact entirely.
	BinaryDir   string
	BinaryName  string
	BaseOptions string
	Entry       string
	LocalSize   int

	// FinishTimeout bounds the finish barrier. Zero waits indefinitely.
	FinishTimeout time.Duration

	// BreakerFailures consecutive device failures open the breaker for
	// BreakerCooldown. Zero failures disables the breaker.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// DefaultConfig returns the configuration of the vector addition kernel
// with sourcePath as kernel source.
func DefaultConfig(sourcePath, binaryDir string) Config {
	return Config{
		SourcePath:      sourcePath,
		BinaryDir:       binaryDir,
		BinaryName:      "vecadd",
		BaseOptions:     kernelcache.BaseOptions,
		Entry:           kernels.VecAddEntry,
		LocalSize:       dispatch.DefaultLocalSize,
		BreakerFailures: 3,
		BreakerCooldown: 30 * time.Second,
	}
}
