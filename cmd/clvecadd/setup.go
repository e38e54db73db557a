package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/23skdu/longbow-clvecadd/internal/device"
	"github.com/23skdu/longbow-clvecadd/internal/kernels"
	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

// setupOptions select the device and kernel artifacts of an engine.
type setupOptions struct {
	driver          string
	class           string
	index           int
	kernelDir       string
	source          string
	noBinary        bool
	localSize       int
	finishTimeout   time.Duration
	breakerFailures int
	breakerCooldown time.Duration
}

func (o *setupOptions) register(fs *pflag.FlagSet) {
	def := vecadd.DefaultConfig("", "")
	fs.StringVar(&o.driver, "driver", "auto", "Compute driver (auto, opencl, sim)")
	fs.StringVar(&o.class, "class", "gpu", "Device class (all, gpu, accelerator, cpu, custom, default)")
	fs.IntVar(&o.index, "device", 0, "Index of the device among the enumerated devices")
	fs.StringVar(&o.kernelDir, "kernel-dir", defaultKernelDir(), "Directory for the kernel source and program binaries")
	fs.StringVar(&o.source, "source", "", "Kernel source file (default: embedded source written to --kernel-dir)")
	fs.BoolVar(&o.noBinary, "no-binary", false, "Never load or persist program binaries")
	fs.IntVar(&o.localSize, "local-size", def.LocalSize, "Work-group size")
	fs.DurationVar(&o.finishTimeout, "finish-timeout", 0, "Bound on waiting for the device queue (0 waits forever)")
	fs.IntVar(&o.breakerFailures, "breaker-failures", def.BreakerFailures, "Consecutive device failures before the device is skipped (0 disables)")
	fs.DurationVar(&o.breakerCooldown, "breaker-cooldown", def.BreakerCooldown, "Time the device is skipped after the breaker opens")
}

func defaultKernelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "clvecadd")
	}
	return filepath.Join(dir, "clvecadd")
}

func (o *setupOptions) config() (vecadd.Config, error) {
	src := o.source
	if src == "" {
		var err error
		src, err = kernels.Materialize(o.kernelDir)
		if err != nil {
			return vecadd.Config{}, err
		}
	}
	binDir := o.kernelDir
	if o.noBinary {
		binDir = ""
	}

	cfg := vecadd.DefaultConfig(src, binDir)
	cfg.LocalSize = o.localSize
	cfg.FinishTimeout = o.finishTimeout
	cfg.BreakerFailures = o.breakerFailures
	cfg.BreakerCooldown = o.breakerCooldown
	return cfg, nil
}

// openDriver resolves "auto" to OpenCL when it was compiled in and to the
// software device otherwise.
func openDriver(name string) (device.Driver, error) {
	if name != "auto" {
		return device.Open(name)
	}
	drv, err := device.Open("opencl")
	if errors.Is(err, device.ErrNotBuilt) {
		log.Debug().Msg("OpenCL not compiled in, using the software device")
		return device.Open("sim")
	}
	return drv, err
}

func (o *setupOptions) bind() (*device.ExecContext, error) {
	class, err := device.ParseDeviceClass(o.class)
	if err != nil {
		return nil, err
	}
	drv, err := openDriver(o.driver)
	if err != nil {
		return nil, err
	}
	devices, err := device.ListDevices(drv, class)
	if err != nil {
		return nil, err
	}
	return device.Bind(devices, o.index)
}

// newEngine binds the selected device. When no device can be bound the
// engine computes on the host.
func (o *setupOptions) newEngine() (*vecadd.Engine, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare kernel source: %w", err)
	}

	ec, err := o.bind()
	if err != nil {
		log.Info().Msg("not able to set up device, falling back to host...")
		log.Debug().Err(err).Str("driver", o.driver).Int("device", o.index).Msg("Device setup failure")
		return vecadd.NewEngine(nil, cfg), nil
	}

	dev := ec.Device()
	log.Info().
		Str("driver", ec.Driver().Name()).
		Str("device", dev.Info.Name).
		Str("platform", dev.Platform.Name).
		Msg("Using device")
	return vecadd.NewEngine(ec, cfg), nil
}
