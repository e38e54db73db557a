package device

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Program is a program built for one context and device.
type Program struct {
	driver  Driver
	id      ProgramID
	options string

	once sync.Once
	err  error
}

// Options returns the build options the program was built with.
func (p *Program) Options() string { return p.options }

// Binary returns the device binary of the built program.
func (p *Program) Binary() ([]byte, error) {
	bin, err := p.driver.ProgramBinary(p.id)
	if err != nil {
		return nil, fmt.Errorf("not able to get binaries: %w", err)
	}
	return bin, nil
}

// Kernel creates an invocation object for the named entry point.
func (p *Program) Kernel(name string) (*Kernel, error) {
	id, err := p.driver.CreateKernel(p.id, name)
	if err != nil {
		return nil, wrap(ErrKernelLookup, fmt.Sprintf("not able to get kernel %q", name), err)
	}
	return &Kernel{driver: p.driver, id: id, name: name}, nil
}

// Release frees the program. Kernels created from it stay valid until they
// are released themselves.
func (p *Program) Release() error {
	p.once.Do(func() { p.err = p.driver.ReleaseProgram(p.id) })
	return p.err
}

// Kernel is a named entry point of a built program with positional
// arguments. Arguments are captured by the device at enqueue time.
type Kernel struct {
	driver Driver
	id     KernelID
	name   string

	once sync.Once
	err  error
}

// Name returns the entry point name.
func (k *Kernel) Name() string { return k.name }

// SetArg binds argument index. Memory objects are bound by handle; any other
// value must be a fixed-size scalar and is passed in native byte order.
func (k *Kernel) SetArg(index int, arg any) error {
	if m, ok := arg.(Memory); ok {
		return k.driver.SetKernelArgMem(k.id, index, m.memID())
	}
	raw, err := binary.Append(nil, binary.NativeEndian, arg)
	if err != nil {
		return fmt.Errorf("argument %d: %w", index, err)
	}
	return k.driver.SetKernelArgValue(k.id, index, raw)
}

// Release frees the kernel.
func (k *Kernel) Release() error {
	k.once.Do(func() { k.err = k.driver.ReleaseKernel(k.id) })
	return k.err
}
