package device

import (
	"fmt"
	"strings"
	"unsafe"
)

// Opaque handles issued by a Driver. Zero is never a valid handle.
type (
	PlatformID uintptr
	DeviceID   uintptr
	ContextID  uintptr
	QueueID    uintptr
	MemID      uintptr
	ProgramID  uintptr
	KernelID   uintptr
	EventID    uintptr
)

// DeviceClass filters device enumeration.
type DeviceClass int

const (
	ClassAll DeviceClass = iota
	ClassGPU
	ClassAccelerator
	ClassCPU
	ClassCustom
	ClassDefault
)

var classNames = map[DeviceClass]string{
	ClassAll:         "all",
	ClassGPU:         "gpu",
	ClassAccelerator: "accelerator",
	ClassCPU:         "cpu",
	ClassCustom:      "custom",
	ClassDefault:     "default",
}

func (c DeviceClass) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("DeviceClass(%d)", int(c))
}

// ParseDeviceClass accepts the names printed by DeviceClass.String.
func ParseDeviceClass(s string) (DeviceClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown device class %q", s)
}

// MemMode is the device-side access mode of a buffer.
type MemMode int

const (
	ReadOnly MemMode = iota
	WriteOnly
	ReadWrite
)

func (m MemMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	}
	return fmt.Sprintf("MemMode(%d)", int(m))
}

// QueueProperties is a bit set applied at queue creation.
type QueueProperties uint32

const (
	QueueOutOfOrder QueueProperties = 1 << iota
	QueueProfiling
)

// EventStatus mirrors the OpenCL execution status: 0 is complete, positive
// values are pending states and negative values are error codes.
type EventStatus int

const (
	StatusComplete  EventStatus = 0
	StatusRunning   EventStatus = 1
	StatusSubmitted EventStatus = 2
	StatusQueued    EventStatus = 3
)

func (s EventStatus) String() string {
	switch {
	case s == StatusComplete:
		return "complete"
	case s == StatusRunning:
		return "running"
	case s == StatusSubmitted:
		return "submitted"
	case s == StatusQueued:
		return "queued"
	}
	return StatusName(int(s))
}

// Profile holds device clock timestamps in nanoseconds.
type Profile struct {
	Queued uint64
	Submit uint64
	Start  uint64
	End    uint64
}

// PlatformInfo describes a compute platform.
type PlatformInfo struct {
	Name       string
	Vendor     string
	Version    string
	Profile    string
	Extensions string
}

// DeviceInfo describes a single compute device.
type DeviceInfo struct {
	Name             string
	Vendor           string
	Version          string
	Class            DeviceClass
	ComputeUnits     uint32
	MaxWorkGroupSize int
}

// Driver is the boundary to a vendor compute runtime. Every handle it returns
// is owned by the caller until passed to the matching Release method.
// Host pointers handed to CreateBuffer, EnqueueWrite and EnqueueRead must stay
// valid and unmoved until the buffer is released or the event completes.
type Driver interface {
	Name() string

	Platforms() ([]PlatformID, error)
	PlatformInfo(p PlatformID) (PlatformInfo, error)
	Devices(p PlatformID, class DeviceClass) ([]DeviceID, error)
	DeviceInfo(d DeviceID) (DeviceInfo, error)

	CreateContext(d DeviceID) (ContextID, error)
	ReleaseContext(c ContextID) error
	CreateQueue(c ContextID, d DeviceID, props QueueProperties) (QueueID, error)
	ReleaseQueue(q QueueID) error
	Finish(q QueueID) error

	CreateBuffer(c ContextID, mode MemMode, host unsafe.Pointer, size int) (MemID, error)
	ReleaseBuffer(m MemID) error
	EnqueueWrite(q QueueID, m MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error)
	EnqueueRead(q QueueID, m MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error)

	BuildFromSource(c ContextID, d DeviceID, source, options string) (ProgramID, error)
	BuildFromBinary(c ContextID, d DeviceID, binary []byte, options string) (ProgramID, error)
	ProgramBinary(p ProgramID) ([]byte, error)
	ReleaseProgram(p ProgramID) error

	CreateKernel(p ProgramID, name string) (KernelID, error)
	ReleaseKernel(k KernelID) error
	SetKernelArgMem(k KernelID, index int, m MemID) error
	SetKernelArgValue(k KernelID, index int, value []byte) error
	EnqueueKernel(q QueueID, k KernelID, global, local int, wait []EventID) (EventID, error)

	EventStatus(e EventID) (EventStatus, error)
	EventProfile(e EventID) (Profile, error)
	ReleaseEvent(e EventID) error
}

// Open returns the driver registered under name: "opencl" or "sim".
func Open(name string) (Driver, error) {
	switch strings.ToLower(name) {
	case "opencl", "cl":
		return NewOpenCLDriver()
	case "sim", "software":
		return NewSimDriver(), nil
	}
	return nil, fmt.Errorf("unknown driver %q", name)
}
