package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"
	"golang.org/x/sync/errgroup"
)

// ensure interface compliance
var _ Driver = (*SimDriver)(nil)

// SimOp names a SimDriver entry point for call counting and fault injection.
type SimOp string

const (
	SimPlatforms     SimOp = "platforms"
	SimDevices       SimOp = "devices"
	SimCreateContext SimOp = "create_context"
	SimCreateQueue   SimOp = "create_queue"
	SimCreateBuffer  SimOp = "create_buffer"
	SimEnqueueWrite  SimOp = "enqueue_write"
	SimEnqueueRead   SimOp = "enqueue_read"
	SimBuildSource   SimOp = "build_source"
	SimBuildBinary   SimOp = "build_binary"
	SimProgramBinary SimOp = "program_binary"
	SimCreateKernel  SimOp = "create_kernel"
	SimSetArg        SimOp = "set_arg"
	SimEnqueueKernel SimOp = "enqueue_kernel"
	SimFinish        SimOp = "finish"

	// Execution faults: the command is accepted and its event completes
	// with an error status.
	SimExecWrite  SimOp = "exec_write"
	SimExecRead   SimOp = "exec_read"
	SimExecKernel SimOp = "exec_kernel"
)

// SimPlatform describes one platform exposed by a SimDriver.
type SimPlatform struct {
	Info    PlatformInfo
	Devices []DeviceInfo
}

// DefaultSimPlatform is a single platform with one GPU-class device.
func DefaultSimPlatform() SimPlatform {
	return SimPlatform{
		Info: PlatformInfo{
			Name:       "Longbow Software Platform",
			Vendor:     "longbow",
			Version:    "OpenCL 3.0 software",
			Profile:    "FULL_PROFILE",
			Extensions: "cl_khr_fp16 cl_khr_fp64",
		},
		Devices: []DeviceInfo{{
			Name:             "longbow-sim-gpu",
			Vendor:           "longbow",
			Version:          "OpenCL 3.0",
			Class:            ClassGPU,
			ComputeUnits:     uint32(runtime.NumCPU()),
			MaxWorkGroupSize: 1024,
		}},
	}
}

// SimDriver is an in-process device. Commands run asynchronously on
// goroutines, each waiting for the completion of its predecessors, and out of
// order unless the queue is in-order. Program binaries are only accepted by
// the device and options they were built for.
type SimDriver struct {
	platforms []SimPlatform
	devices   []*simDevice

	contexts *handleTable[*simContext]
	queues   *handleTable[*simQueue]
	mems     *handleTable[*simMem]
	programs *handleTable[*simProgram]
	kernels  *handleTable[*simKernel]
	events   *handleTable[*simEvent]

	mu          sync.Mutex
	calls       map[SimOp]int
	faults      map[SimOp]simFault
	finishDelay time.Duration
}

type simFault struct {
	skip int
	code int
}

type simDevice struct {
	platform int
	info     DeviceInfo
}

type simContext struct {
	device *simDevice
}

type simQueue struct {
	ctx   *simContext
	props QueueProperties

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	last     *simEvent
}

type simMem struct {
	ctx  *simContext
	mode MemMode
	data []byte
}

type simProgram struct {
	ctx     *simContext
	device  *simDevice
	options string
	elem    string
	entries []string
}

type simKernel struct {
	prog *simProgram
	name string
	impl simKernelImpl

	mu   sync.Mutex
	args []simArg
}

type simArg struct {
	set   bool
	mem   *simMem
	value []byte
}

type simEvent struct {
	done      chan struct{}
	status    atomic.Int32
	profiling bool

	queued, submit, start, end uint64
}

// NewSimDriver creates a software driver exposing platforms, or the default
// platform when none are given.
func NewSimDriver(platforms ...SimPlatform) *SimDriver {
	if len(platforms) == 0 {
		platforms = []SimPlatform{DefaultSimPlatform()}
	}
	d := &SimDriver{
		platforms: platforms,
		contexts:  newHandleTable[*simContext](),
		queues:    newHandleTable[*simQueue](),
		mems:      newHandleTable[*simMem](),
		programs:  newHandleTable[*simProgram](),
		kernels:   newHandleTable[*simKernel](),
		events:    newHandleTable[*simEvent](),
		calls:     make(map[SimOp]int),
		faults:    make(map[SimOp]simFault),
	}
	for i, p := range platforms {
		for _, info := range p.Devices {
			d.devices = append(d.devices, &simDevice{platform: i, info: info})
		}
	}
	return d
}

func (d *SimDriver) Name() string { return "sim" }

// InjectFault makes every following call of op fail with the OpenCL status
// code. Exec* faults complete the command's event with the code instead.
func (d *SimDriver) InjectFault(op SimOp, code int) {
	d.InjectFaultAfter(op, 0, code)
}

// InjectFaultAfter lets skip calls of op succeed before failing.
func (d *SimDriver) InjectFaultAfter(op SimOp, skip, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[op] = simFault{skip: skip, code: code}
}

// ClearFaults removes all injected faults.
func (d *SimDriver) ClearFaults() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults = make(map[SimOp]simFault)
}

// StallFinish makes every later Finish call wait delay before draining, as a
// device that is slow to complete its queue would.
func (d *SimDriver) StallFinish(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishDelay = delay
}

// Calls reports how often op was invoked.
func (d *SimDriver) Calls(op SimOp) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// Live reports the number of handles not yet released.
func (d *SimDriver) Live() int {
	return d.contexts.len() + d.queues.len() + d.mems.len() +
		d.programs.len() + d.kernels.len() + d.events.len()
}

func (d *SimDriver) enter(op SimOp) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[op]++
	f, ok := d.faults[op]
	if !ok {
		return clSuccess
	}
	if f.skip > 0 {
		f.skip--
		d.faults[op] = f
		return clSuccess
	}
	return f.code
}

func (d *SimDriver) Platforms() ([]PlatformID, error) {
	if code := d.enter(SimPlatforms); code != clSuccess {
		return nil, statusError("clGetPlatformIDs", code)
	}
	ids := make([]PlatformID, len(d.platforms))
	for i := range d.platforms {
		ids[i] = PlatformID(i + 1)
	}
	return ids, nil
}

func (d *SimDriver) platform(p PlatformID) (SimPlatform, bool) {
	i := int(p) - 1
	if i < 0 || i >= len(d.platforms) {
		return SimPlatform{}, false
	}
	return d.platforms[i], true
}

func (d *SimDriver) PlatformInfo(p PlatformID) (PlatformInfo, error) {
	pl, ok := d.platform(p)
	if !ok {
		return PlatformInfo{}, statusError("clGetPlatformInfo", clInvalidPlatform)
	}
	return pl.Info, nil
}

func (d *SimDriver) Devices(p PlatformID, class DeviceClass) ([]DeviceID, error) {
	if code := d.enter(SimDevices); code != clSuccess {
		return nil, statusError("clGetDeviceIDs", code)
	}
	if _, ok := d.platform(p); !ok {
		return nil, statusError("clGetDeviceIDs", clInvalidPlatform)
	}

	var ids []DeviceID
	for i, dev := range d.devices {
		if dev.platform != int(p)-1 {
			continue
		}
		switch {
		case class == ClassAll:
		case class == ClassDefault && len(ids) == 0:
		case dev.info.Class == class:
		default:
			continue
		}
		ids = append(ids, DeviceID(i+1))
		if class == ClassDefault {
			break
		}
	}
	return ids, nil
}

func (d *SimDriver) device(id DeviceID) (*simDevice, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(d.devices) {
		return nil, false
	}
	return d.devices[i], true
}

func (d *SimDriver) DeviceInfo(id DeviceID) (DeviceInfo, error) {
	dev, ok := d.device(id)
	if !ok {
		return DeviceInfo{}, statusError("clGetDeviceInfo", clInvalidDevice)
	}
	return dev.info, nil
}

func (d *SimDriver) CreateContext(id DeviceID) (ContextID, error) {
	if code := d.enter(SimCreateContext); code != clSuccess {
		return 0, statusError("clCreateContext", code)
	}
	dev, ok := d.device(id)
	if !ok {
		return 0, statusError("clCreateContext", clInvalidDevice)
	}
	return ContextID(d.contexts.put(&simContext{device: dev})), nil
}

func (d *SimDriver) ReleaseContext(c ContextID) error {
	if _, ok := d.contexts.remove(uintptr(c)); !ok {
		return statusError("clReleaseContext", clInvalidContext)
	}
	return nil
}

func (d *SimDriver) CreateQueue(c ContextID, id DeviceID, props QueueProperties) (QueueID, error) {
	if code := d.enter(SimCreateQueue); code != clSuccess {
		return 0, statusError("clCreateCommandQueueWithProperties", code)
	}
	ctx, ok := d.contexts.get(uintptr(c))
	if !ok {
		return 0, statusError("clCreateCommandQueueWithProperties", clInvalidContext)
	}
	if dev, ok := d.device(id); !ok || dev != ctx.device {
		return 0, statusError("clCreateCommandQueueWithProperties", clInvalidDevice)
	}
	q := &simQueue{ctx: ctx, props: props}
	q.idle = sync.NewCond(&q.mu)
	return QueueID(d.queues.put(q)), nil
}

func (d *SimDriver) ReleaseQueue(q QueueID) error {
	if _, ok := d.queues.remove(uintptr(q)); !ok {
		return statusError("clReleaseCommandQueue", clInvalidCommandQueue)
	}
	return nil
}

func (d *SimDriver) Finish(id QueueID) error {
	if code := d.enter(SimFinish); code != clSuccess {
		return statusError("clFinish", code)
	}
	q, ok := d.queues.get(uintptr(id))
	if !ok {
		return statusError("clFinish", clInvalidCommandQueue)
	}
	d.mu.Lock()
	delay := d.finishDelay
	d.mu.Unlock()
	time.Sleep(delay)

	q.mu.Lock()
	for q.inflight > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
	return nil
}

func (d *SimDriver) CreateBuffer(c ContextID, mode MemMode, host unsafe.Pointer, size int) (MemID, error) {
	if code := d.enter(SimCreateBuffer); code != clSuccess {
		return 0, statusError("clCreateBuffer", code)
	}
	ctx, ok := d.contexts.get(uintptr(c))
	if !ok {
		return 0, statusError("clCreateBuffer", clInvalidContext)
	}
	if size <= 0 {
		return 0, statusError("clCreateBuffer", clInvalidBufferSize)
	}
	if host == nil {
		return 0, statusError("clCreateBuffer", clInvalidHostPtr)
	}
	m := &simMem{ctx: ctx, mode: mode, data: unsafe.Slice((*byte)(host), size)}
	return MemID(d.mems.put(m)), nil
}

func (d *SimDriver) ReleaseBuffer(m MemID) error {
	if _, ok := d.mems.remove(uintptr(m)); !ok {
		return statusError("clReleaseMemObject", clInvalidMemObject)
	}
	return nil
}

func (d *SimDriver) EnqueueWrite(q QueueID, m MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error) {
	return d.enqueueTransfer("clEnqueueWriteBuffer", SimEnqueueWrite, SimExecWrite, q, m, host, size, wait, true)
}

func (d *SimDriver) EnqueueRead(q QueueID, m MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error) {
	return d.enqueueTransfer("clEnqueueReadBuffer", SimEnqueueRead, SimExecRead, q, m, host, size, wait, false)
}

func (d *SimDriver) enqueueTransfer(name string, op, exec SimOp, qid QueueID, mid MemID, host unsafe.Pointer, size int, wait []EventID, toDevice bool) (EventID, error) {
	if code := d.enter(op); code != clSuccess {
		return 0, statusError(name, code)
	}
	q, ok := d.queues.get(uintptr(qid))
	if !ok {
		return 0, statusError(name, clInvalidCommandQueue)
	}
	m, ok := d.mems.get(uintptr(mid))
	if !ok || m.ctx != q.ctx {
		return 0, statusError(name, clInvalidMemObject)
	}
	if host == nil || size <= 0 || size > len(m.data) {
		return 0, statusError(name, clInvalidValue)
	}
	preds, err := d.waitList(name, wait)
	if err != nil {
		return 0, err
	}

	fault := d.enter(exec)
	region := unsafe.Slice((*byte)(host), size)
	return d.submit(q, preds, func() int {
		if fault != clSuccess {
			return fault
		}
		dst, src := m.data[:size], region
		if !toDevice {
			dst, src = region, m.data[:size]
		}
		if &dst[0] != &src[0] {
			copy(dst, src)
		}
		return clSuccess
	}), nil
}

func (d *SimDriver) waitList(name string, wait []EventID) ([]*simEvent, error) {
	preds := make([]*simEvent, 0, len(wait))
	for _, id := range wait {
		ev, ok := d.events.get(uintptr(id))
		if !ok {
			return nil, statusError(name, clInvalidEventWaitList)
		}
		preds = append(preds, ev)
	}
	return preds, nil
}

// submit runs fn on its own goroutine once every predecessor has completed.
// A failed predecessor fails the command without running it.
func (d *SimDriver) submit(q *simQueue, preds []*simEvent, fn func() int) EventID {
	ev := &simEvent{
		done:      make(chan struct{}),
		profiling: q.props&QueueProfiling != 0,
		queued:    simNow(),
	}
	ev.status.Store(int32(StatusQueued))

	q.mu.Lock()
	if q.props&QueueOutOfOrder == 0 && q.last != nil {
		preds = append(preds, q.last)
	}
	q.last = ev
	q.inflight++
	q.mu.Unlock()

	go func() {
		ev.submit = simNow()
		ev.status.Store(int32(StatusSubmitted))
		code := clSuccess
		for _, p := range preds {
			<-p.done
			if p.status.Load() < 0 {
				code = clExecStatusErrorForEventsInWait
			}
		}
		ev.start = simNow()
		if code == clSuccess {
			ev.status.Store(int32(StatusRunning))
			code = fn()
		}
		ev.end = simNow()
		ev.status.Store(int32(code))
		close(ev.done)

		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
	}()

	return EventID(d.events.put(ev))
}

var simEpoch = time.Now()

func simNow() uint64 {
	return uint64(time.Since(simEpoch).Nanoseconds())
}

func (d *SimDriver) EventStatus(e EventID) (EventStatus, error) {
	ev, ok := d.events.get(uintptr(e))
	if !ok {
		return 0, statusError("clGetEventInfo", clInvalidEvent)
	}
	return EventStatus(ev.status.Load()), nil
}

func (d *SimDriver) EventProfile(e EventID) (Profile, error) {
	ev, ok := d.events.get(uintptr(e))
	if !ok {
		return Profile{}, statusError("clGetEventProfilingInfo", clInvalidEvent)
	}
	if !ev.profiling {
		return Profile{}, statusError("clGetEventProfilingInfo", clProfilingInfoNotAvailable)
	}
	select {
	case <-ev.done:
	default:
		return Profile{}, statusError("clGetEventProfilingInfo", clProfilingInfoNotAvailable)
	}
	return Profile{Queued: ev.queued, Submit: ev.submit, Start: ev.start, End: ev.end}, nil
}

func (d *SimDriver) ReleaseEvent(e EventID) error {
	if _, ok := d.events.remove(uintptr(e)); !ok {
		return statusError("clReleaseEvent", clInvalidEvent)
	}
	return nil
}

// Programs

const simBinaryMagic = "LBSIMBIN"

type simBinary struct {
	Device  string   `cbor:"device"`
	Options string   `cbor:"options"`
	Element string   `cbor:"element"`
	Entries []string `cbor:"entries"`
}

var simEntryPattern = regexp.MustCompile(`(?:__kernel|kernel)\s+void\s+([A-Za-z_]\w*)\s*\(`)

var simElementSizes = map[string]int{
	"bool": 1, "char": 1, "uchar": 1,
	"short": 2, "ushort": 2, "half": 2,
	"int": 4, "uint": 4, "float": 4,
	"long": 8, "ulong": 8, "double": 8,
}

func (d *SimDriver) programTarget(name string, c ContextID, id DeviceID) (*simContext, *simDevice, error) {
	ctx, ok := d.contexts.get(uintptr(c))
	if !ok {
		return nil, nil, statusError(name, clInvalidContext)
	}
	dev, ok := d.device(id)
	if !ok || dev != ctx.device {
		return nil, nil, statusError(name, clInvalidDevice)
	}
	return ctx, dev, nil
}

func (d *SimDriver) BuildFromSource(c ContextID, id DeviceID, source, options string) (ProgramID, error) {
	if code := d.enter(SimBuildSource); code != clSuccess {
		return 0, statusError("clBuildProgram", code)
	}
	ctx, dev, err := d.programTarget("clBuildProgram", c, id)
	if err != nil {
		return 0, err
	}

	elem, entries, msg := d.compile(dev, source, options)
	if msg != "" {
		return 0, &StatusError{Op: "clBuildProgram", Code: clBuildProgramFailure, Log: msg}
	}
	p := &simProgram{ctx: ctx, device: dev, options: options, elem: elem, entries: entries}
	return ProgramID(d.programs.put(p)), nil
}

func (d *SimDriver) compile(dev *simDevice, source, options string) (string, []string, string) {
	defines := parseDefines(options)
	elem, ok := defines["ARRAY_TYPE"]
	if !ok {
		return "", nil, "error: unknown type name 'ARRAY_TYPE'"
	}
	if _, ok := simElementSizes[elem]; !ok {
		return "", nil, fmt.Sprintf("error: unknown type name '%s'", elem)
	}
	if elem == "bool" {
		return "", nil, "error: kernel parameters cannot be pointers to bool"
	}
	ext := d.platforms[dev.platform].Info.Extensions
	if elem == "half" && !strings.Contains(ext, "cl_khr_fp16") {
		return "", nil, "error: declaring variable of type 'half' is not allowed"
	}
	if elem == "double" && !strings.Contains(ext, "cl_khr_fp64") {
		return "", nil, "error: use of type 'double' requires cl_khr_fp64 support"
	}

	var entries []string
	for _, m := range simEntryPattern.FindAllStringSubmatch(source, -1) {
		entries = append(entries, m[1])
	}
	if len(entries) == 0 {
		return "", nil, "error: no kernels found in program"
	}
	return elem, entries, ""
}

// parseDefines collects -D macros from a space separated option string.
func parseDefines(options string) map[string]string {
	defines := make(map[string]string)
	fields := strings.Fields(options)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		var def string
		switch {
		case f == "-D" && i+1 < len(fields):
			i++
			def = fields[i]
		case strings.HasPrefix(f, "-D") && len(f) > 2:
			def = f[2:]
		default:
			continue
		}
		name, value, found := strings.Cut(def, "=")
		if !found {
			value = "1"
		}
		defines[name] = value
	}
	return defines
}

func (d *SimDriver) BuildFromBinary(c ContextID, id DeviceID, bin []byte, options string) (ProgramID, error) {
	const name = "clCreateProgramWithBinary"
	if code := d.enter(SimBuildBinary); code != clSuccess {
		return 0, statusError(name, code)
	}
	ctx, dev, err := d.programTarget(name, c, id)
	if err != nil {
		return 0, err
	}
	if !bytes.HasPrefix(bin, []byte(simBinaryMagic)) {
		return 0, statusError(name, clInvalidBinary)
	}
	var payload simBinary
	if err := cbor.Unmarshal(bin[len(simBinaryMagic):], &payload); err != nil {
		return 0, statusError(name, clInvalidBinary)
	}
	if payload.Device != dev.info.Name || payload.Options != options {
		return 0, statusError(name, clInvalidBinary)
	}
	p := &simProgram{ctx: ctx, device: dev, options: options, elem: payload.Element, entries: payload.Entries}
	return ProgramID(d.programs.put(p)), nil
}

func (d *SimDriver) ProgramBinary(id ProgramID) ([]byte, error) {
	if code := d.enter(SimProgramBinary); code != clSuccess {
		return nil, statusError("clGetProgramInfo", code)
	}
	p, ok := d.programs.get(uintptr(id))
	if !ok {
		return nil, statusError("clGetProgramInfo", clInvalidProgram)
	}
	payload, err := cbor.Marshal(simBinary{
		Device:  p.device.info.Name,
		Options: p.options,
		Element: p.elem,
		Entries: p.entries,
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(simBinaryMagic), payload...), nil
}

func (d *SimDriver) ReleaseProgram(id ProgramID) error {
	if _, ok := d.programs.remove(uintptr(id)); !ok {
		return statusError("clReleaseProgram", clInvalidProgram)
	}
	return nil
}

// Kernels

type simLaunch struct {
	elem   string
	global int
	local  int
	units  int
	args   []simArg
}

type simKernelImpl struct {
	arity int
	run   func(l simLaunch) int
}

var simKernels = map[string]simKernelImpl{
	"addVectors": {arity: 4, run: simAddVectors},
}

func (d *SimDriver) CreateKernel(id ProgramID, name string) (KernelID, error) {
	if code := d.enter(SimCreateKernel); code != clSuccess {
		return 0, statusError("clCreateKernel", code)
	}
	p, ok := d.programs.get(uintptr(id))
	if !ok {
		return 0, statusError("clCreateKernel", clInvalidProgram)
	}
	if !slices.Contains(p.entries, name) {
		return 0, statusError("clCreateKernel", clInvalidKernelName)
	}
	impl, ok := simKernels[name]
	if !ok {
		return 0, statusError("clCreateKernel", clInvalidKernelDefinition)
	}
	k := &simKernel{prog: p, name: name, impl: impl, args: make([]simArg, impl.arity)}
	return KernelID(d.kernels.put(k)), nil
}

func (d *SimDriver) ReleaseKernel(id KernelID) error {
	if _, ok := d.kernels.remove(uintptr(id)); !ok {
		return statusError("clReleaseKernel", clInvalidKernel)
	}
	return nil
}

func (d *SimDriver) kernelArg(id KernelID, index int) (*simKernel, error) {
	if code := d.enter(SimSetArg); code != clSuccess {
		return nil, statusError("clSetKernelArg", code)
	}
	k, ok := d.kernels.get(uintptr(id))
	if !ok {
		return nil, statusError("clSetKernelArg", clInvalidKernel)
	}
	if index < 0 || index >= len(k.args) {
		return nil, statusError("clSetKernelArg", clInvalidArgIndex)
	}
	return k, nil
}

func (d *SimDriver) SetKernelArgMem(id KernelID, index int, mid MemID) error {
	k, err := d.kernelArg(id, index)
	if err != nil {
		return err
	}
	m, ok := d.mems.get(uintptr(mid))
	if !ok || m.ctx != k.prog.ctx {
		return statusError("clSetKernelArg", clInvalidMemObject)
	}
	k.mu.Lock()
	k.args[index] = simArg{set: true, mem: m}
	k.mu.Unlock()
	return nil
}

func (d *SimDriver) SetKernelArgValue(id KernelID, index int, value []byte) error {
	k, err := d.kernelArg(id, index)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return statusError("clSetKernelArg", clInvalidArgSize)
	}
	k.mu.Lock()
	k.args[index] = simArg{set: true, value: slices.Clone(value)}
	k.mu.Unlock()
	return nil
}

func (d *SimDriver) EnqueueKernel(qid QueueID, kid KernelID, global, local int, wait []EventID) (EventID, error) {
	const name = "clEnqueueNDRangeKernel"
	if code := d.enter(SimEnqueueKernel); code != clSuccess {
		return 0, statusError(name, code)
	}
	q, ok := d.queues.get(uintptr(qid))
	if !ok {
		return 0, statusError(name, clInvalidCommandQueue)
	}
	k, ok := d.kernels.get(uintptr(kid))
	if !ok {
		return 0, statusError(name, clInvalidKernel)
	}
	if k.prog.ctx != q.ctx {
		return 0, statusError(name, clInvalidContext)
	}
	if global <= 0 {
		return 0, statusError(name, clInvalidGlobalWorkSize)
	}
	dev := q.ctx.device.info
	if local <= 0 || local > dev.MaxWorkGroupSize || global%local != 0 {
		return 0, statusError(name, clInvalidWorkGroupSize)
	}

	k.mu.Lock()
	args := slices.Clone(k.args)
	k.mu.Unlock()
	for _, a := range args {
		if !a.set {
			return 0, statusError(name, clInvalidKernelArgs)
		}
	}
	preds, err := d.waitList(name, wait)
	if err != nil {
		return 0, err
	}

	fault := d.enter(SimExecKernel)
	launch := simLaunch{
		elem:   k.prog.elem,
		global: global,
		local:  local,
		units:  max(int(dev.ComputeUnits), 1),
		args:   args,
	}
	return d.submit(q, preds, func() int {
		if fault != clSuccess {
			return fault
		}
		return k.impl.run(launch)
	}), nil
}

// simAddVectors is addVectors(a, b, c, n): c[i] = a[i] + b[i] for every
// work-item i < n. Work-groups run in parallel across the compute units.
func simAddVectors(l simLaunch) int {
	if l.args[0].mem == nil || l.args[1].mem == nil || l.args[2].mem == nil || len(l.args[3].value) != 8 {
		return clInvalidKernelArgs
	}
	a, b, c := l.args[0].mem.data, l.args[1].mem.data, l.args[2].mem.data
	n := int(binary.NativeEndian.Uint64(l.args[3].value))
	size := simElementSizes[l.elem]

	limit := min(n, l.global)
	if limit*size > len(a) || limit*size > len(b) || limit*size > len(c) {
		return clOutOfResources
	}

	var g errgroup.Group
	g.SetLimit(l.units)
	for lo := 0; lo < limit; lo += l.local {
		hi := min(lo+l.local, limit)
		g.Go(func() error {
			simAddRange(l.elem, a, b, c, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
	return clSuccess
}

func simAddRange(elem string, a, b, c []byte, lo, hi int) {
	switch elem {
	case "char":
		simAdd[int8](a, b, c, lo, hi)
	case "uchar":
		simAdd[uint8](a, b, c, lo, hi)
	case "short":
		simAdd[int16](a, b, c, lo, hi)
	case "ushort":
		simAdd[uint16](a, b, c, lo, hi)
	case "int":
		simAdd[int32](a, b, c, lo, hi)
	case "uint":
		simAdd[uint32](a, b, c, lo, hi)
	case "long":
		simAdd[int64](a, b, c, lo, hi)
	case "ulong":
		simAdd[uint64](a, b, c, lo, hi)
	case "float":
		simAdd[float32](a, b, c, lo, hi)
	case "double":
		simAdd[float64](a, b, c, lo, hi)
	case "half":
		av, bv, cv := simView[uint16](a), simView[uint16](b), simView[uint16](c)
		for i := lo; i < hi; i++ {
			sum := float16.Frombits(av[i]).Float32() + float16.Frombits(bv[i]).Float32()
			cv[i] = float16.Fromfloat32(sum).Bits()
		}
	}
}

type simNumber interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

func simAdd[T simNumber](a, b, c []byte, lo, hi int) {
	av, bv, cv := simView[T](a), simView[T](b), simView[T](c)
	for i := lo; i < hi; i++ {
		cv[i] = av[i] + bv[i]
	}
}

func simView[T any](raw []byte) []T {
	var zero T
	n := len(raw) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
}
