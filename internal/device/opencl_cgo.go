//go:build opencl

package device

/*
#cgo LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#define CL_TARGET_OPENCL_VERSION 300
#include <stdlib.h>
#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif

static cl_command_queue lb_create_queue(cl_context ctx, cl_device_id device, cl_command_queue_properties bits, cl_int *status) {
	const cl_queue_properties props[] = {CL_QUEUE_PROPERTIES, bits, 0};
	return clCreateCommandQueueWithProperties(ctx, device, props, status);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// ensure interface compliance
var _ Driver = (*OpenCLDriver)(nil)

// OpenCLDriver talks to the system OpenCL ICD loader.
type OpenCLDriver struct {
	platforms *internTable[C.cl_platform_id]
	devices   *internTable[C.cl_device_id]

	contexts *handleTable[C.cl_context]
	queues   *handleTable[C.cl_command_queue]
	mems     *handleTable[C.cl_mem]
	programs *handleTable[C.cl_program]
	kernels  *handleTable[C.cl_kernel]
	events   *handleTable[C.cl_event]
}

// NewOpenCLDriver returns a driver backed by libOpenCL.
func NewOpenCLDriver() (Driver, error) {
	return &OpenCLDriver{
		platforms: newInternTable[C.cl_platform_id](),
		devices:   newInternTable[C.cl_device_id](),
		contexts:  newHandleTable[C.cl_context](),
		queues:    newHandleTable[C.cl_command_queue](),
		mems:      newHandleTable[C.cl_mem](),
		programs:  newHandleTable[C.cl_program](),
		kernels:   newHandleTable[C.cl_kernel](),
		events:    newHandleTable[C.cl_event](),
	}, nil
}

// internTable hands out one stable handle per runtime object. Platforms and
// devices are never released, so enumeration can run repeatedly.
type internTable[K comparable] struct {
	mu   sync.Mutex
	ids  map[K]uintptr
	objs map[uintptr]K
}

func newInternTable[K comparable]() *internTable[K] {
	return &internTable[K]{ids: make(map[K]uintptr), objs: make(map[uintptr]K)}
}

func (t *internTable[K]) intern(k K) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[k]; ok {
		return id
	}
	id := uintptr(len(t.ids) + 1)
	t.ids[k] = id
	t.objs[id] = k
	return id
}

func (t *internTable[K]) get(id uintptr) (K, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k, ok := t.objs[id]
	return k, ok
}

func clError(op string, status C.cl_int) error {
	return statusError(op, int(status))
}

func (d *OpenCLDriver) Name() string { return "opencl" }

func (d *OpenCLDriver) Platforms() ([]PlatformID, error) {
	var count C.cl_uint
	if status := C.clGetPlatformIDs(0, nil, &count); status != C.CL_SUCCESS {
		return nil, clError("clGetPlatformIDs", status)
	}
	if count == 0 {
		return nil, nil
	}
	raw := make([]C.cl_platform_id, int(count))
	if status := C.clGetPlatformIDs(count, &raw[0], nil); status != C.CL_SUCCESS {
		return nil, clError("clGetPlatformIDs", status)
	}
	ids := make([]PlatformID, len(raw))
	for i, p := range raw {
		ids[i] = PlatformID(d.platforms.intern(p))
	}
	return ids, nil
}

func (d *OpenCLDriver) PlatformInfo(id PlatformID) (PlatformInfo, error) {
	p, ok := d.platforms.get(uintptr(id))
	if !ok {
		return PlatformInfo{}, statusError("clGetPlatformInfo", clInvalidPlatform)
	}
	var info PlatformInfo
	fields := []struct {
		param C.cl_platform_info
		dst   *string
	}{
		{C.CL_PLATFORM_NAME, &info.Name},
		{C.CL_PLATFORM_VENDOR, &info.Vendor},
		{C.CL_PLATFORM_VERSION, &info.Version},
		{C.CL_PLATFORM_PROFILE, &info.Profile},
		{C.CL_PLATFORM_EXTENSIONS, &info.Extensions},
	}
	for _, f := range fields {
		s, err := platformString(p, f.param)
		if err != nil {
			return PlatformInfo{}, err
		}
		*f.dst = s
	}
	return info, nil
}

func platformString(p C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	if status := C.clGetPlatformInfo(p, param, 0, nil, &size); status != C.CL_SUCCESS {
		return "", clError("clGetPlatformInfo", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	if status := C.clGetPlatformInfo(p, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return "", clError("clGetPlatformInfo", status)
	}
	return trimNull(buf), nil
}

func deviceString(dev C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	if status := C.clGetDeviceInfo(dev, param, 0, nil, &size); status != C.CL_SUCCESS {
		return "", clError("clGetDeviceInfo", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	if status := C.clGetDeviceInfo(dev, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return "", clError("clGetDeviceInfo", status)
	}
	return trimNull(buf), nil
}

func trimNull(buf []byte) string {
	if n := len(buf); n > 0 && buf[n-1] == 0 {
		buf = buf[:n-1]
	}
	return string(buf)
}

func clDeviceType(class DeviceClass) C.cl_device_type {
	switch class {
	case ClassGPU:
		return C.CL_DEVICE_TYPE_GPU
	case ClassAccelerator:
		return C.CL_DEVICE_TYPE_ACCELERATOR
	case ClassCPU:
		return C.CL_DEVICE_TYPE_CPU
	case ClassCustom:
		return C.CL_DEVICE_TYPE_CUSTOM
	case ClassDefault:
		return C.CL_DEVICE_TYPE_DEFAULT
	}
	return C.CL_DEVICE_TYPE_ALL
}

func deviceClass(t C.cl_device_type) DeviceClass {
	switch {
	case t&C.CL_DEVICE_TYPE_GPU != 0:
		return ClassGPU
	case t&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return ClassAccelerator
	case t&C.CL_DEVICE_TYPE_CPU != 0:
		return ClassCPU
	case t&C.CL_DEVICE_TYPE_CUSTOM != 0:
		return ClassCustom
	}
	return ClassDefault
}

func (d *OpenCLDriver) Devices(id PlatformID, class DeviceClass) ([]DeviceID, error) {
	p, ok := d.platforms.get(uintptr(id))
	if !ok {
		return nil, statusError("clGetDeviceIDs", clInvalidPlatform)
	}
	var count C.cl_uint
	status := C.clGetDeviceIDs(p, clDeviceType(class), 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND || (status == C.CL_SUCCESS && count == 0) {
		return nil, nil
	}
	if status != C.CL_SUCCESS {
		return nil, clError("clGetDeviceIDs", status)
	}
	raw := make([]C.cl_device_id, int(count))
	if status := C.clGetDeviceIDs(p, clDeviceType(class), count, &raw[0], nil); status != C.CL_SUCCESS {
		return nil, clError("clGetDeviceIDs", status)
	}
	ids := make([]DeviceID, len(raw))
	for i, dev := range raw {
		ids[i] = DeviceID(d.devices.intern(dev))
	}
	return ids, nil
}

func (d *OpenCLDriver) DeviceInfo(id DeviceID) (DeviceInfo, error) {
	dev, ok := d.devices.get(uintptr(id))
	if !ok {
		return DeviceInfo{}, statusError("clGetDeviceInfo", clInvalidDevice)
	}
	var info DeviceInfo
	var err error
	if info.Name, err = deviceString(dev, C.CL_DEVICE_NAME); err != nil {
		return DeviceInfo{}, err
	}
	if info.Vendor, err = deviceString(dev, C.CL_DEVICE_VENDOR); err != nil {
		return DeviceInfo{}, err
	}
	if info.Version, err = deviceString(dev, C.CL_DEVICE_VERSION); err != nil {
		return DeviceInfo{}, err
	}

	var rawType C.cl_device_type
	if status := C.clGetDeviceInfo(dev, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil); status != C.CL_SUCCESS {
		return DeviceInfo{}, clError("clGetDeviceInfo", status)
	}
	var units C.cl_uint
	if status := C.clGetDeviceInfo(dev, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(units)), unsafe.Pointer(&units), nil); status != C.CL_SUCCESS {
		return DeviceInfo{}, clError("clGetDeviceInfo", status)
	}
	var wg C.size_t
	if status := C.clGetDeviceInfo(dev, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(wg)), unsafe.Pointer(&wg), nil); status != C.CL_SUCCESS {
		return DeviceInfo{}, clError("clGetDeviceInfo", status)
	}
	info.Class = deviceClass(rawType)
	info.ComputeUnits = uint32(units)
	info.MaxWorkGroupSize = int(wg)
	return info, nil
}

func (d *OpenCLDriver) CreateContext(id DeviceID) (ContextID, error) {
	dev, ok := d.devices.get(uintptr(id))
	if !ok {
		return 0, statusError("clCreateContext", clInvalidDevice)
	}
	var status C.cl_int
	ctx := C.clCreateContext(nil, 1, &dev, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateContext", status)
	}
	return ContextID(d.contexts.put(ctx)), nil
}

func (d *OpenCLDriver) ReleaseContext(id ContextID) error {
	ctx, ok := d.contexts.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseContext", clInvalidContext)
	}
	if status := C.clReleaseContext(ctx); status != C.CL_SUCCESS {
		return clError("clReleaseContext", status)
	}
	return nil
}

func (d *OpenCLDriver) CreateQueue(cid ContextID, did DeviceID, props QueueProperties) (QueueID, error) {
	ctx, ok := d.contexts.get(uintptr(cid))
	if !ok {
		return 0, statusError("clCreateCommandQueueWithProperties", clInvalidContext)
	}
	dev, ok := d.devices.get(uintptr(did))
	if !ok {
		return 0, statusError("clCreateCommandQueueWithProperties", clInvalidDevice)
	}
	var bits C.cl_command_queue_properties
	if props&QueueOutOfOrder != 0 {
		bits |= C.CL_QUEUE_OUT_OF_ORDER_EXEC_MODE_ENABLE
	}
	if props&QueueProfiling != 0 {
		bits |= C.CL_QUEUE_PROFILING_ENABLE
	}
	var status C.cl_int
	q := C.lb_create_queue(ctx, dev, bits, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateCommandQueueWithProperties", status)
	}
	return QueueID(d.queues.put(q)), nil
}

func (d *OpenCLDriver) ReleaseQueue(id QueueID) error {
	q, ok := d.queues.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseCommandQueue", clInvalidCommandQueue)
	}
	if status := C.clReleaseCommandQueue(q); status != C.CL_SUCCESS {
		return clError("clReleaseCommandQueue", status)
	}
	return nil
}

func (d *OpenCLDriver) Finish(id QueueID) error {
	q, ok := d.queues.get(uintptr(id))
	if !ok {
		return statusError("clFinish", clInvalidCommandQueue)
	}
	if status := C.clFinish(q); status != C.CL_SUCCESS {
		return clError("clFinish", status)
	}
	return nil
}

func (d *OpenCLDriver) CreateBuffer(cid ContextID, mode MemMode, host unsafe.Pointer, size int) (MemID, error) {
	ctx, ok := d.contexts.get(uintptr(cid))
	if !ok {
		return 0, statusError("clCreateBuffer", clInvalidContext)
	}
	flags := C.cl_mem_flags(C.CL_MEM_USE_HOST_PTR)
	switch mode {
	case ReadOnly:
		flags |= C.CL_MEM_READ_ONLY
	case WriteOnly:
		flags |= C.CL_MEM_WRITE_ONLY
	default:
		flags |= C.CL_MEM_READ_WRITE
	}
	var status C.cl_int
	m := C.clCreateBuffer(ctx, flags, C.size_t(size), host, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateBuffer", status)
	}
	return MemID(d.mems.put(m)), nil
}

func (d *OpenCLDriver) ReleaseBuffer(id MemID) error {
	m, ok := d.mems.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseMemObject", clInvalidMemObject)
	}
	if status := C.clReleaseMemObject(m); status != C.CL_SUCCESS {
		return clError("clReleaseMemObject", status)
	}
	return nil
}

func (d *OpenCLDriver) waitList(op string, wait []EventID) ([]C.cl_event, error) {
	if len(wait) == 0 {
		return nil, nil
	}
	list := make([]C.cl_event, len(wait))
	for i, id := range wait {
		ev, ok := d.events.get(uintptr(id))
		if !ok {
			return nil, statusError(op, clInvalidEventWaitList)
		}
		list[i] = ev
	}
	return list, nil
}

func eventList(list []C.cl_event) (C.cl_uint, *C.cl_event) {
	if len(list) == 0 {
		return 0, nil
	}
	return C.cl_uint(len(list)), &list[0]
}

func (d *OpenCLDriver) transferTarget(op string, qid QueueID, mid MemID, wait []EventID) (C.cl_command_queue, C.cl_mem, []C.cl_event, error) {
	q, ok := d.queues.get(uintptr(qid))
	if !ok {
		return nil, nil, nil, statusError(op, clInvalidCommandQueue)
	}
	m, ok := d.mems.get(uintptr(mid))
	if !ok {
		return nil, nil, nil, statusError(op, clInvalidMemObject)
	}
	list, err := d.waitList(op, wait)
	return q, m, list, err
}

func (d *OpenCLDriver) EnqueueWrite(qid QueueID, mid MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error) {
	q, m, list, err := d.transferTarget("clEnqueueWriteBuffer", qid, mid, wait)
	if err != nil {
		return 0, err
	}
	n, ptr := eventList(list)
	var ev C.cl_event
	status := C.clEnqueueWriteBuffer(q, m, C.CL_FALSE, 0, C.size_t(size), host, n, ptr, &ev)
	if status != C.CL_SUCCESS {
		return 0, clError("clEnqueueWriteBuffer", status)
	}
	return EventID(d.events.put(ev)), nil
}

func (d *OpenCLDriver) EnqueueRead(qid QueueID, mid MemID, host unsafe.Pointer, size int, wait []EventID) (EventID, error) {
	q, m, list, err := d.transferTarget("clEnqueueReadBuffer", qid, mid, wait)
	if err != nil {
		return 0, err
	}
	n, ptr := eventList(list)
	var ev C.cl_event
	status := C.clEnqueueReadBuffer(q, m, C.CL_FALSE, 0, C.size_t(size), host, n, ptr, &ev)
	if status != C.CL_SUCCESS {
		return 0, clError("clEnqueueReadBuffer", status)
	}
	return EventID(d.events.put(ev)), nil
}

func (d *OpenCLDriver) programTarget(op string, cid ContextID, did DeviceID) (C.cl_context, C.cl_device_id, error) {
	ctx, ok := d.contexts.get(uintptr(cid))
	if !ok {
		return nil, nil, statusError(op, clInvalidContext)
	}
	dev, ok := d.devices.get(uintptr(did))
	if !ok {
		return nil, nil, statusError(op, clInvalidDevice)
	}
	return ctx, dev, nil
}

// build runs clBuildProgram and attaches the build log on failure. The
// program is released when the build fails.
func (d *OpenCLDriver) build(prog C.cl_program, dev C.cl_device_id, options string) (ProgramID, error) {
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))

	if status := C.clBuildProgram(prog, 1, &dev, opts, nil, nil); status != C.CL_SUCCESS {
		buildLog := programBuildLog(prog, dev)
		C.clReleaseProgram(prog)
		return 0, &StatusError{Op: "clBuildProgram", Code: int(status), Log: buildLog}
	}
	return ProgramID(d.programs.put(prog)), nil
}

func programBuildLog(prog C.cl_program, dev C.cl_device_id) string {
	var size C.size_t
	if C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, int(size))
	if C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return trimNull(buf)
}

func (d *OpenCLDriver) BuildFromSource(cid ContextID, did DeviceID, source, options string) (ProgramID, error) {
	ctx, dev, err := d.programTarget("clCreateProgramWithSource", cid, did)
	if err != nil {
		return 0, err
	}
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))
	length := C.size_t(len(source))

	var status C.cl_int
	prog := C.clCreateProgramWithSource(ctx, 1, &src, &length, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateProgramWithSource", status)
	}
	return d.build(prog, dev, options)
}

func (d *OpenCLDriver) BuildFromBinary(cid ContextID, did DeviceID, binary []byte, options string) (ProgramID, error) {
	ctx, dev, err := d.programTarget("clCreateProgramWithBinary", cid, did)
	if err != nil {
		return 0, err
	}
	if len(binary) == 0 {
		return 0, statusError("clCreateProgramWithBinary", clInvalidBinary)
	}
	bin := (*C.uchar)(C.CBytes(binary))
	defer C.free(unsafe.Pointer(bin))
	length := C.size_t(len(binary))

	var binStatus, status C.cl_int
	prog := C.clCreateProgramWithBinary(ctx, 1, &dev, &length, &bin, &binStatus, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateProgramWithBinary", status)
	}
	if binStatus != C.CL_SUCCESS {
		C.clReleaseProgram(prog)
		return 0, clError("clCreateProgramWithBinary", binStatus)
	}
	return d.build(prog, dev, options)
}

func (d *OpenCLDriver) ProgramBinary(id ProgramID) ([]byte, error) {
	prog, ok := d.programs.get(uintptr(id))
	if !ok {
		return nil, statusError("clGetProgramInfo", clInvalidProgram)
	}
	var size C.size_t
	if status := C.clGetProgramInfo(prog, C.CL_PROGRAM_BINARY_SIZES, C.size_t(unsafe.Sizeof(size)), unsafe.Pointer(&size), nil); status != C.CL_SUCCESS {
		return nil, clError("clGetProgramInfo", status)
	}
	if size == 0 {
		return nil, statusError("clGetProgramInfo", clInvalidProgramExecutable)
	}
	buf := (*C.uchar)(C.malloc(size))
	defer C.free(unsafe.Pointer(buf))
	if status := C.clGetProgramInfo(prog, C.CL_PROGRAM_BINARIES, C.size_t(unsafe.Sizeof(buf)), unsafe.Pointer(&buf), nil); status != C.CL_SUCCESS {
		return nil, clError("clGetProgramInfo", status)
	}
	return C.GoBytes(unsafe.Pointer(buf), C.int(size)), nil
}

func (d *OpenCLDriver) ReleaseProgram(id ProgramID) error {
	prog, ok := d.programs.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseProgram", clInvalidProgram)
	}
	if status := C.clReleaseProgram(prog); status != C.CL_SUCCESS {
		return clError("clReleaseProgram", status)
	}
	return nil
}

func (d *OpenCLDriver) CreateKernel(id ProgramID, name string) (KernelID, error) {
	prog, ok := d.programs.get(uintptr(id))
	if !ok {
		return 0, statusError("clCreateKernel", clInvalidProgram)
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var status C.cl_int
	k := C.clCreateKernel(prog, cname, &status)
	if status != C.CL_SUCCESS {
		return 0, clError("clCreateKernel", status)
	}
	return KernelID(d.kernels.put(k)), nil
}

func (d *OpenCLDriver) ReleaseKernel(id KernelID) error {
	k, ok := d.kernels.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseKernel", clInvalidKernel)
	}
	if status := C.clReleaseKernel(k); status != C.CL_SUCCESS {
		return clError("clReleaseKernel", status)
	}
	return nil
}

func (d *OpenCLDriver) SetKernelArgMem(kid KernelID, index int, mid MemID) error {
	k, ok := d.kernels.get(uintptr(kid))
	if !ok {
		return statusError("clSetKernelArg", clInvalidKernel)
	}
	m, ok := d.mems.get(uintptr(mid))
	if !ok {
		return statusError("clSetKernelArg", clInvalidMemObject)
	}
	if status := C.clSetKernelArg(k, C.cl_uint(index), C.size_t(unsafe.Sizeof(m)), unsafe.Pointer(&m)); status != C.CL_SUCCESS {
		return clError("clSetKernelArg", status)
	}
	return nil
}

func (d *OpenCLDriver) SetKernelArgValue(kid KernelID, index int, value []byte) error {
	k, ok := d.kernels.get(uintptr(kid))
	if !ok {
		return statusError("clSetKernelArg", clInvalidKernel)
	}
	if len(value) == 0 {
		return statusError("clSetKernelArg", clInvalidArgSize)
	}
	if status := C.clSetKernelArg(k, C.cl_uint(index), C.size_t(len(value)), unsafe.Pointer(&value[0])); status != C.CL_SUCCESS {
		return clError("clSetKernelArg", status)
	}
	return nil
}

func (d *OpenCLDriver) EnqueueKernel(qid QueueID, kid KernelID, global, local int, wait []EventID) (EventID, error) {
	const op = "clEnqueueNDRangeKernel"
	q, ok := d.queues.get(uintptr(qid))
	if !ok {
		return 0, statusError(op, clInvalidCommandQueue)
	}
	k, ok := d.kernels.get(uintptr(kid))
	if !ok {
		return 0, statusError(op, clInvalidKernel)
	}
	list, err := d.waitList(op, wait)
	if err != nil {
		return 0, err
	}
	n, ptr := eventList(list)
	g, l := C.size_t(global), C.size_t(local)
	var ev C.cl_event
	if status := C.clEnqueueNDRangeKernel(q, k, 1, nil, &g, &l, n, ptr, &ev); status != C.CL_SUCCESS {
		return 0, clError(op, status)
	}
	return EventID(d.events.put(ev)), nil
}

func (d *OpenCLDriver) EventStatus(id EventID) (EventStatus, error) {
	ev, ok := d.events.get(uintptr(id))
	if !ok {
		return 0, statusError("clGetEventInfo", clInvalidEvent)
	}
	var st C.cl_int
	if status := C.clGetEventInfo(ev, C.CL_EVENT_COMMAND_EXECUTION_STATUS, C.size_t(unsafe.Sizeof(st)), unsafe.Pointer(&st), nil); status != C.CL_SUCCESS {
		return 0, clError("clGetEventInfo", status)
	}
	return EventStatus(st), nil
}

func (d *OpenCLDriver) EventProfile(id EventID) (Profile, error) {
	ev, ok := d.events.get(uintptr(id))
	if !ok {
		return Profile{}, statusError("clGetEventProfilingInfo", clInvalidEvent)
	}
	var p Profile
	fields := []struct {
		param C.cl_profiling_info
		dst   *uint64
	}{
		{C.CL_PROFILING_COMMAND_QUEUED, &p.Queued},
		{C.CL_PROFILING_COMMAND_SUBMIT, &p.Submit},
		{C.CL_PROFILING_COMMAND_START, &p.Start},
		{C.CL_PROFILING_COMMAND_END, &p.End},
	}
	for _, f := range fields {
		var v C.cl_ulong
		if status := C.clGetEventProfilingInfo(ev, f.param, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil); status != C.CL_SUCCESS {
			return Profile{}, clError("clGetEventProfilingInfo", status)
		}
		*f.dst = uint64(v)
	}
	return p, nil
}

func (d *OpenCLDriver) ReleaseEvent(id EventID) error {
	ev, ok := d.events.remove(uintptr(id))
	if !ok {
		return statusError("clReleaseEvent", clInvalidEvent)
	}
	if status := C.clReleaseEvent(ev); status != C.CL_SUCCESS {
		return clError("clReleaseEvent", status)
	}
	return nil
}
