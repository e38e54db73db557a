package device

import (
	"errors"
	"fmt"
)

// OpenCL status codes shared by every driver.
const (
	clSuccess                        = 0
	clDeviceNotFound                 = -1
	clDeviceNotAvailable             = -2
	clCompilerNotAvailable           = -3
	clMemObjectAllocationFailure     = -4
	clOutOfResources                 = -5
	clOutOfHostMemory                = -6
	clProfilingInfoNotAvailable      = -7
	clBuildProgramFailure            = -11
	clExecStatusErrorForEventsInWait = -14
	clInvalidValue                   = -30
	clInvalidDeviceType              = -31
	clInvalidPlatform                = -32
	clInvalidDevice                  = -33
	clInvalidContext                 = -34
	clInvalidQueueProperties         = -35
	clInvalidCommandQueue            = -36
	clInvalidHostPtr                 = -37
	clInvalidMemObject               = -38
	clInvalidBinary                  = -42
	clInvalidBuildOptions            = -43
	clInvalidProgram                 = -44
	clInvalidProgramExecutable       = -45
	clInvalidKernelName              = -46
	clInvalidKernelDefinition        = -47
	clInvalidKernel                  = -48
	clInvalidArgIndex                = -49
	clInvalidArgValue                = -50
	clInvalidArgSize                 = -51
	clInvalidKernelArgs              = -52
	clInvalidWorkDimension           = -53
	clInvalidWorkGroupSize           = -54
	clInvalidEventWaitList           = -57
	clInvalidEvent                   = -58
	clInvalidOperation               = -59
	clInvalidBufferSize              = -61
	clInvalidGlobalWorkSize          = -63
)

var statusNames = map[int]string{
	clSuccess:                        "CL_SUCCESS",
	clDeviceNotFound:                 "CL_DEVICE_NOT_FOUND",
	clDeviceNotAvailable:             "CL_DEVICE_NOT_AVAILABLE",
	clCompilerNotAvailable:           "CL_COMPILER_NOT_AVAILABLE",
	clMemObjectAllocationFailure:     "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	clOutOfResources:                 "CL_OUT_OF_RESOURCES",
	clOutOfHostMemory:                "CL_OUT_OF_HOST_MEMORY",
	clProfilingInfoNotAvailable:      "CL_PROFILING_INFO_NOT_AVAILABLE",
	clBuildProgramFailure:            "CL_BUILD_PROGRAM_FAILURE",
	clExecStatusErrorForEventsInWait: "CL_EXEC_STATUS_ERROR_FOR_EVENTS_IN_WAIT_LIST",
	clInvalidValue:                   "CL_INVALID_VALUE",
	clInvalidDeviceType:              "CL_INVALID_DEVICE_TYPE",
	clInvalidPlatform:                "CL_INVALID_PLATFORM",
	clInvalidDevice:                  "CL_INVALID_DEVICE",
	clInvalidContext:                 "CL_INVALID_CONTEXT",
	clInvalidQueueProperties:         "CL_INVALID_QUEUE_PROPERTIES",
	clInvalidCommandQueue:            "CL_INVALID_COMMAND_QUEUE",
	clInvalidHostPtr:                 "CL_INVALID_HOST_PTR",
	clInvalidMemObject:               "CL_INVALID_MEM_OBJECT",
	clInvalidBinary:                  "CL_INVALID_BINARY",
	clInvalidBuildOptions:            "CL_INVALID_BUILD_OPTIONS",
	clInvalidProgram:                 "CL_INVALID_PROGRAM",
	clInvalidProgramExecutable:       "CL_INVALID_PROGRAM_EXECUTABLE",
	clInvalidKernelName:              "CL_INVALID_KERNEL_NAME",
	clInvalidKernelDefinition:        "CL_INVALID_KERNEL_DEFINITION",
	clInvalidKernel:                  "CL_INVALID_KERNEL",
	clInvalidArgIndex:                "CL_INVALID_ARG_INDEX",
	clInvalidArgValue:                "CL_INVALID_ARG_VALUE",
	clInvalidArgSize:                 "CL_INVALID_ARG_SIZE",
	clInvalidKernelArgs:              "CL_INVALID_KERNEL_ARGS",
	clInvalidWorkDimension:           "CL_INVALID_WORK_DIMENSION",
	clInvalidWorkGroupSize:           "CL_INVALID_WORK_GROUP_SIZE",
	clInvalidEventWaitList:           "CL_INVALID_EVENT_WAIT_LIST",
	clInvalidEvent:                   "CL_INVALID_EVENT",
	clInvalidOperation:               "CL_INVALID_OPERATION",
	clInvalidBufferSize:              "CL_INVALID_BUFFER_SIZE",
	clInvalidGlobalWorkSize:          "CL_INVALID_GLOBAL_WORK_SIZE",
}

// StatusName returns the OpenCL spelling of a status code.
func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "CL_UNKNOWN_ERROR"
}

// StatusError is a failed driver call.
type StatusError struct {
	Op   string
	Code int
	// Log carries the compiler output for build failures.
	Log string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s (%d)", e.Op, StatusName(e.Code), e.Code)
	if e.Log != "" {
		msg += ": " + e.Log
	}
	return msg
}

func statusError(op string, code int) error {
	return &StatusError{Op: op, Code: code}
}

// StatusCode extracts the OpenCL status code from err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
