package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MatchesKindAndCause(t *testing.T) {
	cause := statusError("clCreateBuffer", clOutOfResources)
	err := wrap(ErrAllocation, "error creating buffer", cause)

	assert.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTransfer)
	assert.Equal(t, "error creating buffer: clCreateBuffer: CL_OUT_OF_RESOURCES (-5)", err.Error())

	bare := wrap(ErrNoProgram, "kernel lookup", nil)
	assert.Equal(t, "no programs built: kernel lookup", bare.Error())
	assert.ErrorIs(t, bare, ErrNoProgram)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Op: "clBuildProgram", Code: clBuildProgramFailure, Log: "error: boom"}
	assert.Equal(t, "clBuildProgram: CL_BUILD_PROGRAM_FAILURE (-11): error: boom", err.Error())

	code, ok := StatusCode(wrap(ErrBuild, "build", err))
	require.True(t, ok)
	assert.Equal(t, clBuildProgramFailure, code)

	_, ok = StatusCode(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "CL_UNKNOWN_ERROR", StatusName(-9999))
}

func TestDeviceClass(t *testing.T) {
	for c := range classNames {
		parsed, err := ParseDeviceClass(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	parsed, err := ParseDeviceClass(" GPU ")
	require.NoError(t, err)
	assert.Equal(t, ClassGPU, parsed)

	_, err = ParseDeviceClass("fpga")
	assert.Error(t, err)
}

func TestEventStatus_String(t *testing.T) {
	assert.Equal(t, "complete", StatusComplete.String())
	assert.Equal(t, "queued", StatusQueued.String())
	assert.Equal(t, "CL_OUT_OF_RESOURCES", EventStatus(clOutOfResources).String())
}

func TestOpen(t *testing.T) {
	drv, err := Open("sim")
	require.NoError(t, err)
	assert.Equal(t, "sim", drv.Name())

	_, err = Open("vulkan")
	assert.Error(t, err)
}
