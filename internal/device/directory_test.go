package device

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPlatforms() []SimPlatform {
	gpu := DefaultSimPlatform()
	cpu := SimPlatform{
		Info: PlatformInfo{Name: "Host Platform", Vendor: "longbow", Version: "OpenCL 3.0", Profile: "FULL_PROFILE"},
		Devices: []DeviceInfo{
			{Name: "host-cpu", Class: ClassCPU, ComputeUnits: 4, MaxWorkGroupSize: 256},
			{Name: "host-gpu", Class: ClassGPU, ComputeUnits: 2, MaxWorkGroupSize: 256},
		},
	}
	return []SimPlatform{gpu, cpu}
}

func TestListDevices_DefaultPlatform(t *testing.T) {
	drv := NewSimDriver()

	devices, err := ListDevices(drv, ClassGPU)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "longbow-sim-gpu", devices[0].Info.Name)
	assert.Equal(t, "Longbow Software Platform", devices[0].Platform.Name)
	assert.Same(t, drv, devices[0].Driver())
	assert.Equal(t, 1.0, testutil.ToFloat64(devicesDiscovered.WithLabelValues("sim", "gpu")))
}

func TestListDevices_ClassFilter(t *testing.T) {
	drv := NewSimDriver(twoPlatforms()...)

	gpus, err := ListDevices(drv, ClassGPU)
	require.NoError(t, err)
	require.Len(t, gpus, 2)
	assert.Equal(t, "longbow-sim-gpu", gpus[0].Info.Name)
	assert.Equal(t, "host-gpu", gpus[1].Info.Name)

	cpus, err := ListDevices(drv, ClassCPU)
	require.NoError(t, err)
	require.Len(t, cpus, 1)
	assert.Equal(t, "host-cpu", cpus[0].Info.Name)

	accel, err := ListDevices(drv, ClassAccelerator)
	require.NoError(t, err)
	assert.Empty(t, accel)

	all, err := ListDevices(drv, ClassAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListDevices_NoDevices(t *testing.T) {
	drv := NewSimDriver(SimPlatform{Info: PlatformInfo{Name: "empty"}})

	devices, err := ListDevices(drv, ClassAll)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestListDevices_Idempotent(t *testing.T) {
	drv := NewSimDriver(twoPlatforms()...)

	first, err := ListDevices(drv, ClassGPU)
	require.NoError(t, err)
	second, err := ListDevices(drv, ClassGPU)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListDevices_EnumerationFailure(t *testing.T) {
	t.Run("Platforms", func(t *testing.T) {
		drv := NewSimDriver()
		drv.InjectFault(SimPlatforms, clOutOfHostMemory)

		_, err := ListDevices(drv, ClassGPU)
		require.ErrorIs(t, err, ErrEnumeration)
		assert.Contains(t, err.Error(), "error getting platforms")
		code, ok := StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, clOutOfHostMemory, code)
	})

	t.Run("Devices", func(t *testing.T) {
		drv := NewSimDriver()
		drv.InjectFault(SimDevices, clInvalidDeviceType)

		_, err := ListDevices(drv, ClassGPU)
		require.ErrorIs(t, err, ErrEnumeration)
		assert.Contains(t, err.Error(), "error getting device ids")
	})
}

func TestInventory(t *testing.T) {
	drv := NewSimDriver(twoPlatforms()...)

	inv, err := Inventory(drv)
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Equal(t, "Longbow Software Platform", inv[0].Info.Name)
	assert.Len(t, inv[0].Devices, 1)
	assert.Equal(t, "Host Platform", inv[1].Info.Name)
	require.Len(t, inv[1].Devices, 2)
	assert.Equal(t, ClassCPU, inv[1].Devices[0].Info.Class)
}

func TestDevices_DefaultClassPicksFirst(t *testing.T) {
	drv := NewSimDriver(twoPlatforms()...)

	devices, err := ListDevices(drv, ClassDefault)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "longbow-sim-gpu", devices[0].Info.Name)
	assert.Equal(t, "host-cpu", devices[1].Info.Name)
}
