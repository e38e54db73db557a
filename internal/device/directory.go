package device

import (
	"github.com/rs/zerolog/log"
)

// Device is a compute device discovered through a Driver.
type Device struct {
	driver   Driver
	id       DeviceID
	Platform PlatformInfo
	Info     DeviceInfo
}

// Driver returns the driver the device was enumerated from.
func (d Device) Driver() Driver { return d.driver }

// PlatformInventory is a platform together with all of its devices.
type PlatformInventory struct {
	Info    PlatformInfo
	Devices []Device
}

// ListDevices enumerates every platform and collects the devices matching
// class. Zero devices is a valid result and not an error.
func ListDevices(drv Driver, class DeviceClass) ([]Device, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return nil, wrap(ErrEnumeration, "error getting platforms", err)
	}

	var devices []Device
	for _, p := range platforms {
		info, err := drv.PlatformInfo(p)
		if err != nil {
			return nil, wrap(ErrEnumeration, "error getting platform info", err)
		}
		logPlatformInfo(info)

		found, err := platformDevices(drv, p, info, class)
		if err != nil {
			return nil, err
		}
		devices = append(devices, found...)
	}

	devicesDiscovered.WithLabelValues(drv.Name(), class.String()).Set(float64(len(devices)))
	return devices, nil
}

// Inventory returns every platform with all of its devices.
func Inventory(drv Driver) ([]PlatformInventory, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return nil, wrap(ErrEnumeration, "error getting platforms", err)
	}

	out := make([]PlatformInventory, 0, len(platforms))
	for _, p := range platforms {
		info, err := drv.PlatformInfo(p)
		if err != nil {
			return nil, wrap(ErrEnumeration, "error getting platform info", err)
		}
		devices, err := platformDevices(drv, p, info, ClassAll)
		if err != nil {
			return nil, err
		}
		out = append(out, PlatformInventory{Info: info, Devices: devices})
	}
	return out, nil
}

func platformDevices(drv Driver, p PlatformID, info PlatformInfo, class DeviceClass) ([]Device, error) {
	ids, err := drv.Devices(p, class)
	if err != nil {
		return nil, wrap(ErrEnumeration, "error getting device ids", err)
	}

	devices := make([]Device, 0, len(ids))
	for _, id := range ids {
		dinfo, err := drv.DeviceInfo(id)
		if err != nil {
			return nil, wrap(ErrEnumeration, "error getting device info", err)
		}
		devices = append(devices, Device{
			driver:   drv,
			id:       id,
			Platform: info,
			Info:     dinfo,
		})
	}
	return devices, nil
}

func logPlatformInfo(info PlatformInfo) {
	log.Info().
		Str("name", info.Name).
		Str("profile", info.Profile).
		Str("version", info.Version).
		Str("vendor", info.Vendor).
		Str("extensions", info.Extensions).
		Msg("Platform")
}
