package whirl

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// ProbeResult describes the GPU found by [Probe].
type ProbeResult struct {
	// Name is the adapter name.
	Name string
	// Vendor is the adapter vendor.
	Vendor string
	// DeviceType is the adapter class (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
	// MaxTextureDimension2D is the largest supported 2D texture size.
	MaxTextureDimension2D uint32
	// MaxBufferSize is the largest supported buffer size in bytes.
	MaxBufferSize uint64
}

// String returns a human-readable description of the probed GPU.
func (r *ProbeResult) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.Name, r.DeviceType, r.Backend)
}

// Probe performs a full instance/adapter/device bring-up through the
// wgpu core layer, collects adapter information and device limits, and
// releases everything before returning. Use it to check GPU
// availability and capabilities without holding resources open.
func Probe() (*ProbeResult, error) {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	})

	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}

	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		releaseAdapter(adapterID)
		return nil, fmt.Errorf("get adapter info: %w", err)
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:            "whirl-probe",
		RequiredFeatures: nil,
		RequiredLimits:   gputypes.DefaultLimits(),
	})
	if err != nil {
		releaseAdapter(adapterID)
		return nil, fmt.Errorf("request device: %w", err)
	}

	limits, err := core.GetDeviceLimits(deviceID)
	if err != nil {
		releaseDevice(deviceID)
		releaseAdapter(adapterID)
		return nil, fmt.Errorf("get device limits: %w", err)
	}

	releaseDevice(deviceID)
	releaseAdapter(adapterID)

	result := &ProbeResult{
		Name:                  info.Name,
		Vendor:                info.Vendor,
		DeviceType:            info.DeviceType,
		Backend:               info.Backend,
		Driver:                info.Driver,
		MaxTextureDimension2D: limits.MaxTextureDimension2D,
		MaxBufferSize:         limits.MaxBufferSize,
	}
	Logger().Info("whirl: probed GPU", "adapter", result.String(), "driver", result.Driver)
	return result, nil
}

// releaseDevice drops a core device ID, logging release failures.
func releaseDevice(deviceID core.DeviceID) {
	if deviceID.IsZero() {
		return
	}
	if err := core.DeviceDrop(deviceID); err != nil {
		Logger().Warn("whirl: error releasing device", "err", err)
	}
}

// releaseAdapter drops a core adapter ID, logging release failures.
func releaseAdapter(adapterID core.AdapterID) {
	if adapterID.IsZero() {
		return
	}
	if err := core.AdapterDrop(adapterID); err != nil {
		Logger().Warn("whirl: error releasing adapter", "err", err)
	}
}
