package whirl

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceProvider is the integration point between whirl and GPU
// frameworks like gogpu. The host application implements DeviceProvider
// and passes it to whirl, allowing whirl to share the host's GPU device
// instead of creating its own.
type DeviceProvider = gpucontext.DeviceProvider

// DeviceFromProvider adopts a shared GPU device from an external
// provider. The provider must additionally implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. Ownership stays
// with the host; Destroy on the returned Device leaves the handles
// intact.
func DeviceFromProvider(provider any, label string) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("whirl: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("whirl: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("whirl: provider HalQueue is not hal.Queue")
	}
	Logger().Info("whirl: using shared GPU device", "label", label)
	return WrapDevice(device, queue, label), nil
}

// NullDeviceProvider is a DeviceProvider with nil implementations.
// Used where no GPU is available.
type NullDeviceProvider struct{}

// Device returns nil for the null provider.
func (NullDeviceProvider) Device() gpucontext.Device { return nil }

// Queue returns nil for the null provider.
func (NullDeviceProvider) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null provider.
func (NullDeviceProvider) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero adapter info for the null provider.
func (NullDeviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// SurfaceFormat returns undefined format for the null provider.
func (NullDeviceProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceProvider implements DeviceProvider.
var _ DeviceProvider = NullDeviceProvider{}
