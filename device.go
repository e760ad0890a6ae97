package whirl

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoBackend indicates that no HAL backend is registered.
	ErrNoBackend = errors.New("whirl: no GPU backend available")

	// ErrNoAdapter indicates that the backend exposed no usable adapters.
	ErrNoAdapter = errors.New("whirl: no GPU adapters found")

	// ErrDeviceDestroyed indicates use of a device after Destroy.
	ErrDeviceDestroyed = errors.New("whirl: device has been destroyed")
)

// GPUInfo describes the adapter backing a Device.
type GPUInfo struct {
	// Name is the adapter name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// DeviceType is the adapter class (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use.
	Backend gputypes.Backend
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%v, %v)", g.Name, g.DeviceType, g.Backend)
}

// Device owns a HAL device and its submission queue. Every GPU resource
// in whirl (buffers, textures, shaders, pipelines) is created through a
// Device and must not outlive it.
//
// A Device is either standalone (created by [NewDevice], which performs
// full instance/adapter bring-up and owns the underlying resources) or
// shared (created by [WrapDevice] or [DeviceFromProvider], borrowing the
// handles of a host application). Destroy releases owned resources only.
type Device struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     *GPUInfo
	label    string
	owned    bool
	released bool
}

// NewDevice creates a standalone device on the Vulkan backend, preferring
// a discrete or integrated GPU when several adapters are exposed.
func NewDevice(label string) (*Device, error) {
	return newDeviceOn(gputypes.BackendVulkan, label)
}

func newDeviceOn(backendKind gputypes.Backend, label string) (*Device, error) {
	backend, ok := hal.GetBackend(backendKind)
	if !ok {
		return nil, fmt.Errorf("%w: backend %v not registered", ErrNoBackend, backendKind)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	info := &GPUInfo{
		Name:       selected.Info.Name,
		DeviceType: selected.Info.DeviceType,
		Backend:    backendKind,
	}
	Logger().Info("whirl: device initialized", "adapter", info.Name, "label", label)

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		info:     info,
		label:    label,
		owned:    true,
	}, nil
}

// WrapDevice adopts externally created HAL handles without taking
// ownership. Destroy on the returned Device leaves the handles intact.
func WrapDevice(device hal.Device, queue hal.Queue, label string) *Device {
	return &Device{
		device: device,
		queue:  queue,
		label:  label,
	}
}

// HAL returns the underlying HAL device, or nil after Destroy.
func (d *Device) HAL() hal.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

// Queue returns the submission queue, or nil after Destroy.
func (d *Device) Queue() hal.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue
}

// Info returns adapter information. Nil for wrapped devices.
func (d *Device) Info() *GPUInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Label returns the debug label given at creation.
func (d *Device) Label() string { return d.label }

// Destroy releases the device and instance if this Device owns them.
// Safe to call multiple times.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	if d.owned {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.released = true
	Logger().Debug("whirl: device destroyed", "label", d.label)
}
