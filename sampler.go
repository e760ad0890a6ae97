package whirl

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Wrapping controls how texture coordinates outside [0, 1] are handled.
type Wrapping uint8

const (
	// WrapClampToEdge clamps coordinates to the edge texel.
	WrapClampToEdge Wrapping = iota

	// WrapClampToBorder behaves like WrapClampToEdge; WebGPU address
	// modes have no border color.
	WrapClampToBorder

	// WrapRepeat tiles the texture.
	WrapRepeat

	// WrapMirror tiles the texture, mirroring every other repeat.
	WrapMirror
)

func (w Wrapping) toHAL() gputypes.AddressMode {
	switch w {
	case WrapRepeat:
		return gputypes.AddressModeRepeat
	case WrapMirror:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

// Filtering controls how texels are interpolated when sampling.
type Filtering uint8

const (
	// FilterNearest picks the closest texel without interpolation.
	FilterNearest Filtering = iota

	// FilterLinear interpolates between neighboring texels.
	FilterLinear
)

func (f Filtering) toHAL() gputypes.FilterMode {
	if f == FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// Sampler configures texture sampling. The same wrapping mode is
// applied to all three coordinate axes and the same filter to
// magnification, minification and mip selection.
type Sampler struct {
	mu       sync.Mutex
	device   hal.Device
	sampler  hal.Sampler
	label    string
	released bool
}

// NewSampler creates a sampler with the given wrapping and filtering.
func NewSampler(device *Device, wrapping Wrapping, filtering Filtering, label string) (*Sampler, error) {
	dev := device.HAL()
	if dev == nil {
		return nil, ErrDeviceDestroyed
	}
	mode := wrapping.toHAL()
	filter := filtering.toHAL()
	sampler, err := dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: mode,
		AddressModeV: mode,
		AddressModeW: mode,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", label, err)
	}
	return &Sampler{
		device:  dev,
		sampler: sampler,
		label:   label,
	}, nil
}

// Raw returns the underlying HAL sampler, or nil after Destroy.
func (s *Sampler) Raw() hal.Sampler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampler
}

// Label returns the sampler's debug label.
func (s *Sampler) Label() string { return s.label }

// Destroy releases the sampler. Safe to call multiple times.
func (s *Sampler) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if s.sampler != nil {
		s.device.DestroySampler(s.sampler)
	}
	s.sampler = nil
	s.released = true
}
