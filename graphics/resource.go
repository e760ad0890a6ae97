package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrLayoutMismatch is returned when a resource set's entries do not
// structurally match the layout it is built against.
var ErrLayoutMismatch = errors.New("graphics: resource set does not match layout")

// Visibility selects the shader stages a binding is visible to.
type Visibility uint8

const (
	// VisibleVertex exposes the binding to the vertex stage only.
	VisibleVertex Visibility = iota

	// VisibleFragment exposes the binding to the fragment stage only.
	VisibleFragment

	// VisibleBoth exposes the binding to both stages.
	VisibleBoth
)

func (v Visibility) toHAL() gputypes.ShaderStage {
	switch v {
	case VisibleVertex:
		return gputypes.ShaderStageVertex
	case VisibleFragment:
		return gputypes.ShaderStageFragment
	default:
		return gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	}
}

// BufferBindingKind selects how a buffer binding is exposed to shaders.
type BufferBindingKind uint8

const (
	// BindingUniform is a uniform buffer binding.
	BindingUniform BufferBindingKind = iota

	// BindingStorage is a read-only storage buffer binding.
	BindingStorage
)

func (k BufferBindingKind) toHAL() gputypes.BufferBindingType {
	if k == BindingStorage {
		return gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BufferBindingTypeUniform
}

// SamplerBindingKind selects the sampler binding type.
type SamplerBindingKind uint8

const (
	// SamplerNearest is a non-filtering sampler binding.
	SamplerNearest SamplerBindingKind = iota

	// SamplerLinear is a filtering sampler binding.
	SamplerLinear

	// SamplerCompare is a comparison sampler binding.
	SamplerCompare
)

func (k SamplerBindingKind) toHAL() gputypes.SamplerBindingType {
	switch k {
	case SamplerNearest:
		return gputypes.SamplerBindingTypeNonFiltering
	case SamplerCompare:
		return gputypes.SamplerBindingTypeComparison
	default:
		return gputypes.SamplerBindingTypeFiltering
	}
}

// TextureDimension is the dimensionality of a texture binding.
type TextureDimension uint8

const (
	// TextureD1 is a one-dimensional texture.
	TextureD1 TextureDimension = iota

	// TextureD2 is a two-dimensional texture.
	TextureD2

	// TextureD3 is a three-dimensional texture.
	TextureD3

	// TextureCube is a cube-map texture.
	TextureCube
)

func (d TextureDimension) toHAL() gputypes.TextureViewDimension {
	switch d {
	case TextureD1:
		return gputypes.TextureViewDimension1D
	case TextureD3:
		return gputypes.TextureViewDimension3D
	case TextureCube:
		return gputypes.TextureViewDimensionCube
	default:
		return gputypes.TextureViewDimension2D
	}
}

// TextureSampleKind is the sample type of a texture binding.
type TextureSampleKind uint8

const (
	// SampleImage is a filterable float texture.
	SampleImage TextureSampleKind = iota

	// SampleDepth is a depth texture.
	SampleDepth
)

func (k TextureSampleKind) toHAL() gputypes.TextureSampleType {
	if k == SampleDepth {
		return gputypes.TextureSampleTypeDepth
	}
	return gputypes.TextureSampleTypeFloat
}

// entryKind tags a binding slot so sets can be validated against
// layouts entry by entry.
type entryKind uint8

const (
	entryBuffer entryKind = iota
	entrySampler
	entryTexture
)

func (k entryKind) String() string {
	switch k {
	case entryBuffer:
		return "buffer"
	case entrySampler:
		return "sampler"
	case entryTexture:
		return "texture"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ResourceSetLayoutBuilder accumulates binding declarations with
// auto-assigned sequential binding indices.
type ResourceSetLayoutBuilder struct {
	label   string
	entries []gputypes.BindGroupLayoutEntry
	kinds   []entryKind
}

// NewResourceSetLayout starts an empty layout builder.
func NewResourceSetLayout(label string) *ResourceSetLayoutBuilder {
	return &ResourceSetLayoutBuilder{label: label}
}

// Buffer declares a buffer binding at the next index.
func (b *ResourceSetLayoutBuilder) Buffer(kind BufferBindingKind, visibility Visibility) *ResourceSetLayoutBuilder {
	b.entries = append(b.entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(len(b.entries)),
		Visibility: visibility.toHAL(),
		Buffer:     &gputypes.BufferBindingLayout{Type: kind.toHAL()},
	})
	b.kinds = append(b.kinds, entryBuffer)
	return b
}

// Sampler declares a sampler binding at the next index.
func (b *ResourceSetLayoutBuilder) Sampler(kind SamplerBindingKind, visibility Visibility) *ResourceSetLayoutBuilder {
	b.entries = append(b.entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(len(b.entries)),
		Visibility: visibility.toHAL(),
		Sampler:    &gputypes.SamplerBindingLayout{Type: kind.toHAL()},
	})
	b.kinds = append(b.kinds, entrySampler)
	return b
}

// Texture declares a texture binding at the next index.
func (b *ResourceSetLayoutBuilder) Texture(dim TextureDimension, sample TextureSampleKind, visibility Visibility) *ResourceSetLayoutBuilder {
	b.entries = append(b.entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(len(b.entries)),
		Visibility: visibility.toHAL(),
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    sample.toHAL(),
			ViewDimension: dim.toHAL(),
		},
	})
	b.kinds = append(b.kinds, entryTexture)
	return b
}

// Build creates the bind group layout. Panics if no entries were
// declared.
func (b *ResourceSetLayoutBuilder) Build(device Device) (*ResourceSetLayout, error) {
	if len(b.entries) == 0 {
		panic(fmt.Sprintf("graphics: resource set layout %q has no entries", b.label))
	}
	dev := device.HAL()
	layout, err := dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   b.label,
		Entries: b.entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create resource set layout %q: %w", b.label, err)
	}
	kinds := make([]entryKind, len(b.kinds))
	copy(kinds, b.kinds)
	return &ResourceSetLayout{
		device: dev,
		layout: layout,
		kinds:  kinds,
		label:  b.label,
	}, nil
}

// ResourceSetLayout is the declared contract of binding kinds and
// visibility a matching ResourceSet must satisfy. Immutable once built.
type ResourceSetLayout struct {
	mu       sync.Mutex
	device   hal.Device
	layout   hal.BindGroupLayout
	kinds    []entryKind
	label    string
	released bool
}

// Raw returns the HAL bind group layout.
func (l *ResourceSetLayout) Raw() hal.BindGroupLayout { return l.layout }

// Len returns the number of declared bindings.
func (l *ResourceSetLayout) Len() int { return len(l.kinds) }

// Label returns the layout's debug label.
func (l *ResourceSetLayout) Label() string { return l.label }

// Destroy releases the bind group layout. Safe to call multiple times.
func (l *ResourceSetLayout) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	if l.layout != nil {
		l.device.DestroyBindGroupLayout(l.layout)
	}
	l.released = true
}

// ResourceSetBuilder accumulates concrete resources with auto-assigned
// sequential binding indices. Resources are borrowed, never owned; they
// must outlive the built set.
type ResourceSetBuilder struct {
	label   string
	entries []gputypes.BindGroupEntry
	kinds   []entryKind
	buffers []Capability
}

// NewResourceSet starts an empty resource set builder.
func NewResourceSet(label string) *ResourceSetBuilder {
	return &ResourceSetBuilder{label: label}
}

// Buffer binds a typed buffer's full range at the next index.
func (b *ResourceSetBuilder) Buffer(buf Capability) *ResourceSetBuilder {
	b.entries = append(b.entries, gputypes.BindGroupEntry{
		Binding: uint32(len(b.entries)),
		Resource: gputypes.BufferBinding{
			Buffer: buf.Raw().NativeHandle(),
			Offset: 0,
			Size:   uint64(len(buf.Bytes())),
		},
	})
	b.kinds = append(b.kinds, entryBuffer)
	b.buffers = append(b.buffers, buf)
	return b
}

// Sampler binds a sampler at the next index. *whirl.Sampler's Raw
// method supplies the handle.
func (b *ResourceSetBuilder) Sampler(sampler hal.Sampler) *ResourceSetBuilder {
	b.entries = append(b.entries, gputypes.BindGroupEntry{
		Binding: uint32(len(b.entries)),
		Resource: gputypes.SamplerBinding{
			Sampler: sampler.NativeHandle(),
		},
	})
	b.kinds = append(b.kinds, entrySampler)
	return b
}

// Texture binds a texture view at the next index. *whirl.Texture's View
// method supplies the view.
func (b *ResourceSetBuilder) Texture(view hal.TextureView) *ResourceSetBuilder {
	b.entries = append(b.entries, gputypes.BindGroupEntry{
		Binding: uint32(len(b.entries)),
		Resource: gputypes.TextureViewBinding{
			TextureView: view.NativeHandle(),
		},
	})
	b.kinds = append(b.kinds, entryTexture)
	return b
}

// Build validates the accumulated entries against the layout and
// creates the bind group. Count and kind must match entry for entry;
// mismatches fail with [ErrLayoutMismatch] before any device call.
// Buffer generations are captured so stale sets can be detected after
// a buffer regrows. Panics if no entries were added.
func (b *ResourceSetBuilder) Build(device Device, layout *ResourceSetLayout) (*ResourceSet, error) {
	if len(b.entries) == 0 {
		panic(fmt.Sprintf("graphics: resource set %q has no entries", b.label))
	}
	if len(b.kinds) != len(layout.kinds) {
		return nil, fmt.Errorf("%w: %q has %d entries, layout %q declares %d",
			ErrLayoutMismatch, b.label, len(b.kinds), layout.label, len(layout.kinds))
	}
	for i, kind := range b.kinds {
		if kind != layout.kinds[i] {
			return nil, fmt.Errorf("%w: binding %d is a %v, layout %q declares a %v",
				ErrLayoutMismatch, i, kind, layout.label, layout.kinds[i])
		}
	}

	dev := device.HAL()
	group, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   b.label,
		Layout:  layout.Raw(),
		Entries: b.entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create resource set %q: %w", b.label, err)
	}

	generations := make([]uint64, len(b.buffers))
	for i, buf := range b.buffers {
		generations[i] = buf.Generation()
	}
	slogger().Debug("graphics: resource set built",
		"label", b.label, "bindings", len(b.kinds))
	return &ResourceSet{
		device:      dev,
		group:       group,
		buffers:     b.buffers,
		generations: generations,
		label:       b.label,
	}, nil
}

// ResourceSet binds concrete resources to shader-visible slots under a
// validated layout contract. Immutable once built.
//
// The set captures each bound buffer's allocation generation. A flush
// that grows a bound buffer replaces its GPU allocation, leaving this
// set pointing at freed memory; [ResourceSet.Stale] reports that state
// and binding the set then is a caller bug.
type ResourceSet struct {
	mu          sync.Mutex
	device      hal.Device
	group       hal.BindGroup
	buffers     []Capability
	generations []uint64
	label       string
	released    bool
}

// Raw returns the HAL bind group.
func (s *ResourceSet) Raw() hal.BindGroup { return s.group }

// Label returns the set's debug label.
func (s *ResourceSet) Label() string { return s.label }

// Stale reports whether any bound buffer has been reallocated since
// the set was built.
func (s *ResourceSet) Stale() bool {
	return len(s.StaleBindings()) > 0
}

// StaleBindings returns the indices (into the set's buffer entries, in
// binding order) of buffers whose allocation generation has moved since
// the set was built. A stale set must be rebuilt before binding.
func (s *ResourceSet) StaleBindings() []int {
	var stale []int
	for i, buf := range s.buffers {
		if buf.Generation() != s.generations[i] {
			stale = append(stale, i)
		}
	}
	return stale
}

// Destroy releases the bind group. Bound resources are untouched; the
// caller owns them. Safe to call multiple times.
func (s *ResourceSet) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if s.group != nil {
		s.device.DestroyBindGroup(s.group)
	}
	s.released = true
}
