package graphics

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// sceneUniform is a packed uniform block for binding tests.
type sceneUniform struct {
	ViewProj [16]float32
}

// createTestView creates a small sampled texture and view on the noop
// device.
func createTestView(t *testing.T, dev hal.Device) (hal.TextureView, func()) {
	t.Helper()
	tex, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "test_texture",
		Size:          hal.Extent3D{Width: 16, Height: 16, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	view, err := dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "test_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateTextureView failed: %v", err)
	}
	return view, func() {
		dev.DestroyTextureView(view)
		dev.DestroyTexture(tex)
	}
}

// The uniform-buffer-plus-texture scenario: indices auto-assign to
// {0, 1} and a matching set builds without error.
func TestResourceSetUniformAndTexture(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("scene").
		Buffer(BindingUniform, VisibleVertex).
		Texture(TextureD2, SampleImage, VisibleFragment).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	if layout.Len() != 2 {
		t.Fatalf("expected 2 bindings, got %d", layout.Len())
	}
	if layout.kinds[0] != entryBuffer || layout.kinds[1] != entryTexture {
		t.Errorf("expected kinds [buffer texture], got %v", layout.kinds)
	}

	uniform, err := NewTypedBuffer(dev, []sceneUniform{{}}, BufferUsage{Kind: BufferUniform, Writable: true}, "scene_uniform")
	if err != nil {
		t.Fatalf("NewTypedBuffer failed: %v", err)
	}
	defer uniform.Destroy()

	view, release := createTestView(t, dev.HAL())
	defer release()

	set, err := NewResourceSet("scene_set").
		Buffer(uniform).
		Texture(view).
		Build(dev, layout)
	if err != nil {
		t.Fatalf("set Build failed: %v", err)
	}
	defer set.Destroy()

	if set.Raw() == nil {
		t.Error("expected non-nil bind group")
	}
	if set.Stale() {
		t.Error("fresh set must not be stale")
	}
}

// The texture-plus-sampler scenario: sampler handles pass through the
// bind group entry unconverted.
func TestResourceSetWithSampler(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("material").
		Texture(TextureD2, SampleImage, VisibleFragment).
		Sampler(SamplerLinear, VisibleFragment).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	view, release := createTestView(t, dev.HAL())
	defer release()

	sampler, err := dev.HAL().CreateSampler(&hal.SamplerDescriptor{
		Label:        "material_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		t.Fatalf("CreateSampler failed: %v", err)
	}
	defer dev.HAL().DestroySampler(sampler)

	set, err := NewResourceSet("material_set").
		Texture(view).
		Sampler(sampler).
		Build(dev, layout)
	if err != nil {
		t.Fatalf("set Build failed: %v", err)
	}
	defer set.Destroy()

	if set.Raw() == nil {
		t.Error("expected non-nil bind group")
	}
}

func TestResourceSetLayoutEmptyPanics(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	mustPanic(t, "no entries", func() {
		NewResourceSetLayout("empty").Build(dev) //nolint:errcheck // panics first
	})
}

func TestResourceSetEmptyPanics(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("one").
		Buffer(BindingUniform, VisibleBoth).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	mustPanic(t, "no entries", func() {
		NewResourceSet("empty").Build(dev, layout) //nolint:errcheck // panics first
	})
}

func TestResourceSetCountMismatch(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("two").
		Buffer(BindingUniform, VisibleVertex).
		Buffer(BindingStorage, VisibleVertex).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	uniform, err := NewTypedBuffer(dev, []sceneUniform{{}}, BufferUsage{Kind: BufferUniform, Writable: true}, "u")
	if err != nil {
		t.Fatalf("NewTypedBuffer failed: %v", err)
	}
	defer uniform.Destroy()

	_, err = NewResourceSet("short").Buffer(uniform).Build(dev, layout)
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch for count mismatch, got %v", err)
	}
}

func TestResourceSetKindMismatch(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("buffer_only").
		Buffer(BindingUniform, VisibleVertex).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	view, release := createTestView(t, dev.HAL())
	defer release()

	_, err = NewResourceSet("texture_instead").Texture(view).Build(dev, layout)
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch for kind mismatch, got %v", err)
	}
}

// A set captures buffer generations; growing a bound buffer makes the
// set stale.
func TestResourceSetStaleAfterGrowth(t *testing.T) {
	dev, _, _, cleanup := newRecordingDevice(t)
	defer cleanup()

	layout, err := NewResourceSetLayout("storage").
		Buffer(BindingStorage, VisibleVertex).
		Build(dev)
	if err != nil {
		t.Fatalf("layout Build failed: %v", err)
	}
	defer layout.Destroy()

	buf, err := NewTypedBuffer(dev, testVecs(2), BufferUsage{Kind: BufferStorage, Writable: true}, "particles")
	if err != nil {
		t.Fatalf("NewTypedBuffer failed: %v", err)
	}
	defer buf.Destroy()

	set, err := NewResourceSet("particle_set").Buffer(buf).Build(dev, layout)
	if err != nil {
		t.Fatalf("set Build failed: %v", err)
	}
	defer set.Destroy()

	// In-place flush keeps the set valid.
	if err := buf.UpdateAndFlush(0, testVecs(1)); err != nil {
		t.Fatalf("UpdateAndFlush failed: %v", err)
	}
	if set.Stale() {
		t.Fatal("in-place flush must not invalidate the set")
	}

	// Growth reallocates and invalidates.
	if err := buf.ExtendAndFlush(testVecs(3)); err != nil {
		t.Fatalf("ExtendAndFlush failed: %v", err)
	}
	if !set.Stale() {
		t.Fatal("expected stale set after buffer growth")
	}
	stale := set.StaleBindings()
	if len(stale) != 1 || stale[0] != 0 {
		t.Errorf("expected stale binding [0], got %v", stale)
	}
}

func TestBindingKindMappings(t *testing.T) {
	if BindingUniform.toHAL() != gputypes.BufferBindingTypeUniform {
		t.Error("uniform binding mapping wrong")
	}
	if BindingStorage.toHAL() != gputypes.BufferBindingTypeReadOnlyStorage {
		t.Error("storage binding must map to read-only storage")
	}
	if SamplerNearest.toHAL() != gputypes.SamplerBindingTypeNonFiltering {
		t.Error("nearest sampler mapping wrong")
	}
	if SamplerLinear.toHAL() != gputypes.SamplerBindingTypeFiltering {
		t.Error("linear sampler mapping wrong")
	}
	if SamplerCompare.toHAL() != gputypes.SamplerBindingTypeComparison {
		t.Error("compare sampler mapping wrong")
	}
	if TextureD2.toHAL() != gputypes.TextureViewDimension2D {
		t.Error("2D texture mapping wrong")
	}
	if TextureCube.toHAL() != gputypes.TextureViewDimensionCube {
		t.Error("cube texture mapping wrong")
	}
	if SampleImage.toHAL() != gputypes.TextureSampleTypeFloat {
		t.Error("image sample mapping wrong")
	}
	if SampleDepth.toHAL() != gputypes.TextureSampleTypeDepth {
		t.Error("depth sample mapping wrong")
	}
	if VisibleVertex.toHAL() != gputypes.ShaderStageVertex {
		t.Error("vertex visibility mapping wrong")
	}
	if VisibleBoth.toHAL() != gputypes.ShaderStageVertex|gputypes.ShaderStageFragment {
		t.Error("both visibility mapping wrong")
	}
}
