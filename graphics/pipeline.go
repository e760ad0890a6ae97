package graphics

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DrawMode selects how a pipeline rasterizes its geometry.
type DrawMode uint8

const (
	// DrawFill rasterizes solid primitives using the configured
	// primitive topology.
	DrawFill DrawMode = iota

	// DrawPoints rasterizes one point per vertex.
	DrawPoints

	// DrawWireframe rasterizes primitive edges as lines.
	DrawWireframe
)

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	// CullNone keeps all faces.
	CullNone CullMode = iota

	// CullFront discards front-facing triangles.
	CullFront

	// CullBack discards back-facing triangles.
	CullBack
)

func (m CullMode) toHAL() gputypes.CullMode {
	switch m {
	case CullFront:
		return gputypes.CullModeFront
	case CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

// Winding declares which vertex order is front-facing.
type Winding uint8

const (
	// WindingClockwise treats clockwise triangles as front-facing.
	WindingClockwise Winding = iota

	// WindingCounterClockwise treats counter-clockwise triangles as
	// front-facing.
	WindingCounterClockwise
)

func (w Winding) toHAL() gputypes.FrontFace {
	if w == WindingCounterClockwise {
		return gputypes.FrontFaceCCW
	}
	return gputypes.FrontFaceCW
}

// Primitive is the vertex assembly topology.
type Primitive uint8

const (
	// PrimitiveTriangleList assembles independent triangles.
	PrimitiveTriangleList Primitive = iota

	// PrimitiveLineList assembles independent line segments.
	PrimitiveLineList

	// PrimitivePointList assembles one point per vertex.
	PrimitivePointList
)

func (p Primitive) toHAL() gputypes.PrimitiveTopology {
	switch p {
	case PrimitiveLineList:
		return gputypes.PrimitiveTopologyLineList
	case PrimitivePointList:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// resolveTopology combines the draw mode with the configured topology.
// DrawPoints and DrawWireframe override the topology since WebGPU has
// no polygon-mode control.
func resolveTopology(draw DrawMode, primitive Primitive) gputypes.PrimitiveTopology {
	switch draw {
	case DrawPoints:
		return gputypes.PrimitiveTopologyPointList
	case DrawWireframe:
		return gputypes.PrimitiveTopologyLineList
	default:
		return primitive.toHAL()
	}
}

// BlendMode selects how fragment output combines with the target.
type BlendMode uint8

const (
	// BlendAlpha blends premultiplied-alpha source over destination.
	BlendAlpha BlendMode = iota

	// BlendReplace writes fragment output unblended.
	BlendReplace
)

// DepthCompare is the depth test comparison function.
type DepthCompare uint8

const (
	// DepthNever fails every depth test.
	DepthNever DepthCompare = iota

	// DepthLess passes when the fragment is closer.
	DepthLess

	// DepthEqual passes on equal depth.
	DepthEqual

	// DepthLessEqual passes when closer or equal.
	DepthLessEqual

	// DepthGreater passes when the fragment is farther.
	DepthGreater

	// DepthNotEqual passes on unequal depth.
	DepthNotEqual

	// DepthGreaterEqual passes when farther or equal.
	DepthGreaterEqual
)

func (c DepthCompare) toHAL() gputypes.CompareFunction {
	switch c {
	case DepthNever:
		return gputypes.CompareFunctionNever
	case DepthLess:
		return gputypes.CompareFunctionLess
	case DepthEqual:
		return gputypes.CompareFunctionEqual
	case DepthLessEqual:
		return gputypes.CompareFunctionLessEqual
	case DepthGreater:
		return gputypes.CompareFunctionGreater
	case DepthNotEqual:
		return gputypes.CompareFunctionNotEqual
	default:
		return gputypes.CompareFunctionGreaterEqual
	}
}

// PipelineLayoutBuilder accumulates resource set layouts in slot order.
type PipelineLayoutBuilder struct {
	label   string
	layouts []hal.BindGroupLayout
	slots   int
}

// NewPipelineLayout starts an empty pipeline layout builder. A layout
// with no resource sets is valid.
func NewPipelineLayout(label string) *PipelineLayoutBuilder {
	return &PipelineLayoutBuilder{label: label}
}

// ResourceSetLayout appends a resource set layout; its position is the
// draw-time binding slot.
func (b *PipelineLayoutBuilder) ResourceSetLayout(layout *ResourceSetLayout) *PipelineLayoutBuilder {
	b.layouts = append(b.layouts, layout.Raw())
	b.slots++
	return b
}

// Build creates the pipeline layout with no push constant ranges.
func (b *PipelineLayoutBuilder) Build(device Device) (*PipelineLayout, error) {
	dev := device.HAL()
	layout, err := dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            b.label,
		BindGroupLayouts: b.layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", b.label, err)
	}
	return &PipelineLayout{
		device: dev,
		layout: layout,
		slots:  b.slots,
		label:  b.label,
	}, nil
}

// PipelineLayout is an ordered composition of resource set layouts
// defining the binding slot numbering for a pipeline.
type PipelineLayout struct {
	mu       sync.Mutex
	device   hal.Device
	layout   hal.PipelineLayout
	slots    int
	label    string
	released bool
}

// Raw returns the HAL pipeline layout.
func (l *PipelineLayout) Raw() hal.PipelineLayout { return l.layout }

// Slots returns the number of resource set slots.
func (l *PipelineLayout) Slots() int { return l.slots }

// Label returns the layout's debug label.
func (l *PipelineLayout) Label() string { return l.label }

// Destroy releases the pipeline layout. Safe to call multiple times.
func (l *PipelineLayout) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	if l.layout != nil {
		l.device.DestroyPipelineLayout(l.layout)
	}
	l.released = true
}

// PipelineBuilder accumulates pipeline configuration. Shader, layout,
// draw mode, cull mode and blend mode are required; winding defaults to
// clockwise, the primitive to a triangle list and the color target to
// BGRA8. At least one of the geometry and instance layouts must be set.
type PipelineBuilder struct {
	label       string
	shader      hal.ShaderModule
	layout      *PipelineLayout
	geometry    *VertexLayout
	instance    *VertexLayout
	draw        DrawMode
	cull        CullMode
	blend       BlendMode
	winding     Winding
	primitive   Primitive
	depth       DepthCompare
	colorFormat gputypes.TextureFormat
	samples     uint32

	hasShader bool
	hasDraw   bool
	hasCull   bool
	hasBlend  bool
	hasDepth  bool
}

// NewPipeline starts an empty pipeline builder.
func NewPipeline(label string) *PipelineBuilder {
	return &PipelineBuilder{label: label}
}

// Shader sets the shader module providing vs_main and fs_main.
// *whirl.Shader's Module method supplies it.
func (b *PipelineBuilder) Shader(module hal.ShaderModule) *PipelineBuilder {
	b.shader = module
	b.hasShader = true
	return b
}

// Layout sets the pipeline layout.
func (b *PipelineBuilder) Layout(layout *PipelineLayout) *PipelineBuilder {
	b.layout = layout
	return b
}

// GeometryLayout sets the per-vertex buffer layout (slot 0).
func (b *PipelineBuilder) GeometryLayout(layout *VertexLayout) *PipelineBuilder {
	b.geometry = layout
	return b
}

// InstanceLayout sets the per-instance buffer layout (slot 1).
func (b *PipelineBuilder) InstanceLayout(layout *VertexLayout) *PipelineBuilder {
	b.instance = layout
	return b
}

// Draw sets the draw mode.
func (b *PipelineBuilder) Draw(mode DrawMode) *PipelineBuilder {
	b.draw = mode
	b.hasDraw = true
	return b
}

// Cull sets the cull mode.
func (b *PipelineBuilder) Cull(mode CullMode) *PipelineBuilder {
	b.cull = mode
	b.hasCull = true
	return b
}

// Blend sets the blend mode.
func (b *PipelineBuilder) Blend(mode BlendMode) *PipelineBuilder {
	b.blend = mode
	b.hasBlend = true
	return b
}

// Winding overrides the default clockwise front-face winding.
func (b *PipelineBuilder) Winding(winding Winding) *PipelineBuilder {
	b.winding = winding
	return b
}

// Primitive overrides the default triangle list topology.
func (b *PipelineBuilder) Primitive(primitive Primitive) *PipelineBuilder {
	b.primitive = primitive
	return b
}

// DepthTest enables depth testing with the given comparison. The
// pipeline then requires a combined depth-stencil attachment.
func (b *PipelineBuilder) DepthTest(compare DepthCompare) *PipelineBuilder {
	b.depth = compare
	b.hasDepth = true
	return b
}

// ColorFormat overrides the default BGRA8 color target format.
func (b *PipelineBuilder) ColorFormat(format gputypes.TextureFormat) *PipelineBuilder {
	b.colorFormat = format
	return b
}

// Multisample sets the sample count. Default is 1.
func (b *PipelineBuilder) Multisample(count uint32) *PipelineBuilder {
	b.samples = count
	return b
}

// Build compiles the pipeline. Panics if a required field is missing,
// naming it distinctly.
func (b *PipelineBuilder) Build(device Device) (*Pipeline, error) {
	switch {
	case !b.hasShader:
		panic(fmt.Sprintf("graphics: pipeline %q missing shader", b.label))
	case b.layout == nil:
		panic(fmt.Sprintf("graphics: pipeline %q missing layout", b.label))
	case !b.hasDraw:
		panic(fmt.Sprintf("graphics: pipeline %q missing draw mode", b.label))
	case !b.hasCull:
		panic(fmt.Sprintf("graphics: pipeline %q missing cull mode", b.label))
	case !b.hasBlend:
		panic(fmt.Sprintf("graphics: pipeline %q missing blend mode", b.label))
	case b.geometry == nil && b.instance == nil:
		panic(fmt.Sprintf("graphics: pipeline %q missing buffer layouts", b.label))
	}

	var buffers []gputypes.VertexBufferLayout
	if b.geometry != nil {
		buffers = append(buffers, b.geometry.HAL())
	}
	if b.instance != nil {
		buffers = append(buffers, b.instance.HAL())
	}

	var blend *gputypes.BlendState
	if b.blend == BlendAlpha {
		premul := gputypes.BlendStatePremultiplied()
		blend = &premul
	}

	colorFormat := b.colorFormat
	if colorFormat == gputypes.TextureFormatUndefined {
		colorFormat = gputypes.TextureFormatBGRA8Unorm
	}

	var depthStencil *hal.DepthStencilState
	if b.hasDepth {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		depthStencil = &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: true,
			DepthCompare:      b.depth.toHAL(),
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		}
	}

	samples := b.samples
	if samples == 0 {
		samples = 1
	}

	dev := device.HAL()
	pipeline, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  b.label,
		Layout: b.layout.Raw(),
		Vertex: hal.VertexState{
			Module:     b.shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     b.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    colorFormat,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: depthStencil,
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  resolveTopology(b.draw, b.primitive),
			FrontFace: b.winding.toHAL(),
			CullMode:  b.cull.toHAL(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline %q: %w", b.label, err)
	}
	slogger().Debug("graphics: pipeline built", "label", b.label)
	return &Pipeline{
		device:   dev,
		pipeline: pipeline,
		label:    b.label,
	}, nil
}

// Pipeline is a compiled, immutable fixed-function and shader-stage
// configuration. Reusable across draws until destroyed.
type Pipeline struct {
	mu       sync.Mutex
	device   hal.Device
	pipeline hal.RenderPipeline
	label    string
	released bool
}

// Raw returns the HAL render pipeline.
func (p *Pipeline) Raw() hal.RenderPipeline { return p.pipeline }

// Label returns the pipeline's debug label.
func (p *Pipeline) Label() string { return p.label }

// Destroy releases the pipeline. Safe to call multiple times.
func (p *Pipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
	}
	p.released = true
}
