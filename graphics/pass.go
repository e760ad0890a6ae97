package graphics

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderPass wraps a HAL render pass encoder with slot conventions
// matching pipeline construction: geometry buffers bind at vertex slot
// 0, instance buffers at slot 1, and resource sets at the slots their
// layouts occupy in the pipeline layout.
//
// Binding a stale resource set (one whose buffer regrew since build) is
// a caller bug and panics; the set must be rebuilt first.
type RenderPass struct {
	encoder hal.RenderPassEncoder
	label   string
	ended   bool
}

// NewRenderPass wraps an already begun render pass encoder.
func NewRenderPass(encoder hal.RenderPassEncoder, label string) *RenderPass {
	return &RenderPass{encoder: encoder, label: label}
}

// PassConfig describes a render pass over a single color target.
type PassConfig struct {
	// Label is the pass's debug label.
	Label string

	// Target is the color attachment view, typically the current frame
	// or an attachment texture's view.
	Target hal.TextureView

	// Clear, when non-nil, clears the target to the given color at pass
	// start; nil loads the existing contents.
	Clear *Color

	// DepthStencil optionally attaches a combined depth-stencil view,
	// required by pipelines built with a depth test. Depth clears to 1.0
	// and stencil to 0 at pass start; both store.
	DepthStencil hal.TextureView
}

// Begin opens the render pass on the encoder and wraps it. The encoder
// must already be recording.
func (c PassConfig) Begin(encoder hal.CommandEncoder) *RenderPass {
	attachment := hal.RenderPassColorAttachment{
		View:    c.Target,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if c.Clear != nil {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = c.Clear.toHAL()
	}
	desc := &hal.RenderPassDescriptor{
		Label:            c.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	}
	if c.DepthStencil != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              c.DepthStencil,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		}
	}
	return NewRenderPass(encoder.BeginRenderPass(desc), c.Label)
}

// BindPipeline selects the pipeline for subsequent draws.
func (p *RenderPass) BindPipeline(pipeline *Pipeline) {
	p.encoder.SetPipeline(pipeline.Raw())
}

// BindResourceSet binds a resource set at the given slot. Panics if the
// set is stale.
func (p *RenderPass) BindResourceSet(slot uint32, set *ResourceSet) {
	if stale := set.StaleBindings(); len(stale) > 0 {
		panic(fmt.Sprintf("graphics: resource set %q is stale, buffers %v regrown since build",
			set.Label(), stale))
	}
	p.encoder.SetBindGroup(slot, set.Raw(), nil)
}

// BindGeometryBuffer binds a vertex buffer at slot 0.
func (p *RenderPass) BindGeometryBuffer(buf Capability) {
	p.encoder.SetVertexBuffer(0, buf.Raw(), 0)
}

// BindInstanceBuffer binds an instance buffer at slot 1.
func (p *RenderPass) BindInstanceBuffer(buf Capability) {
	p.encoder.SetVertexBuffer(1, buf.Raw(), 0)
}

// BindIndexBuffer binds a 32-bit index buffer.
func (p *RenderPass) BindIndexBuffer(buf Capability) {
	p.encoder.SetIndexBuffer(buf.Raw(), gputypes.IndexFormatUint32, 0)
}

// Draw issues a non-indexed draw. Panics on zero vertex or instance
// counts.
func (p *RenderPass) Draw(vertices, instances uint32) {
	if vertices == 0 {
		panic("graphics: draw with zero vertex count")
	}
	if instances == 0 {
		panic("graphics: draw with zero instance count")
	}
	p.encoder.Draw(vertices, instances, 0, 0)
}

// DrawIndexed issues an indexed draw. Panics on zero index or instance
// counts.
func (p *RenderPass) DrawIndexed(indices, instances uint32) {
	if indices == 0 {
		panic("graphics: draw with zero index count")
	}
	if instances == 0 {
		panic("graphics: draw with zero instance count")
	}
	p.encoder.DrawIndexed(indices, instances, 0, 0, 0)
}

// End closes the pass. Safe to call multiple times.
func (p *RenderPass) End() {
	if p.ended {
		return
	}
	p.encoder.End()
	p.ended = true
}
