package graphics

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// AttributeFormat is the scalar type of a vertex attribute.
type AttributeFormat uint8

const (
	// AttributeFloat32 is a 32-bit float component.
	AttributeFloat32 AttributeFormat = iota

	// AttributeSint32 is a 32-bit signed integer component.
	AttributeSint32

	// AttributeUint32 is a 32-bit unsigned integer component.
	AttributeUint32
)

// String returns a human-readable name for the format.
func (f AttributeFormat) String() string {
	switch f {
	case AttributeFloat32:
		return "Float32"
	case AttributeSint32:
		return "Sint32"
	case AttributeUint32:
		return "Uint32"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// toHAL maps a scalar format and component count (1..4) to the wgpu
// vertex format. Panics on a count outside 1..4.
func (f AttributeFormat) toHAL(size int) gputypes.VertexFormat {
	switch f {
	case AttributeFloat32:
		switch size {
		case 1:
			return gputypes.VertexFormatFloat32
		case 2:
			return gputypes.VertexFormatFloat32x2
		case 3:
			return gputypes.VertexFormatFloat32x3
		case 4:
			return gputypes.VertexFormatFloat32x4
		}
	case AttributeSint32:
		switch size {
		case 1:
			return gputypes.VertexFormatSint32
		case 2:
			return gputypes.VertexFormatSint32x2
		case 3:
			return gputypes.VertexFormatSint32x3
		case 4:
			return gputypes.VertexFormatSint32x4
		}
	case AttributeUint32:
		switch size {
		case 1:
			return gputypes.VertexFormatUint32
		case 2:
			return gputypes.VertexFormatUint32x2
		case 3:
			return gputypes.VertexFormatUint32x3
		case 4:
			return gputypes.VertexFormatUint32x4
		}
	}
	panic(fmt.Sprintf("graphics: invalid attribute size %d for %v", size, f))
}

// All scalar formats here are 32-bit, so an attribute of size
// components takes 4*size bytes.
const attributeComponentBytes = 4

// LayoutKind selects how a vertex buffer advances during a draw.
type LayoutKind uint8

const (
	// LayoutGeometry advances the buffer per vertex.
	LayoutGeometry LayoutKind = iota

	// LayoutInstance advances the buffer per instance.
	LayoutInstance
)

func (k LayoutKind) toHAL() gputypes.VertexStepMode {
	if k == LayoutInstance {
		return gputypes.VertexStepModeInstance
	}
	return gputypes.VertexStepModeVertex
}

// VertexLayout describes how one buffer's items decompose into shader
// input attributes. Immutable once built.
type VertexLayout struct {
	kind   LayoutKind
	layout gputypes.VertexBufferLayout
}

// HAL returns the wgpu vertex buffer layout.
func (l *VertexLayout) HAL() gputypes.VertexBufferLayout { return l.layout }

// Kind reports whether the layout advances per vertex or per instance.
func (l *VertexLayout) Kind() LayoutKind { return l.kind }

// Stride returns the per-item byte stride.
func (l *VertexLayout) Stride() uint64 { return l.layout.ArrayStride }

// VertexLayoutBuilder accumulates attributes with running byte offsets
// and sequential shader locations.
type VertexLayoutBuilder struct {
	kind       LayoutKind
	attributes []gputypes.VertexAttribute
	offset     uint64
	location   uint32
}

// NewGeometryLayout starts a per-vertex layout with shader locations
// numbered from 0.
func NewGeometryLayout() *VertexLayoutBuilder {
	return &VertexLayoutBuilder{kind: LayoutGeometry}
}

// NewInstanceLayout starts a per-instance layout. Locations are
// numbered from base so the layout can follow a geometry layout without
// collisions.
func NewInstanceLayout(base uint32) *VertexLayoutBuilder {
	return &VertexLayoutBuilder{kind: LayoutInstance, location: base}
}

// Attribute appends an attribute of size components (1..4) of the given
// scalar format. The byte offset and shader location advance
// automatically.
func (b *VertexLayoutBuilder) Attribute(format AttributeFormat, size int) *VertexLayoutBuilder {
	b.attributes = append(b.attributes, gputypes.VertexAttribute{
		Format:         format.toHAL(size),
		Offset:         b.offset,
		ShaderLocation: b.location,
	})
	b.offset += uint64(size) * attributeComponentBytes
	b.location++
	return b
}

// Build finalizes the layout. The stride is the sum of all attribute
// widths. Panics if no attributes were added.
func (b *VertexLayoutBuilder) Build() *VertexLayout {
	if len(b.attributes) == 0 {
		panic("graphics: vertex layout has no attributes")
	}
	return &VertexLayout{
		kind: b.kind,
		layout: gputypes.VertexBufferLayout{
			ArrayStride: b.offset,
			StepMode:    b.kind.toHAL(),
			Attributes:  b.attributes,
		},
	}
}
