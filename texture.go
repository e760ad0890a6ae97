package whirl

import (
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"

	// Registered image codecs for FileSource decoding.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureOpenError reports a failure to open a texture file.
type TextureOpenError struct {
	Path string
	Err  error
}

func (e *TextureOpenError) Error() string {
	return fmt.Sprintf("whirl: open texture %q: %v", e.Path, e.Err)
}

func (e *TextureOpenError) Unwrap() error { return e.Err }

// TextureDecodeError reports a failure to decode image data.
type TextureDecodeError struct {
	Path string
	Err  error
}

func (e *TextureDecodeError) Error() string {
	return fmt.Sprintf("whirl: decode texture %q: %v", e.Path, e.Err)
}

func (e *TextureDecodeError) Unwrap() error { return e.Err }

// TextureSizeError reports invalid texture dimensions.
type TextureSizeError struct {
	Label  string
	Width  int
	Height int
}

func (e *TextureSizeError) Error() string {
	return fmt.Sprintf("whirl: texture %q has invalid size %dx%d", e.Label, e.Width, e.Height)
}

// TextureFormat represents the pixel format of a texture.
type TextureFormat uint8

const (
	// TextureFormatColor is the standard RGBA format with 8 bits per channel.
	TextureFormatColor TextureFormat = iota

	// TextureFormatDepth is a 32-bit float depth format.
	TextureFormatDepth

	// TextureFormatStencil is an 8-bit stencil format.
	TextureFormatStencil

	// TextureFormatDepthStencil is a combined 24-bit depth, 8-bit stencil format.
	TextureFormatDepthStencil
)

// String returns a human-readable name for the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatColor:
		return "Color"
	case TextureFormatDepth:
		return "Depth"
	case TextureFormatStencil:
		return "Stencil"
	case TextureFormatDepthStencil:
		return "DepthStencil"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// toHAL converts to the wgpu texture format.
func (f TextureFormat) toHAL() gputypes.TextureFormat {
	switch f {
	case TextureFormatColor:
		return gputypes.TextureFormatRGBA8Unorm
	case TextureFormatDepth:
		return gputypes.TextureFormatDepth32Float
	case TextureFormatStencil:
		return gputypes.TextureFormatStencil8
	case TextureFormatDepthStencil:
		return gputypes.TextureFormatDepth24PlusStencil8
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// TextureSource describes where a texture's pixels come from.
// Construct one with [FileSource], [BytesSource], [BlankSource],
// [DepthSource], [StencilSource] or [DepthStencilSource].
type TextureSource struct {
	path   string
	data   []byte
	width  int
	height int
	format TextureFormat
	label  string
}

// FileSource loads RGBA pixels from an image file. PNG, JPEG, BMP and
// WebP are supported; other formats decode if a codec is registered
// with image.RegisterFormat.
func FileSource(path string) TextureSource {
	return TextureSource{path: path, format: TextureFormatColor, label: path}
}

// BytesSource wraps raw RGBA pixels (4 bytes per pixel, row-major).
func BytesSource(width, height int, rgba []byte) TextureSource {
	return TextureSource{data: rgba, width: width, height: height, format: TextureFormatColor, label: "bytes"}
}

// BlankSource describes an uninitialized color texture, typically used
// as a render attachment.
func BlankSource(width, height int) TextureSource {
	return TextureSource{width: width, height: height, format: TextureFormatColor, label: "blank"}
}

// DepthSource describes an uninitialized depth texture.
func DepthSource(width, height int) TextureSource {
	return TextureSource{width: width, height: height, format: TextureFormatDepth, label: "depth"}
}

// StencilSource describes an uninitialized stencil texture.
func StencilSource(width, height int) TextureSource {
	return TextureSource{width: width, height: height, format: TextureFormatStencil, label: "stencil"}
}

// DepthStencilSource describes an uninitialized combined depth-stencil
// texture, the format pipelines with depth testing render into.
func DepthStencilSource(width, height int) TextureSource {
	return TextureSource{width: width, height: height, format: TextureFormatDepthStencil, label: "depth-stencil"}
}

// TextureUsage configures how a texture may be used. Zero value is not
// valid; at least one of Image, Storage or Attachment must be set.
type TextureUsage struct {
	// Image allows sampling the texture in shaders.
	Image bool

	// Storage allows binding the texture as a storage texture.
	Storage bool

	// Attachment allows rendering into the texture.
	Attachment bool

	// Writable allows CPU uploads after creation.
	Writable bool

	// Readable allows copying the texture back out.
	Readable bool
}

func (u TextureUsage) flags() gputypes.TextureUsage {
	var flags gputypes.TextureUsage
	if u.Image {
		flags |= gputypes.TextureUsageTextureBinding
	}
	if u.Storage {
		flags |= gputypes.TextureUsageStorageBinding
	}
	if u.Attachment {
		flags |= gputypes.TextureUsageRenderAttachment
	}
	if u.Writable {
		flags |= gputypes.TextureUsageCopyDst
	}
	if u.Readable {
		flags |= gputypes.TextureUsageCopySrc
	}
	return flags
}

// Texture is a GPU texture with an optional CPU-side source.
//
// Texture is safe for concurrent read access. The default view is
// created lazily on first use and shared by all callers.
type Texture struct {
	device  hal.Device
	texture hal.Texture

	viewOnce sync.Once
	view     hal.TextureView
	viewErr  error

	width  int
	height int
	format TextureFormat
	label  string

	released atomic.Bool
}

// NewTexture creates a texture from the given source and uploads its
// pixels if the source carries any. Sources with pixel data force the
// CopyDst usage regardless of usage.Writable.
func NewTexture(device *Device, source TextureSource, usage TextureUsage) (*Texture, error) {
	data := source.data
	width, height := source.width, source.height

	if source.path != "" {
		pix, w, h, err := loadImageRGBA(source.path)
		if err != nil {
			return nil, err
		}
		data, width, height = pix, w, h
	}

	if width <= 0 || height <= 0 {
		return nil, &TextureSizeError{Label: source.label, Width: width, Height: height}
	}
	if data != nil && len(data) != width*height*4 {
		return nil, fmt.Errorf("whirl: texture %q: got %d bytes, want %d (%dx%d RGBA)",
			source.label, len(data), width*height*4, width, height)
	}

	dev := device.HAL()
	if dev == nil {
		return nil, ErrDeviceDestroyed
	}

	flags := usage.flags()
	if data != nil {
		flags |= gputypes.TextureUsageCopyDst
	}

	tex, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         source.label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        source.format.toHAL(),
		Usage:         flags,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", source.label, err)
	}

	if data != nil {
		err := device.Queue().WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
			},
			data,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(width) * 4,
				RowsPerImage: uint32(height),
			},
			&hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		)
		if err != nil {
			dev.DestroyTexture(tex)
			return nil, fmt.Errorf("upload texture %q: %w", source.label, err)
		}
	}

	Logger().Debug("whirl: texture created",
		"label", source.label, "size", fmt.Sprintf("%dx%d", width, height), "format", source.format)

	return &Texture{
		device:  dev,
		texture: tex,
		width:   width,
		height:  height,
		format:  source.format,
		label:   source.label,
	}, nil
}

// loadImageRGBA opens and decodes an image file, converting to RGBA.
func loadImageRGBA(path string) ([]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, &TextureOpenError{Path: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, &TextureDecodeError{Path: path, Err: err}
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	return rgba.Pix, bounds.Dx(), bounds.Dy(), nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texture format.
func (t *Texture) Format() TextureFormat { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Raw returns the underlying HAL texture.
func (t *Texture) Raw() hal.Texture { return t.texture }

// View returns the default full-texture view, creating it on first
// call. All callers share the same view.
func (t *Texture) View() (hal.TextureView, error) {
	if t.released.Load() {
		return nil, fmt.Errorf("whirl: texture %q has been destroyed", t.label)
	}
	t.viewOnce.Do(func() {
		t.view, t.viewErr = t.device.CreateTextureView(t.texture, &hal.TextureViewDescriptor{
			Label:         t.label + "_view",
			Format:        t.format.toHAL(),
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
	})
	return t.view, t.viewErr
}

// Destroy releases the texture and its default view.
// Safe to call multiple times.
func (t *Texture) Destroy() {
	if t.released.Swap(true) {
		return
	}
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	status := "active"
	if t.released.Load() {
		status = "released"
	}
	return fmt.Sprintf("Texture[%s %dx%d %s %s]", t.label, t.width, t.height, t.format, status)
}
