package graphics

import "github.com/gogpu/gputypes"

// Color is an RGBA color with every channel normalized to [0, 1].
// Construct one with [NewColor] or [Opaque]; the zero value is
// transparent black.
type Color struct {
	r, g, b, a float32
}

// Predefined opaque colors.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NewColor creates a color, clamping every channel to [0, 1].
func NewColor(red, green, blue, alpha float32) Color {
	return Color{
		r: clamp01(red),
		g: clamp01(green),
		b: clamp01(blue),
		a: clamp01(alpha),
	}
}

// Opaque creates a fully opaque color.
func Opaque(red, green, blue float32) Color {
	return NewColor(red, green, blue, 1)
}

// Darken scales the color channels down by a factor in [0, 1]. Alpha is
// unchanged.
func (c Color) Darken(factor float32) Color {
	f := 1 - clamp01(factor)
	return Color{
		r: clamp01(c.r * f),
		g: clamp01(c.g * f),
		b: clamp01(c.b * f),
		a: c.a,
	}
}

// Lighten scales the color channels up by a factor in [0, 1]. Alpha is
// unchanged.
func (c Color) Lighten(factor float32) Color {
	f := 1 + clamp01(factor)
	return Color{
		r: clamp01(c.r * f),
		g: clamp01(c.g * f),
		b: clamp01(c.b * f),
		a: c.a,
	}
}

// Red returns the red channel.
func (c Color) Red() float32 { return c.r }

// Green returns the green channel.
func (c Color) Green() float32 { return c.g }

// Blue returns the blue channel.
func (c Color) Blue() float32 { return c.b }

// Alpha returns the alpha channel.
func (c Color) Alpha() float32 { return c.a }

func (c Color) toHAL() gputypes.Color {
	return gputypes.Color{
		R: float64(c.r),
		G: float64(c.g),
		B: float64(c.b),
		A: float64(c.a),
	}
}
