package render

import (
	"math"

	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	dimColor    = drawing.Color{R: 255, G: 255, B: 255, A: 77}
	cursorColor = drawing.Color{R: 255, G: 255, B: 255, A: 102}
	pauseColor  = drawing.Color{R: 255, G: 255, B: 255, A: 153}
)

// Palette assigns a color to every plotted field.
type Palette map[telemetry.FieldKey]drawing.Color

// DefaultPalette spreads hues 60 degrees apart.
func DefaultPalette() Palette {
	order := []telemetry.FieldKey{
		telemetry.FieldCPUTime,
		telemetry.FieldGPUTime,
		telemetry.FieldFrameTime,
		telemetry.FieldThermalLevel,
		telemetry.FieldThermalValue,
		telemetry.FieldThermalTrend,
	}

	p := make(Palette, len(order))
	for i, key := range order {
		p[key] = HSLA(float64(i)*360/float64(len(order)), 0.8, 0.6, 0.9)
	}

	return p
}

// Color returns the field's color, white when it has none.
func (p Palette) Color(key telemetry.FieldKey) drawing.Color {
	if c, ok := p[key]; ok {
		return c
	}
	return drawing.ColorWhite
}

// HSLA converts hue in degrees and saturation, lightness and alpha in [0,1].
func HSLA(h, s, l, a float64) drawing.Color {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(math.Mod(h, 360)+360, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	return drawing.Color{
		R: channel(r + m),
		G: channel(g + m),
		B: channel(b + m),
		A: channel(a),
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
