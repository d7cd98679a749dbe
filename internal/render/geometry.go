package render

import "math"

const (
	Padding         = 10
	PixelsPerSample = 1
	LabelSize       = 12
)

// Geometry is the canvas size and the plot area derived from it.
type Geometry struct {
	Width, Height int
}

func (g Geometry) Left() float64   { return Padding }
func (g Geometry) Top() float64    { return Padding }
func (g Geometry) Right() float64  { return float64(g.Width) - 2*Padding }
func (g Geometry) Bottom() float64 { return float64(g.Height) - 2*Padding }

// PlotWidth and PlotHeight are never negative.
func (g Geometry) PlotWidth() float64  { return math.Max(0, g.Right()-g.Left()) }
func (g Geometry) PlotHeight() float64 { return math.Max(0, g.Bottom()-g.Top()) }

// DotCount is how many of n buffered samples fit on screen.
func (g Geometry) DotCount(n int) int {
	fit := int(math.Floor(g.PlotWidth() / PixelsPerSample))
	return max(0, min(fit, n))
}
