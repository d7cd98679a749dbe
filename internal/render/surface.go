// Package render turns a session's buffered frames and view state into an
// ordered list of drawing instructions for a Surface.
package render

import "github.com/wcharczuk/go-chart/v2/drawing"

// Point is a position in canvas pixels, origin top-left.
type Point struct {
	X, Y float64
}

// Surface is the drawing collaborator. Implementations need not be safe for
// concurrent use.
type Surface interface {
	ClearRect(x, y, w, h float64)
	StrokeLine(points []Point, color drawing.Color, width float64)
	FillLabel(x, y float64, text string, color drawing.Color)
}

// Instruction is one drawing step.
type Instruction interface {
	Apply(s Surface)
}

type Clear struct {
	X, Y, W, H float64
}

func (c Clear) Apply(s Surface) { s.ClearRect(c.X, c.Y, c.W, c.H) }

// Line is a connected polyline.
type Line struct {
	Points []Point
	Color  drawing.Color
	Width  float64
}

func (l Line) Apply(s Surface) { s.StrokeLine(l.Points, l.Color, l.Width) }

type Label struct {
	X, Y  float64
	Text  string
	Color drawing.Color
}

func (l Label) Apply(s Surface) { s.FillLabel(l.X, l.Y, l.Text, l.Color) }

// Recorder is a Surface that keeps every call as an Instruction.
type Recorder struct {
	Calls []Instruction
}

func (r *Recorder) ClearRect(x, y, w, h float64) {
	r.Calls = append(r.Calls, Clear{X: x, Y: y, W: w, H: h})
}

func (r *Recorder) StrokeLine(points []Point, color drawing.Color, width float64) {
	r.Calls = append(r.Calls, Line{Points: append([]Point(nil), points...), Color: color, Width: width})
}

func (r *Recorder) FillLabel(x, y float64, text string, color drawing.Color) {
	r.Calls = append(r.Calls, Label{X: x, Y: y, Text: text, Color: color})
}

// Labels returns the text of every recorded label in call order.
func (r *Recorder) Labels() []string {
	var out []string
	for _, c := range r.Calls {
		if l, ok := c.(Label); ok {
			out = append(out, l.Text)
		}
	}

	return out
}
