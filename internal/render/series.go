package render

import (
	"math"

	"codeberg.org/mutker/perfscope/internal/ring"
	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// rangeEpsilon is the smallest observed spread for which min and max
// reference lines are drawn.
const rangeEpsilon = 1e-4

// SeriesSpec describes how one field is plotted. Bottom and Top are the
// nominal value range; the Expand flags let observed values widen it.
type SeriesSpec struct {
	Field        telemetry.FieldKey
	Bottom       float64
	Top          float64
	ExpandBottom bool
	ExpandTop    bool
}

// DefaultSeries returns the built-in series in draw order.
func DefaultSeries() []SeriesSpec {
	return []SeriesSpec{
		{Field: telemetry.FieldCPUTime, Bottom: 0, Top: 20, ExpandTop: true},
		{Field: telemetry.FieldGPUTime, Bottom: 0, Top: 20},
		{Field: telemetry.FieldThermalValue, Bottom: 10, Top: -10, ExpandBottom: true, ExpandTop: true},
		{Field: telemetry.FieldThermalTrend, Bottom: 0, Top: 4},
		{Field: telemetry.FieldThermalLevel, Bottom: 0, Top: 4},
		{Field: telemetry.FieldFrameTime, Bottom: 0, Top: 20, ExpandTop: true},
	}
}

// SeriesPlan is the computed layout of one plotted series.
type SeriesPlan struct {
	Field telemetry.FieldKey
	Color drawing.Color

	// Bottom and Top are the effective range after expansion.
	Bottom, Top float64
	// Min and Max are the observed extremes of the plotted values.
	Min, Max float64

	Points  []Point
	Active  bool
	Dimmed  bool
	Skipped int
}

// rescale maps v into [0,1] over the effective range. A degenerate range
// maps everything to the middle.
func (sp SeriesPlan) rescale(v float64) float64 {
	if sp.Top == sp.Bottom {
		return 0.5
	}
	return (v - sp.Bottom) / (sp.Top - sp.Bottom)
}

// planSeries lays out the newest dotCount samples of one field. It returns
// false when fewer than two values are available.
func planSeries(
	frames *ring.Buffer[telemetry.Frame],
	spec SeriesSpec,
	g Geometry,
	dotCount int,
	color drawing.Color,
	active telemetry.FieldKey,
) (SeriesPlan, bool) {
	values, skipped := ring.MapTail(frames, dotCount, telemetry.Extractor(spec.Field))

	sp := SeriesPlan{
		Field:   spec.Field,
		Color:   color,
		Bottom:  spec.Bottom,
		Top:     spec.Top,
		Active:  active == spec.Field,
		Dimmed:  active != "" && active != spec.Field,
		Skipped: skipped,
	}
	if len(values) < 2 {
		return sp, false
	}

	sp.Min, sp.Max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		sp.Min = math.Min(sp.Min, v)
		sp.Max = math.Max(sp.Max, v)
		if spec.ExpandBottom {
			sp.Bottom = math.Min(sp.Bottom, v)
		}
		if spec.ExpandTop {
			sp.Top = math.Max(sp.Top, v)
		}
	}

	sp.Points = make([]Point, len(values))
	for i, v := range values {
		sp.Points[i] = Point{
			X: g.Left() + float64(i)*PixelsPerSample,
			Y: g.yFor(sp.rescale(v)),
		}
	}

	return sp, true
}

func (g Geometry) yFor(unit float64) float64 {
	return g.Bottom() - unit*g.PlotHeight()
}

// instructions renders the series line and, for the active series, its
// reference lines and labels.
func (sp SeriesPlan) instructions(g Geometry) []Instruction {
	line := Line{Points: sp.Points, Color: sp.Color, Width: 1}
	switch {
	case sp.Active:
		line.Width = 1.2
	case sp.Dimmed:
		line.Color = dimColor
		line.Width = 0.5
	}

	out := []Instruction{line}
	if !sp.Active {
		return out
	}

	left := g.Left()
	lastX := sp.Points[len(sp.Points)-1].X
	maxY := g.yFor(sp.rescale(sp.Max))
	minY := g.yFor(sp.rescale(sp.Min))
	showRange := math.Abs(sp.Max-sp.Min) > rangeEpsilon

	if showRange {
		out = append(out,
			Line{Points: []Point{{left, maxY}, {lastX, maxY}}, Color: sp.Color, Width: 1},
			Line{Points: []Point{{left, minY}, {lastX, minY}}, Color: sp.Color, Width: 1},
		)
	}

	out = append(out, Label{
		X:     lastX / 2,
		Y:     math.Max(LabelSize+5, maxY-LabelSize+2),
		Text:  telemetry.FormatValue(sp.Max, 3),
		Color: sp.Color,
	})
	if showRange {
		out = append(out, Label{
			X:     lastX / 2,
			Y:     math.Min(float64(g.Height)-LabelSize, minY+LabelSize+5),
			Text:  telemetry.FormatValue(sp.Min, 3),
			Color: sp.Color,
		})
	}
	out = append(out, Label{X: 60, Y: 34, Text: sp.Field.Title(), Color: sp.Color})

	return out
}
