package render

import (
	"fmt"
	"math"

	"codeberg.org/mutker/perfscope/internal/ring"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
)

// Readout is what the inspection cursor points at.
type Readout struct {
	X      float64
	Age    int
	Frame  telemetry.Frame
	Values []FieldValue
}

type FieldValue struct {
	Field telemetry.FieldKey
	Value float64
	OK    bool
	Text  string
}

// Stat is the mean of one field over the whole buffer.
type Stat struct {
	Field   telemetry.FieldKey
	Title   string
	Mean    float64
	Samples int
	// Skipped counts frames without this field.
	Skipped int
	Text    string
}

// Plan is everything a host needs to show one session.
type Plan struct {
	Address      string
	Geometry     Geometry
	Paused       bool
	Instructions []Instruction
	Series       []SeriesPlan
	Cursor       *Readout
	Stats        []Stat

	// Latest is the newest frame, or the one under the cursor when it is
	// set. HasFrame is false for an empty session.
	Latest   telemetry.Frame
	HasFrame bool

	// Skipped counts samples left out because a field was missing.
	Skipped int
}

// Draw applies every instruction to s in order.
func (p Plan) Draw(s Surface) {
	for _, in := range p.Instructions {
		in.Apply(s)
	}
}

// SeriesFor returns the plan of field, if it was plotted.
func (p Plan) SeriesFor(field telemetry.FieldKey) (SeriesPlan, bool) {
	for _, sp := range p.Series {
		if sp.Field == field {
			return sp, true
		}
	}
	return SeriesPlan{}, false
}

type Option func(*Planner)

// WithSeries replaces the plotted series.
func WithSeries(specs ...SeriesSpec) Option {
	return func(p *Planner) {
		p.series = append([]SeriesSpec(nil), specs...)
	}
}

func WithPalette(palette Palette) Option {
	return func(p *Planner) {
		p.palette = palette
	}
}

// Planner computes Plans. It holds no per-session state and is safe for
// concurrent use.
type Planner struct {
	series  []SeriesSpec
	palette Palette
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		series:  DefaultSeries(),
		palette: DefaultPalette(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Plan snapshots s under its read lock and lays it out for a canvas of the
// given size.
func (p *Planner) Plan(s *session.Session, width, height int) Plan {
	var plan Plan
	s.Read(func(frames *ring.Buffer[telemetry.Frame], view session.View) {
		plan = p.PlanFrames(frames, view, Geometry{Width: width, Height: height})
	})

	return plan
}

// Blank is the plan for an address that has no data: a clear and nothing
// else.
func (p *Planner) Blank(address string, g Geometry) Plan {
	return Plan{
		Address:  address,
		Geometry: g,
		Instructions: []Instruction{
			Clear{X: 0, Y: 0, W: float64(g.Width), H: float64(g.Height)},
		},
	}
}

// PlanFrames lays out frames for view. Instructions start with a full
// clear, then every series in draw order, then the cursor overlay and the
// pause indicator.
func (p *Planner) PlanFrames(frames *ring.Buffer[telemetry.Frame], view session.View, g Geometry) Plan {
	plan := Plan{
		Address:  view.Address,
		Geometry: g,
		Paused:   view.Paused,
		Instructions: []Instruction{
			Clear{X: 0, Y: 0, W: float64(g.Width), H: float64(g.Height)},
		},
	}

	dotCount := g.DotCount(frames.Len())
	for _, spec := range p.series {
		sp, ok := planSeries(frames, spec, g, dotCount, p.palette.Color(spec.Field), view.ActiveField)
		plan.Skipped += sp.Skipped
		if !ok {
			continue
		}
		plan.Series = append(plan.Series, sp)
		plan.Instructions = append(plan.Instructions, sp.instructions(g)...)
	}

	plan.Latest, plan.HasFrame = frames.Last()

	if r, ok := p.readout(frames, view, g, dotCount); ok {
		plan.Cursor = &r
		plan.Latest, plan.HasFrame = r.Frame, true
		plan.Instructions = append(plan.Instructions, p.cursorInstructions(r, g)...)
	}

	plan.Instructions = append(plan.Instructions, pauseIndicator(view.Paused)...)
	plan.Stats = stats(frames)

	return plan
}

// readout resolves the cursor pixel to a buffered frame. The newest sample
// sits at left+dotCount; a cursor outside the plotted span has no readout.
func (p *Planner) readout(
	frames *ring.Buffer[telemetry.Frame],
	view session.View,
	g Geometry,
	dotCount int,
) (Readout, bool) {
	if view.Cursor < 0 || frames.Len() == 0 {
		return Readout{}, false
	}

	x := float64(view.Cursor)
	left := g.Left()
	if x < left || x > left+float64(dotCount) {
		return Readout{}, false
	}

	age := dotCount - int(math.Floor((x-left)/PixelsPerSample))
	age = max(0, min(frames.Len()-1, age))

	f, ok := frames.Back(age)
	if !ok {
		return Readout{}, false
	}

	r := Readout{X: x, Age: age, Frame: f}
	for _, spec := range p.series {
		fv := FieldValue{Field: spec.Field}
		if v, err := f.Value(spec.Field); err == nil {
			fv.Value, fv.OK = v, true
			fv.Text = fmt.Sprintf("%s: %s", spec.Field.Title(), telemetry.FormatValue(v, 2))
		} else {
			fv.Text = spec.Field.Title() + ": -"
		}
		r.Values = append(r.Values, fv)
	}

	return r, true
}

func (p *Planner) cursorInstructions(r Readout, g Geometry) []Instruction {
	out := []Instruction{
		Line{
			Points: []Point{{r.X, 0}, {r.X, float64(g.Height)}},
			Color:  cursorColor,
			Width:  1,
		},
	}
	for i, fv := range r.Values {
		out = append(out, Label{
			X:     r.X + 8,
			Y:     40 + 25*float64(i),
			Text:  fv.Text,
			Color: p.palette.Color(fv.Field),
		})
	}

	return out
}

// pauseIndicator draws two bars while paused and a play triangle otherwise.
func pauseIndicator(paused bool) []Instruction {
	if paused {
		return []Instruction{
			Line{Points: []Point{{22.5, 20}, {22.5, 40}}, Color: pauseColor, Width: 5},
			Line{Points: []Point{{32.5, 20}, {32.5, 40}}, Color: pauseColor, Width: 5},
		}
	}

	return []Instruction{
		Line{Points: []Point{{25, 20}, {35, 30}, {25, 40}, {25, 20}}, Color: pauseColor, Width: 2},
	}
}

// stats averages every field over all buffered frames, in display order.
func stats(frames *ring.Buffer[telemetry.Frame]) []Stat {
	if frames.Len() == 0 {
		return nil
	}

	out := make([]Stat, 0, len(telemetry.Fields))
	for _, key := range telemetry.Fields {
		values, skipped := ring.MapAll(frames, telemetry.Extractor(key))
		st := Stat{Field: key, Title: key.Title(), Samples: len(values), Skipped: skipped, Text: "-"}
		if len(values) > 0 {
			var sum float64
			for _, v := range values {
				sum += v
			}
			st.Mean = sum / float64(len(values))
			st.Text = key.FormatMean(st.Mean)
		}
		out = append(out, st)
	}

	return out
}
