package telemetry

import (
	"bytes"
	"encoding/json"

	"codeberg.org/mutker/perfscope/internal/errors"
)

// Scaler is one adaptive-control dimension of a device, as reported in a
// single frame.
type Scaler struct {
	Name     string  `json:"name"`
	Active   bool    `json:"active"`
	MinLevel int     `json:"minLevel"`
	MaxLevel int     `json:"maxLevel"`
	Level    int     `json:"level"`
	Cost     float64 `json:"cost"`
}

// Percent returns level relative to maxLevel in [0, 100].
func (s Scaler) Percent() int {
	if s.MaxLevel <= 0 {
		return 0
	}

	p := 100 * s.Level / s.MaxLevel
	return max(0, min(100, p))
}

// Frame is one telemetry sample. Frames are treated as immutable once they
// have been handed to a session.
type Frame struct {
	Enabled      bool       `json:"enabled"`
	ThermalValue float64    `json:"thermalValue"`
	ThermalLevel Level      `json:"thermalLevel"`
	ThermalTrend Trend      `json:"thermalTrends"`
	FrameTime    float64    `json:"frameTime"`
	FrameTimeEMA float64    `json:"frameTimeEMA"`
	CPUTime      float64    `json:"cpuTime"`
	GPUTime      float64    `json:"gpuTime"`
	Bottleneck   Bottleneck `json:"bottleneck"`
	Scalers      []Scaler   `json:"scalers"`

	// missing has a bit set for every plottable field absent from the
	// payload. The zero value means every field is present.
	missing fieldMask
}

type fieldMask uint8

// wireFrame mirrors Frame with pointers so absent keys can be told apart
// from zero values.
type wireFrame struct {
	Enabled      bool        `json:"enabled"`
	ThermalValue *float64    `json:"thermalValue"`
	ThermalLevel *Level      `json:"thermalLevel"`
	ThermalTrend *Trend      `json:"thermalTrends"`
	FrameTime    *float64    `json:"frameTime"`
	FrameTimeEMA float64     `json:"frameTimeEMA"`
	CPUTime      *float64    `json:"cpuTime"`
	GPUTime      *float64    `json:"gpuTime"`
	Bottleneck   *Bottleneck `json:"bottleneck"`
	Scalers      []Scaler    `json:"scalers"`
}

// Decode parses a JSON frame payload. Plottable fields missing from the
// payload are recorded so Value reports them instead of plotting zeros.
func Decode(payload []byte) (Frame, error) {
	errFactory := errors.New()

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Frame{}, errFactory.WithData(ErrMalformedFrame, "payload is not a JSON object")
	}

	var w wireFrame
	if err := json.Unmarshal(trimmed, &w); err != nil {
		if errors.HasCode(err, ErrEnumOutOfRange) {
			return Frame{}, err
		}
		return Frame{}, errFactory.Wrap(ErrMalformedFrame, err)
	}

	f := Frame{
		Enabled:      w.Enabled,
		FrameTimeEMA: w.FrameTimeEMA,
		Scalers:      w.Scalers,
	}
	if w.Bottleneck != nil {
		f.Bottleneck = *w.Bottleneck
	}

	setFloat := func(dst *float64, src *float64, key FieldKey) {
		if src == nil {
			f.missing |= key.bit()
			return
		}
		*dst = *src
	}
	setFloat(&f.FrameTime, w.FrameTime, FieldFrameTime)
	setFloat(&f.CPUTime, w.CPUTime, FieldCPUTime)
	setFloat(&f.GPUTime, w.GPUTime, FieldGPUTime)
	setFloat(&f.ThermalValue, w.ThermalValue, FieldThermalValue)

	if w.ThermalTrend == nil {
		f.missing |= FieldThermalTrend.bit()
	} else {
		f.ThermalTrend = *w.ThermalTrend
	}
	if w.ThermalLevel == nil {
		f.missing |= FieldThermalLevel.bit()
	} else {
		f.ThermalLevel = *w.ThermalLevel
	}

	return f, nil
}

// Value returns the numeric value of a plottable field.
func (f Frame) Value(key FieldKey) (float64, error) {
	errFactory := errors.New()

	if !key.Valid() {
		return 0, errFactory.WithData(ErrUnknownField, string(key))
	}
	if f.missing&key.bit() != 0 {
		return 0, errFactory.WithData(ErrMissingField, string(key))
	}

	switch key {
	case FieldFrameTime:
		return f.FrameTime, nil
	case FieldCPUTime:
		return f.CPUTime, nil
	case FieldGPUTime:
		return f.GPUTime, nil
	case FieldThermalValue:
		return f.ThermalValue, nil
	case FieldThermalTrend:
		return float64(f.ThermalTrend), nil
	default:
		return float64(f.ThermalLevel), nil
	}
}

// Has reports whether the field was present in the decoded payload.
func (f Frame) Has(key FieldKey) bool {
	return key.Valid() && f.missing&key.bit() == 0
}

// Extractor returns a mapping function suitable for ring.MapTail.
func Extractor(key FieldKey) func(Frame) (float64, error) {
	return func(f Frame) (float64, error) {
		return f.Value(key)
	}
}
