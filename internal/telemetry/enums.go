package telemetry

import (
	"encoding/json"
	"math"

	"codeberg.org/mutker/perfscope/internal/errors"
)

// Trend is the direction the device's thermal headroom is moving in.
type Trend int

const (
	TrendFastDecrease Trend = iota
	TrendDecrease
	TrendStable
	TrendIncrease
	TrendFastIncrease
)

// Level is the coarse thermal throttling level reported by the device.
type Level int

const (
	LevelL0 Level = iota
	LevelL1
	LevelL2
	LevelL3
)

// Bottleneck names the unit limiting the frame rate.
type Bottleneck int

const (
	BottleneckNone Bottleneck = iota
	BottleneckCPU
	BottleneckGPU
	BottleneckBoth
)

var (
	trendNames      = []string{"FAST_DECREASE", "DECREASE", "STABLE", "INCREASE", "FAST_INCREASE"}
	levelNames      = []string{"L0", "L1", "L2", "L3"}
	bottleneckNames = []string{"None", "CPU", "GPU", "CPU & GPU"}
)

func (t Trend) String() string      { return enumName(trendNames, int(t)) }
func (l Level) String() string      { return enumName(levelNames, int(l)) }
func (b Bottleneck) String() string { return enumName(bottleneckNames, int(b)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func (t *Trend) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, len(trendNames), "thermalTrends")
	*t = Trend(v)
	return err
}

func (l *Level) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, len(levelNames), "thermalLevel")
	*l = Level(v)
	return err
}

func (b *Bottleneck) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, len(bottleneckNames), "bottleneck")
	*b = Bottleneck(v)
	return err
}

func (t Trend) MarshalJSON() ([]byte, error)      { return json.Marshal(int(t)) }
func (l Level) MarshalJSON() ([]byte, error)      { return json.Marshal(int(l)) }
func (b Bottleneck) MarshalJSON() ([]byte, error) { return json.Marshal(int(b)) }

// Devices send these as plain numbers, sometimes with a fractional part.
// The value is rounded to the nearest variant and rejected when it falls
// outside the table.
func decodeEnum(data []byte, count int, field string) (int, error) {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, errors.New().Wrap(ErrMalformedFrame, err)
	}

	i := int(math.Round(f))
	if i < 0 || i >= count {
		return 0, errors.New().WithData(ErrEnumOutOfRange, struct {
			Field string
			Value float64
		}{field, f})
	}

	return i, nil
}
