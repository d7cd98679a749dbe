package telemetry

import (
	"fmt"
	"math"
)

// FieldKey names one of the plottable numeric fields of a Frame. The values
// match the JSON keys devices send.
type FieldKey string

const (
	FieldFrameTime    FieldKey = "frameTime"
	FieldCPUTime      FieldKey = "cpuTime"
	FieldGPUTime      FieldKey = "gpuTime"
	FieldThermalValue FieldKey = "thermalValue"
	FieldThermalTrend FieldKey = "thermalTrends"
	FieldThermalLevel FieldKey = "thermalLevel"
)

// Fields lists the plottable fields in display order.
var Fields = []FieldKey{
	FieldFrameTime,
	FieldCPUTime,
	FieldGPUTime,
	FieldThermalValue,
	FieldThermalTrend,
	FieldThermalLevel,
}

type fieldInfo struct {
	bit    fieldMask
	title  string
	suffix string
	labels []string
}

var fieldTable = map[FieldKey]fieldInfo{
	FieldFrameTime:    {bit: 1 << 0, title: "Frame Time", suffix: "ms"},
	FieldCPUTime:      {bit: 1 << 1, title: "CPU Time", suffix: "ms"},
	FieldGPUTime:      {bit: 1 << 2, title: "GPU Time", suffix: "ms"},
	FieldThermalValue: {bit: 1 << 3, title: "Thermal Value"},
	FieldThermalTrend: {bit: 1 << 4, title: "Thermal Trends", labels: trendNames},
	FieldThermalLevel: {bit: 1 << 5, title: "Thermal Level", labels: levelNames},
}

func (k FieldKey) Valid() bool {
	_, ok := fieldTable[k]
	return ok
}

func (k FieldKey) bit() fieldMask {
	return fieldTable[k].bit
}

// Title is the human readable series name.
func (k FieldKey) Title() string {
	if info, ok := fieldTable[k]; ok {
		return info.title
	}
	return string(k)
}

// Labels returns the enum label table for enum fields, or nil.
func (k FieldKey) Labels() []string {
	return fieldTable[k].labels
}

// FormatMean renders an averaged value in the field's unit: "<n> ms" for
// times, the nearest enum label for enum fields, a plain number otherwise.
func (k FieldKey) FormatMean(v float64) string {
	info := fieldTable[k]

	switch {
	case info.labels != nil:
		i := int(math.Round(v))
		i = max(0, min(len(info.labels)-1, i))
		return info.labels[i]
	case info.suffix != "":
		return FormatValue(v, 3) + " " + info.suffix
	default:
		return FormatValue(v, 3)
	}
}

// FormatValue prints v without decimals when it is integral (within 1e-5)
// and with the given number of decimals otherwise.
func FormatValue(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	if math.Abs(v-math.Floor(v)) < 1e-5 {
		return fmt.Sprintf("%d", int64(math.Round(v)))
	}

	return fmt.Sprintf("%.*f", decimals, v)
}
