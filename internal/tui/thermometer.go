package tui

import (
	"strings"
	"sync"

	"codeberg.org/mutker/perfscope/internal/telemetry"
)

const (
	thermometerWidth = 20
	thermometerMax   = 1.4
)

// Thermometer is a text gauge for the newest thermal value.
type Thermometer struct {
	mu    sync.Mutex
	value float64
	ok    bool
}

func NewThermometer() *Thermometer {
	return &Thermometer{}
}

func (t *Thermometer) SetThermal(value float64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value, t.ok = value, ok
}

// Text renders the gauge as a tview color tagged bar.
func (t *Thermometer) Text() string {
	t.mu.Lock()
	value, ok := t.value, t.ok
	t.mu.Unlock()

	if !ok {
		return "[gray]" + strings.Repeat("░", thermometerWidth) + " -[-]"
	}

	fill := max(0, min(1, value/thermometerMax))
	n := int(fill*thermometerWidth + 0.5)

	color := "green"
	switch {
	case fill >= 0.75:
		color = "red"
	case fill >= 0.4:
		color = "yellow"
	}

	return "[" + color + "]" + strings.Repeat("█", n) + "[gray]" +
		strings.Repeat("░", thermometerWidth-n) + "[-] " + telemetry.FormatValue(value, 3)
}
