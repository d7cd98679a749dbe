package tui

import (
	"context"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/panel"
	"codeberg.org/mutker/perfscope/internal/render"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu sync.Mutex

	devices  []panel.Device
	current  string
	plan     render.Plan
	ticked   bool
	paused   bool
	moves    []int
	cleared  bool
	active   telemetry.FieldKey
	resets   int
	probes   int
	forgot   []int64
	connects []string
}

func (f *fakeController) Port() int { return 7000 }
func (f *fakeController) LastPlan() render.Plan { return f.plan }
func (f *fakeController) Devices() []panel.Device { return f.devices }
func (f *fakeController) SetCurrent(addr string) { f.current = addr }
func (f *fakeController) CurrentAddress() string { return f.current }
func (f *fakeController) Probe() { f.probes++ }
func (f *fakeController) MoveCursor(dx int) { f.moves = append(f.moves, dx) }
func (f *fakeController) ClearCursor() { f.cleared = true }
func (f *fakeController) ClearActiveField() { f.active = "" }
func (f *fakeController) Reset() { f.resets++ }
func (f *fakeController) SetActiveField(k telemetry.FieldKey) { f.active = k }

func (f *fakeController) Tick() (render.Plan, bool) {
	if !f.ticked {
		return render.Plan{}, false
	}
	f.ticked = false
	return f.plan, true
}

func (f *fakeController) TogglePause() bool {
	f.paused = !f.paused
	return f.paused
}

func (f *fakeController) Forget(id int64) error {
	f.forgot = append(f.forgot, id)
	return nil
}

func (f *fakeController) Connect(_ context.Context, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, addr)
	return errors.New().New(errors.ErrTimeout)
}

func newTestView(t *testing.T, ctl *fakeController) *View {
	t.Helper()

	app := tview.NewApplication()
	v := NewView(app, ctl, image.NewRGBA(image.Rect(0, 0, 40, 20)), nil, 10*time.Millisecond, nil)
	require.NotNil(t, v)
	return v
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestViewCreation(t *testing.T) {
	ctl := &fakeController{
		devices: []panel.Device{
			{Addr: "192.168.1.5", Saved: true, ID: 3},
			{Addr: "192.168.1.9"},
		},
	}
	v := newTestView(t, ctl)

	assert.Equal(t, 2, v.devices.GetItemCount())
	assert.Equal(t, []string{"192.168.1.5", "192.168.1.9"}, v.listAddrs)
	assert.Contains(t, v.header.GetText(true), "udp/7000")
	assert.Contains(t, v.stats.GetText(true), "waiting for data")
}

func TestHandleKeyDrivesController(t *testing.T) {
	ctl := &fakeController{}
	v := newTestView(t, ctl)

	assert.Nil(t, v.handleKey(runeKey(' ')))
	assert.True(t, ctl.paused)

	assert.Nil(t, v.handleKey(key(tcell.KeyLeft)))
	assert.Nil(t, v.handleKey(key(tcell.KeyRight)))
	assert.Equal(t, []int{-1, 1}, ctl.moves)

	assert.Nil(t, v.handleKey(key(tcell.KeyEscape)))
	assert.True(t, ctl.cleared)

	assert.Nil(t, v.handleKey(runeKey('2')))
	assert.Equal(t, telemetry.Fields[1], ctl.active)
	assert.Nil(t, v.handleKey(runeKey('0')))
	assert.Empty(t, ctl.active)

	assert.Nil(t, v.handleKey(runeKey('r')))
	assert.Equal(t, 1, ctl.resets)

	assert.Nil(t, v.handleKey(runeKey('p')))
	assert.Equal(t, 1, ctl.probes)

	ev := runeKey('7')
	assert.Same(t, ev, v.handleKey(ev))
	ev = key(tcell.KeyTab)
	assert.Same(t, ev, v.handleKey(ev))
}

func TestHandleKeyPassesThroughWhileTyping(t *testing.T) {
	ctl := &fakeController{}
	v := newTestView(t, ctl)

	assert.Nil(t, v.handleKey(runeKey('c')))
	require.True(t, v.connect.HasFocus())

	ev := runeKey('r')
	assert.Same(t, ev, v.handleKey(ev))
	assert.Zero(t, ctl.resets)
}

func TestSelectAndForgetDevice(t *testing.T) {
	ctl := &fakeController{
		devices: []panel.Device{
			{Addr: "192.168.1.5", Saved: true, ID: 3},
			{Addr: "192.168.1.9"},
		},
	}
	v := newTestView(t, ctl)

	v.selectDevice(1)
	assert.Equal(t, "192.168.1.9", ctl.current)
	v.selectDevice(5)
	assert.Equal(t, "192.168.1.9", ctl.current)

	v.devices.SetCurrentItem(1)
	v.forgetSelected()
	assert.Empty(t, ctl.forgot, "unsaved devices have nothing to forget")

	v.devices.SetCurrentItem(0)
	assert.Nil(t, v.handleKey(runeKey('d')))
	assert.Equal(t, []int64{3}, ctl.forgot)
}

func TestRefreshDevicesKeepsSelection(t *testing.T) {
	ctl := &fakeController{
		devices: []panel.Device{{Addr: "10.0.0.1"}, {Addr: "10.0.0.2"}},
	}
	v := newTestView(t, ctl)
	v.devices.SetCurrentItem(1)

	ctl.devices = []panel.Device{{Addr: "10.0.0.3"}, {Addr: "10.0.0.1"}, {Addr: "10.0.0.2"}}
	v.refreshDevices()

	assert.Equal(t, 3, v.devices.GetItemCount())
	assert.Equal(t, 2, v.devices.GetCurrentItem())
}

func TestStartConnectRejectsInvalidAddress(t *testing.T) {
	ctl := &fakeController{}
	v := newTestView(t, ctl)

	v.startConnect("300.1.1.1")
	assert.Contains(t, v.status.GetText(true), "invalid address")
	assert.Empty(t, ctl.connects)
}

func TestUpdateRefreshesOnTick(t *testing.T) {
	ctl := &fakeController{current: "10.0.0.1"}
	v := newTestView(t, ctl)

	v.update()
	assert.Contains(t, v.stats.GetText(true), "waiting for data")

	ctl.ticked = true
	ctl.plan = render.Plan{
		Paused:   true,
		HasFrame: true,
		Latest:   telemetry.Frame{Bottleneck: telemetry.BottleneckGPU},
		Stats:    []render.Stat{{Field: telemetry.FieldFrameTime, Title: "Frame Time", Text: "16.7 ms"}},
	}
	v.update()

	assert.Contains(t, v.stats.GetText(true), "Frame Time: 16.7 ms")
	assert.Contains(t, v.stats.GetText(true), "Bottleneck: GPU")
	assert.Contains(t, v.header.GetText(true), "paused")
	assert.Contains(t, v.header.GetText(true), "10.0.0.1")
}

func TestUpdateShowsBlankPlanForDeviceWithoutData(t *testing.T) {
	ctl := &fakeController{current: "10.0.0.1"}
	v := newTestView(t, ctl)

	ctl.ticked = true
	ctl.plan = render.Plan{
		Address:  "10.0.0.1",
		HasFrame: true,
		Latest: telemetry.Frame{
			Bottleneck: telemetry.BottleneckCPU,
			Scalers:    []telemetry.Scaler{{Name: "Resolution", Level: 1, MaxLevel: 2}},
		},
		Stats: []render.Stat{{Field: telemetry.FieldFrameTime, Title: "Frame Time", Text: "16.7 ms"}},
	}
	v.update()
	require.Contains(t, v.stats.GetText(true), "Bottleneck: CPU")

	ctl.current = "10.0.0.99"
	ctl.ticked = true
	ctl.plan = render.Plan{Address: "10.0.0.99"}
	v.update()

	assert.Contains(t, v.stats.GetText(true), "waiting for data")
	assert.NotContains(t, v.stats.GetText(true), "Frame Time")
	assert.Contains(t, v.scalers.GetText(true), "no scalers")
	assert.Contains(t, v.header.GetText(true), "10.0.0.99")
}

func TestScalersText(t *testing.T) {
	assert.Equal(t, "[gray]no scalers[-]", scalersText(render.Plan{}))

	p := render.Plan{
		HasFrame: true,
		Latest: telemetry.Frame{Scalers: []telemetry.Scaler{
			{Name: "Resolution", Level: 5, MaxLevel: 10, Active: true},
			{Name: "FrameRate", Level: 0, MaxLevel: 0},
		}},
	}
	lines := strings.Split(scalersText(p), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "█████░░░░░")
	assert.Contains(t, lines[0], " 50% 5/10")
	assert.Contains(t, lines[0], "on")
	assert.Contains(t, lines[1], "  0% 0/0")
	assert.Contains(t, lines[1], "off")
}

func TestStatsTextCursor(t *testing.T) {
	p := render.Plan{
		HasFrame: true,
		Cursor: &render.Readout{
			Age: 4,
			Values: []render.FieldValue{
				{Field: telemetry.FieldCPUTime, Text: "CPU Time: 8 ms"},
			},
		},
	}
	text := statsText(p, render.DefaultPalette())

	assert.Contains(t, text, "Cursor[-] (4 back)")
	assert.Contains(t, text, "CPU Time: 8 ms")
}

func TestDeviceLabel(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := panel.Device{
		Addr:      "192.168.0.7",
		Info:      "src_port: 7001",
		LastSeen:  now.Add(-90 * time.Second),
		Freshness: session.FreshnessVeryStale,
		Frames:    12,
		Current:   true,
	}

	main, secondary := deviceLabel(d, now)
	assert.Equal(t, "[red]●[-] 192.168.0.7 1m ago [::b]*[::-]", main)
	assert.Equal(t, "12 frames, src_port: 7001", secondary)
}

func TestThermometer(t *testing.T) {
	th := NewThermometer()
	assert.Contains(t, th.Text(), " -")

	th.SetThermal(0.35, true)
	assert.True(t, strings.HasPrefix(th.Text(), "[green]"+strings.Repeat("█", 5)+"[gray]"))
	assert.True(t, strings.HasSuffix(th.Text(), "[-] 0.350"))

	th.SetThermal(2.5, true)
	text := th.Text()
	assert.True(t, strings.HasPrefix(text, "[red]"+strings.Repeat("█", thermometerWidth)+"[gray][-]"))
	assert.True(t, strings.HasSuffix(text, " 2.500"))
}
