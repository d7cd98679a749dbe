package tui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/logger"
	"codeberg.org/mutker/perfscope/internal/panel"
	"codeberg.org/mutker/perfscope/internal/render"
	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const deviceRefresh = time.Second

// Controller is the part of a panel the view drives.
type Controller interface {
	Port() int
	Tick() (render.Plan, bool)
	LastPlan() render.Plan
	Devices() []panel.Device
	SetCurrent(addr string)
	CurrentAddress() string
	Connect(ctx context.Context, addr string) error
	Forget(id int64) error
	Probe()
	TogglePause() bool
	MoveCursor(dx int)
	ClearCursor()
	SetActiveField(key telemetry.FieldKey)
	ClearActiveField()
	Reset()
}

// View hosts a panel in a terminal.
type View struct {
	app     *tview.Application
	ctl     Controller
	chart   image.Image
	thermo  *Thermometer
	palette render.Palette
	tick    time.Duration
	log     logger.Logger
	now     func() time.Time

	header    *tview.TextView
	devices   *tview.List
	chartView *tview.Image
	stats     *tview.TextView
	scalers   *tview.TextView
	gauge     *tview.TextView
	status    *tview.TextView
	connect   *tview.InputField
	layout    *tview.Flex

	mu        sync.Mutex
	listAddrs []string
	listIDs   []int64
}

// NewView builds the widgets. chart is redrawn in place by the panel on
// every tick.
func NewView(app *tview.Application, ctl Controller, chart image.Image, thermo *Thermometer, tick time.Duration, log logger.Logger) *View {
	if thermo == nil {
		thermo = NewThermometer()
	}
	if log == nil {
		log = logger.Nop()
	}

	v := &View{
		app:     app,
		ctl:     ctl,
		chart:   chart,
		thermo:  thermo,
		palette: render.DefaultPalette(),
		tick:    tick,
		log:     log,
		now:     time.Now,
	}

	v.createComponents()
	v.setupLayout()
	v.setupInputHandler()
	v.refreshDevices()
	v.refreshPlan(ctl.LastPlan())

	return v
}

func (v *View) createComponents() {
	v.header = tview.NewTextView().SetDynamicColors(true)

	v.devices = tview.NewList().ShowSecondaryText(true)
	v.devices.SetBorder(true).SetTitle(" Devices ")
	v.devices.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		v.selectDevice(i)
	})

	v.chartView = tview.NewImage()
	if v.chart != nil {
		v.chartView.SetImage(v.chart)
	}
	v.chartView.SetBorder(true).SetTitle(" Chart ")

	v.stats = tview.NewTextView().SetDynamicColors(true)
	v.stats.SetBorder(true).SetTitle(" Stats ")

	v.scalers = tview.NewTextView().SetDynamicColors(true)
	v.scalers.SetBorder(true).SetTitle(" Scalers ")

	v.gauge = tview.NewTextView().SetDynamicColors(true)
	v.gauge.SetBorder(true).SetTitle(" Thermal ")

	v.status = tview.NewTextView().SetDynamicColors(true)

	v.connect = tview.NewInputField().
		SetLabel("Connect to: ").
		SetFieldWidth(16).
		SetAcceptanceFunc(func(text string, last rune) bool {
			return len(text) <= 15 && (last == '.' || (last >= '0' && last <= '9'))
		})
	v.connect.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			v.startConnect(v.connect.GetText())
		}
		v.connect.SetText("")
		v.app.SetFocus(v.devices)
	})
}

func (v *View) setupLayout() {
	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.devices, 0, 2, true).
		AddItem(v.gauge, 3, 0, false).
		AddItem(v.connect, 1, 0, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.stats, 0, 1, false).
		AddItem(v.scalers, 0, 1, false)

	body := tview.NewFlex().
		AddItem(side, 36, 0, true).
		AddItem(v.chartView, 0, 3, false).
		AddItem(right, 40, 0, false)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.header, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(v.status, 1, 0, false).
		AddItem(tview.NewTextView().SetDynamicColors(true).SetText(helpText), 1, 0, false)
}

func (v *View) setupInputHandler() {
	v.app.SetInputCapture(v.handleKey)
}

// handleKey returns nil for events it consumed.
func (v *View) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if v.connect.HasFocus() {
		return event
	}

	switch event.Key() {
	case tcell.KeyCtrlC:
		v.app.Stop()
		return nil
	case tcell.KeyLeft:
		v.ctl.MoveCursor(-1)
		return nil
	case tcell.KeyRight:
		v.ctl.MoveCursor(1)
		return nil
	case tcell.KeyEscape:
		v.ctl.ClearCursor()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	r := event.Rune()
	switch {
	case r == 'q':
		v.app.Stop()
	case r == ' ':
		v.ctl.TogglePause()
	case r == 'r':
		v.ctl.Reset()
	case r == 'p':
		v.ctl.Probe()
		v.setStatus("[gray]probing[-]")
	case r == 'c':
		v.app.SetFocus(v.connect)
	case r == 'd':
		v.forgetSelected()
	case r == '0':
		v.ctl.ClearActiveField()
	case r >= '1' && int(r-'1') < len(telemetry.Fields):
		v.ctl.SetActiveField(telemetry.Fields[r-'1'])
	default:
		return event
	}

	return nil
}

func (v *View) selectDevice(i int) {
	v.mu.Lock()
	if i < 0 || i >= len(v.listAddrs) {
		v.mu.Unlock()
		return
	}
	addr := v.listAddrs[i]
	v.mu.Unlock()

	v.ctl.SetCurrent(addr)
	v.setStatus(fmt.Sprintf("showing %s", addr))
}

func (v *View) forgetSelected() {
	i := v.devices.GetCurrentItem()

	v.mu.Lock()
	if i < 0 || i >= len(v.listIDs) || v.listIDs[i] == 0 {
		v.mu.Unlock()
		return
	}
	id, addr := v.listIDs[i], v.listAddrs[i]
	v.mu.Unlock()

	if err := v.ctl.Forget(id); err != nil {
		v.log.Warn().Err(err).Str("addr", addr).Msg("Failed to forget device")
		v.setStatus(fmt.Sprintf("[red]forget %s: %v[-]", addr, err))
		return
	}
	v.setStatus(fmt.Sprintf("forgot %s", addr))
	v.refreshDevices()
}

func (v *View) startConnect(addr string) {
	if addr == "" {
		return
	}
	if err := panel.ValidateIPv4(addr); err != nil {
		v.setStatus(fmt.Sprintf("[red]invalid address %q[-]", addr))
		return
	}

	v.setStatus(fmt.Sprintf("connecting to %s", addr))
	go func() {
		err := v.ctl.Connect(context.Background(), addr)
		v.app.QueueUpdateDraw(func() {
			if err != nil {
				v.log.Warn().Err(err).Str("addr", addr).Msg("Connect failed")
				v.setStatus(fmt.Sprintf("[red]%s did not answer[-]", addr))
				return
			}
			v.setStatus(fmt.Sprintf("[green]connected to %s[-]", addr))
			v.refreshDevices()
		})
	}()
}

func (v *View) setStatus(text string) {
	v.status.SetText(text)
}

// refreshDevices rebuilds the device list keeping the selection on the
// same address.
func (v *View) refreshDevices() {
	devices := v.ctl.Devices()
	now := v.now()

	v.mu.Lock()
	selected := ""
	if i := v.devices.GetCurrentItem(); i >= 0 && i < len(v.listAddrs) {
		selected = v.listAddrs[i]
	}
	v.listAddrs = v.listAddrs[:0]
	v.listIDs = v.listIDs[:0]
	for _, d := range devices {
		v.listAddrs = append(v.listAddrs, d.Addr)
		v.listIDs = append(v.listIDs, d.ID)
	}
	v.mu.Unlock()

	v.devices.Clear()
	restore := 0
	for i, d := range devices {
		main, secondary := deviceLabel(d, now)
		v.devices.AddItem(main, secondary, 0, nil)
		if d.Addr == selected {
			restore = i
		}
	}
	if len(devices) > 0 {
		v.devices.SetCurrentItem(restore)
	}
}

func (v *View) refreshPlan(p render.Plan) {
	v.header.SetText(headerText(v.ctl.CurrentAddress(), v.ctl.Port(), p.Paused))
	v.stats.SetText(statsText(p, v.palette))
	v.scalers.SetText(scalersText(p))
	v.gauge.SetText(v.thermo.Text())
	if v.chart != nil {
		// forces tview to resample the redrawn pixels
		v.chartView.SetImage(v.chart)
	}
}

// update runs on the UI goroutine so the panel never redraws the chart
// while tview reads it.
func (v *View) update() {
	if p, ok := v.ctl.Tick(); ok {
		v.refreshPlan(p)
	}
}

func (v *View) loop(ctx context.Context) {
	ticker := time.NewTicker(v.tick)
	defer ticker.Stop()
	devTicker := time.NewTicker(deviceRefresh)
	defer devTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.app.QueueUpdateDraw(v.update)
		case <-devTicker.C:
			v.app.QueueUpdateDraw(v.refreshDevices)
		}
	}
}

// Run blocks until the user quits or ctx is done.
func (v *View) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go v.loop(ctx)
	stop := context.AfterFunc(ctx, v.app.Stop)
	defer stop()

	v.log.Info().Int("port", v.ctl.Port()).Msg("Terminal UI started")

	return v.app.SetRoot(v.layout, true).SetFocus(v.devices).Run()
}
