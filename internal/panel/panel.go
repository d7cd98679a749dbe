// Package panel is the explicit context behind the UI: it owns the session
// registry, the ingestion router, handshake waiters, the transport and the
// address book, and runs the read loop and the discovery probe timer.
package panel

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/addressbook"
	"codeberg.org/mutker/perfscope/internal/config"
	"codeberg.org/mutker/perfscope/internal/discovery"
	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/ingest"
	"codeberg.org/mutker/perfscope/internal/logger"
	"codeberg.org/mutker/perfscope/internal/render"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
)

type Panel struct {
	cfg *config.Config
	log logger.Logger
	now func() time.Time

	registry *session.Registry
	waiters  *ingest.Waiters
	router   *ingest.Router
	planner  *render.Planner

	transport      Transport
	book           addressbook.Store
	surface        render.Surface
	gauge          Gauge
	broadcastAddrs func() ([]string, error)

	mu       sync.Mutex
	width    int
	height   int
	lastPlan render.Plan

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Open binds the transport, opens the address book and starts the read
// loop and, when broadcasting is enabled, the probe timer. Nothing is left
// running when it fails.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Panel, error) {
	errFactory := errors.New()

	p := &Panel{
		cfg:            cfg,
		log:            logger.Default().With("panel"),
		now:            time.Now,
		width:          cfg.Width,
		height:         cfg.Height,
		broadcastAddrs: discovery.BroadcastAddresses,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.planner == nil {
		p.planner = render.NewPlanner()
	}

	p.registry = session.NewRegistry(cfg.HistoryCapacity)
	p.waiters = ingest.NewWaiters()
	p.router = ingest.NewRouter(p.registry,
		ingest.WithProductID(cfg.ProductID),
		ingest.WithWaiters(p.waiters),
		ingest.WithControlHandler(p.onControl),
		ingest.WithLogger(p.log.With("ingest")),
	)

	ownBook := false
	if p.book == nil {
		book, err := addressbook.Open(addressbook.Config{
			Path:    cfg.AddressBook.Path,
			Limit:   cfg.AddressBook.Limit,
			Enabled: cfg.AddressBook.Enabled,
		}, p.log.With("addressbook"))
		if err != nil {
			return nil, errFactory.Wrap(ErrOpenPanel, err)
		}
		p.book = book
		ownBook = true
	}

	if p.transport == nil {
		t, err := discovery.Listen(ctx, cfg.ListenHost, cfg.PortStart, cfg.PortEnd,
			discovery.WithLogger(p.log.With("discovery")))
		if err != nil {
			if ownBook {
				p.book.Close()
			}
			return nil, errFactory.Wrap(ErrOpenPanel, err)
		}
		p.transport = t
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.transport.Serve(runCtx, p.handleDatagram); err != nil {
			p.log.Error().Err(err).Msg("Read loop stopped")
		}
	}()

	if cfg.Broadcast && cfg.ProbeInterval > 0 {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.probeLoop(runCtx)
		}()
	}

	p.log.Info().
		Int("port", p.transport.Port()).
		Bool("broadcast", cfg.Broadcast).
		Int("capacity", cfg.HistoryCapacity).
		Msg("Panel opened")

	return p, nil
}

// Close stops the loops, closes the transport and the address book.
func (p *Panel) Close() error {
	p.closeOnce.Do(func() {
		errFactory := errors.New()

		p.cancel()
		tErr := p.transport.Close()
		p.wg.Wait()
		p.registry.ClearAll()
		bErr := p.book.Close()

		switch {
		case tErr != nil:
			p.closeErr = errFactory.Wrap(ErrClosePanel, tErr)
		case bErr != nil:
			p.closeErr = errFactory.Wrap(ErrClosePanel, bErr)
		}

		p.log.Info().Msg("Panel closed")
	})

	return p.closeErr
}

func (p *Panel) Port() int {
	return p.transport.Port()
}

func (p *Panel) Counters() ingest.Counters {
	return p.router.Counters()
}

func (p *Panel) handleDatagram(src netip.AddrPort, payload []byte) {
	p.router.OnMessage(ingest.Source{Addr: src.Addr().String(), Port: int(src.Port())}, payload)
}

func (p *Panel) onControl(src ingest.Source, inst ingest.Instruction) {
	if inst.Action != ingest.ActionRegister {
		return
	}

	if _, err := p.book.Touch(src.Addr, fmt.Sprintf("src_port: %d", src.Port)); err != nil {
		p.log.Warn().Err(err).Str("addr", src.Addr).Msg("Failed to save device")
	}
}

func (p *Panel) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.ProbeInterval)
	defer ticker.Stop()

	p.Probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe()
		}
	}
}

// Probe sends the hello instruction to every broadcast address.
func (p *Panel) Probe() {
	addrs, err := p.broadcastAddrs()
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to enumerate broadcast addresses")
		return
	}

	p.transport.Probe(addrs, p.cfg.DevicePort, ingest.BuildInstruction(p.router.ProductID(), ingest.ActionHello))
}

// Connect knocks addr and waits for its register message. On success addr
// becomes the current device.
func (p *Panel) Connect(ctx context.Context, addr string) error {
	if err := ValidateIPv4(addr); err != nil {
		return err
	}

	p.transport.Knock(addr, p.cfg.DevicePort, ingest.BuildInstruction(p.router.ProductID(), ingest.ActionHello))
	if err := p.waiters.Wait(ctx, addr, p.cfg.HandshakeTimeout); err != nil {
		p.log.Info().Err(err).Str("addr", addr).Msg("Device did not answer")
		return err
	}

	p.SetCurrent(addr)
	return nil
}

// Forget removes a saved device.
func (p *Panel) Forget(id int64) error {
	return p.book.Delete(id)
}

// Tick plans and draws the current session if it changed since the last
// tick. It reports whether a new plan was produced. Switching to an address
// without data produces one blank plan.
func (p *Panel) Tick() (render.Plan, bool) {
	s := p.registry.Current()
	if s == nil {
		addr := p.registry.CurrentAddress()
		if addr == p.LastPlan().Address {
			return render.Plan{}, false
		}
		return p.blank(addr), true
	}
	if !s.Dirty() {
		return render.Plan{}, false
	}

	// cleared before planning so a frame arriving mid-plan marks it again
	s.MarkClean()

	return p.plan(s), true
}

// Render plans and draws the current session unconditionally. A current
// address without data renders blank; no current address renders nothing.
func (p *Panel) Render() (render.Plan, bool) {
	s := p.registry.Current()
	if s == nil {
		addr := p.registry.CurrentAddress()
		if addr == "" {
			return render.Plan{}, false
		}
		return p.blank(addr), true
	}
	s.MarkClean()

	return p.plan(s), true
}

func (p *Panel) blank(addr string) render.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan := p.planner.Blank(addr, render.Geometry{Width: p.width, Height: p.height})
	p.publish(plan)

	return plan
}

func (p *Panel) plan(s *session.Session) render.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan := p.planner.Plan(s, p.width, p.height)
	p.publish(plan)
	if plan.Skipped > 0 {
		p.log.Debug().Str("addr", plan.Address).Int("skipped", plan.Skipped).Msg("Samples without value")
	}

	return plan
}

// publish draws plan and feeds the gauge. Callers hold p.mu.
func (p *Panel) publish(plan render.Plan) {
	if p.surface != nil {
		plan.Draw(p.surface)
	}
	if p.gauge != nil {
		ok := plan.HasFrame && plan.Latest.Has(telemetry.FieldThermalValue)
		p.gauge.SetThermal(plan.Latest.ThermalValue, ok)
	}
	p.lastPlan = plan
}

// LastPlan returns the most recent plan.
func (p *Panel) LastPlan() render.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPlan
}

// Resize changes the canvas size used for planning.
func (p *Panel) Resize(width, height int) {
	p.mu.Lock()
	changed := width != p.width || height != p.height
	p.width, p.height = width, height
	p.mu.Unlock()

	if changed {
		p.withCurrent(func(s *session.Session) { s.MarkDirty() })
	}
}

func (p *Panel) Size() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.width, p.height
}

func (p *Panel) SetCurrent(addr string) {
	p.registry.SetCurrent(addr)
}

func (p *Panel) CurrentAddress() string {
	return p.registry.CurrentAddress()
}

// TogglePause flips pause on the current device and returns the new state.
func (p *Panel) TogglePause() bool {
	paused := false
	p.withCurrent(func(s *session.Session) {
		paused = s.TogglePause()
		// the indicator changes even though the data does not
		s.MarkDirty()
	})
	return paused
}

func (p *Panel) SetCursor(x int) {
	p.withCurrent(func(s *session.Session) { s.SetCursor(x) })
}

// MoveCursor shifts the cursor by dx pixels, starting at the newest sample
// when no cursor is set.
func (p *Panel) MoveCursor(dx int) {
	p.withCurrent(func(s *session.Session) {
		x := s.View().Cursor
		if x < 0 {
			w, _ := p.Size()
			g := render.Geometry{Width: w}
			x = int(g.Left()) + g.DotCount(s.Len())
		}
		s.SetCursor(max(0, x+dx))
	})
}

func (p *Panel) ClearCursor() {
	p.SetCursor(session.NoCursor)
}

func (p *Panel) SetActiveField(key telemetry.FieldKey) {
	p.withCurrent(func(s *session.Session) { s.SetActiveField(key) })
}

func (p *Panel) ClearActiveField() {
	p.withCurrent(func(s *session.Session) { s.ClearActiveField() })
}

// Reset drops the current device's history.
func (p *Panel) Reset() {
	p.withCurrent(func(s *session.Session) { s.Reset() })
}

func (p *Panel) withCurrent(fn func(*session.Session)) {
	if s := p.registry.Current(); s != nil {
		fn(s)
	}
}
