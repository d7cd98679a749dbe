package panel

import (
	"time"

	"codeberg.org/mutker/perfscope/internal/addressbook"
	"codeberg.org/mutker/perfscope/internal/logger"
	"codeberg.org/mutker/perfscope/internal/render"
)

type Option func(*Panel)

// WithTransport uses t instead of binding a UDP socket.
func WithTransport(t Transport) Option {
	return func(p *Panel) {
		p.transport = t
	}
}

// WithAddressBook uses store instead of opening one from the config.
func WithAddressBook(store addressbook.Store) Option {
	return func(p *Panel) {
		p.book = store
	}
}

func WithLogger(l logger.Logger) Option {
	return func(p *Panel) {
		p.log = l
	}
}

// WithSurface draws every plan onto s.
func WithSurface(s render.Surface) Option {
	return func(p *Panel) {
		p.surface = s
	}
}

func WithGauge(g Gauge) Option {
	return func(p *Panel) {
		p.gauge = g
	}
}

func WithPlanner(planner *render.Planner) Option {
	return func(p *Panel) {
		p.planner = planner
	}
}

// WithBroadcastAddresses replaces interface enumeration for probes.
func WithBroadcastAddresses(fn func() ([]string, error)) Option {
	return func(p *Panel) {
		p.broadcastAddrs = fn
	}
}

func withClock(now func() time.Time) Option {
	return func(p *Panel) {
		p.now = now
	}
}
