package panel

import (
	"context"

	"codeberg.org/mutker/perfscope/internal/discovery"
)

// Transport is the datagram socket the panel talks to devices through.
// *discovery.Transport implements it.
type Transport interface {
	Port() int
	Serve(ctx context.Context, handle discovery.Handler) error
	Knock(addr string, port int, payload []byte)
	Probe(addrs []string, port int, payload []byte)
	Close() error
}

// Gauge shows the newest thermal value of the current device.
type Gauge interface {
	SetThermal(value float64, ok bool)
}

var _ Transport = (*discovery.Transport)(nil)
