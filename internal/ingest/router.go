// Package ingest classifies datagrams from devices and routes data frames
// into the session registry.
package ingest

import (
	"bytes"
	"strconv"
	"sync/atomic"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
)

// Source identifies the sender of a datagram.
type Source struct {
	Addr string
	Port int
}

func (s Source) String() string {
	return s.Addr + ":" + strconv.Itoa(s.Port)
}

// Kind is how a datagram was handled.
type Kind int

const (
	KindDropped Kind = iota
	KindData
	KindControl
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindControl:
		return "control"
	default:
		return "dropped"
	}
}

// ControlFunc is called for every control instruction from a device.
type ControlFunc func(src Source, inst Instruction)

// Counters summarizes what the router has seen.
type Counters struct {
	Frames   uint64
	Control  uint64
	Dropped  uint64
	Rejected uint64
}

type Option func(*Router)

func WithProductID(id string) Option {
	return func(r *Router) {
		if id != "" {
			r.productID = id
		}
	}
}

func WithWaiters(w *Waiters) Option {
	return func(r *Router) {
		r.waiters = w
	}
}

func WithControlHandler(fn ControlFunc) Option {
	return func(r *Router) {
		r.onControl = fn
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		r.log = l
	}
}

// Router is the single ingestion entry point. OnMessage may be called from
// several goroutines; per-address ordering is the caller's read loop order.
type Router struct {
	productID string
	registry  *session.Registry
	waiters   *Waiters
	onControl ControlFunc
	log       logger.Logger

	frames   atomic.Uint64
	control  atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64
}

func NewRouter(registry *session.Registry, opts ...Option) *Router {
	r := &Router{
		productID: DefaultProductID,
		registry:  registry,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Router) ProductID() string {
	return r.productID
}

// OnMessage handles one datagram. Register instructions resolve pending
// handshakes; data frames are decoded and dispatched. Malformed data is
// logged and dropped without touching the registry.
func (r *Router) OnMessage(src Source, payload []byte) (Kind, error) {
	errFactory := errors.New()

	if inst, ok := ParseInstruction(payload); ok {
		if inst.ProductID != r.productID {
			r.dropped.Add(1)
			r.log.Debug().Str("addr", src.Addr).Str("product", inst.ProductID).Msg("Ignoring instruction for another product")
			return KindDropped, errFactory.WithData(ErrForeignProduct, inst.ProductID)
		}

		r.control.Add(1)
		r.handleControl(src, inst)

		return KindControl, nil
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		r.dropped.Add(1)
		r.log.Debug().Str("addr", src.Addr).Int("bytes", len(payload)).Msg("Dropping unrecognized payload")
		return KindDropped, errFactory.New(ErrUnknownPayload)
	}

	frame, err := telemetry.Decode(trimmed)
	if err != nil {
		r.dropped.Add(1)
		r.log.Warn().Err(err).Str("addr", src.Addr).Int("bytes", len(payload)).Msg("Dropping malformed frame")
		return KindDropped, err
	}

	if !r.registry.Dispatch(src.Addr, frame) {
		r.rejected.Add(1)
	}
	r.frames.Add(1)

	return KindData, nil
}

// handleControl runs the control callback before resolving waiters so a
// woken caller observes its effects.
func (r *Router) handleControl(src Source, inst Instruction) {
	if r.onControl != nil {
		r.onControl(src, inst)
	}

	switch inst.Action {
	case ActionRegister:
		r.log.Info().Str("addr", src.Addr).Int("port", src.Port).Msg("Device registered")
		if r.waiters != nil {
			if n := r.waiters.Resolve(src.Addr); n > 0 {
				r.log.Debug().Str("addr", src.Addr).Int("waiters", n).Msg("Handshake resolved")
			}
		}
	default:
		r.log.Debug().Str("addr", src.Addr).Str("action", string(inst.Action)).Msg("Control instruction")
	}
}

// Counters returns a snapshot of the message counters. Rejected counts
// frames that arrived while their session was paused.
func (r *Router) Counters() Counters {
	return Counters{
		Frames:   r.frames.Load(),
		Control:  r.control.Load(),
		Dropped:  r.dropped.Load(),
		Rejected: r.rejected.Load(),
	}
}
