// Package discovery owns the UDP socket devices talk to: binding across a
// port range, the read loop, handshake knocks and broadcast probes.
package discovery

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
)

const maxDatagram = 64 * 1024

// Handler receives every datagram read by Serve. The payload is owned by
// the handler.
type Handler func(src netip.AddrPort, payload []byte)

type Option func(*Transport)

func WithLogger(l logger.Logger) Option {
	return func(t *Transport) {
		t.log = l
	}
}

// Transport is a bound UDP socket. Send and Knock are safe to call while
// Serve is running.
type Transport struct {
	conn *net.UDPConn
	port int
	log  logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Listen binds host on the first free port in [start, end]. A start of 0
// asks the kernel for any free port.
func Listen(ctx context.Context, host string, start, end int, opts ...Option) (*Transport, error) {
	errFactory := errors.New()

	t := &Transport{log: logger.Nop()}
	for _, opt := range opts {
		opt(t)
	}

	if end < start {
		end = start
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	var lastErr error
	for port := start; port <= end; port++ {
		if err := ctx.Err(); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitFailed, err)
		}

		pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			lastErr = err
			t.log.Debug().Err(err).Int("port", port).Msg("Port unavailable")
			continue
		}

		t.conn = pc.(*net.UDPConn)
		t.port = t.conn.LocalAddr().(*net.UDPAddr).Port
		t.log.Info().Str("host", host).Int("port", t.port).Msg("Listening for devices")

		return t, nil
	}

	return nil, errFactory.Wrap(ErrPortsExhausted, lastErr).
		WithMessage("no port available in " + strconv.Itoa(start) + "-" + strconv.Itoa(end))
}

// Port is the bound local port.
func (t *Transport) Port() int {
	return t.port
}

// Serve reads datagrams until ctx is done or the transport is closed. It
// returns nil in both cases.
func (t *Transport) Serve(ctx context.Context, handle Handler) error {
	stop := context.AfterFunc(ctx, func() {
		t.Close()
	})
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		n, src, err := t.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.New().Wrap(ErrReadDatagram, err)
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		handle(netip.AddrPortFrom(src.Addr().Unmap(), src.Port()), payload)
	}
}

// Send writes one datagram to addr:port.
func (t *Transport) Send(addr string, port int, payload []byte) error {
	errFactory := errors.New()

	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return errFactory.WithData(ErrInvalidTarget, addr)
	}

	if _, err := t.conn.WriteToUDPAddrPort(payload, netip.AddrPortFrom(ip, uint16(port))); err != nil {
		return errFactory.Wrap(ErrSendDatagram, err)
	}

	return nil
}

// Knock sends payload and only logs failures.
func (t *Transport) Knock(addr string, port int, payload []byte) {
	if err := t.Send(addr, port, payload); err != nil {
		t.log.Warn().Err(err).Str("addr", addr).Int("port", port).Msg("Knock failed")
		return
	}
	t.log.Debug().Str("addr", addr).Int("port", port).Int("bytes", len(payload)).Msg("Knock sent")
}

// Probe knocks every address.
func (t *Transport) Probe(addrs []string, port int, payload []byte) {
	for _, addr := range addrs {
		t.Knock(addr, port, payload)
	}
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})

	return t.closeErr
}
