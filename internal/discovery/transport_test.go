package discovery_test

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"codeberg.org/mutker/perfscope/internal/discovery"
	"codeberg.org/mutker/perfscope/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datagram struct {
	src     netip.AddrPort
	payload string
}

func listen(t *testing.T) *discovery.Transport {
	t.Helper()
	tr, err := discovery.Listen(context.Background(), "127.0.0.1", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestSendAndServeOverLoopback(t *testing.T) {
	server := listen(t)
	client := listen(t)
	require.NotZero(t, server.Port())

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan datagram, 1)
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, func(src netip.AddrPort, payload []byte) {
			got <- datagram{src: src, payload: string(payload)}
		})
	}()

	require.NoError(t, client.Send("127.0.0.1", server.Port(), []byte("demo;register!")))

	select {
	case d := <-got:
		assert.Equal(t, "demo;register!", d.payload)
		assert.Equal(t, "127.0.0.1", d.src.Addr().String())
		assert.Equal(t, uint16(client.Port()), d.src.Port())
	case <-time.After(2 * time.Second):
		t.Fatal("datagram not received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestListenSkipsTakenPorts(t *testing.T) {
	taken, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()
	port := taken.LocalAddr().(*net.UDPAddr).Port

	_, err = discovery.Listen(context.Background(), "127.0.0.1", port, port)
	require.Error(t, err)
	assert.ErrorIs(t, err, discovery.ErrNoPortAvailable)
	assert.True(t, errors.HasCode(err, discovery.ErrPortsExhausted))
}

func TestSendRejectsInvalidTarget(t *testing.T) {
	tr := listen(t)

	err := tr.Send("not-an-ip", 7001, []byte("x"))
	assert.True(t, errors.HasCode(err, discovery.ErrInvalidTarget))

	err = tr.Send("::1", 7001, []byte("x"))
	assert.True(t, errors.HasCode(err, discovery.ErrInvalidTarget))

	// failures are only logged
	tr.Knock("bogus", 7001, []byte("x"))
}

func TestCloseIsIdempotent(t *testing.T) {
	tr, err := discovery.Listen(context.Background(), "127.0.0.1", 0, 0)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.NoError(t, tr.Serve(context.Background(), func(netip.AddrPort, []byte) {}))
}

func TestBroadcastFor(t *testing.T) {
	tests := []struct {
		cidr string
		want string
		ok   bool
	}{
		{"192.168.1.20/24", "192.168.1.255", true},
		{"10.1.2.3/8", "10.255.255.255", true},
		{"172.20.5.9/20", "172.20.15.255", true},
		{"10.0.0.7/32", "10.0.0.7", true},
		{"8.8.8.8/24", "", false},
		{"fe80::1/64", "", false},
		{"garbage", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			got, ok := discovery.BroadcastFor(tt.cidr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBroadcastAddressesArePrivate(t *testing.T) {
	addrs, err := discovery.BroadcastAddresses()
	require.NoError(t, err)

	for _, a := range addrs {
		ip, err := netip.ParseAddr(a)
		require.NoError(t, err)
		assert.True(t, ip.Is4())
		assert.False(t, ip.IsLoopback())
	}
}
