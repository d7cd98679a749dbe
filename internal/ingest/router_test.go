package ingest_test

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/ingest"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validFrame = `{"enabled":true,"thermalValue":1.5,"thermalLevel":1,"thermalTrends":2,` +
	`"frameTime":16.6,"frameTimeEMA":16.1,"cpuTime":9,"gpuTime":7,"bottleneck":1,` +
	`"scalers":[{"name":"resolution","active":true,"minLevel":0,"maxLevel":4,"level":2,"cost":0.5}]}`

func TestDataFramesAreDispatched(t *testing.T) {
	reg := session.NewRegistry(16)
	r := ingest.NewRouter(reg)

	kind, err := r.OnMessage(ingest.Source{Addr: "10.0.0.5", Port: 7001}, []byte(validFrame))
	require.NoError(t, err)
	assert.Equal(t, ingest.KindData, kind)

	s, ok := reg.Get("10.0.0.5")
	require.True(t, ok)
	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 16.6, latest.FrameTime)
	assert.Equal(t, telemetry.BottleneckCPU, latest.Bottleneck)
	require.Len(t, latest.Scalers, 1)
	assert.Equal(t, 50, latest.Scalers[0].Percent())

	assert.Equal(t, "10.0.0.5", reg.CurrentAddress())
	assert.Equal(t, uint64(1), r.Counters().Frames)
}

func TestMalformedPayloadNeverCreatesSession(t *testing.T) {
	reg := session.NewRegistry(16)
	r := ingest.NewRouter(reg)
	src := ingest.Source{Addr: "10.0.0.5", Port: 7001}

	for _, payload := range []string{`{"frameTime":`, `{"thermalLevel": 9}`, "garbage", ""} {
		kind, err := r.OnMessage(src, []byte(payload))
		assert.Equal(t, ingest.KindDropped, kind, payload)
		assert.Error(t, err, payload)
	}

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, uint64(4), r.Counters().Dropped)

	_, err := r.OnMessage(src, []byte("garbage"))
	assert.True(t, errors.HasCode(err, ingest.ErrUnknownPayload))
}

func TestRegisterResolvesWaitersAndNotifies(t *testing.T) {
	reg := session.NewRegistry(16)
	w := ingest.NewWaiters()

	var mu sync.Mutex
	var seen []ingest.Source
	r := ingest.NewRouter(reg,
		ingest.WithWaiters(w),
		ingest.WithControlHandler(func(src ingest.Source, inst ingest.Instruction) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, ingest.ActionRegister, inst.Action)
			seen = append(seen, src)
		}),
	)

	ch := w.Register("10.0.0.5", time.Second)
	src := ingest.Source{Addr: "10.0.0.5", Port: 54321}
	kind, err := r.OnMessage(src, ingest.BuildInstruction(ingest.DefaultProductID, ingest.ActionRegister))
	require.NoError(t, err)
	assert.Equal(t, ingest.KindControl, kind)

	assert.True(t, receive(t, ch, time.Second))
	assert.Equal(t, []ingest.Source{src}, seen)
	assert.Equal(t, 0, reg.Len(), "control messages never enter a session")
}

func TestForeignProductIsIgnored(t *testing.T) {
	reg := session.NewRegistry(16)
	w := ingest.NewWaiters()
	r := ingest.NewRouter(reg, ingest.WithWaiters(w), ingest.WithProductID("mine"))

	w.Register("10.0.0.5", time.Second)
	kind, err := r.OnMessage(ingest.Source{Addr: "10.0.0.5"}, []byte("other;register!"))

	assert.Equal(t, ingest.KindDropped, kind)
	assert.True(t, errors.HasCode(err, ingest.ErrForeignProduct))
	assert.Equal(t, 1, w.Pending())
	assert.Equal(t, "mine", r.ProductID())
}

func TestPausedSessionCountsRejected(t *testing.T) {
	reg := session.NewRegistry(16)
	r := ingest.NewRouter(reg)
	src := ingest.Source{Addr: "10.0.0.5"}

	_, err := r.OnMessage(src, []byte(validFrame))
	require.NoError(t, err)
	require.True(t, reg.Current().TogglePause())

	_, err = r.OnMessage(src, []byte(validFrame))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Current().Len())
	assert.Equal(t, uint64(1), r.Counters().Rejected)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "10.0.0.5:7001", ingest.Source{Addr: "10.0.0.5", Port: 7001}.String())
	assert.Equal(t, "control", ingest.KindControl.String())
}
