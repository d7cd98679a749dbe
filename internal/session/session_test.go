package session_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/perfscope/internal/ring"
	"codeberg.org/mutker/perfscope/internal/session"
	"codeberg.org/mutker/perfscope/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func frame(ft float64) telemetry.Frame {
	return telemetry.Frame{FrameTime: ft}
}

func TestPushRecordsAndMarksDirty(t *testing.T) {
	clock := newClock()
	s := session.NewWithClock("10.0.0.5", 4, clock.Now)
	s.MarkClean()

	_, ok := s.LastUpdate()
	assert.False(t, ok)

	assert.True(t, s.Push(frame(1)))
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, s.Len())

	last, ok := s.LastUpdate()
	require.True(t, ok)
	assert.Equal(t, clock.t, last)
}

func TestPausedPushDropsFrameButRefreshesUpdate(t *testing.T) {
	clock := newClock()
	s := session.NewWithClock("10.0.0.5", 4, clock.Now)
	s.Push(frame(1))
	s.MarkClean()

	assert.True(t, s.TogglePause())
	assert.False(t, s.Dirty(), "pausing does not change the view")

	clock.Advance(3 * time.Second)
	assert.False(t, s.Push(frame(2)))
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Dirty())

	last, _ := s.LastUpdate()
	assert.Equal(t, clock.t, last)

	assert.False(t, s.TogglePause())
	assert.True(t, s.Push(frame(3)))
	assert.Equal(t, []float64{1, 3}, s.FrameTimes())
}

func TestViewStateOperations(t *testing.T) {
	s := session.New("a", 8)
	s.MarkClean()

	s.SetActiveField(telemetry.FieldGPUTime)
	assert.True(t, s.Dirty())

	s.SetCursor(120)
	s.SetCursor(120)
	s.Read(func(_ *ring.Buffer[telemetry.Frame], v session.View) {
		assert.Equal(t, telemetry.FieldGPUTime, v.ActiveField)
		assert.True(t, v.HasActiveField())
		assert.Equal(t, 120, v.Cursor)
		assert.Equal(t, "a", v.Address)
	})

	s.ClearActiveField()
	s.SetCursor(-20)
	s.Read(func(_ *ring.Buffer[telemetry.Frame], v session.View) {
		assert.False(t, v.HasActiveField())
		assert.Equal(t, session.NoCursor, v.Cursor)
	})
}

func TestResetRestoresInitialState(t *testing.T) {
	s := session.New("a", 8)
	s.Push(frame(1))
	s.Push(frame(2))
	s.SetActiveField(telemetry.FieldCPUTime)
	s.SetCursor(40)
	s.TogglePause()
	s.MarkClean()

	s.Reset()

	assert.True(t, s.Dirty())
	assert.Zero(t, s.Len())
	assert.False(t, s.Paused())
	s.Read(func(frames *ring.Buffer[telemetry.Frame], v session.View) {
		assert.Equal(t, 8, frames.Cap())
		assert.False(t, v.HasActiveField())
		assert.Equal(t, session.NoCursor, v.Cursor)
	})
}

func TestLatest(t *testing.T) {
	s := session.New("a", 2)
	_, ok := s.Latest()
	assert.False(t, ok)

	s.Push(frame(1))
	s.Push(frame(2))
	s.Push(frame(3))

	f, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 3.0, f.FrameTime)
	assert.Equal(t, 2, s.Len())
}

func TestFreshness(t *testing.T) {
	clock := newClock()
	s := session.NewWithClock("a", 2, clock.Now)
	assert.Equal(t, session.FreshnessUnknown, s.Freshness(clock.t))

	s.Push(frame(1))
	now := clock.t

	assert.Equal(t, session.FreshnessFresh, s.Freshness(now.Add(1900*time.Millisecond)))
	assert.Equal(t, session.FreshnessStale, s.Freshness(now.Add(2*time.Second)))
	assert.Equal(t, session.FreshnessStale, s.Freshness(now.Add(59*time.Second)))
	assert.Equal(t, session.FreshnessVeryStale, s.Freshness(now.Add(time.Minute)))
	assert.Equal(t, session.FreshnessVeryStale, s.Freshness(now.Add(3599*time.Second)))
	assert.Equal(t, session.FreshnessUnknown, s.Freshness(now.Add(time.Hour)))
}
