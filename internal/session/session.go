package session

import (
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/ring"
	"codeberg.org/mutker/perfscope/internal/telemetry"
)

// DefaultCapacity is the number of frames kept per device.
const DefaultCapacity = 1600

// NoCursor is the cursor position meaning "no inspection cursor".
const NoCursor = -1

// View is the view state of a session as seen by the renderer.
type View struct {
	Address     string
	Paused      bool
	ActiveField telemetry.FieldKey
	Cursor      int
}

// HasActiveField reports whether some series is highlighted.
func (v View) HasActiveField() bool {
	return v.ActiveField != ""
}

// Session holds the buffered history of one device plus its view state.
type Session struct {
	address string
	now     func() time.Time

	mu          sync.RWMutex
	frames      *ring.Buffer[telemetry.Frame]
	paused      bool
	activeField telemetry.FieldKey
	cursor      int
	dirty       bool
	lastUpdate  time.Time
}

// New creates an empty session for address.
func New(address string, capacity int) *Session {
	return newSession(address, capacity, time.Now)
}

func newSession(address string, capacity int, now func() time.Time) *Session {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Session{
		address: address,
		now:     now,
		frames:  ring.New[telemetry.Frame](capacity),
		cursor:  NoCursor,
		dirty:   true,
	}
}

func (s *Session) Address() string {
	return s.address
}

// Push records f unless the session is paused. The update time is refreshed
// either way.
func (s *Session) Push(f telemetry.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUpdate = s.now()
	if s.paused {
		return false
	}

	s.frames.Push(f)
	s.dirty = true

	return true
}

func (s *Session) SetActiveField(key telemetry.FieldKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeField = key
	s.dirty = true
}

func (s *Session) ClearActiveField() {
	s.SetActiveField("")
}

// SetCursor moves the inspection cursor to pixel column x. NoCursor hides it.
func (s *Session) SetCursor(x int) {
	if x < 0 {
		x = NoCursor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor = x
	s.dirty = true
}

// TogglePause flips the pause flag and returns the new value. Only future
// ingestion changes, so the view is not marked dirty.
func (s *Session) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = !s.paused

	return s.paused
}

func (s *Session) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.paused
}

// Reset drops the history and restores the initial view state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames.Reset()
	s.activeField = ""
	s.paused = false
	s.cursor = NoCursor
	s.dirty = true
}

// Dirty reports whether anything visible changed since MarkClean.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

// MarkDirty forces the next render tick to redraw, e.g. after a resize.
func (s *Session) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
}

func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = false
}

// Len returns the number of buffered frames.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.frames.Len()
}

// Latest returns the newest buffered frame.
func (s *Session) Latest() (telemetry.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.frames.Last()
}

// LastUpdate returns when the last frame arrived, paused or not.
func (s *Session) LastUpdate() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastUpdate, !s.lastUpdate.IsZero()
}

// Freshness buckets the time since the last frame.
func (s *Session) Freshness(now time.Time) Freshness {
	last, ok := s.LastUpdate()
	if !ok {
		return FreshnessUnknown
	}

	return FreshnessOf(now.Sub(last))
}

// Read calls fn with the frame buffer and the view state under the read
// lock. fn must not retain frames or call back into the session.
func (s *Session) Read(fn func(frames *ring.Buffer[telemetry.Frame], view View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.frames, s.view())
}

// View returns a copy of the view state.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.view()
}

func (s *Session) view() View {
	return View{
		Address:     s.address,
		Paused:      s.paused,
		ActiveField: s.activeField,
		Cursor:      s.cursor,
	}
}
