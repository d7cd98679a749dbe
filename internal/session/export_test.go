package session

import "time"

func NewWithClock(address string, capacity int, now func() time.Time) *Session {
	return newSession(address, capacity, now)
}

func NewRegistryWithClock(capacity int, now func() time.Time) *Registry {
	return newRegistry(capacity, now)
}

// FrameTimes returns the buffered frame times oldest first.
func (s *Session) FrameTimes() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []float64
	for age := s.frames.Len() - 1; age >= 0; age-- {
		f, _ := s.frames.Back(age)
		out = append(out, f.FrameTime)
	}

	return out
}
