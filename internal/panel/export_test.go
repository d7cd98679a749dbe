package panel

import "time"

func WithClock(now func() time.Time) Option {
	return withClock(now)
}
