package session

import "time"

// Freshness describes how recently a device sent data.
type Freshness int

const (
	FreshnessUnknown Freshness = iota
	FreshnessFresh
	FreshnessStale
	FreshnessVeryStale
)

const (
	freshLimit     = 2 * time.Second
	staleLimit     = 60 * time.Second
	veryStaleLimit = time.Hour
)

// FreshnessOf buckets an age into fresh (<2s), stale (<60s), very stale
// (<1h) or unknown.
func FreshnessOf(age time.Duration) Freshness {
	switch {
	case age < 0:
		return FreshnessFresh
	case age < freshLimit:
		return FreshnessFresh
	case age < staleLimit:
		return FreshnessStale
	case age < veryStaleLimit:
		return FreshnessVeryStale
	default:
		return FreshnessUnknown
	}
}

func (f Freshness) String() string {
	switch f {
	case FreshnessFresh:
		return "fresh"
	case FreshnessStale:
		return "stale"
	case FreshnessVeryStale:
		return "very stale"
	default:
		return "unknown"
	}
}
