package addressbook

import "time"

// Store keeps the recently seen device addresses. Entries are listed most
// recently active first and the store never holds more than its limit.
type Store interface {
	List() ([]Entry, error)
	Find(addr string) (Entry, bool, error)
	// Touch adds addr or refreshes its activity time. A non-empty info
	// replaces the stored one.
	Touch(addr, info string) (Entry, error)
	Delete(id int64) error
	Close() error
}

// Entry is one remembered device.
type Entry struct {
	ID        int64
	Addr      string
	Name      string
	Info      string
	ActiveAt  time.Time
	CreatedAt time.Time
}
