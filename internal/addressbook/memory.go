package addressbook

import (
	"slices"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
)

type memoryStore struct {
	mu      sync.Mutex
	limit   int
	now     func() time.Time
	nextID  int64
	entries []Entry
}

func newMemoryStore(limit int, now func() time.Time) *memoryStore {
	return &memoryStore{limit: limit, now: now}
}

func (m *memoryStore) List() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.entries), nil
}

func (m *memoryStore) Find(addr string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.index(addr); i >= 0 {
		return m.entries[i], true, nil
	}
	return Entry{}, false, nil
}

func (m *memoryStore) Touch(addr, info string) (Entry, error) {
	if addr == "" {
		return Entry{}, errors.New().New(ErrInvalidAddr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var e Entry
	if i := m.index(addr); i >= 0 {
		e = m.entries[i]
		m.entries = slices.Delete(m.entries, i, i+1)
	} else {
		m.nextID++
		e = Entry{ID: m.nextID, Addr: addr, Name: addr, CreatedAt: now}
	}
	e.ActiveAt = now
	if info != "" {
		e.Info = info
	}

	// most recent first; the touched entry always sorts to the front
	m.entries = slices.Insert(m.entries, 0, e)
	if len(m.entries) > m.limit {
		m.entries = m.entries[:m.limit]
	}

	return e, nil
}

func (m *memoryStore) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.ID == id {
			m.entries = slices.Delete(m.entries, i, i+1)
			return nil
		}
	}

	return errors.New().WithData(ErrEntryNotFound, id)
}

func (*memoryStore) Close() error {
	return nil
}

func (m *memoryStore) index(addr string) int {
	return slices.IndexFunc(m.entries, func(e Entry) bool {
		return e.Addr == addr
	})
}
