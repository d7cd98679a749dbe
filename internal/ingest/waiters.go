package ingest

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
)

// Waiters tracks callers blocked on a device handshake. Each waiter gets
// exactly one outcome: true when a matching register message arrives, false
// when its own timeout fires first. A timeout never affects other waiters.
type Waiters struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]*waiter
}

type waiter struct {
	addr  string
	ch    chan bool
	timer *time.Timer
}

func NewWaiters() *Waiters {
	return &Waiters{pending: make(map[uint64]*waiter)}
}

// Register adds a waiter for addr. The returned channel receives one value
// and is then closed.
func (w *Waiters) Register(addr string, timeout time.Duration) <-chan bool {
	_, ch := w.register(addr, timeout)
	return ch
}

func (w *Waiters) register(addr string, timeout time.Duration) (uint64, <-chan bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	id := w.next
	wt := &waiter{addr: addr, ch: make(chan bool, 1)}
	wt.timer = time.AfterFunc(timeout, func() {
		w.finish(id, false)
	})
	w.pending[id] = wt

	return id, wt.ch
}

// finish delivers ok to the waiter if it is still pending.
func (w *Waiters) finish(id uint64, ok bool) bool {
	w.mu.Lock()
	wt, found := w.pending[id]
	if found {
		delete(w.pending, id)
	}
	w.mu.Unlock()

	if !found {
		return false
	}

	wt.timer.Stop()
	wt.ch <- ok
	close(wt.ch)

	return true
}

// Resolve succeeds every waiter pending on addr and returns how many there
// were.
func (w *Waiters) Resolve(addr string) int {
	w.mu.Lock()
	var done []*waiter
	for id, wt := range w.pending {
		if wt.addr == addr {
			delete(w.pending, id)
			done = append(done, wt)
		}
	}
	w.mu.Unlock()

	for _, wt := range done {
		wt.timer.Stop()
		wt.ch <- true
		close(wt.ch)
	}

	return len(done)
}

func (w *Waiters) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.pending)
}

// Wait blocks until addr registers, the timeout elapses or ctx is done.
func (w *Waiters) Wait(ctx context.Context, addr string, timeout time.Duration) error {
	errFactory := errors.New()

	id, ch := w.register(addr, timeout)
	select {
	case ok := <-ch:
		if !ok {
			return errFactory.WithData(ErrHandshakeTimeout, addr)
		}
		return nil
	case <-ctx.Done():
		if w.finish(id, false) {
			return errFactory.Wrap(ErrHandshakeCanceled, ctx.Err())
		}
		// resolved concurrently with cancellation
		if <-ch {
			return nil
		}
		return errFactory.WithData(ErrHandshakeTimeout, addr)
	}
}
