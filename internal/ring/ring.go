// Package ring provides a fixed-capacity circular buffer used to hold the
// most recent telemetry frames of a device.
package ring

// Buffer keeps the last Cap() pushed items. Once full, every Push evicts the
// oldest item. It is not safe for concurrent use.
type Buffer[T any] struct {
	items  []T
	cursor int
	size   int
}

// New returns an empty buffer holding at most capacity items.
// It panics if capacity is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}

	return &Buffer[T]{items: make([]T, capacity)}
}

// Push stores item as the newest element.
func (b *Buffer[T]) Push(item T) {
	b.items[b.cursor] = item
	b.cursor = (b.cursor + 1) % len(b.items)
	if b.size < len(b.items) {
		b.size++
	}
}

// Len returns min(Cap(), number of pushes since the last Reset).
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Last returns the most recently pushed item.
func (b *Buffer[T]) Last() (T, bool) {
	return b.Back(0)
}

// Back returns the item k pushes older than the newest one; k=0 is the
// newest. ok is false when k is outside [0, Len()).
func (b *Buffer[T]) Back(k int) (item T, ok bool) {
	if k < 0 || k >= b.size {
		return item, false
	}

	return b.items[b.index(k)], true
}

func (b *Buffer[T]) index(age int) int {
	n := len(b.items)
	return ((b.cursor-1-age)%n + n) % n
}

// Reset drops all items. Capacity is unchanged.
func (b *Buffer[T]) Reset() {
	clear(b.items)
	b.cursor = 0
	b.size = 0
}

// MapTail applies fn to the last min(k, Len()) items in oldest-to-newest
// order. Items for which fn fails are left out of the result and counted
// in skipped.
func MapTail[T, V any](b *Buffer[T], k int, fn func(T) (V, error)) (values []V, skipped int) {
	if k > b.size {
		k = b.size
	}
	if k <= 0 {
		return nil, 0
	}

	values = make([]V, 0, k)
	for age := k - 1; age >= 0; age-- {
		v, err := fn(b.items[b.index(age)])
		if err != nil {
			skipped++
			continue
		}
		values = append(values, v)
	}

	return values, skipped
}

// MapAll is MapTail over every stored item.
func MapAll[T, V any](b *Buffer[T], fn func(T) (V, error)) ([]V, int) {
	return MapTail(b, b.size, fn)
}
