// Package ring provides a fixed-capacity, concurrency-safe ring of recent items.
package ring

import "sync"

// Ring keeps the most recent items up to its capacity, dropping the oldest.
type Ring[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	count int
}

// New creates a ring holding at most capacity items. Capacity below 1 is treated as 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends an item, overwriting the oldest when full.
func (r *Ring[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next = (r.next + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

// Items returns the buffered items, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.count)
	start := (r.next - r.count + len(r.items)) % len(r.items)
	for i := 0; i < r.count; i++ {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Last returns up to n of the most recent items, oldest first.
func (r *Ring[T]) Last(n int) []T {
	all := r.Items()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
