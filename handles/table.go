// Package handles maps opaque uint32 handles to native values. Host
// environments use a Table to hand host-owned objects to guests, which only
// ever see the handle; the native value never crosses the boundary.
package handles

import "sync"

// Handle identifies one table entry. 0 is never issued and means "invalid".
type Handle uint32

// Table is a handle table over values of one type. Handles are issued
// monotonically and never reused, so a stale handle cannot alias a newer
// entry. Safe for concurrent use.
type Table[T any] struct {
	mu     sync.RWMutex
	values map[Handle]T
	next   Handle
	closed bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		values: make(map[Handle]T),
	}
}

// Insert adds a value and returns its handle, or 0 if the table is closed.
func (t *Table[T]) Insert(value T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0
	}
	t.next++
	t.values[t.next] = value
	return t.next
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[h]
	return v, ok
}

// Remove drops an entry and returns its value if it existed.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[h]
	if ok {
		delete(t.values, h)
	}
	return v, ok
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Each visits every live entry until fn returns false. The table is locked
// for the duration; fn must not call back into it.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for h, v := range t.values {
		if !fn(h, v) {
			return
		}
	}
}

// Close drops every entry and stops issuing handles. Idempotent.
func (t *Table[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	clear(t.values)
}
