package device

import "sync"

// handleTable maps opaque integer handles to driver-owned objects so that
// nothing outside a driver ever holds a raw device pointer.
type handleTable[T any] struct {
	mu    sync.Mutex
	next  uintptr
	items map[uintptr]T
}

func newHandleTable[T any]() *handleTable[T] {
	return &handleTable[T]{items: make(map[uintptr]T)}
}

func (t *handleTable[T]) put(v T) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *handleTable[T]) get(id uintptr) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	return v, ok
}

func (t *handleTable[T]) remove(id uintptr) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	return v, ok
}

func (t *handleTable[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
