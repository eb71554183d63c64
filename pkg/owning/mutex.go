// Package owning provides a mutex that owns the value it protects.
//
// A Mutex holds its value by composition, so the only way to reach the value
// is through a Guard obtained by locking. This is the access discipline used
// between a realtime audio callback and the control thread: the control side
// calls Lock and may block, the realtime side calls TryLock and never does.
//
//	m := owning.New(state{})
//	if g, ok := m.TryLock(); ok {
//		defer g.Unlock()
//		g.Get().process()
//	}
//
// Go cannot stop a caller from copying the *T returned by Guard.Get out of
// the locked region. Don't: the pointer is only valid until Unlock.
package owning

import (
	"sync"
	"sync/atomic"
)

// Mutex is a mutual exclusion lock that owns a value of type T.
//
// Mutex must be created with New and must not be copied after first use.
type Mutex[T any] struct {
	mu    sync.Mutex
	value T

	// gen advances on every Unlock. A Guard is valid only while its gen
	// matches, so copies of a released Guard are dead too.
	gen atomic.Uint64
}

// New returns a Mutex that takes ownership of value.
func New[T any](value T) *Mutex[T] {
	return &Mutex[T]{value: value}
}

// Lock blocks until no other Guard is outstanding and returns one.
// It never fails.
func (m *Mutex[T]) Lock() Guard[T] {
	m.mu.Lock()
	return Guard[T]{m: m, gen: m.gen.Load()}
}

// TryLock acquires the lock if it is free and reports whether it did.
// It does not spin, wait or allocate, so it is safe on a realtime thread.
func (m *Mutex[T]) TryLock() (Guard[T], bool) {
	if !m.mu.TryLock() {
		return Guard[T]{}, false
	}
	return Guard[T]{m: m, gen: m.gen.Load()}, true
}

// With locks m, calls fn with the owned value and unlocks, also when fn
// panics.
func (m *Mutex[T]) With(fn func(v *T)) {
	g := m.Lock()
	defer g.Unlock()
	fn(g.Get())
}

// TryWith is the non-blocking form of With. It reports false without
// calling fn if the lock is held elsewhere.
func (m *Mutex[T]) TryWith(fn func(v *T)) bool {
	g, ok := m.TryLock()
	if !ok {
		return false
	}
	defer g.Unlock()
	fn(g.Get())
	return true
}

// Guard grants exclusive access to the value owned by a Mutex until Unlock
// is called. A Guard is returned by value; keep exactly one copy of it and
// release it with defer. Every copy of a Guard stops working once any of
// them is unlocked.
type Guard[T any] struct {
	m   *Mutex[T]
	gen uint64
}

// live reports whether g belongs to the current lock generation.
func (g *Guard[T]) live() bool {
	return g.m != nil && g.m.gen.Load() == g.gen
}

// Get returns the guarded value. It panics if the guard was already
// released or never acquired.
func (g *Guard[T]) Get() *T {
	if !g.live() {
		panic("owning: use of released guard")
	}
	return &g.m.value
}

// Held reports whether g still holds its lock.
func (g *Guard[T]) Held() bool {
	return g.live()
}

// Unlock releases the lock. Unlocking a released guard panics.
func (g *Guard[T]) Unlock() {
	if !g.live() {
		panic("owning: unlock of released guard")
	}
	m := g.m
	g.m = nil
	m.gen.Add(1)
	m.mu.Unlock()
}
