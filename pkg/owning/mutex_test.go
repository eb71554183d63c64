package owning

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type counter struct {
	n int
}

func TestLockGivesAccess(t *testing.T) {
	m := New(counter{n: 41})

	g := m.Lock()
	g.Get().n++
	g.Unlock()

	g = m.Lock()
	defer g.Unlock()
	if got := g.Get().n; got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
}

func TestTryLock(t *testing.T) {
	t.Run("Free", func(t *testing.T) {
		m := New(counter{})
		g, ok := m.TryLock()
		if !ok {
			t.Fatal("TryLock on a free mutex should succeed")
		}
		if !g.Held() {
			t.Error("Guard should report held")
		}
		g.Unlock()
		if g.Held() {
			t.Error("Guard should not report held after Unlock")
		}
	})

	t.Run("Held", func(t *testing.T) {
		m := New(counter{})
		g := m.Lock()
		defer g.Unlock()

		other, ok := m.TryLock()
		if ok {
			t.Fatal("TryLock on a held mutex should fail")
		}
		if other.Held() {
			t.Error("Failed TryLock should return an empty guard")
		}
	})

	t.Run("AvailableAfterUnlock", func(t *testing.T) {
		m := New(counter{})
		g := m.Lock()
		g.Unlock()
		g2, ok := m.TryLock()
		if !ok {
			t.Fatal("Mutex should be available after Unlock")
		}
		g2.Unlock()
	})
}

func TestTryLockDoesNotBlock(t *testing.T) {
	m := New(counter{})
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		g := m.Lock()
		close(held)
		<-release
		g.Unlock()
	}()
	<-held
	defer close(release)

	done := make(chan bool, 1)
	go func() {
		_, ok := m.TryLock()
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("TryLock should report unavailable while held")
		}
	case <-time.After(time.Second):
		t.Fatal("TryLock blocked while the mutex was held")
	}
}

func TestGuardMisuse(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"GetAfterUnlock", func() {
			g := New(counter{}).Lock()
			g.Unlock()
			g.Get()
		}},
		{"DoubleUnlock", func() {
			g := New(counter{}).Lock()
			g.Unlock()
			g.Unlock()
		}},
		{"CopiedGuard", func() {
			g := New(counter{}).Lock()
			stale := g
			g.Unlock()
			stale.Get()
		}},
		{"CopiedGuardUnlock", func() {
			g := New(counter{}).Lock()
			stale := g
			g.Unlock()
			stale.Unlock()
		}},
		{"ZeroGuard", func() {
			var g Guard[counter]
			g.Get()
		}},
		{"FailedTryLock", func() {
			m := New(counter{})
			held := m.Lock()
			defer held.Unlock()
			g, _ := m.TryLock()
			g.Get()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected panic")
				}
			}()
			tt.fn()
		})
	}
}

// A copy kept across Unlock must not release a later holder's lock.
func TestCopiedGuardCannotReleaseNextHolder(t *testing.T) {
	m := New(counter{})
	g := m.Lock()
	stale := g
	g.Unlock()
	if stale.Held() {
		t.Fatal("Copy of a released guard should not report held")
	}

	next, ok := m.TryLock()
	if !ok {
		t.Fatal("TryLock after Unlock should succeed")
	}
	defer next.Unlock()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Unlock through a stale copy should panic")
			}
		}()
		stale.Unlock()
	}()

	if !next.Held() {
		t.Error("Current guard should still be held")
	}
	if third, ok := m.TryLock(); ok {
		third.Unlock()
		t.Fatal("Mutex was released by a stale copy")
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	m := New(counter{})

	func() {
		defer func() { _ = recover() }()
		m.With(func(c *counter) {
			c.n = 7
			panic("engine failure")
		})
	}()

	g, ok := m.TryLock()
	if !ok {
		t.Fatal("Mutex should be released after a panic inside With")
	}
	defer g.Unlock()
	if g.Get().n != 7 {
		t.Errorf("Expected mutation before panic to persist, got %d", g.Get().n)
	}
}

func TestTryWith(t *testing.T) {
	m := New(counter{})

	if !m.TryWith(func(c *counter) { c.n++ }) {
		t.Fatal("TryWith on a free mutex should run")
	}

	g := m.Lock()
	ran := false
	if m.TryWith(func(*counter) { ran = true }) {
		t.Error("TryWith on a held mutex should report false")
	}
	if ran {
		t.Error("TryWith should not call fn when unavailable")
	}
	g.Unlock()

	m.With(func(c *counter) {
		if c.n != 1 {
			t.Errorf("Expected 1, got %d", c.n)
		}
	})
}

// Two goroutines hammer the mutex with a mix of blocking and non-blocking
// acquisitions. At no point may two guards be live at once.
func TestExclusivity(t *testing.T) {
	m := New(counter{})
	var live, maxLive atomic.Int32
	var acquired atomic.Int64

	enter := func(c *counter) {
		if n := live.Add(1); n > maxLive.Load() {
			maxLive.Store(n)
		}
		c.n++
		acquired.Add(1)
		live.Add(-1)
	}

	const iterations = 20000
	var wg sync.WaitGroup
	wg.Add(2)

	// Control side: always blocks.
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			g := m.Lock()
			enter(g.Get())
			g.Unlock()
		}
	}()

	// Realtime side: alternates TryLock and TryWith.
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if i%2 == 0 {
				if g, ok := m.TryLock(); ok {
					enter(g.Get())
					g.Unlock()
				}
			} else {
				m.TryWith(enter)
			}
		}
	}()

	wg.Wait()

	if maxLive.Load() > 1 {
		t.Fatalf("Observed %d simultaneous guards", maxLive.Load())
	}
	m.With(func(c *counter) {
		if int64(c.n) != acquired.Load() {
			t.Errorf("Lost updates: counter %d, acquisitions %d", c.n, acquired.Load())
		}
	})
}

func TestTryLockAllocations(t *testing.T) {
	m := New(counter{})
	allocs := testing.AllocsPerRun(100, func() {
		if g, ok := m.TryLock(); ok {
			g.Get().n++
			g.Unlock()
		}
	})
	if allocs != 0 {
		t.Errorf("TryLock allocated %.1f times per run", allocs)
	}
}

func BenchmarkTryLock(b *testing.B) {
	m := New(counter{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if g, ok := m.TryLock(); ok {
			g.Get().n++
			g.Unlock()
		}
	}
}
