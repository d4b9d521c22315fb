package atom

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// reentrantMutex lets listeners, commands and read functions call back into
// the store on the goroutine that already holds it. Other goroutines block.
type reentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int
}

// Lock reports whether this call took the lock rather than re-entering it.
func (m *reentrantMutex) Lock() bool {
	id := goid.Get()
	if m.owner.Load() == id {
		m.depth++
		return false
	}
	m.mu.Lock()
	m.owner.Store(id)
	m.depth = 1
	return true
}

func (m *reentrantMutex) Unlock() {
	m.depth--
	if m.depth > 0 {
		return
	}
	m.owner.Store(0)
	m.mu.Unlock()
}
