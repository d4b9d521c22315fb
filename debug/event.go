package debug

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/delaneyj/ripple/atom"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Phase uint8

const (
	PhaseBegin Phase = iota + 1
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseBegin:
		return "begin"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// StoreEvent is emitted twice per intercepted operation: once on begin, and
// once on success or error. Both share an ID.
type StoreEvent struct {
	ID     uint64
	Op     atom.Op
	Phase  Phase
	Signal atom.Signal
	Label  string
	Time   time.Time
	Args   []any
	Result any
	Err    error
}

// EventInterceptor fans intercepted operations out to subscribers. Handlers
// run synchronously inside the store and must not write to it.
type EventInterceptor struct {
	lastEvent atomic.Uint64

	mu       sync.RWMutex
	lastSub  int
	handlers *orderedmap.OrderedMap[int, func(StoreEvent)]
}

func NewEventInterceptor() *EventInterceptor {
	return &EventInterceptor{
		handlers: orderedmap.New[int, func(StoreEvent)](),
	}
}

// Subscribe registers fn and returns a func removing it.
func (ei *EventInterceptor) Subscribe(fn func(StoreEvent)) func() {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	ei.lastSub++
	id := ei.lastSub
	ei.handlers.Set(id, fn)
	return func() {
		ei.mu.Lock()
		defer ei.mu.Unlock()
		ei.handlers.Delete(id)
	}
}

func (ei *EventInterceptor) emit(ev StoreEvent) {
	ei.mu.RLock()
	fns := make([]func(StoreEvent), 0, ei.handlers.Len())
	for p := ei.handlers.Oldest(); p != nil; p = p.Next() {
		fns = append(fns, p.Value)
	}
	ei.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Interceptor hooks ei into every op, or just ops when given.
func (ei *EventInterceptor) Interceptor(ops ...atom.Op) *atom.Interceptor {
	return atom.Intercept(func(ev *atom.Event, next atom.Next) {
		id := ei.lastEvent.Add(1)
		sig := ev.Signal
		base := StoreEvent{
			ID:     id,
			Op:     ev.Op,
			Signal: sig,
			Label:  atom.LabelOf(sig),
			Args:   ev.Args,
		}

		begin := base
		begin.Phase = PhaseBegin
		begin.Time = time.Now()
		ei.emit(begin)

		v, err := next()

		end := base
		end.Time = time.Now()
		end.Result = v
		end.Err = err
		end.Phase = PhaseSuccess
		if err != nil {
			end.Phase = PhaseError
		}
		ei.emit(end)
	}, ops...)
}
