package atom

import (
	"context"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AbortSignal is a one-shot cancellation token. Abort listeners run
// synchronously, in registration order, on the goroutine that aborts.
// It satisfies context.Context so it can be handed to I/O directly.
type AbortSignal struct {
	mu        sync.Mutex
	done      chan struct{}
	reason    error
	lastID    int
	listeners *orderedmap.OrderedMap[int, func()]
}

var _ context.Context = (*AbortSignal)(nil)

func newAbortSignal() *AbortSignal {
	return &AbortSignal{
		done:      make(chan struct{}),
		listeners: orderedmap.New[int, func()](),
	}
}

func (s *AbortSignal) Aborted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason is nil until aborted.
func (s *AbortSignal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Check returns the abort reason once aborted.
func (s *AbortSignal) Check() error {
	if !s.Aborted() {
		return nil
	}
	return s.Reason()
}

// OnAbort registers fn. If the signal already fired fn runs immediately.
// stop unregisters fn and reports whether it was still pending.
func (s *AbortSignal) OnAbort(fn func()) (stop func() bool) {
	s.mu.Lock()
	if s.reason != nil {
		s.mu.Unlock()
		fn()
		return func() bool { return false }
	}
	s.lastID++
	id := s.lastID
	s.listeners.Set(id, fn)
	s.mu.Unlock()

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.listeners.Delete(id)
		return ok
	}
}

func (s *AbortSignal) abort(reason error) {
	if reason == nil {
		reason = ErrAborted
	}

	s.mu.Lock()
	if s.reason != nil {
		s.mu.Unlock()
		return
	}
	s.reason = reason
	close(s.done)
	fns := make([]func(), 0, s.listeners.Len())
	for p := s.listeners.Oldest(); p != nil; p = p.Next() {
		fns = append(fns, p.Value)
	}
	s.listeners = orderedmap.New[int, func()]()
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *AbortSignal) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

func (s *AbortSignal) Done() <-chan struct{} {
	return s.done
}

func (s *AbortSignal) Err() error {
	if s.Aborted() {
		return context.Canceled
	}
	return nil
}

func (s *AbortSignal) Value(any) any {
	return nil
}

type AbortController struct {
	signal *AbortSignal
}

func NewAbortController() *AbortController {
	return &AbortController{signal: newAbortSignal()}
}

func (c *AbortController) Signal() *AbortSignal {
	return c.signal
}

// Abort fires the signal. Subsequent calls are no-ops.
func (c *AbortController) Abort(reason error) {
	c.signal.abort(reason)
}

// AnySignal fires when any of signals fires, carrying that signal's reason.
// Nil entries are ignored.
func AnySignal(signals ...*AbortSignal) *AbortSignal {
	out := newAbortSignal()
	for _, sig := range signals {
		if sig != nil && sig.Aborted() {
			out.abort(sig.Reason())
			return out
		}
	}
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		src := sig
		src.OnAbort(func() {
			out.abort(src.Reason())
		})
	}
	return out
}
