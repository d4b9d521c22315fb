package atom

import (
	"fmt"
	"sync"
)

// CallOptions configures Sub, Mount and SyncExternal.
type CallOptions struct {
	Signal *AbortSignal
}

type CallOption func(*CallOptions)

// WithSignal ties a subscription or effect to sig. Aborting sig tears it
// down synchronously.
func WithSignal(sig *AbortSignal) CallOption {
	return func(o *CallOptions) {
		o.Signal = sig
	}
}

// ResolveCallOptions applies opts in order.
func ResolveCallOptions(opts ...CallOption) CallOptions {
	o := CallOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Sub mounts every target and runs cb whenever one of them changes. Within a
// single batch cb runs at most once. The returned func unsubscribes and may
// be called any number of times.
//
// Targets must be states or computeds; Sub panics with ErrNotReadable
// otherwise.
func (s *Store) Sub(targets []Signal, cb Callback, opts ...CallOption) func() {
	if len(targets) == 0 {
		return func() {}
	}
	for _, target := range targets {
		switch target.(type) {
		case stateNode, computedNode:
		default:
			panic(fmt.Errorf("%w: cannot subscribe to %s %s", ErrNotReadable, target.Kind(), LabelOf(target)))
		}
	}
	o := ResolveCallOptions(opts...)

	s.lock()
	defer s.unlock()

	unsubs := make([]func(), 0, len(targets))
	for _, target := range targets {
		unsubs = append(unsubs, s.subOne(target, cb))
	}

	var (
		once sync.Once
		stop func() bool
	)
	unsub := func() {
		once.Do(func() {
			if stop != nil {
				stop()
			}
			s.lock()
			defer s.unlock()
			for _, u := range unsubs {
				u()
			}
		})
	}
	if o.Signal != nil {
		stop = o.Signal.OnAbort(unsub)
	}
	return unsub
}

func (s *Store) subOne(target Signal, cb Callback) func() {
	s.intercept(s.ic.Sub, &Event{Op: OpSub, Signal: target, Callback: cb}, func() (any, error) {
		s.mount(target, nil).listeners.add(cb)
		return nil, nil
	})

	return func() {
		s.intercept(s.ic.Unsub, &Event{Op: OpUnsub, Signal: target, Callback: cb}, func() (any, error) {
			// the record may have been remounted since subscribing
			rec, ok := s.records[target.ID()]
			if !ok || rec.mounted == nil {
				return nil, nil
			}
			rec.mounted.listeners.remove(cb)
			s.tryUnmount(target, nil)
			return nil, nil
		})
	}
}
