package atom

import (
	"fmt"
	"sync"
)

// Effect runs once when mounted, with full store access and a signal that
// fires when the effect is torn down.
type Effect struct {
	base
	fn func(v Visitor, sig *AbortSignal)
}

func NewEffect(fn func(v Visitor, sig *AbortSignal), opts ...SignalOption) *Effect {
	return &Effect{base: newBase(opts), fn: fn}
}

// ExternalEffect bridges the store to an outside system. It only reads.
type ExternalEffect struct {
	base
	fn func(get Getter, opts *EffectOptions)
}

func NewExternalEffect(fn func(get Getter, opts *EffectOptions), opts ...SignalOption) *ExternalEffect {
	return &ExternalEffect{base: newBase(opts), fn: fn}
}

type EffectOptions struct {
	once   sync.Once
	own    *AbortSignal
	caller *AbortSignal
	sig    *AbortSignal
}

// Signal is composed on first use.
func (o *EffectOptions) Signal() *AbortSignal {
	o.once.Do(func() {
		o.sig = AnySignal(o.own, o.caller)
	})
	return o.sig
}

// plainGetter reads without recording dependencies.
type plainGetter struct {
	store *Store
}

func (g plainGetter) read(sig Signal) (any, error) {
	return g.store.get(sig, nil)
}

// Mount runs eff once. It fails with ErrEffectMounted while eff is still
// registered; aborting the WithSignal signal unregisters it.
func (s *Store) Mount(eff *Effect, opts ...CallOption) error {
	o := ResolveCallOptions(opts...)

	s.lock()
	defer s.unlock()

	ctrl, err := s.registerEffect(eff, LabelOf(eff), o.Signal)
	if err != nil {
		return err
	}
	eff.fn(s, AnySignal(ctrl.Signal(), o.Signal))
	return nil
}

// SyncExternal runs eff once under the same registration rules as Mount.
func (s *Store) SyncExternal(eff *ExternalEffect, opts ...CallOption) error {
	o := ResolveCallOptions(opts...)

	s.lock()
	defer s.unlock()

	ctrl, err := s.registerEffect(eff, LabelOf(eff), o.Signal)
	if err != nil {
		return err
	}
	eff.fn(plainGetter{store: s}, &EffectOptions{own: ctrl.Signal(), caller: o.Signal})
	return nil
}

func (s *Store) registerEffect(key any, label string, caller *AbortSignal) (*AbortController, error) {
	if _, ok := s.effects[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrEffectMounted, label)
	}
	ctrl := NewAbortController()
	s.effects[key] = ctrl

	if caller != nil {
		caller.OnAbort(func() {
			s.lock()
			if s.effects[key] == ctrl {
				delete(s.effects, key)
			}
			s.unlock()
			ctrl.Abort(caller.Reason())
		})
	}
	return ctrl, nil
}
