package atom

import (
	"fmt"
	"sync"
	"weak"
)

type record struct {
	val   any
	err   error
	epoch int

	// computed only
	deps       *depMap
	generation uint64
	token      *AbortController

	mounted *mounted
}

// Store owns every record. Signals hold no state of their own, so the same
// signal can live in many stores at once.
type Store struct {
	mu      reentrantMutex
	records map[uint64]*record
	effects map[any]*AbortController
	ic      Interceptor
	self    weak.Pointer[Store]

	releasedMu sync.Mutex
	released   []uint64
}

type StoreOption func(*Store)

// WithInterceptor installs interceptors, outermost first.
func WithInterceptor(ics ...*Interceptor) StoreOption {
	return func(s *Store) {
		all := append([]*Interceptor{&s.ic}, ics...)
		s.ic = *ChainInterceptors(all...)
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		records: map[uint64]*record{},
		effects: map[any]*AbortController{},
	}
	s.self = weak.Make(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// DefaultStore is a lazily created process-wide store.
func DefaultStore() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore()
	})
	return defaultStore
}

func (s *Store) lock() {
	if s.mu.Lock() {
		s.compact()
	}
}

func (s *Store) unlock() {
	s.mu.Unlock()
}

// Get reads a state or computed from outside any command.
func (s *Store) Get(sig Signal) (any, error) {
	return s.get(sig, nil)
}

// Set writes a state or runs a command as a new top-level batch. Listeners
// run before Set returns.
func (s *Store) Set(w Signal, args ...any) (any, error) {
	return s.set(w, args, s.newMutation())
}

func (s *Store) read(sig Signal) (any, error) {
	return s.get(sig, nil)
}

func (s *Store) write(w Signal, args []any) (any, error) {
	return s.set(w, args, s.newMutation())
}

func (s *Store) get(sig Signal, m *mutation) (any, error) {
	s.lock()
	defer s.unlock()

	return s.intercept(s.ic.Get, &Event{Op: OpGet, Signal: sig}, func() (any, error) {
		rec, err := s.readSignalState(sig, m)
		if err != nil {
			return nil, err
		}
		return rec.val, rec.err
	})
}

func (s *Store) readSignalState(sig Signal, m *mutation) (*record, error) {
	switch n := sig.(type) {
	case stateNode:
		return s.stateRecord(n), nil
	case computedNode:
		return s.readComputed(n, m), nil
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrNotReadable, sig.Kind(), LabelOf(sig))
	}
}

func (s *Store) stateRecord(st stateNode) *record {
	if rec, ok := s.records[st.ID()]; ok {
		return rec
	}
	rec := &record{val: st.initial()}
	s.records[st.ID()] = rec
	st.onRelease(releaseArg{store: s.self, id: st.ID()})
	return rec
}

func (s *Store) computedRecord(c computedNode) *record {
	if rec, ok := s.records[c.ID()]; ok {
		return rec
	}
	rec := &record{epoch: -1, deps: newDepMap()}
	s.records[c.ID()] = rec
	c.onRelease(releaseArg{store: s.self, id: c.ID()})
	return rec
}

// release queues the record of a collected signal. It runs on the cleanup
// goroutine so it must not take the store lock.
func (s *Store) release(id uint64) {
	s.releasedMu.Lock()
	s.released = append(s.released, id)
	s.releasedMu.Unlock()
}

func (s *Store) compact() int {
	s.releasedMu.Lock()
	ids := s.released
	s.released = nil
	s.releasedMu.Unlock()

	for _, id := range ids {
		delete(s.records, id)
	}
	return len(ids)
}

// Compact drops the records of signals that have been garbage collected and
// reports how many were dropped. The store also compacts on every top-level
// operation.
func (s *Store) Compact() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compact()
}
