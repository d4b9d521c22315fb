package atom

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// mutation is one top-level write and everything nested inside it. Listeners
// queued anywhere in the batch run once, after the write that queued them.
type mutation struct {
	dirty   mapset.Set[uint64]
	pending *orderedSet[Callback]
	visitor *visitor
}

func (s *Store) newMutation() *mutation {
	m := &mutation{
		dirty:   mapset.NewThreadUnsafeSet[uint64](),
		pending: newOrderedSet[Callback](),
	}
	m.visitor = &visitor{store: s, mutation: m}
	return m
}

// visitor is what commands and listeners see. Reads observe the dirty
// markers of the running batch and writes join it.
type visitor struct {
	store    *Store
	mutation *mutation
}

func (v *visitor) read(sig Signal) (any, error) {
	return v.store.get(sig, v.mutation)
}

func (v *visitor) write(w Signal, args []any) (any, error) {
	return v.store.set(w, args, v.mutation)
}

func (s *Store) set(w Signal, args []any, m *mutation) (any, error) {
	s.lock()
	defer s.unlock()

	return s.intercept(s.ic.Set, &Event{Op: OpSet, Signal: w, Args: args}, func() (ret any, err error) {
		defer func() {
			if nerr := s.notify(m); nerr != nil {
				err = errors.Join(err, nerr)
			}
		}()
		return s.innerSet(w, args, m)
	})
}

func (s *Store) innerSet(w Signal, args []any, m *mutation) (any, error) {
	switch n := w.(type) {
	case Callback:
		return n.exec(m.visitor, args)
	case stateNode:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: state %s takes one value, got %d", ErrInvalidValue, LabelOf(w), len(args))
		}
		return nil, s.setState(n, args[0], m)
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrNotWritable, w.Kind(), LabelOf(w))
	}
}

func (s *Store) setState(st stateNode, arg any, m *mutation) error {
	rec, exists := s.records[st.ID()]
	prev := st.initial()
	if exists {
		prev = rec.val
	}

	val, err := st.next(prev, arg)
	if err != nil {
		return err
	}
	if !exists {
		rec = s.stateRecord(st)
		rec.val = val
		return nil
	}
	if st.equal(rec.val, val) {
		return nil
	}

	rec.val = val
	rec.epoch++
	s.propagate(rec, m)
	return nil
}

func (s *Store) propagate(rec *record, m *mutation) {
	if rec.mounted == nil {
		return
	}
	for _, l := range rec.mounted.listeners.slice() {
		m.pending.add(l)
	}

	roots := rec.mounted.readDepts.slice()
	if len(roots) == 0 {
		return
	}
	s.pushDirtyMarkers(roots, m)
	s.pullEvaluate(roots, m)
}

// pushDirtyMarkers flags every mounted computed reachable from roots.
func (s *Store) pushDirtyMarkers(queue []computedNode, m *mutation) {
	visited := mapset.NewThreadUnsafeSet[uint64]()
	for len(queue) > 0 {
		var next []computedNode
		for _, c := range queue {
			if !visited.Add(c.ID()) {
				continue
			}
			m.dirty.Add(c.ID())
			if rec, ok := s.records[c.ID()]; ok && rec.mounted != nil {
				next = append(next, rec.mounted.readDepts.slice()...)
			}
		}
		queue = next
	}
}

type snapshot struct {
	val any
	err error
}

// pullEvaluate re-reads the flagged computeds breadth first. A node whose
// value did not change stops the walk along its branch; a changed node
// queues its listeners and its own readers.
func (s *Store) pullEvaluate(roots []computedNode, m *mutation) {
	old := map[uint64]snapshot{}
	queue := roots
	for len(queue) > 0 {
		var next []computedNode
		for _, c := range queue {
			if _, seen := old[c.ID()]; seen {
				continue
			}
			rec, ok := s.records[c.ID()]
			if !ok {
				continue
			}
			old[c.ID()] = snapshot{val: rec.val, err: rec.err}
			if rec.mounted != nil {
				next = append(next, rec.mounted.readDepts.slice()...)
			}
		}
		queue = next
	}

	processed := mapset.NewThreadUnsafeSet[uint64]()
	queue = roots
	for len(queue) > 0 {
		var next []computedNode
		for _, c := range queue {
			if !processed.Add(c.ID()) {
				continue
			}
			rec := s.readComputed(c, m)
			if prev, ok := old[c.ID()]; ok && unchanged(c, prev, rec) {
				continue
			}
			if rec.mounted == nil {
				continue
			}
			for _, l := range rec.mounted.listeners.slice() {
				m.pending.add(l)
			}
			next = append(next, rec.mounted.readDepts.slice()...)
		}
		queue = next
	}
}

func unchanged(c computedNode, prev snapshot, rec *record) bool {
	if rec.err != nil || prev.err != nil {
		return sameError(prev.err, rec.err)
	}
	return c.equal(prev.val, rec.val)
}

// notify drains the pending listeners. The first failing listener stops the
// drain; the rest stay dropped.
func (s *Store) notify(m *mutation) error {
	if m.pending.len() == 0 {
		return nil
	}
	pending := m.pending.slice()
	m.pending = newOrderedSet[Callback]()

	for _, l := range pending {
		listener := l
		_, err := s.intercept(s.ic.Notify, &Event{Op: OpNotify, Signal: listener, Callback: listener}, func() (any, error) {
			return listener.exec(m.visitor, nil)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
