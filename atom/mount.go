package atom

import (
	"fmt"
)

type mounted struct {
	listeners *orderedSet[Callback]
	readDepts *orderedSet[computedNode]
}

func newMounted() *mounted {
	return &mounted{
		listeners: newOrderedSet[Callback](),
		readDepts: newOrderedSet[computedNode](),
	}
}

// mount makes sig live, evaluating it if needed and recursively mounting
// whatever it depends on.
func (s *Store) mount(sig Signal, m *mutation) *mounted {
	if rec, ok := s.records[sig.ID()]; ok && rec.mounted != nil {
		return rec.mounted
	}

	var mnt *mounted
	s.intercept(s.ic.Mount, &Event{Op: OpMount, Signal: sig}, func() (any, error) {
		rec, err := s.readSignalState(sig, m)
		if err != nil {
			panic(fmt.Errorf("mount: %w", err))
		}
		if rec.mounted == nil {
			rec.mounted = newMounted()
		}
		mnt = rec.mounted

		if c, ok := sig.(computedNode); ok {
			for _, dep := range depSignals(rec.deps) {
				s.mount(dep, m).readDepts.add(c)
			}
		}
		return nil, nil
	})
	return mnt
}

// tryUnmount tears sig down once nothing listens to or reads it.
func (s *Store) tryUnmount(sig Signal, m *mutation) {
	rec, ok := s.records[sig.ID()]
	if !ok || rec.mounted == nil {
		return
	}
	if rec.mounted.listeners.len() > 0 || rec.mounted.readDepts.len() > 0 {
		return
	}

	s.intercept(s.ic.Unmount, &Event{Op: OpUnmount, Signal: sig}, func() (any, error) {
		rec.mounted = nil

		c, ok := sig.(computedNode)
		if !ok {
			return nil, nil
		}
		for _, dep := range depSignals(rec.deps) {
			if depRec, ok := s.records[dep.ID()]; ok && depRec.mounted != nil {
				depRec.mounted.readDepts.remove(c)
			}
			s.tryUnmount(dep, m)
		}
		return nil, nil
	})
}
