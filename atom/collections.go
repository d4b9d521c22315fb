package atom

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// orderedSet iterates in insertion order. Re-adding keeps the original slot.
type orderedSet[T comparable] struct {
	m *orderedmap.OrderedMap[T, struct{}]
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{m: orderedmap.New[T, struct{}]()}
}

func (s *orderedSet[T]) add(v T) bool {
	_, present := s.m.Set(v, struct{}{})
	return !present
}

func (s *orderedSet[T]) remove(v T) bool {
	_, present := s.m.Delete(v)
	return present
}

func (s *orderedSet[T]) has(v T) bool {
	_, ok := s.m.Get(v)
	return ok
}

func (s *orderedSet[T]) len() int {
	return s.m.Len()
}

// slice snapshots the members so callers may mutate the set while iterating.
func (s *orderedSet[T]) slice() []T {
	out := make([]T, 0, s.m.Len())
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

type depEntry struct {
	sig   Signal
	epoch int
}

type depMap = orderedmap.OrderedMap[Signal, int]

func newDepMap() *depMap {
	return orderedmap.New[Signal, int]()
}

func depEntries(deps *depMap) []depEntry {
	if deps == nil {
		return nil
	}
	out := make([]depEntry, 0, deps.Len())
	for p := deps.Oldest(); p != nil; p = p.Next() {
		out = append(out, depEntry{sig: p.Key, epoch: p.Value})
	}
	return out
}

func depSignals(deps *depMap) []Signal {
	if deps == nil {
		return nil
	}
	out := make([]Signal, 0, deps.Len())
	for p := deps.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}
