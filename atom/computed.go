package atom

import (
	"errors"
)

// ReadOptions is handed to computed read functions.
type ReadOptions struct {
	store      *Store
	rec        *record
	generation uint64
	label      string
}

// Signal returns a token aborted as soon as this evaluation is superseded by
// a newer one. A token requested after that point is already aborted.
func (o *ReadOptions) Signal() *AbortSignal {
	s := o.store
	s.lock()
	defer s.unlock()

	if o.rec.generation != o.generation {
		ctrl := NewAbortController()
		ctrl.Abort(abortedBy(o.label))
		return ctrl.Signal()
	}
	if o.rec.token == nil {
		o.rec.token = NewAbortController()
	}
	return o.rec.token.Signal()
}

// trackingGetter records what a single evaluation reads. Reads that arrive
// after the evaluation was superseded are served but not recorded.
type trackingGetter struct {
	store      *Store
	caller     computedNode
	rec        *record
	generation uint64
	mutation   *mutation
}

func (g *trackingGetter) read(dep Signal) (any, error) {
	s := g.store
	s.lock()
	defer s.unlock()

	return s.intercept(s.ic.Get, &Event{Op: OpGet, Signal: dep}, func() (any, error) {
		depRec, err := s.readSignalState(dep, g.mutation)
		if err != nil {
			return nil, err
		}
		if g.rec.generation == g.generation {
			g.rec.deps.Set(dep, depRec.epoch)
			if g.rec.mounted != nil {
				depMounted := depRec.mounted
				if depMounted == nil {
					depMounted = s.mount(dep, g.mutation)
				}
				depMounted.readDepts.add(g.caller)
			}
		}
		return depRec.val, depRec.err
	})
}

func (s *Store) readComputed(c computedNode, m *mutation) *record {
	if rec := s.tryGetCached(c, m); rec != nil {
		return rec
	}

	var rec *record
	s.intercept(s.ic.Computed, &Event{Op: OpComputed, Signal: c}, func() (any, error) {
		rec = s.evaluate(c, m)
		return rec.val, rec.err
	})
	return rec
}

// tryGetCached returns the record when it is still valid. Mounted records
// are kept current by propagation unless flagged dirty; anything else is
// validated by comparing the epochs of its recorded dependencies.
func (s *Store) tryGetCached(c computedNode, m *mutation) *record {
	rec, ok := s.records[c.ID()]
	if !ok || rec.epoch < 0 {
		return nil
	}

	mayDirty := m != nil && m.dirty.Contains(c.ID())
	if !mayDirty && rec.mounted != nil {
		return rec
	}
	if !s.checkEpoch(rec, m) {
		return nil
	}
	if mayDirty {
		m.dirty.Remove(c.ID())
	}
	return rec
}

func (s *Store) checkEpoch(rec *record, m *mutation) bool {
	for _, dep := range depEntries(rec.deps) {
		var epoch int
		switch d := dep.sig.(type) {
		case computedNode:
			epoch = s.readComputed(d, m).epoch
		default:
			depRec, ok := s.records[d.ID()]
			if !ok {
				return false
			}
			epoch = depRec.epoch
		}
		if epoch != dep.epoch {
			return false
		}
	}
	return true
}

func (s *Store) evaluate(c computedNode, m *mutation) *record {
	rec := s.computedRecord(c)
	lastDeps := rec.deps

	rec.generation++
	if rec.token != nil {
		prev := rec.token
		rec.token = nil
		prev.Abort(abortedBy(LabelOf(c)))
	}
	rec.deps = newDepMap()

	get := &trackingGetter{
		store:      s,
		caller:     c,
		rec:        rec,
		generation: rec.generation,
		mutation:   m,
	}
	opts := &ReadOptions{
		store:      s,
		rec:        rec,
		generation: rec.generation,
		label:      LabelOf(c),
	}
	val, err := callRead(c, get, opts)

	if m != nil {
		m.dirty.Remove(c.ID())
	}
	s.pruneDependencies(c, lastDeps, rec.deps, m)

	switch {
	case err != nil:
		if rec.epoch < 0 || !sameError(rec.err, err) {
			rec.val, rec.err = nil, err
			rec.epoch++
		}
	case rec.epoch < 0 || rec.err != nil || !c.equal(rec.val, val):
		rec.val, rec.err = val, nil
		rec.epoch++
	}
	return rec
}

func callRead(c computedNode, get Getter, opts *ReadOptions) (val any, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok && errors.Is(e, ErrInterceptorContract) {
			panic(r)
		}
		val, err = nil, &PanicError{Label: LabelOf(c), Value: r}
	}()
	return c.evaluate(get, opts)
}

// pruneDependencies detaches c from dependencies its latest evaluation no
// longer read.
func (s *Store) pruneDependencies(c computedNode, last, curr *depMap, m *mutation) {
	for _, dep := range depSignals(last) {
		if _, ok := curr.Get(dep); ok {
			continue
		}
		depRec, ok := s.records[dep.ID()]
		if !ok || depRec.mounted == nil {
			continue
		}
		depRec.mounted.readDepts.remove(c)
		s.tryUnmount(dep, m)
	}
}
