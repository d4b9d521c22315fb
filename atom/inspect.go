package atom

// Len reports how many records the store holds.
func (s *Store) Len() int {
	s.lock()
	defer s.unlock()
	return len(s.records)
}

func (s *Store) IsMounted(sig Signal) bool {
	s.lock()
	defer s.unlock()
	rec, ok := s.records[sig.ID()]
	return ok && rec.mounted != nil
}

// Epoch reports the current epoch of sig, and false if the store has no
// record of it yet.
func (s *Store) Epoch(sig Signal) (int, bool) {
	s.lock()
	defer s.unlock()
	rec, ok := s.records[sig.ID()]
	if !ok {
		return 0, false
	}
	return rec.epoch, true
}

// Dependencies lists what the last evaluation of a computed read, in read
// order.
func (s *Store) Dependencies(sig Signal) []Signal {
	s.lock()
	defer s.unlock()
	rec, ok := s.records[sig.ID()]
	if !ok {
		return nil
	}
	return depSignals(rec.deps)
}

// ReadDependents lists the mounted computeds reading sig.
func (s *Store) ReadDependents(sig Signal) []Signal {
	s.lock()
	defer s.unlock()
	rec, ok := s.records[sig.ID()]
	if !ok || rec.mounted == nil {
		return nil
	}
	readDepts := rec.mounted.readDepts.slice()
	out := make([]Signal, len(readDepts))
	for i, c := range readDepts {
		out[i] = c
	}
	return out
}

func (s *Store) Listeners(sig Signal) []Callback {
	s.lock()
	defer s.unlock()
	rec, ok := s.records[sig.ID()]
	if !ok || rec.mounted == nil {
		return nil
	}
	return rec.mounted.listeners.slice()
}
