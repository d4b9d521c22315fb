package debug

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/ripple/atom"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Store adds graph inspection to an atom.Store. Subscriptions made through
// it are counted so the subscribe graph can be listed.
type Store struct {
	*atom.Store

	mu     sync.Mutex
	counts *orderedmap.OrderedMap[atom.Signal, int]
}

func NewStore(opts ...atom.StoreOption) *Store {
	return Wrap(atom.NewStore(opts...))
}

func Wrap(s *atom.Store) *Store {
	return &Store{
		Store:  s,
		counts: orderedmap.New[atom.Signal, int](),
	}
}

func (d *Store) Sub(targets []atom.Signal, cb atom.Callback, opts ...atom.CallOption) func() {
	unsub := d.Store.Sub(targets, cb, opts...)

	d.mu.Lock()
	for _, t := range targets {
		n, _ := d.counts.Get(t)
		d.counts.Set(t, n+1)
	}
	d.mu.Unlock()

	var once sync.Once
	decount := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for _, t := range targets {
				n, ok := d.counts.Get(t)
				if !ok {
					continue
				}
				if n <= 1 {
					d.counts.Delete(t)
					continue
				}
				d.counts.Set(t, n-1)
			}
		})
	}

	if sig := atom.ResolveCallOptions(opts...).Signal; sig != nil {
		sig.OnAbort(decount)
	}
	return func() {
		unsub()
		decount()
	}
}

// SubscribeGraph lists every subscribed signal followed by its listeners.
func (d *Store) SubscribeGraph() [][]atom.Signal {
	d.mu.Lock()
	targets := make([]atom.Signal, 0, d.counts.Len())
	for p := d.counts.Oldest(); p != nil; p = p.Next() {
		targets = append(targets, p.Key)
	}
	d.mu.Unlock()

	out := make([][]atom.Signal, 0, len(targets))
	for _, t := range targets {
		row := []atom.Signal{t}
		for _, l := range d.Listeners(t) {
			row = append(row, l)
		}
		out = append(out, row)
	}
	return out
}

// ReadDependencies evaluates sig if needed and returns the tree of what it
// reads.
func (d *Store) ReadDependencies(sig atom.Signal) Nested {
	if sig.Kind() == atom.KindComputed {
		_, _ = d.Get(sig)
	}
	n := Nested{Signal: sig}
	for _, dep := range d.Dependencies(sig) {
		n.Children = append(n.Children, d.ReadDependencies(dep))
	}
	return n
}

// ReadDependents returns the tree of mounted computeds reading sig.
func (d *Store) ReadDependents(sig atom.Signal) Nested {
	n := Nested{Signal: sig}
	for _, dep := range d.Store.ReadDependents(sig) {
		n.Children = append(n.Children, d.ReadDependents(dep))
	}
	return n
}

// Edge is one hop of a propagation: signal to reader, or signal to listener.
type Edge struct {
	From atom.Signal
	To   atom.Signal
}

const maxPredictRounds = 10

// PredictPropagationGraph lists the edges a write to sig would travel if
// every computed changed. It stops after a fixed number of rounds.
func (d *Store) PredictPropagationGraph(sig atom.Signal) []Edge {
	var result []Edge
	visited := mapset.NewThreadUnsafeSet[uint64]()
	queue := []atom.Signal{sig}

	for rounds := 0; len(queue) > 0; rounds++ {
		if rounds > maxPredictRounds {
			return result
		}
		var next []atom.Signal
		for _, s := range queue {
			if !visited.Add(s.ID()) {
				continue
			}
			if !d.IsMounted(s) {
				continue
			}
			for _, l := range d.Listeners(s) {
				result = append(result, Edge{From: s, To: l})
			}
			for _, r := range d.Store.ReadDependents(s) {
				result = append(result, Edge{From: s, To: r})
				next = append(next, r)
			}
		}
		queue = next
	}
	return result
}
