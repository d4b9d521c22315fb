package scenario

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/delaneyj/ripple/atom"
	"github.com/delaneyj/ripple/debug"
)

type StepResult struct {
	Index       int
	Action      string
	Target      string
	Value       int
	Notified    []string
	Evaluations int64
}

type Report struct {
	Name  string
	Steps []StepResult
}

// Runner replays a scenario against one store.
type Runner struct {
	graph  *Graph
	store  *debug.Store
	logger *slog.Logger

	mu       sync.Mutex
	notified []string
	unsubs   map[string]func()
}

func NewRunner(g *Graph, store *debug.Store, logger *slog.Logger) *Runner {
	return &Runner{
		graph:  g,
		store:  store,
		logger: logger,
		unsubs: map[string]func(){},
	}
}

func (r *Runner) Store() *debug.Store {
	return r.store
}

// Subscribe mounts every declared subscription. Calling it twice is a no-op
// for subscriptions already live.
func (r *Runner) Subscribe() error {
	for _, sub := range r.graph.Scenario.Subscribe {
		if _, ok := r.unsubs[sub.Name]; ok {
			continue
		}
		targets := make([]atom.Signal, 0, len(sub.Targets))
		for _, t := range sub.Targets {
			sig, err := r.graph.Signal(t)
			if err != nil {
				return err
			}
			targets = append(targets, sig)
		}
		name := sub.Name
		listener := atom.Listener(func(atom.Visitor) error {
			r.mu.Lock()
			r.notified = append(r.notified, name)
			r.mu.Unlock()
			return nil
		}, atom.WithDebugLabel(name))
		r.unsubs[name] = r.store.Sub(targets, listener)
		r.logger.Debug("subscribed", "name", name, "targets", sub.Targets)
	}
	return nil
}

// Run subscribes and then executes every step in order. It stops at the
// first failing step and returns what ran so far.
func (r *Runner) Run() (*Report, error) {
	if err := r.Subscribe(); err != nil {
		return nil, err
	}
	report := &Report{Name: r.graph.Scenario.Name}
	for i, st := range r.graph.Scenario.Steps {
		res, err := r.step(i+1, st)
		report.Steps = append(report.Steps, res)
		if err != nil {
			return report, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return report, nil
}

func (r *Runner) step(index int, st Step) (StepResult, error) {
	r.mu.Lock()
	r.notified = nil
	r.mu.Unlock()
	before := r.graph.Evaluations()

	res := StepResult{Index: index, Action: st.Action(), Target: st.Target()}
	var err error
	switch res.Action {
	case "set":
		res.Value = st.Value
		err = r.graph.States[st.Set].Set(r.store, st.Value)
	case "read":
		res.Value, err = r.graph.Readables[st.Read].Get(r.store)
	case "unsub":
		if unsub, ok := r.unsubs[st.Unsub]; ok {
			unsub()
			delete(r.unsubs, st.Unsub)
		}
	}

	r.mu.Lock()
	res.Notified = r.notified
	r.mu.Unlock()
	res.Evaluations = r.graph.Evaluations() - before

	r.logger.Debug("step", "index", index, "action", res.Action, "target", res.Target, "value", res.Value, "notified", len(res.Notified))
	return res, err
}

// Close drops every live subscription.
func (r *Runner) Close() {
	for name, unsub := range r.unsubs {
		unsub()
		delete(r.unsubs, name)
	}
}
