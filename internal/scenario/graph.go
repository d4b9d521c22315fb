package scenario

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/delaneyj/ripple/atom"
)

// Graph holds the signals built from a scenario. Signals are keyed by name.
type Graph struct {
	Scenario *Scenario

	States    map[string]*atom.StateSignal[int]
	Readables map[string]atom.Readable[int]

	evaluations atomic.Int64
}

func Build(sc *Scenario) *Graph {
	g := &Graph{
		Scenario:  sc,
		States:    map[string]*atom.StateSignal[int]{},
		Readables: map[string]atom.Readable[int]{},
	}
	for _, s := range sc.States {
		st := atom.State(s.Init, atom.WithDebugLabel(s.Name))
		g.States[s.Name] = st
		g.Readables[s.Name] = st
	}
	for _, c := range sc.Computeds {
		g.Readables[c.Name] = g.computed(c)
	}
	return g
}

func (g *Graph) computed(c Computed) *atom.ComputedSignal[int] {
	deps := make([]atom.Readable[int], len(c.Deps))
	for i, d := range c.Deps {
		deps[i] = g.Readables[d]
	}
	op, add := c.Op, c.Add

	return atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		g.evaluations.Add(1)
		acc := 0
		for i, d := range deps {
			v, err := d.Get(get)
			if err != nil {
				return 0, err
			}
			if i == 0 {
				acc = v
				if op == "first" {
					break
				}
				continue
			}
			acc = fold(op, acc, v)
		}
		return acc + add, nil
	}, atom.WithDebugLabel(c.Name))
}

func fold(op string, acc, v int) int {
	switch op {
	case "sum":
		return acc + v
	case "product":
		return acc * v
	case "min":
		return min(acc, v)
	case "max":
		return max(acc, v)
	default:
		return acc
	}
}

// Evaluations reports how many times any computed of the graph ran.
func (g *Graph) Evaluations() int64 {
	return g.evaluations.Load()
}

func (g *Graph) Signal(name string) (atom.Signal, error) {
	if r, ok := g.Readables[name]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: unknown signal %q", ErrInvalid, name)
}

// Mermaid renders the declared dependencies as a top-down flowchart.
// States are rounded, subscriptions are dotted edges into their listener.
func (g *Graph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range g.Scenario.States {
		fmt.Fprintf(&sb, "    %s(\"%s = %d\")\n", mermaidID(s.Name), s.Name, s.Init)
	}
	for _, c := range g.Scenario.Computeds {
		label := c.Op
		if c.Add != 0 {
			label = fmt.Sprintf("%s %+d", c.Op, c.Add)
		}
		fmt.Fprintf(&sb, "    %s[\"%s: %s\"]\n", mermaidID(c.Name), c.Name, label)
		for _, d := range c.Deps {
			fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(d), mermaidID(c.Name))
		}
	}
	for _, sub := range g.Scenario.Subscribe {
		fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", mermaidID(sub.Name), sub.Name)
		targets := append([]string(nil), sub.Targets...)
		sort.Strings(targets)
		for _, t := range targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", mermaidID(t), mermaidID(sub.Name))
		}
	}
	return sb.String()
}

func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
