// Package scenario loads small YAML graphs of integer states and computeds
// and replays writes against them.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type State struct {
	Name string `yaml:"name"`
	Init int    `yaml:"init"`
}

// Computed folds its dependencies with Op and then adds Add.
type Computed struct {
	Name string   `yaml:"name"`
	Op   string   `yaml:"op"`
	Deps []string `yaml:"deps"`
	Add  int      `yaml:"add"`
}

type Subscription struct {
	Name    string   `yaml:"name"`
	Targets []string `yaml:"targets"`
}

// Step does exactly one of: set a state, read a signal, or drop a
// subscription.
type Step struct {
	Set   string `yaml:"set,omitempty"`
	Value int    `yaml:"value,omitempty"`
	Read  string `yaml:"read,omitempty"`
	Unsub string `yaml:"unsub,omitempty"`
}

func (s Step) Action() string {
	switch {
	case s.Set != "":
		return "set"
	case s.Read != "":
		return "read"
	case s.Unsub != "":
		return "unsub"
	default:
		return ""
	}
}

func (s Step) Target() string {
	switch s.Action() {
	case "set":
		return s.Set
	case "read":
		return s.Read
	default:
		return s.Unsub
	}
}

type Scenario struct {
	Name      string         `yaml:"name"`
	States    []State        `yaml:"states"`
	Computeds []Computed     `yaml:"computeds"`
	Subscribe []Subscription `yaml:"subscribe"`
	Steps     []Step         `yaml:"steps"`
}

var ErrInvalid = errors.New("invalid scenario")

var ops = map[string]struct{}{
	"sum":     {},
	"product": {},
	"min":     {},
	"max":     {},
	"first":   {},
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names are unique and every reference points at something
// declared earlier.
func (sc *Scenario) Validate() error {
	kinds := map[string]string{}
	declare := func(name, kind string) error {
		if name == "" {
			return fmt.Errorf("%w: %s without a name", ErrInvalid, kind)
		}
		if prev, ok := kinds[name]; ok {
			return fmt.Errorf("%w: %q declared as %s and %s", ErrInvalid, name, prev, kind)
		}
		kinds[name] = kind
		return nil
	}
	readable := func(name string) bool {
		k := kinds[name]
		return k == "state" || k == "computed"
	}

	for _, s := range sc.States {
		if err := declare(s.Name, "state"); err != nil {
			return err
		}
	}
	for _, c := range sc.Computeds {
		if _, ok := ops[c.Op]; !ok {
			return fmt.Errorf("%w: computed %q has unknown op %q", ErrInvalid, c.Name, c.Op)
		}
		if len(c.Deps) == 0 {
			return fmt.Errorf("%w: computed %q has no deps", ErrInvalid, c.Name)
		}
		for _, d := range c.Deps {
			if !readable(d) {
				return fmt.Errorf("%w: computed %q reads undeclared %q", ErrInvalid, c.Name, d)
			}
		}
		if err := declare(c.Name, "computed"); err != nil {
			return err
		}
	}
	for _, sub := range sc.Subscribe {
		if err := declare(sub.Name, "subscription"); err != nil {
			return err
		}
		for _, t := range sub.Targets {
			if !readable(t) {
				return fmt.Errorf("%w: subscription %q targets undeclared %q", ErrInvalid, sub.Name, t)
			}
		}
	}
	for i, st := range sc.Steps {
		n := 0
		for _, v := range []string{st.Set, st.Read, st.Unsub} {
			if v != "" {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("%w: step %d must do exactly one of set, read or unsub", ErrInvalid, i+1)
		}
		switch st.Action() {
		case "set":
			if kinds[st.Set] != "state" {
				return fmt.Errorf("%w: step %d sets %q which is not a state", ErrInvalid, i+1, st.Set)
			}
		case "read":
			if !readable(st.Read) {
				return fmt.Errorf("%w: step %d reads undeclared %q", ErrInvalid, i+1, st.Read)
			}
		case "unsub":
			if kinds[st.Unsub] != "subscription" {
				return fmt.Errorf("%w: step %d drops unknown subscription %q", ErrInvalid, i+1, st.Unsub)
			}
		}
	}
	return nil
}
