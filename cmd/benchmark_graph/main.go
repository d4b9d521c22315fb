package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/delaneyj/ripple/atom"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// layout describes a layered graph: width sources, then layers-1 rows of
// computeds each summing fanIn nodes of the row above.
type layout struct {
	name    string
	width   int
	layers  int
	fanIn   int
	static  float64 // share of computeds with a fixed dependency set
	read    float64 // share of leaves subscribed and read after each write
	repeats int64
}

var layouts = []layout{
	{name: "small static", width: 10, layers: 5, fanIn: 2, static: 1, read: 0.2, repeats: 60_000},
	{name: "small dynamic", width: 10, layers: 10, fanIn: 6, static: 0.75, read: 0.2, repeats: 15_000},
	{name: "wide mostly static", width: 1_000, layers: 12, fanIn: 4, static: 0.95, read: 1, repeats: 700},
	{name: "wide dense", width: 1_000, layers: 5, fanIn: 25, static: 1, read: 1, repeats: 300},
	{name: "deep", width: 5, layers: 500, fanIn: 3, static: 1, read: 1, repeats: 500},
	{name: "very dynamic", width: 100, layers: 15, fanIn: 6, static: 0.5, read: 1, repeats: 2_000},
}

var runs = flag.Int("runs", 5, "timed runs per layout; the fastest is reported")

func main() {
	flag.Parse()
	log.Print("graph benchmark started")
	defer log.Print("graph benchmark finished")

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"layout", "size", "fan-in", "read", "static", "writes", "best", "evaluations", "evals/ms", "checksum"})

	for _, l := range layouts {
		var (
			best      = time.Duration(math.MaxInt64)
			bestEvals int64
			checksum  int
		)
		// run 0 warms up
		for run := 0; run <= *runs; run++ {
			g := build(l)
			took, sum := g.drive(atom.NewStore(), l)
			if run > 0 && took < best {
				best, bestEvals, checksum = took, g.evaluations, sum
			}
		}
		log.Printf("%s: best of %d in %v", l.name, *runs, best)

		rate := float64(bestEvals) / (float64(best) / float64(time.Millisecond))
		tbl.Append([]string{
			l.name,
			fmt.Sprintf("%dx%d", l.width, l.layers),
			fmt.Sprint(l.fanIn),
			fmt.Sprintf("%.0f%%", 100*l.read),
			fmt.Sprintf("%.0f%%", 100*l.static),
			humanize.Comma(l.repeats),
			best.String(),
			humanize.Comma(bestEvals),
			humanize.Comma(int64(rate)),
			fmt.Sprint(checksum),
		})
	}
	tbl.Render()
}

type layered struct {
	sources     []*atom.StateSignal[int]
	leaves      []atom.Readable[int]
	evaluations int64
}

func build(l layout) *layered {
	g := &layered{sources: make([]*atom.StateSignal[int], l.width)}
	row := make([]atom.Readable[int], l.width)
	for i := range g.sources {
		g.sources[i] = atom.State(i)
		row[i] = g.sources[i]
	}

	rnd := rand.New(rand.NewSource(0))
	for layer := 1; layer < l.layers; layer++ {
		next := make([]atom.Readable[int], len(row))
		for i := range row {
			deps := make([]atom.Readable[int], l.fanIn)
			for j := range deps {
				deps[j] = row[(i+j)%len(row)]
			}
			if rnd.Float64() < l.static {
				next[i] = g.sum(deps)
			} else {
				next[i] = g.dropOne(deps)
			}
		}
		row = next
	}
	g.leaves = row
	return g
}

func (g *layered) sum(deps []atom.Readable[int]) atom.Readable[int] {
	return atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		g.evaluations++
		total := 0
		for _, d := range deps {
			v, err := d.Get(get)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	})
}

// dropOne reads its first dependency and, when that is odd, skips one of
// the others, so its dependency set changes between writes.
func (g *layered) dropOne(deps []atom.Readable[int]) atom.Readable[int] {
	if len(deps) < 2 {
		return g.sum(deps)
	}
	head, rest := deps[0], deps[1:]
	return atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		g.evaluations++
		total, err := head.Get(get)
		if err != nil {
			return 0, err
		}
		skip := -1
		if total%2 == 1 {
			skip = total % len(rest)
		}
		for i, d := range rest {
			if i == skip {
				continue
			}
			v, err := d.Get(get)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	})
}

// drive subscribes a random share of the leaves, then writes one source per
// repeat and reads every subscribed leaf. It returns the elapsed time and
// the final sum of those leaves.
func (g *layered) drive(store *atom.Store, l layout) (time.Duration, int) {
	rnd := rand.New(rand.NewSource(0))
	read := append([]atom.Readable[int](nil), g.leaves...)
	rnd.Shuffle(len(read), func(i, j int) { read[i], read[j] = read[j], read[i] })
	read = read[:int(math.Round(float64(len(read))*l.read))]

	listener := atom.Listener(func(atom.Visitor) error { return nil })
	for _, leaf := range read {
		defer store.Sub([]atom.Signal{leaf}, listener)()
	}
	g.evaluations = 0

	write := atom.Command(func(v atom.Visitor, args ...any) (struct{}, error) {
		i := args[0].(int)
		src := i % len(g.sources)
		return struct{}{}, g.sources[src].Set(v, i+src)
	})

	start := time.Now()
	for i := 0; i < int(l.repeats); i++ {
		if _, err := write.Exec(store, i); err != nil {
			log.Panic(err)
		}
		for _, leaf := range read {
			if _, err := leaf.Get(store); err != nil {
				log.Panic(err)
			}
		}
	}
	took := time.Since(start)

	sum := 0
	for _, leaf := range read {
		v, err := leaf.Get(store)
		if err != nil {
			log.Panic(err)
		}
		sum += v
	}
	return took, sum
}
