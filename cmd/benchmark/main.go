package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/ripple/atom"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to this file")
	iters      = flag.Int("iters", 100, "writes per grid")
)

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(false)

	benchmarkPropagate(true)
	benchmarkLazy(true)
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100, 1_000}
)

func addOne(oldValue int) int {
	return oldValue + 1
}

func chain(prev atom.Readable[int]) *atom.ComputedSignal[int] {
	return atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := prev.Get(get)
		return v + 1, err
	})
}

// grid builds w independent chains of h computeds hanging off src and
// returns their tails.
func grid(src *atom.StateSignal[int], w, h int) []atom.Signal {
	tails := make([]atom.Signal, 0, w)
	for i := 0; i < w; i++ {
		var last atom.Readable[int] = src
		for j := 0; j < h; j++ {
			last = chain(last)
		}
		tails = append(tails, last)
	}
	return tails
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// benchmarkPropagate subscribes every tail so each write is pushed through
// the whole grid.
func benchmarkPropagate(shouldRender bool) {
	tbl := newTable("atom: mounted propagate")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: *iters})

			store := atom.NewStore()
			src := atom.State(1)
			listener := atom.Listener(func(atom.Visitor) error { return nil })
			for _, tail := range grid(src, w, h) {
				store.Sub([]atom.Signal{tail}, listener)
			}

			for i := 0; i < *iters; i++ {
				start := time.Now()
				if err := src.Update(store, addOne); err != nil {
					log.Panic(err)
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkLazy never mounts; every read walks the dependency epochs.
func benchmarkLazy(shouldRender bool) {
	tbl := newTable("atom: unmounted write + read")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: *iters})

			store := atom.NewStore()
			src := atom.State(1)
			tails := grid(src, w, h)

			for i := 0; i < *iters; i++ {
				start := time.Now()
				if err := src.Update(store, addOne); err != nil {
					log.Panic(err)
				}
				for _, tail := range tails {
					if _, err := store.Get(tail); err != nil {
						log.Panic(err)
					}
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("read: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
