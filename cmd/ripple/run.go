package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/delaneyj/ripple/atom"
	"github.com/delaneyj/ripple/debug"
	"github.com/delaneyj/ripple/internal/scenario"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay the steps of a scenario",
	Long:  `Subscribes every declared subscription, runs each step in order and prints value, notified listeners and recomputations per step.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, _ := cmd.Flags().GetBool("stats")

		reg := prometheus.NewRegistry()
		var extra []*atom.Interceptor
		if stats {
			extra = append(extra, debug.NewMetrics(debug.WithRegistry(reg)).Interceptor())
		}

		g, store, logger, err := load(cmd, args, extra...)
		if err != nil {
			return err
		}
		runner := scenario.NewRunner(g, store, logger)
		defer runner.Close()

		report, err := runner.Run()
		if report != nil {
			printReport(report)
		}
		if err != nil {
			return err
		}
		if stats {
			return printStats(reg)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("stats", false, "Print store operation counts after the run")
}

func printReport(report *scenario.Report) {
	tbl := table.NewWriter()
	tbl.SetTitle(report.Name)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"#", "action", "target", "value", "notified", "evaluations"})
	for _, st := range report.Steps {
		value := ""
		if st.Action != "unsub" {
			value = fmt.Sprint(st.Value)
		}
		tbl.AppendRow(table.Row{st.Index, st.Action, st.Target, value, strings.Join(st.Notified, ", "), st.Evaluations})
	}
	tbl.Render()
}

func printStats(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("store operations")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"op", "count"})

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "ripple_ops_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "op" {
					counts[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		tbl.AppendRow(table.Row{op, counts[op]})
	}
	tbl.Render()
	return nil
}
