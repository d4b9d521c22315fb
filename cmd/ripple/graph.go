package main

import (
	"fmt"
	"os"

	"github.com/delaneyj/ripple/debug"
	"github.com/delaneyj/ripple/internal/scenario"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <scenario.yaml>",
	Short: "Export the dependency graph",
	Long:  `Outputs a Mermaid diagram (graph TD) of the scenario. With --deps, prints the dependency tree of one signal. With --predict, prints the edges a write to that state would travel once every subscription is live.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, store, logger, err := load(cmd, args)
		if err != nil {
			return err
		}

		if deps, _ := cmd.Flags().GetString("deps"); deps != "" {
			sig, err := g.Signal(deps)
			if err != nil {
				return err
			}
			fmt.Println(store.ReadDependencies(sig))
			return nil
		}

		predict, _ := cmd.Flags().GetString("predict")
		if predict == "" {
			fmt.Print(g.Mermaid())
			return nil
		}

		sig, err := g.Signal(predict)
		if err != nil {
			return err
		}
		runner := scenario.NewRunner(g, store, logger)
		defer runner.Close()
		if err := runner.Subscribe(); err != nil {
			return err
		}

		tbl := table.NewWriter()
		tbl.SetTitle("write to " + predict)
		tbl.SetOutputMirror(os.Stdout)
		tbl.AppendHeader(table.Row{"from", "to"})
		for _, e := range debug.LabelEdges(store.PredictPropagationGraph(sig)) {
			tbl.AppendRow(table.Row{e[0], e[1]})
		}
		tbl.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("predict", "", "Print the predicted propagation of a write to this signal")
	graphCmd.Flags().String("deps", "", "Print the dependency tree of this signal")
}
