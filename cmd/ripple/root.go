package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/delaneyj/ripple/atom"
	"github.com/delaneyj/ripple/debug"
	"github.com/delaneyj/ripple/internal/logging"
	"github.com/delaneyj/ripple/internal/scenario"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "ripple",
	Short:        "Ripple replays reactive state scenarios",
	Long:         `Ripple loads a YAML graph of states and computeds, replays writes against it and reports what was notified and recomputed.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("trace", false, "Log every store operation at debug level")
}

func loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		level = slog.LevelDebug
	}
	return logging.New(level), nil
}

// load reads the scenario named by args and builds a store for it, with
// console tracing when --trace is set.
func load(cmd *cobra.Command, args []string, extra ...*atom.Interceptor) (*scenario.Graph, *debug.Store, *slog.Logger, error) {
	logger, err := loggerFor(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	sc, err := scenario.Load(args[0])
	if err != nil {
		return nil, nil, nil, err
	}

	ics := extra
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		ics = append(ics, debug.ConsoleInterceptor(logger))
	}
	store := debug.NewStore(atom.WithInterceptor(ics...))
	logger.Debug("loaded scenario", "path", args[0], "states", len(sc.States), "computeds", len(sc.Computeds))
	return scenario.Build(sc), store, logger, nil
}
