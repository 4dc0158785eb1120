// Command vetomint-replay is the command-line surface spec §1 names as an
// external collaborator: a driver that either replays a height's WAL
// segment through consensus.Step and prints the recovered state, or runs
// spec §8's S1 four-validator scenario in memory and prints each
// validator's decision (and, with -v, every action each step produces).
//
// Grounded on the cobra/pflag wiring in the pack's luxfi-vm example
// (vms/example/xsvm/cmd/*/cmd.go): one subcommand per cobra.Command, flags
// parsed via cobra's pflag.FlagSet.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:   "vetomint-replay",
		Short: "Inspect and replay a vetomint consensus write-ahead log",
	}
	root.AddCommand(replayCommand(), scenarioCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return zap.NewNop()
}
