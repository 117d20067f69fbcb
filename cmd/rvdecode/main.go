// Package main provides the rvdecode command, which decodes RV32I
// instruction words and programs into classified instruction records.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"zombiezen.com/go/bass/sigterm"
	"zombiezen.com/go/log"
)

type globalOptions struct {
	json bool
}

func main() {
	rootCommand, showDebug := newRootCommand()

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

func newRootCommand() (_ *cobra.Command, showDebug *bool) {
	rootCommand := &cobra.Command{
		Use:           "rvdecode",
		Short:         "decode RISC-V base integer instructions",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := new(globalOptions)
	rootCommand.PersistentFlags().BoolVar(&g.json, "json", false, "print records as JSON lines")
	showDebug = rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")

	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}

	rootCommand.AddCommand(
		newWordCommand(g),
		newProgramCommand(g),
	)
	return rootCommand, showDebug
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "rvdecode: ", log.StdFlags, nil),
		})
	})
}
