package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"github.com/sarchlab/rvdecode/insts"
)

func newWordCommand(g *globalOptions) *cobra.Command {
	c := &cobra.Command{
		Use:                   "word [options] WORD [...]",
		Short:                 "decode literal instruction words",
		Long:                  "Decode each WORD (0x hex, 0b binary, 0o octal or decimal) and print one record per line.",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runWord(cmd.Context(), cmd.OutOrStdout(), g, args)
	}
	return c
}

func runWord(ctx context.Context, out io.Writer, g *globalOptions, args []string) error {
	words := make([]uint32, 0, len(args))
	for _, arg := range args {
		word, err := parseWord(arg)
		if err != nil {
			return err
		}
		words = append(words, word)
	}

	decoder := insts.NewDecoder()
	p := newPrinter(out, g)
	for _, word := range words {
		inst := decoder.Decode(word)
		if inst.IsIllegal() {
			log.Debugf(ctx, "word %#08x: unrecognized opcode %#02x", word, inst.Opcode)
		}
		if err := p.printWord(inst); err != nil {
			return err
		}
	}
	return nil
}

// parseWord parses a 32-bit instruction word in any Go integer literal
// syntax.
func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse word %q: %w", s, err)
	}
	return uint32(v), nil
}
