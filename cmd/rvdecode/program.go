package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"github.com/sarchlab/rvdecode/insts"
	"github.com/sarchlab/rvdecode/loader"
	"github.com/sarchlab/rvdecode/predecode"
)

type programOptions struct {
	path       string
	raw        bool
	base       uint64
	configPath string
}

func newProgramCommand(g *globalOptions) *cobra.Command {
	c := &cobra.Command{
		Use:                   "program [options] PATH",
		Short:                 "decode every instruction of a program",
		Long:                  "Decode every word of the executable segments of a RISC-V ELF file (or a flat image with --raw).",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(programOptions)
	c.Flags().BoolVar(&opts.raw, "raw", false, "treat the file as a flat binary image")
	c.Flags().Uint64Var(&opts.base, "base", 0, "load `address` of a raw image")
	c.Flags().StringVar(&opts.configPath, "config", "", "`path` to predecode cache configuration (HuJSON)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.path = args[0]
		return runProgram(cmd.Context(), cmd.OutOrStdout(), g, opts)
	}
	return c
}

func runProgram(ctx context.Context, out io.Writer, g *globalOptions, opts *programOptions) error {
	prog, err := loadProgram(opts)
	if err != nil {
		return err
	}
	log.Debugf(ctx, "loaded %s: entry %#x, %d segments", opts.path, prog.EntryPoint, len(prog.Segments))

	config := predecode.DefaultConfig()
	if opts.configPath != "" {
		config, err = predecode.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
	}

	cache, err := predecode.New(config, prog, insts.NewDecoder())
	if err != nil {
		return err
	}

	p := newPrinter(out, g)
	illegal := 0
	for _, seg := range prog.ExecutableSegments() {
		start := (seg.VirtAddr + loader.InstructionSize - 1) &^ (loader.InstructionSize - 1)
		for addr := start; seg.Contains(addr, loader.InstructionSize); addr += loader.InstructionSize {
			if err := ctx.Err(); err != nil {
				return err
			}

			inst, result := cache.Lookup(addr)
			if inst.IsIllegal() {
				illegal++
			}
			if err := p.printAt(addr, result.Mapped, inst); err != nil {
				return err
			}
		}
	}

	stats := cache.Stats()
	log.Debugf(ctx, "predecode: %d lookups, %d hits, %d misses, %d evictions (hit rate %.2f)",
		stats.Lookups, stats.Hits, stats.Misses, stats.Evictions, stats.HitRate())
	if illegal > 0 {
		log.Infof(ctx, "%s: %d illegal instruction words", opts.path, illegal)
	}
	return nil
}

func loadProgram(opts *programOptions) (*loader.Program, error) {
	if opts.raw {
		return loader.LoadRawFile(opts.path, opts.base)
	}
	prog, err := loader.Load(opts.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.path, err)
	}
	return prog, nil
}
