package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/registry"
	"github.com/wippyai/encbridge/sink"
	"github.com/wippyai/encbridge/wasmhost"
)

// sinkFault is reported to the guest when the sink panics.
const sinkFault encbridge.Status = sink.DefaultFailed

type runOptions struct {
	wasm        string
	entry       string
	module      string
	input       string
	output      string
	memoryPages uint32
	interactive bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a wasm guest encoder and write its output",
		Long: `Run calls the guest's entry function with a fresh session handle.
Every write callback the guest issues lands in the output file; the close
callback closes it. The guest's return value is reported verbatim.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensure()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("wasm") {
				opts.wasm = cfg.Guest.Path
			}
			if !flags.Changed("entry") {
				opts.entry = cfg.Guest.Entry
			}
			if !flags.Changed("module") {
				opts.module = cfg.Guest.Module
			}
			if !flags.Changed("input") {
				opts.input = cfg.Guest.Stdin
			}
			if !flags.Changed("output") {
				opts.output = cfg.Output
			}
			if !flags.Changed("memory-limit-pages") {
				opts.memoryPages = cfg.Guest.MemoryLimitPages
			}
			if opts.wasm == "" {
				return errors.InvalidInput(errors.PhaseConfig, "no guest module (use --wasm or guest.path)")
			}
			return runGuest(cmd, ctx.log(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.wasm, "wasm", "", "Path to the guest encoder module")
	cmd.Flags().StringVar(&opts.entry, "entry", "", "Guest export called with the session handle")
	cmd.Flags().StringVar(&opts.module, "module", "", "Import module name of the callbacks")
	cmd.Flags().StringVar(&opts.input, "input", "", "File exposed to the guest as stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file")
	cmd.Flags().Uint32Var(&opts.memoryPages, "memory-limit-pages", 0, "Guest memory cap in 64KiB pages")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Show live progress")

	return cmd
}

func runGuest(cmd *cobra.Command, log *zap.Logger, opts runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	wasm, err := os.ReadFile(opts.wasm)
	if err != nil {
		return fmt.Errorf("read guest: %w", err)
	}

	var stdin io.Reader
	if opts.input != "" {
		in, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()
		stdin = in
	}

	runner, err := wasmhost.NewRunner(ctx, wasm,
		wasmhost.WithEntry(opts.entry),
		wasmhost.WithModuleName(opts.module),
		wasmhost.WithMemoryLimitPages(opts.memoryPages),
		wasmhost.WithStdio(stdin, nil, cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	// The guest's close callback closes the file; this covers guests that never call it.
	defer out.Close()

	writer := sink.Writer(out)
	counter := sink.Counter(writer)
	s := sink.Guard(counter, sinkFault, log)

	start := time.Now()
	var res wasmhost.Result
	if opts.interactive && isTerminal(cmd.OutOrStdout()) {
		res, err = runInteractive(ctx, runner, s, counter, opts)
	} else {
		res, err = runner.Run(ctx, s, registry.WithLabel(opts.output))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res, counter.Stats(), time.Since(start)))

	if werr := writer.Err(); werr != nil {
		log.Warn("output write failed", zap.Error(werr))
	}
	if res.Status != 0 {
		return errors.StatusFailed(errors.PhaseGuest, res.Session.Handle, res.Status)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
