//go:build cgo && opusenc

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	encerrors "github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/opusenc"
)

const samplesPerChannel = 256

func init() {
	extraCommands = append(extraCommands, newEncodeCommand)
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var rate, channels int

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode little-endian int16 PCM to Ogg Opus with libopusenc",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensure()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("output") {
				output = cfg.Output
			}
			if !flags.Changed("rate") {
				rate = cfg.Opus.Rate
			}
			if !flags.Changed("channels") {
				channels = cfg.Opus.Channels
			}
			if input == "" {
				return encerrors.InvalidInput(encerrors.PhaseConfig, "no input file (use --input)")
			}

			opts := []opusenc.Option{
				opusenc.WithRate(rate),
				opusenc.WithChannels(channels),
			}
			if cfg.Opus.Family == "surround" {
				opts = append(opts, opusenc.WithFamily(opusenc.Surround))
			}
			tags := make([]string, 0, len(cfg.Opus.Comments))
			for tag := range cfg.Opus.Comments {
				tags = append(tags, tag)
			}
			sort.Strings(tags)
			for _, tag := range tags {
				opts = append(opts, opusenc.WithComment(tag, cfg.Opus.Comments[tag]))
			}

			return encodeFile(cmd, ctx.log(), input, output, channels, opts)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Little-endian int16 PCM file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Ogg Opus output file")
	cmd.Flags().IntVar(&rate, "rate", 0, "Input sample rate in Hz")
	cmd.Flags().IntVar(&channels, "channels", 0, "Number of interleaved channels")

	return cmd
}

func encodeFile(cmd *cobra.Command, log *zap.Logger, input, output string, channels int, opts []opusenc.Option) (err error) {
	pcmFile, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer pcmFile.Close()

	oggFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer oggFile.Close()

	enc := opusenc.NewEncoder(oggFile, opts...)
	if err := enc.Init(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, enc.Close()) }()

	start := time.Now()
	pcm := make([]int16, channels*samplesPerChannel)
	var frames int64
	for {
		if rerr := binary.Read(pcmFile, binary.LittleEndian, pcm); rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("read input: %w", rerr)
		}
		if err := enc.Encode(pcm); err != nil {
			return err
		}
		frames += samplesPerChannel
	}

	if err := enc.Drain(); err != nil {
		return err
	}

	log.Debug("encode finished", zap.Int64("frames", frames), zap.Duration("elapsed", time.Since(start)))
	fmt.Fprintf(cmd.OutOrStdout(), "encoded %s samples per channel into %s\n", humanize.Comma(frames), output)
	return nil
}
