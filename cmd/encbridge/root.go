package main

import (
	"github.com/spf13/cobra"
)

// extraCommands holds commands compiled in behind build tags.
var extraCommands []func(*commandContext) *cobra.Command

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag, logFormatFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag)

	rootCmd := &cobra.Command{
		Use:           "encbridge",
		Short:         "Route encoder output callbacks to Go sinks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensure()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	for _, build := range extraCommands {
		rootCmd.AddCommand(build(ctx))
	}

	return rootCmd
}
