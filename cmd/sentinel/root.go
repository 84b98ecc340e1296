package main

import (
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	logFile  string
	closer   io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Run and validate faction detection scenarios",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closer, err := setupLogging(cmd.ErrOrStderr(), opts.logLevel, opts.logFile)
			if err != nil {
				return err
			}
			opts.closer = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closer != nil {
				return opts.closer.Close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")

	cmd.AddCommand(newRunCmd(), newValidateCmd(), newListCmd())
	return cmd
}
