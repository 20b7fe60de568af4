package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const (
	exitClean    = 0
	exitInfected = 1
	exitFailure  = 2
)

// exitError carries a non-zero exit status without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	ctx := newCommandContext(stdin, stdout, stderr)

	rootCmd := &cobra.Command{
		Use:           "clamdscan",
		Short:         "Scan files with a ClamAV daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd.Flags())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.host, "host", "", "clamd host (default localhost)")
	flags.Uint16Var(&ctx.port, "port", 0, "clamd TCP port (default 3310)")
	flags.BoolVar(&ctx.useTLS, "tls", false, "Connect to clamd over TLS")
	flags.BoolVar(&ctx.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.DurationVar(&ctx.timeout, "timeout", 0, "Connect and idle timeout per session (default 20s)")
	flags.IntVar(&ctx.concurrency, "concurrency", 0, "Maximum simultaneous sessions for directory scans")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.StringVar(&ctx.logFile, "log-file", "", "Write logs to this file, rotated by size")

	rootCmd.AddCommand(newPingCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
