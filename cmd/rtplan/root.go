package main

import (
	"fmt"
	"log/slog"
	"os"

	"rtplan-service/internal/platform/logger"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	logLevel  string
	logFormat string
}

// newLogger builds the command logger. It writes to stderr so sheets and
// summaries on stdout can be piped.
func (o *rootOptions) newLogger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "rtplan",
		Short:         "Decode DICOM RT Plan records into beam trajectories",
		Long:          `rtplan reads RT Plan records (DICOM Part 10 or the DICOM JSON model), decodes jaw and MLC positions for every control point and writes per-control-point plan sheets.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}
