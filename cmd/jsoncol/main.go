package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/config"
	"github.com/ajitpratap0/jsoncol/pkg/logger"
	"github.com/ajitpratap0/jsoncol/pkg/observability"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsoncol",
		Short: "jsoncol - convert JSON records to a columnar file",
		Long: `jsoncol reads newline-delimited JSON or a JSON array of objects, infers a
schema from a sample of the records and writes them as a compressed,
block-structured columnar file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newConvertCommand(),
		newSchemaCommand(),
		newInspectCommand(),
		newCatCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jsoncol v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// setupLogging installs the global logger described by cfg and returns a
// child logger for the command.
func setupLogging(cfg *config.Config, command string) (*zap.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Encoding = cfg.Logging.Format
	if err := logger.Init(lc); err != nil {
		return nil, err
	}
	return logger.With(zap.String("component", "jsoncol-cli"), zap.String("command", command)), nil
}

// setupTracing installs the span exporter when tracing is enabled. The
// returned function flushes it.
func setupTracing(cfg *config.Config, w io.Writer) (func(), error) {
	tc := observability.DefaultConfig()
	tc.Enabled = cfg.Observability.Trace
	tc.ServiceVersion = version
	tc.Writer = w
	if err := observability.Init(tc); err != nil {
		return nil, err
	}
	return func() {
		if err := observability.Shutdown(context.Background()); err != nil {
			logger.Get().Warn("failed to flush traces", zap.Error(err))
		}
	}, nil
}

// openInput opens path for reading; "-" is standard input.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return f, nil
}
