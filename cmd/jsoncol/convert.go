package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/config"
	"github.com/ajitpratap0/jsoncol/pkg/convert"
	"github.com/ajitpratap0/jsoncol/pkg/logger"
)

// flagBinding ties a command line flag to a configuration key.
type flagBinding struct {
	key  string
	flag string
}

var convertBindings = []flagBinding{
	{"input.format", "format"},
	{"input.sample_size", "sample-size"},
	{"output.path", "output"},
	{"output.compression", "compression"},
	{"output.file_size", "file-size"},
	{"output.upload", "upload"},
	{"output.part_size", "part-size"},
	{"output.upload_concurrency", "upload-concurrency"},
	{"encoding.block_size", "block-size"},
	{"encoding.page_size", "page-size"},
	{"encoding.dict_page_size", "dict-page-size"},
	{"encoding.enable_dictionary", "enable-dict"},
	{"encoding.dictionary_ratio", "dict-ratio"},
	{"encoding.workers", "encode-workers"},
	{"errors.max_samples", "max-error-samples"},
	{"logging.level", "log-level"},
	{"logging.format", "log-format"},
	{"observability.metrics_file", "metrics-file"},
	{"observability.trace", "trace"},
}

func newConvertCommand() *cobra.Command {
	var inputPath, configFile string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a JSON file to a columnar file",
		Long: `Convert reads JSON records, infers their schema and writes a columnar file.
Settings are resolved from flags, then JSONCOL_* environment variables, then
the YAML file given with --config, then built-in defaults.

Example:
  jsoncol convert -i events.json -o events.jcol -c zstd -d -b 4096`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, convertBindings)
			if err != nil {
				return err
			}
			return runConvert(cmd, cfg, inputPath)
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "Input JSON file, or - for standard input (required)")
	_ = cmd.MarkFlagRequired("input")
	f.StringVar(&configFile, "config", "", "YAML configuration file")

	f.StringP("output", "o", d.Output.Path, "Output file")
	f.StringP("compression", "c", d.Output.Compression,
		"Compression: uncompressed, snappy, gzip, lz4, zstd, brotli, s2, deflate, fast, balanced, high-ratio")
	f.Int64P("file-size", "f", d.Output.FileSize, "Maximum output file size (reserved, currently ignored)")
	f.String("upload", d.Output.Upload, "Upload the finished file to s3://bucket/key or gs://bucket/object")
	f.Int64("part-size", d.Output.PartSize, "S3 multipart part size in bytes (0 uses the SDK default)")
	f.Int("upload-concurrency", d.Output.UploadConcurrency, "Parts uploaded in parallel (0 uses the SDK default)")
	f.String("format", d.Input.Format, "Input layout: auto, lines or array")
	f.Int("sample-size", d.Input.SampleSize, "Records sampled for schema inference (0 reads the whole input)")
	f.IntP("block-size", "b", d.Encoding.BlockSize, "Maximum rows per row group")
	f.IntP("page-size", "p", d.Encoding.PageSize, "Target data page size in bytes")
	f.IntP("dict-page-size", "s", d.Encoding.DictPageSize, "Maximum dictionary page size in bytes")
	f.BoolP("enable-dict", "d", d.Encoding.EnableDictionary, "Enable dictionary encoding")
	f.Float64("dict-ratio", d.Encoding.DictionaryRatio, "Distinct/non-null ratio under which a column is dictionary encoded")
	f.Int("encode-workers", d.Encoding.Workers, "Goroutines encoding the columns of a row group")
	f.Int("max-error-samples", d.Errors.MaxSamples, "Skipped-record errors kept for the summary")
	addLoggingFlags(cmd, d)
	f.String("metrics-file", d.Observability.MetricsFile, "Write Prometheus metrics to this file after the run")
	f.Bool("trace", d.Observability.Trace, "Write OpenTelemetry spans to stderr")

	return cmd
}

func addLoggingFlags(cmd *cobra.Command, d *config.Config) {
	cmd.Flags().String("log-level", d.Logging.Level, "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", d.Logging.Format, "Log format (console, json)")
}

// resolveConfig layers the YAML file, environment and the flags named in
// bindings over the defaults.
func resolveConfig(cmd *cobra.Command, configFile string, bindings []flagBinding) (*config.Config, error) {
	loader := config.NewLoader()
	if configFile != "" {
		if err := loader.ReadFile(configFile); err != nil {
			return nil, err
		}
	}
	for _, b := range bindings {
		if err := loader.BindFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return nil, err
		}
	}
	return loader.Load()
}

func runConvert(cmd *cobra.Command, cfg *config.Config, inputPath string) error {
	if _, err := setupLogging(cfg, "convert"); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	flushTraces, err := setupTracing(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer flushTraces()

	in, err := openInput(cmd, inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, logger.InputKey, inputPath)
	log := logger.WithContext(ctx).With(zap.String("component", "jsoncol-cli"), zap.String("command", "convert"))

	if cfg.Output.FileSize > 0 {
		log.Warn("file size limit is not supported and will be ignored", zap.Int64("file_size", cfg.Output.FileSize))
	}

	log.Info("starting conversion",
		zap.String("output", cfg.Output.Path),
		zap.String("compression", cfg.Output.Compression),
		zap.Int("block_size", cfg.Encoding.BlockSize),
		zap.Bool("dictionary", cfg.Encoding.EnableDictionary))

	conv, err := convert.New(cfg, log)
	if err != nil {
		return err
	}
	summary, err := conv.Run(ctx, in, cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Inferred Schema:")
	fmt.Fprintln(out, summary.Schema.Pretty())

	for _, sample := range summary.ErrorSamples {
		log.Warn("skipped record", zap.Error(sample))
	}
	if summary.RowsSkipped > 0 {
		log.Warn("some records were skipped",
			zap.Int64("rows_skipped", summary.RowsSkipped),
			zap.Int64("rows_written", summary.RowsWritten))
	}
	return nil
}
