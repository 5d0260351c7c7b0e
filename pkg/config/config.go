// Package config holds the settings of a jsoncol run.
//
// The configuration is organized into sections:
//   - Input: record layout and inference sample
//   - Output: destination, compression and upload target
//   - Encoding: row-group and page sizing, dictionary policy, workers
//   - Errors: how many per-record failures are kept as samples
//   - Logging: level and encoder
//   - Observability: metrics file and tracing
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Encoding.BlockSize = 1024
//	cfg.Output.Compression = "zstd"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/encoding"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/storage"
)

// DefaultOutputPath is used when no output is given.
const DefaultOutputPath = "output_0.jcol"

// Config is the complete configuration of a conversion.
type Config struct {
	// Input controls how the JSON input is read and sampled
	Input InputConfig `yaml:"input" json:"input" mapstructure:"input"`

	// Output controls where and how the columnar file is written
	Output OutputConfig `yaml:"output" json:"output" mapstructure:"output"`

	// Encoding controls row groups, pages and dictionary encoding
	Encoding EncodingConfig `yaml:"encoding" json:"encoding" mapstructure:"encoding"`

	// Errors controls per-record error accounting
	Errors ErrorsConfig `yaml:"errors" json:"errors" mapstructure:"errors"`

	// Logging controls the zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability controls metrics and tracing output
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// InputConfig contains input settings.
type InputConfig struct {
	// Format is auto, lines (also jsonl, ndjson) or array
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	// SampleSize bounds the records read for schema inference; 0 reads all
	SampleSize int `yaml:"sample_size" json:"sample_size" mapstructure:"sample_size"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	// Path of the local output file
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Compression is an algorithm name or one of fast, balanced, high-ratio
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
	// FileSize is accepted for compatibility and currently has no effect
	FileSize int64 `yaml:"file_size" json:"file_size" mapstructure:"file_size"`
	// Upload is an optional s3:// or gs:// destination for the finished file
	Upload string `yaml:"upload" json:"upload" mapstructure:"upload"`
	// Region is the AWS region used for s3:// uploads
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// CredentialsFile is a GCP service account file used for gs:// uploads
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
	// PartSize is the S3 multipart part size in bytes; 0 keeps the SDK default
	PartSize int64 `yaml:"part_size" json:"part_size" mapstructure:"part_size"`
	// UploadConcurrency is the number of parts uploaded in parallel; 0 keeps the SDK default
	UploadConcurrency int `yaml:"upload_concurrency" json:"upload_concurrency" mapstructure:"upload_concurrency"`
}

// EncodingConfig contains encoder settings.
type EncodingConfig struct {
	// BlockSize is the maximum number of rows per row group
	BlockSize int `yaml:"block_size" json:"block_size" mapstructure:"block_size"`
	// PageSize is the target encoded size of a data page in bytes
	PageSize int `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
	// DictPageSize caps the size of a dictionary page in bytes
	DictPageSize int `yaml:"dict_page_size" json:"dict_page_size" mapstructure:"dict_page_size"`
	// EnableDictionary allows dictionary encoding
	EnableDictionary bool `yaml:"enable_dictionary" json:"enable_dictionary" mapstructure:"enable_dictionary"`
	// DictionaryRatio is the distinct/non-null ratio under which a column
	// is dictionary encoded
	DictionaryRatio float64 `yaml:"dictionary_ratio" json:"dictionary_ratio" mapstructure:"dictionary_ratio"`
	// Workers is the number of goroutines encoding the columns of a row group
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
}

// ErrorsConfig contains per-record error settings.
type ErrorsConfig struct {
	// MaxSamples is how many skipped-record errors are kept for the summary
	MaxSamples int `yaml:"max_samples" json:"max_samples" mapstructure:"max_samples"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	// Format is console or json
	Format string `yaml:"format" json:"format" mapstructure:"format"`
}

// ObservabilityConfig contains metrics and tracing settings.
type ObservabilityConfig struct {
	// MetricsFile receives the Prometheus text exposition after a run
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
	// Trace writes OpenTelemetry spans to stderr
	Trace bool `yaml:"trace" json:"trace" mapstructure:"trace"`
}

// Default returns the configuration used when nothing is overridden.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Encoding.EnableDictionary = true
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Format:     string(records.FormatAuto),
			SampleSize: 0,
		},
		Output: OutputConfig{
			Path:        DefaultOutputPath,
			Compression: "uncompressed",
		},
		Encoding: EncodingConfig{
			BlockSize:        128,
			PageSize:         encoding.DefaultPageSize,
			DictPageSize:     encoding.DefaultDictPageSize,
			EnableDictionary: false,
			DictionaryRatio:  encoding.DefaultDictionaryRatio,
			Workers:          1,
		},
		Errors: ErrorsConfig{
			MaxSamples: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that every value is usable. It returns a config error
// naming the first offending key.
func (c *Config) Validate() error {
	if _, err := records.ParseFormat(c.Input.Format); err != nil {
		return invalid("input.format", err.Error())
	}
	if c.Input.SampleSize < 0 {
		return invalid("input.sample_size", "cannot be negative")
	}
	if c.Output.Path == "" {
		return invalid("output.path", "is required")
	}
	if _, err := compression.ParseConfig(c.Output.Compression); err != nil {
		return invalid("output.compression", err.Error())
	}
	if c.Output.FileSize < 0 {
		return invalid("output.file_size", "cannot be negative")
	}
	if c.Output.Upload != "" {
		if _, err := storage.ParseDestination(c.Output.Upload); err != nil {
			return invalid("output.upload", err.Error())
		}
	}
	if c.Output.PartSize != 0 && c.Output.PartSize < storage.MinPartSize {
		return invalid("output.part_size", fmt.Sprintf("must be 0 or at least %d bytes", storage.MinPartSize))
	}
	if c.Output.UploadConcurrency < 0 {
		return invalid("output.upload_concurrency", "cannot be negative")
	}
	if c.Encoding.BlockSize < 1 {
		return invalid("encoding.block_size", "must be at least 1")
	}
	if c.Encoding.PageSize < 1 {
		return invalid("encoding.page_size", "must be at least 1")
	}
	if c.Encoding.DictPageSize < 1 {
		return invalid("encoding.dict_page_size", "must be at least 1")
	}
	if c.Encoding.DictionaryRatio <= 0 || c.Encoding.DictionaryRatio > 1 {
		return invalid("encoding.dictionary_ratio", "must be in (0, 1]")
	}
	if c.Encoding.Workers < 1 {
		return invalid("encoding.workers", "must be at least 1")
	}
	if c.Errors.MaxSamples < 0 {
		return invalid("errors.max_samples", "cannot be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return invalid("logging.level", err.Error())
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", "must be console or json")
	}
	return nil
}

// InputFormat returns the parsed input format.
func (c *Config) InputFormat() records.Format {
	f, err := records.ParseFormat(c.Input.Format)
	if err != nil {
		return records.FormatAuto
	}
	return f
}

// CompressionConfig resolves the configured compression name.
func (c *Config) CompressionConfig() (*compression.Config, error) {
	cc, err := compression.ParseConfig(c.Output.Compression)
	if err != nil {
		return nil, invalid("output.compression", err.Error())
	}
	return cc, nil
}

// EncodingOptions returns encoder options using codec for every page.
func (c *Config) EncodingOptions(codec compression.Compressor) encoding.Options {
	return encoding.Options{
		Codec:            codec,
		EnableDictionary: c.Encoding.EnableDictionary,
		DictionaryRatio:  c.Encoding.DictionaryRatio,
		PageSize:         c.Encoding.PageSize,
		DictPageSize:     c.Encoding.DictPageSize,
	}
}

// StorageOptions returns the upload client settings.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Region:          c.Output.Region,
		CredentialsFile: c.Output.CredentialsFile,
		PartSize:        c.Output.PartSize,
		Concurrency:     c.Output.UploadConcurrency,
	}
}

func invalid(key, reason string) error {
	return colerrors.Newf(colerrors.ErrorTypeConfig, "%s %s", key, reason).WithDetail("key", key)
}
