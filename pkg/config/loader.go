package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

// EnvPrefix prefixes environment overrides: encoding.block_size is read
// from JSONCOL_ENCODING_BLOCK_SIZE.
const EnvPrefix = "JSONCOL"

// Loader resolves a Config from, in decreasing precedence, bound command
// line flags, JSONCOL_* environment variables, a YAML file and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader seeded with Default.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return &Loader{v: v}
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return colerrors.Newf(colerrors.ErrorTypeInternal, "no flag bound to %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// ReadFile merges a YAML file. ${VAR_NAME} references are replaced with
// environment values before parsing.
func (l *Loader) ReadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to read config file").WithDetail("path", path)
	}
	l.v.SetConfigType("yaml")
	if err := l.v.MergeConfig(strings.NewReader(substituteEnvVars(string(data)))); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to parse YAML").WithDetail("path", path)
	}
	return nil
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults, with environment variable
// substitution, and validates the result. Flags and JSONCOL_* variables
// are not consulted.
func LoadFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to read config file")
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("input.format", d.Input.Format)
	v.SetDefault("input.sample_size", d.Input.SampleSize)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.file_size", d.Output.FileSize)
	v.SetDefault("output.upload", d.Output.Upload)
	v.SetDefault("output.region", d.Output.Region)
	v.SetDefault("output.credentials_file", d.Output.CredentialsFile)
	v.SetDefault("output.part_size", d.Output.PartSize)
	v.SetDefault("output.upload_concurrency", d.Output.UploadConcurrency)
	v.SetDefault("encoding.block_size", d.Encoding.BlockSize)
	v.SetDefault("encoding.page_size", d.Encoding.PageSize)
	v.SetDefault("encoding.dict_page_size", d.Encoding.DictPageSize)
	v.SetDefault("encoding.enable_dictionary", d.Encoding.EnableDictionary)
	v.SetDefault("encoding.dictionary_ratio", d.Encoding.DictionaryRatio)
	v.SetDefault("encoding.workers", d.Encoding.Workers)
	v.SetDefault("errors.max_samples", d.Errors.MaxSamples)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
	v.SetDefault("observability.trace", d.Observability.Trace)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
