package config

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/observability"
)

// Sink kinds accepted in SinkConfig.Kind.
const (
	SinkJSON     = "json"
	SinkYAML     = "yaml"
	SinkArrow    = "arrow"
	SinkPostgres = "postgres"
	SinkMongo    = "mongo"
	SinkMySQL    = "mysql"
	SinkBigQuery = "bigquery"
)

// Config is the root configuration of a csvconf run.
type Config struct {
	Table   TableConfig   `yaml:"table" json:"table" mapstructure:"table"`
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
	Source  SourceConfig  `yaml:"source" json:"source" mapstructure:"source"`
	Sink    SinkConfig    `yaml:"sink" json:"sink" mapstructure:"sink"`
	Slots   []SlotConfig  `yaml:"slots" json:"slots" mapstructure:"slots"`
}

// TableConfig is the table dialect.
type TableConfig struct {
	// Separator is a single character; empty means ','.
	Separator  string `yaml:"separator" json:"separator" mapstructure:"separator"`
	Multiline  bool   `yaml:"multiline" json:"multiline" mapstructure:"multiline"`
	HeaderRows int    `yaml:"header_rows" json:"header_rows" mapstructure:"header_rows"`
	// LineEnding is "lf" or "crlf" and applies to written tables.
	LineEnding string `yaml:"line_ending" json:"line_ending" mapstructure:"line_ending"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// TracingConfig enables OpenTelemetry spans for pipeline stages.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// SamplingRate is the fraction of runs traced, between 0 and 1.
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate" mapstructure:"sampling_rate"`
	Pretty       bool    `yaml:"pretty" json:"pretty" mapstructure:"pretty"`
}

// SourceConfig configures table loaders.
type SourceConfig struct {
	BaseDir     string        `yaml:"base_dir" json:"base_dir" mapstructure:"base_dir"`
	HTTPTimeout time.Duration `yaml:"http_timeout" json:"http_timeout" mapstructure:"http_timeout"`
	S3          S3Config      `yaml:"s3" json:"s3" mapstructure:"s3"`
	GCS         GCSConfig     `yaml:"gcs" json:"gcs" mapstructure:"gcs"`
}

// S3Config configures the S3 loader.
type S3Config struct {
	Region       string `yaml:"region" json:"region" mapstructure:"region"`
	Endpoint     string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" json:"use_path_style" mapstructure:"use_path_style"`
}

// GCSConfig configures the Cloud Storage loader.
type GCSConfig struct {
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// SinkConfig selects and configures the dataset sink.
type SinkConfig struct {
	Kind string `yaml:"kind" json:"kind" mapstructure:"kind"`
	// Dir is the output directory of file sinks.
	Dir    string `yaml:"dir" json:"dir" mapstructure:"dir"`
	Pretty bool   `yaml:"pretty" json:"pretty" mapstructure:"pretty"`
	// Compression applies to file sinks: none, gzip, zstd, s2, snappy or lz4.
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
	// DSN is the connection string of database sinks.
	DSN        string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	Database   string `yaml:"database" json:"database" mapstructure:"database"`
	Table      string `yaml:"table" json:"table" mapstructure:"table"`
	Collection string `yaml:"collection" json:"collection" mapstructure:"collection"`
	// Project and CredentialsFile configure the BigQuery sink, whose dataset
	// is Database.
	Project         string `yaml:"project" json:"project" mapstructure:"project"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// SlotConfig names one table to process. URI is resolved by the source
// registry; Name is the slot the decoded dataset is stored under.
type SlotConfig struct {
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	URI  string `yaml:"uri" json:"uri" mapstructure:"uri"`
}

// Default returns a configuration that parses comma separated tables from
// the working directory and writes JSON files to ./out.
func Default() *Config {
	return &Config{
		Table: TableConfig{
			Separator:  ",",
			Multiline:  true,
			HeaderRows: csvtable.MinHeaderRows,
			LineEnding: "lf",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Tracing: TracingConfig{
			SamplingRate: 1,
		},
		Source: SourceConfig{
			BaseDir:     ".",
			HTTPTimeout: 30 * time.Second,
		},
		Sink: SinkConfig{
			Kind:       SinkJSON,
			Dir:        "out",
			Table:      "csvconf_assets",
			Database:   "csvconf",
			Collection: "assets",
		},
	}
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Table.Separator) > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "table.separator must be a single character, got %q", c.Table.Separator)
	}
	switch c.Table.Separator {
	case `"`, "\n", "\r":
		return errors.Newf(errors.ErrorTypeConfig, "table.separator cannot be %q", c.Table.Separator)
	}
	if c.Table.HeaderRows != 0 && c.Table.HeaderRows < csvtable.MinHeaderRows {
		return errors.Newf(errors.ErrorTypeConfig, "table.header_rows must be at least %d", csvtable.MinHeaderRows)
	}
	switch strings.ToLower(c.Table.LineEnding) {
	case "", "lf", "crlf":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "table.line_ending must be lf or crlf, got %q", c.Table.LineEnding)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "tracing.sampling_rate must be between 0 and 1, got %g", c.Tracing.SamplingRate)
	}
	if c.Source.HTTPTimeout < 0 {
		return errors.New(errors.ErrorTypeConfig, "source.http_timeout cannot be negative")
	}

	switch c.Sink.Kind {
	case SinkJSON, SinkYAML, SinkArrow:
		if c.Sink.Dir == "" {
			return errors.Newf(errors.ErrorTypeConfig, "sink.dir is required for %s sink", c.Sink.Kind)
		}
		if _, err := compression.ParseAlgorithm(c.Sink.Compression); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid sink.compression")
		}
	case SinkPostgres, SinkMongo, SinkMySQL:
		if c.Sink.DSN == "" {
			return errors.Newf(errors.ErrorTypeConfig, "sink.dsn is required for %s sink", c.Sink.Kind)
		}
	case SinkBigQuery:
		if c.Sink.Project == "" || c.Sink.Database == "" {
			return errors.New(errors.ErrorTypeConfig, "sink.project and sink.database are required for bigquery sink")
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown sink kind %q", c.Sink.Kind).
			WithDetail("kind", c.Sink.Kind)
	}

	seen := make(map[string]bool, len(c.Slots))
	for i, slot := range c.Slots {
		if slot.Name == "" || slot.URI == "" {
			return errors.Newf(errors.ErrorTypeConfig, "slots[%d] needs both name and uri", i)
		}
		if seen[slot.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "slot %q is listed twice", slot.Name)
		}
		seen[slot.Name] = true
	}
	return nil
}

// SeparatorRune returns the configured separator, ',' when unset.
func (t TableConfig) SeparatorRune() rune {
	if t.Separator == "" {
		return csvtable.DefaultSeparator
	}
	r, _ := utf8.DecodeRuneInString(t.Separator)
	return r
}

// Ending returns the configured line ending, LF when unset.
func (t TableConfig) Ending() csvtable.LineEnding {
	if strings.EqualFold(t.LineEnding, "crlf") {
		return csvtable.CRLF
	}
	return csvtable.LF
}

// Options converts the dialect to csvtable options for parsing and writing.
func (t TableConfig) Options() []csvtable.Option {
	return []csvtable.Option{
		csvtable.WithSeparator(t.SeparatorRune()),
		csvtable.WithMultiline(t.Multiline),
		csvtable.WithHeaderRows(t.HeaderRows),
		csvtable.WithLineEnding(t.Ending()),
	}
}

// ObservabilityConfig converts the tracing section for observability.InitTracing.
func (t TracingConfig) ObservabilityConfig() observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:  "csvconf",
		SamplingRate: t.SamplingRate,
		Pretty:       t.Pretty,
	}
}

// LoggerConfig converts the logging section to a logger.Config.
func (l LoggingConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       l.Level,
		Encoding:    l.Encoding,
		Development: l.Development,
	}
}
