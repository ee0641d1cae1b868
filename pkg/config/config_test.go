package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ',', cfg.Table.SeparatorRune())
	assert.Equal(t, csvtable.LF, cfg.Table.Ending())
	assert.Equal(t, "info", cfg.Logging.LoggerConfig().Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"long separator", func(c *Config) { c.Table.Separator = ";;" }},
		{"quote separator", func(c *Config) { c.Table.Separator = `"` }},
		{"one header row", func(c *Config) { c.Table.HeaderRows = 1 }},
		{"bad line ending", func(c *Config) { c.Table.LineEnding = "cr" }},
		{"negative timeout", func(c *Config) { c.Source.HTTPTimeout = -time.Second }},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "kafka" }},
		{"file sink without dir", func(c *Config) { c.Sink.Dir = "" }},
		{"database sink without dsn", func(c *Config) { c.Sink.Kind = SinkPostgres }},
		{"unknown sink compression", func(c *Config) { c.Sink.Compression = "brotli" }},
		{"mysql sink without dsn", func(c *Config) { c.Sink.Kind = SinkMySQL }},
		{"bigquery sink without project", func(c *Config) { c.Sink.Kind = SinkBigQuery }},
		{"sampling rate above one", func(c *Config) { c.Tracing.SamplingRate = 1.5 }},
		{"slot without uri", func(c *Config) { c.Slots = []SlotConfig{{Name: "items"}} }},
		{"duplicate slot", func(c *Config) {
			c.Slots = []SlotConfig{{Name: "items", URI: "a.csv"}, {Name: "items", URI: "b.csv"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestValidateDatabaseSinks(t *testing.T) {
	cfg := Default()
	cfg.Sink.Kind = SinkBigQuery
	cfg.Sink.Project = "game-assets"
	assert.NoError(t, cfg.Validate())

	cfg.Sink.Kind = SinkMySQL
	cfg.Sink.DSN = "csvconf:secret@tcp(localhost:3306)/assets"
	assert.NoError(t, cfg.Validate())

	tc := TracingConfig{SamplingRate: 0.25, Pretty: true}.ObservabilityConfig()
	assert.Equal(t, "csvconf", tc.ServiceName)
	assert.Equal(t, 0.25, tc.SamplingRate)
	assert.True(t, tc.Pretty)
}

func TestTableOptions(t *testing.T) {
	tc := TableConfig{Separator: ";", Multiline: false, HeaderRows: 3, LineEnding: "CRLF"}
	assert.Equal(t, ';', tc.SeparatorRune())
	assert.Equal(t, csvtable.CRLF, tc.Ending())

	tbl, err := csvtable.Parse("a;b\nint;int\nmeta;row\n1;\"2\n", tc.Options()...)
	require.NoError(t, err)
	assert.Len(t, tbl.MetaRows(), 1)
	assert.Equal(t, []string{"1", "2"}, tbl.Record(0).Cells())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CSVCONF_TEST_DSN", "postgres://localhost/config")
	dir := t.TempDir()
	path := filepath.Join(dir, "csvconf.yaml")
	content := `
table:
  separator: ";"
sink:
  kind: postgres
  dsn: ${CSVCONF_TEST_DSN}
  table: ${CSVCONF_TEST_TABLE:-assets}
source:
  http_timeout: 5s
slots:
  - name: items
    uri: items.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ";", cfg.Table.Separator)
	assert.True(t, cfg.Table.Multiline, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.Table.HeaderRows)
	assert.Equal(t, "postgres://localhost/config", cfg.Sink.DSN)
	assert.Equal(t, "assets", cfg.Sink.Table)
	assert.Equal(t, 5*time.Second, cfg.Source.HTTPTimeout)
	assert.Equal(t, []SlotConfig{{Name: "items", URI: "items.csv"}}, cfg.Slots)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sink: [unclosed"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sink:\n  kind: nope\n"), 0o600))
	_, err = LoadConfig(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Slots = []SlotConfig{{Name: "levels", URI: "gs://bucket/levels.csv"}}
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("CSVCONF_A", "alpha")
	assert.Equal(t, "x alpha y", substituteEnvVars("x ${CSVCONF_A} y"))
	assert.Equal(t, "fallback", substituteEnvVars("${CSVCONF_UNSET_VAR:-fallback}"))
	assert.Equal(t, "", substituteEnvVars("${CSVCONF_UNSET_VAR}"))
	assert.Equal(t, "alpha-alpha", substituteEnvVars("${CSVCONF_A}-${CSVCONF_A}"))
	assert.Equal(t, "open ${", substituteEnvVars("open ${"))
}
