package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/observability"
)

// envPrefix prefixes environment overrides: CSVCONF_LOG_LEVEL, CSVCONF_SEPARATOR...
const envPrefix = "CSVCONF"

// app holds the state shared by subcommands.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	shutdown func(context.Context) error
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "csvconf",
		Short: "csvconf - typed configuration tables",
		Long: `csvconf converts spreadsheet-authored configuration tables into typed data.
A table's first row names the fields and its second row declares their types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-encoding", "", "Log encoding (json, console)")
	flags.String("separator", "", "Cell separator, a single character")
	flags.Int("header-rows", 0, "Number of metadata rows before the records")
	flags.String("base-dir", "", "Directory file:// and plain table paths are relative to")
	flags.Bool("trace", false, "Write OpenTelemetry spans of pipeline stages to stderr")

	root.AddCommand(
		a.versionCommand(),
		a.decodeCommand(),
		a.convertCommand(),
		a.skeletonCommand(),
		a.genCommand(),
	)
	return root
}

// setup loads the configuration, applies flag and environment overrides and
// initializes the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Encoding = "console"
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	override(a.v, "log-level", &cfg.Logging.Level)
	override(a.v, "log-encoding", &cfg.Logging.Encoding)
	override(a.v, "separator", &cfg.Table.Separator)
	override(a.v, "base-dir", &cfg.Source.BaseDir)
	if n := a.v.GetInt("header-rows"); n != 0 {
		cfg.Table.HeaderRows = n
	}
	if a.v.GetBool("trace") {
		cfg.Tracing.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	if err := logger.Init(cfg.Logging.LoggerConfig()); err != nil {
		return err
	}

	if cfg.Tracing.Enabled {
		tc := cfg.Tracing.ObservabilityConfig()
		tc.Output = cmd.ErrOrStderr()
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}
	return nil
}

func override(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
