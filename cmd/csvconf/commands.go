package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/csvconf/internal/pipeline"
	"github.com/ajitpratap0/csvconf/pkg/codegen"
	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/sink"
	"github.com/ajitpratap0/csvconf/pkg/source"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "csvconf v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) decodeCommand() *cobra.Command {
	var pretty, lines bool

	cmd := &cobra.Command{
		Use:   "decode <uri>",
		Short: "Decode a table and print its records as JSON",
		Long: `Decode a table with its own descriptor row and print one JSON object per record.
Columns whose descriptor is not understood are skipped and reported on stderr.

Example:
  csvconf decode tables/items.csv --pretty
  csvconf decode s3://assets/items.csv.zst --lines`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pipeline.New(source.NewRegistry(a.cfg.Source), nil, &pipeline.Config{
				Workers:      1,
				TableOptions: a.cfg.Table.Options(),
				SinkName:     "stdout",
			})
			ds, err := p.Decode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(ds.Skipped) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped columns: %s\n", strings.Join(ds.Skipped, ", "))
			}

			out := cmd.OutOrStdout()
			asset, err := sink.NewAsset("stdout", ds)
			if err != nil {
				return err
			}
			if lines {
				values := make([]interface{}, len(asset.Records))
				for i, r := range asset.Records {
					values[i] = r
				}
				data, err := jsonpool.MarshalLines(values)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			se := jsonpool.NewStreamingEncoder(out, true)
			se.SetPretty(pretty, "  ")
			for _, r := range asset.Records {
				if err := se.Encode(r); err != nil {
					return err
				}
			}
			return se.Close()
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON array")
	cmd.Flags().BoolVar(&lines, "lines", false, "Print line-delimited JSON instead of an array")
	return cmd
}

func (a *app) convertCommand() *cobra.Command {
	var kind, dir string
	var workers int

	cmd := &cobra.Command{
		Use:   "convert [slot=uri ...]",
		Short: "Decode tables and store them in the configured sink",
		Long: `Decode every slot and store it in the sink. Slots come from the configuration
file and from slot=uri arguments.

Example:
  csvconf convert -c csvconf.yaml
  csvconf convert items=tables/items.csv levels=xlsx://book.xlsx#Levels --sink yaml --out build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if kind != "" {
				cfg.Sink.Kind = kind
			}
			if dir != "" {
				cfg.Sink.Dir = dir
			}
			slots, err := parseSlots(cfg.Slots, args)
			if err != nil {
				return err
			}
			cfg.Slots = slots
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(cfg.Slots) == 0 {
				return errors.New(errors.ErrorTypeConfig, "no slots to convert")
			}
			return runConvert(cmd, &cfg, workers)
		},
	}
	cmd.Flags().StringVar(&kind, "sink", "", "Sink kind (json, yaml, arrow, postgres, mysql, mongo, bigquery)")
	cmd.Flags().StringVarP(&dir, "out", "o", "", "Output directory of file sinks")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Slots processed in parallel")
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, workers int) error {
	ctx := cmd.Context()
	s, err := sink.New(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer s.Close()

	p := pipeline.New(source.NewRegistry(cfg.Source), s, &pipeline.Config{
		Workers:      workers,
		TableOptions: cfg.Table.Options(),
		SinkName:     cfg.Sink.Kind,
	})
	report, err := p.Run(ctx, cfg.Slots)
	for _, r := range report.Results {
		status := "ok"
		if r.Err != nil {
			status = "failed: " + r.Err.Error()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %6d records  %s\n", r.Name, r.Records, status)
	}
	return err
}

// parseSlots appends slot=uri arguments to the configured slots. An argument
// names a slot already configured replaces its uri.
func parseSlots(configured []config.SlotConfig, args []string) ([]config.SlotConfig, error) {
	slots := append([]config.SlotConfig(nil), configured...)
	for _, arg := range args {
		name, uri, ok := strings.Cut(arg, "=")
		if !ok || name == "" || uri == "" {
			return nil, errors.Newf(errors.ErrorTypeConfig, "slot argument %q must have the form slot=uri", arg)
		}
		replaced := false
		for i := range slots {
			if slots[i].Name == name {
				slots[i].URI = uri
				replaced = true
			}
		}
		if !replaced {
			slots = append(slots, config.SlotConfig{Name: name, URI: uri})
		}
	}
	return slots, nil
}

func (a *app) skeletonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "skeleton <name:type> ...",
		Short: "Print an empty table for the given fields",
		Long: `Print the two metadata rows of a table: field names and canonical type descriptors.

Example:
  csvconf skeleton Id:int Name:string Tags:List<string> "Reward:Tuple<float,string>"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := convert.Default()
			w := csvtable.NewWriter(a.cfg.Table.Options()...)
			for _, arg := range args {
				name, desc, ok := strings.Cut(arg, ":")
				if !ok || name == "" {
					return errors.Newf(errors.ErrorTypeConfig, "field %q must have the form name:type", arg)
				}
				t, err := reg.Parse(desc)
				if err != nil {
					return err
				}
				w.AddHeader(name).AddDescription(t.String())
			}
			_, err := w.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func (a *app) genCommand() *cobra.Command {
	var pkg, typeName, out string

	cmd := &cobra.Command{
		Use:   "gen <uri>",
		Short: "Generate a Go struct for a table",
		Long: `Generate a Go source file declaring a struct with one field per column.
Field comments come from the first metadata row after the descriptors.

Example:
  csvconf gen tables/items.csv --type Item --package assets -o item_gen.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := source.NewRegistry(a.cfg.Source).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if typeName == "" {
				typeName = codegen.Identifier(tableName(args[0]))
			}
			src, err := codegen.Generate(text, codegen.Options{
				Package:  pkg,
				TypeName: typeName,
			}, a.cfg.Table.Options()...)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(src)
				return err
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return errors.Wrap(err, errors.ErrorTypeFile, "failed to write "+out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "config", "Package clause of the generated file")
	cmd.Flags().StringVar(&typeName, "type", "", "Struct name, derived from the table name when empty")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, stdout when empty")
	return cmd
}

// tableName returns the base name of uri without extensions or sheet.
func tableName(uri string) string {
	_, id := source.Split(uri)
	book, sheet, _ := strings.Cut(id, "#")
	if sheet != "" {
		return sheet
	}
	id = book
	if i := strings.LastIndexAny(id, "/\\"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.IndexByte(id, '.'); i > 0 {
		id = id[:i]
	}
	return id
}
