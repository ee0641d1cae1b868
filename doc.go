// Package csvconf converts spreadsheet-authored configuration tables into
// typed Go records and back.
//
// A table is delimited text whose first row names the fields and whose
// second row declares their types. The remaining rows are records:
//
//	Id,Name,Rarity,Reward
//	int,string,Rarity,"Tuple<float,string>"
//	1,"Sword, long",Rare,0.5;gold
//
// Cells may be quoted, contain the separator, embed line breaks, and escape
// quotes by doubling them. Encoding a decoded row reproduces it byte for
// byte.
//
// # Quick Start
//
// Decode a table into a struct:
//
//	type Item struct {
//	    ID     int    `csv:"Id"`
//	    Name   string
//	    Rarity Rarity `csv:",type=Rarity"`
//	}
//
//	reg := convert.NewRegistry(convert.WithEnum(convert.EnumFor("Rarity", rarityNames)))
//	items, err := materialize.Records[Item](text, reg)
//
// Or decode any table with its own descriptor row and store it:
//
//	p := pipeline.New(source.NewRegistry(cfg.Source), jsonSink, nil)
//	report, err := p.Run(ctx, cfg.Slots)
//
// # Key Packages
//
//	pkg/csvtable     - Row splitting, cell codec, table reader and writer
//	pkg/convert      - Type descriptors, scalar and enum conversion registry
//	pkg/materialize  - Typed records, column projection, skeleton tables
//	pkg/codegen      - Go struct generation from table headers
//	pkg/source       - Table loaders: disk, embed.FS, HTTP, S3, GCS, XLSX
//	pkg/sink         - Dataset sinks: JSON, YAML, Arrow, PostgreSQL, MySQL,
//	                   BigQuery, MongoDB
//	pkg/config       - YAML configuration with ${VAR} substitution
//	pkg/errors       - Typed errors
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus collectors
//	pkg/observability - OpenTelemetry tracing
//
// # Command Line
//
//	csvconf decode tables/items.csv --pretty
//	csvconf convert -c csvconf.yaml
//	csvconf skeleton Id:int Name:string
//	csvconf gen tables/items.csv --type Item --package assets
//
// Flags may also be set through CSVCONF_* environment variables or a .env
// file.
package csvconf
