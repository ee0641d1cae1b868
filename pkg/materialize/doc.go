// Package materialize turns parsed tables into typed records.
//
// A Schema[R] lists the fields of a record type R with their type
// descriptors and setters. Build one by hand with Bind, or derive one from
// struct tags with StructSchema:
//
//	type Item struct {
//		ID     int32        `csv:"Id"`
//		Name   string       `csv:"Name"`
//		Tint   convert.Color `csv:"Tint"`
//		Reward convert.Tuple `csv:"Reward,type=Tuple<int,string>"`
//	}
//
//	schema, err := materialize.StructSchema[Item](convert.Default())
//	items, err := materialize.All(tbl, schema)
//
// Columns are matched to fields by header name. Headers without a field are
// skipped, cells missing from short rows leave the zero value, and cells that
// do not decode cleanly are logged and counted without aborting. Structural
// problems (an absent table, an unknown projected column, an out of range
// index, an unsupported target type) return a nil result and a typed error.
//
// Dynamic decodes a table with its own descriptor row into a Dataset when no
// Go type exists, and Skeleton goes the other way, rendering a schema as the
// two header rows of an empty table.
package materialize
