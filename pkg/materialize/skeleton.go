package materialize

import (
	"reflect"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
)

// Skeleton renders a schema as an empty table: field names, then
// descriptors, no records.
func Skeleton[R any](s *Schema[R], opts ...csvtable.Option) *csvtable.Writer {
	return csvtable.NewWriter(opts...).
		AddHeader(s.Names()...).
		AddDescription(s.Descriptors()...)
}

// SkeletonOf renders the struct type rt as an empty table, reading the same
// tags as StructSchema.
func SkeletonOf(reg *convert.Registry, rt reflect.Type, opts ...csvtable.Option) (*csvtable.Writer, error) {
	if reg == nil {
		reg = convert.Default()
	}
	if rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil {
		return nil, errNilType
	}
	fields, err := structFields(reg, rt)
	if err != nil {
		return nil, err
	}
	w := csvtable.NewWriter(opts...)
	for _, f := range fields {
		w.AddHeader(f.name)
		w.AddDescription(f.typ.String())
	}
	return w, nil
}
