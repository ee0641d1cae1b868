package materialize

import (
	"reflect"
	"strings"
	"sync"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// TagName is the struct tag StructSchema reads.
const TagName = "csv"

var (
	tagEscaper   = strings.NewReplacer("%", "%25", ",", "%2C", "`", "%60")
	tagUnescaper = strings.NewReplacer("%25", "%", "%2C", ",", "%2c", ",", "%60", "`")
)

// TagColumn returns column name as it is written in a csv struct tag. A
// comma would end the name, so commas, backquotes and percent signs are
// percent-encoded: "Hp,Max" is written as "Hp%2CMax".
func TagColumn(name string) string {
	return tagEscaper.Replace(name)
}

// Field binds one column name to a setter on R.
type Field[R any] struct {
	Name       string
	Descriptor string
	goType     reflect.Type
	assign     func(*R, any) error
}

// Bind declares a field of R decoded with descriptor and stored by set.
// An empty descriptor is derived from V when the schema is built.
func Bind[R, V any](name, descriptor string, set func(*R, V)) Field[R] {
	return Field[R]{
		Name:       name,
		Descriptor: descriptor,
		goType:     reflect.TypeFor[V](),
		assign: func(r *R, v any) error {
			typed, err := coerce[V](v)
			if err != nil {
				return err
			}
			set(r, typed)
			return nil
		},
	}
}

// Schema is the resolved field list of R. It is immutable and safe for
// concurrent use.
type Schema[R any] struct {
	fields []Field[R]
	types  []convert.Type
	byName map[string]int
}

// NewSchema resolves every field's descriptor against reg. A descriptor
// outside the grammar, or a duplicate field name, fails the whole schema.
func NewSchema[R any](reg *convert.Registry, fields ...Field[R]) (*Schema[R], error) {
	if reg == nil {
		reg = convert.Default()
	}
	s := &Schema[R]{
		fields: make([]Field[R], 0, len(fields)),
		types:  make([]convert.Type, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" || f.assign == nil {
			return nil, errors.New(errors.ErrorTypeConfig, "schema field needs a name and a setter")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeConfig, "field %q declared twice", f.Name).
				WithDetail("field", f.Name)
		}

		var (
			t   convert.Type
			err error
		)
		if f.Descriptor == "" {
			t, err = reg.TypeOf(f.goType)
		} else {
			t, err = reg.Parse(f.Descriptor)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedType, "field "+f.Name)
		}
		if gt := t.GoType(); gt != nil && f.goType != nil && !convertibleType(gt, f.goType) {
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"field %s: %s values cannot be stored in %s", f.Name, t, f.goType).
				WithDetail("field", f.Name)
		}
		f.Descriptor = t.String()

		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
		s.types = append(s.types, t)
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Schema[R]) Len() int { return len(s.fields) }

// Names returns field names in declaration order.
func (s *Schema[R]) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Descriptors returns canonical descriptors in declaration order.
func (s *Schema[R]) Descriptors() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Descriptor
	}
	return out
}

// Type returns the resolved type of the named field.
func (s *Schema[R]) Type(name string) (convert.Type, bool) {
	i, ok := s.byName[name]
	if !ok {
		return convert.Type{}, false
	}
	return s.types[i], true
}

// structField is one exported struct field mapped to a column.
type structField struct {
	name   string
	index  []int
	goType reflect.Type
	typ    convert.Type
}

type schemaKey struct {
	rt  reflect.Type
	reg *convert.Registry
}

var structSchemas sync.Map // schemaKey -> any (*Schema[R])

// StructSchema derives a schema from the exported fields of struct R.
//
// The tag `csv:"Name,type=Descriptor"` renames the column and overrides the
// descriptor (type must come last); `csv:"-"` skips the field. Names
// containing commas are percent-encoded, see TagColumn. Without a type option the
// descriptor is derived from the Go field type. Schemas are built once per
// type and registry.
func StructSchema[R any](reg *convert.Registry) (*Schema[R], error) {
	if reg == nil {
		reg = convert.Default()
	}
	rt := reflect.TypeFor[R]()
	key := schemaKey{rt: rt, reg: reg}
	if cached, ok := structSchemas.Load(key); ok {
		return cached.(*Schema[R]), nil
	}

	sfs, err := structFields(reg, rt)
	if err != nil {
		return nil, err
	}
	fields := make([]Field[R], 0, len(sfs))
	for _, sf := range sfs {
		fields = append(fields, Field[R]{
			Name:       sf.name,
			Descriptor: sf.typ.String(),
			goType:     sf.goType,
			assign:     structSetter[R](sf),
		})
	}
	s, err := NewSchema(reg, fields...)
	if err != nil {
		return nil, err
	}
	actual, _ := structSchemas.LoadOrStore(key, s)
	return actual.(*Schema[R]), nil
}

func structSetter[R any](sf structField) func(*R, any) error {
	return func(r *R, v any) error {
		dst := reflect.ValueOf(r).Elem().FieldByIndex(sf.index)
		conv, ok := assignable(reflect.ValueOf(v), sf.goType)
		if !ok {
			return errors.Newf(errors.ErrorTypeUnsupportedType, "cannot assign %T to field %s (%s)", v, sf.name, sf.goType)
		}
		dst.Set(conv)
		return nil
	}
}

func structFields(reg *convert.Registry, rt reflect.Type) ([]structField, error) {
	if rt.Kind() != reflect.Struct {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "%s is not a struct", rt).
			WithDetail("go_type", rt.String())
	}

	var out []structField
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		} else {
			name = tagUnescaper.Replace(name)
		}

		// type= is the last option since descriptors contain commas
		var descriptor string
		if i := strings.Index(opts, "type="); i >= 0 {
			descriptor = strings.TrimSpace(opts[i+len("type="):])
		}

		var (
			t   convert.Type
			err error
		)
		if descriptor != "" {
			t, err = reg.Parse(descriptor)
		} else {
			t, err = reg.TypeOf(f.Type)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedType, rt.Name()+"."+f.Name)
		}
		if gt := t.GoType(); gt != nil {
			if !convertibleType(gt, f.Type) {
				return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
					"%s values cannot be stored in %s.%s (%s)", t, rt.Name(), f.Name, f.Type)
			}
		}
		out = append(out, structField{name: name, index: f.Index, goType: f.Type, typ: t})
	}
	return out, nil
}

var errNilType = errors.New(errors.ErrorTypeUnsupportedType, "nil type")
