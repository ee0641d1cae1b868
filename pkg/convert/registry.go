package convert

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
)

// scalarNames maps lower-cased names and aliases to scalars.
var scalarNames = func() map[string]Scalar {
	m := make(map[string]Scalar, len(scalarTable)*2)
	for s, info := range scalarTable {
		m[strings.ToLower(info.name)] = s
		for _, alias := range info.aliases {
			m[strings.ToLower(alias)] = s
		}
	}
	return m
}()

// kindScalars maps Go kinds to scalars for the encode direction. rune and
// int32 are the same Go type, so char columns need an explicit descriptor.
var kindScalars = map[reflect.Kind]Scalar{
	reflect.Bool:    ScalarBool,
	reflect.String:  ScalarString,
	reflect.Int8:    ScalarSByte,
	reflect.Uint8:   ScalarByte,
	reflect.Int16:   ScalarShort,
	reflect.Int:     ScalarInt,
	reflect.Int32:   ScalarInt,
	reflect.Uint:    ScalarUInt,
	reflect.Uint32:  ScalarUInt,
	reflect.Int64:   ScalarLong,
	reflect.Float32: ScalarFloat,
	reflect.Float64: ScalarDouble,
}

var structScalars = map[reflect.Type]Scalar{
	reflect.TypeFor[Vector2]():    ScalarVector2,
	reflect.TypeFor[Vector3]():    ScalarVector3,
	reflect.TypeFor[Vector4]():    ScalarVector4,
	reflect.TypeFor[Vector2Int](): ScalarVector2Int,
	reflect.TypeFor[Vector3Int](): ScalarVector3Int,
	reflect.TypeFor[Quaternion](): ScalarQuaternion,
	reflect.TypeFor[Color]():      ScalarColor,
}

// Registry resolves type descriptors. It is immutable after NewRegistry
// returns and safe for concurrent use.
type Registry struct {
	enums  map[string]*EnumDef
	folded map[string]*EnumDef
	byGo   map[reflect.Type]*EnumDef
}

// Option configures a Registry under construction.
type Option func(*Registry)

// WithEnum registers enum definitions. The first definition of a name wins.
// Names that collide with a built-in scalar are unreachable, since scalars
// take precedence.
func WithEnum(defs ...*EnumDef) Option {
	return func(r *Registry) {
		log := logger.Get().With(zap.String("component", "convert_registry"))
		for _, def := range defs {
			if def == nil || def.Name == "" {
				continue
			}
			if _, exists := r.enums[def.Name]; exists {
				log.Warn("enum already registered, keeping first definition", zap.String("enum", def.Name))
				continue
			}
			if _, shadowed := scalarNames[strings.ToLower(def.Name)]; shadowed {
				log.Warn("enum name shadowed by built-in scalar", zap.String("enum", def.Name))
			}
			r.enums[def.Name] = def
			if _, ok := r.folded[strings.ToLower(def.Name)]; !ok {
				r.folded[strings.ToLower(def.Name)] = def
			}
			if def.typ != nil {
				r.byGo[def.typ] = def
			}
		}
	}
}

// NewRegistry builds a registry holding the built-in scalars and any enums
// passed through options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		enums:  make(map[string]*EnumDef),
		folded: make(map[string]*EnumDef),
		byGo:   make(map[reflect.Type]*EnumDef),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry with built-in scalars only.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Enum looks up a registered enum by exact name.
func (r *Registry) Enum(name string) (*EnumDef, bool) {
	def, ok := r.enums[name]
	return def, ok
}

// EnumNames lists registered enums in sorted order.
func (r *Registry) EnumNames() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse turns a descriptor into a Type. Anything outside the grammar yields
// an unsupported_type error.
func (r *Registry) Parse(descriptor string) (Type, error) {
	if strings.TrimSpace(descriptor) == "" {
		return Type{}, errors.New(errors.ErrorTypeUnsupportedType, "empty type descriptor")
	}
	p := &descriptorParser{reg: r, src: descriptor}
	return p.parse()
}

// CanConvert reports whether descriptor parses.
func (r *Registry) CanConvert(descriptor string) bool {
	_, err := r.Parse(descriptor)
	return err == nil
}

// Decode parses descriptor and decodes cell with it.
func (r *Registry) Decode(descriptor, cell string) (any, error) {
	t, err := r.Parse(descriptor)
	if err != nil {
		return nil, err
	}
	return t.Decode(cell)
}

func (r *Registry) resolve(name string) (Type, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "System."))
	if s, ok := scalarNames[key]; ok {
		return ScalarOf(s), nil
	}
	if def, ok := r.enums[name]; ok {
		return EnumOf(def), nil
	}
	if def, ok := r.folded[strings.ToLower(name)]; ok {
		return EnumOf(def), nil
	}
	return Type{}, errors.Newf(errors.ErrorTypeUnsupportedType, "unknown type %s", name).
		WithDetail("type", name)
}

// TypeOf maps a Go type to its descriptor Type. Registered enum types,
// the vector and color structs, integer, float, bool and string kinds, and
// slices of those are supported. Tuple has no recoverable element types and
// is rejected.
func (r *Registry) TypeOf(rt reflect.Type) (Type, error) {
	if rt == nil {
		return Type{}, errors.New(errors.ErrorTypeUnsupportedType, "nil type")
	}
	if def, ok := r.byGo[rt]; ok {
		return EnumOf(def), nil
	}
	if s, ok := structScalars[rt]; ok {
		return ScalarOf(s), nil
	}
	if rt == reflect.TypeFor[Tuple]() {
		return Type{}, errors.New(errors.ErrorTypeUnsupportedType,
			"tuple element types cannot be derived from Go types, declare the descriptor explicitly")
	}
	if rt.Kind() == reflect.Slice {
		elem, err := r.TypeOf(rt.Elem())
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}
	if s, ok := kindScalars[rt.Kind()]; ok {
		return ScalarOf(s), nil
	}
	return Type{}, errors.Newf(errors.ErrorTypeUnsupportedType, "no descriptor for Go type %s", rt).
		WithDetail("go_type", rt.String())
}

// Descriptor renders the canonical descriptor for a Go type.
func (r *Registry) Descriptor(rt reflect.Type) (string, error) {
	t, err := r.TypeOf(rt)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
