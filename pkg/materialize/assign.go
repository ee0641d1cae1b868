package materialize

import (
	"reflect"

	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// assignable converts a decoded value to target. Numeric kinds convert to
// each other, slices convert element-wise, and named types convert to their
// underlying shape. Numbers never convert to strings.
func assignable(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(target), true
	}
	src := v.Type()
	switch {
	case src == target, src.AssignableTo(target):
		return v, true
	case src.Kind() == reflect.Slice && target.Kind() == reflect.Slice:
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			conv, ok := assignable(elem, target.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(conv)
		}
		return out, true
	case isNumeric(src.Kind()) && isNumeric(target.Kind()),
		src.Kind() == reflect.String && target.Kind() == reflect.String,
		src.Kind() == reflect.Bool && target.Kind() == reflect.Bool,
		src.Kind() == reflect.Struct && src.ConvertibleTo(target):
		return v.Convert(target), true
	}
	return reflect.Value{}, false
}

// convertibleType is the type-level form of assignable.
func convertibleType(src, target reflect.Type) bool {
	switch {
	case src == target, src.AssignableTo(target):
		return true
	case src.Kind() == reflect.Slice && target.Kind() == reflect.Slice:
		return convertibleType(src.Elem(), target.Elem())
	case isNumeric(src.Kind()) && isNumeric(target.Kind()),
		src.Kind() == reflect.String && target.Kind() == reflect.String,
		src.Kind() == reflect.Bool && target.Kind() == reflect.Bool,
		src.Kind() == reflect.Struct && src.ConvertibleTo(target):
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// coerce converts a decoded value to V.
func coerce[V any](v any) (V, error) {
	if typed, ok := v.(V); ok {
		return typed, nil
	}
	var zero V
	target := reflect.TypeFor[V]()
	conv, ok := assignable(reflect.ValueOf(v), target)
	if !ok {
		return zero, errors.Newf(errors.ErrorTypeUnsupportedType, "cannot assign %T to %s", v, target).
			WithDetail("go_type", target.String())
	}
	return conv.Interface().(V), nil
}
