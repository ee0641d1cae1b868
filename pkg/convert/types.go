package convert

import (
	"reflect"
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// Kind discriminates the variants of Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindEnum
	KindArray
	KindList
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	}
	return "invalid"
}

// Type is a parsed type descriptor. The zero Type is invalid; obtain one
// from Registry.Parse, Registry.TypeOf or the constructors below.
type Type struct {
	kind   Kind
	scalar Scalar
	elem   *Type
	elems  []Type
	enum   *EnumDef
}

// ScalarOf returns the Type of a built-in scalar.
func ScalarOf(s Scalar) Type {
	return Type{kind: KindScalar, scalar: s}
}

// EnumOf returns the Type of a registered enum.
func EnumOf(def *EnumDef) Type {
	return Type{kind: KindEnum, enum: def}
}

// ArrayOf returns the Type T[].
func ArrayOf(elem Type) Type {
	return Type{kind: KindArray, elem: &elem}
}

// ListOf returns the Type List<T>.
func ListOf(elem Type) Type {
	return Type{kind: KindList, elem: &elem}
}

// TupleOf returns the Type Tuple<T1,...,Tn>.
func TupleOf(elems ...Type) Type {
	return Type{kind: KindTuple, elems: append([]Type(nil), elems...)}
}

func (t Type) Kind() Kind     { return t.kind }
func (t Type) Scalar() Scalar { return t.scalar }
func (t Type) Enum() *EnumDef { return t.enum }

// Elem returns the element type of an array or list, and the zero Type otherwise.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Elems returns the position types of a tuple.
func (t Type) Elems() []Type {
	return append([]Type(nil), t.elems...)
}

// Valid reports whether t was produced by a constructor or the parser.
func (t Type) Valid() bool {
	return t.kind != KindInvalid
}

// String renders the canonical descriptor: "int", "Color[]", "List<string>",
// "Tuple<float,string>".
func (t Type) String() string {
	var b strings.Builder
	t.writeTo(&b)
	return b.String()
}

func (t Type) writeTo(b *strings.Builder) {
	switch t.kind {
	case KindScalar:
		b.WriteString(t.scalar.String())
	case KindEnum:
		b.WriteString(t.enum.Name)
	case KindArray:
		t.elem.writeTo(b)
		b.WriteString("[]")
	case KindList:
		b.WriteString("List<")
		t.elem.writeTo(b)
		b.WriteByte('>')
	case KindTuple:
		b.WriteString("Tuple<")
		for i, e := range t.elems {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeTo(b)
		}
		b.WriteByte('>')
	default:
		b.WriteString("invalid")
	}
}

// GoType returns the Go type of a decoded value.
func (t Type) GoType() reflect.Type {
	switch t.kind {
	case KindScalar:
		return t.scalar.GoType()
	case KindEnum:
		return t.enum.goType()
	case KindArray, KindList:
		if et := t.elem.GoType(); et != nil {
			return reflect.SliceOf(et)
		}
	case KindTuple:
		return reflect.TypeFor[Tuple]()
	}
	return nil
}

// Zero returns the default value of the type, used for missing tuple
// positions and unparseable enum text.
func (t Type) Zero() any {
	switch t.kind {
	case KindArray, KindList:
		return t.emptySlice().Interface()
	case KindTuple:
		out := make(Tuple, len(t.elems))
		for i, e := range t.elems {
			out[i] = e.Zero()
		}
		return out
	}
	if gt := t.GoType(); gt != nil {
		return reflect.Zero(gt).Interface()
	}
	return nil
}

func (t Type) emptySlice() reflect.Value {
	return reflect.MakeSlice(t.GoType(), 0, 0)
}

// Decode converts one cell. Scalars never fail. An enum_parse error is a
// diagnostic: the returned value is still usable (the zero member, or the
// container with that element zeroed). Only an invalid Type aborts.
func (t Type) Decode(cell string) (any, error) {
	switch t.kind {
	case KindScalar:
		info, ok := scalarTable[t.scalar]
		if !ok {
			break
		}
		return info.decode(cell), nil
	case KindEnum:
		return t.enum.decode(cell)
	case KindArray, KindList:
		return t.decodeSlice(cell)
	case KindTuple:
		return t.decodeTuple(cell)
	}
	return nil, errors.New(errors.ErrorTypeUnsupportedType, "cannot decode with an invalid type")
}

func (t Type) decodeSlice(cell string) (any, error) {
	parts := ArraySplit(cell)
	out := reflect.MakeSlice(t.GoType(), len(parts), len(parts))
	var diag error
	for i, part := range parts {
		v, err := t.elem.Decode(part)
		if err != nil {
			if !errors.IsType(err, errors.ErrorTypeEnumParse) {
				return nil, err
			}
			if diag == nil {
				diag = err
			}
		}
		if v != nil {
			out.Index(i).Set(reflect.ValueOf(v))
		}
	}
	return out.Interface(), diag
}

func (t Type) decodeTuple(cell string) (any, error) {
	parts := FieldSplit(cell)
	out := make(Tuple, len(t.elems))
	var diag error
	for i, e := range t.elems {
		if i >= len(parts) {
			out[i] = e.Zero()
			continue
		}
		v, err := e.Decode(parts[i])
		if err != nil {
			if !errors.IsType(err, errors.ErrorTypeEnumParse) {
				return nil, err
			}
			if diag == nil {
				diag = err
			}
		}
		out[i] = v
	}
	return out, diag
}
