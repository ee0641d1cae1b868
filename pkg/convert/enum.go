package convert

import (
	"reflect"
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// Integer is the set of underlying types an enum can be declared with.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumDef describes a named enumeration: its descriptor name, member names
// and the Go type decoded values carry.
type EnumDef struct {
	Name    string
	members map[string]int64
	typ     reflect.Type
}

// NewEnum defines an enum whose decoded values are plain ints.
func NewEnum(name string, members map[string]int64) *EnumDef {
	m := make(map[string]int64, len(members))
	for k, v := range members {
		m[k] = v
	}
	return &EnumDef{Name: name, members: m}
}

// EnumFor defines an enum backed by the Go type E. Decoded values are of
// type E, and Registry.TypeOf maps E back to this enum.
//
//	type Rarity int
//	const (Common Rarity = iota; Rare)
//	def := convert.EnumFor("Rarity", map[string]Rarity{"Common": Common, "Rare": Rare})
func EnumFor[E Integer](name string, members map[string]E) *EnumDef {
	m := make(map[string]int64, len(members))
	for k, v := range members {
		m[k] = int64(v)
	}
	return &EnumDef{Name: name, members: m, typ: reflect.TypeFor[E]()}
}

// Members returns a copy of the name to value mapping.
func (d *EnumDef) Members() map[string]int64 {
	out := make(map[string]int64, len(d.members))
	for k, v := range d.members {
		out[k] = v
	}
	return out
}

func (d *EnumDef) goType() reflect.Type {
	if d.typ != nil {
		return d.typ
	}
	return reflect.TypeFor[int]()
}

func (d *EnumDef) value(n int64) any {
	return reflect.ValueOf(n).Convert(d.goType()).Interface()
}

// decode resolves integer text as the ordinal, then member names. Comma
// separated names are OR-ed together for flag enums.
func (d *EnumDef) decode(cell string) (any, error) {
	text := strings.TrimSpace(cell)
	if n, ok := parseOrdinal(text); ok {
		return d.value(n), nil
	}

	var n int64
	for _, name := range strings.Split(text, ",") {
		v, ok := d.members[strings.TrimSpace(name)]
		if !ok {
			return d.value(0), errors.Newf(errors.ErrorTypeEnumParse,
				"%q is not a member of enum %s", cell, d.Name).
				WithDetail("enum", d.Name).
				WithDetail("value", cell)
		}
		n |= v
	}
	return d.value(n), nil
}

func parseOrdinal(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	digits := s
	if s[0] == '-' || s[0] == '+' {
		digits = s[1:]
	}
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	return DecodeLong(s), true
}
