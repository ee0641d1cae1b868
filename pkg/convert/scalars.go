package convert

import (
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// FieldSeparator splits vector components and tuple positions.
	FieldSeparator = ";"
	// ArraySeparator splits array and list elements.
	ArraySeparator = "|"
)

// Scalar identifies one of the built-in, non-composite value types.
type Scalar uint8

const (
	ScalarInvalid Scalar = iota
	ScalarChar
	ScalarString
	ScalarBool
	ScalarSByte
	ScalarByte
	ScalarShort
	ScalarInt
	ScalarUInt
	ScalarLong
	ScalarFloat
	ScalarDouble
	ScalarVector2
	ScalarVector3
	ScalarVector4
	ScalarVector2Int
	ScalarVector3Int
	ScalarQuaternion
	ScalarColor
)

// scalarInfo is one row of the built-in conversion table.
type scalarInfo struct {
	name    string
	aliases []string
	goType  reflect.Type
	decode  func(string) any
}

var scalarTable = map[Scalar]scalarInfo{
	ScalarChar:       {"char", []string{"Char"}, reflect.TypeFor[rune](), func(s string) any { return DecodeChar(s) }},
	ScalarString:     {"string", []string{"String"}, reflect.TypeFor[string](), func(s string) any { return s }},
	ScalarBool:       {"bool", []string{"Boolean"}, reflect.TypeFor[bool](), func(s string) any { return DecodeBool(s) }},
	ScalarSByte:      {"sbyte", []string{"SByte", "int8"}, reflect.TypeFor[int8](), func(s string) any { return DecodeSByte(s) }},
	ScalarByte:       {"byte", []string{"Byte", "uint8"}, reflect.TypeFor[uint8](), func(s string) any { return DecodeByte(s) }},
	ScalarShort:      {"short", []string{"Int16"}, reflect.TypeFor[int16](), func(s string) any { return DecodeShort(s) }},
	ScalarInt:        {"int", []string{"Int32"}, reflect.TypeFor[int32](), func(s string) any { return DecodeInt(s) }},
	ScalarUInt:       {"uint", []string{"UInt32"}, reflect.TypeFor[uint32](), func(s string) any { return DecodeUInt(s) }},
	ScalarLong:       {"long", []string{"Int64"}, reflect.TypeFor[int64](), func(s string) any { return DecodeLong(s) }},
	ScalarFloat:      {"float", []string{"Single", "float32"}, reflect.TypeFor[float32](), func(s string) any { return DecodeFloat(s) }},
	ScalarDouble:     {"double", []string{"Double", "float64"}, reflect.TypeFor[float64](), func(s string) any { return DecodeDouble(s) }},
	ScalarVector2:    {"Vector2", nil, reflect.TypeFor[Vector2](), func(s string) any { return DecodeVector2(s) }},
	ScalarVector3:    {"Vector3", nil, reflect.TypeFor[Vector3](), func(s string) any { return DecodeVector3(s) }},
	ScalarVector4:    {"Vector4", nil, reflect.TypeFor[Vector4](), func(s string) any { return DecodeVector4(s) }},
	ScalarVector2Int: {"Vector2Int", nil, reflect.TypeFor[Vector2Int](), func(s string) any { return DecodeVector2Int(s) }},
	ScalarVector3Int: {"Vector3Int", nil, reflect.TypeFor[Vector3Int](), func(s string) any { return DecodeVector3Int(s) }},
	ScalarQuaternion: {"Quaternion", nil, reflect.TypeFor[Quaternion](), func(s string) any { return DecodeQuaternion(s) }},
	ScalarColor:      {"Color", nil, reflect.TypeFor[Color](), func(s string) any { return DecodeColor(s) }},
}

// String returns the canonical descriptor name of the scalar.
func (s Scalar) String() string {
	if info, ok := scalarTable[s]; ok {
		return info.name
	}
	return "invalid"
}

// GoType returns the Go type a decoded cell of this scalar has.
func (s Scalar) GoType() reflect.Type {
	if info, ok := scalarTable[s]; ok {
		return info.goType
	}
	return nil
}

// FieldSplit splits a cell on ';'. Empty text yields no parts.
func FieldSplit(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, FieldSeparator)
}

// ArraySplit splits a cell on '|'. Empty text yields no parts.
func ArraySplit(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ArraySeparator)
}

// DecodeChar returns the first rune of s, or a space for an empty cell.
func DecodeChar(s string) rune {
	if s == "" {
		return ' '
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// DecodeBool accepts integers (true when > 0) and true/false in any case.
func DecodeBool(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; (c >= '0' && c <= '9') || c == '-' || c == '+' {
		return DecodeInt(s) > 0
	}
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func parseInt(s string, bits int) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return 0
	}
	return v
}

func parseUint(s string, bits int) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string, bits int) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
	if err != nil {
		return 0
	}
	return v
}

// DecodeSByte parses a signed 8-bit integer, 0 on failure.
func DecodeSByte(s string) int8 { return int8(parseInt(s, 8)) }

// DecodeByte parses an unsigned 8-bit integer, 0 on failure.
func DecodeByte(s string) uint8 { return uint8(parseUint(s, 8)) }

// DecodeShort parses a 16-bit integer, 0 on failure.
func DecodeShort(s string) int16 { return int16(parseInt(s, 16)) }

// DecodeInt parses a 32-bit integer, 0 on failure.
func DecodeInt(s string) int32 { return int32(parseInt(s, 32)) }

// DecodeUInt parses an unsigned 32-bit integer, 0 on failure.
func DecodeUInt(s string) uint32 { return uint32(parseUint(s, 32)) }

// DecodeLong parses a 64-bit integer, 0 on failure.
func DecodeLong(s string) int64 { return parseInt(s, 64) }

// DecodeFloat parses a 32-bit float, 0 on failure.
func DecodeFloat(s string) float32 { return float32(parseFloat(s, 32)) }

// DecodeDouble parses a 64-bit float, 0 on failure.
func DecodeDouble(s string) float64 { return parseFloat(s, 64) }

func fillFloats(s string, dst ...*float32) {
	parts := FieldSplit(s)
	for i := 0; i < len(parts) && i < len(dst); i++ {
		*dst[i] = DecodeFloat(parts[i])
	}
}

func fillInts(s string, dst ...*int32) {
	parts := FieldSplit(s)
	for i := 0; i < len(parts) && i < len(dst); i++ {
		*dst[i] = DecodeInt(parts[i])
	}
}

// DecodeVector2 parses "x;y".
func DecodeVector2(s string) Vector2 {
	var v Vector2
	fillFloats(s, &v.X, &v.Y)
	return v
}

// DecodeVector3 parses "x;y;z".
func DecodeVector3(s string) Vector3 {
	var v Vector3
	fillFloats(s, &v.X, &v.Y, &v.Z)
	return v
}

// DecodeVector4 parses "x;y;z;w".
func DecodeVector4(s string) Vector4 {
	var v Vector4
	fillFloats(s, &v.X, &v.Y, &v.Z, &v.W)
	return v
}

// DecodeVector2Int parses "x;y" as integers.
func DecodeVector2Int(s string) Vector2Int {
	var v Vector2Int
	fillInts(s, &v.X, &v.Y)
	return v
}

// DecodeVector3Int parses "x;y;z" as integers.
func DecodeVector3Int(s string) Vector3Int {
	var v Vector3Int
	fillInts(s, &v.X, &v.Y, &v.Z)
	return v
}

// DecodeQuaternion parses "x;y;z;w".
func DecodeQuaternion(s string) Quaternion {
	var q Quaternion
	fillFloats(s, &q.X, &q.Y, &q.Z, &q.W)
	return q
}

// DecodeColor accepts two forms. Text containing ';' or at most three
// characters long is read as up to four byte components (0-255) over opaque
// black, so "255;0;0" is red and "128" is half red. Anything else is a hex
// color with an optional leading '#': #RGB, #RGBA, #RRGGBB or #RRGGBBAA.
// Invalid hex yields black, and so do color names like "white".
func DecodeColor(s string) Color {
	c := Black
	if strings.Contains(s, FieldSeparator) || utf8.RuneCountInString(s) <= 3 {
		parts := FieldSplit(s)
		dst := []*float32{&c.R, &c.G, &c.B, &c.A}
		for i := 0; i < len(parts) && i < len(dst); i++ {
			*dst[i] = float32(DecodeByte(parts[i])) / 255
		}
		return c
	}
	if parsed, ok := parseHexColor(strings.TrimPrefix(s, "#")); ok {
		return parsed
	}
	return c
}

func parseHexColor(hex string) (Color, bool) {
	var digits [8]uint8
	switch len(hex) {
	case 3, 4:
		// #RGB shorthand doubles each digit
		for i := 0; i < len(hex); i++ {
			v, ok := hexNibble(hex[i])
			if !ok {
				return Color{}, false
			}
			digits[2*i], digits[2*i+1] = v, v
		}
		if len(hex) == 3 {
			digits[6], digits[7] = 0xf, 0xf
		}
	case 6, 8:
		for i := 0; i < len(hex); i++ {
			v, ok := hexNibble(hex[i])
			if !ok {
				return Color{}, false
			}
			digits[i] = v
		}
		if len(hex) == 6 {
			digits[6], digits[7] = 0xf, 0xf
		}
	default:
		return Color{}, false
	}

	component := func(i int) float32 {
		return float32(digits[i]<<4|digits[i+1]) / 255
	}
	return Color{R: component(0), G: component(2), B: component(4), A: component(6)}, true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
