// Package convert maps table cells to typed Go values.
//
// A column's type descriptor (the second header row of a table) is parsed
// into a Type, a closed tagged union over five kinds:
//
//	int, float, Vector3, Color ...   KindScalar
//	Rarity                           KindEnum (registered with WithEnum)
//	int[]                            KindArray, elements split on '|'
//	List<string>                     KindList, elements split on '|'
//	Tuple<float,string>              KindTuple, positions split on ';'
//
// Composite kinds nest, so "Tuple<Color,string>[]" and
// "List<Tuple<Color,string>>" are both valid descriptors. Anything outside
// the grammar is rejected by Registry.Parse with an unsupported_type error
// before a single cell is decoded.
//
// Scalar decoding never fails: text that does not parse degrades to the
// type's zero value (false, 0, opaque black for Color). Enum cells that match
// neither an ordinal nor a member name decode to zero and also return an
// enum_parse error, which callers treat as a diagnostic rather than an abort.
//
// A Registry is immutable once built and safe for concurrent use. Default
// returns a process-wide registry with the built-in scalars and no enums;
// build a new one with NewRegistry to register enums or to start over.
package convert
