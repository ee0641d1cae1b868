// Package codegen generates Go struct definitions from table headers.
//
// The first header row supplies field names, the descriptor row supplies
// field types, and the first metadata row (when the table was parsed with
// more than two header rows) supplies field comments. The generated struct
// carries csv tags that materialize.StructSchema reads back, so
//
//	Id,Name,Reward
//	int,string,"Tuple<float,string>"
//
// becomes
//
//	type Item struct {
//		ID     int32         `csv:"Id"`
//		Name   string        `csv:"Name"`
//		Reward convert.Tuple `csv:"Reward,type=Tuple<float,string>"`
//	}
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
)

const convertImport = "github.com/ajitpratap0/csvconf/pkg/convert"

// Options controls generation.
type Options struct {
	// Package is the package clause of the output, "config" when empty.
	Package string
	// TypeName names the struct and is required.
	TypeName string
	// Registry resolves descriptors; convert.Default when nil.
	Registry *convert.Registry
}

// field is one generated struct field.
type field struct {
	name    string
	goType  string
	tag     string
	comment string
}

// Generate parses text and generates a struct for it.
func Generate(text string, opts Options, tableOpts ...csvtable.Option) ([]byte, error) {
	tbl, err := csvtable.Parse(text, tableOpts...)
	if err != nil {
		return nil, err
	}
	return GenerateStruct(tbl, opts)
}

// GenerateStruct renders a gofmt-formatted Go source file declaring one
// struct with a field per named column. Empty and repeated header names are
// skipped; an unsupported descriptor fails generation.
func GenerateStruct(tbl *csvtable.Table, opts Options) ([]byte, error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeMalformedTable, "no table to generate from")
	}
	typeName := Identifier(opts.TypeName)
	if opts.TypeName == "" || typeName == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "type name is required")
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = "config"
	}
	if !token.IsIdentifier(pkg) {
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid package name %q", pkg)
	}
	reg := opts.Registry
	if reg == nil {
		reg = convert.Default()
	}

	log := logger.Get().With(zap.String("component", "codegen"), zap.String("type", typeName))

	var comments []string
	if meta := tbl.MetaRows(); len(meta) > 0 {
		comments = meta[0]
	}

	var (
		fields      []field
		usesConvert bool
		seenHeaders = make(map[string]bool)
		seenFields  = make(map[string]int)
	)
	for i, header := range tbl.Headers() {
		if header == "" {
			continue
		}
		if seenHeaders[header] {
			log.Warn("skipping repeated column", zap.String("column", header))
			continue
		}
		seenHeaders[header] = true

		t, err := reg.Parse(tbl.Description(i))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedType, "column "+header)
		}

		name := Identifier(header)
		if name == "" {
			name = fmt.Sprintf("Field%d", i)
		}
		if n := seenFields[name]; n > 0 {
			seenFields[name] = n + 1
			name = fmt.Sprintf("%s%d", name, n+1)
		} else {
			seenFields[name] = 1
		}

		goType := GoTypeExpr(t)
		usesConvert = usesConvert || strings.Contains(goType, "convert.")

		tag := materialize.TagColumn(header)
		if needsTypeTag(t) {
			tag += ",type=" + t.String()
		}

		var comment string
		if i < len(comments) {
			comment = strings.TrimSpace(comments[i])
		}
		fields = append(fields, field{name: name, goType: goType, tag: tag, comment: comment})
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by csvconf gen. DO NOT EDIT.\n\npackage %s\n\n", pkg)
	if usesConvert {
		fmt.Fprintf(&buf, "import %q\n\n", convertImport)
	}
	fmt.Fprintf(&buf, "// %s is a record of the %s table.\n", typeName, typeName)
	fmt.Fprintf(&buf, "type %s struct {\n", typeName)
	for _, f := range fields {
		if f.comment != "" {
			for _, line := range strings.Split(f.comment, "\n") {
				fmt.Fprintf(&buf, "\t// %s\n", strings.TrimSpace(line))
			}
		}
		fmt.Fprintf(&buf, "\t%s %s `csv:%q`\n", f.name, f.goType, f.tag)
	}
	buf.WriteString("}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "generated source does not format")
	}
	log.Debug("generated struct", zap.Int("fields", len(fields)))
	return src, nil
}

// GoTypeExpr returns the Go type expression a decoded value of t is stored
// in. Enums are stored as int, since the enum's Go type is not importable
// from generated code.
func GoTypeExpr(t convert.Type) string {
	switch t.Kind() {
	case convert.KindScalar:
		switch s := t.Scalar(); s {
		case convert.ScalarChar:
			return "rune"
		case convert.ScalarVector2, convert.ScalarVector3, convert.ScalarVector4,
			convert.ScalarVector2Int, convert.ScalarVector3Int, convert.ScalarQuaternion, convert.ScalarColor:
			return "convert." + s.String()
		default:
			return s.GoType().String()
		}
	case convert.KindEnum:
		return "int"
	case convert.KindArray, convert.KindList:
		return "[]" + GoTypeExpr(t.Elem())
	case convert.KindTuple:
		return "convert.Tuple"
	}
	return "any"
}

// needsTypeTag reports whether the Go type alone would derive a different
// descriptor than t.
func needsTypeTag(t convert.Type) bool {
	switch t.Kind() {
	case convert.KindScalar:
		return t.Scalar() == convert.ScalarChar
	case convert.KindArray:
		return needsTypeTag(t.Elem())
	}
	return true
}

var initialisms = map[string]string{
	"id": "ID", "ids": "IDs", "url": "URL", "uri": "URI", "api": "API",
	"ui": "UI", "json": "JSON", "xml": "XML", "http": "HTTP", "uuid": "UUID",
}

// Identifier converts a column name to an exported Go identifier:
// "item_id" becomes "ItemID", "max hp" becomes "MaxHp". Names starting with a
// digit get an "F" prefix.
func Identifier(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, part := range parts {
		if up, ok := initialisms[strings.ToLower(part)]; ok {
			b.WriteString(up)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	id := b.String()
	if id == "" {
		return ""
	}
	if unicode.IsDigit([]rune(id)[0]) {
		id = "F" + id
	}
	if token.IsKeyword(id) {
		id += "_"
	}
	return id
}
