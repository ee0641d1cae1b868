package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
)

func TestGenerateSimple(t *testing.T) {
	src, err := Generate("Id,Name\nint,string\n1,Alice\n", Options{TypeName: "Person"})
	require.NoError(t, err)

	want := "// Code generated by csvconf gen. DO NOT EDIT.\n\n" +
		"package config\n\n" +
		"// Person is a record of the Person table.\n" +
		"type Person struct {\n" +
		"\tID   int32  `csv:\"Id\"`\n" +
		"\tName string `csv:\"Name\"`\n" +
		"}\n"
	assert.Equal(t, want, string(src))
}

func TestGenerateTypes(t *testing.T) {
	reg := convert.NewRegistry(convert.WithEnum(convert.NewEnum("Rarity", map[string]int64{"Common": 0})))
	text := "item_id,,Tint,Tags,Reward,Rarity,Initial,Pos,Id,Name,ID\n" +
		"long,int,Color,List<string>,\"Tuple<float,string>\",Rarity,char,Vector3[],int,string,int\n" +
		"The id,,Tint color,Tag list,,,,,,\"Display\nname\"\n"
	tbl, err := csvtable.Parse(text, csvtable.WithHeaderRows(3))
	require.NoError(t, err)

	src, err := GenerateStruct(tbl, Options{Package: "items", TypeName: "item", Registry: reg})
	require.NoError(t, err)
	out := strings.Join(strings.Fields(string(src)), " ")

	assert.Contains(t, out, "package items")
	assert.Contains(t, out, `import "github.com/ajitpratap0/csvconf/pkg/convert"`)
	assert.Contains(t, out, "type Item struct {")
	for _, want := range []string{
		"// The id ItemID int64 `csv:\"item_id\"`",
		"// Tint color Tint convert.Color `csv:\"Tint\"`",
		"// Tag list Tags []string `csv:\"Tags,type=List<string>\"`",
		"Reward convert.Tuple `csv:\"Reward,type=Tuple<float,string>\"`",
		"Rarity int `csv:\"Rarity,type=Rarity\"`",
		"Initial rune `csv:\"Initial,type=char\"`",
		"Pos []convert.Vector3 `csv:\"Pos\"`",
		"ID int32 `csv:\"Id\"`",
		"ID2 int32 `csv:\"ID\"`",
		"// Display // name Name string `csv:\"Name\"`",
	} {
		assert.Contains(t, out, want)
	}

	file, err := parser.ParseFile(token.NewFileSet(), "item.go", src, parser.ParseComments)
	require.NoError(t, err)
	var fields int
	ast.Inspect(file, func(n ast.Node) bool {
		if st, ok := n.(*ast.StructType); ok {
			fields = len(st.Fields.List)
		}
		return true
	})
	assert.Equal(t, 10, fields, "one field per named column")
}

// stats mirrors the struct generated from statsTable.
type stats struct {
	ID    int32 `csv:"Id"`
	HpMax int32 `csv:"Hp%2CMax"`
	Rate  int32 `csv:"Rate%25"`
}

const statsTable = "Id,\"Hp,Max\",Rate%\nint,int,int\n1,50,7\n"

func TestGeneratedTagsBindColumns(t *testing.T) {
	src, err := Generate(statsTable, Options{TypeName: "Stats"})
	require.NoError(t, err)

	file, err := parser.ParseFile(token.NewFileSet(), "stats.go", src, 0)
	require.NoError(t, err)
	tags := make(map[string]string)
	ast.Inspect(file, func(n ast.Node) bool {
		if f, ok := n.(*ast.Field); ok && f.Tag != nil {
			tag, err := strconv.Unquote(f.Tag.Value)
			require.NoError(t, err)
			tags[f.Names[0].Name] = reflect.StructTag(tag).Get("csv")
		}
		return true
	})

	rt := reflect.TypeFor[stats]()
	require.Len(t, tags, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		assert.Equal(t, f.Tag.Get("csv"), tags[f.Name], f.Name)
	}

	records, err := materialize.Records[stats](statsTable, nil)
	require.NoError(t, err)
	assert.Equal(t, []stats{{ID: 1, HpMax: 50, Rate: 7}}, records)
}

func TestGenerateNoConvertImport(t *testing.T) {
	src, err := Generate("A,B\nbool,double[]\n", Options{TypeName: "Flags"})
	require.NoError(t, err)
	assert.NotContains(t, string(src), "import")
	assert.Contains(t, string(src), "[]float64")
}

func TestGenerateErrors(t *testing.T) {
	_, err := Generate("A\nMystery\n", Options{TypeName: "X"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))

	_, err = Generate("A\nint\n", Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Generate("A\nint\n", Options{TypeName: "X", Package: "not a package"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Generate("A", Options{TypeName: "X"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedTable))

	_, err = GenerateStruct(nil, Options{TypeName: "X"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedTable))
}

func TestIdentifier(t *testing.T) {
	tests := map[string]string{
		"Id":        "ID",
		"item_id":   "ItemID",
		"max hp":    "MaxHp",
		"name":      "Name",
		"2nd":       "F2nd",
		"url-path":  "URLPath",
		"été":       "Été",
		"--":        "",
		"HTTPProxy": "HTTPProxy",
	}
	for in, want := range tests {
		assert.Equal(t, want, Identifier(in), in)
	}
}

func TestGoTypeExpr(t *testing.T) {
	reg := convert.Default()
	for desc, want := range map[string]string{
		"sbyte":            "int8",
		"byte":             "uint8",
		"short":            "int16",
		"uint":             "uint32",
		"float":            "float32",
		"Quaternion":       "convert.Quaternion",
		"Vector2Int[][]":   "[][]convert.Vector2Int",
		"List<Tuple<int>>": "[]convert.Tuple",
	} {
		typ, err := reg.Parse(desc)
		require.NoError(t, err)
		assert.Equal(t, want, GoTypeExpr(typ), desc)
	}
	assert.Equal(t, "any", GoTypeExpr(convert.Type{}))
}
