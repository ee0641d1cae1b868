package materialize_test

import (
	"fmt"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
)

type Person struct {
	ID   int    `csv:"Id"`
	Name string `csv:"Name"`
}

func ExampleAll() {
	tbl, err := csvtable.Parse("Id,Name\nint,string\n1,Alice\n2,Bob\n")
	if err != nil {
		panic(err)
	}
	schema, err := materialize.StructSchema[Person](convert.Default())
	if err != nil {
		panic(err)
	}
	people, err := materialize.All(tbl, schema)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", people)
	fmt.Print(materialize.Skeleton(schema).String())
	// Output:
	// [{ID:1 Name:Alice} {ID:2 Name:Bob}]
	// Id,Name
	// int,string
}

func ExampleColumnByName() {
	tbl, _ := csvtable.Parse("Id,Name\nint,string\n5,Alice\n")
	names, _ := materialize.ColumnByName[string](tbl, nil, "Name")
	fmt.Println(names)

	_, err := materialize.ColumnByName[int](tbl, nil, "Age")
	fmt.Println(err)
	// Output:
	// [Alice]
	// unknown_column: unknown column "Age"
}
