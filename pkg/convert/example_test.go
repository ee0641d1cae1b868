package convert_test

import (
	"fmt"

	"github.com/ajitpratap0/csvconf/pkg/convert"
)

func ExampleRegistry_Decode() {
	reg := convert.Default()

	v, _ := reg.Decode("Tuple<float,string>", "1.25;first")
	fmt.Println(v)

	v, _ = reg.Decode("int[]", "1|2|3")
	fmt.Println(v)

	v, _ = reg.Decode("Color", "#ff0000")
	fmt.Printf("%+v\n", v)
	// Output:
	// [1.25 first]
	// [1 2 3]
	// {R:1 G:0 B:0 A:1}
}

func ExampleEnumFor() {
	type Rarity int
	reg := convert.NewRegistry(convert.WithEnum(
		convert.EnumFor("Rarity", map[string]Rarity{"Common": 0, "Rare": 1}),
	))

	v, _ := reg.Decode("Rarity[]", "Rare|0")
	fmt.Println(v)
	// Output: [1 0]
}
