package convert

// Vector2 is a 2-component float vector, written "x;y" in a cell.
type Vector2 struct {
	X float32 `json:"x" yaml:"x" bson:"x"`
	Y float32 `json:"y" yaml:"y" bson:"y"`
}

// Vector3 is a 3-component float vector, written "x;y;z" in a cell.
type Vector3 struct {
	X float32 `json:"x" yaml:"x" bson:"x"`
	Y float32 `json:"y" yaml:"y" bson:"y"`
	Z float32 `json:"z" yaml:"z" bson:"z"`
}

// Vector4 is a 4-component float vector, written "x;y;z;w" in a cell.
type Vector4 struct {
	X float32 `json:"x" yaml:"x" bson:"x"`
	Y float32 `json:"y" yaml:"y" bson:"y"`
	Z float32 `json:"z" yaml:"z" bson:"z"`
	W float32 `json:"w" yaml:"w" bson:"w"`
}

// Vector2Int is a 2-component integer vector.
type Vector2Int struct {
	X int32 `json:"x" yaml:"x" bson:"x"`
	Y int32 `json:"y" yaml:"y" bson:"y"`
}

// Vector3Int is a 3-component integer vector.
type Vector3Int struct {
	X int32 `json:"x" yaml:"x" bson:"x"`
	Y int32 `json:"y" yaml:"y" bson:"y"`
	Z int32 `json:"z" yaml:"z" bson:"z"`
}

// Quaternion is a rotation stored as x;y;z;w. Unset components are zero, so
// an empty cell decodes to the zero quaternion rather than identity.
type Quaternion struct {
	X float32 `json:"x" yaml:"x" bson:"x"`
	Y float32 `json:"y" yaml:"y" bson:"y"`
	Z float32 `json:"z" yaml:"z" bson:"z"`
	W float32 `json:"w" yaml:"w" bson:"w"`
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float32 `json:"r" yaml:"r" bson:"r"`
	G float32 `json:"g" yaml:"g" bson:"g"`
	B float32 `json:"b" yaml:"b" bson:"b"`
	A float32 `json:"a" yaml:"a" bson:"a"`
}

// Black is the default color: opaque black.
var Black = Color{A: 1}

// Tuple holds the decoded positions of a Tuple<...> cell in declaration order.
type Tuple []any
