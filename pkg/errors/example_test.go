// Package errors provides examples of structured error handling in csvconf.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeUnknownColumn, "column Age does not exist").
		WithDetail("column", "Age").
		WithDetail("headers", []string{"Id", "Name"})

	fmt.Println(err.Error())

	// Output:
	// unknown_column: column Age does not exist
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read table").
		WithDetail("path", "items.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read table: unexpected EOF
}

// ExampleIsStructural separates aborting failures from recovered diagnostics.
func ExampleIsStructural() {
	missing := errors.New(errors.ErrorTypeIndexOutOfRange, "column 7 is out of range")
	enum := errors.New(errors.ErrorTypeEnumParse, "unknown member")

	fmt.Println(errors.IsStructural(missing))
	fmt.Println(errors.IsStructural(enum))

	// Output:
	// true
	// false
}
