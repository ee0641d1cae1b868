package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCauseAndStack(t *testing.T) {
	inner := New(ErrorTypeNotFound, "header Name not found")
	outer := Wrap(inner, ErrorTypeUnknownColumn, "projection aborted")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.True(t, IsType(outer, ErrorTypeUnknownColumn))
	assert.Equal(t, "unknown_column: projection aborted: not_found: header Name not found", outer.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "nothing"))
}

func TestWrapForeignError(t *testing.T) {
	err := Wrap(io.EOF, ErrorTypeFile, "read failed")
	assert.NotEmpty(t, err.Stack)
	assert.True(t, stderrors.Is(err, io.EOF))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeEnumParse, TypeOf(Newf(ErrorTypeEnumParse, "bad %q", "x")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(io.EOF))
	assert.False(t, IsType(io.EOF, ErrorTypeFile))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeMalformedTable, "too few rows").WithDetail("rows", 1).WithDetail("required", 2)
	assert.Equal(t, map[string]interface{}{"rows": 1, "required": 2}, err.Details)
}
