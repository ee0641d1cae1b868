package csvtable

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	w := NewWriter()
	w.AddHeader("Id", "Name").AddDescription("int", "string")
	w.NewRecord().Add("1", "Sword, long")
	w.AddRecord((&RecordWriter{}).Add("2", `Bow "short"`))
	w.AddRecord(nil)

	want := "Id,Name\nint,string\n1,\"Sword, long\"\n2,\"Bow \"\"short\"\"\"\n"
	assert.Equal(t, want, w.String())
	assert.Equal(t, 2, w.Len())

	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, buf.String())
}

func TestWriterOptions(t *testing.T) {
	w := NewWriter(WithSeparator(';'), WithLineEnding(CRLF))
	w.AddHeader("Id", "Pos").AddDescription("int", "Vector2")
	w.AddMetaRow("key", "")
	w.NewRecord().Add("1", "1;2")

	assert.Equal(t, "Id;Pos\r\nint;Vector2\r\nkey;\r\n1;\"1;2\"\r\n", w.String())
}

func TestWriterParseRoundTrip(t *testing.T) {
	w := NewWriter()
	w.AddHeader("Id", "Text", "Tags").AddDescription("int", "string", "string[]")
	w.NewRecord().Add("1", "multi\nline", "a|b")
	w.NewRecord().Add("2", `"quoted"`, "")

	tbl, err := Parse(w.String())
	require.NoError(t, err)
	assert.Equal(t, w.Headers(), tbl.Headers())
	assert.Equal(t, w.Descriptions(), tbl.Descriptions())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"1", "multi\nline", "a|b"}, tbl.Record(0).Cells())
	assert.Equal(t, []string{"2", `"quoted"`, ""}, tbl.Record(1).Cells())
}

func TestSkeletonShape(t *testing.T) {
	w := NewWriter().AddHeader("Id", "Name").AddDescription("int", "string")
	tbl, err := Parse(w.String())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "Id,Name\nint,string\n", w.String())
}
