package csvtable

import (
	"strings"
	"unicode/utf8"

	stringpool "github.com/ajitpratap0/csvconf/pkg/strings"
)

// DecodeRow splits one comma separated row into cells. capacity is a size
// hint for the result.
func DecodeRow(row string, capacity int) []string {
	return DecodeRowSep(row, DefaultSeparator, capacity)
}

// DecodeRowSep splits one row into cells on sep. A cell whose escape is never
// closed runs to the end of the row. Bytes that are not valid UTF-8 are kept
// as they are. Decoding never fails.
func DecodeRowSep(row string, sep rune, capacity int) []string {
	if capacity < 1 {
		capacity = 1
	}
	cells := make([]string, 0, capacity)

	size := stringpool.SizeFor(len(row))
	b := stringpool.GetBuilder(size)
	defer stringpool.PutBuilder(b, size)

	var st cellState
	st.reset()
	for i := 0; i < len(row); {
		// invalid UTF-8 is copied byte for byte, never replaced
		r, n := utf8.DecodeRuneInString(row[i:])
		if r == sep && st.open() {
			cells = append(cells, b.String())
			b.Reset()
			st.reset()
		} else if st.step(r, sep) {
			b.WriteString(row[i : i+n])
		}
		i += n
	}
	return append(cells, b.String())
}

// EncodeRow joins cells with commas, escaping cells as needed.
func EncodeRow(cells []string) string {
	return EncodeRowSep(cells, DefaultSeparator)
}

// EncodeRowSep joins cells with sep. A cell containing sep, a quote or a line
// break is wrapped in quotes with its quotes doubled; other cells are copied
// verbatim. An empty slice encodes to "".
func EncodeRowSep(cells []string, sep rune) string {
	if len(cells) == 0 {
		return ""
	}

	size := len(cells)
	for _, c := range cells {
		size += len(c) + 2
	}
	bsize := stringpool.SizeFor(size)
	b := stringpool.GetBuilder(bsize)
	defer stringpool.PutBuilder(b, bsize)

	for i, cell := range cells {
		if i > 0 {
			b.WriteRune(sep)
		}
		writeCell(b, cell, sep)
	}
	return b.String()
}

func writeCell(b *stringpool.Builder, cell string, sep rune) {
	if !needsEscape(cell, sep) {
		b.WriteString(cell)
		return
	}
	_ = b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
	_ = b.WriteByte('"')
}

func needsEscape(cell string, sep rune) bool {
	return strings.ContainsRune(cell, sep) || strings.ContainsAny(cell, "\"\r\n")
}
