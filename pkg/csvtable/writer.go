package csvtable

import (
	"io"

	stringpool "github.com/ajitpratap0/csvconf/pkg/strings"
)

// Writer assembles a table and serializes it once. It is not safe for
// concurrent use.
type Writer struct {
	headers      []string
	descriptions []string
	meta         [][]string
	records      []*RecordWriter
	opts         Options
}

// RecordWriter collects the cells of one row.
type RecordWriter struct {
	cells []string
}

// NewWriter returns an empty table writer.
func NewWriter(opts ...Option) *Writer {
	return &Writer{opts: buildOptions(opts)}
}

// AddHeader appends column names.
func (w *Writer) AddHeader(names ...string) *Writer {
	w.headers = append(w.headers, names...)
	return w
}

// AddDescription appends type descriptors.
func (w *Writer) AddDescription(descriptors ...string) *Writer {
	w.descriptions = append(w.descriptions, descriptors...)
	return w
}

// AddMetaRow appends a metadata row written after the descriptor row.
func (w *Writer) AddMetaRow(cells ...string) *Writer {
	w.meta = append(w.meta, append([]string(nil), cells...))
	return w
}

// NewRecord appends an empty record and returns it for filling.
func (w *Writer) NewRecord() *RecordWriter {
	r := &RecordWriter{}
	w.records = append(w.records, r)
	return r
}

// AddRecord appends a filled record.
func (w *Writer) AddRecord(r *RecordWriter) *Writer {
	if r != nil {
		w.records = append(w.records, r)
	}
	return w
}

// Headers returns the column names added so far.
func (w *Writer) Headers() []string {
	return append([]string(nil), w.headers...)
}

// Descriptions returns the descriptors added so far.
func (w *Writer) Descriptions() []string {
	return append([]string(nil), w.descriptions...)
}

// Len returns the number of records.
func (w *Writer) Len() int { return len(w.records) }

// String serializes the header row, descriptor row, metadata rows and
// records. Every row, the last included, ends with the line ending.
func (w *Writer) String() string {
	size := stringpool.Large
	if len(w.records) < 64 {
		size = stringpool.Medium
	}
	b := stringpool.GetBuilder(size)
	defer stringpool.PutBuilder(b, size)

	w.writeRow(b, w.headers)
	w.writeRow(b, w.descriptions)
	for _, row := range w.meta {
		w.writeRow(b, row)
	}
	for _, r := range w.records {
		w.writeRow(b, r.cells)
	}
	return b.String()
}

// WriteTo writes the serialized table to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := io.WriteString(dst, w.String())
	return int64(n), err
}

func (w *Writer) writeRow(b *stringpool.Builder, cells []string) {
	b.WriteString(EncodeRowSep(cells, w.opts.Separator))
	b.WriteString(string(w.opts.LineEnding))
}

// Add appends cells to the record.
func (r *RecordWriter) Add(cells ...string) *RecordWriter {
	r.cells = append(r.cells, cells...)
	return r
}

// Cells returns the cells added so far.
func (r *RecordWriter) Cells() []string {
	return append([]string(nil), r.cells...)
}
