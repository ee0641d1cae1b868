package csvtable

import (
	"iter"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/metrics"
)

// Table is a parsed table. It is immutable and safe for concurrent readers.
type Table struct {
	headers      []string
	descriptions []string
	meta         [][]string
	records      []*Record
	index        map[string]int
	duplicates   []string
	opts         Options
}

// Record is one data row. Cells are addressed by position or by the header
// name of their column.
type Record struct {
	cells []string
	index map[string]int
	raw   string
}

// Parse reads text into a Table. Text with fewer rows than the configured
// header rows is malformed: Parse returns a nil table and a malformed_table
// error.
func Parse(text string, opts ...Option) (*Table, error) {
	o := buildOptions(opts)

	var rows []string
	if o.Multiline {
		rows = SplitRowsQuoted(text, o.Separator)
	} else {
		rows = SplitRows(text)
	}
	if len(rows) < o.HeaderRows {
		metrics.MalformedTables.Inc()
		return nil, errors.Newf(errors.ErrorTypeMalformedTable,
			"table has %d rows, need at least %d header rows", len(rows), o.HeaderRows).
			WithDetail("rows", len(rows)).
			WithDetail("header_rows", o.HeaderRows)
	}

	t := &Table{
		headers:      DecodeRowSep(rows[0], o.Separator, 0),
		descriptions: DecodeRowSep(rows[1], o.Separator, 0),
		opts:         o,
	}
	width := len(t.headers)
	for _, row := range rows[2:o.HeaderRows] {
		t.meta = append(t.meta, DecodeRowSep(row, o.Separator, width))
	}

	t.index = make(map[string]int, width)
	for i, name := range t.headers {
		if _, seen := t.index[name]; seen {
			t.duplicates = append(t.duplicates, name)
			continue
		}
		t.index[name] = i
	}
	if len(t.duplicates) > 0 {
		metrics.CellDiagnostics.WithLabelValues(metrics.ReasonDuplicateName).Add(float64(len(t.duplicates)))
		logger.Get().With(zap.String("component", "csvtable")).Warn("duplicate column names, first occurrence wins",
			zap.Strings("columns", t.duplicates))
	}

	data := rows[o.HeaderRows:]
	t.records = make([]*Record, 0, len(data))
	for _, row := range data {
		t.records = append(t.records, &Record{
			cells: DecodeRowSep(row, o.Separator, width),
			index: t.index,
			raw:   row,
		})
	}

	metrics.TablesParsed.Inc()
	return t, nil
}

// Columns returns the number of columns, defined by the header row.
func (t *Table) Columns() int { return len(t.headers) }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Separator returns the cell separator the table was parsed with.
func (t *Table) Separator() rune { return t.opts.Separator }

// Headers returns the column names.
func (t *Table) Headers() []string {
	return append([]string(nil), t.headers...)
}

// Header returns the name of column i, or "" when out of range.
func (t *Table) Header(i int) string {
	return cellAt(t.headers, i)
}

// Descriptions returns the type descriptor row.
func (t *Table) Descriptions() []string {
	return append([]string(nil), t.descriptions...)
}

// Description returns the type descriptor of column i, or "" when the
// descriptor row is shorter.
func (t *Table) Description(i int) string {
	return cellAt(t.descriptions, i)
}

// MetaRows returns the metadata rows between the descriptor row and the
// first record. It is empty unless WithHeaderRows asked for more than two.
func (t *Table) MetaRows() [][]string {
	out := make([][]string, len(t.meta))
	for i, row := range t.meta {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Records returns the data rows in order.
func (t *Table) Records() []*Record {
	return append([]*Record(nil), t.records...)
}

// Record returns record i, or nil when out of range.
func (t *Table) Record(i int) *Record {
	if i < 0 || i >= len(t.records) {
		return nil
	}
	return t.records[i]
}

// All iterates records with their positions.
func (t *Table) All() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		for i, r := range t.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Column iterates the cells of column i across all records. Short records
// yield "".
func (t *Table) Column(i int) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for n, r := range t.records {
			if !yield(n, r.Cell(i)) {
				return
			}
		}
	}
}

// IndexOf returns the position of the first column named name.
func (t *Table) IndexOf(name string) (int, error) {
	if i, ok := t.index[name]; ok {
		return i, nil
	}
	return -1, errors.Newf(errors.ErrorTypeNotFound, "column %q not found", name).
		WithDetail("column", name)
}

// Duplicates returns header names that occur more than once, one entry per
// extra occurrence.
func (t *Table) Duplicates() []string {
	return append([]string(nil), t.duplicates...)
}

// Cells returns the decoded cells of the record.
func (r *Record) Cells() []string {
	return append([]string(nil), r.cells...)
}

// Len returns the number of cells in the row, which may differ from the
// table's column count.
func (r *Record) Len() int { return len(r.cells) }

// Cell returns cell i, or "" past the end of the row.
func (r *Record) Cell(i int) string {
	return cellAt(r.cells, i)
}

// Get returns the cell in the column named name. ok is false when no column
// has that name; a known column past the end of the row yields "" and true.
func (r *Record) Get(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.Cell(i), true
}

// Raw returns the source text of the row.
func (r *Record) Raw() string { return r.raw }

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
