package materialize

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/metrics"
)

// Column is one decoded column of a Dataset.
type Column struct {
	Name       string       `json:"name" yaml:"name"`
	Descriptor string       `json:"type" yaml:"type"`
	Index      int          `json:"-" yaml:"-"`
	Type       convert.Type `json:"-" yaml:"-"`
}

// Dataset is a table decoded with its own descriptor row.
type Dataset struct {
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
	// Skipped lists headers that were not decoded: empty names, repeated
	// names and unsupported descriptors.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Dynamic decodes every column whose descriptor reg understands. Rows hold
// one value per decoded column, in column order.
func Dynamic(tbl *csvtable.Table, reg *convert.Registry) (*Dataset, error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeMalformedTable, "no table to decode")
	}
	if reg == nil {
		reg = convert.Default()
	}

	ds := &Dataset{}
	seen := make(map[string]bool, tbl.Columns())
	for i, name := range tbl.Headers() {
		if name == "" || seen[name] {
			ds.Skipped = append(ds.Skipped, name)
			metrics.ColumnsSkipped.Inc()
			continue
		}
		seen[name] = true

		t, err := reg.Parse(tbl.Description(i))
		if err != nil {
			ds.Skipped = append(ds.Skipped, name)
			metrics.ColumnsSkipped.Inc()
			metrics.CellDiagnostics.WithLabelValues(metrics.ReasonUnsupported).Inc()
			log().Warn("column descriptor not convertible, skipping",
				zap.String("column", name),
				zap.String("descriptor", tbl.Description(i)),
				zap.Error(err))
			continue
		}
		ds.Columns = append(ds.Columns, Column{Name: name, Descriptor: t.String(), Index: i, Type: t})
	}

	ds.Rows = make([][]any, 0, tbl.Len())
	for n, rec := range tbl.All() {
		row := make([]any, len(ds.Columns))
		for j, c := range ds.Columns {
			if c.Index >= rec.Len() {
				row[j] = c.Type.Zero()
				continue
			}
			v, err := c.Type.Decode(rec.Cell(c.Index))
			if err != nil {
				cellDiagnostic(err, c.Name, n)
			}
			row[j] = v
		}
		ds.Rows = append(ds.Rows, row)
	}
	metrics.RecordsMaterialized.WithLabelValues("dynamic").Add(float64(len(ds.Rows)))
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Names returns the decoded column names.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Maps returns each row keyed by column name.
func (d *Dataset) Maps() []map[string]any {
	out := make([]map[string]any, len(d.Rows))
	for i, row := range d.Rows {
		m := make(map[string]any, len(d.Columns))
		for j, c := range d.Columns {
			m[c.Name] = row[j]
		}
		out[i] = m
	}
	return out
}
