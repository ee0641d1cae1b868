package materialize

import (
	"iter"
	"reflect"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/metrics"
)

// ColumnByName decodes the named column as V. The column type comes from V,
// not from the table's descriptor row.
func ColumnByName[V any](tbl *csvtable.Table, reg *convert.Registry, name string) ([]V, error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeMalformedTable, "no table to project")
	}
	index, err := tbl.IndexOf(name)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknownColumn, "unknown column %q", name).
			WithDetail("column", name)
	}
	return ColumnByIndex[V](tbl, reg, index)
}

// ColumnByIndex decodes column index as V. A negative index is treated as
// zero; an index at or past the column count is an error.
func ColumnByIndex[V any](tbl *csvtable.Table, reg *convert.Registry, index int) ([]V, error) {
	seq, err := ColumnSeq[V](tbl, reg, index)
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, tbl.Len())
	for _, v := range seq {
		out = append(out, v)
	}
	return out, nil
}

// ColumnSeq is the lazy form of ColumnByIndex. Validation happens up front;
// the returned sequence decodes one cell per step.
func ColumnSeq[V any](tbl *csvtable.Table, reg *convert.Registry, index int) (iter.Seq2[int, V], error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeMalformedTable, "no table to project")
	}
	if reg == nil {
		reg = convert.Default()
	}
	t, err := reg.TypeOf(reflect.TypeFor[V]())
	if err != nil {
		return nil, err
	}
	index, err = columnIndex(tbl, index)
	if err != nil {
		return nil, err
	}

	column := tbl.Header(index)
	return func(yield func(int, V) bool) {
		n := 0
		defer func() {
			metrics.RecordsMaterialized.WithLabelValues("column").Add(float64(n))
		}()
		for i, rec := range tbl.All() {
			n++
			var v V
			if index < rec.Len() {
				decoded, err := t.Decode(rec.Cell(index))
				if err != nil {
					cellDiagnostic(err, column, i)
				}
				if decoded != nil {
					if v, err = coerce[V](decoded); err != nil {
						metrics.CellDiagnostics.WithLabelValues(metrics.ReasonAssign).Inc()
						log().Warn("cannot assign decoded value", zap.String("column", column), zap.Error(err))
					}
				}
			}
			if !yield(i, v) {
				return
			}
		}
	}, nil
}

// DecodeColumn decodes column index with an explicit type, for targets that
// have no Go-type mapping such as tuples.
func DecodeColumn(tbl *csvtable.Table, index int, t convert.Type) ([]any, error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeMalformedTable, "no table to project")
	}
	if !t.Valid() {
		return nil, errors.New(errors.ErrorTypeUnsupportedType, "invalid column type")
	}
	index, err := columnIndex(tbl, index)
	if err != nil {
		return nil, err
	}

	column := tbl.Header(index)
	out := make([]any, 0, tbl.Len())
	for i, rec := range tbl.All() {
		if index >= rec.Len() {
			out = append(out, t.Zero())
			continue
		}
		v, err := t.Decode(rec.Cell(index))
		if err != nil {
			cellDiagnostic(err, column, i)
		}
		out = append(out, v)
	}
	metrics.RecordsMaterialized.WithLabelValues("column").Add(float64(len(out)))
	return out, nil
}

func columnIndex(tbl *csvtable.Table, index int) (int, error) {
	if index < 0 {
		index = 0
	}
	if index >= tbl.Columns() {
		return 0, errors.Newf(errors.ErrorTypeIndexOutOfRange,
			"column index %d out of range, table has %d columns", index, tbl.Columns()).
			WithDetail("index", index).
			WithDetail("columns", tbl.Columns())
	}
	return index, nil
}
