package materialize

import (
	"iter"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/metrics"
)

func log() *zap.Logger {
	return logger.Get().With(zap.String("component", "materialize"))
}

// binding pairs a table column with a schema field.
type binding struct {
	column int
	field  int
}

// plan matches table headers to schema fields. Unknown headers are skipped
// with a diagnostic; a repeated header binds only its first occurrence.
func plan[R any](tbl *csvtable.Table, s *Schema[R]) []binding {
	var (
		out   []binding
		bound = make(map[int]bool, s.Len())
	)
	for col, name := range tbl.Headers() {
		field, ok := s.byName[name]
		if !ok {
			metrics.ColumnsSkipped.Inc()
			metrics.CellDiagnostics.WithLabelValues(metrics.ReasonUnknownField).Inc()
			log().Warn("column has no matching field, skipping",
				zap.String("column", name),
				zap.Int("index", col))
			continue
		}
		if bound[field] {
			continue
		}
		bound[field] = true
		out = append(out, binding{column: col, field: field})
	}
	return out
}

func fill[R any](s *Schema[R], bindings []binding, row int, rec *csvtable.Record) R {
	var r R
	for _, b := range bindings {
		if b.column >= rec.Len() {
			continue
		}
		f := s.fields[b.field]
		v, err := s.types[b.field].Decode(rec.Cell(b.column))
		if err != nil {
			cellDiagnostic(err, f.Name, row)
			if v == nil {
				continue
			}
		}
		if err := f.assign(&r, v); err != nil {
			metrics.CellDiagnostics.WithLabelValues(metrics.ReasonAssign).Inc()
			log().Warn("cannot assign decoded value",
				zap.String("field", f.Name),
				zap.Int("row", row),
				zap.Error(err))
		}
	}
	return r
}

func cellDiagnostic(err error, column string, row int) {
	reason := string(errors.TypeOf(err))
	metrics.CellDiagnostics.WithLabelValues(reason).Inc()
	log().Warn("cell decoded with default value",
		zap.String("column", column),
		zap.Int("row", row),
		zap.String("reason", reason),
		zap.Error(err))
}

// All materializes every record of tbl in order. Each record starts from the
// zero R. A nil table is malformed.
func All[R any](tbl *csvtable.Table, s *Schema[R]) ([]R, error) {
	if err := check(tbl, s); err != nil {
		return nil, err
	}
	out := make([]R, 0, tbl.Len())
	for _, r := range Each(tbl, s) {
		out = append(out, r)
	}
	return out, nil
}

// Each lazily materializes records as (row, record) pairs. It yields nothing
// for a nil table or schema.
func Each[R any](tbl *csvtable.Table, s *Schema[R]) iter.Seq2[int, R] {
	return func(yield func(int, R) bool) {
		if check(tbl, s) != nil {
			return
		}
		bindings := plan(tbl, s)
		n := 0
		defer func() {
			metrics.RecordsMaterialized.WithLabelValues("struct").Add(float64(n))
		}()
		for i, rec := range tbl.All() {
			n++
			if !yield(i, fill(s, bindings, i, rec)) {
				return
			}
		}
	}
}

// Records parses text and materializes it in one step.
func Records[R any](text string, reg *convert.Registry, opts ...csvtable.Option) ([]R, error) {
	s, err := StructSchema[R](reg)
	if err != nil {
		return nil, err
	}
	tbl, err := csvtable.Parse(text, opts...)
	if err != nil {
		return nil, err
	}
	return All(tbl, s)
}

func check[R any](tbl *csvtable.Table, s *Schema[R]) error {
	if tbl == nil {
		return errors.New(errors.ErrorTypeMalformedTable, "no table to materialize")
	}
	if s == nil {
		return errors.New(errors.ErrorTypeConfig, "nil schema")
	}
	return nil
}
