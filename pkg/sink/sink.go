// Package sink stores decoded datasets.
//
// Each Store call writes one Asset: the dataset of a slot together with a
// fresh revision id. File sinks write one file per slot, database sinks
// upsert one row or document per slot, and BigQuery appends one row per
// revision.
//
//	s, err := sink.New(ctx, cfg.Sink)
//	defer s.Close()
//	err = s.Store(ctx, "items", dataset)
package sink

import (
	"context"
	"reflect"
	"time"

	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"github.com/google/uuid"
)

// Sink stores datasets by slot.
type Sink interface {
	Store(ctx context.Context, slot string, ds *materialize.Dataset) error
	Close() error
}

// Asset is the stored form of a dataset.
type Asset struct {
	Slot     string               `json:"slot" yaml:"slot"`
	Revision string               `json:"revision" yaml:"revision"`
	StoredAt time.Time            `json:"stored_at" yaml:"stored_at"`
	Columns  []materialize.Column `json:"columns" yaml:"columns"`
	Records  []map[string]any     `json:"records" yaml:"records"`
	Skipped  []string             `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// NewAsset wraps ds with a new revision. Char values become one-character
// strings so they survive formats that cannot tell runes from integers.
func NewAsset(slot string, ds *materialize.Dataset) (*Asset, error) {
	if slot == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "slot name is required")
	}
	if ds == nil {
		return nil, errors.New(errors.ErrorTypeData, "no dataset to store").WithDetail("slot", slot)
	}

	records := ds.Maps()
	for _, c := range ds.Columns {
		for _, rec := range records {
			rec[c.Name] = portable(c.Type, rec[c.Name])
		}
	}
	return &Asset{
		Slot:     slot,
		Revision: uuid.NewString(),
		StoredAt: time.Now().UTC(),
		Columns:  ds.Columns,
		Records:  records,
		Skipped:  ds.Skipped,
	}, nil
}

func portable(t convert.Type, v any) any {
	switch t.Kind() {
	case convert.KindScalar:
		if r, ok := v.(rune); ok && t.Scalar() == convert.ScalarChar {
			return string(r)
		}
	case convert.KindArray, convert.KindList:
		if t.Elem().Kind() == convert.KindScalar && t.Elem().Scalar() != convert.ScalarChar {
			return v
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = portable(t.Elem(), rv.Index(i).Interface())
		}
		return out
	case convert.KindTuple:
		tup, ok := v.(convert.Tuple)
		if !ok {
			return v
		}
		out := make(convert.Tuple, len(tup))
		for i, e := range t.Elems() {
			if i < len(tup) {
				out[i] = portable(e, tup[i])
			}
		}
		return out
	}
	return v
}

// New creates the sink selected by cfg.Kind.
func New(ctx context.Context, cfg config.SinkConfig) (Sink, error) {
	var (
		s   Sink
		err error
	)
	switch cfg.Kind {
	case config.SinkJSON:
		s, err = unwrap(NewJSONSink(cfg.Dir, cfg.Pretty, cfg.Compression))
	case config.SinkYAML:
		s, err = unwrap(NewYAMLSink(cfg.Dir, cfg.Compression))
	case config.SinkArrow:
		s, err = unwrap(NewArrowSink(cfg.Dir))
	case config.SinkPostgres:
		s, err = unwrap(DialPostgres(ctx, cfg.DSN, cfg.Table))
	case config.SinkMongo:
		s, err = unwrap(DialMongo(ctx, cfg.DSN, cfg.Database, cfg.Collection))
	case config.SinkMySQL:
		s, err = unwrap(DialMySQL(ctx, cfg.DSN, cfg.Table))
	case config.SinkBigQuery:
		s, err = unwrap(DialBigQuery(ctx, cfg.Project, cfg.Database, cfg.Table, cfg.CredentialsFile))
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown sink kind %q", cfg.Kind)
	}
	return s, err
}

// unwrap keeps a failed constructor's typed nil out of the Sink interface.
func unwrap[S Sink](s S, err error) (Sink, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
