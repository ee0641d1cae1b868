// Package source loads table text by identifier.
//
// A Loader maps an identifier to the full text of a table. Identifiers are
// loader specific: a path relative to a base directory, an object key, a
// URL. Registry dispatches URIs to loaders by scheme:
//
//	reg := source.NewRegistry(cfg.Source)
//	text, err := reg.Load(ctx, "s3://assets/tables/items.csv.zst")
//
// Content whose identifier ends in .gz, .zst, .sz, .s2 or .lz4 is
// decompressed transparently.
package source

import (
	"context"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"go.uber.org/zap"
)

// Loader returns the text of the table named by id.
type Loader interface {
	Load(ctx context.Context, id string) (string, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, id string) (string, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

// LoadText loads id and reports failure as empty text. The error is logged.
func LoadText(ctx context.Context, l Loader, id string) string {
	text, err := l.Load(ctx, id)
	if err != nil {
		logger.WithContext(ctx).With(zap.String("component", "source")).
			Error("failed to load table", zap.String("id", id), zap.Error(err))
		return ""
	}
	return text
}

// decode decompresses data according to the extension of name.
func decode(name string, data []byte) (string, error) {
	out, err := compression.Decompress(name, data)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeData, "failed to decompress "+name)
	}
	return string(out), nil
}
