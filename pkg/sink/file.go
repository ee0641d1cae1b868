package sink

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileSink writes one file per slot under a directory. Files are replaced
// atomically.
type FileSink struct {
	dir    string
	ext    string
	encode func(w io.Writer, a *Asset) error
	comp   compression.Compressor
	logger *zap.Logger
}

// NewJSONSink writes <dir>/<slot>.json files.
func NewJSONSink(dir string, pretty bool, algorithm string) (*FileSink, error) {
	return newFileSink(dir, ".json", algorithm, func(w io.Writer, a *Asset) error {
		enc := jsonpool.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(a)
	})
}

// NewYAMLSink writes <dir>/<slot>.yaml files.
func NewYAMLSink(dir, algorithm string) (*FileSink, error) {
	return newFileSink(dir, ".yaml", algorithm, func(w io.Writer, a *Asset) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return err
		}
		return enc.Close()
	})
}

func newFileSink(dir, ext, algorithm string, encode func(io.Writer, *Asset) error) (*FileSink, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "sink directory is required")
	}
	alg, err := compression.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sink compression")
	}
	s := &FileSink{
		dir:    dir,
		ext:    ext,
		encode: encode,
		logger: logger.Get().With(zap.String("component", "file_sink"), zap.String("dir", dir)),
	}
	if alg != compression.None {
		if s.comp, err = compression.NewCompressor(&compression.Config{Algorithm: alg, Level: compression.Default}); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sink compression")
		}
		s.ext += compression.Extension(alg)
	}
	return s, nil
}

// Path returns the file a slot is written to.
func (s *FileSink) Path(slot string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(slot))
	if slot == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrorTypeConfig, "invalid slot name %q", slot)
	}
	return filepath.Join(s.dir, clean+s.ext), nil
}

// Store encodes the dataset and replaces the slot's file.
func (s *FileSink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(slot)
	if err != nil {
		return err
	}
	asset, err := NewAsset(slot, ds)
	if err != nil {
		return err
	}

	buf := jsonpool.GetBuffer()
	defer jsonpool.PutBuffer(buf)
	if err := s.encode(buf, asset); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode slot "+slot)
	}
	data := buf.Bytes()
	if s.comp != nil {
		if data, err = s.comp.Compress(data); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to compress slot "+slot)
		}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write "+path)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("path", path),
		zap.String("revision", asset.Revision),
		zap.Int("records", len(asset.Records)))
	return nil
}

// Close is a no-op.
func (s *FileSink) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
