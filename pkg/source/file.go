package source

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// siblingAlgorithms are tried, in order, when a plain table is missing.
var siblingAlgorithms = []compression.Algorithm{
	compression.Zstd,
	compression.Gzip,
	compression.S2,
	compression.Snappy,
	compression.LZ4,
}

// FileLoader reads tables from disk. Ids are paths relative to BaseDir.
// When id does not exist, a compressed sibling such as id+".gz" is used.
type FileLoader struct {
	BaseDir string
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{BaseDir: dir}
}

// Load reads and decompresses the file named by id.
func (l *FileLoader) Load(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return readWithSiblings(id, func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(l.BaseDir, filepath.FromSlash(name)))
	})
}

// FSLoader reads tables from an fs.FS, typically an embed.FS.
type FSLoader struct {
	FS fs.FS
}

// NewFSLoader creates a loader over fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{FS: fsys}
}

// Load reads and decompresses the file named by id.
func (l *FSLoader) Load(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return readWithSiblings(id, func(name string) ([]byte, error) {
		return fs.ReadFile(l.FS, path.Clean(name))
	})
}

func readWithSiblings(id string, read func(string) ([]byte, error)) (string, error) {
	data, err := read(id)
	if err == nil {
		return decode(id, data)
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to read "+id)
	}
	if alg, _ := compression.Detect(id); alg == compression.None {
		for _, alg := range siblingAlgorithms {
			name := id + compression.Extension(alg)
			if data, serr := read(name); serr == nil {
				return decode(name, data)
			}
		}
	}
	return "", errors.Wrap(err, errors.ErrorTypeNotFound, "table "+id+" not found").
		WithDetail("id", id)
}
