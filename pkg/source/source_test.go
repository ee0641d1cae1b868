package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"cloud.google.com/go/storage"
	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const itemsTable = "Id,Name\nint,string\n1,\"Sword, long\"\n2,Shield\n"

func compress(t *testing.T, alg compression.Algorithm, text string) []byte {
	t.Helper()
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: alg})
	require.NoError(t, err)
	data, err := comp.Compress([]byte(text))
	require.NoError(t, err)
	return data
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tables"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables", "items.csv"), []byte(itemsTable), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "levels.csv.gz"), compress(t, compression.Gzip, itemsTable), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packed.csv.zst"), compress(t, compression.Zstd, itemsTable), 0o600))

	l := NewFileLoader(dir)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
	}{
		{"plain", "tables/items.csv"},
		{"compressed name", "levels.csv.gz"},
		{"compressed sibling", "levels.csv"},
		{"zstd sibling", "packed.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := l.Load(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, itemsTable, text)
		})
	}

	_, err := l.Load(ctx, "missing.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Empty(t, LoadText(ctx, l, "missing.csv"))
}

func TestFSLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"tables/items.csv":     {Data: []byte(itemsTable)},
		"tables/levels.csv.s2": {Data: compress(t, compression.S2, itemsTable)},
	}
	l := NewFSLoader(fsys)

	text, err := l.Load(context.Background(), "tables/items.csv")
	require.NoError(t, err)
	assert.Equal(t, itemsTable, text)

	text, err = l.Load(context.Background(), "tables/levels.csv")
	require.NoError(t, err)
	assert.Equal(t, itemsTable, text)

	_, err = l.Load(context.Background(), "nope.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestLoaderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFSLoader(fstest.MapFS{}).Load(ctx, "items.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/items.csv":
			_, _ = io.WriteString(w, itemsTable)
		case "/items.csv.lz4":
			_, _ = w.Write(compress(t, compression.LZ4, itemsTable))
		case "/broken.csv":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL+"/", 0)
	ctx := context.Background()

	text, err := l.Load(ctx, "items.csv")
	require.NoError(t, err)
	assert.Equal(t, itemsTable, text)

	text, err = l.Load(ctx, "items.csv.lz4")
	require.NoError(t, err)
	assert.Equal(t, itemsTable, text)

	_, err = l.Load(ctx, "missing.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = l.Load(ctx, "broken.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Loader(t *testing.T) {
	l := NewS3Loader(&fakeS3{objects: map[string][]byte{
		"assets/items.csv":    []byte(itemsTable),
		"assets/items.csv.gz": compress(t, compression.Gzip, itemsTable),
	}})
	ctx := context.Background()

	for _, id := range []string{"assets/items.csv", "assets/items.csv.gz"} {
		text, err := l.Load(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, itemsTable, text)
	}

	_, err := l.Load(ctx, "assets/missing.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = l.Load(ctx, "no-key")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGCSLoader(t *testing.T) {
	l := NewGCSLoader(func(_ context.Context, bucket, object string) (io.ReadCloser, error) {
		if bucket == "assets" && object == "items.csv.sz" {
			return io.NopCloser(bytes.NewReader(compress(t, compression.Snappy, itemsTable))), nil
		}
		return nil, storage.ErrObjectNotExist
	})
	defer l.Close()

	text, err := l.Load(context.Background(), "assets/items.csv.sz")
	require.NoError(t, err)
	assert.Equal(t, itemsTable, text)

	_, err = l.Load(context.Background(), "assets/other.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func workbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Id", "Name", "Note"},
		{"int", "string", "string"},
		{1, "Sword, long", "sharp"},
		{2, "Shield"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	_, err := f.NewSheet("Levels")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Levels", "A1", &[]interface{}{"Level"}))
	require.NoError(t, f.SetSheetRow("Levels", "A2", &[]interface{}{"int"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.String()
}

func TestXLSXLoader(t *testing.T) {
	book := workbook(t)
	raw := LoaderFunc(func(_ context.Context, id string) (string, error) {
		if id != "book.xlsx" {
			return "", errors.New(errors.ErrorTypeNotFound, "no such workbook")
		}
		return book, nil
	})
	l := NewXLSXLoader(raw)
	ctx := context.Background()

	text, err := l.Load(ctx, "book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Id,Name,Note\nint,string,string\n1,\"Sword, long\",sharp\n2,Shield,", text)

	tbl, err := csvtable.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Sword, long", tbl.Record(0).Cell(1))

	text, err = l.Load(ctx, "book.xlsx#Levels")
	require.NoError(t, err)
	assert.Equal(t, "Level\nint", text)

	_, err = l.Load(ctx, "book.xlsx#Nope")
	assert.Error(t, err)

	_, err = l.Load(ctx, "other.xlsx")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		uri, scheme, id string
	}{
		{"items.csv", "file", "items.csv"},
		{"file://tables/items.csv", "file", "tables/items.csv"},
		{"S3://assets/items.csv", "s3", "assets/items.csv"},
		{"https://example.com/items.csv", "https", "example.com/items.csv"},
		{"xlsx://book.xlsx#Sheet1", "xlsx", "book.xlsx#Sheet1"},
		{"dir/with://odd", "file", "dir/with://odd"},
	}
	for _, tt := range tests {
		scheme, id := Split(tt.uri)
		assert.Equal(t, tt.scheme, scheme, tt.uri)
		assert.Equal(t, tt.id, id, tt.uri)
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.csv"), []byte(itemsTable), 0o600))

	reg := NewRegistry(config.SourceConfig{BaseDir: dir})
	assert.Equal(t, []string{"file", "gs", "http", "https", "s3", "xlsx"}, reg.Schemes())
	assert.Error(t, reg.Register("file", NewFileLoader(dir)))

	ctx := context.Background()
	for _, uri := range []string{"items.csv", "file://items.csv"} {
		text, err := reg.Load(ctx, uri)
		require.NoError(t, err)
		assert.Equal(t, itemsTable, text)
	}

	reg.Replace("s3", NewS3Loader(&fakeS3{objects: map[string][]byte{"b/k.csv": []byte("A\nint\n")}}))
	text, err := reg.Load(ctx, "s3://b/k.csv")
	require.NoError(t, err)
	assert.Equal(t, "A\nint\n", text)

	_, err = reg.Load(ctx, "ftp://host/items.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLazyRetriesFailedDial(t *testing.T) {
	calls := 0
	l := lazy(func(context.Context) (Loader, error) {
		calls++
		if calls == 1 {
			return nil, errors.New(errors.ErrorTypeConnection, "dial failed")
		}
		return LoaderFunc(func(_ context.Context, id string) (string, error) {
			return strings.ToUpper(id), nil
		}), nil
	})

	_, err := l.Load(context.Background(), "a")
	assert.Error(t, err)
	text, err := l.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", text)
	_, _ = l.Load(context.Background(), "b")
	assert.Equal(t, 2, calls)
}
