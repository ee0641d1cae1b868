// Package compression decompresses table sources and compresses sink output.
//
// Tables are often stored compressed next to their plain siblings
// ("items.csv.gz", "levels.csv.zst"). Detect picks the algorithm from a file
// name, and Decompress undoes it with a bound on the output size:
//
//	alg, plain := compression.Detect("items.csv.zst") // Zstd, "items.csv"
//	comp, err := compression.NewCompressor(&compression.Config{Algorithm: alg})
//	text, err := comp.Decompress(data)
//
// # Algorithms
//
//   - Gzip (.gz): wide compatibility, klauspost/compress implementation
//   - Zstd (.zst): best ratio
//   - S2 (.s2) and Snappy (.sz): fastest, framed stream format
//   - LZ4 (.lz4): frame format, pierrec/lz4
package compression

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents framed s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Best maximizes compression ratio.
	Best Level = 9
)

// DefaultMaxSize bounds decompressed output: 256 MiB.
const DefaultMaxSize int64 = 256 << 20

var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".s2":   S2,
	".sz":   Snappy,
	".lz4":  LZ4,
}

// Detect returns the algorithm implied by name's extension and name without
// that extension. Unknown extensions yield None and name unchanged.
func Detect(name string) (Algorithm, string) {
	ext := strings.ToLower(path.Ext(name))
	if alg, ok := extensions[ext]; ok {
		return alg, name[:len(name)-len(ext)]
	}
	return None, name
}

// ParseAlgorithm resolves a configured algorithm name. Empty means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch alg {
	case "", None:
		return None, nil
	case Gzip, Snappy, LZ4, Zstd, S2:
		return alg, nil
	}
	return None, fmt.Errorf("unsupported compression algorithm: %s", name)
}

// Extension returns the file extension of alg, "" for None.
func Extension(alg Algorithm) string {
	switch alg {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case S2:
		return ".s2"
	case Snappy:
		return ".sz"
	case LZ4:
		return ".lz4"
	}
	return ""
}

// Compressor provides compression and decompression functionality.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data. Output larger than the configured
	// MaxSize is an error.
	Decompress(data []byte) ([]byte, error)

	// CompressStream compresses from reader to writer.
	CompressStream(dst io.Writer, src io.Reader) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
	MaxSize   int64     // Decompressed size limit, DefaultMaxSize when zero
}

// DefaultConfig returns gzip at the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Gzip,
		Level:     Default,
		MaxSize:   DefaultMaxSize,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	base := streamCompressor{algorithm: config.Algorithm, level: config.Level, maxSize: config.MaxSize}
	if base.maxSize <= 0 {
		base.maxSize = DefaultMaxSize
	}
	if base.level == 0 {
		base.level = Default
	}

	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &base, nil
	case Gzip, Snappy, LZ4, S2:
		return &base, nil
	case Zstd:
		return newZstdCompressor(base), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// streamCompressor implements every algorithm through its stream reader
// and writer.
type streamCompressor struct {
	algorithm Algorithm
	level     Level
	maxSize   int64
}

// Algorithm returns the compression algorithm
func (sc *streamCompressor) Algorithm() Algorithm {
	return sc.algorithm
}

func (sc *streamCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := sc.CompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := sc.reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return readLimited(r, sc.maxSize)
}

func (sc *streamCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w, err := sc.writer(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *streamCompressor) reader(src io.Reader) (io.Reader, error) {
	switch sc.algorithm {
	case Gzip:
		return gzip.NewReader(src)
	case Snappy:
		return snappy.NewReader(src), nil
	case S2:
		return s2.NewReader(src), nil
	case LZ4:
		return lz4.NewReader(src), nil
	}
	return src, nil
}

func (sc *streamCompressor) writer(dst io.Writer) (io.WriteCloser, error) {
	switch sc.algorithm {
	case Gzip:
		return gzip.NewWriterLevel(dst, mapGzipLevel(sc.level))
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case S2:
		return s2.NewWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(sc.level))); err != nil {
			return nil, err
		}
		return w, nil
	}
	return nopCloser{dst}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Zstd compressor
type zstdCompressor struct {
	streamCompressor
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(base streamCompressor) *zstdCompressor {
	level := mapZstdLevel(base.level)
	zc := &zstdCompressor{streamCompressor: base}

	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return enc
	}
	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(base.maxSize)))
		return dec
	}
	return zc
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > zc.maxSize {
		return nil, fmt.Errorf("decompressed size exceeds limit of %d bytes", zc.maxSize)
	}
	return out, nil
}

func (zc *zstdCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	enc.Reset(dst)
	if _, err := io.Copy(enc, src); err != nil {
		return err
	}
	return enc.Close()
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("decompressed size exceeds limit of %d bytes", limit)
	}
	return out, nil
}

// Decompress detects the algorithm from name and decompresses data. Data of
// a name without a known extension is returned unchanged.
func Decompress(name string, data []byte) ([]byte, error) {
	alg, _ := Detect(name)
	if alg == None {
		return data, nil
	}
	comp, err := NewCompressor(&Config{Algorithm: alg})
	if err != nil {
		return nil, err
	}
	out, err := comp.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s as %s: %w", name, alg, err)
	}
	return out, nil
}

func mapGzipLevel(level Level) int {
	switch {
	case level <= Fastest:
		return gzip.BestSpeed
	case level >= Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch {
	case level <= Fastest:
		return lz4.Fast
	case level >= Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level <= Fastest:
		return zstd.SpeedFastest
	case level >= Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
