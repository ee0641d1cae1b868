package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// Schema metadata keys of Arrow files.
const (
	ArrowMetaSlot     = "csvconf.slot"
	ArrowMetaRevision = "csvconf.revision"
)

// ArrowSink writes <dir>/<slot>.arrow IPC files, one record batch per slot.
// Primitive scalars map to Arrow primitives, enums to int64 ordinals, arrays
// and lists of primitives to Arrow lists. Everything else is stored as its
// JSON text.
type ArrowSink struct {
	files  *FileSink
	mem    memory.Allocator
	logger *zap.Logger
}

// NewArrowSink creates an Arrow sink writing under dir.
func NewArrowSink(dir string) (*ArrowSink, error) {
	files, err := newFileSink(dir, ".arrow", "", nil)
	if err != nil {
		return nil, err
	}
	return &ArrowSink{
		files:  files,
		mem:    memory.NewGoAllocator(),
		logger: logger.Get().With(zap.String("component", "arrow_sink"), zap.String("dir", dir)),
	}, nil
}

// Path returns the file a slot is written to.
func (s *ArrowSink) Path(slot string) (string, error) {
	return s.files.Path(slot)
}

// Store writes the dataset as an Arrow IPC file.
func (s *ArrowSink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
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
	if err := s.write(buf, asset, ds); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode slot "+slot+" as arrow")
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write "+path)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("path", path),
		zap.String("revision", asset.Revision),
		zap.Int("records", ds.Len()))
	return nil
}

// Close is a no-op.
func (s *ArrowSink) Close() error { return nil }

func (s *ArrowSink) write(w io.Writer, asset *Asset, ds *materialize.Dataset) error {
	fields := make([]arrow.Field, len(ds.Columns))
	for i, c := range ds.Columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     ArrowType(c.Type),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{"csvconf.type"}, []string{c.Descriptor}),
		}
	}
	md := arrow.NewMetadata(
		[]string{ArrowMetaSlot, ArrowMetaRevision},
		[]string{asset.Slot, asset.Revision},
	)
	schema := arrow.NewSchema(fields, &md)

	rb := array.NewRecordBuilder(s.mem, schema)
	defer rb.Release()
	for _, row := range ds.Rows {
		for i, c := range ds.Columns {
			if err := appendArrow(rb.Field(i), c.Type, row[i]); err != nil {
				return fmt.Errorf("column %s: %w", c.Name, err)
			}
		}
	}
	rec := rb.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(s.mem))
	if err != nil {
		return fmt.Errorf("failed to create Arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return fw.Close()
}

// ArrowType maps a conversion type to the Arrow column type used by
// ArrowSink.
func ArrowType(t convert.Type) arrow.DataType {
	switch t.Kind() {
	case convert.KindEnum:
		return arrow.PrimitiveTypes.Int64
	case convert.KindArray, convert.KindList:
		if elem := ArrowType(t.Elem()); elem.ID() != arrow.STRING || isText(t.Elem()) {
			return arrow.ListOf(elem)
		}
		return arrow.BinaryTypes.String
	case convert.KindScalar:
		switch t.Scalar() {
		case convert.ScalarBool:
			return arrow.FixedWidthTypes.Boolean
		case convert.ScalarSByte:
			return arrow.PrimitiveTypes.Int8
		case convert.ScalarByte:
			return arrow.PrimitiveTypes.Uint8
		case convert.ScalarShort:
			return arrow.PrimitiveTypes.Int16
		case convert.ScalarInt:
			return arrow.PrimitiveTypes.Int32
		case convert.ScalarUInt:
			return arrow.PrimitiveTypes.Uint32
		case convert.ScalarLong:
			return arrow.PrimitiveTypes.Int64
		case convert.ScalarFloat:
			return arrow.PrimitiveTypes.Float32
		case convert.ScalarDouble:
			return arrow.PrimitiveTypes.Float64
		}
	}
	return arrow.BinaryTypes.String
}

// isText reports whether t is stored as plain text rather than JSON.
func isText(t convert.Type) bool {
	return t.Kind() == convert.KindScalar &&
		(t.Scalar() == convert.ScalarString || t.Scalar() == convert.ScalarChar)
}

func appendArrow(b array.Builder, t convert.Type, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	rv := reflect.ValueOf(v)

	switch bb := b.(type) {
	case *array.BooleanBuilder:
		bb.Append(rv.Bool())
	case *array.Int8Builder:
		bb.Append(int8(rv.Int()))
	case *array.Uint8Builder:
		bb.Append(uint8(rv.Uint()))
	case *array.Int16Builder:
		bb.Append(int16(rv.Int()))
	case *array.Int32Builder:
		bb.Append(int32(rv.Int()))
	case *array.Uint32Builder:
		bb.Append(uint32(rv.Uint()))
	case *array.Int64Builder:
		if rv.CanUint() {
			bb.Append(int64(rv.Uint()))
		} else {
			bb.Append(rv.Int())
		}
	case *array.Float32Builder:
		bb.Append(float32(rv.Float()))
	case *array.Float64Builder:
		bb.Append(rv.Float())
	case *array.ListBuilder:
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("expected a slice, got %T", v)
		}
		bb.Append(true)
		for i := 0; i < rv.Len(); i++ {
			if err := appendArrow(bb.ValueBuilder(), t.Elem(), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case *array.StringBuilder:
		switch {
		case t.Kind() == convert.KindScalar && t.Scalar() == convert.ScalarString:
			bb.Append(rv.String())
		case t.Kind() == convert.KindScalar && t.Scalar() == convert.ScalarChar:
			bb.Append(string(rune(rv.Int())))
		default:
			data, err := jsonpool.Marshal(v)
			if err != nil {
				return err
			}
			bb.Append(string(data))
		}
	default:
		return fmt.Errorf("unsupported arrow builder %T", b)
	}
	return nil
}

// ReadArrowFile opens an Arrow file written by ArrowSink and returns its
// schema and row count.
func ReadArrowFile(path string) (*arrow.Schema, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to open "+path)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeData, "failed to read arrow file "+path)
	}
	defer r.Close()

	var rows int64
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrorTypeData, "failed to read record batch")
		}
		rows += rec.NumRows()
	}
	return r.Schema(), rows, nil
}
