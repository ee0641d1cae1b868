// Package json provides goccy/go-json serialization with pooled buffers for
// the JSON sink and the CLI's decode output.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// maxPooledBuffer is the largest buffer returned to the pool.
const maxPooledBuffer = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// NewEncoder returns an encoder that does not escape HTML.
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// MarshalLines marshals values as line-delimited JSON.
func MarshalLines(values []interface{}) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := NewEncoder(buf)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}

	// Copy since the buffer goes back to the pool
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// StreamingEncoder writes values one at a time, either as a JSON array or
// as line-delimited JSON.
type StreamingEncoder struct {
	writer      io.Writer
	buf         *bytes.Buffer
	firstRecord bool
	isArray     bool
	indent      string
	err         error
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	se := &StreamingEncoder{
		writer:      w,
		buf:         GetBuffer(),
		firstRecord: true,
		isArray:     isArray,
	}
	if isArray {
		se.write([]byte{'['})
	}
	return se
}

// SetPretty enables indented output with the given indent.
func (se *StreamingEncoder) SetPretty(pretty bool, indent string) {
	se.indent = ""
	if pretty {
		se.indent = indent
	}
}

// Encode encodes a single value
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.err != nil {
		return se.err
	}
	se.buf.Reset()
	enc := NewEncoder(se.buf)
	if se.indent != "" {
		prefix := ""
		if se.isArray {
			prefix = se.indent
		}
		enc.SetIndent(prefix, se.indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	data := bytes.TrimRight(se.buf.Bytes(), "\n")

	if se.isArray {
		switch {
		case !se.firstRecord:
			se.write([]byte{','})
			if se.indent != "" {
				se.write([]byte{'\n'})
			}
		case se.indent != "":
			se.write([]byte{'\n'})
		}
		if se.indent != "" {
			se.write([]byte(se.indent))
		}
		se.write(data)
	} else {
		se.write(data)
		se.write([]byte{'\n'})
	}
	se.firstRecord = false
	return se.err
}

// Close finalizes the encoding
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		if se.indent != "" && !se.firstRecord {
			se.write([]byte{'\n'})
		}
		se.write([]byte{']', '\n'})
	}
	PutBuffer(se.buf)
	se.buf = nil
	return se.err
}

func (se *StreamingEncoder) write(p []byte) {
	if se.err != nil {
		return
	}
	_, se.err = se.writer.Write(p)
}
