// Package jsonenc provides JSON serialization of materialized rows with
// object pooling.
//
// Row values use the materializer's representations: unsigned columns as
// uint64, signed as int64, floats as float64 and strings as []byte.
// goccy/go-json renders []byte as base64 by default, so rows pass through
// renderRow which converts byte slices to strings before encoding.
package jsonenc

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/colbuf/colbuf/pkg/materialize"
	"github.com/colbuf/colbuf/pkg/strpool"
)

var (
	encoderPool = sync.Pool{
		New: func() interface{} {
			return &pooledEncoder{}
		},
	}

	bufferPool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 4096))
		},
	}
)

// pooledEncoder wraps a JSON encoder for reuse
type pooledEncoder struct {
	encoder *gojson.Encoder
}

// GetEncoder gets a pooled JSON encoder bound to w
func GetEncoder(w io.Writer) *gojson.Encoder {
	pe := encoderPool.Get().(*pooledEncoder)

	// Encoders cannot be rebound, so a fresh one wraps the writer
	pe.encoder = gojson.NewEncoder(w)
	pe.encoder.SetEscapeHTML(false)

	enc := pe.encoder
	pe.encoder = nil
	encoderPool.Put(pe)
	return enc
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
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

// renderRow converts a materialized row into a JSON-friendly map: []byte
// string values become string, everything else passes through.
func renderRow(row materialize.Row) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			out[k] = strpool.BytesToString(b)
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalRow marshals one row as a JSON object.
func MarshalRow(row materialize.Row) ([]byte, error) {
	return gojson.Marshal(renderRow(row))
}

// MarshalRows marshals rows as a JSON array, preserving row order.
func MarshalRows(rows []materialize.Row) ([]byte, error) {
	if len(rows) == 0 {
		return []byte("[]"), nil
	}

	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := MarshalRow(row)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// RowWriter streams rows to a writer as line-delimited JSON. It satisfies
// materialize.RowSink, so it can be handed directly to Stream.
type RowWriter struct {
	encoder *gojson.Encoder
}

// NewRowWriter creates a line-delimited JSON row writer over w.
func NewRowWriter(w io.Writer) *RowWriter {
	return &RowWriter{encoder: GetEncoder(w)}
}

// WriteRow encodes one row followed by a newline. Rows drawn from the row
// pool are released after encoding.
func (rw *RowWriter) WriteRow(row materialize.Row) error {
	err := rw.encoder.Encode(renderRow(row))
	row.Release()
	return err
}
