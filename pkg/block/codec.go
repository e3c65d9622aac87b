package block

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/compression"
	"github.com/colbuf/colbuf/pkg/metrics"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

// Frame layout: 4-byte magic, version byte, algorithm byte, then the
// compressed column payload. The payload holds a uvarint column count
// followed by each column's name, kind tag, row count and values.
//
// Value encodings per kind: unsigned integer kinds (including Date and
// DateTime) are plain uvarints; signed kinds are zigzag varint deltas
// against the previous value; floats are fixed-width little-endian;
// strings are length-prefixed raw bytes. Dictionary-encoded string
// columns are enumerated by row, so the frame is independent of the
// column's in-memory encoding.

var frameMagic = [4]byte{'C', 'B', 'L', 'K'}

const frameVersion = 1

var algCodes = map[compression.Algorithm]byte{
	compression.None:    0,
	compression.Gzip:    1,
	compression.Snappy:  2,
	compression.LZ4:     3,
	compression.Zstd:    4,
	compression.S2:      5,
	compression.Deflate: 6,
}

var algByCode = func() map[byte]compression.Algorithm {
	m := make(map[byte]compression.Algorithm, len(algCodes))
	for alg, code := range algCodes {
		m[code] = alg
	}
	return m
}()

var (
	poolMu sync.Mutex
	pools  = make(map[compression.Algorithm]*compression.CompressorPool)
)

func compressorPool(alg compression.Algorithm, level compression.Level) *compression.CompressorPool {
	poolMu.Lock()
	defer poolMu.Unlock()

	if p, ok := pools[alg]; ok {
		return p
	}
	p := compression.NewCompressorPool(&compression.Config{Algorithm: alg, Level: level})
	pools[alg] = p
	return p
}

// Encode serializes a block into a compressed frame. The frame is
// self-describing: Decode needs no out-of-band schema.
func Encode(b *Block, alg compression.Algorithm, level compression.Level) ([]byte, error) {
	code, ok := algCodes[alg]
	if !ok {
		return nil, xerrors.Newf(xerrors.KindConfig, "unsupported compression algorithm %q", alg).
			WithDetail("algorithm", string(alg))
	}

	payload := binary.AppendUvarint(nil, uint64(b.ColumnCount()))
	for i := 0; i < b.ColumnCount(); i++ {
		var err error
		payload, err = encodeColumn(payload, b.Name(i), b.Column(i))
		if err != nil {
			return nil, err
		}
	}

	compressed, err := compressorPool(alg, level).Compress(payload)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.KindCodec, "payload compression failed").
			WithDetail("algorithm", string(alg))
	}

	frame := make([]byte, 0, len(compressed)+6)
	frame = append(frame, frameMagic[:]...)
	frame = append(frame, frameVersion, code)
	frame = append(frame, compressed...)

	metrics.BlocksEncoded.WithLabelValues(string(alg)).Inc()
	return frame, nil
}

// Decode reconstructs a block from a frame produced by Encode.
func Decode(frame []byte) (*Block, error) {
	if len(frame) < 6 || frame[0] != frameMagic[0] || frame[1] != frameMagic[1] ||
		frame[2] != frameMagic[2] || frame[3] != frameMagic[3] {
		return nil, xerrors.New(xerrors.KindCodec, "not a block frame")
	}
	if frame[4] != frameVersion {
		return nil, xerrors.Newf(xerrors.KindCodec, "unsupported frame version %d", frame[4]).
			WithDetail("version", frame[4])
	}
	alg, ok := algByCode[frame[5]]
	if !ok {
		return nil, xerrors.Newf(xerrors.KindCodec, "unknown compression code %d", frame[5]).
			WithDetail("code", frame[5])
	}

	payload, err := compressorPool(alg, compression.Default).Decompress(frame[6:])
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.KindCodec, "payload decompression failed").
			WithDetail("algorithm", string(alg))
	}

	r := &frameReader{buf: payload}
	colCount, err := r.uvarint()
	if err != nil {
		return nil, err
	}

	b := New()
	for i := uint64(0); i < colCount; i++ {
		name, col, err := decodeColumn(r)
		if err != nil {
			return nil, err
		}
		if err := b.AppendColumn(name, col); err != nil {
			return nil, xerrors.Wrap(err, xerrors.KindCodec, "frame carries duplicate column name").
				WithDetail("column", name)
		}
	}

	metrics.BlocksDecoded.WithLabelValues(string(alg)).Inc()
	return b, nil
}

func encodeColumn(buf []byte, name string, col column.Column) ([]byte, error) {
	buf = binary.AppendUvarint(buf, uint64(len(name)))
	buf = append(buf, name...)
	buf = append(buf, byte(col.Kind()))
	buf = binary.AppendUvarint(buf, uint64(col.Len()))

	switch col.Kind() {
	case column.KindUInt8:
		return encodeUnsigned[uint8](buf, col)
	case column.KindUInt16, column.KindDate:
		return encodeUnsigned[uint16](buf, col)
	case column.KindUInt32:
		return encodeUnsigned[uint32](buf, col)
	case column.KindUInt64, column.KindDateTime:
		return encodeUnsigned[uint64](buf, col)
	case column.KindInt8:
		return encodeSigned[int8](buf, col)
	case column.KindInt16:
		return encodeSigned[int16](buf, col)
	case column.KindInt32:
		return encodeSigned[int32](buf, col)
	case column.KindInt64:
		return encodeSigned[int64](buf, col)
	case column.KindFloat32:
		data, ok := column.DataOf[float32](col)
		if !ok {
			return nil, storageMismatch(name, col.Kind())
		}
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
		return buf, nil
	case column.KindFloat64:
		data, ok := column.DataOf[float64](col)
		if !ok {
			return nil, storageMismatch(name, col.Kind())
		}
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		return buf, nil
	case column.KindString:
		c, ok := col.(*column.Bytes)
		if !ok {
			return nil, storageMismatch(name, col.Kind())
		}
		for i := 0; i < c.Len(); i++ {
			v := c.Raw(i)
			buf = binary.AppendUvarint(buf, uint64(len(v)))
			buf = append(buf, v...)
		}
		return buf, nil
	default:
		return nil, xerrors.Newf(xerrors.KindCodec, "cannot encode column kind %s", col.Kind()).
			WithDetail("kind", col.Kind().String())
	}
}

func encodeUnsigned[T unsignedElem](buf []byte, col column.Column) ([]byte, error) {
	data, ok := column.DataOf[T](col)
	if !ok {
		return nil, storageMismatch("", col.Kind())
	}
	return appendUnsigned(buf, data), nil
}

func encodeSigned[T signedElem](buf []byte, col column.Column) ([]byte, error) {
	data, ok := column.DataOf[T](col)
	if !ok {
		return nil, storageMismatch("", col.Kind())
	}
	return appendSignedDeltas(buf, data), nil
}

func storageMismatch(name string, kind column.Kind) *xerrors.Error {
	return xerrors.Newf(xerrors.KindInternal, "column storage does not match kind %s", kind).
		WithDetail("column", name).
		WithDetail("kind", kind.String())
}

func decodeColumn(r *frameReader) (string, column.Column, error) {
	nameLen, err := r.uvarint()
	if err != nil {
		return "", nil, err
	}
	nameBytes, err := r.take(int(nameLen))
	if err != nil {
		return "", nil, err
	}
	name := string(nameBytes)

	kindByte, err := r.take(1)
	if err != nil {
		return "", nil, err
	}
	kind := column.Kind(kindByte[0])

	rowCount, err := r.uvarint()
	if err != nil {
		return "", nil, err
	}
	// The row count is frame-declared and untrusted: bound it by the
	// smallest payload the declared rows could occupy before any
	// row-count-sized allocation happens.
	if rowCount > r.remaining()/minEncodedSize(kind) {
		return "", nil, xerrors.Newf(xerrors.KindCodec, "declared row count %d exceeds frame payload", rowCount).
			WithDetail("column", name).
			WithDetail("row_count", rowCount).
			WithDetail("remaining_bytes", r.remaining())
	}
	n := int(rowCount)

	opts := column.DefaultOptions()
	opts.InitialCapacity = n
	col, err := column.NewOfKind(kind, opts)
	if err != nil {
		return "", nil, xerrors.Wrap(err, xerrors.KindCodec, "frame carries unknown column kind").
			WithDetail("column", name)
	}

	var bulkErr error
	switch kind {
	case column.KindUInt8:
		bulkErr = readUnsignedInto[uint8](r, n, col)
	case column.KindUInt16, column.KindDate:
		bulkErr = readUnsignedInto[uint16](r, n, col)
	case column.KindUInt32:
		bulkErr = readUnsignedInto[uint32](r, n, col)
	case column.KindUInt64, column.KindDateTime:
		bulkErr = readUnsignedInto[uint64](r, n, col)
	case column.KindInt8:
		bulkErr = readSignedInto[int8](r, n, col)
	case column.KindInt16:
		bulkErr = readSignedInto[int16](r, n, col)
	case column.KindInt32:
		bulkErr = readSignedInto[int32](r, n, col)
	case column.KindInt64:
		bulkErr = readSignedInto[int64](r, n, col)
	case column.KindFloat32:
		vals := make([]float32, n)
		for i := range vals {
			raw, err := r.take(4)
			if err != nil {
				return "", nil, err
			}
			vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw))
		}
		bulkErr = col.AppendBulk(vals)
	case column.KindFloat64:
		vals := make([]float64, n)
		for i := range vals {
			raw, err := r.take(8)
			if err != nil {
				return "", nil, err
			}
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw))
		}
		bulkErr = col.AppendBulk(vals)
	case column.KindString:
		vals := make([][]byte, n)
		for i := range vals {
			size, err := r.uvarint()
			if err != nil {
				return "", nil, err
			}
			raw, err := r.take(int(size))
			if err != nil {
				return "", nil, err
			}
			vals[i] = raw
		}
		bulkErr = col.AppendBulk(vals)
	}

	if bulkErr != nil {
		return "", nil, xerrors.Wrap(bulkErr, xerrors.KindCodec, "decoded values rejected by column").
			WithDetail("column", name)
	}
	return name, col, nil
}

type unsignedElem interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type signedElem interface {
	~int8 | ~int16 | ~int32 | ~int64
}

func appendUnsigned[T unsignedElem](buf []byte, vals []T) []byte {
	for _, v := range vals {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return buf
}

func appendSignedDeltas[T signedElem](buf []byte, vals []T) []byte {
	var prev int64
	for _, v := range vals {
		buf = binary.AppendVarint(buf, int64(v)-prev)
		prev = int64(v)
	}
	return buf
}

func readUnsignedInto[T unsignedElem](r *frameReader, n int, col column.Column) error {
	vals := make([]T, n)
	for i := range vals {
		v, err := r.uvarint()
		if err != nil {
			return err
		}
		vals[i] = T(v)
	}
	return col.AppendBulk(vals)
}

func readSignedInto[T signedElem](r *frameReader, n int, col column.Column) error {
	vals := make([]T, n)
	var prev int64
	for i := range vals {
		delta, err := r.varint()
		if err != nil {
			return err
		}
		prev += delta
		vals[i] = T(prev)
	}
	return col.AppendBulk(vals)
}

// minEncodedSize returns the fewest payload bytes one value of the kind
// can occupy: varints and string length prefixes take at least one byte,
// floats are fixed-width.
func minEncodedSize(kind column.Kind) uint64 {
	switch kind {
	case column.KindFloat32:
		return 4
	case column.KindFloat64:
		return 8
	default:
		return 1
	}
}

// frameReader walks a decompressed payload with bounds checking.
type frameReader struct {
	buf []byte
	off int
}

func (r *frameReader) remaining() uint64 {
	return uint64(len(r.buf) - r.off)
}

func (r *frameReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, xerrors.New(xerrors.KindCodec, "truncated uvarint in frame payload")
	}
	r.off += n
	return v, nil
}

func (r *frameReader) varint() (int64, error) {
	v, n := binary.Varint(r.buf[r.off:])
	if n <= 0 {
		return 0, xerrors.New(xerrors.KindCodec, "truncated varint in frame payload")
	}
	r.off += n
	return v, nil
}

func (r *frameReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, xerrors.New(xerrors.KindCodec, "truncated frame payload")
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}
