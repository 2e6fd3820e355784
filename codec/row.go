package codec

import (
	"encoding/binary"

	"github.com/jchris/prolly-trees/dberrors"
)

// Row is a tuple of typed Values in column-declaration order, the payload
// SparseArray leaves store against a RowID key.
type Row []Value

// EncodeRow produces the canonical wire form of a Row: a value count,
// then for each Value a one-byte type tag followed by its payload. This is
// the format stored verbatim inside SparseArray leaf nodes, so two calls to
// EncodeRow on equal rows must always produce byte-identical output —
// content addressing depends on it.
func EncodeRow(row Row) []byte {
	buf := make([]byte, 0, 16*len(row))
	buf = appendUvarint(buf, uint64(len(row)))
	for _, v := range row {
		buf = append(buf, byte(v.Type))
		switch v.Type {
		case Null:
		case Int:
			var tmp [8]byte
			binary.BigEndian.PutUint64(tmp[:], uint64(v.Int))
			buf = append(buf, tmp[:]...)
		case Varchar:
			buf = appendUvarint(buf, uint64(len(v.Str)))
			buf = append(buf, v.Str...)
		}
	}
	return buf
}

// DecodeRow is the inverse of EncodeRow.
func DecodeRow(b []byte) (Row, error) {
	n, off, err := readUvarint(b, 0)
	if err != nil {
		return nil, err
	}
	row := make(Row, 0, n)
	for i := uint64(0); i < n; i++ {
		if off >= len(b) {
			return nil, dberrors.NewCodecError("truncated row at value %d", i)
		}
		t := Type(b[off])
		off++
		switch t {
		case Null:
			row = append(row, NullValue)
		case Int:
			if off+8 > len(b) {
				return nil, dberrors.NewCodecError("truncated int value")
			}
			v := int64(binary.BigEndian.Uint64(b[off : off+8]))
			off += 8
			row = append(row, IntValue(v))
		case Varchar:
			strLen, next, err := readUvarint(b, off)
			if err != nil {
				return nil, err
			}
			off = next
			if off+int(strLen) > len(b) {
				return nil, dberrors.NewCodecError("truncated varchar value")
			}
			row = append(row, VarcharValue(string(b[off:off+int(strLen)])))
			off += int(strLen)
		default:
			return nil, dberrors.NewCodecError("unknown value type tag %d", t)
		}
	}
	return row, nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readUvarint(b []byte, off int) (uint64, int, error) {
	v, n := binary.Uvarint(b[off:])
	if n <= 0 {
		return 0, off, dberrors.NewCodecError("malformed varint at offset %d", off)
	}
	return v, off + n, nil
}
