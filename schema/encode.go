package schema

import (
	"encoding/binary"

	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dberrors"
)

// Encode produces the canonical block bytes for a Table's schema. It is
// stored as its own block so that two tables with the same name and
// identical column definitions share the exact same schema block, the same
// way two leaves with identical rows share a block. The table name is part
// of the encoding, so tables with different names never share one.
func Encode(t *Table) []byte {
	buf := appendString(nil, t.Name)
	buf = appendUvarint(buf, uint64(len(t.Columns)))
	for _, c := range t.Columns {
		buf = appendString(buf, c.Name)
		buf = append(buf, byte(c.Type))
		buf = appendUvarint(buf, uint64(c.Length))
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*Table, error) {
	name, off, err := readString(b, 0)
	if err != nil {
		return nil, err
	}
	count, off, err := readUvarint(b, off)
	if err != nil {
		return nil, err
	}
	t := &Table{Name: name, Columns: make([]Column, 0, count)}
	for i := uint64(0); i < count; i++ {
		colName, next, err := readString(b, off)
		if err != nil {
			return nil, err
		}
		off = next
		if off >= len(b) {
			return nil, dberrors.NewCodecError("truncated column type tag")
		}
		colType := codec.Type(b[off])
		off++
		length, next, err := readUvarint(b, off)
		if err != nil {
			return nil, err
		}
		off = next
		t.Columns = append(t.Columns, Column{Name: colName, Type: colType, Length: int(length)})
	}
	return t, nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readUvarint(b []byte, off int) (uint64, int, error) {
	if off >= len(b) {
		return 0, off, dberrors.NewCodecError("malformed varint at offset %d", off)
	}
	v, n := binary.Uvarint(b[off:])
	if n <= 0 {
		return 0, off, dberrors.NewCodecError("malformed varint at offset %d", off)
	}
	return v, off + n, nil
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(b []byte, off int) (string, int, error) {
	n, off, err := readUvarint(b, off)
	if err != nil {
		return "", off, err
	}
	if off+int(n) > len(b) {
		return "", off, dberrors.NewCodecError("truncated string")
	}
	return string(b[off : off+int(n)]), off + int(n), nil
}
