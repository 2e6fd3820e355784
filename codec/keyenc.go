package codec

import "encoding/binary"

// The tree engine (package tree) walks purely by []byte comparison — it
// never calls Compare. That only produces the right answer if a Value's key
// encoding is order-preserving: byte-compare(encode(a), encode(b)) must
// agree with Compare(a, b). This file is the one place that invariant has
// to hold.
//
// RowIDs: big-endian uint64, fixed-width, so numeric order is byte order.
//
// INT values: big-endian uint64 of (v XOR signBit), the classic trick for
// making signed integers sort correctly as unsigned bytes.
//
// VARCHAR values: the raw UTF-8 bytes (which already sort in code-point
// order) with 0x00 and 0x01 escaped and a 0x00 terminator appended. The
// terminator guarantees no encoded string is a byte-prefix of another's,
// which matters because
// DBIndex keys are value-bytes followed by an 8-byte RowID suffix: without
// an unambiguous terminator, "ab"+rowid could interleave with "aba"+rowid
// in the wrong order.

const signBit = uint64(1) << 63

// EncodeRowID returns the order-preserving 8-byte encoding of a RowID.
func EncodeRowID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// DecodeRowID is the inverse of EncodeRowID.
func DecodeRowID(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// EncodeOrderedInt returns the order-preserving 8-byte encoding of an INT value.
func EncodeOrderedInt(v int64) []byte {
	u := uint64(v) ^ signBit
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}

// DecodeOrderedInt is the inverse of EncodeOrderedInt.
func DecodeOrderedInt(b []byte) int64 {
	u := binary.BigEndian.Uint64(b)
	return int64(u ^ signBit)
}

// EncodeOrderedString returns the order-preserving, self-delimiting
// encoding of a VARCHAR value.
func EncodeOrderedString(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 0x00:
			out = append(out, 0x01, 0x01)
		case 0x01:
			out = append(out, 0x01, 0x02)
		default:
			out = append(out, s[i])
		}
	}
	return append(out, 0x00)
}

// DecodeOrderedString is the inverse of EncodeOrderedString. It returns the
// decoded string and the number of input bytes consumed (including the
// terminator).
func DecodeOrderedString(b []byte) (string, int) {
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) && b[i] != 0x00 {
		if b[i] == 0x01 && i+1 < len(b) {
			switch b[i+1] {
			case 0x01:
				out = append(out, 0x00)
			case 0x02:
				out = append(out, 0x01)
			}
			i += 2
			continue
		}
		out = append(out, b[i])
		i++
	}
	return string(out), i + 1
}

// EncodeOrderedValue encodes a single typed Value into its order-preserving
// key form. The Value's Type is assumed known to the caller (a DBIndex is
// always keyed by one column's type) — the encoding carries no type tag.
func EncodeOrderedValue(v Value) []byte {
	switch v.Type {
	case Int:
		return EncodeOrderedInt(v.Int)
	case Varchar:
		return EncodeOrderedString(v.Str)
	default:
		return nil
	}
}

// IndexKey builds the composite DBIndex key: value bytes, then an 8-byte
// RowID suffix, so entries order by (columnValue, rowId).
func IndexKey(v Value, rowID uint64) []byte {
	key := EncodeOrderedValue(v)
	return append(key, EncodeRowID(rowID)...)
}

// SplitIndexKey separates a DBIndex key back into its value bytes and RowID
// suffix, given the column's Type (needed because VARCHAR keys are
// variable-length).
func SplitIndexKey(key []byte, t Type) (valueBytes []byte, rowID uint64) {
	switch t {
	case Int:
		return key[:8], DecodeRowID(key[8:])
	case Varchar:
		_, n := DecodeOrderedString(key)
		return key[:n], DecodeRowID(key[n:])
	default:
		return nil, 0
	}
}

// DecodeOrderedValue decodes a value-bytes slice (as split out by
// SplitIndexKey) back into a typed Value.
func DecodeOrderedValue(b []byte, t Type) Value {
	switch t {
	case Int:
		return IntValue(DecodeOrderedInt(b))
	case Varchar:
		s, _ := DecodeOrderedString(b)
		return VarcharValue(s)
	default:
		return NullValue
	}
}
