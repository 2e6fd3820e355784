package tree

import (
	"encoding/binary"

	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/dberrors"
)

// Encode produces the canonical block bytes for a Node. Two Nodes with
// equal Kind and equal contents always encode to identical bytes, which is
// the property content addressing depends on.
func Encode(n *Node) []byte {
	buf := []byte{byte(n.Kind)}
	switch n.Kind {
	case Leaf:
		buf = appendUvarint(buf, uint64(len(n.Entries)))
		for _, e := range n.Entries {
			buf = appendUvarint(buf, uint64(len(e.Key)))
			buf = append(buf, e.Key...)
			buf = appendUvarint(buf, uint64(len(e.Value)))
			buf = append(buf, e.Value...)
		}
	case Branch:
		buf = appendUvarint(buf, uint64(len(n.Children)))
		for _, c := range n.Children {
			buf = appendUvarint(buf, uint64(len(c.Key)))
			buf = append(buf, c.Key...)
			buf = append(buf, c.CID.Bytes()...)
			buf = appendUvarint(buf, c.Count)
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*Node, error) {
	if len(b) == 0 {
		return nil, dberrors.NewCodecError("empty node block")
	}
	kind := Kind(b[0])
	off := 1
	n := &Node{Kind: kind}
	switch kind {
	case Leaf:
		count, next, err := readUvarint(b, off)
		if err != nil {
			return nil, err
		}
		off = next
		n.Entries = make([]Entry, 0, count)
		for i := uint64(0); i < count; i++ {
			keyLen, next, err := readUvarint(b, off)
			if err != nil {
				return nil, err
			}
			off = next
			if off+int(keyLen) > len(b) {
				return nil, dberrors.NewCodecError("truncated leaf key")
			}
			key := b[off : off+int(keyLen)]
			off += int(keyLen)

			valLen, next, err := readUvarint(b, off)
			if err != nil {
				return nil, err
			}
			off = next
			if off+int(valLen) > len(b) {
				return nil, dberrors.NewCodecError("truncated leaf value")
			}
			val := b[off : off+int(valLen)]
			off += int(valLen)

			n.Entries = append(n.Entries, Entry{Key: key, Value: val})
		}
	case Branch:
		count, next, err := readUvarint(b, off)
		if err != nil {
			return nil, err
		}
		off = next
		n.Children = make([]ChildRef, 0, count)
		for i := uint64(0); i < count; i++ {
			keyLen, next, err := readUvarint(b, off)
			if err != nil {
				return nil, err
			}
			off = next
			if off+int(keyLen) > len(b) {
				return nil, dberrors.NewCodecError("truncated branch key")
			}
			key := b[off : off+int(keyLen)]
			off += int(keyLen)

			if off+cid.Size > len(b) {
				return nil, dberrors.NewCodecError("truncated branch child cid")
			}
			childCID, err := cid.FromWire(b[off : off+cid.Size])
			if err != nil {
				return nil, err
			}
			off += cid.Size

			cnt, next, err := readUvarint(b, off)
			if err != nil {
				return nil, err
			}
			off = next

			n.Children = append(n.Children, ChildRef{Key: key, CID: childCID, Count: cnt})
		}
	default:
		return nil, dberrors.NewCodecError("unknown node kind tag %d", kind)
	}
	return n, nil
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
