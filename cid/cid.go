// Package cid implements the content identifiers that address every block
// in the store: a CID is a pure function of a block's bytes, so content
// addressing falls out for free (same bytes, same CID) and the whole
// persisted state forms a DAG, never a cycle.
//
// The digest is blake2b-256. We prepend a small multihash-style header
// (function code, digest length) rather than depending on a full multihash
// library, so a CID can later grow a second digest function without
// changing the wire shape. See DESIGN.md for why we didn't pull in
// github.com/ipfs/go-ipfs for this.
package cid

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/jbenet/go-base58"
	"golang.org/x/crypto/blake2b"
)

// funcBlake2b256 is this package's only supported multihash function code.
const funcBlake2b256 = 0xb2

const digestSize = 32

// Size is the fixed length in bytes of a CID's wire form, as produced by
// Bytes and consumed by FromWire. Callers that embed a CID inside a larger
// fixed-layout encoding (tree branch nodes) use this to know how many bytes
// to slice off without scanning.
const Size = 2 + digestSize

// CID is a content identifier: a tagged hash of a block's bytes.
type CID struct {
	digest [digestSize]byte
}

// Empty is the zero CID, used as the null sentinel for "no block here yet"
// (an empty SparseArray, an index with no entries, ...).
var Empty = CID{}

// IsEmpty reports whether c is the null sentinel.
func (c CID) IsEmpty() bool {
	return c == Empty
}

// Digest returns a copy of the raw hash bytes.
func (c CID) Digest() [digestSize]byte {
	return c.digest
}

// FromBytes computes the CID of data. Same bytes in, same CID out, always.
func FromBytes(data []byte) CID {
	sum := blake2b.Sum256(data)
	return CID{sum}
}

// New wraps a precomputed digest as a CID.
func New(digest [digestSize]byte) CID {
	return CID{digest}
}

// Bytes returns the multihash-style wire form: function code, length, digest.
func (c CID) Bytes() []byte {
	buf := make([]byte, 2+digestSize)
	buf[0] = funcBlake2b256
	buf[1] = digestSize
	copy(buf[2:], c.digest[:])
	return buf
}

// FromWire parses the wire form produced by Bytes.
func FromWire(b []byte) (CID, error) {
	if len(b) != 2+digestSize || b[0] != funcBlake2b256 || int(b[1]) != digestSize {
		return CID{}, fmt.Errorf("cid: malformed multihash header")
	}
	var digest [digestSize]byte
	copy(digest[:], b[2:])
	return CID{digest}, nil
}

// String renders the CID as a base58btc-encoded multihash, the textual form
// used in logs, error messages, and the "Describe" debug dump.
func (c CID) String() string {
	return base58.Encode(c.Bytes())
}

// Parse is the inverse of String.
func Parse(s string) (CID, error) {
	return FromWire(base58.Decode(s))
}

// Less gives CIDs a total order by digest bytes; Slice sorts with it.
func Less(a, b CID) bool {
	return bytes.Compare(a.digest[:], b.digest[:]) < 0
}

// HexDigest is a debug-friendly alternate rendering of the raw digest.
func (c CID) HexDigest() string {
	return hex.EncodeToString(c.digest[:])
}

// Slice is a sortable list of CIDs.
type Slice []CID

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return Less(s[i], s[j]) }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
