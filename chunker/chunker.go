// Package chunker implements the deterministic, content-defined boundary
// check that the tree package uses to decide where one leaf or branch node
// ends and the next begins: a rolling buzhash over a trailing window of
// bytes, with a boundary declared whenever the hash's low bits all equal a
// fixed pattern.
//
// Running the same hash over the same sequence of items always produces the
// same boundaries, no matter where in a larger sequence that sub-sequence
// sits. That is what lets two trees built from the same multiset of rows,
// inserted in different orders, converge on identical chunk boundaries (and
// therefore identical blocks) once the rows are walked in sorted key order —
// insertion order never affects the stored shape.
package chunker

import "github.com/kch42/buzhash"

// windowSize is the number of trailing bytes the rolling hash considers.
// The tree package feeds this chunker raw entry keys, which are short, so a
// 64-byte window is plenty to capture several keys' worth of history.
const windowSize = 64

// Boundary is a fresh boundary checker. Width controls the expected chunk
// size: the boundary test runs once per key written, so a boundary is
// declared, on average, every 2^width keys.
type Boundary struct {
	h       *buzhash.BuzHash
	pattern uint32
}

// New returns a Boundary with the given width. Width must be in [1, 32);
// callers pick it once for a whole tree (it is a property of the encoding,
// not of any one write) so there's no need to validate it per-call — an
// invalid width just produces a degenerate (always-true or never-true)
// pattern.
func New(width uint) *Boundary {
	return &Boundary{
		h:       buzhash.NewBuzHash(windowSize),
		pattern: uint32(1)<<width - 1,
	}
}

// Write folds another entry's key bytes into the rolling hash and reports
// whether a chunk boundary falls immediately after it.
func (b *Boundary) Write(key []byte) bool {
	_, _ = b.h.Write(key)
	return b.h.Sum32()&b.pattern == b.pattern
}

// Reset starts a fresh window, as if New had just been called. Called after
// every declared boundary so the next chunk's boundary decision depends
// only on bytes written since the last one.
func (b *Boundary) Reset() {
	b.h = buzhash.NewBuzHash(windowSize)
}

// DefaultWidth is the width used when a tree is created without an explicit
// chunking parameter, for an expected branching factor of about 8.
const DefaultWidth = 3
