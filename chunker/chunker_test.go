package chunker_test

import (
	"testing"

	"github.com/jchris/prolly-trees/chunker"
	"github.com/stretchr/testify/assert"
)

func runBoundaries(width uint, keys [][]byte) []int {
	b := chunker.New(width)
	var bounds []int
	for i, k := range keys {
		if b.Write(k) {
			bounds = append(bounds, i)
			b.Reset()
		}
	}
	return bounds
}

func sampleKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte{byte(i), byte(i >> 8), byte(i*7 + 3)}
	}
	return keys
}

func TestBoundariesAreDeterministic(t *testing.T) {
	keys := sampleKeys(500)
	first := runBoundaries(chunker.DefaultWidth, keys)
	second := runBoundaries(chunker.DefaultWidth, keys)
	assert.Equal(t, first, second)
}

func TestSubsequenceBoundariesAreStable(t *testing.T) {
	keys := sampleKeys(500)
	full := runBoundaries(chunker.DefaultWidth, keys)
	assert.NotEmpty(t, full)

	// A boundary decision depends only on bytes since the last boundary, so
	// re-chunking starting exactly at a prior boundary reproduces the same
	// boundaries (shifted) onward.
	cut := full[0] + 1
	tail := runBoundaries(chunker.DefaultWidth, keys[cut:])
	for _, b := range full[1:] {
		assert.Contains(t, tail, b-cut)
	}
}

func TestWiderPatternProducesFewerBoundaries(t *testing.T) {
	keys := sampleKeys(2000)
	narrow := runBoundaries(2, keys)
	wide := runBoundaries(8, keys)
	assert.Greater(t, len(narrow), len(wide))
}
