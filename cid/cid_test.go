package cid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministic(t *testing.T) {
	a := FromBytes([]byte("hello"))
	b := FromBytes([]byte("hello"))
	assert.Equal(t, a, b)

	c := FromBytes([]byte("hello!"))
	assert.NotEqual(t, a, c)
}

func TestRoundTripString(t *testing.T) {
	c := FromBytes([]byte("row 12"))
	parsed, err := Parse(c.String())
	assert.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestEmpty(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	assert.False(t, FromBytes([]byte("x")).IsEmpty())
}

func TestDigestIsCopy(t *testing.T) {
	c := FromBytes([]byte("abc"))
	d := c.Digest()
	d[0] ^= 0xff
	assert.NotEqual(t, c.Digest(), d)
}

func TestLessTotalOrder(t *testing.T) {
	a := FromBytes([]byte("a"))
	b := FromBytes([]byte("b"))
	if Less(a, b) {
		assert.False(t, Less(b, a))
	} else {
		assert.True(t, Less(b, a) || a == b)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("not-a-cid")
	assert.Error(t, err)
}
