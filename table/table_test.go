package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteAtInBoundsAndOutOfBounds(t *testing.T) {
	seg := &Segment{AML: []byte{0x11, 0x22, 0x33}}

	b, ok := seg.ByteAt(1)
	assert.True(t, ok)
	assert.Equal(t, byte(0x22), b)

	_, ok = seg.ByteAt(3)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "DSDT", KindDSDT.String())
	assert.Equal(t, "SSDT", KindSSDT.String())
	assert.Equal(t, "PSDT", KindPSDT.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
