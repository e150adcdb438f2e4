package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadPkgLengthOneByteForm(t *testing.T) {
	// Lead byte 0x05: top two bits (extra-byte count) zero, low six bits
	// are the full length (including this byte itself).
	r := NewReader([]byte{0x05, 0xaa, 0xbb, 0xcc, 0xdd}, 0)
	length, end, err := r.ReadPkgLength()
	assert.NoError(t, err)
	assert.Equal(t, uint32(5), length)
	assert.Equal(t, uint32(5), end)
	assert.Equal(t, uint32(1), r.Offset())
}

func TestReadPkgLengthMultiByteForm(t *testing.T) {
	// Lead byte 0x41 -> extra=1, low nibble 0x1; second byte 0x10.
	// length = 0x1 | (0x10 << 4) = 0x101 = 257.
	data := make([]byte, 257)
	data[0] = 0x41
	data[1] = 0x10
	r := NewReader(data, 0)
	length, end, err := r.ReadPkgLength()
	assert.NoError(t, err)
	assert.Equal(t, uint32(257), length)
	assert.Equal(t, uint32(257), end)
}

func TestReadPkgLengthOverrunIsRejected(t *testing.T) {
	r := NewReader([]byte{0x3f}, 0)
	_, _, err := r.ReadPkgLength()
	assert.Error(t, err)
}

func TestReadVarintDoesNotBoundPkgEnd(t *testing.T) {
	r := NewReader([]byte{0x08, 0xff, 0xff, 0xff}, 0)
	n, err := r.ReadVarint()
	assert.NoError(t, err)
	assert.Equal(t, uint32(8), n)
	// pkgEnd is unaffected; the reader can keep going past the varint.
	assert.Equal(t, uint32(4), r.PkgEnd())
}

func TestReadIntegerWidths(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00, 0x04, 0, 0, 0, 0, 0, 0, 0}, 0)
	b, err := r.ReadInteger(OpBytePrefix)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x01), b)

	w, err := r.ReadInteger(OpWordPrefix)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x0002), w)

	d, err := r.ReadInteger(OpDwordPrefix)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x00000003), d)
}

func TestReadStringStopsAtNUL(t *testing.T) {
	r := NewReader([]byte("hi\x00trailing"), 0)
	s, err := r.ReadString()
	assert.NoError(t, err)
	assert.Equal(t, "hi", s)
	assert.Equal(t, uint32(3), r.Offset())
}

func TestReadNameBareSegment(t *testing.T) {
	r := NewReader([]byte("FOO_"), 0)
	name, err := r.ReadName()
	assert.NoError(t, err)
	assert.Equal(t, "FOO_", name)
}

func TestReadNameAbsoluteAndParentPrefixes(t *testing.T) {
	r := NewReader([]byte("\\^FOO_"), 0)
	name, err := r.ReadName()
	assert.NoError(t, err)
	assert.Equal(t, "\\^FOO_", name)
}

func TestReadNameDualNamePrefix(t *testing.T) {
	r := NewReader(append([]byte{0x2e}, []byte("FOO_BAR_")...), 0)
	name, err := r.ReadName()
	assert.NoError(t, err)
	assert.Equal(t, "FOO_.BAR_", name)
}

func TestReadNameMultiNamePrefix(t *testing.T) {
	data := append([]byte{0x2f, 0x03}, []byte("ONE_TWO_THR_")...)
	r := NewReader(data, 0)
	name, err := r.ReadName()
	assert.NoError(t, err)
	assert.Equal(t, "ONE_.TWO_.THR_", name)
}

func TestReadNameNullName(t *testing.T) {
	r := NewReader([]byte{0x00}, 0)
	name, err := r.ReadName()
	assert.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestReadOpcodeExtensionPrefix(t *testing.T) {
	r := NewReader([]byte{ExtOpPrefix, 0x80}, 0)
	op, err := r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, OpOpRegion, op)
}

func TestReadOpcodePlain(t *testing.T) {
	r := NewReader([]byte{0x72}, 0)
	op, err := r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, OpAdd, op)
}
