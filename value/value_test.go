package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegerRoundtrip(t *testing.T) {
	v := NewInteger(0xdead)
	assert.Equal(t, TagInteger, v.Tag())
	assert.Equal(t, uint64(0xdead), v.Integer())
	assert.Equal(t, TypeInteger, GetType(v))
}

func TestAssignSharesBody(t *testing.T) {
	src, err := CreateBuffer(4)
	assert.NoError(t, err)

	dst := &Variable{}
	Assign(dst, src)

	// A second reference into src's body, reached independently of dst,
	// must observe writes made through dst's own index references.
	idx := NewBufferIndex(src, 0)
	NewBufferIndex(dst, 0).SetIndexByte(0xab)
	assert.Equal(t, byte(0xab), idx.IndexByte())
}

func TestCloneDeepCopies(t *testing.T) {
	src, err := CreateBuffer(4)
	assert.NoError(t, err)

	dst := &Variable{}
	Clone(dst, src)

	NewBufferIndex(src, 0).SetIndexByte(0xab)
	assert.Equal(t, byte(0), NewBufferIndex(dst, 0).IndexByte())
}

func TestCloneCopiesPackageElementsRecursively(t *testing.T) {
	src, err := CreatePackage(2)
	assert.NoError(t, err)
	Assign(src.Elem(0), NewInteger(1))
	Assign(src.Elem(1), NewInteger(2))

	dst := &Variable{}
	Clone(dst, src)
	Assign(src.Elem(0), NewInteger(99))

	assert.Equal(t, uint64(1), dst.Elem(0).Integer())
	assert.Equal(t, uint64(2), dst.Elem(1).Integer())
}

func TestMoveEmptiesSource(t *testing.T) {
	src := NewInteger(5)
	dst := &Variable{}
	Move(dst, src)

	assert.Equal(t, uint64(5), dst.Integer())
	assert.Equal(t, TagNone, src.Tag())
}

func TestMoveSelfIsNoOp(t *testing.T) {
	v := NewInteger(7)
	Move(v, v)
	assert.Equal(t, uint64(7), v.Integer())
}

func TestAssignOverwritesPriorBody(t *testing.T) {
	dst, err := CreateBuffer(2)
	assert.NoError(t, err)
	Assign(dst, NewInteger(42))
	assert.Equal(t, TagInteger, dst.Tag())
	assert.Equal(t, uint64(42), dst.Integer())
}

type fakeDeviceNode struct{}

func (fakeDeviceNode) PublicType() Type { return TypeDevice }

func TestGetTypeForHandle(t *testing.T) {
	v := NewHandle(fakeDeviceNode{})
	assert.Equal(t, TypeDevice, GetType(v))
}

func TestLazyHandleResolvesOnce(t *testing.T) {
	calls := 0
	v := NewLazyHandle("ctx", "FOO", func(ctx interface{}, name string) NodeRef {
		calls++
		assert.Equal(t, "ctx", ctx)
		assert.Equal(t, "FOO", name)
		return fakeDeviceNode{}
	})
	assert.Equal(t, TypeDevice, GetType(v))
	assert.Equal(t, TypeDevice, GetType(v))
	assert.Equal(t, 1, calls)
}

func TestIndexVariablesAddressIntoSharedBody(t *testing.T) {
	pkg, err := CreatePackage(3)
	assert.NoError(t, err)
	Assign(pkg.Elem(1), NewInteger(11))

	idx := NewPackageIndex(pkg, 1)
	assert.Equal(t, uint64(11), idx.IndexElem().Integer())

	str := NewStringFromGo("abcd")
	sidx := NewStringIndex(str, 2)
	assert.Equal(t, byte('c'), sidx.IndexByte())
	sidx.SetIndexByte('Z')
	assert.Equal(t, "abZd", str.StringVal())
}
