package aml

import (
	"encoding/binary"
	"testing"

	"amlvm/internal/hostsim"
	"amlvm/ns"
	"amlvm/value"

	"github.com/stretchr/testify/assert"
)

func rawDSDT(aml []byte) []byte {
	buf := make([]byte, 36+len(aml))
	copy(buf[0:4], "DSDT")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	copy(buf[36:], aml)
	return buf
}

// Name(FOO_, 0x42); Method(GETI, 0) { Return(0x55) }
func testDSDTBytes() []byte {
	nameStmt := []byte{0x08, 'F', 'O', 'O', '_', 0x0a, 0x42}
	methodBody := []byte{0xa4, 0x0a, 0x55}
	methodStmt := append([]byte{0x14, byte(1 + 4 + 1 + len(methodBody)), 'G', 'E', 'T', 'I', 0x00}, methodBody...)
	return append(nameStmt, methodStmt...)
}

func newLoadedInterpreter(t *testing.T) (*Interpreter, *hostsim.Host) {
	t.Helper()
	h := hostsim.New()
	assert.NoError(t, h.LoadTables([]hostsim.RawTable{{Signature: "DSDT", Raw: rawDSDT(testDSDTBytes())}}))
	in := New(h)
	assert.NoError(t, in.LoadTables())
	return in, h
}

func TestObjGetIntegerReadsNameValue(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	v, status := in.ObjGetInteger("FOO_")
	assert.Equal(t, StatusNone, status)
	assert.Equal(t, uint64(0x42), v)
}

func TestObjGetIntegerEvaluatesMethod(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	v, status := in.ObjGetInteger("GETI")
	assert.Equal(t, StatusNone, status)
	assert.Equal(t, uint64(0x55), v)
}

func TestObjGetIntegerNoSuchNode(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	_, status := in.ObjGetInteger("NOPE")
	assert.Equal(t, StatusNoSuchNode, status)
}

func TestObjGetIntegerTypeMismatch(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	pkgVar, err := value.CreatePackage(1)
	assert.NoError(t, err)
	assert.True(t, ns.Append(in.Root(), ns.NewName("PKGX", pkgVar)))

	_, status := in.ObjGetInteger("PKGX")
	assert.Equal(t, StatusTypeMismatch, status)
}

func TestObjGetPkgReadsElement(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	pkgVar, err := value.CreatePackage(2)
	assert.NoError(t, err)
	value.Assign(pkgVar.Elem(0), value.NewInteger(11))
	value.Assign(pkgVar.Elem(1), value.NewInteger(22))
	assert.True(t, ns.Append(in.Root(), ns.NewName("PKGY", pkgVar)))

	elem, status := in.ObjGetPkg("PKGY", 1)
	assert.Equal(t, StatusNone, status)
	assert.Equal(t, uint64(22), elem.Integer())
}

func TestObjGetPkgOutOfBounds(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	pkgVar, err := value.CreatePackage(1)
	assert.NoError(t, err)
	assert.True(t, ns.Append(in.Root(), ns.NewName("PKGZ", pkgVar)))

	_, status := in.ObjGetPkg("PKGZ", 5)
	assert.Equal(t, StatusOutOfBounds, status)
}

func TestObjGetHandleResolvesNode(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	n, status := in.ObjGetHandle("FOO_")
	assert.Equal(t, StatusNone, status)
	assert.NotNil(t, n)
	assert.Equal(t, "FOO_", n.Name())
}

func TestObjGetHandleNoSuchNode(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	_, status := in.ObjGetHandle("NOPE")
	assert.Equal(t, StatusNoSuchNode, status)
}

func TestInvokeCallsMethodDirectly(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	target := in.Lookup("GETI")
	assert.NotNil(t, target)

	v, err := in.Invoke(target)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x55), v.Integer())
}

func TestBootstrapInstallsPredefinedDevicesAndOSMethods(t *testing.T) {
	in, _ := newLoadedInterpreter(t)
	for _, name := range []string{"_SB_", "_SI_", "_GPE", "_PR_", "_TZ_"} {
		assert.NotNil(t, in.Lookup(name), name)
	}

	v, status := in.ObjGetInteger("_REV")
	assert.Equal(t, StatusNone, status)
	assert.Equal(t, uint64(2), v)
}
