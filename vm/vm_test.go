package vm

import (
	"testing"

	"amlvm/internal/hostsim"
	"amlvm/ns"
	"amlvm/table"
	"amlvm/value"

	"github.com/stretchr/testify/assert"
)

func newTestEngine(h *hostsim.Host) (*Engine, *ns.Node) {
	root := ns.NewRoot()
	return NewEngine(h, root), root
}

func populateBytes(t *testing.T, e *Engine, aml []byte) {
	t.Helper()
	seg := &table.Segment{AML: aml}
	assert.NoError(t, e.Populate(seg))
}

func assertStacksDrained(t *testing.T, e *Engine) {
	t.Helper()
	assert.Equal(t, 0, e.ItemDepth())
	assert.Equal(t, 0, e.BlockDepth())
	assert.Equal(t, 0, e.ContextDepth())
	assert.Equal(t, 0, e.OperandDepth())
}

// Name(FOO_, 0x42) at the top level of a TermList.
func TestPopulateDeclaresNameNode(t *testing.T) {
	e, root := newTestEngine(nil)
	aml := []byte{0x08, 'F', 'O', 'O', '_', 0x0a, 0x42} // Name, BytePrefix 0x42

	populateBytes(t, e, aml)
	assertStacksDrained(t, e)

	n := ns.Resolve(root, root, ns.ParseName("FOO_"))
	assert.NotNil(t, n)
	assert.Equal(t, ns.TypeName, n.Type())
	assert.Equal(t, uint64(0x42), n.Object().Integer())
}

// Method(ADD2, 2) { Return(Add(Arg0, Arg1)) } with Add's Target elided
// (trailing NullName byte) — the idiom the OperandNullName fix unblocks.
func TestMethodAddWithElidedTarget(t *testing.T) {
	e, root := newTestEngine(nil)
	body := []byte{0xa4, 0x72, 0x68, 0x69, 0x00} // Return(Add(Arg0, Arg1, ))
	aml := []byte{0x14, 0x0b, 'A', 'D', 'D', '2', 0x02}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	assertStacksDrained(t, e)

	target := ns.Resolve(root, root, ns.ParseName("ADD2"))
	assert.NotNil(t, target)

	result, err := e.Invoke(target, []*value.Variable{value.NewInteger(3), value.NewInteger(4)})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), result.Integer())
	assertStacksDrained(t, e)
}

// A 0x00 lead byte outside Target position is the ZeroOp constant, not a
// NullName: Method(STZ0, 0) { Store(Zero, Local0); Return(Local0) } must
// return 0, not fail to resolve a name.
func TestZeroOpcodeIsNotMisreadAsNullName(t *testing.T) {
	e, root := newTestEngine(nil)
	body := []byte{
		0x70, 0x00, 0x60, // Store(Zero, Local0)
		0xa4, 0x60, // Return(Local0)
	}
	aml := []byte{0x14, 0x0b, 'S', 'T', 'Z', '0', 0x00}
	aml = append(aml, body...)

	populateBytes(t, e, aml)

	target := ns.Resolve(root, root, ns.ParseName("STZ0"))
	assert.NotNil(t, target)

	result, err := e.Invoke(target, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), result.Integer())
	assertStacksDrained(t, e)
}

// Method(COND, 1) { If (LEqual(Arg0, 5)) { Return(0x11) } Else { Return(0x22) } }
func TestIfElseBranches(t *testing.T) {
	e, root := newTestEngine(nil)
	predicate := []byte{0x93, 0x68, 0x0a, 0x05} // LEqual(Arg0, 5)
	ifBody := []byte{0xa4, 0x0a, 0x11}          // Return(0x11)
	elseBody := []byte{0xa4, 0x0a, 0x22}        // Return(0x22)

	ifPkg := append(append([]byte{}, predicate...), ifBody...)
	ifStmt := append([]byte{0xa0, byte(1 + len(ifPkg))}, ifPkg...)
	elseStmt := append([]byte{0xa1, byte(1 + len(elseBody))}, elseBody...)

	body := append(ifStmt, elseStmt...)
	aml := []byte{0x14, byte(1 + 4 + 1 + len(body)), 'C', 'O', 'N', 'D', 0x01}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	target := ns.Resolve(root, root, ns.ParseName("COND"))
	assert.NotNil(t, target)

	matched, err := e.Invoke(target, []*value.Variable{value.NewInteger(5)})
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x11), matched.Integer())
	assertStacksDrained(t, e)

	unmatched, err := e.Invoke(target, []*value.Variable{value.NewInteger(7)})
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x22), unmatched.Integer())
	assertStacksDrained(t, e)
}

// A byte-wide Field over a Memory OperationRegion reads through the host's
// mapped memory.
func TestFieldReadViaHostMemory(t *testing.T) {
	h := hostsim.New()
	buf, err := h.MapMemory(0x2000, 4)
	assert.NoError(t, err)
	buf[0] = 0x99

	e, _ := newTestEngine(h)
	region := ns.NewOperationRegion("OPR0", ns.AddressSpaceMemory, 0x2000, 4, nil)
	field := ns.NewField("FLD0", region, ns.FieldInfo{BitSize: 8, AccessType: ns.AccessByte})

	v, err := e.ReadNodeValue(field)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x99), v.Integer())
}

// Method(STOR, 0) { Store(0x63, Index(PKG_, One, )) } writes through the
// Index reference directly into the package element, without ever
// round-tripping the Index object through a Local.
func TestIndexStoreWritesThroughPackageElement(t *testing.T) {
	e, root := newTestEngine(nil)

	pkgVar, err := value.CreatePackage(2)
	assert.NoError(t, err)
	value.Assign(pkgVar.Elem(0), value.NewInteger(1))
	value.Assign(pkgVar.Elem(1), value.NewInteger(2))
	assert.True(t, ns.Append(root, ns.NewName("PKG_", pkgVar)))

	body := []byte{
		0x70, 0x0a, 0x63, // Store(0x63,
		0x88, 'P', 'K', 'G', '_', 0x01, 0x00, // Index(PKG_, One, ))
	}
	aml := []byte{0x14, byte(1 + 4 + 1 + len(body)), 'S', 'T', 'O', 'R', 0x00}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	target := ns.Resolve(root, root, ns.ParseName("STOR"))
	assert.NotNil(t, target)

	_, err = e.Invoke(target, nil)
	assert.NoError(t, err)
	assertStacksDrained(t, e)

	assert.Equal(t, uint64(1), pkgVar.Elem(0).Integer())
	assert.Equal(t, uint64(0x63), pkgVar.Elem(1).Integer())
}

// Name(ABUF, Buffer){1,2,3,4}); Name(BBUF, Buffer){5,6,7,8});
// Method(CPY0, 0) { Store(ABUF, BBUF) } must deep-copy ABUF's bytes into
// BBUF rather than aliasing its backing array.
func TestStoreBetweenNamesClonesRatherThanAliases(t *testing.T) {
	e, root := newTestEngine(nil)

	aBuf := value.NewBufferFromBytes([]byte{1, 2, 3, 4})
	bBuf := value.NewBufferFromBytes([]byte{5, 6, 7, 8})
	assert.True(t, ns.Append(root, ns.NewName("ABUF", aBuf)))
	assert.True(t, ns.Append(root, ns.NewName("BBUF", bBuf)))

	body := []byte{0x70, 'A', 'B', 'U', 'F', 'B', 'B', 'U', 'F'} // Store(ABUF, BBUF)
	aml := []byte{0x14, byte(1 + 4 + 1 + len(body)), 'C', 'P', 'Y', '0', 0x00}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	target := ns.Resolve(root, root, ns.ParseName("CPY0"))
	assert.NotNil(t, target)

	_, err := e.Invoke(target, nil)
	assert.NoError(t, err)
	assertStacksDrained(t, e)

	bNode := ns.Resolve(root, root, ns.ParseName("BBUF"))
	assert.Equal(t, []byte{1, 2, 3, 4}, bNode.Object().Bytes())

	// Mutating ABUF's backing array in place must not be visible through
	// BBUF if Store truly cloned rather than aliased.
	aNode := ns.Resolve(root, root, ns.ParseName("ABUF"))
	aNode.Object().Bytes()[0] = 0x99
	assert.Equal(t, []byte{1, 2, 3, 4}, bNode.Object().Bytes())
}

// Method(CLNP, 0) { Name(TEMP, 0x07) } declares a namespace node scoped to
// the call; finishMethod must detach and finalize it on return so it
// never leaks into the enclosing namespace.
func TestMethodScopedNodeCleanup(t *testing.T) {
	e, root := newTestEngine(nil)
	body := []byte{0x08, 'T', 'E', 'M', 'P', 0x0a, 0x07} // Name(TEMP, 0x07)
	aml := []byte{0x14, byte(1 + 4 + 1 + len(body)), 'C', 'L', 'N', 'P', 0x00}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	target := ns.Resolve(root, root, ns.ParseName("CLNP"))
	assert.NotNil(t, target)

	_, err := e.Invoke(target, nil)
	assert.NoError(t, err)
	assertStacksDrained(t, e)

	assert.Nil(t, ns.Resolve(root, root, ns.ParseName("TEMP")))
	assert.Len(t, root.Children(), 1) // only CLNP itself remains
}

// Invoking a Method clones its arguments into the callee's Arg slots, so
// Increment(Arg0) inside the callee leaves the caller's Variable unchanged.
func TestInvokeClonesArgsRatherThanAliasing(t *testing.T) {
	e, root := newTestEngine(nil)
	// Method(INC1, 1) { Increment(Arg0); Return(Arg0) }
	body := []byte{0x75, 0x68, 0xa4, 0x68} // Increment(Arg0); Return(Arg0)
	aml := []byte{0x14, byte(1 + 4 + 1 + len(body)), 'I', 'N', 'C', '1', 0x01}
	aml = append(aml, body...)

	populateBytes(t, e, aml)
	target := ns.Resolve(root, root, ns.ParseName("INC1"))
	assert.NotNil(t, target)

	caller := value.NewInteger(10)
	result, err := e.Invoke(target, []*value.Variable{caller})
	assert.NoError(t, err)
	assert.Equal(t, uint64(11), result.Integer())
	assert.Equal(t, uint64(10), caller.Integer())
}
