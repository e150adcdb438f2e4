package opregion

import (
	"testing"

	"amlvm/ns"
	"amlvm/value"

	"github.com/stretchr/testify/assert"
)

func TestPutAtGetAtRoundtripUnaligned(t *testing.T) {
	buf := make([]byte, 4)
	putAt(buf, 0x1a5, 3, 9) // 9 bits starting at bit 3, crossing a byte boundary
	got := getAt(buf, 3, 9)
	assert.Equal(t, uint64(0x1a5), got)
}

func TestPutAtOrsRatherThanOverwrites(t *testing.T) {
	buf := []byte{0xf0}
	putAt(buf, 0x0f, 0, 4)
	assert.Equal(t, byte(0xff), buf[0])
}

func TestClearAtZeroesExactRange(t *testing.T) {
	buf := []byte{0xff, 0xff}
	clearAt(buf, 4, 8)
	assert.Equal(t, byte(0x0f), buf[0])
	assert.Equal(t, byte(0xf0), buf[1])
}

func TestAccessWidthExplicitTypes(t *testing.T) {
	assert.Equal(t, uint32(8), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessByte}))
	assert.Equal(t, uint32(16), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessWord}))
	assert.Equal(t, uint32(32), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessDword}))
	assert.Equal(t, uint32(64), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessQword}))
}

func TestAccessWidthAnyRoundsUpAndClamps(t *testing.T) {
	// 12-bit field rounds up to 16.
	assert.Equal(t, uint32(16), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessAny, BitSize: 12}))
	// IO space clamps AccessAny at 32 bits even for a wider field.
	assert.Equal(t, uint32(32), accessWidth(ns.AddressSpaceIO, ns.FieldInfo{AccessType: ns.AccessAny, BitSize: 64}))
	// Memory space allows up to 64.
	assert.Equal(t, uint32(64), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessAny, BitSize: 64}))
	// Sub-byte fields still round up to a full byte.
	assert.Equal(t, uint32(8), accessWidth(ns.AddressSpaceMemory, ns.FieldInfo{AccessType: ns.AccessAny, BitSize: 1}))
}

type stubResolver struct {
	vals map[string]uint64
}

func (s stubResolver) EvalSearchInteger(context *ns.Node, name string) (uint64, bool) {
	v, ok := s.vals[name]
	return v, ok
}

func TestPciParamsDefaultsToZeroWhenUnresolved(t *testing.T) {
	dev := ns.NewDevice("DEV0")
	region := ns.NewOperationRegion("PCI0", ns.AddressSpacePCIConfig, 0, 0x100, nil)
	ns.Append(dev, region)

	seg, bbn, adr := pciParams(region, stubResolver{vals: map[string]uint64{}})
	assert.Equal(t, uint64(0), seg)
	assert.Equal(t, uint64(0), bbn)
	assert.Equal(t, uint64(0), adr)
}

func TestPciParamsResolvesFromDeviceAndRegion(t *testing.T) {
	dev := ns.NewDevice("DEV0")
	region := ns.NewOperationRegion("PCI0", ns.AddressSpacePCIConfig, 0, 0x100, nil)
	ns.Append(dev, region)

	r := stubResolver{vals: map[string]uint64{"_SEG": 1, "_BBN": 2, "_ADR": 0x30000}}
	seg, bbn, adr := pciParams(region, r)
	assert.Equal(t, uint64(1), seg)
	assert.Equal(t, uint64(2), bbn)
	assert.Equal(t, uint64(0x30000), adr)
}

func TestReadWriteBufferFieldBitAccurate(t *testing.T) {
	bufVar, err := value.CreateBuffer(2)
	assert.NoError(t, err)
	bufName := ns.NewName("", bufVar)
	field := ns.NewBufferField("FLD0", bufName, 4, 8)

	WriteBufferField(field, 0xff)
	assert.Equal(t, []byte{0xf0, 0x0f}, bufVar.Bytes())

	WriteBufferField(field, 0x0a)
	assert.Equal(t, []byte{0xa0, 0x00}, bufVar.Bytes())
	assert.Equal(t, uint64(0x0a), ReadBufferField(field))
}
