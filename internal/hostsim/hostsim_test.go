package hostsim

import (
	"encoding/binary"
	"testing"

	"amlvm/host"

	"github.com/stretchr/testify/assert"
)

func rawTable(sig string, aml []byte) []byte {
	buf := make([]byte, 36+len(aml))
	copy(buf[0:4], sig)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	buf[8] = 2 // Revision
	copy(buf[10:16], "ACME__")
	copy(buf[36:], aml)
	return buf
}

func TestLoadTablesRegistersBySignatureAndIndex(t *testing.T) {
	h := New()
	err := h.LoadTables([]RawTable{
		{Signature: "DSDT", Raw: rawTable("DSDT", []byte{0x01})},
		{Signature: "SSDT", Raw: rawTable("SSDT", []byte{0x02, 0x03})},
		{Signature: "SSDT", Raw: rawTable("SSDT", []byte{0x04})},
	})
	assert.NoError(t, err)

	dsdt := h.Scan("DSDT", 0)
	assert.NotNil(t, dsdt)
	assert.Equal(t, []byte{0x01}, h.TablePayload(dsdt))

	ssdt0 := h.Scan("SSDT", 0)
	assert.Equal(t, []byte{0x02, 0x03}, h.TablePayload(ssdt0))
	ssdt1 := h.Scan("SSDT", 1)
	assert.Equal(t, []byte{0x04}, h.TablePayload(ssdt1))

	assert.Nil(t, h.Scan("SSDT", 2))
	assert.Nil(t, h.Scan("PSDT", 0))
}

func TestLoadTablesRejectsTruncatedHeader(t *testing.T) {
	h := New()
	err := h.LoadTables([]RawTable{{Signature: "DSDT", Raw: []byte{1, 2, 3}}})
	assert.Error(t, err)
}

func TestLoadTablesRejectsInconsistentLength(t *testing.T) {
	h := New()
	raw := rawTable("DSDT", []byte{0xaa})
	binary.LittleEndian.PutUint32(raw[4:8], 4) // shorter than HeaderSize
	err := h.LoadTables([]RawTable{{Signature: "DSDT", Raw: raw}})
	assert.Error(t, err)
}

func TestMapMemoryGrowsAndPersists(t *testing.T) {
	h := New()
	buf, err := h.MapMemory(0x1000, 4)
	assert.NoError(t, err)
	buf[0] = 0xaa

	buf2, err := h.MapMemory(0x1000, 4)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xaa), buf2[0])
}

func TestPortReadWriteRoundtrip(t *testing.T) {
	h := New()
	assert.NoError(t, h.PortWriteDword(0x40, 0xdeadbeef))
	v, err := h.PortReadDword(0x40)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestPCIReadWriteRoundtrip(t *testing.T) {
	h := New()
	addr := host.PCIAddress{Bus: 0, Slot: 1, Function: 0, Offset: 0x2c}
	assert.NoError(t, h.PCIWriteWord(addr, 0xbeef))
	v, err := h.PCIReadWord(addr)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), v)

	other := host.PCIAddress{Bus: 0, Slot: 2, Function: 0, Offset: 0x2c}
	v2, err := h.PCIReadWord(other)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0), v2)
}

func TestHandleDebugForwardsToInstalledHandler(t *testing.T) {
	h := New()
	var got interface{}
	h.SetDebugHandler(func(v interface{}) { got = v })
	h.HandleDebug(42)
	assert.Equal(t, 42, got)
}

func TestHandleDebugWithoutHandlerIsSilent(t *testing.T) {
	h := New()
	assert.NotPanics(t, func() { h.HandleDebug("anything") })
}
