// Package opregion implements the OperationRegion read/write engine: bit
// slicing across an access-width grid, update-rule handling for partial
// writes, PCI parameter resolution via _SEG/_BBN/_ADR, and the Field and
// IndexField access paths built on top of it.
//
// The bit-slicing and access-width arithmetic is factored into small pure
// functions operating on host.Host plus ns.Node payloads, with no global
// interpreter-instance state to thread through.
package opregion

import (
	"amlvm/host"
	"amlvm/ns"
)

// Resolver looks up and evaluates integer-valued control methods/names by
// search-scoped name, used to read _SEG/_BBN/_ADR. It is satisfied by the
// vm package's evaluation entry point; declared here to avoid opregion
// depending on vm.
type Resolver interface {
	EvalSearchInteger(context *ns.Node, name string) (uint64, bool)
}

// putAt ORs the low numBits bits of value into buf starting at bitOffset,
// little-endian, matching lai_buffer_put_at.
func putAt(buf []byte, value uint64, bitOffset, numBits uint32) {
	var progress uint32
	for progress < numBits {
		inByteOffset := (bitOffset + progress) & 7
		accessSize := numBits - progress
		if rem := 8 - inByteOffset; rem < accessSize {
			accessSize = rem
		}
		mask := uint64(1)<<accessSize - 1
		byteIdx := (bitOffset + progress) / 8
		buf[byteIdx] |= byte(((value >> progress) & mask) << inByteOffset)
		progress += accessSize
	}
}

// getAt is the mirror read of putAt, matching lai_buffer_get_at.
func getAt(buf []byte, bitOffset, numBits uint32) uint64 {
	var value uint64
	var progress uint32
	for progress < numBits {
		inByteOffset := (bitOffset + progress) & 7
		accessSize := numBits - progress
		if rem := 8 - inByteOffset; rem < accessSize {
			accessSize = rem
		}
		mask := uint64(1)<<accessSize - 1
		byteIdx := (bitOffset + progress) / 8
		bits := (uint64(buf[byteIdx]) >> inByteOffset) & mask
		value |= bits << progress
		progress += accessSize
	}
	return value
}

// accessWidth computes the bit width the field's region accesses are
// grouped into, matching lai_calculate_access_width.
func accessWidth(space ns.AddressSpace, info ns.FieldInfo) uint32 {
	switch info.AccessType {
	case ns.AccessByte:
		return 8
	case ns.AccessWord:
		return 16
	case ns.AccessDword:
		return 32
	case ns.AccessQword:
		return 64
	default: // AccessAny: round field size up to a power of two, clamp.
		size := info.BitSize
		width := uint32(1)
		for width < size {
			width <<= 1
		}
		max := uint32(32)
		if space == ns.AddressSpaceMemory {
			max = 64
		}
		if width > max {
			width = max
		}
		if width < 8 {
			width = 8
		}
		return width
	}
}

// pciParams resolves the _SEG/_BBN/_ADR triple for a PCIConfig region,
// searching from region's parent device upward. Missing names
// default to zero, matching lai_get_pci_params's fallback comments.
func pciParams(region *ns.Node, r Resolver) (seg, bbn, adr uint64) {
	device := region.Parent()
	if device == nil {
		return 0, 0, 0
	}
	if v, ok := r.EvalSearchInteger(device, "_SEG"); ok {
		seg = v
	}
	if v, ok := r.EvalSearchInteger(device, "_BBN"); ok {
		bbn = v
	}
	if v, ok := r.EvalSearchInteger(region, "_ADR"); ok {
		adr = v
	}
	return seg, bbn, adr
}

func readUnit(h host.Host, space ns.AddressSpace, override ns.RegionOverride, addr uint64, width uint32, seg, bbn, adr uint64) (uint64, error) {
	if override != nil {
		v, err := override.ReadRegion(addr, uint8(width))
		return v, err
	}
	switch space {
	case ns.AddressSpaceMemory:
		buf, err := h.MapMemory(addr, width/8)
		if err != nil {
			return 0, err
		}
		return getAt(buf, 0, width), nil
	case ns.AddressSpaceIO:
		switch width {
		case 8:
			v, err := h.PortReadByte(uint16(addr))
			return uint64(v), err
		case 16:
			v, err := h.PortReadWord(uint16(addr))
			return uint64(v), err
		default:
			v, err := h.PortReadDword(uint16(addr))
			return uint64(v), err
		}
	case ns.AddressSpacePCIConfig:
		pa := host.PCIAddress{Segment: uint16(seg), Bus: uint8(bbn), Slot: uint8(adr >> 16), Function: uint8(adr), Offset: uint16(addr)}
		switch width {
		case 8:
			v, err := h.PCIReadByte(pa)
			return uint64(v), err
		case 16:
			v, err := h.PCIReadWord(pa)
			return uint64(v), err
		default:
			v, err := h.PCIReadDword(pa)
			return uint64(v), err
		}
	default:
		return 0, &unsupportedSpaceError{space}
	}
}

func writeUnit(h host.Host, space ns.AddressSpace, override ns.RegionOverride, addr uint64, width uint32, seg, bbn, adr, value uint64) error {
	if override != nil {
		return override.WriteRegion(addr, uint8(width), value)
	}
	switch space {
	case ns.AddressSpaceMemory:
		buf, err := h.MapMemory(addr, width/8)
		if err != nil {
			return err
		}
		putAt(buf, value, 0, width)
		return nil
	case ns.AddressSpaceIO:
		switch width {
		case 8:
			return h.PortWriteByte(uint16(addr), uint8(value))
		case 16:
			return h.PortWriteWord(uint16(addr), uint16(value))
		default:
			return h.PortWriteDword(uint16(addr), uint32(value))
		}
	case ns.AddressSpacePCIConfig:
		pa := host.PCIAddress{Segment: uint16(seg), Bus: uint8(bbn), Slot: uint8(adr >> 16), Function: uint8(adr), Offset: uint16(addr)}
		switch width {
		case 8:
			return h.PCIWriteByte(pa, uint8(value))
		case 16:
			return h.PCIWriteWord(pa, uint16(value))
		default:
			return h.PCIWriteDword(pa, uint32(value))
		}
	default:
		return &unsupportedSpaceError{space}
	}
}

type unsupportedSpaceError struct{ space ns.AddressSpace }

func (e *unsupportedSpaceError) Error() string { return "opregion: unsupported address space" }

// ReadField reads field's bits into dst (a buffer of at least
// (field.BitSize+7)/8 bytes), matching lai_read_field_internal.
func ReadField(h host.Host, r Resolver, field *ns.Node, dst []byte) error {
	region := field.RegionNode()
	space, base, _, override := region.Region()
	info := field.FieldInfo()
	width := accessWidth(space, info)

	offset := base + uint64(info.BitOffset&^(width-1))/8
	var seg, bbn, adr uint64
	if space == ns.AddressSpacePCIConfig {
		seg, bbn, adr = pciParams(region, r)
	}

	var progress uint32
	for progress < info.BitSize {
		bitOffset := (info.BitOffset + progress) & (width - 1)
		accessBits := info.BitSize - progress
		if rem := width - bitOffset; rem < accessBits {
			accessBits = rem
		}
		mask := uint64(1)<<accessBits - 1

		value, err := readUnit(h, space, override, offset, width, seg, bbn, adr)
		if err != nil {
			return err
		}
		value = (value >> bitOffset) & mask

		putAt(dst, value, progress, accessBits)

		progress += accessBits
		offset += uint64(width / 8)
	}
	return nil
}

// WriteField writes src's bits into field's region, applying the field's
// update rule to the untouched bits of each access unit, matching
// lai_write_field_internal.
func WriteField(h host.Host, r Resolver, field *ns.Node, src []byte) error {
	region := field.RegionNode()
	space, base, _, override := region.Region()
	info := field.FieldInfo()
	width := accessWidth(space, info)

	offset := base + uint64(info.BitOffset&^(width-1))/8
	var seg, bbn, adr uint64
	if space == ns.AddressSpacePCIConfig {
		seg, bbn, adr = pciParams(region, r)
	}

	var progress uint32
	for progress < info.BitSize {
		bitOffset := (info.BitOffset + progress) & (width - 1)
		accessBits := info.BitSize - progress
		if rem := width - bitOffset; rem < accessBits {
			accessBits = rem
		}
		mask := (uint64(1)<<accessBits - 1) << bitOffset

		var value uint64
		switch info.UpdateRule {
		case ns.UpdateRulePreserve:
			v, err := readUnit(h, space, override, offset, width, seg, bbn, adr)
			if err != nil {
				return err
			}
			value = v
		case ns.UpdateRuleWriteAsOnes:
			value = ^uint64(0)
		case ns.UpdateRuleWriteAsZeroes:
			value = 0
		}

		value &^= mask
		newVal := getAt(src, progress, accessBits)
		value |= (newVal << bitOffset) & mask

		if err := writeUnit(h, space, override, offset, width, seg, bbn, adr, value); err != nil {
			return err
		}

		progress += accessBits
		offset += uint64(width / 8)
	}
	return nil
}

// ReadIndexField reads an IndexField by writing the byte-aligned offset
// to the index Field and then reading the data Field, matching
// lai_read_indexfield.
func ReadIndexField(h host.Host, r Resolver, idxf *ns.Node, dst []byte) error {
	index, data := idxf.IndexDataNodes()
	info := idxf.FieldInfo()

	idxBuf := make([]byte, 8)
	putAt(idxBuf, uint64(info.BitOffset/8), 0, index.FieldInfo().BitSize)
	if err := WriteField(h, r, index, idxBuf); err != nil {
		return err
	}
	return ReadField(h, r, data, dst)
}

// WriteIndexField mirrors ReadIndexField for writes.
func WriteIndexField(h host.Host, r Resolver, idxf *ns.Node, src []byte) error {
	index, data := idxf.IndexDataNodes()
	info := idxf.FieldInfo()

	idxBuf := make([]byte, 8)
	putAt(idxBuf, uint64(info.BitOffset/8), 0, index.FieldInfo().BitSize)
	if err := WriteField(h, r, index, idxBuf); err != nil {
		return err
	}
	return WriteField(h, r, data, src)
}

// ReadBufferField reads a BufferField's bits directly out of its parent
// buffer's bytes (no OperationRegion access involved).
func ReadBufferField(field *ns.Node) uint64 {
	info := field.FieldInfo()
	buf := field.BufferNode().Object().Bytes()
	return getAt(buf, info.BitOffset, info.BitSize)
}

// WriteBufferField writes value's low BitSize bits into a BufferField's
// parent buffer in place. Unlike putAt alone, this clears the target bit
// range first since BufferField writes must replace rather than OR their
// bits.
func WriteBufferField(field *ns.Node, value uint64) {
	info := field.FieldInfo()
	buf := field.BufferNode().Object().Bytes()
	clearAt(buf, info.BitOffset, info.BitSize)
	putAt(buf, value, info.BitOffset, info.BitSize)
}

// clearAt zeroes numBits bits of buf starting at bitOffset.
func clearAt(buf []byte, bitOffset, numBits uint32) {
	var progress uint32
	for progress < numBits {
		inByteOffset := (bitOffset + progress) & 7
		accessSize := numBits - progress
		if rem := 8 - inByteOffset; rem < accessSize {
			accessSize = rem
		}
		mask := byte(uint64(1)<<accessSize - 1)
		byteIdx := (bitOffset + progress) / 8
		buf[byteIdx] &^= mask << inByteOffset
		progress += accessSize
	}
}
