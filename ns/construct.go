package ns

import (
	"amlvm/table"
	"amlvm/value"
)

// NewDevice creates an unattached Device node named name.
func NewDevice(name string) *Node {
	n := &Node{typ: TypeDevice}
	setName(n, name)
	return n
}

// NewThermalZone creates an unattached ThermalZone node named name.
func NewThermalZone(name string) *Node {
	n := &Node{typ: TypeThermalZone}
	setName(n, name)
	return n
}

// NewPowerResource creates an unattached PowerResource node named name.
func NewPowerResource(name string) *Node {
	n := &Node{typ: TypePowerResource}
	setName(n, name)
	return n
}

// NewEvent creates an unattached Event node named name.
func NewEvent(name string) *Node {
	n := &Node{typ: TypeEvent}
	setName(n, name)
	return n
}

// NewMutex creates an unattached Mutex node named name.
func NewMutex(name string) *Node {
	n := &Node{typ: TypeMutex}
	setName(n, name)
	return n
}

// NewName creates an unattached Name node named name holding obj.
func NewName(name string, obj *value.Variable) *Node {
	n := &Node{typ: TypeName, obj: obj}
	setName(n, name)
	return n
}

// NewMethod creates an unattached Method node named name with the given
// body. Either body.Segment/Offset/Length or body.Override must be set.
func NewMethod(name string, body *MethodBody) *Node {
	n := &Node{typ: TypeMethod, method: body}
	setName(n, name)
	return n
}

// NewOverrideMethod creates a Method node backed by a host-overridable Go
// closure, used for \_OSI, \_OS and \_REV.
func NewOverrideMethod(name string, argCount uint8, fn func(args []*value.Variable) (*value.Variable, error)) *Node {
	return NewMethod(name, &MethodBody{ArgCount: argCount, Override: fn})
}

// NewAlias creates an unattached Alias node named name pointing at target.
func NewAlias(name string, target *Node) *Node {
	n := &Node{typ: TypeAlias, aliasTarget: target}
	setName(n, name)
	return n
}

// NewOperationRegion creates an unattached OperationRegion node named name.
func NewOperationRegion(name string, space AddressSpace, base, length uint64, override RegionOverride) *Node {
	n := &Node{typ: TypeOperationRegion, regionSpace: space, regionBase: base, regionLength: length, regionOvr: override}
	setName(n, name)
	return n
}

// NewField creates an unattached Field node named name that reads/writes
// region at the given bit offset/size.
func NewField(name string, region *Node, info FieldInfo) *Node {
	n := &Node{typ: TypeField, regionNode: region, field: info}
	setName(n, name)
	return n
}

// NewIndexField creates an unattached IndexField node named name.
func NewIndexField(name string, index, data *Node, info FieldInfo) *Node {
	n := &Node{typ: TypeIndexField, indexNode: index, dataNode: data, field: info}
	setName(n, name)
	return n
}

// NewBufferField creates an unattached BufferField node named name,
// addressing bits [bitOffset, bitOffset+bitSize) of bufferNode's Buffer.
func NewBufferField(name string, bufferNode *Node, bitOffset, bitSize uint32) *Node {
	n := &Node{typ: TypeBufferField, bufferNode: bufferNode, field: FieldInfo{BitOffset: bitOffset, BitSize: bitSize}}
	setName(n, name)
	return n
}

// NewProcessor creates an unattached Processor node named name.
func NewProcessor(name string, id uint8, pblkAddr uint32, pblkLen uint8) *Node {
	n := &Node{typ: TypeProcessor, cpuID: id, pblkAddr: pblkAddr, pblkLength: pblkLen}
	setName(n, name)
	return n
}

// Append adds child as a namespace child of parent, returning false if
// parent already has a child with the same name (AML forbids duplicate names in
// one scope).
func Append(parent, child *Node) bool {
	if parent.childNamed(child.Name()) != nil {
		return false
	}
	parent.append(child)
	return true
}

// SegmentFor returns the table.Segment a Method node was defined in, or
// nil if body has no segment (i.e. it is an override).
func (b *MethodBody) SegmentFor() *table.Segment { return b.Segment }
