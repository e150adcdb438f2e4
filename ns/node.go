// Package ns implements the AML namespace: a tree of named nodes
// representing scopes, methods, devices, fields and operation regions,
// addressed by 4-character segments with absolute, parent-relative and
// search-scoped name resolution.
//
// Resolution follows the standard search-rule walk (climb toward the root
// one scope at a time for a bare single-segment name), and each node kind
// carries its own payload split out by type
// (Device/Method/Field/IndexField/...) rather than a single catch-all
// struct.
package ns

import (
	"amlvm/table"
	"amlvm/value"
)

// Type identifies the kind of namespace node.
type Type uint8

// The node types the namespace can hold.
const (
	TypeRoot Type = iota
	TypeDevice
	TypeThermalZone
	TypePowerResource
	TypeEvent
	TypeMutex
	TypeName
	TypeMethod
	TypeAlias
	TypeOperationRegion
	TypeField
	TypeIndexField
	TypeBufferField
	TypeProcessor
)

// AddressSpace mirrors host.AddressSpace; duplicated here (rather than
// imported) to keep ns free of a dependency on host, since host already
// depends on table and must not depend on ns.
type AddressSpace uint8

// The OperationRegion address spaces.
const (
	AddressSpaceMemory AddressSpace = iota
	AddressSpaceIO
	AddressSpacePCIConfig
	AddressSpaceEC
	AddressSpaceSMBus
	AddressSpaceCMOS
	AddressSpacePCIBAR
	AddressSpaceIPMI
)

// AccessType is the field access width selector.
type AccessType uint8

// The supported field access types.
const (
	AccessAny AccessType = iota
	AccessByte
	AccessWord
	AccessDword
	AccessQword
	AccessBuffer
)

// UpdateRule controls how a partial-width field write preserves the
// untouched bits of its access unit.
type UpdateRule uint8

// The supported field update rules.
const (
	UpdateRulePreserve UpdateRule = iota
	UpdateRuleWriteAsOnes
	UpdateRuleWriteAsZeroes
)

// LockRule specifies whether a field access must take the global lock.
type LockRule uint8

// The supported field lock rules.
const (
	LockRuleNoLock LockRule = iota
	LockRuleLock
)

// MethodBody describes where a Method's AML body lives.
type MethodBody struct {
	Segment  *table.Segment
	Offset   uint32
	Length   uint32
	ArgCount uint8

	// Override, if non-nil, is called synchronously with the collected
	// argument Variables instead of driving the VM over Segment/Offset.
	Override func(args []*value.Variable) (*value.Variable, error)
}

// FieldInfo carries the OperationRegion/Field access metadata shared by
// Field, IndexField and BufferField payloads.
type FieldInfo struct {
	BitOffset uint32
	BitSize   uint32

	AccessType AccessType
	LockRule   LockRule
	UpdateRule UpdateRule
}

// Node is one entry in the namespace tree.
type Node struct {
	name   [4]byte
	parent *Node
	typ    Type

	children []*Node

	// Name payload.
	obj *value.Variable

	// Method payload.
	method *MethodBody

	// Alias payload.
	aliasTarget *Node

	// OperationRegion payload.
	regionSpace  AddressSpace
	regionBase   uint64
	regionLength uint64
	regionOvr    RegionOverride

	// Field payload (also used to resolve IndexField's two operands).
	field      FieldInfo
	regionNode *Node // Field: the OperationRegion it reads/writes

	indexNode *Node // IndexField: the index Field
	dataNode  *Node // IndexField: the data Field

	bufferNode *Node // BufferField: the parent Buffer-bearing Name node

	// Processor payload.
	cpuID       uint8
	pblkAddr    uint32
	pblkLength  uint8
}

// RegionOverride matches host.RegionOverride; declared independently to
// avoid ns depending on host.
type RegionOverride interface {
	ReadRegion(offset uint64, width uint8) (uint64, error)
	WriteRegion(offset uint64, width uint8, value uint64) error
}

// NewRoot creates the root node `\`.
func NewRoot() *Node {
	return &Node{name: [4]byte{'\\', 0, 0, 0}, typ: TypeRoot}
}

// Name returns the node's 4-character local name.
func (n *Node) Name() string { return string(trimZero(n.name[:])) }

func trimZero(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// Type returns the node's type tag.
func (n *Node) Type() Type { return n.typ }

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's direct children.
func (n *Node) Children() []*Node { return n.children }

// PublicType implements value.NodeRef.
func (n *Node) PublicType() value.Type {
	t := n.resolveAlias()
	switch t.typ {
	case TypeDevice:
		return value.TypeDevice
	case TypeName:
		if t.obj != nil {
			return value.GetType(t.obj)
		}
		return value.TypeNone
	default:
		return value.TypeNone
	}
}

func (n *Node) resolveAlias() *Node {
	seen := map[*Node]bool{}
	cur := n
	for cur.typ == TypeAlias && cur.aliasTarget != nil && !seen[cur] {
		seen[cur] = true
		cur = cur.aliasTarget
	}
	return cur
}

// Object returns the Variable owned by a Name node.
func (n *Node) Object() *value.Variable { return n.obj }

// Method returns the MethodBody payload, or nil if n is not a Method.
func (n *Node) Method() *MethodBody { return n.method }

// Region returns the OperationRegion payload.
func (n *Node) Region() (space AddressSpace, base, length uint64, override RegionOverride) {
	return n.regionSpace, n.regionBase, n.regionLength, n.regionOvr
}

// FieldInfo returns the Field/IndexField/BufferField access metadata.
func (n *Node) FieldInfo() FieldInfo { return n.field }

// RegionNode returns the OperationRegion a Field reads/writes.
func (n *Node) RegionNode() *Node { return n.regionNode }

// IndexDataNodes returns the index/data Field pair backing an IndexField.
func (n *Node) IndexDataNodes() (index, data *Node) { return n.indexNode, n.dataNode }

// BufferNode returns the Name node holding the parent buffer of a
// BufferField.
func (n *Node) BufferNode() *Node { return n.bufferNode }

// Processor returns the CPU id / PBLK address / PBLK length of a
// Processor node.
func (n *Node) Processor() (id uint8, addr uint32, length uint8) {
	return n.cpuID, n.pblkAddr, n.pblkLength
}

// append links child under n.
func (n *Node) append(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n, if present.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// childNamed returns the direct child named name, or nil.
func (n *Node) childNamed(name string) *Node {
	for _, c := range n.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func setName(n *Node, name string) {
	var b [4]byte
	copy(b[:], name)
	for i := len(name); i < 4; i++ {
		b[i] = '_'
	}
	n.name = b
}
