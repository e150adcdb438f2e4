// Package value implements the dynamically-typed Variable used throughout
// the interpreter: integers, strings, buffers and packages with
// reference-counted heap bodies, plus the handle and index reference
// variants produced by RefOf/Index.
//
// Type is the coarse, tag-collapsed view of a Variable's dynamic type
// exposed to callers; Tag (below) is the finer-grained internal
// discriminant, including the reference-producing variants RefOf/Index
// create.
package value

import "fmt"

// Tag identifies which payload a Variable currently holds.
type Tag uint8

// The full set of Variable tags.
const (
	TagNone Tag = iota
	TagInteger
	TagString
	TagBuffer
	TagPackage
	TagHandle
	TagLazyHandle
	TagStringIndex
	TagBufferIndex
	TagPackageIndex
)

// String implements fmt.Stringer.
func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagInteger:
		return "Integer"
	case TagString:
		return "String"
	case TagBuffer:
		return "Buffer"
	case TagPackage:
		return "Package"
	case TagHandle:
		return "Handle"
	case TagLazyHandle:
		return "LazyHandle"
	case TagStringIndex:
		return "StringIndex"
	case TagBufferIndex:
		return "BufferIndex"
	case TagPackageIndex:
		return "PackageIndex"
	default:
		return "Unknown"
	}
}

// Type is the coarse public type reported by GetType: None, Integer,
// String, Buffer, Package or Device.
type Type uint8

// The public types reported to callers outside the interpreter.
const (
	TypeNone Type = iota
	TypeInteger
	TypeString
	TypeBuffer
	TypePackage
	TypeDevice
)

// NodeRef is implemented by ns.Node. It is declared here (rather than
// imported) to avoid a value<->ns import cycle: ns imports value for Name
// node payloads, so value cannot import ns back.
type NodeRef interface {
	// PublicType reports the coarse value.Type this node would report if
	// read as a Variable (e.g. a Device node reports TypeDevice).
	PublicType() Type
}

// body is the shared, reference-counted payload behind String, Buffer and
// Package variables.
type body struct {
	refcount int

	str []byte     // String: length-prefixed bytes plus an implicit NUL
	buf []byte      // Buffer: raw bytes
	pkg []*Variable // Package: element array
}

func newBody(cap int) *body { return &body{refcount: 1, buf: make([]byte, 0, cap)} }

// Variable is any AML value: a 64-bit integer, a reference-counted
// string/buffer/package body, a resolved or lazily-resolved node handle,
// or an index reference produced by Index()/RefOf().
type Variable struct {
	tag Tag

	integer uint64
	body    *body

	// index is valid for the three Index tags: it is the element/byte
	// offset into body.
	index uint64

	// node is valid for TagHandle.
	node NodeRef

	// lazyCtx/lazyName are valid for TagLazyHandle: resolution is
	// deferred until the value is actually read.
	lazyCtx    interface{}
	lazyName   string
	lazyResolv func(ctx interface{}, name string) NodeRef
}

// Tag returns the Variable's current tag.
func (v *Variable) Tag() Tag { return v.tag }

// Integer returns the raw integer payload; only meaningful when
// Tag() == TagInteger.
func (v *Variable) Integer() uint64 { return v.integer }

// Len returns the element/byte count of a String, Buffer or Package
// Variable.
func (v *Variable) Len() int {
	if v.body == nil {
		return 0
	}
	switch v.tag {
	case TagString:
		return len(v.body.str)
	case TagBuffer:
		return len(v.body.buf)
	case TagPackage:
		return len(v.body.pkg)
	default:
		return 0
	}
}

// Bytes returns the raw bytes of a Buffer Variable.
func (v *Variable) Bytes() []byte {
	if v.tag != TagBuffer || v.body == nil {
		return nil
	}
	return v.body.buf
}

// StringVal returns the textual contents of a String Variable.
func (v *Variable) StringVal() string {
	if v.tag != TagString || v.body == nil {
		return ""
	}
	return string(v.body.str)
}

// Elem returns the i-th element of a Package Variable.
func (v *Variable) Elem(i int) *Variable {
	if v.tag != TagPackage || v.body == nil || i < 0 || i >= len(v.body.pkg) {
		return nil
	}
	return v.body.pkg[i]
}

// Node returns the target node for a Handle Variable, resolving a
// LazyHandle on first access.
func (v *Variable) Node() NodeRef {
	if v.tag == TagLazyHandle && v.node == nil && v.lazyResolv != nil {
		v.node = v.lazyResolv(v.lazyCtx, v.lazyName)
	}
	return v.node
}

// IndexTarget returns the body and element/byte index referenced by a
// StringIndex/BufferIndex/PackageIndex Variable.
func (v *Variable) IndexTarget() (*body, uint64) { return v.body, v.index }

// IndexByte reads the byte addressed by a StringIndex/BufferIndex Variable.
func (v *Variable) IndexByte() byte {
	switch v.tag {
	case TagStringIndex:
		return v.body.str[v.index]
	case TagBufferIndex:
		return v.body.buf[v.index]
	default:
		return 0
	}
}

// SetIndexByte overwrites the byte addressed by a StringIndex/BufferIndex
// Variable with the low 8 bits of val.
func (v *Variable) SetIndexByte(val uint64) {
	switch v.tag {
	case TagStringIndex:
		v.body.str[v.index] = byte(val)
	case TagBufferIndex:
		v.body.buf[v.index] = byte(val)
	}
}

// IndexElem returns the Package element addressed by a PackageIndex
// Variable.
func (v *Variable) IndexElem() *Variable {
	if v.tag != TagPackageIndex {
		return nil
	}
	return v.body.pkg[v.index]
}

// NewStringIndex returns a StringIndex Variable referencing the i-th byte
// of src's body.
func NewStringIndex(src *Variable, i uint64) *Variable {
	src.body.ref()
	return &Variable{tag: TagStringIndex, body: src.body, index: i}
}

// NewBufferIndex returns a BufferIndex Variable referencing the i-th byte
// of src's body.
func NewBufferIndex(src *Variable, i uint64) *Variable {
	src.body.ref()
	return &Variable{tag: TagBufferIndex, body: src.body, index: i}
}

// NewPackageIndex returns a PackageIndex Variable referencing the i-th
// element of src's body.
func NewPackageIndex(src *Variable, i uint64) *Variable {
	src.body.ref()
	return &Variable{tag: TagPackageIndex, body: src.body, index: i}
}

// GetType returns the coarse public type of v.
func GetType(v *Variable) Type {
	switch v.tag {
	case TagInteger:
		return TypeInteger
	case TagString:
		return TypeString
	case TagBuffer:
		return TypeBuffer
	case TagPackage:
		return TypePackage
	case TagHandle, TagLazyHandle:
		if n := v.Node(); n != nil {
			return n.PublicType()
		}
		return TypeNone
	default:
		return TypeNone
	}
}

// NewInteger returns an Integer Variable.
func NewInteger(i uint64) *Variable { return &Variable{tag: TagInteger, integer: i} }

// NewHandle returns a Handle Variable pointing directly at node.
func NewHandle(node NodeRef) *Variable { return &Variable{tag: TagHandle, node: node} }

// NewLazyHandle returns a LazyHandle Variable that resolves name against
// ctx via resolve only when first read.
func NewLazyHandle(ctx interface{}, name string, resolve func(interface{}, string) NodeRef) *Variable {
	return &Variable{tag: TagLazyHandle, lazyCtx: ctx, lazyName: name, lazyResolv: resolve}
}

// CreateString allocates a new String body of length n with refcount 1
// and returns a Variable wrapping it.
func CreateString(n int) (*Variable, error) {
	if n < 0 {
		return nil, errInvalidLength
	}
	b := newBody(0)
	b.str = make([]byte, n)
	return &Variable{tag: TagString, body: b}, nil
}

// CreateBuffer allocates a new Buffer body of length n with refcount 1.
func CreateBuffer(n int) (*Variable, error) {
	if n < 0 {
		return nil, errInvalidLength
	}
	b := newBody(n)
	b.buf = make([]byte, n)
	return &Variable{tag: TagBuffer, body: b}, nil
}

// NewBufferFromBytes wraps data (copied) in a fresh Buffer Variable.
func NewBufferFromBytes(data []byte) *Variable {
	b := newBody(len(data))
	b.buf = append(b.buf, data...)
	return &Variable{tag: TagBuffer, body: b}
}

// NewStringFromGo wraps s (copied) in a fresh String Variable.
func NewStringFromGo(s string) *Variable {
	b := newBody(0)
	b.str = []byte(s)
	return &Variable{tag: TagString, body: b}
}

// CreatePackage allocates a new Package body holding n None-tagged
// elements with refcount 1.
func CreatePackage(n int) (*Variable, error) {
	if n < 0 {
		return nil, errInvalidLength
	}
	b := newBody(0)
	b.pkg = make([]*Variable, n)
	for i := range b.pkg {
		b.pkg[i] = &Variable{}
	}
	return &Variable{tag: TagPackage, body: b}, nil
}

var errInvalidLength = fmt.Errorf("value: negative length")

func (b *body) ref()   { b.refcount++ }
func (b *body) unref() bool {
	b.refcount--
	return b.refcount <= 0
}

// hasBody reports whether tag t owns a refcounted body.
func (t Tag) hasBody() bool {
	switch t {
	case TagString, TagBuffer, TagPackage, TagStringIndex, TagBufferIndex, TagPackageIndex:
		return true
	default:
		return false
	}
}

// Assign finalizes dst, then shallow-copies src into dst and increments
// the body refcount if src's tag owns one.
func Assign(dst, src *Variable) {
	Finalize(dst)
	*dst = *src
	if dst.tag.hasBody() && dst.body != nil {
		dst.body.ref()
	}
}

// Clone finalizes dst, then deep-copies src so the result shares no body
// with src. Packages clone each element recursively.
func Clone(dst, src *Variable) {
	Finalize(dst)
	switch src.tag {
	case TagString:
		nb := newBody(0)
		nb.str = append([]byte(nil), src.body.str...)
		*dst = Variable{tag: TagString, body: nb}
	case TagBuffer:
		nb := newBody(len(src.body.buf))
		nb.buf = append(nb.buf, src.body.buf...)
		*dst = Variable{tag: TagBuffer, body: nb}
	case TagPackage:
		nb := newBody(0)
		nb.pkg = make([]*Variable, len(src.body.pkg))
		for i, e := range src.body.pkg {
			cp := &Variable{}
			Clone(cp, e)
			nb.pkg[i] = cp
		}
		*dst = Variable{tag: TagPackage, body: nb}
	default:
		// Index/Handle tags reference a body they don't own outright (the
		// Package/Buffer/String they index, or the node they point at); there
		// is nothing to deep-copy, so fall back to Assign's ref-and-copy
		// behavior rather than aliasing the body with no refcount to show
		// for it.
		*dst = *src
		if dst.tag.hasBody() && dst.body != nil {
			dst.body.ref()
		}
	}
}

// Move finalizes dst, transfers src's contents into it, and leaves src as
// the empty (TagNone) Variable afterwards. Move(v, v) is a no-op.
func Move(dst, src *Variable) {
	if dst == src {
		return
	}
	Finalize(dst)
	*dst = *src
	*src = Variable{}
}

// Finalize decrements dst's body refcount (freeing and recursively
// finalizing Package elements when it reaches zero) and resets dst to the
// empty tag.
func Finalize(dst *Variable) {
	if dst.tag.hasBody() && dst.body != nil {
		if dst.body.unref() {
			if dst.tag == TagPackage {
				for _, e := range dst.body.pkg {
					Finalize(e)
				}
			}
		}
	}
	*dst = Variable{}
}
