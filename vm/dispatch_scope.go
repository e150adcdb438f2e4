package vm

import (
	"amlvm/ns"
	"amlvm/parser"
	"amlvm/value"
)

// createChild resolves the attach point for rawName under the current
// context, following the same search/parent-climb rules as name
// resolution.
func (e *Engine) createChild(rawName string) (*ns.Node, string) {
	ctx := e.curContext().ContextNode
	return ns.CreateNamed(e.Root, ctx, ns.ParseName(rawName))
}

// attachNode appends n under parent and, inside an active method
// invocation, records it for per-invocation cleanup on return.
func (e *Engine) attachNode(parent *ns.Node, n *ns.Node) bool {
	if parent == nil || !ns.Append(parent, n) {
		return false
	}
	if inv := e.innermostInvocation(); inv != nil {
		inv.Nodes = append(inv.Nodes, n)
	}
	return true
}

func readRawWord(r *parser.Reader) (uint16, error) {
	lo, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	hi, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func readRawDword(r *parser.Reader) (uint32, error) {
	var v uint32
	for i := uint(0); i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// dispatchName reads the NameString ahead of the DataRefObject term and
// stashes it on an ItemNode for reduceNode to attach once the value is
// known.
func (e *Engine) dispatchName() error {
	r := e.reader()
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	e.pushItem(Item{
		Kind:         ItemNode,
		Opcode:       parser.OpName,
		Modes:        []ParseMode{ModeData},
		Name:         seg,
		AttachParent: parent,
	})
	return nil
}

// dispatchAlias reads both plain NameStrings directly; Alias needs no
// nested term evaluation.
func (e *Engine) dispatchAlias() error {
	r := e.reader()
	sourceName, err := r.ReadName()
	if err != nil {
		return err
	}
	aliasName, err := r.ReadName()
	if err != nil {
		return err
	}
	e.commit(r)

	ctx := e.curContext().ContextNode
	target := ns.Resolve(e.Root, ctx, ns.ParseName(sourceName))
	if target == nil {
		return errUndefinedRef
	}
	parent, seg := e.createChild(aliasName)
	if !e.attachNode(parent, ns.NewAlias(seg, target)) {
		return errDuplicateName
	}
	return nil
}

// dispatchScope resolves an existing node and runs its TermList against
// it as context, without creating anything new.
func (e *Engine) dispatchScope() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	start := r.Offset()
	e.commit(r)

	ctx := e.curContext().ContextNode
	target := ns.Resolve(e.Root, ctx, ns.ParseName(name))
	if target == nil {
		return errUndefinedRef
	}

	segment := e.curContext().Segment
	e.pushContext(ContextFrame{Segment: segment, ContextNode: target})
	e.pushBlock(BlockFrame{PC: start, Limit: end})
	e.pushItem(Item{Kind: ItemPopulate})
	return nil
}

// readPkgNameScope reads a PkgLength, a NameString, and resolves/creates
// the named child, returning the body's span. Shared by Device,
// Processor, PowerResource and ThermalZone, which differ only in what
// fixed fields (if any) follow the name before the body.
func (e *Engine) readPkgNameScope() (parent *ns.Node, seg string, bodyEnd uint32, err error) {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return nil, "", 0, err
	}
	name, err := r.ReadName()
	if err != nil {
		return nil, "", 0, err
	}
	e.commit(r)
	parent, seg = e.createChild(name)
	return parent, seg, end, nil
}

func (e *Engine) enterScopeBody(ctxNode *ns.Node, bodyStart, bodyEnd uint32) {
	segment := e.curContext().Segment
	e.pushContext(ContextFrame{Segment: segment, ContextNode: ctxNode})
	e.pushBlock(BlockFrame{PC: bodyStart, Limit: bodyEnd})
	e.pushItem(Item{Kind: ItemPopulate})
}

func (e *Engine) dispatchDevice() error {
	parent, seg, end, err := e.readPkgNameScope()
	if err != nil {
		return err
	}
	n := ns.NewDevice(seg)
	if !e.attachNode(parent, n) {
		return errDuplicateName
	}
	e.enterScopeBody(n, e.curBlock().PC, end)
	return nil
}

func (e *Engine) dispatchThermalZone() error {
	parent, seg, end, err := e.readPkgNameScope()
	if err != nil {
		return err
	}
	n := ns.NewThermalZone(seg)
	if !e.attachNode(parent, n) {
		return errDuplicateName
	}
	e.enterScopeBody(n, e.curBlock().PC, end)
	return nil
}

func (e *Engine) dispatchProcessor() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	cpuID, err := r.ReadByte()
	if err != nil {
		return err
	}
	pblkAddr, err := readRawDword(r)
	if err != nil {
		return err
	}
	pblkLen, err := r.ReadByte()
	if err != nil {
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	n := ns.NewProcessor(seg, cpuID, pblkAddr, pblkLen)
	if !e.attachNode(parent, n) {
		return errDuplicateName
	}
	e.enterScopeBody(n, e.curBlock().PC, end)
	return nil
}

func (e *Engine) dispatchPowerResource() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	if _, err := r.ReadByte(); err != nil { // SystemLevel, unused.
		return err
	}
	if _, err := readRawWord(r); err != nil { // ResourceOrder, unused.
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	n := ns.NewPowerResource(seg)
	if !e.attachNode(parent, n) {
		return errDuplicateName
	}
	e.enterScopeBody(n, e.curBlock().PC, end)
	return nil
}

func (e *Engine) dispatchMethod() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	bodyStart := r.Offset()
	e.commit(r)
	// The body runs only when the method is invoked; skip past it here.
	e.curBlock().PC = end

	parent, seg := e.createChild(name)
	body := &ns.MethodBody{
		Segment:  e.curContext().Segment,
		Offset:   bodyStart,
		Length:   end - bodyStart,
		ArgCount: flags & 0x7,
	}
	if !e.attachNode(parent, ns.NewMethod(seg, body)) {
		return errDuplicateName
	}
	return nil
}

func (e *Engine) dispatchMutex() error {
	r := e.reader()
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	if _, err := r.ReadByte(); err != nil { // SyncFlags, unused: mutexes are no-ops.
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	if !e.attachNode(parent, ns.NewMutex(seg)) {
		return errDuplicateName
	}
	return nil
}

func (e *Engine) dispatchEvent() error {
	r := e.reader()
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	if !e.attachNode(parent, ns.NewEvent(seg)) {
		return errDuplicateName
	}
	return nil
}

// dispatchCreateField pushes an ItemNode to collect the source buffer and
// index TermArgs; the trailing NameString is read in reduceNode, once the
// reader sits right after them.
func (e *Engine) dispatchCreateField(op parser.Opcode, mode ParseMode) error {
	e.pushItem(Item{
		Kind:       ItemNode,
		Opcode:     op,
		Modes:      createFieldModes,
		WantResult: mode != ModeExec,
	})
	return nil
}

// stepNode drives an ItemNode's declared TermArgs one parse per step, then
// hands off to reduceNode for the construct-specific finalization.
func (e *Engine) stepNode() error {
	item := e.curItem()
	if item.ModePos < len(item.Modes) {
		mode := item.Modes[item.ModePos]
		item.ModePos++
		return e.parseTerm(mode)
	}

	done := e.popItem()
	args := make([]Operand, len(done.Modes))
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = e.popOperand()
	}
	return e.reduceNode(done, args)
}

func (e *Engine) reduceNode(item Item, args []Operand) error {
	switch item.Opcode {
	case parser.OpName:
		owned := &value.Variable{}
		value.Assign(owned, args[0].Value)
		if !e.attachNode(item.AttachParent, ns.NewName(item.Name, owned)) {
			return errDuplicateName
		}
		return nil

	case parser.OpOpRegion:
		base := args[0].Value.Integer()
		length := args[1].Value.Integer()
		n := ns.NewOperationRegion(item.Name, ns.AddressSpace(item.Flags), base, length, nil)
		if !e.attachNode(item.AttachParent, n) {
			return errDuplicateName
		}
		return nil

	case parser.OpCreateByteField, parser.OpCreateWordField, parser.OpCreateDWordField,
		parser.OpCreateQWordField, parser.OpCreateBitField:
		bufVar := args[0].Value
		idx := args[1].Value.Integer()

		r := e.reader()
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		e.commit(r)

		var bitOffset, bitSize uint32
		switch item.Opcode {
		case parser.OpCreateBitField:
			bitOffset, bitSize = uint32(idx), 1
		case parser.OpCreateByteField:
			bitOffset, bitSize = uint32(idx)*8, 8
		case parser.OpCreateWordField:
			bitOffset, bitSize = uint32(idx)*8, 16
		case parser.OpCreateDWordField:
			bitOffset, bitSize = uint32(idx)*8, 32
		case parser.OpCreateQWordField:
			bitOffset, bitSize = uint32(idx)*8, 64
		}

		srcNode := ns.NewName("", bufVar)
		parent, seg := e.createChild(name)
		if !e.attachNode(parent, ns.NewBufferField(seg, srcNode, bitOffset, bitSize)) {
			return errDuplicateName
		}
		return nil

	default:
		return errUnknownOpcode
	}
}
