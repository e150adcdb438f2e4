package vm

import (
	"amlvm/ns"
	"amlvm/opregion"
	"amlvm/parser"
	"amlvm/value"
)

// Run drains the item stack, one step per iteration, until it is empty.
// This is the engine's only loop: every nested AML construct advances by
// pushing further context/block/item frames rather than by a native Go
// call.
func (e *Engine) Run() error {
	for len(e.itemStack) > 0 {
		if err := e.step(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) step() error {
	switch e.curItem().Kind {
	case ItemPopulate:
		return e.stepPopulate()
	case ItemMethod:
		return e.stepMethod()
	case ItemBuffer:
		return e.stepBuffer()
	case ItemPackage:
		return e.stepPackage()
	case ItemNode:
		return e.stepNode()
	case ItemOp:
		return e.stepOp()
	case ItemInvoke:
		return e.stepInvoke()
	case ItemReturn:
		return e.stepReturn()
	case ItemLoop:
		return e.stepLoop()
	case ItemCond:
		return e.stepCond()
	default:
		return errStackEscape
	}
}

// reader returns a Reader positioned at the current block's PC, bounded
// by its Limit.
func (e *Engine) reader() *parser.Reader {
	blk := e.curBlock()
	r := parser.NewReader(e.curContext().Segment.AML, blk.PC)
	r.SetPkgEnd(blk.Limit)
	return r
}

// commit writes a reader's advanced offset back into the current block.
func (e *Engine) commit(r *parser.Reader) { e.curBlock().PC = r.Offset() }

// popBlockAndResume pops the current block frame and, if a parent block
// frame remains, fast-forwards its PC to the popped frame's Limit (the
// absolute offset immediately following the construct that frame spanned).
func (e *Engine) popBlockAndResume() {
	limit := e.curBlock().Limit
	e.popBlock()
	if len(e.blockStack) > 0 {
		e.curBlock().PC = limit
	}
}

// parseTerm consumes exactly one AML term at the current block PC under
// mode, either resolving it immediately to a single Operand (literals,
// Local/Arg reads, simple name reads) or pushing a new item (and possibly
// block/context frames) for the caller's next Run iteration to drive.
func (e *Engine) parseTerm(mode ParseMode) error {
	if mode == ModeImmediateByte {
		r := e.reader()
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		e.commit(r)
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(uint64(b))})
		return nil
	}
	if mode == ModeImmediateWord {
		r := e.reader()
		lo, err := r.ReadByte()
		if err != nil {
			return err
		}
		hi, err := r.ReadByte()
		if err != nil {
			return err
		}
		e.commit(r)
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(uint64(lo) | uint64(hi)<<8)})
		return nil
	}

	r := e.reader()
	lead, err := r.PeekByte()
	if err != nil {
		return err
	}

	// A 0x00 lead byte is ambiguous at the byte level: it is both the
	// NullName production (an elided Target/SuperName) and the ZeroOp
	// object constant. Only a reference/target position can ever mean
	// NullName; everywhere else 0x00 is the Zero object, so it must fall
	// through to ReadOpcode rather than be swallowed as a name.
	if lead == 0x00 && mode == ModeReference {
		if _, err := r.ReadByte(); err != nil {
			return err
		}
		e.commit(r)
		return e.parseNameTerm("", mode)
	}

	// Name reference.
	if lead != 0x00 && isNameLead(lead) {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		e.commit(r)
		return e.parseNameTerm(name, mode)
	}

	op, err := r.ReadOpcode()
	if err != nil {
		return err
	}
	e.commit(r)
	return e.parseOpcodeTerm(op, mode)
}

func isNameLead(b byte) bool {
	switch {
	case b == '\\' || b == '^' || b == 0x2e || b == 0x2f:
		return true
	case b == '_' || (b >= 'A' && b <= 'Z'):
		return true
	}
	return false
}

func (e *Engine) parseNameTerm(name string, mode ParseMode) error {
	ctxNode := e.curContext().ContextNode

	switch mode {
	case ModeData:
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewLazyHandle(ctxNode, name, e.lazyResolve)})
		return nil
	case ModeReference:
		// A NullName (the elided-target convention, e.g. Add(Arg0, Arg1, )
		// with no store destination) decodes to the empty string here; it
		// names no node at all and must never be resolved as one.
		if name == "" {
			e.pushOperand(Operand{Kind: OperandNullName})
			return nil
		}
		e.pushOperand(Operand{Kind: OperandUnresolvedName, RawName: name, Context: ctxNode})
		return nil
	}

	parsed := ns.ParseName(name)
	target := ns.Resolve(e.Root, ctxNode, parsed)
	if target == nil {
		e.pushOperand(Operand{Kind: OperandValue, Value: &value.Variable{}})
		return nil
	}

	if target.Type() == ns.TypeMethod {
		body := target.Method()
		argc := int(body.ArgCount)
		modes := make([]ParseMode, argc)
		for i := range modes {
			modes[i] = ModeObject
		}
		e.pushItem(Item{
			Kind:         ItemInvoke,
			Modes:        modes,
			OpstackFrame: e.operandDepth(),
			WantResult:   mode == ModeObject,
			InvokeTarget: target,
		})
		return nil
	}

	v, err := e.readNodeValue(target)
	if err != nil {
		return err
	}
	e.pushOperand(Operand{Kind: OperandValue, Value: v})
	return nil
}

// lazyResolve backs LazyHandle Variables produced in DATA mode.
func (e *Engine) lazyResolve(ctx interface{}, name string) value.NodeRef {
	ctxNode, _ := ctx.(*ns.Node)
	target := ns.Resolve(e.Root, ctxNode, ns.ParseName(name))
	if target == nil {
		return nil
	}
	return target
}

// ReadNodeValue reads the current value behind a resolved namespace node:
// a Name node's Variable, a Device's handle, or a live read through a
// Field/IndexField/BufferField. Exported for the root façade's typed API.
func (e *Engine) ReadNodeValue(target *ns.Node) (*value.Variable, error) {
	return e.readNodeValue(target)
}

// readNodeValue reads the current value behind a resolved node for
// OBJECT/EXEC-mode consumption: a Name node's Variable, a Device's
// handle, or a live read through a Field/IndexField/BufferField.
func (e *Engine) readNodeValue(target *ns.Node) (*value.Variable, error) {
	switch target.Type() {
	case ns.TypeName:
		return target.Object(), nil
	case ns.TypeField:
		info := target.FieldInfo()
		buf := make([]byte, (info.BitSize+7)/8)
		if err := opregion.ReadField(e.Host, e, target, buf); err != nil {
			return nil, err
		}
		return bitsToVariable(buf, info.BitSize), nil
	case ns.TypeIndexField:
		info := target.FieldInfo()
		buf := make([]byte, (info.BitSize+7)/8)
		if err := opregion.ReadIndexField(e.Host, e, target, buf); err != nil {
			return nil, err
		}
		return bitsToVariable(buf, info.BitSize), nil
	case ns.TypeBufferField:
		return value.NewInteger(opregion.ReadBufferField(target)), nil
	default:
		return value.NewHandle(target), nil
	}
}

func bitsToVariable(buf []byte, bitSize uint32) *value.Variable {
	if bitSize <= 64 {
		var v uint64
		for i, b := range buf {
			v |= uint64(b) << (8 * uint(i))
		}
		return value.NewInteger(v)
	}
	return value.NewBufferFromBytes(buf)
}

func (e *Engine) parseOpcodeTerm(op parser.Opcode, mode ParseMode) error {
	switch op {
	case parser.OpZero:
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(0)})
		return nil
	case parser.OpOne:
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(1)})
		return nil
	case parser.OpOnes:
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(^uint64(0))})
		return nil
	case parser.OpBytePrefix, parser.OpWordPrefix, parser.OpDwordPrefix, parser.OpQwordPrefix:
		r := e.reader()
		v, err := r.ReadInteger(op)
		if err != nil {
			return err
		}
		e.commit(r)
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewInteger(v)})
		return nil
	case parser.OpStringPrefix:
		r := e.reader()
		s, err := r.ReadString()
		if err != nil {
			return err
		}
		e.commit(r)
		e.pushOperand(Operand{Kind: OperandValue, Value: value.NewStringFromGo(s)})
		return nil
	case parser.OpDebug:
		e.pushOperand(Operand{Kind: OperandDebugName})
		return nil
	}

	if op >= parser.OpLocal0 && op <= parser.OpLocal7 {
		idx := int(op - parser.OpLocal0)
		return e.pushLocalArgTerm(OperandLocalName, idx, mode)
	}
	if op >= parser.OpArg0 && op <= parser.OpArg6 {
		idx := int(op - parser.OpArg0)
		return e.pushLocalArgTerm(OperandArgName, idx, mode)
	}

	if modes, ok := opArgModes[op]; ok {
		e.pushItem(Item{
			Kind:         ItemOp,
			Opcode:       op,
			Modes:        modes,
			OpstackFrame: e.operandDepth(),
			WantResult:   mode != ModeExec,
		})
		return nil
	}

	switch op {
	case parser.OpIf:
		return e.dispatchIf()
	case parser.OpWhile:
		return e.dispatchWhile()
	case parser.OpReturn:
		e.pushItem(Item{Kind: ItemReturn, Modes: []ParseMode{ModeObject}, OpstackFrame: e.operandDepth()})
		return nil
	case parser.OpBreak:
		return e.doBreak()
	case parser.OpContinue:
		return e.doContinue()
	case parser.OpNoop, parser.OpBreakPoint:
		return nil
	case parser.OpName:
		return e.dispatchName()
	case parser.OpAlias:
		return e.dispatchAlias()
	case parser.OpScope:
		return e.dispatchScope()
	case parser.OpDevice:
		return e.dispatchDevice()
	case parser.OpMethod:
		return e.dispatchMethod()
	case parser.OpProcessor:
		return e.dispatchProcessor()
	case parser.OpPowerRes:
		return e.dispatchPowerResource()
	case parser.OpThermalZone:
		return e.dispatchThermalZone()
	case parser.OpMutex:
		return e.dispatchMutex()
	case parser.OpEvent:
		return e.dispatchEvent()
	case parser.OpOpRegion:
		return e.dispatchOpRegion()
	case parser.OpField:
		return e.dispatchField()
	case parser.OpIndexField:
		return e.dispatchIndexField()
	case parser.OpBuffer:
		return e.dispatchBuffer(mode)
	case parser.OpPackage:
		return e.dispatchPackage(mode)
	case parser.OpCreateByteField, parser.OpCreateWordField, parser.OpCreateDWordField,
		parser.OpCreateQWordField, parser.OpCreateBitField:
		return e.dispatchCreateField(op, mode)
	default:
		return errUnknownOpcode
	}
}

func (e *Engine) pushLocalArgTerm(kind OperandKind, idx int, mode ParseMode) error {
	if mode == ModeReference || mode == ModeData {
		e.pushOperand(Operand{Kind: kind, Index: idx})
		return nil
	}
	inv := e.innermostInvocation()
	if inv == nil {
		return errArgOutOfRange
	}
	var v *value.Variable
	if kind == OperandLocalName {
		if idx >= MaxLocals {
			return errArgOutOfRange
		}
		v = inv.Locals[idx]
	} else {
		if idx >= MaxMethodArgs {
			return errArgOutOfRange
		}
		v = inv.Args[idx]
	}
	if v == nil {
		v = &value.Variable{}
	}
	e.pushOperand(Operand{Kind: OperandValue, Value: v})
	return nil
}

// readPkgScope reads a PkgLength and returns the body start/end offsets,
// committing the reader.
func (e *Engine) readPkgScope() (start, end uint32, err error) {
	r := e.reader()
	_, end, err = r.ReadPkgLength()
	if err != nil {
		return 0, 0, err
	}
	start = r.Offset()
	e.commit(r)
	return start, end, nil
}
