package vm

import (
	"bytes"

	"amlvm/host"
	"amlvm/ns"
	"amlvm/opregion"
	"amlvm/parser"
	"amlvm/value"
)

// boolInt renders an AML boolean: Ones for true, zero for false.
func boolInt(cond bool) *value.Variable {
	if cond {
		return value.NewInteger(^uint64(0))
	}
	return value.NewInteger(0)
}

// reduceOp computes item's result from its already-collected args and, for
// opcodes with a Target operand, stores the result through it.
func (e *Engine) reduceOp(item Item, args []Operand) error {
	var result *value.Variable

	switch item.Opcode {
	case parser.OpStore:
		// Store clones its source into a scratch Variable before writing it
		// through the target reference, so the target never ends up aliasing
		// the source's body (two Names independently holding the same
		// Buffer/String/Package would otherwise mutate each other).
		scratch := &value.Variable{}
		value.Clone(scratch, args[0].Value)
		result = scratch
		if err := e.storeTo(args[1], result); err != nil {
			return err
		}

	case parser.OpAdd, parser.OpSubtract, parser.OpMultiply, parser.OpAnd,
		parser.OpOr, parser.OpXor, parser.OpShiftLeft, parser.OpShiftRight:
		a, b := args[0].Value.Integer(), args[1].Value.Integer()
		var r uint64
		switch item.Opcode {
		case parser.OpAdd:
			r = a + b
		case parser.OpSubtract:
			r = a - b
		case parser.OpMultiply:
			r = a * b
		case parser.OpAnd:
			r = a & b
		case parser.OpOr:
			r = a | b
		case parser.OpXor:
			r = a ^ b
		case parser.OpShiftLeft:
			r = a << b
		case parser.OpShiftRight:
			r = a >> b
		}
		result = value.NewInteger(r)
		if err := e.storeTo(args[2], result); err != nil {
			return err
		}

	case parser.OpDivide:
		a, b := args[0].Value.Integer(), args[1].Value.Integer()
		if b == 0 {
			return errDivideByZero
		}
		if err := e.storeTo(args[2], value.NewInteger(a%b)); err != nil {
			return err
		}
		result = value.NewInteger(a / b)
		if err := e.storeTo(args[3], result); err != nil {
			return err
		}

	case parser.OpIncrement, parser.OpDecrement:
		cur, err := e.readReference(args[0])
		if err != nil {
			return err
		}
		v := cur.Integer()
		if item.Opcode == parser.OpIncrement {
			v++
		} else {
			v--
		}
		result = value.NewInteger(v)
		if err := e.storeTo(args[0], result); err != nil {
			return err
		}

	case parser.OpNot:
		result = value.NewInteger(^args[0].Value.Integer())
		if err := e.storeTo(args[1], result); err != nil {
			return err
		}

	case parser.OpLnot:
		result = boolInt(args[0].Value.Integer() == 0)

	case parser.OpLand:
		result = boolInt(args[0].Value.Integer() != 0 && args[1].Value.Integer() != 0)

	case parser.OpLor:
		result = boolInt(args[0].Value.Integer() != 0 || args[1].Value.Integer() != 0)

	case parser.OpLEqual, parser.OpLGreater, parser.OpLLess:
		cmp, err := compareOperands(args[0].Value, args[1].Value)
		if err != nil {
			return err
		}
		switch item.Opcode {
		case parser.OpLEqual:
			result = boolInt(cmp == 0)
		case parser.OpLGreater:
			result = boolInt(cmp > 0)
		case parser.OpLLess:
			result = boolInt(cmp < 0)
		}

	case parser.OpIndex:
		idx := args[1].Value.Integer()
		r, err := indexInto(args[0].Value, idx)
		if err != nil {
			return err
		}
		result = r
		if err := e.storeTo(args[2], result); err != nil {
			return err
		}

	case parser.OpDerefOf:
		r, err := e.derefOf(args[0].Value)
		if err != nil {
			return err
		}
		result = r

	case parser.OpSizeOf:
		cur, err := e.readReference(args[0])
		if err != nil {
			return err
		}
		result = value.NewInteger(uint64(cur.Len()))

	case parser.OpCondRefOf:
		if node := e.resolveRefTarget(args[0]); node != nil {
			if err := e.storeTo(args[1], value.NewHandle(node)); err != nil {
				return err
			}
			result = boolInt(true)
		} else {
			result = boolInt(false)
		}

	case parser.OpSleep:
		if e.Host != nil {
			e.Host.Sleep(args[0].Value.Integer())
		}
		result = &value.Variable{}

	case parser.OpAcquire:
		// Mutexes are no-ops under the single-threaded step loop: Acquire
		// never blocks and always reports 1.
		result = value.NewInteger(1)

	case parser.OpRelease:
		result = &value.Variable{}

	case parser.OpRefOf:
		node := e.resolveRefTarget(args[0])
		if node == nil {
			return errUndefinedRef
		}
		result = value.NewHandle(node)

	default:
		return errUnknownOpcode
	}

	if item.WantResult {
		e.pushOperand(Operand{Kind: OperandValue, Value: result})
	}
	return nil
}

// readReference reads the current value behind a Reference-mode operand,
// without consuming it as a store target.
func (e *Engine) readReference(op Operand) (*value.Variable, error) {
	switch op.Kind {
	case OperandValue:
		return op.Value, nil
	case OperandNullName:
		return &value.Variable{}, nil
	case OperandLocalName:
		inv := e.innermostInvocation()
		if inv == nil || op.Index >= MaxLocals {
			return nil, errArgOutOfRange
		}
		if inv.Locals[op.Index] == nil {
			return &value.Variable{}, nil
		}
		return inv.Locals[op.Index], nil
	case OperandArgName:
		inv := e.innermostInvocation()
		if inv == nil || op.Index >= MaxMethodArgs {
			return nil, errArgOutOfRange
		}
		if inv.Args[op.Index] == nil {
			return &value.Variable{}, nil
		}
		return inv.Args[op.Index], nil
	case OperandResolvedName:
		return e.readNodeValue(op.Node)
	case OperandUnresolvedName:
		target := ns.Resolve(e.Root, op.Context, ns.ParseName(op.RawName))
		if target == nil {
			return nil, errUndefinedRef
		}
		return e.readNodeValue(target)
	default:
		return nil, errUndefinedRef
	}
}

// storeTo writes v through a Reference-mode operand, dispatching on its
// kind (and, for a resolved Name/Field/IndexField/BufferField node, on the
// node's type).
func (e *Engine) storeTo(dst Operand, v *value.Variable) error {
	switch dst.Kind {
	case OperandNullName:
		return nil
	case OperandDebugName:
		if e.Host != nil {
			e.Host.HandleDebug(v)
		}
		return nil
	case OperandLocalName:
		inv := e.innermostInvocation()
		if inv == nil || dst.Index >= MaxLocals {
			return errArgOutOfRange
		}
		if inv.Locals[dst.Index] == nil {
			inv.Locals[dst.Index] = &value.Variable{}
		}
		value.Clone(inv.Locals[dst.Index], v)
		return nil
	case OperandArgName:
		inv := e.innermostInvocation()
		if inv == nil || dst.Index >= MaxMethodArgs {
			return errArgOutOfRange
		}
		if inv.Args[dst.Index] == nil {
			inv.Args[dst.Index] = &value.Variable{}
		}
		value.Clone(inv.Args[dst.Index], v)
		return nil
	case OperandResolvedName:
		return e.storeToNode(dst.Node, v)
	case OperandUnresolvedName:
		target := ns.Resolve(e.Root, dst.Context, ns.ParseName(dst.RawName))
		if target == nil {
			return errUndefinedRef
		}
		return e.storeToNode(target, v)
	case OperandValue:
		switch dst.Value.Tag() {
		case value.TagStringIndex, value.TagBufferIndex:
			dst.Value.SetIndexByte(v.Integer())
			return nil
		case value.TagPackageIndex:
			value.Assign(dst.Value.IndexElem(), v)
			return nil
		}
		return errUndefinedRef
	default:
		return errUndefinedRef
	}
}

func (e *Engine) storeToNode(target *ns.Node, v *value.Variable) error {
	switch target.Type() {
	case ns.TypeName:
		value.Assign(target.Object(), v)
		return nil
	case ns.TypeField:
		return e.storeField(target, v, opregion.WriteField)
	case ns.TypeIndexField:
		return e.storeField(target, v, opregion.WriteIndexField)
	case ns.TypeBufferField:
		opregion.WriteBufferField(target, v.Integer())
		return nil
	default:
		return errUndefinedRef
	}
}

func (e *Engine) storeField(target *ns.Node, v *value.Variable, write func(host.Host, opregion.Resolver, *ns.Node, []byte) error) error {
	info := target.FieldInfo()
	buf := variableToBits(v, info.BitSize)
	return write(e.Host, e, target, buf)
}

func variableToBits(v *value.Variable, bitSize uint32) []byte {
	buf := make([]byte, (bitSize+7)/8)
	if v.Tag() == value.TagBuffer {
		copy(buf, v.Bytes())
		return buf
	}
	iv := v.Integer()
	for i := range buf {
		buf[i] = byte(iv >> (8 * uint(i)))
	}
	return buf
}

func indexInto(src *value.Variable, idx uint64) (*value.Variable, error) {
	switch src.Tag() {
	case value.TagBuffer:
		return value.NewBufferIndex(src, idx), nil
	case value.TagString:
		return value.NewStringIndex(src, idx), nil
	case value.TagPackage:
		return value.NewPackageIndex(src, idx), nil
	default:
		return nil, errUndefinedRef
	}
}

func (e *Engine) derefOf(src *value.Variable) (*value.Variable, error) {
	switch src.Tag() {
	case value.TagHandle, value.TagLazyHandle:
		n, ok := src.Node().(*ns.Node)
		if !ok || n == nil {
			return nil, errUndefinedRef
		}
		return e.readNodeValue(n)
	case value.TagStringIndex, value.TagBufferIndex:
		return value.NewInteger(uint64(src.IndexByte())), nil
	case value.TagPackageIndex:
		return src.IndexElem(), nil
	default:
		return src, nil
	}
}

// resolveRefTarget returns the namespace node a Reference-mode operand
// names, or nil if it is not a name reference (RefOf/CondRefOf of an
// Arg/Local slot is not supported).
func (e *Engine) resolveRefTarget(op Operand) *ns.Node {
	switch op.Kind {
	case OperandResolvedName:
		return op.Node
	case OperandUnresolvedName:
		return ns.Resolve(e.Root, op.Context, ns.ParseName(op.RawName))
	default:
		return nil
	}
}

func compareOperands(a, b *value.Variable) (int, error) {
	if a.Tag() == value.TagInteger && b.Tag() == value.TagInteger {
		x, y := a.Integer(), b.Integer()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := comparableBytes(a)
	bs, bok := comparableBytes(b)
	if aok && bok {
		return bytes.Compare(as, bs), nil
	}
	return 0, errHeteroCompare
}

func comparableBytes(v *value.Variable) ([]byte, bool) {
	switch v.Tag() {
	case value.TagString:
		return []byte(v.StringVal()), true
	case value.TagBuffer:
		return v.Bytes(), true
	default:
		return nil, false
	}
}
