package vm

import (
	"amlvm/ns"
	"amlvm/value"
)

// stepPopulate drives one term of a plain scope body (table root, Scope,
// Device, Processor, PowerResource, ThermalZone) in EXEC mode.
func (e *Engine) stepPopulate() error {
	blk := e.curBlock()
	if blk.PC >= blk.Limit {
		e.popItem()
		e.popBlockAndResume()
		e.popContext()
		return nil
	}
	return e.parseTerm(ModeExec)
}

// stepMethod is identical to stepPopulate except completion performs an
// implicit Return of Integer 0 when no explicit Return occurred, and
// uninstalls every namespace node the invocation created.
func (e *Engine) stepMethod() error {
	blk := e.curBlock()
	if blk.PC >= blk.Limit {
		return e.finishMethod()
	}
	return e.parseTerm(ModeExec)
}

// finishMethod completes the current ItemMethod frame: implicit return,
// per-invocation node cleanup, and (if wanted) pushing the result.
func (e *Engine) finishMethod() error {
	item := e.popItem()
	e.popBlockAndResume()
	ctx := e.contextStack[len(e.contextStack)-1]
	e.popContext()

	inv := ctx.Invocation
	if inv == nil {
		return nil
	}
	if !inv.Returned {
		inv.ReturnValue = value.NewInteger(0)
	}
	for _, n := range inv.Nodes {
		if p := n.Parent(); p != nil {
			p.Remove(n)
		}
		if n.Type() == ns.TypeName && n.Object() != nil {
			value.Finalize(n.Object())
		}
	}

	if item.WantResult {
		e.pushOperand(Operand{Kind: OperandValue, Value: inv.ReturnValue})
	}
	return nil
}
