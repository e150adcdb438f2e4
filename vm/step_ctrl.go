package vm

import "amlvm/value"

// stepInvoke collects a Method's argument list one parse per step, then
// either calls a host override synchronously or pushes a fresh
// context/block/ItemMethod frame to drive the body.
func (e *Engine) stepInvoke() error {
	item := e.curItem()
	if item.ModePos < len(item.Modes) {
		mode := item.Modes[item.ModePos]
		item.ModePos++
		return e.parseTerm(mode)
	}

	done := e.popItem()
	argc := len(done.Modes)
	args := make([]*value.Variable, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = e.popOperand().Value
	}

	target := done.InvokeTarget
	body := target.Method()

	if body.Override != nil {
		res, err := body.Override(args)
		if err != nil {
			return err
		}
		if done.WantResult {
			if res == nil {
				res = &value.Variable{}
			}
			e.pushOperand(Operand{Kind: OperandValue, Value: res})
		}
		return nil
	}

	inv := &Invocation{}
	for i, a := range args {
		slot := &value.Variable{}
		value.Clone(slot, a)
		inv.Args[i] = slot
	}
	for i := range inv.Locals {
		inv.Locals[i] = &value.Variable{}
	}

	e.pushContext(ContextFrame{Segment: body.SegmentFor(), ContextNode: target, Invocation: inv})
	e.pushBlock(BlockFrame{PC: body.Offset, Limit: body.Offset + body.Length})
	e.pushItem(Item{Kind: ItemMethod, WantResult: done.WantResult})
	return nil
}

// stepReturn collects Return's single operand, then unwinds every
// Cond/Loop/Populate scope frame opened since the enclosing Method frame
// and completes it directly.
func (e *Engine) stepReturn() error {
	item := e.curItem()
	if item.ModePos < len(item.Modes) {
		mode := item.Modes[item.ModePos]
		item.ModePos++
		return e.parseTerm(mode)
	}

	e.popItem()
	rv := e.popOperand().Value

	if inv := e.innermostInvocation(); inv != nil {
		inv.Returned = true
		inv.ReturnValue = rv
	}

	idx := -1
	for i := len(e.itemStack) - 1; i >= 0; i-- {
		if e.itemStack[i].Kind == ItemMethod {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	discard := len(e.itemStack) - idx - 1
	for _, it := range e.itemStack[idx+1:] {
		if it.Kind == ItemPopulate {
			e.popContext()
		}
	}
	e.itemStack = e.itemStack[:idx+1]
	e.blockStack = e.blockStack[:len(e.blockStack)-discard]

	return e.finishMethod()
}

// stepLoop drives a While construct: evaluate the predicate, run the body
// once if true, then re-evaluate; this never recurses, it just resets PC
// to LoopPredicatePC.
func (e *Engine) stepLoop() error {
	item := e.curItem()
	blk := e.curBlock()

	if !item.LoopIterating {
		if item.ModePos == 0 {
			if blk.PC >= blk.Limit {
				e.popItem()
				e.popBlockAndResume()
				return nil
			}
			item.ModePos = 1
			return e.parseTerm(ModeObject)
		}
		item.ModePos = 0
		pred := e.popOperand().Value
		if pred.Integer() == 0 {
			e.popItem()
			e.popBlockAndResume()
			return nil
		}
		item.LoopIterating = true
		return nil
	}

	if blk.PC >= blk.Limit {
		blk.PC = item.LoopPredicatePC
		e.curItem().LoopIterating = false
		return nil
	}
	return e.parseTerm(ModeExec)
}

// doBreak unwinds past the nearest enclosing Loop item entirely (its own
// block frame included), discarding any Cond frames opened inside it, and
// resumes the frame beneath at the loop's own end offset.
func (e *Engine) doBreak() error {
	idx := e.nearestLoopIndex()
	if idx < 0 {
		return errStackEscape
	}
	n := len(e.itemStack) - idx
	loopLimit := e.blockStack[len(e.blockStack)-n].Limit
	e.itemStack = e.itemStack[:idx]
	e.blockStack = e.blockStack[:len(e.blockStack)-n]
	if len(e.blockStack) > 0 {
		e.curBlock().PC = loopLimit
	}
	return nil
}

// doContinue unwinds any frames opened since the nearest enclosing Loop
// item, then fast-forwards its block to its own Limit so the next step()
// call re-enters stepLoop's predicate-recheck branch.
func (e *Engine) doContinue() error {
	idx := e.nearestLoopIndex()
	if idx < 0 {
		return errStackEscape
	}
	n := len(e.itemStack) - idx - 1
	e.itemStack = e.itemStack[:idx+1]
	e.blockStack = e.blockStack[:len(e.blockStack)-n]
	e.curBlock().PC = e.curBlock().Limit
	return nil
}

func (e *Engine) nearestLoopIndex() int {
	for i := len(e.itemStack) - 1; i >= 0; i-- {
		if e.itemStack[i].Kind == ItemLoop {
			return i
		}
	}
	return -1
}

// stepCond first evaluates the If predicate, choosing between the If and
// Else bodies (parking the outer block at the offset execution resumes at
// once whichever body finishes, since an untaken sibling Else must be
// skipped over entirely), then drives the chosen body like stepPopulate.
func (e *Engine) stepCond() error {
	item := e.curItem()

	if item.ModePos == 0 {
		item.ModePos = 1
		return e.parseTerm(ModeObject)
	}
	if item.ModePos == 1 {
		pred := e.popOperand().Value
		taken := pred.Integer() != 0

		item.ModePos = 2
		item.CondTaken = taken

		resumeAfter := item.IfBodyEnd
		if item.HasElseBlock {
			resumeAfter = item.ElseBlockEnd
		}

		var bodyStart, bodyEnd uint32
		switch {
		case taken:
			bodyStart, bodyEnd = e.curBlock().PC, item.IfBodyEnd
		case item.HasElseBlock:
			bodyStart, bodyEnd = item.ElseBlockPC, item.ElseBlockEnd
		default:
			bodyStart, bodyEnd = resumeAfter, resumeAfter
		}

		e.curBlock().PC = resumeAfter
		e.pushBlock(BlockFrame{PC: bodyStart, Limit: bodyEnd})
		return nil
	}

	blk := e.curBlock()
	if blk.PC >= blk.Limit {
		e.popItem()
		e.popBlock()
		return nil
	}
	return e.parseTerm(ModeExec)
}
