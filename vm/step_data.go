package vm

import "amlvm/value"

// stepBuffer drives a Buffer's size expression then reads its raw byte
// list directly (ByteList is not further AML-parsed).
func (e *Engine) stepBuffer() error {
	item := e.curItem()
	if item.ModePos == 0 {
		item.ModePos = 1
		return e.parseTerm(ModeObject)
	}

	sizeOp := e.popOperand()
	n := int(sizeOp.Value.Integer())

	blk := e.curBlock()
	avail := int(blk.Limit - blk.PC)
	if n > avail {
		n = avail
	}
	raw := e.curContext().Segment.AML[blk.PC : blk.PC+uint32(n)]
	buf := value.NewBufferFromBytes(raw)

	done := e.popItem()
	e.popBlockAndResume()
	if done.WantResult {
		e.pushOperand(Operand{Kind: OperandValue, Value: buf})
	}
	return nil
}

// stepPackage parses a fixed element count in DATA mode, padding any
// elements the body falls short of with the empty Variable. ModePos
// tracks how many elements have been filled so far.
func (e *Engine) stepPackage() error {
	item := e.curItem()
	blk := e.curBlock()

	if item.ModePos < item.Count && blk.PC < blk.Limit {
		if err := e.parseTerm(ModeData); err != nil {
			return err
		}
		v := e.popOperand().Value
		value.Assign(item.TargetArray.Elem(item.ModePos), v)
		e.curItem().ModePos++
		return nil
	}

	done := e.popItem()
	e.popBlockAndResume()
	if done.WantResult {
		e.pushOperand(Operand{Kind: OperandValue, Value: done.TargetArray})
	}
	return nil
}
