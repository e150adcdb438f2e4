package vm

import "amlvm/parser"

// dispatchIf reads the If construct's PkgLength and, if a sibling Else
// immediately follows in the bytestream, its PkgLength too, then pushes an
// ItemCond to evaluate the predicate on the next step.
func (e *Engine) dispatchIf() error {
	r := e.reader()
	_, ifEnd, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	e.commit(r)

	var hasElse bool
	var elseStart, elseEnd uint32
	peek := parser.NewReader(e.curContext().Segment.AML, ifEnd)
	if b, perr := peek.PeekByte(); perr == nil && parser.Opcode(b) == parser.OpElse {
		if _, oerr := peek.ReadOpcode(); oerr == nil {
			if _, eEnd, perr := peek.ReadPkgLength(); perr == nil {
				hasElse = true
				elseStart = peek.Offset()
				elseEnd = eEnd
			}
		}
	}

	e.pushItem(Item{
		Kind:         ItemCond,
		Modes:        []ParseMode{ModeObject},
		IfBodyEnd:    ifEnd,
		HasElseBlock: hasElse,
		ElseBlockPC:  elseStart,
		ElseBlockEnd: elseEnd,
	})
	return nil
}

// dispatchWhile pushes a single block frame spanning the predicate and
// body, reused across every iteration by resetting its PC.
func (e *Engine) dispatchWhile() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	predStart := r.Offset()
	e.commit(r)

	e.pushBlock(BlockFrame{PC: predStart, Limit: end})
	e.pushItem(Item{Kind: ItemLoop, LoopPredicatePC: predStart})
	return nil
}
