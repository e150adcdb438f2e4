package vm

import (
	"amlvm/ns"
	"amlvm/value"
)

// runToDepth drives Run's step loop until the item stack shrinks back to
// depth, used to evaluate a nested method call to completion without a
// native Go call: the pushed context/block/item frames ride on the same
// stacks as the outer execution, so returning to depth is just another
// iteration of the same loop.
func (e *Engine) runToDepth(depth int) error {
	for len(e.itemStack) > depth {
		if err := e.step(); err != nil {
			return err
		}
	}
	return nil
}

// BeginCall pushes the context/block/item frames needed to invoke target
// (a non-override Method) with args, without driving them to completion.
// cmd/amlshell's live stack view single-steps the result via Step so the
// operator can watch the four stacks unwind frame by frame instead of
// running straight to the answer; Invoke below is the all-at-once form
// built on the same pair of calls.
func (e *Engine) BeginCall(target *ns.Node, args []*value.Variable) (itemDepth, operandDepth int, err error) {
	body := target.Method()
	if body == nil || body.Override != nil {
		return 0, 0, errNotAMethod
	}

	inv := &Invocation{}
	for i, a := range args {
		if i >= MaxMethodArgs {
			break
		}
		slot := &value.Variable{}
		value.Clone(slot, a)
		inv.Args[i] = slot
	}
	for i := range inv.Locals {
		inv.Locals[i] = &value.Variable{}
	}

	itemDepth = len(e.itemStack)
	operandDepth = e.operandDepth()
	e.pushContext(ContextFrame{Segment: body.SegmentFor(), ContextNode: target, Invocation: inv})
	e.pushBlock(BlockFrame{PC: body.Offset, Limit: body.Offset + body.Length})
	e.pushItem(Item{Kind: ItemMethod, OpstackFrame: operandDepth, WantResult: true})
	return itemDepth, operandDepth, nil
}

// EndCall collects the result of a call begun with BeginCall, once
// ItemDepth has unwound back to the depth BeginCall returned.
func (e *Engine) EndCall(operandDepth int) *value.Variable {
	if e.operandDepth() <= operandDepth {
		return &value.Variable{}
	}
	return e.popOperand().Value
}

// Step advances the engine by exactly one item-stack reduction. Exported
// for cmd/amlshell's single-stepping live view; Run is the normal driver
// that loops it to completion.
func (e *Engine) Step() error { return e.step() }

// ItemDepth, BlockDepth, ContextDepth and OperandDepth report the current
// length of each execution stack, for live introspection.
func (e *Engine) ItemDepth() int    { return len(e.itemStack) }
func (e *Engine) BlockDepth() int   { return len(e.blockStack) }
func (e *Engine) ContextDepth() int { return len(e.contextStack) }
func (e *Engine) OperandDepth() int { return e.operandDepth() }

// Invoke calls target (which must be a Method node) directly with args,
// driving the same step loop a Method reference encountered mid-AML would.
// Used by the root façade and by cmd/amlshell's non-interactive commands.
func (e *Engine) Invoke(target *ns.Node, args []*value.Variable) (*value.Variable, error) {
	if body := target.Method(); body != nil && body.Override != nil {
		return body.Override(args)
	}
	itemDepth, operandDepth, err := e.BeginCall(target, args)
	if err != nil {
		return nil, err
	}
	if err := e.runToDepth(itemDepth); err != nil {
		return nil, err
	}
	return e.EndCall(operandDepth), nil
}

// EvalSearchInteger implements opregion.Resolver: it resolves name by the
// ACPI search rule from context upward, evaluates it (invoking a Method
// synchronously if needed), and reports its integer value.
func (e *Engine) EvalSearchInteger(context *ns.Node, name string) (uint64, bool) {
	v := e.evalSearch(context, name)
	if v == nil || v.Tag() != value.TagInteger {
		return 0, false
	}
	return v.Integer(), true
}

func (e *Engine) evalSearch(context *ns.Node, name string) *value.Variable {
	target := ns.Resolve(e.Root, context, ns.ParsedName{Segments: []string{name}})
	if target == nil {
		return nil
	}
	switch target.Type() {
	case ns.TypeName:
		return target.Object()
	case ns.TypeMethod:
	default:
		return nil
	}

	body := target.Method()
	if body.Override != nil {
		res, err := body.Override(nil)
		if err != nil {
			return nil
		}
		return res
	}

	depth := len(e.itemStack)
	priorOperands := e.operandDepth()
	e.pushContext(ContextFrame{Segment: body.SegmentFor(), ContextNode: target, Invocation: &Invocation{}})
	e.pushBlock(BlockFrame{PC: body.Offset, Limit: body.Offset + body.Length})
	e.pushItem(Item{Kind: ItemMethod, OpstackFrame: priorOperands, WantResult: true})

	if err := e.runToDepth(depth); err != nil {
		return nil
	}
	if e.operandDepth() <= priorOperands {
		return nil
	}
	return e.popOperand().Value
}
