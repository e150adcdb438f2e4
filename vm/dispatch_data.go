package vm

import "amlvm/value"

// dispatchBuffer pushes a fresh block over the Buffer's PkgLength span and
// an ItemBuffer to drive its size expression and byte list.
func (e *Engine) dispatchBuffer(mode ParseMode) error {
	start, end, err := e.readPkgScope()
	if err != nil {
		return err
	}
	e.pushBlock(BlockFrame{PC: start, Limit: end})
	e.pushItem(Item{Kind: ItemBuffer, WantResult: mode != ModeExec})
	return nil
}

// dispatchPackage reads the fixed element count, allocates the backing
// Package Variable, and pushes a block/ItemPackage to fill it.
func (e *Engine) dispatchPackage(mode ParseMode) error {
	_, end, err := e.readPkgScope()
	if err != nil {
		return err
	}
	r := e.reader()
	count, err := r.ReadByte()
	if err != nil {
		return err
	}
	e.commit(r)

	pkg, err := value.CreatePackage(int(count))
	if err != nil {
		return err
	}

	e.pushBlock(BlockFrame{PC: r.Offset(), Limit: end})
	e.pushItem(Item{Kind: ItemPackage, Count: int(count), TargetArray: pkg, WantResult: mode != ModeExec})
	return nil
}
