package vm

import (
	"amlvm/ns"
	"amlvm/parser"
)

// dispatchOpRegion reads the NameString and address-space byte
// synchronously, then pushes an ItemNode to evaluate the Offset and
// Length TermArgs before creating the OperationRegion node.
func (e *Engine) dispatchOpRegion() error {
	r := e.reader()
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	space, err := r.ReadByte()
	if err != nil {
		return err
	}
	e.commit(r)

	parent, seg := e.createChild(name)
	e.pushItem(Item{
		Kind:         ItemNode,
		Opcode:       parser.OpOpRegion,
		Modes:        []ParseMode{ModeObject, ModeObject},
		Name:         seg,
		AttachParent: parent,
		Flags:        space,
	})
	return nil
}

// fieldUnit is one NamedField entry decoded from a FieldList.
type fieldUnit struct {
	name      string
	bitOffset uint32
	bitSize   uint32
	access    ns.AccessType
}

// parseFieldList decodes the NamedField/ReservedField/AccessField entries
// of a Field or IndexField body up to end, running bit offsets forward as
// it goes. Field and IndexField share this sub-grammar verbatim; it needs
// no TermArg evaluation, so it runs synchronously against r rather than
// through the Item machinery.
func parseFieldList(r *parser.Reader, end uint32, access ns.AccessType) ([]fieldUnit, error) {
	var units []fieldUnit
	var bitPos uint32

	for r.Offset() < end {
		tag, err := r.PeekByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 0x00: // ReservedField: 0x00 PkgLength(bits)
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
			n, err := r.ReadVarint()
			if err != nil {
				return nil, err
			}
			bitPos += n
		case 0x01: // AccessField: 0x01 AccessType AccessAttrib
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
			at, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
			access = ns.AccessType(at)
		default: // NamedField: NameSeg PkgLength(bits)
			var raw [4]byte
			for i := range raw {
				b, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				raw[i] = b
			}
			n, err := r.ReadVarint()
			if err != nil {
				return nil, err
			}
			units = append(units, fieldUnit{name: string(raw[:]), bitOffset: bitPos, bitSize: n, access: access})
			bitPos += n
		}
	}
	return units, nil
}

func (e *Engine) dispatchField() error {
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

	ctx := e.curContext().ContextNode
	region := ns.Resolve(e.Root, ctx, ns.ParseName(name))
	if region == nil {
		return errUndefinedRef
	}

	units, err := parseFieldList(r, end, ns.AccessType(flags&0xf))
	if err != nil {
		return err
	}
	e.commit(r)

	lock := ns.LockRule((flags >> 4) & 0x1)
	update := ns.UpdateRule((flags >> 5) & 0x3)
	for _, u := range units {
		parent, seg := e.createChild(u.name)
		info := ns.FieldInfo{BitOffset: u.bitOffset, BitSize: u.bitSize, AccessType: u.access, LockRule: lock, UpdateRule: update}
		if !e.attachNode(parent, ns.NewField(seg, region, info)) {
			return errDuplicateName
		}
	}
	return nil
}

func (e *Engine) dispatchIndexField() error {
	r := e.reader()
	_, end, err := r.ReadPkgLength()
	if err != nil {
		return err
	}
	indexName, err := r.ReadName()
	if err != nil {
		return err
	}
	dataName, err := r.ReadName()
	if err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}

	ctx := e.curContext().ContextNode
	indexNode := ns.Resolve(e.Root, ctx, ns.ParseName(indexName))
	dataNode := ns.Resolve(e.Root, ctx, ns.ParseName(dataName))
	if indexNode == nil || dataNode == nil {
		return errUndefinedRef
	}

	units, err := parseFieldList(r, end, ns.AccessType(flags&0xf))
	if err != nil {
		return err
	}
	e.commit(r)

	lock := ns.LockRule((flags >> 4) & 0x1)
	update := ns.UpdateRule((flags >> 5) & 0x3)
	for _, u := range units {
		parent, seg := e.createChild(u.name)
		info := ns.FieldInfo{BitOffset: u.bitOffset, BitSize: u.bitSize, AccessType: u.access, LockRule: lock, UpdateRule: update}
		if !e.attachNode(parent, ns.NewIndexField(seg, indexNode, dataNode, info)) {
			return errDuplicateName
		}
	}
	return nil
}
