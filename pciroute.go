package aml

import (
	"amlvm/ns"
	"amlvm/value"
)

// PCIRoutePin resolves the GSI a PCI interrupt pin routes to by walking the
// PCI host bridge's _PRT (PCI Routing Table) under \_SB. pin is 1-based
// (1-4, matching the PCI config-space interrupt pin register) and is
// converted to ACPI's 0-based numbering before matching.
//
// Only direct GSI entries (_PRT element 2 an Integer) are resolved; entries
// naming an Interrupt Link Device (element 2 a device reference) require
// evaluating that device's _CRS resource template, which this core has no
// Resource/_CRS-adjacent construct to parse, so it returns
// StatusUnexpectedResult instead of a GSI.
func (in *Interpreter) PCIRoutePin(seg uint16, bus, slot, function, pin uint8) (uint32, StatusCode) {
	if pin == 0 || pin > 4 {
		return 0, StatusOutOfBounds
	}
	aPin := uint64(pin - 1)

	bridge := in.findPCIBridge(seg, bus)
	if bridge == nil {
		return 0, StatusNoSuchNode
	}

	prtNode := ns.Resolve(in.Root(), bridge, ns.ParseName("_PRT"))
	if prtNode == nil {
		return 0, StatusNoSuchNode
	}

	var prt *value.Variable
	if prtNode.Type() == ns.TypeMethod {
		v, err := in.engine.Invoke(prtNode, nil)
		if err != nil {
			return 0, StatusExecutionFailure
		}
		prt = v
	} else {
		v, err := in.engine.ReadNodeValue(prtNode)
		if err != nil {
			return 0, StatusExecutionFailure
		}
		prt = v
	}
	if value.GetType(prt) != value.TypePackage {
		return 0, StatusTypeMismatch
	}

	for i := 0; i < prt.Len(); i++ {
		entry := prt.Elem(i)
		if entry == nil || value.GetType(entry) != value.TypePackage || entry.Len() < 4 {
			continue
		}
		addr := entry.Elem(0)
		entryPin := entry.Elem(1)
		if addr == nil || entryPin == nil || value.GetType(addr) != value.TypeInteger || value.GetType(entryPin) != value.TypeInteger {
			continue
		}
		fn := addr.Integer() & 0xffff
		if addr.Integer()>>16 != uint64(slot) || (fn != 0xffff && fn != uint64(function)) {
			continue
		}
		if entryPin.Integer() != aPin {
			continue
		}

		source := entry.Elem(2)
		if source != nil && value.GetType(source) == value.TypeInteger {
			gsi := entry.Elem(3)
			if gsi == nil || value.GetType(gsi) != value.TypeInteger {
				return 0, StatusUnexpectedResult
			}
			return uint32(gsi.Integer()), StatusNone
		}
		return 0, StatusUnexpectedResult
	}
	return 0, StatusNoSuchNode
}

// findPCIBridge searches \_SB's direct children for the one whose _SEG/_BBN
// match (both default to 0 when absent), per lai_pci_route_pin's host
// bridge lookup.
func (in *Interpreter) findPCIBridge(seg uint16, bus uint8) *ns.Node {
	sb := ns.Resolve(in.Root(), in.Root(), ns.ParseName("_SB_"))
	if sb == nil {
		return nil
	}
	for _, child := range sb.Children() {
		if in.readSearchInteger(child, "_SEG") != uint64(seg) {
			continue
		}
		if in.readSearchInteger(child, "_BBN") != uint64(bus) {
			continue
		}
		return child
	}
	return nil
}

func (in *Interpreter) readSearchInteger(context *ns.Node, name string) uint64 {
	v, ok := in.engine.EvalSearchInteger(context, name)
	if !ok {
		return 0
	}
	return v
}
