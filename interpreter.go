package aml

import (
	"amlvm/host"
	"amlvm/ns"
	"amlvm/value"
	"amlvm/vm"
)

// Interpreter ties the namespace, execution engine and host callback
// contract together behind a small typed public API, the same way a
// scan/populate/evaluate sequence is usually wrapped in a single façade.
type Interpreter struct {
	engine *vm.Engine
}

// New bootstraps a fresh namespace (root, predefined devices, overridable
// OS-identification methods) driven by h.
func New(h host.Host, opts ...vm.Option) *Interpreter {
	root := vm.Bootstrap(opts...)
	return &Interpreter{engine: vm.NewEngine(h, root)}
}

// LoadTables scans and populates the DSDT, every SSDT, then every PSDT.
func (in *Interpreter) LoadTables() error {
	return in.engine.LoadAndPopulate()
}

// Root returns the namespace root node `\`.
func (in *Interpreter) Root() *ns.Node { return in.engine.Root }

// Lookup resolves name (absolute, parent-relative, or a bare search-scoped
// segment) against the namespace root.
func (in *Interpreter) Lookup(name string) *ns.Node {
	return ns.Resolve(in.engine.Root, in.engine.Root, ns.ParseName(name))
}

// Invoke calls target (a Method node) with args and returns its result.
func (in *Interpreter) Invoke(target *ns.Node, args ...*value.Variable) (*value.Variable, error) {
	return in.engine.Invoke(target, args)
}

// eval resolves name then reads its value, invoking a Method with no
// arguments if the name resolves to one; shared by ObjGetInteger/ObjGetPkg/
// ObjGetHandle.
func (in *Interpreter) eval(name string) (*value.Variable, StatusCode) {
	target := in.Lookup(name)
	if target == nil {
		return nil, StatusNoSuchNode
	}
	if target.Type() == ns.TypeMethod {
		v, err := in.engine.Invoke(target, nil)
		if err != nil {
			return nil, StatusExecutionFailure
		}
		return v, StatusNone
	}
	v, err := in.engine.ReadNodeValue(target)
	if err != nil {
		return nil, StatusExecutionFailure
	}
	return v, StatusNone
}

// ObjGetInteger resolves name (evaluating a Method if needed) and reads its
// value as an Integer.
func (in *Interpreter) ObjGetInteger(name string) (uint64, StatusCode) {
	v, status := in.eval(name)
	if status != StatusNone {
		return 0, status
	}
	if value.GetType(v) != value.TypeInteger {
		return 0, StatusTypeMismatch
	}
	return v.Integer(), StatusNone
}

// ObjGetPkg resolves name and returns the i-th element of its Package
// value.
func (in *Interpreter) ObjGetPkg(name string, i int) (*value.Variable, StatusCode) {
	v, status := in.eval(name)
	if status != StatusNone {
		return nil, status
	}
	if value.GetType(v) != value.TypePackage {
		return nil, StatusTypeMismatch
	}
	if i < 0 || i >= v.Len() {
		return nil, StatusOutOfBounds
	}
	return v.Elem(i), StatusNone
}

// ObjGetHandle resolves name and returns the namespace node it names.
func (in *Interpreter) ObjGetHandle(name string) (*ns.Node, StatusCode) {
	target := in.Lookup(name)
	if target == nil {
		return nil, StatusNoSuchNode
	}
	return target, StatusNone
}
