package vm

import (
	"amlvm/ns"
	"amlvm/table"
	"amlvm/value"
)

// Option configures one of the three overridable predefined methods before
// Bootstrap installs them with a host-supplied implementation.
type Option func(*bootOpts)

type bootOpts struct {
	osi func([]*value.Variable) (*value.Variable, error)
	os  func([]*value.Variable) (*value.Variable, error)
	rev func([]*value.Variable) (*value.Variable, error)
}

// WithOSI overrides \_OSI's default Windows-version recognition.
func WithOSI(fn func(args []*value.Variable) (*value.Variable, error)) Option {
	return func(o *bootOpts) { o.osi = fn }
}

// WithOS overrides \_OS's default emulated-OS string.
func WithOS(fn func(args []*value.Variable) (*value.Variable, error)) Option {
	return func(o *bootOpts) { o.os = fn }
}

// WithRev overrides \_REV's default ACPI revision.
func WithRev(fn func(args []*value.Variable) (*value.Variable, error)) Option {
	return func(o *bootOpts) { o.rev = fn }
}

// supportedOSIStrings are the version tokens recognized as a modern
// Windows; _OSI returns Ones for any of them so firmware unlocks the AML
// feature paths it otherwise gates behind a Windows check.
var supportedOSIStrings = []string{
	"Windows 2000", "Windows 2001", "Windows 2001 SP1", "Windows 2001.1",
	"Windows 2006", "Windows 2006.1", "Windows 2006 SP1", "Windows 2006 SP2",
	"Windows 2009", "Windows 2012", "Windows 2013", "Windows 2015",
}

func defaultOSI(args []*value.Variable) (*value.Variable, error) {
	if len(args) == 0 {
		return value.NewInteger(0), nil
	}
	s := args[0].StringVal()
	for _, w := range supportedOSIStrings {
		if s == w {
			return value.NewInteger(^uint64(0)), nil
		}
	}
	return value.NewInteger(0), nil
}

func defaultOS([]*value.Variable) (*value.Variable, error) {
	return value.NewStringFromGo("Microsoft Windows NT"), nil
}

func defaultRev([]*value.Variable) (*value.Variable, error) {
	return value.NewInteger(2), nil
}

// Bootstrap creates the root node `\`, its five predefined device-typed
// children, and the three overridable OS-identification methods.
func Bootstrap(opts ...Option) *ns.Node {
	cfg := &bootOpts{osi: defaultOSI, os: defaultOS, rev: defaultRev}
	for _, opt := range opts {
		opt(cfg)
	}

	root := ns.NewRoot()
	for _, name := range []string{"_SB_", "_SI_", "_GPE", "_PR_", "_TZ_"} {
		ns.Append(root, ns.NewDevice(name))
	}
	ns.Append(root, ns.NewOverrideMethod("_OSI", 1, cfg.osi))
	ns.Append(root, ns.NewOverrideMethod("_OS_", 0, cfg.os))
	ns.Append(root, ns.NewOverrideMethod("_REV", 0, cfg.rev))
	return root
}

// loadSegment wraps one Scan'd table as a Segment, assigning it the next
// dense handle.
func (e *Engine) loadSegment(kind table.Kind, hdr *table.Header, index int, aml []byte) *table.Segment {
	seg := &table.Segment{
		Handle:    e.nextSegHandle,
		Kind:      kind,
		Index:     index,
		Signature: string(hdr.Signature[:]),
		Header:    *hdr,
		AML:       aml,
	}
	e.nextSegHandle++
	return seg
}

// Populate runs seg's top-level TermList against the root context.
func (e *Engine) Populate(seg *table.Segment) error {
	e.pushContext(ContextFrame{Segment: seg, ContextNode: e.Root})
	e.pushBlock(BlockFrame{PC: 0, Limit: uint32(len(seg.AML))})
	e.pushItem(Item{Kind: ItemPopulate})
	return e.Run()
}

// LoadAndPopulate scans and populates the DSDT, then every SSDT in
// signature order, then every PSDT.
func (e *Engine) LoadAndPopulate() error {
	if err := e.loadKindOnce("DSDT", table.KindDSDT); err != nil {
		return err
	}
	if err := e.loadKindAll("SSDT", table.KindSSDT); err != nil {
		return err
	}
	return e.loadKindAll("PSDT", table.KindPSDT)
}

func (e *Engine) loadKindOnce(signature string, kind table.Kind) error {
	hdr := e.Host.Scan(signature, 0)
	if hdr == nil {
		return nil
	}
	seg := e.loadSegment(kind, hdr, 0, e.Host.TablePayload(hdr))
	return e.Populate(seg)
}

func (e *Engine) loadKindAll(signature string, kind table.Kind) error {
	for i := 0; ; i++ {
		hdr := e.Host.Scan(signature, i)
		if hdr == nil {
			return nil
		}
		seg := e.loadSegment(kind, hdr, i, e.Host.TablePayload(hdr))
		if err := e.Populate(seg); err != nil {
			return err
		}
	}
}
