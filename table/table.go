// Package table describes the ACPI table header layout and the immutable
// per-table descriptor ("AML Segment") that method nodes reference so that
// nested invocations see the correct enclosing table.
package table

// HeaderSize is the length in bytes of the standard ACPI table header that
// precedes every table's AML payload.
const HeaderSize = 36

// Header is the common header shared by every ACPI table. Signature,
// length, revision and checksum are the fields the interpreter cares about;
// the OEM/creator fields are carried through for diagnostics only.
//
// Table discovery and checksum verification themselves are host
// responsibilities and are not reproduced here.
type Header struct {
	Signature [4]byte
	Length    uint32
	Revision  uint8
	Checksum  uint8

	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	CreatorID       uint32
	CreatorRevision uint32
}

// Kind identifies the class of table a Segment was parsed from. The
// interpreter treats DSDT/SSDT/PSDT identically once parsed; Kind is kept
// only so diagnostics and the bootstrap order (DSDT, then SSDTs, then
// PSDTs) can be expressed without re-deriving it from the signature string.
type Kind uint8

// The table kinds the core is required to load.
const (
	KindDSDT Kind = iota
	KindSSDT
	KindPSDT
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindDSDT:
		return "DSDT"
	case KindSSDT:
		return "SSDT"
	case KindPSDT:
		return "PSDT"
	default:
		return "unknown"
	}
}

// Segment is an immutable descriptor for one loaded AML table. Method
// nodes store a pointer to the Segment they were defined in (together with
// a byte offset and length) so that a nested invocation resumes decoding
// from the correct table body.
type Segment struct {
	// Handle is a small dense index assigned by the loader in load order.
	// Method nodes hold the *Segment itself, not this index.
	Handle uint8

	Kind Kind

	// Index is the position of this table among tables sharing the same
	// signature (the second argument to the host's Scan callback).
	Index int

	Signature string
	Header    Header

	// AML is the table payload following the standard header — i.e.
	// Header.Length-HeaderSize bytes of bytecode.
	AML []byte
}

// ByteAt returns the byte at the given offset within the segment's AML
// payload and whether the offset was in bounds.
func (s *Segment) ByteAt(offset uint32) (byte, bool) {
	if int(offset) >= len(s.AML) {
		return 0, false
	}
	return s.AML[offset], true
}
