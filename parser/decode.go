package parser

import "amlvm/errs"

var (
	errTruncatedPkgLen = &errs.Error{Module: "aml_parser", Message: "package length truncated at end of block"}
	errPkgLenOverrun   = &errs.Error{Module: "aml_parser", Message: "package length overruns enclosing block"}
	errUnterminatedStr = &errs.Error{Module: "aml_parser", Message: "string literal not terminated before block end"}
	errUnknownOpcode   = &errs.Error{Module: "aml_parser", Message: "unknown opcode in executable position"}
	errDanglingExtPrefix = &errs.Error{Module: "aml_parser", Message: "extension prefix at end of block"}
)

// ReadOpcode decodes the next single- or extension-prefixed opcode,
// matching opcode_table.go's extOpPrefix handling.
func (r *Reader) ReadOpcode() (Opcode, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != ExtOpPrefix {
		return Opcode(b), nil
	}
	if r.EOF() {
		return 0, errDanglingExtPrefix
	}
	ext, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return Opcode(0x100) + Opcode(ext), nil
}

// ReadPkgLength decodes a PkgLength element: the top two
// bits of the first byte give the number of bytes that follow it (0-3).
// A one-byte encoding's value is the low six bits of byte 0; otherwise
// the low four bits of byte 0 plus the following bytes' full 8 bits each
// form a little-endian unsigned value. It returns the decoded length (which
// includes the bytes of the PkgLength encoding itself, per the AML
// grammar) and the absolute end offset it implies within the reader's
// current pkgEnd.
func (r *Reader) ReadPkgLength() (length uint32, end uint32, err error) {
	lead, err := r.ReadByte()
	if err != nil {
		return 0, 0, errTruncatedPkgLen
	}
	extra := int(lead >> 6)
	length = uint32(lead & 0x3f)
	if extra > 0 {
		length = uint32(lead & 0x0f)
	}
	for i := 0; i < extra; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, errTruncatedPkgLen
		}
		length |= uint32(b) << (4 + 8*uint(i))
	}

	start := r.Offset() - uint32(1+extra)
	end = start + length
	if end > r.pkgEnd {
		return 0, 0, errPkgLenOverrun
	}
	return length, end, nil
}

// ReadVarint decodes one PkgLength-style variable-width unsigned integer
// without treating the result as a byte-range end offset: NamedField and
// ReservedField bit counts reuse PkgLength's byte encoding to store a
// plain integer, not a span to bound further reads against pkgEnd.
func (r *Reader) ReadVarint() (uint32, error) {
	lead, err := r.ReadByte()
	if err != nil {
		return 0, errTruncatedPkgLen
	}
	extra := int(lead >> 6)
	v := uint32(lead & 0x3f)
	if extra > 0 {
		v = uint32(lead & 0x0f)
	}
	for i := 0; i < extra; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errTruncatedPkgLen
		}
		v |= uint32(b) << (4 + 8*uint(i))
	}
	return v, nil
}

// ReadInteger decodes an integer literal given its prefix opcode (Byte,
// Word, Dword or Qword prefix).
func (r *Reader) ReadInteger(prefix Opcode) (uint64, error) {
	var n int
	switch prefix {
	case OpBytePrefix:
		n = 1
	case OpWordPrefix:
		n = 2
	case OpDwordPrefix:
		n = 4
	case OpQwordPrefix:
		n = 8
	default:
		return 0, errUnknownOpcode
	}
	var v uint64
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errTruncatedPkgLen
		}
		v |= uint64(b) << (8 * uint(i))
	}
	return v, nil
}

// ReadString decodes a null-terminated ASCII string following the
// StringPrefix opcode.
func (r *Reader) ReadString() (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", errUnterminatedStr
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// isLeadNameChar reports whether b can start a NameString element.
func isLeadNameChar(b byte) bool {
	switch {
	case b == '\\' || b == '^':
		return true
	case b == 0x2e || b == 0x2f: // DualNamePrefix, MultiNamePrefix
		return true
	case b == '_' || (b >= 'A' && b <= 'Z'):
		return true
	case b == 0x00: // NullName
		return true
	}
	return false
}

// IsNameStart reports whether the next unread byte begins a NameString.
func (r *Reader) IsNameStart() (bool, error) {
	b, err := r.PeekByte()
	if err != nil {
		return false, err
	}
	return isLeadNameChar(b), nil
}

// ReadName decodes one NameString element: a run of
// `\` then `^` prefixes followed by zero or more 4-character segments,
// the segment count determined by a DualNamePrefix (0x2E, exactly 2),
// MultiNamePrefix (0x2F followed by a count byte), or implicit single
// segment / NullName (0x00).
func (r *Reader) ReadName() (string, error) {
	var out []byte

	for {
		b, err := r.PeekByte()
		if err != nil {
			return "", err
		}
		if b != '\\' && b != '^' {
			break
		}
		r.ReadByte()
		out = append(out, b)
	}

	b, err := r.ReadByte()
	if err != nil {
		return string(out), nil
	}

	switch b {
	case 0x00: // NullName
		return string(out), nil
	case 0x2e: // DualNamePrefix
		for i := 0; i < 2; i++ {
			if i > 0 {
				out = append(out, '.')
			}
			seg := make([]byte, 4)
			for j := 0; j < 4; j++ {
				c, err := r.ReadByte()
				if err != nil {
					return "", errTruncatedPkgLen
				}
				seg[j] = c
			}
			out = append(out, seg...)
		}
		return string(out), nil
	case 0x2f: // MultiNamePrefix
		count, err := r.ReadByte()
		if err != nil {
			return "", errTruncatedPkgLen
		}
		for i := 0; i < int(count); i++ {
			if i > 0 {
				out = append(out, '.')
			}
			seg := make([]byte, 4)
			for j := 0; j < 4; j++ {
				c, err := r.ReadByte()
				if err != nil {
					return "", errTruncatedPkgLen
				}
				seg[j] = c
			}
			out = append(out, seg...)
		}
		return string(out), nil
	default:
		// A single bare 4-char segment: b is its first character.
		seg := make([]byte, 4)
		seg[0] = b
		for i := 1; i < 4; i++ {
			c, err := r.ReadByte()
			if err != nil {
				return "", errTruncatedPkgLen
			}
			seg[i] = c
		}
		out = append(out, seg...)
		return string(out), nil
	}
}
