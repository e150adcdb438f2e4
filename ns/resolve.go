package ns

import "strings"

// ParsedName is a decoded AML name: an absolute flag, a parent-climb
// count, and a segment list. Whether the name is a bare single segment
// (which triggers the ACPI search rules: climb toward the root one scope
// at a time until some enclosing scope defines it) is derived from these
// by SearchScopes.
// Parsing (turning the three forms — absolute \FOO, relative ^FOO, bare
// FOO — into this struct) happens once in the AML decoder; resolution
// against it, here, can happen many times for the same parsed name.
type ParsedName struct {
	Absolute    bool
	ParentClimb int
	Segments    []string
}

// SearchScopes reports whether this name is a single, unanchored segment
// and therefore subject to the ACPI search rules (ascend to an enclosing
// scope that defines it) rather than literal descent.
func (p ParsedName) SearchScopes() bool {
	return !p.Absolute && p.ParentClimb == 0 && len(p.Segments) == 1
}

// ParseName decodes a namestring already split from its AML encoding into
// textual segments (the parser is responsible for turning raw bytes into
// this form; see parser.Reader.ReadName).
func ParseName(raw string) ParsedName {
	p := ParsedName{}
	rest := raw
	if strings.HasPrefix(rest, `\`) {
		p.Absolute = true
		rest = rest[1:]
	} else {
		for strings.HasPrefix(rest, "^") {
			p.ParentClimb++
			rest = rest[1:]
		}
	}
	if rest != "" {
		p.Segments = strings.Split(rest, ".")
	}
	return p
}

// Resolve looks up p starting from context, applying the search-scope and
// absolute/parent-climb rules described on ParsedName.
func Resolve(root, context *Node, p ParsedName) *Node {
	if p.SearchScopes() {
		seg := p.Segments[0]
		for cur := context; cur != nil; cur = cur.Parent() {
			if child := cur.childNamed(seg); child != nil {
				return child
			}
		}
		return nil
	}

	cur := context
	if p.Absolute {
		cur = root
	}
	for i := 0; i < p.ParentClimb; i++ {
		if cur == nil {
			return nil
		}
		cur = cur.Parent()
	}
	for _, seg := range p.Segments {
		if cur == nil {
			return nil
		}
		cur = cur.childNamed(seg)
	}
	return cur
}

// CreateNamed performs the same climb/descent as Resolve, but missing
// intermediate segments are *not* created — only the final segment is
// newly created; intermediate segments must already exist. It returns the
// parent the new node should be appended under, and the final segment
// name, or (nil, "") if an intermediate segment is missing.
func CreateNamed(root, context *Node, p ParsedName) (parent *Node, lastSegment string) {
	if len(p.Segments) == 0 {
		return nil, ""
	}

	cur := context
	if p.Absolute {
		cur = root
	}
	for i := 0; i < p.ParentClimb; i++ {
		if cur == nil {
			return nil, ""
		}
		cur = cur.Parent()
	}
	for _, seg := range p.Segments[:len(p.Segments)-1] {
		if cur == nil {
			return nil, ""
		}
		cur = cur.childNamed(seg)
	}
	if cur == nil {
		return nil, ""
	}
	return cur, p.Segments[len(p.Segments)-1]
}
