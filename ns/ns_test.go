package ns

import (
	"testing"

	"amlvm/value"

	"github.com/stretchr/testify/assert"
)

func TestParseNameForms(t *testing.T) {
	cases := []struct {
		raw  string
		want ParsedName
	}{
		{`\FOO_`, ParsedName{Absolute: true, Segments: []string{"FOO_"}}},
		{`^^BAR_`, ParsedName{ParentClimb: 2, Segments: []string{"BAR_"}}},
		{"BAZ_", ParsedName{Segments: []string{"BAZ_"}}},
		{"FOO_.BAR_", ParsedName{Segments: []string{"FOO_", "BAR_"}}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseName(c.raw), c.raw)
	}
}

func TestSearchScopesOnlyForBareSingleSegment(t *testing.T) {
	assert.True(t, ParseName("FOO_").SearchScopes())
	assert.False(t, ParseName(`\FOO_`).SearchScopes())
	assert.False(t, ParseName("^FOO_").SearchScopes())
	assert.False(t, ParseName("FOO_.BAR_").SearchScopes())
}

func buildTree() (root, sb, dev *Node) {
	root = NewRoot()
	sb = NewDevice("_SB_")
	Append(root, sb)
	dev = NewDevice("DEV0")
	Append(sb, dev)
	return
}

func TestResolveAbsoluteAndRelative(t *testing.T) {
	root, sb, dev := buildTree()

	assert.Same(t, sb, Resolve(root, root, ParseName(`\_SB_`)))
	assert.Same(t, dev, Resolve(root, root, ParseName(`\_SB_.DEV0`)))
	assert.Same(t, root, Resolve(root, dev, ParseName("^^")))
	assert.Same(t, sb, Resolve(root, dev, ParseName("^")))
}

func TestResolveSearchScopedClimbsToDefiningScope(t *testing.T) {
	root, sb, dev := buildTree()
	name := NewName("FOO_", value.NewInteger(1))
	Append(sb, name)

	// A bare search-scoped name climbs from dev up through sb to find FOO_.
	assert.Same(t, name, Resolve(root, dev, ParseName("FOO_")))
}

func TestResolveMissingSegmentReturnsNil(t *testing.T) {
	root, _, dev := buildTree()
	assert.Nil(t, Resolve(root, dev, ParseName("NOPE")))
}

func TestAppendRejectsDuplicateNames(t *testing.T) {
	root := NewRoot()
	assert.True(t, Append(root, NewDevice("DEV0")))
	assert.False(t, Append(root, NewDevice("DEV0")))
}

func TestCreateNamedResolvesParentAndLastSegment(t *testing.T) {
	root, sb, _ := buildTree()
	parent, last := CreateNamed(root, root, ParseName(`\_SB_.FOO_`))
	assert.Same(t, sb, parent)
	assert.Equal(t, "FOO_", last)
}

func TestCreateNamedMissingIntermediateSegment(t *testing.T) {
	root := NewRoot()
	parent, last := CreateNamed(root, root, ParseName(`\NOPE.FOO_`))
	assert.Nil(t, parent)
	assert.Equal(t, "", last)
}

func TestSetNamePadsShortSegments(t *testing.T) {
	n := NewDevice("A")
	assert.Equal(t, "A___", n.Name())
}

func TestAliasResolvesPublicTypeThroughTarget(t *testing.T) {
	root := NewRoot()
	target := NewName("FOO_", value.NewInteger(1))
	Append(root, target)
	alias := NewAlias("BAR_", target)
	Append(root, alias)

	assert.Equal(t, value.TypeInteger, alias.PublicType())
}

func TestRemoveDetachesChild(t *testing.T) {
	root := NewRoot()
	child := NewDevice("DEV0")
	Append(root, child)
	assert.Len(t, root.Children(), 1)

	root.Remove(child)
	assert.Len(t, root.Children(), 0)
}
