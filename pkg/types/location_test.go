package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLocationBuilder_Root(t *testing.T) {
	loc, err := NewLocationBuilder().Name("USA").LocationType("country").Build()
	require.NoError(t, err)
	require.Equal(t, "USA", loc.Path)
	require.Equal(t, 0, loc.Depth())
}

func TestLocationBuilder_Child(t *testing.T) {
	loc, err := NewLocationBuilder().
		Name("Building A").
		LocationType("building").
		ParentPath("USA/California").
		Build()
	require.NoError(t, err)
	require.Equal(t, "USA/California/Building A", loc.Path)
	require.Equal(t, 2, loc.Depth())
}

func TestLocationHierarchyHelpers(t *testing.T) {
	root := NewRootLocation("USA", "country")
	child := NewChildLocation("California", "state", root.Path)
	child.ParentID = &root.ID

	require.True(t, root.IsAncestorOf(child))
	require.True(t, child.IsDescendantOf(root))
	require.True(t, child.IsChildOf(root))
	require.True(t, root.IsParentOf(child))
}

func TestDetectCircularReference(t *testing.T) {
	root := NewRootLocation("USA", "country")
	child := NewChildLocation("California", "state", root.Path)
	child.ParentID = &root.ID

	all := []*Location{root, child}

	require.True(t, DetectCircularReference(all, child.ID, root.ID))
	require.False(t, DetectCircularReference(all, root.ID, child.ID))
}

func TestLocationAncestorsDescendantsChildren(t *testing.T) {
	root := NewRootLocation("USA", "country")
	state := NewChildLocation("California", "state", root.Path)
	state.ParentID = &root.ID
	city := NewChildLocation("San Francisco", "city", state.Path)
	city.ParentID = &state.ID

	all := []*Location{root, state, city}

	ancestors := city.Ancestors(all)
	require.Len(t, ancestors, 2)

	descendants := root.Descendants(all)
	require.Len(t, descendants, 2)

	children := root.Children(all)
	require.Len(t, children, 1)
	require.Equal(t, state.ID, children[0].ID)
}

func TestLocationValidateRootPathMismatch(t *testing.T) {
	loc := &Location{ID: uuid.New(), Name: "USA", LocationType: "country", Path: "Wrong"}
	err := loc.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "root location path must equal name")
}
