package types

import (
	"strings"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/errcode"
)

// Location is a node in a physical or logical location hierarchy
// (country/building/floor/rack, etc.), addressed by a materialized
// slash-joined path.
type Location struct {
	ID           uuid.UUID
	Name         string
	LocationType string
	ParentID     *uuid.UUID
	Path         string
	Description  string
	Address      string
	CustomData   any
}

// NewRootLocation creates a location with no parent; its path equals its name.
func NewRootLocation(name, locationType string) *Location {
	return &Location{
		ID:           uuid.New(),
		Name:         name,
		LocationType: locationType,
		Path:         name,
	}
}

// NewChildLocation creates a location under parentPath. The caller is
// responsible for setting ParentID once the parent's id is known.
func NewChildLocation(name, locationType, parentPath string) *Location {
	path := name
	if parentPath != "" {
		path = parentPath + "/" + name
	}
	return &Location{
		ID:           uuid.New(),
		Name:         name,
		LocationType: locationType,
		Path:         path,
	}
}

// Validate checks Location invariants per spec.md §3.
func (l *Location) Validate() error {
	if l.Name == "" {
		return errcode.ValidationError{Field: "name", Message: "location name cannot be empty"}
	}
	if l.LocationType == "" {
		return errcode.ValidationError{Field: "location_type", Message: "location type cannot be empty"}
	}
	if l.Path == "" {
		return errcode.ValidationError{Field: "path", Message: "location path cannot be empty"}
	}
	if l.ParentID == nil && l.Path != l.Name {
		return errcode.HierarchyViolationError{Message: "root location path must equal name"}
	}
	if l.ParentID != nil && !strings.HasSuffix(l.Path, "/"+l.Name) {
		return errcode.HierarchyViolationError{Message: "location path must end with location name"}
	}
	return nil
}

// UpdatePath recomputes Path from a (possibly empty) parent path.
func (l *Location) UpdatePath(parentPath string) {
	if parentPath != "" {
		l.Path = parentPath + "/" + l.Name
	} else {
		l.Path = l.Name
	}
}

// Depth returns the hierarchy depth, 0 for a root location.
func (l *Location) Depth() int {
	if l.Path == "" {
		return 0
	}
	return strings.Count(l.Path, "/")
}

// PathComponents splits the materialized path into its segments.
func (l *Location) PathComponents() []string {
	if l.Path == "" {
		return nil
	}
	return strings.Split(l.Path, "/")
}

// IsAncestorOf reports whether l is an ancestor of other by path prefix.
func (l *Location) IsAncestorOf(other *Location) bool {
	if strings.HasPrefix(other.Path, l.Path+"/") {
		return true
	}
	return l.ParentID == nil && other.ParentID != nil && strings.HasPrefix(other.Path, l.Path)
}

// IsDescendantOf reports whether l is a descendant of other.
func (l *Location) IsDescendantOf(other *Location) bool {
	return other.IsAncestorOf(l)
}

// IsChildOf reports whether l's direct parent is other.
func (l *Location) IsChildOf(other *Location) bool {
	return l.ParentID != nil && *l.ParentID == other.ID
}

// IsParentOf reports whether other's direct parent is l.
func (l *Location) IsParentOf(other *Location) bool {
	return other.IsChildOf(l)
}

// GetCustomData resolves a dot-path against the location's custom data.
func (l *Location) GetCustomData(path string) (any, bool) {
	return getCustomData(l.CustomData, path)
}

// SetCustomData sets a dot-path value in the location's custom data.
func (l *Location) SetCustomData(path string, value any) error {
	updated, err := setCustomData(l.CustomData, path, value)
	if err != nil {
		return err
	}
	l.CustomData = updated
	return nil
}

// DetectCircularReference reports whether making potentialParentID the
// parent of childID would introduce a cycle, given the current set of
// locations. This is a prospective check: it does not mutate anything.
func DetectCircularReference(locations []*Location, potentialParentID, childID uuid.UUID) bool {
	if potentialParentID == childID {
		return true
	}
	var parent, child *Location
	for _, loc := range locations {
		if loc.ID == potentialParentID {
			parent = loc
		}
		if loc.ID == childID {
			child = loc
		}
	}
	if parent == nil || child == nil {
		return false
	}
	return child.IsAncestorOf(parent)
}

// Ancestors walks parent links up to the root, using allLocations to
// resolve each parent id.
func (l *Location) Ancestors(allLocations []*Location) []*Location {
	byID := make(map[uuid.UUID]*Location, len(allLocations))
	for _, loc := range allLocations {
		byID[loc.ID] = loc
	}
	var ancestors []*Location
	current := l
	for current.ParentID != nil {
		parent, ok := byID[*current.ParentID]
		if !ok {
			break
		}
		ancestors = append(ancestors, parent)
		current = parent
	}
	return ancestors
}

// Descendants returns every location transitively parented by l.
func (l *Location) Descendants(allLocations []*Location) []*Location {
	var descendants []*Location
	toCheck := []uuid.UUID{l.ID}
	for len(toCheck) > 0 {
		currentID := toCheck[len(toCheck)-1]
		toCheck = toCheck[:len(toCheck)-1]
		for _, loc := range allLocations {
			if loc.ParentID != nil && *loc.ParentID == currentID {
				descendants = append(descendants, loc)
				toCheck = append(toCheck, loc.ID)
			}
		}
	}
	return descendants
}

// Children returns the direct children of l.
func (l *Location) Children(allLocations []*Location) []*Location {
	var children []*Location
	for _, loc := range allLocations {
		if loc.ParentID != nil && *loc.ParentID == l.ID {
			children = append(children, loc)
		}
	}
	return children
}

// LocationBuilder accumulates optional Location fields, validating on Build.
type LocationBuilder struct {
	id           uuid.UUID
	name         string
	locationType string
	parentID     *uuid.UUID
	parentPath   string
	description  string
	address      string
	customData   any
}

// NewLocationBuilder starts a new Location builder with a generated ID.
func NewLocationBuilder() *LocationBuilder {
	return &LocationBuilder{id: uuid.New()}
}

func (b *LocationBuilder) ID(id uuid.UUID) *LocationBuilder { b.id = id; return b }
func (b *LocationBuilder) Name(name string) *LocationBuilder {
	b.name = name
	return b
}
func (b *LocationBuilder) LocationType(t string) *LocationBuilder {
	b.locationType = t
	return b
}
func (b *LocationBuilder) ParentID(id uuid.UUID) *LocationBuilder {
	b.parentID = &id
	return b
}
func (b *LocationBuilder) ParentPath(path string) *LocationBuilder {
	b.parentPath = path
	return b
}
func (b *LocationBuilder) Description(d string) *LocationBuilder {
	b.description = d
	return b
}
func (b *LocationBuilder) Address(a string) *LocationBuilder { b.address = a; return b }
func (b *LocationBuilder) CustomData(v any) *LocationBuilder { b.customData = v; return b }

// Build validates required fields and invariants, returning the finished Location.
func (b *LocationBuilder) Build() (*Location, error) {
	if b.name == "" {
		return nil, errcode.ValidationError{Field: "name", Message: "name is required"}
	}
	if b.locationType == "" {
		return nil, errcode.ValidationError{Field: "location_type", Message: "location type is required"}
	}
	path := b.name
	if b.parentPath != "" {
		path = b.parentPath + "/" + b.name
	}
	loc := &Location{
		ID:           b.id,
		Name:         b.name,
		LocationType: b.locationType,
		ParentID:     b.parentID,
		Path:         path,
		Description:  b.description,
		Address:      b.address,
		CustomData:   b.customData,
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return loc, nil
}
