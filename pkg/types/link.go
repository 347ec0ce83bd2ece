package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/errcode"
)

var interfaceNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9/.:_-]*$`)

func isValidInterfaceName(name string) bool {
	return name != "" && interfaceNamePattern.MatchString(name)
}

// Link connects two nodes (or one node to the outside world, for an
// internet circuit) via named interfaces.
type Link struct {
	ID                uuid.UUID
	Name              string
	SourceNodeID      uuid.UUID
	NodeAInterface    string
	DestNodeID        *uuid.UUID
	NodeZInterface    *string
	Description       string
	BandwidthBps       *uint64
	LinkType          string
	IsInternetCircuit bool
	CustomData        any
}

// Validate checks Link invariants per spec.md §3.
func (l *Link) Validate() error {
	if l.Name == "" {
		return errcode.ValidationError{Field: "name", Message: "link name cannot be empty"}
	}
	if l.NodeAInterface == "" {
		return errcode.ValidationError{Field: "node_a_interface", Message: "node A interface cannot be empty"}
	}
	if !isValidInterfaceName(l.NodeAInterface) {
		return errcode.ValidationError{Field: "node_a_interface", Message: "node A interface has invalid format"}
	}

	if l.IsInternetCircuit {
		if l.DestNodeID != nil {
			return errcode.ValidationError{Field: "dest_node_id", Message: "internet circuits cannot have node Z"}
		}
		if l.NodeZInterface != nil {
			return errcode.ValidationError{Field: "node_z_interface", Message: "internet circuits cannot have node Z interface"}
		}
		return nil
	}

	if l.DestNodeID == nil {
		return errcode.ValidationError{Field: "dest_node_id", Message: "regular links must have node Z"}
	}
	if l.NodeZInterface == nil || *l.NodeZInterface == "" {
		return errcode.ValidationError{Field: "node_z_interface", Message: "regular links must have node Z interface"}
	}
	if !isValidInterfaceName(*l.NodeZInterface) {
		return errcode.ValidationError{Field: "node_z_interface", Message: "node Z interface has invalid format"}
	}
	if l.SourceNodeID == *l.DestNodeID {
		return errcode.SelfLinkError{NodeID: l.SourceNodeID.String()}
	}
	return nil
}

// GetOtherNodeID returns the id of the node on the far end from nodeID,
// or nil if nodeID is not one of the link's endpoints or this is an
// internet circuit.
func (l *Link) GetOtherNodeID(nodeID uuid.UUID) *uuid.UUID {
	switch {
	case l.SourceNodeID == nodeID:
		return l.DestNodeID
	case l.DestNodeID != nil && *l.DestNodeID == nodeID:
		return &l.SourceNodeID
	default:
		return nil
	}
}

// GetInterfaceForNode returns the interface name used on nodeID's side
// of the link.
func (l *Link) GetInterfaceForNode(nodeID uuid.UUID) (string, bool) {
	switch {
	case l.SourceNodeID == nodeID:
		return l.NodeAInterface, true
	case l.DestNodeID != nil && *l.DestNodeID == nodeID && l.NodeZInterface != nil:
		return *l.NodeZInterface, true
	default:
		return "", false
	}
}

// ConnectsNodes reports whether the link connects exactly a and b.
func (l *Link) ConnectsNodes(a, b uuid.UUID) bool {
	if l.DestNodeID == nil {
		return false
	}
	return (l.SourceNodeID == a && *l.DestNodeID == b) || (l.SourceNodeID == b && *l.DestNodeID == a)
}

// InvolvesNode reports whether the link has nodeID as an endpoint.
func (l *Link) InvolvesNode(nodeID uuid.UUID) bool {
	return l.SourceNodeID == nodeID || (l.DestNodeID != nil && *l.DestNodeID == nodeID)
}

// GetCustomData resolves a dot-path against the link's custom data.
func (l *Link) GetCustomData(path string) (any, bool) {
	return getCustomData(l.CustomData, path)
}

// SetCustomData sets a dot-path value in the link's custom data.
func (l *Link) SetCustomData(path string, value any) error {
	updated, err := setCustomData(l.CustomData, path, value)
	if err != nil {
		return err
	}
	l.CustomData = updated
	return nil
}

// LinkBuilder accumulates optional Link fields, validating on Build.
type LinkBuilder struct {
	link Link
}

// NewLinkBuilder starts a new Link builder with a generated ID.
func NewLinkBuilder() *LinkBuilder {
	return &LinkBuilder{link: Link{ID: uuid.New()}}
}

func (b *LinkBuilder) ID(id uuid.UUID) *LinkBuilder             { b.link.ID = id; return b }
func (b *LinkBuilder) Name(name string) *LinkBuilder            { b.link.Name = name; return b }
func (b *LinkBuilder) SourceNodeID(id uuid.UUID) *LinkBuilder    { b.link.SourceNodeID = id; return b }
func (b *LinkBuilder) NodeAInterface(i string) *LinkBuilder      { b.link.NodeAInterface = i; return b }
func (b *LinkBuilder) DestNodeID(id uuid.UUID) *LinkBuilder      { b.link.DestNodeID = &id; return b }
func (b *LinkBuilder) NodeZInterface(i string) *LinkBuilder      { b.link.NodeZInterface = &i; return b }
func (b *LinkBuilder) Description(d string) *LinkBuilder         { b.link.Description = d; return b }
func (b *LinkBuilder) BandwidthBps(bw uint64) *LinkBuilder        { b.link.BandwidthBps = &bw; return b }
func (b *LinkBuilder) LinkType(t string) *LinkBuilder            { b.link.LinkType = t; return b }
func (b *LinkBuilder) InternetCircuit() *LinkBuilder {
	b.link.IsInternetCircuit = true
	return b
}
func (b *LinkBuilder) CustomData(v any) *LinkBuilder { b.link.CustomData = v; return b }

// Build validates required fields and invariants, returning the finished Link.
func (b *LinkBuilder) Build() (*Link, error) {
	if b.link.Name == "" {
		return nil, errcode.ValidationError{Field: "name", Message: "name is required"}
	}
	if b.link.NodeAInterface == "" {
		return nil, errcode.ValidationError{Field: "node_a_interface", Message: "node A interface is required"}
	}
	l := b.link
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
