// Package types holds the μNet domain model: nodes, links, and
// locations, with their builders and custom-data helpers.
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/errcode"
)

// Vendor identifies a device manufacturer.
type Vendor string

const (
	VendorCisco   Vendor = "cisco"
	VendorJuniper Vendor = "juniper"
	VendorArista  Vendor = "arista"
	VendorGeneric Vendor = "generic"
	VendorUnknown Vendor = "unknown"
)

// NodeRole identifies a node's function in the network.
type NodeRole string

const (
	NodeRoleRouter       NodeRole = "router"
	NodeRoleSwitch       NodeRole = "switch"
	NodeRoleFirewall     NodeRole = "firewall"
	NodeRoleLoadBalancer NodeRole = "load_balancer"
	NodeRoleAccessPoint  NodeRole = "access_point"
	NodeRoleServer       NodeRole = "server"
	NodeRoleOther        NodeRole = "other"
)

// NodeLifecycle identifies a node's position in its procurement/operations lifecycle.
type NodeLifecycle string

const (
	NodeLifecyclePlanned        NodeLifecycle = "planned"
	NodeLifecycleImplementing   NodeLifecycle = "implementing"
	NodeLifecycleLive           NodeLifecycle = "live"
	NodeLifecycleDecommissioned NodeLifecycle = "decommissioned"
)

// Node is a managed network device.
type Node struct {
	ID             uuid.UUID
	Name           string
	Domain         string
	Vendor         Vendor
	Model          string
	Role           NodeRole
	Lifecycle      NodeLifecycle
	ManagementIP   string
	LocationID     *uuid.UUID
	Platform       string
	Version        string
	Serial         string
	AssetTag       string
	PurchaseDate   *time.Time
	WarrantyExpiry *time.Time
	CustomData     any
}

// FQDN returns the node's fully-qualified name, "name.domain".
func (n *Node) FQDN() string {
	return n.Name + "." + n.Domain
}

// HasManagementIP reports whether the node has a management IP configured.
func (n *Node) HasManagementIP() bool {
	return n.ManagementIP != ""
}

// HasLocation reports whether the node is assigned to a location.
func (n *Node) HasLocation() bool {
	return n.LocationID != nil
}

// Validate checks Node invariants: name non-empty, fqdn derives from
// name and domain, custom data defaults to JSON null.
func (n *Node) Validate() error {
	if n.Name == "" {
		return fieldErr("name", "node name cannot be empty")
	}
	if n.CustomData == nil {
		n.CustomData = nil
	}
	return nil
}

// GetCustomData resolves a dot-path against the node's custom data.
func (n *Node) GetCustomData(path string) (any, bool) {
	return getCustomData(n.CustomData, path)
}

// SetCustomData sets a dot-path value in the node's custom data,
// creating intermediate objects as needed.
func (n *Node) SetCustomData(path string, value any) error {
	updated, err := setCustomData(n.CustomData, path, value)
	if err != nil {
		return err
	}
	n.CustomData = updated
	return nil
}

// NodeBuilder accumulates optional Node fields, validating on Build.
type NodeBuilder struct {
	node Node
	err  error
}

// NewNodeBuilder starts a new Node builder with a generated ID.
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{node: Node{ID: uuid.New(), Lifecycle: NodeLifecyclePlanned}}
}

func (b *NodeBuilder) ID(id uuid.UUID) *NodeBuilder        { b.node.ID = id; return b }
func (b *NodeBuilder) Name(name string) *NodeBuilder       { b.node.Name = name; return b }
func (b *NodeBuilder) Domain(domain string) *NodeBuilder   { b.node.Domain = domain; return b }
func (b *NodeBuilder) Vendor(v Vendor) *NodeBuilder        { b.node.Vendor = v; return b }
func (b *NodeBuilder) Model(model string) *NodeBuilder     { b.node.Model = model; return b }
func (b *NodeBuilder) Role(r NodeRole) *NodeBuilder        { b.node.Role = r; return b }
func (b *NodeBuilder) Lifecycle(l NodeLifecycle) *NodeBuilder {
	b.node.Lifecycle = l
	return b
}
func (b *NodeBuilder) ManagementIP(ip string) *NodeBuilder { b.node.ManagementIP = ip; return b }
func (b *NodeBuilder) LocationID(id uuid.UUID) *NodeBuilder {
	b.node.LocationID = &id
	return b
}
func (b *NodeBuilder) Platform(p string) *NodeBuilder  { b.node.Platform = p; return b }
func (b *NodeBuilder) Version(v string) *NodeBuilder   { b.node.Version = v; return b }
func (b *NodeBuilder) Serial(s string) *NodeBuilder     { b.node.Serial = s; return b }
func (b *NodeBuilder) AssetTag(a string) *NodeBuilder   { b.node.AssetTag = a; return b }
func (b *NodeBuilder) CustomData(v any) *NodeBuilder    { b.node.CustomData = v; return b }

// Build validates required fields and invariants, returning the finished Node.
func (b *NodeBuilder) Build() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	n := b.node
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

func fieldErr(field, msg string) error {
	return errcode.ValidationError{Field: field, Message: msg}
}
