// Package storage defines the backend-agnostic contract for node,
// link, and location persistence: filter/sort/paginate queries, batch
// operations, and transaction control. Concrete backends live in
// pkg/storage/tabular and pkg/storage/relational.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/types"
)

// Store is the main storage contract. Implementations translate
// backend-native errors into the pkg/errcode taxonomy at the boundary;
// no backend-specific error type leaks through this interface.
type Store interface {
	// Name returns the backend's identifying name ("tabular", "relational").
	Name() string

	// HealthCheck reports whether the backend can currently serve requests.
	HealthCheck(ctx context.Context) error

	// BeginTransaction starts a new transaction. The returned handle's
	// two terminal operations are Commit and Rollback.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Nodes
	CreateNode(ctx context.Context, node *types.Node) (*types.Node, error)
	GetNode(ctx context.Context, id uuid.UUID) (*types.Node, error)
	GetNodeRequired(ctx context.Context, id uuid.UUID) (*types.Node, error)
	ListNodes(ctx context.Context, opts QueryOptions) (PagedResult[types.Node], error)
	UpdateNode(ctx context.Context, node *types.Node) (*types.Node, error)
	DeleteNode(ctx context.Context, id uuid.UUID) error
	GetNodesByLocation(ctx context.Context, locationID uuid.UUID) ([]types.Node, error)
	SearchNodesByName(ctx context.Context, name string) ([]types.Node, error)

	// Links
	CreateLink(ctx context.Context, link *types.Link) (*types.Link, error)
	GetLink(ctx context.Context, id uuid.UUID) (*types.Link, error)
	GetLinkRequired(ctx context.Context, id uuid.UUID) (*types.Link, error)
	ListLinks(ctx context.Context, opts QueryOptions) (PagedResult[types.Link], error)
	UpdateLink(ctx context.Context, link *types.Link) (*types.Link, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
	GetLinksForNode(ctx context.Context, nodeID uuid.UUID) ([]types.Link, error)
	GetLinksBetweenNodes(ctx context.Context, a, b uuid.UUID) ([]types.Link, error)

	// Locations
	CreateLocation(ctx context.Context, location *types.Location) (*types.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*types.Location, error)
	GetLocationRequired(ctx context.Context, id uuid.UUID) (*types.Location, error)
	ListLocations(ctx context.Context, opts QueryOptions) (PagedResult[types.Location], error)
	UpdateLocation(ctx context.Context, location *types.Location) (*types.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error

	// Batch operations
	BatchNodes(ctx context.Context, ops []BatchOperation[types.Node]) (BatchResult, error)
	BatchLinks(ctx context.Context, ops []BatchOperation[types.Link]) (BatchResult, error)
	BatchLocations(ctx context.Context, ops []BatchOperation[types.Location]) (BatchResult, error)

	// Statistics
	GetEntityCounts(ctx context.Context) (map[string]int, error)
	GetStatistics(ctx context.Context) (map[string]any, error)

	// Derived state (C10 hook). Default-empty unless overridden.
	GetNodeStatus(ctx context.Context, nodeID uuid.UUID) (*derived.NodeStatus, error)
	GetNodeInterfaces(ctx context.Context, nodeID uuid.UUID) ([]derived.InterfaceStatus, error)
	GetNodeMetrics(ctx context.Context, nodeID uuid.UUID) (*derived.PerformanceMetrics, error)
	GetSystemInfo(ctx context.Context, nodeID uuid.UUID) (*derived.SystemInfo, error)
	PutSystemInfo(ctx context.Context, nodeID uuid.UUID, info *derived.SystemInfo) error
	PutInterfaceMetrics(ctx context.Context, nodeID uuid.UUID, metrics []derived.InterfaceMetrics) error

	// Policy-related operations
	StorePolicyResult(ctx context.Context, nodeID uuid.UUID, ruleID string, result *policy.ExecutionResult) error
	GetPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error)
	GetLatestPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error)
	GetRuleResults(ctx context.Context, ruleID string) ([]NodeResult, error)
	// GetNodeAsContext, UpdateNodeCustomData and UpdateNodeField together
	// satisfy pkg/policy.NodeStore structurally, letting the policy
	// evaluator mutate nodes without pkg/policy importing pkg/storage.
	GetNodeAsContext(ctx context.Context, nodeID uuid.UUID) (map[string]any, error)
	UpdateNodeCustomData(ctx context.Context, nodeID uuid.UUID, customData any) error
	UpdateNodeField(ctx context.Context, nodeID uuid.UUID, field string, value any) error
	GetNodesForPolicyEvaluation(ctx context.Context) ([]types.Node, error)

	// RecordChange appends a configuration-change audit row. Backends
	// without change-tracking storage (e.g. the tabular backend) may
	// no-op. ChangeRecord and TemplateUsage live in pkg/policy (the
	// action executor that produces them) to avoid an import cycle,
	// since this package already imports pkg/policy for ExecutionResult.
	RecordChange(ctx context.Context, change policy.ChangeRecord) error
	// RecordTemplateUsage appends a template_usage row. Backends
	// without a template schema may no-op.
	RecordTemplateUsage(ctx context.Context, usage policy.TemplateUsage) error

	Close() error
}

// NodeResult pairs a node id with a policy execution result, used by
// GetRuleResults to report outcomes for a single rule across nodes.
type NodeResult struct {
	NodeID uuid.UUID
	Result policy.ExecutionResult
}

// NotFound is a convenience wrapper matching the *Required method
// convention: it returns errcode.NotFoundError unless got is non-nil.
func NotFound[T any](entityType string, id string, got *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, errcode.NotFoundError{EntityType: entityType, ID: id}
	}
	return got, nil
}
