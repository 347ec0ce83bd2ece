package loader

import (
	"context"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/log"
	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/types"
)

// NodeLister is the slice of storage the orchestrator needs to
// enumerate nodes for a full sweep. pkg/storage.Store satisfies this
// structurally.
type NodeLister interface {
	GetNodesForPolicyEvaluation(ctx context.Context) ([]types.Node, error)
}

// Orchestrator ties a Loader and a policy.Evaluator together, per
// spec.md §4.9: it loads rules (cached) and asks the evaluator to run
// every rule against a node or against every node in storage.
type Orchestrator struct {
	loader *Loader
	eval   *policy.Evaluator
	nodes  NodeLister
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(loader *Loader, eval *policy.Evaluator, nodes NodeLister) *Orchestrator {
	return &Orchestrator{loader: loader, eval: eval, nodes: nodes}
}

// EvaluateNode loads the current rule set (served from cache when
// valid) and evaluates every rule against nodeID.
func (o *Orchestrator) EvaluateNode(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error) {
	result, err := o.loader.LoadPolicies()
	if err != nil {
		return nil, err
	}

	var results []policy.ExecutionResult
	for _, file := range result.Loaded {
		for _, rule := range file.Rules {
			results = append(results, o.eval.Evaluate(ctx, nodeID, rule))
		}
	}
	return results, nil
}

// EvaluateAllNodes enumerates nodes via storage and evaluates each. A
// failure for one node produces a synthetic single-element error
// result rather than aborting the sweep, per spec.md §4.9/§7.
func (o *Orchestrator) EvaluateAllNodes(ctx context.Context) (map[uuid.UUID][]policy.ExecutionResult, error) {
	nodes, err := o.nodes.GetNodesForPolicyEvaluation(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID][]policy.ExecutionResult, len(nodes))
	for _, n := range nodes {
		id := n.ID
		results, err := o.EvaluateNode(ctx, id)
		if err != nil {
			log.WithNodeID(id.String()).Error().Err(err).Msg("policy evaluation failed for node")
			out[id] = []policy.ExecutionResult{{
				RuleRef: "",
				Verdict: policy.Verdict{ErrorMessage: err.Error()},
			}}
			continue
		}
		out[id] = results
	}
	return out, nil
}
