package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/errcode"
)

// NodeStore is the narrow slice of storage operations the evaluator
// needs to execute mutating actions. Any pkg/storage.Store
// implementation satisfies this structurally; the evaluator never
// imports pkg/storage, so there is no import cycle between the
// storage and policy packages.
type NodeStore interface {
	GetNodeAsContext(ctx context.Context, nodeID uuid.UUID) (map[string]any, error)
	UpdateNodeCustomData(ctx context.Context, nodeID uuid.UUID, customData any) error
	UpdateNodeField(ctx context.Context, nodeID uuid.UUID, field string, value any) error
	// RecordChange appends a configuration-change audit row. Backends
	// without change-tracking storage may no-op.
	RecordChange(ctx context.Context, change ChangeRecord) error
	// RecordTemplateUsage appends a template_usage row. Backends
	// without a template schema may no-op.
	RecordTemplateUsage(ctx context.Context, usage TemplateUsage) error
}

// ChangeRecord is one row destined for configuration_changes,
// produced by the action executor after a successful mutating action.
type ChangeRecord struct {
	ChangeType  string // "set" | "apply_template"
	EntityType  string
	EntityID    string
	Description string
	OldValue    string
	NewValue    string
}

// TemplateUsage is one row destined for template_usage, produced after
// an ApplyTemplate action.
type TemplateUsage struct {
	TemplatePath string
	NodeID       string
	Operation    string // "apply"
	Status       string // "success" | "error"
	ErrorMessage string
}

// Evaluator evaluates policy rules against a node's context and
// executes their actions.
type Evaluator struct {
	store NodeStore
}

// NewEvaluator creates an Evaluator bound to store.
func NewEvaluator(store NodeStore) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate runs a single rule against context and returns its result.
// Condition-evaluation errors and action errors both become an Error
// verdict/outcome rather than a Go error return, per spec.md §4.8/§7:
// a single rule's failure must never abort a sweep.
func (e *Evaluator) Evaluate(ctx context.Context, nodeID uuid.UUID, rule *Rule) ExecutionResult {
	satisfied, err := e.evalCondition(&rule.Condition, rootContext(ctx, e, nodeID))
	if err != nil {
		return ExecutionResult{RuleRef: rule.ID, Verdict: Verdict{ErrorMessage: err.Error()}}
	}
	if !satisfied {
		return ExecutionResult{RuleRef: rule.ID, Verdict: Verdict{Satisfied: false}}
	}

	outcome, err := e.executeAction(ctx, nodeID, &rule.Action)
	if err != nil {
		return ExecutionResult{
			RuleRef: rule.ID,
			Verdict: Verdict{Satisfied: true},
			Action:  &ActionOutcome{Success: false, Message: err.Error()},
		}
	}
	return ExecutionResult{RuleRef: rule.ID, Verdict: Verdict{Satisfied: true}, Action: outcome}
}

// evalContext lazily loads and caches a node's JSON context for the
// duration of a single Evaluate call.
type evalContext struct {
	ctx    context.Context
	eval   *Evaluator
	nodeID uuid.UUID
	doc    map[string]any
	loaded bool
}

func rootContext(ctx context.Context, e *Evaluator, nodeID uuid.UUID) *evalContext {
	return &evalContext{ctx: ctx, eval: e, nodeID: nodeID}
}

func (c *evalContext) document() (map[string]any, error) {
	if c.loaded {
		return c.doc, nil
	}
	doc, err := c.eval.store.GetNodeAsContext(c.ctx, c.nodeID)
	if err != nil {
		return nil, err
	}
	c.doc = doc
	c.loaded = true
	return doc, nil
}

func (c *evalContext) resolve(field string) (any, bool, error) {
	doc, err := c.document()
	if err != nil {
		return nil, false, err
	}
	var current any = doc
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		current, ok = obj[part]
		if !ok {
			return nil, false, nil
		}
	}
	return current, true, nil
}

func (e *Evaluator) evalCondition(c *Condition, ctx *evalContext) (bool, error) {
	switch c.Kind {
	case CondAnd:
		left, err := e.evalCondition(c.Left, ctx)
		if err != nil || !left {
			return false, err
		}
		return e.evalCondition(c.Right, ctx)
	case CondOr:
		left, err := e.evalCondition(c.Left, ctx)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return e.evalCondition(c.Right, ctx)
	case CondNot:
		operand, err := e.evalCondition(c.Operand, ctx)
		if err != nil {
			return false, err
		}
		return !operand, nil
	case CondExistence:
		_, present, err := ctx.resolve(c.Field)
		if err != nil {
			return false, err
		}
		absent := !present
		return absent == c.IsNull, nil
	case CondComparison:
		return e.evalComparison(c, ctx)
	default:
		return false, errcode.EvaluationError{Message: "unknown condition kind"}
	}
}

func (e *Evaluator) evalComparison(c *Condition, ctx *evalContext) (bool, error) {
	left, present, err := ctx.resolve(c.Field)
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	right, err := e.resolveValue(c.Value, ctx)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case OpContains:
		return containsValue(left, right), nil
	case OpMatches:
		re := c.Value.Regex
		if re == nil {
			return false, errcode.EvaluationError{Message: "MATCHES requires a regex literal"}
		}
		s, ok := left.(string)
		if !ok {
			return false, nil
		}
		return re.MatchString(s), nil
	default:
		return compareValues(left, right, c.Op), nil
	}
}

// resolveValue turns a Value into a JSON-shaped Go value. FieldRef
// values resolve against ctx; absence is an error per spec.md §4.8.
func (e *Evaluator) resolveValue(v Value, ctx *evalContext) (any, error) {
	switch v.Kind {
	case ValString:
		return v.Str, nil
	case ValNumber:
		return v.Num, nil
	case ValBool:
		return v.Bool, nil
	case ValNull:
		return nil, nil
	case ValRegex:
		return v.Regex.String(), nil
	case ValFieldRef:
		resolved, present, err := ctx.resolve(v.FieldRef)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, errcode.PolicyValidationError{Message: "field not found: " + v.FieldRef}
		}
		return resolved, nil
	default:
		return nil, errcode.EvaluationError{Message: "unknown value kind"}
	}
}

func containsValue(container, needle any) bool {
	switch c := container.(type) {
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(c, s)
	case []any:
		for _, item := range c {
			if valuesEqual(item, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	return compareValues(a, b, OpEquals)
}

// compareValues implements the total ordering spec.md §4.8 prescribes:
// numbers numerically, strings lexicographically, booleans false<true,
// nulls equal only to null, any type mismatch is false (never an error).
func compareValues(a, b any, op CompareOp) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := toFloat(b)
		if !ok {
			return op == OpNotEquals
		}
		return numCompare(av, bv, op)
	case int:
		return compareValues(float64(av), b, op)
	case string:
		bv, ok := b.(string)
		if !ok {
			return op == OpNotEquals
		}
		return strCompare(av, bv, op)
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return op == OpNotEquals
		}
		return boolCompare(av, bv, op)
	case nil:
		if op == OpEquals {
			return b == nil
		}
		if op == OpNotEquals {
			return b != nil
		}
		return false
	default:
		return op == OpNotEquals
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func numCompare(a, b float64, op CompareOp) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpLessThan:
		return a < b
	case OpLessEqual:
		return a <= b
	case OpGreaterThan:
		return a > b
	case OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

func strCompare(a, b string, op CompareOp) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpLessThan:
		return a < b
	case OpLessEqual:
		return a <= b
	case OpGreaterThan:
		return a > b
	case OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

func boolCompare(a, b bool, op CompareOp) bool {
	toInt := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpLessThan:
		return toInt(a) < toInt(b)
	case OpLessEqual:
		return toInt(a) <= toInt(b)
	case OpGreaterThan:
		return toInt(a) > toInt(b)
	case OpGreaterEqual:
		return toInt(a) >= toInt(b)
	default:
		return false
	}
}

func fmtValue(v any) string {
	return fmt.Sprintf("%v", v)
}
