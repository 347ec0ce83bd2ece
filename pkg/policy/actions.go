package policy

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/unet-io/unet/pkg/errcode"
)

// executeAction runs a satisfied rule's action per spec.md §4.8.
func (e *Evaluator) executeAction(ctx context.Context, nodeID uuid.UUID, action *Action) (*ActionOutcome, error) {
	switch action.Kind {
	case ActionAssert:
		return e.executeAssert(ctx, nodeID, action)
	case ActionSet:
		return e.executeSet(ctx, nodeID, action)
	case ActionApplyTemplate:
		return e.executeApplyTemplate(ctx, nodeID, action)
	default:
		return nil, errcode.EvaluationError{Message: "unknown action kind"}
	}
}

func (e *Evaluator) executeAssert(ctx context.Context, nodeID uuid.UUID, action *Action) (*ActionOutcome, error) {
	doc, err := e.store.GetNodeAsContext(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	actual, present, err := resolveDoc(doc, action.Field)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, errcode.PolicyValidationError{Message: "field not found: " + action.Field}
	}

	evalCtx := &evalContext{ctx: ctx, eval: e, nodeID: nodeID, doc: doc, loaded: true}
	expected, err := e.resolveValue(action.Expected, evalCtx)
	if err != nil {
		return nil, err
	}

	if !valuesEqual(actual, expected) {
		return &ActionOutcome{
			Success: false,
			Message: "assertion failed: " + action.Field + " != " + fmtValue(expected),
		}, nil
	}
	return &ActionOutcome{Success: true, Message: "assertion satisfied"}, nil
}

// executeSet implements spec.md §4.8's Set action: only accepted when
// the field path begins with "custom_data". Rollback captures the
// prior value of the whole traversed path (spec.md §9's prescription),
// not just the leaf.
func (e *Evaluator) executeSet(ctx context.Context, nodeID uuid.UUID, action *Action) (*ActionOutcome, error) {
	if !strings.HasPrefix(action.Field, "custom_data") {
		return &ActionOutcome{Success: false, Message: "SET action only supports custom_data fields"}, nil
	}

	doc, err := e.store.GetNodeAsContext(ctx, nodeID)
	if err != nil {
		if _, ok := err.(errcode.NotFoundError); ok {
			return nil, errcode.NodeNotFoundError{NodeID: nodeID.String()}
		}
		return nil, err
	}

	priorValue, priorPresent, err := resolveDoc(doc, action.Field)
	if err != nil {
		return nil, err
	}
	rootField := action.Field
	if parts := strings.SplitN(action.Field, ".", 3); len(parts) == 3 {
		rootField = parts[0] + "." + parts[1]
	}
	rootValue, rootPresent, _ := resolveDoc(doc, rootField)
	// setDotPath mutates nested maps in place, so keep a copy.
	if data, mErr := json.Marshal(rootValue); mErr == nil && rootPresent {
		var copied any
		if json.Unmarshal(data, &copied) == nil {
			rootValue = copied
		}
	}

	evalCtx := &evalContext{ctx: ctx, eval: e, nodeID: nodeID, doc: doc, loaded: true}
	newValue, err := e.resolveValue(action.NewValue, evalCtx)
	if err != nil {
		return nil, err
	}

	customData, ok := doc["custom_data"]
	if !ok || customData == nil {
		customData = map[string]any{}
	}

	subPath := strings.TrimPrefix(action.Field, "custom_data")
	subPath = strings.TrimPrefix(subPath, ".")
	if subPath == "" {
		return nil, errcode.ValidationError{Message: "path cannot be empty"}
	}

	updated, err := setDotPath(customData, subPath, newValue)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateNodeCustomData(ctx, nodeID, updated); err != nil {
		return nil, err
	}

	var rollback any = "absent"
	priorStr := "absent"
	if rootPresent {
		rollback = rootValue
	}
	if priorPresent {
		priorStr = fmtValue(priorValue)
	}
	e.recordChange(ctx, ChangeRecord{
		ChangeType:  "set",
		EntityType:  "node",
		EntityID:    nodeID.String(),
		Description: "set " + action.Field,
		OldValue:    priorStr,
		NewValue:    fmtValue(newValue),
	})
	return &ActionOutcome{Success: true, Message: "custom_data updated", Rollback: rollback}, nil
}

// recordChange calls RecordChange and swallows its error: audit logging
// must never fail the action it is recording.
func (e *Evaluator) recordChange(ctx context.Context, change ChangeRecord) {
	_ = e.store.RecordChange(ctx, change)
}

// executeApplyTemplate implements spec.md §4.8's ApplyTemplate action.
func (e *Evaluator) executeApplyTemplate(ctx context.Context, nodeID uuid.UUID, action *Action) (*ActionOutcome, error) {
	doc, err := e.store.GetNodeAsContext(ctx, nodeID)
	if err != nil {
		if _, ok := err.(errcode.NotFoundError); ok {
			return nil, errcode.NodeNotFoundError{NodeID: nodeID.String()}
		}
		return nil, err
	}

	customData, ok := doc["custom_data"].(map[string]any)
	if !ok {
		customData = map[string]any{}
	}

	assignedRaw, _ := customData["assigned_templates"]
	assigned, _ := assignedRaw.([]any)

	for _, t := range assigned {
		if s, ok := t.(string); ok && s == action.TemplatePath {
			return &ActionOutcome{Success: true, Message: action.TemplatePath + " was already assigned"}, nil
		}
	}

	updatedList := append(append([]any{}, assigned...), action.TemplatePath)
	customData["assigned_templates"] = updatedList

	if err := e.store.UpdateNodeCustomData(ctx, nodeID, customData); err != nil {
		_ = e.store.RecordTemplateUsage(ctx, TemplateUsage{
			TemplatePath: action.TemplatePath, NodeID: nodeID.String(),
			Operation: "apply", Status: "error", ErrorMessage: err.Error(),
		})
		return nil, err
	}

	e.recordChange(ctx, ChangeRecord{
		ChangeType:  "apply_template",
		EntityType:  "node",
		EntityID:    nodeID.String(),
		Description: "apply template " + action.TemplatePath,
		NewValue:    action.TemplatePath,
	})
	_ = e.store.RecordTemplateUsage(ctx, TemplateUsage{
		TemplatePath: action.TemplatePath, NodeID: nodeID.String(),
		Operation: "apply", Status: "success",
	})
	return &ActionOutcome{Success: true, Message: "template applied", Rollback: assigned}, nil
}

func resolveDoc(doc map[string]any, field string) (any, bool, error) {
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

func setDotPath(root any, path string, value any) (any, error) {
	parts := strings.Split(path, ".")
	obj, ok := root.(map[string]any)
	if !ok {
		if root == nil {
			obj = map[string]any{}
		} else {
			return nil, errcode.ValidationError{Message: "cannot navigate through non-object"}
		}
	}
	current := obj
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return obj, nil
		}
		next, exists := current[part]
		if !exists || next == nil {
			created := map[string]any{}
			current[part] = created
			current = created
			continue
		}
		nextObj, ok := next.(map[string]any)
		if !ok {
			return nil, errcode.ValidationError{Message: "cannot navigate through non-object"}
		}
		current = nextObj
	}
	return obj, nil
}
