package policy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory NodeStore for evaluator tests.
type fakeStore struct {
	docs      map[uuid.UUID]map[string]any
	changes   []ChangeRecord
	templates []TemplateUsage
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[uuid.UUID]map[string]any{}}
}

func (f *fakeStore) GetNodeAsContext(ctx context.Context, nodeID uuid.UUID) (map[string]any, error) {
	doc, ok := f.docs[nodeID]
	if !ok {
		return nil, notFoundErr{}
	}
	return deepCopyMap(doc), nil
}

func (f *fakeStore) UpdateNodeCustomData(ctx context.Context, nodeID uuid.UUID, customData any) error {
	doc := f.docs[nodeID]
	doc["custom_data"] = customData
	return nil
}

func (f *fakeStore) UpdateNodeField(ctx context.Context, nodeID uuid.UUID, field string, value any) error {
	doc := f.docs[nodeID]
	doc[field] = value
	return nil
}

func (f *fakeStore) RecordChange(ctx context.Context, change ChangeRecord) error {
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeStore) RecordTemplateUsage(ctx context.Context, usage TemplateUsage) error {
	f.templates = append(f.templates, usage)
	return nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

func deepCopyMap(m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
		} else {
			out[k] = v
		}
	}
	return out
}

func TestEvaluate_AssertSatisfied(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{
		"node": map[string]any{"vendor": "cisco", "version": "15.1"},
	}

	rule, err := mustParseOne(t, `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.True(t, result.Verdict.Satisfied)
	require.NotNil(t, result.Action)
	require.True(t, result.Action.Success)
}

func TestEvaluate_SetWithRollback(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{
		"node":        map[string]any{"role": "router"},
		"custom_data": map[string]any{},
	}

	rule, err := mustParseOne(t, `WHEN node.role == "router" THEN SET custom_data.managed TO true`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.True(t, result.Verdict.Satisfied)
	require.True(t, result.Action.Success)
	require.Equal(t, "absent", result.Action.Rollback)

	updated := store.docs[nodeID]["custom_data"].(map[string]any)
	require.Equal(t, true, updated["managed"])

	require.Len(t, store.changes, 1)
	require.Equal(t, "set", store.changes[0].ChangeType)
	require.Equal(t, nodeID.String(), store.changes[0].EntityID)
}

func TestEvaluate_SetOnNonCustomDataRejected(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{"node": map[string]any{"role": "router"}, "vendor": "cisco"}

	rule, err := mustParseOne(t, `WHEN node.role == "router" THEN SET vendor TO "juniper"`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.True(t, result.Verdict.Satisfied)
	require.False(t, result.Action.Success)
	require.Contains(t, result.Action.Message, "SET action only supports custom_data fields")
}

func TestEvaluate_ApplyTemplateIdempotent(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{
		"node":        map[string]any{"hostname": "dist-01"},
		"custom_data": map[string]any{"assigned_templates": []any{"dist-template.jinja"}},
	}

	rule, err := mustParseOne(t, `WHEN node.hostname MATCHES /^dist-\d+$/ THEN APPLY "dist-template.jinja"`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.True(t, result.Action.Success)
	require.Contains(t, result.Action.Message, "already assigned")
	require.Empty(t, store.changes)
	require.Empty(t, store.templates)
}

func TestEvaluate_ApplyTemplateRecordsUsage(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{
		"node":        map[string]any{"hostname": "dist-02"},
		"custom_data": map[string]any{},
	}

	rule, err := mustParseOne(t, `WHEN node.hostname MATCHES /^dist-\d+$/ THEN APPLY "dist-template.jinja"`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.True(t, result.Action.Success)

	require.Len(t, store.changes, 1)
	require.Equal(t, "apply_template", store.changes[0].ChangeType)

	require.Len(t, store.templates, 1)
	require.Equal(t, "dist-template.jinja", store.templates[0].TemplatePath)
	require.Equal(t, "success", store.templates[0].Status)
}

func TestEvaluate_NotSatisfiedShortCircuits(t *testing.T) {
	store := newFakeStore()
	nodeID := uuid.New()
	store.docs[nodeID] = map[string]any{"node": map[string]any{"vendor": "juniper"}}

	rule, err := mustParseOne(t, `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)
	require.NoError(t, err)

	eval := NewEvaluator(store)
	result := eval.Evaluate(context.Background(), nodeID, rule)

	require.False(t, result.Verdict.Satisfied)
	require.Nil(t, result.Action)
}
