package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/errcode"
)

func TestParseSimpleComparisonRule(t *testing.T) {
	rule, err := mustParseOne(t, `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)
	require.NoError(t, err)
	require.Equal(t, CondComparison, rule.Condition.Kind)
	require.Equal(t, "node.vendor", rule.Condition.Field)
	require.Equal(t, OpEquals, rule.Condition.Op)
	require.Equal(t, ActionAssert, rule.Action.Kind)
}

func TestParseBooleanCombinators(t *testing.T) {
	rule, err := mustParseOne(t, `WHEN (node.vendor == "cisco" OR node.vendor == "juniper") AND NOT node.lifecycle == "decommissioned" THEN ASSERT node.snmp_enabled IS true`)
	require.NoError(t, err)
	require.Equal(t, CondAnd, rule.Condition.Kind)
	require.Equal(t, CondOr, rule.Condition.Left.Kind)
	require.Equal(t, CondNot, rule.Condition.Right.Kind)
}

func TestParseMatchesRegexAndApply(t *testing.T) {
	rule, err := mustParseOne(t, `WHEN node.hostname MATCHES /^dist-\d+$/ THEN APPLY "dist-template.jinja"`)
	require.NoError(t, err)
	require.Equal(t, OpMatches, rule.Condition.Op)
	require.NotNil(t, rule.Condition.Value.Regex)
	require.Equal(t, ActionApplyTemplate, rule.Action.Kind)
	require.Equal(t, "dist-template.jinja", rule.Action.TemplatePath)
}

func TestParseSetAction(t *testing.T) {
	rule, err := mustParseOne(t, `WHEN node.role == "router" THEN SET custom_data.managed TO true`)
	require.NoError(t, err)
	require.Equal(t, ActionSet, rule.Action.Kind)
	require.Equal(t, "custom_data.managed", rule.Action.Field)
	require.True(t, rule.Action.NewValue.Bool)
}

func TestParseExistenceCheck(t *testing.T) {
	rule, err := mustParseOne(t, `WHEN node.management_ip IS NOT NULL THEN ASSERT node.reachable IS true`)
	require.NoError(t, err)
	require.Equal(t, CondExistence, rule.Condition.Kind)
	require.False(t, rule.Condition.IsNull)
}

func TestParseFileMultipleRulesAndComments(t *testing.T) {
	content := `
# top comment
WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"

WHEN node.role == "router" THEN SET custom_data.managed TO true
`
	rules, err := ParseFile(content)
	require.NoError(t, err)
	require.Len(t, rules, 2)
}

func TestParseFileEmpty(t *testing.T) {
	rules, err := ParseFile("   \n  # only a comment\n")
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestParseErrorHasPosition(t *testing.T) {
	_, err := ParseFile("WHEN node.vendor === \"cisco\" THEN ASSERT node.version IS \"x\"")
	require.Error(t, err)
	var perr errcode.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 1, perr.Line)
	require.Equal(t, 20, perr.Column)
}

func mustParseOne(t *testing.T, src string) (*Rule, error) {
	t.Helper()
	rules, err := ParseFile(src)
	if err != nil {
		return nil, err
	}
	require.Len(t, rules, 1)
	return rules[0], nil
}
