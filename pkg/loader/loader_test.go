package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPoliciesFromDirectory_AllValid(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "a.policy", `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)

	l := NewLoader(GitConfig{}).WithLocalDir(dir)
	result, err := l.LoadPolicies()
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalFiles)
	require.Len(t, result.Loaded, 1)
	require.Empty(t, result.Errors)
}

func TestLoadPoliciesFromDirectory_MixedValidInvalid(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "a.policy", `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)
	writePolicyFile(t, dir, "b.policy", `NOT EVEN A RULE ===`)

	l := NewLoader(GitConfig{}).WithLocalDir(dir)
	result, err := l.LoadPolicies()
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalFiles)
	require.Len(t, result.Loaded, 1)
	require.Len(t, result.Errors, 1)
}

func TestLoadPolicyFile_CacheHitAvoidsReread(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "a.policy", `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)

	l := NewLoader(GitConfig{}).WithCacheTTL(time.Minute)
	first, err := l.LoadPolicyFile(path)
	require.NoError(t, err)
	require.Len(t, first.Rules, 1)

	second, err := l.LoadPolicyFile(path)
	require.NoError(t, err)
	require.Equal(t, first.Rules[0].Source, second.Rules[0].Source)
	require.Same(t, first.Rules[0], second.Rules[0])
}

func TestGitSourceNotImplemented(t *testing.T) {
	l := NewLoader(GitConfig{PoliciesRepo: "https://example.com/policies.git"})
	_, err := l.LoadPolicies()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not yet implemented")
}

func TestNoSourceConfigured(t *testing.T) {
	l := NewLoader(GitConfig{})
	_, err := l.LoadPolicies()
	require.Error(t, err)
}

func TestClearExpiredCache(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "a.policy", `WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)

	l := NewLoader(GitConfig{}).WithCacheTTL(time.Millisecond)
	_, err := l.LoadPolicyFile(path)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	cleared := l.ClearExpiredCache()
	require.Equal(t, 1, cleared)
}

func TestValidatePolicyFile(t *testing.T) {
	validations, err := ValidatePolicyFile(`WHEN node.vendor == "cisco" THEN ASSERT node.version IS "15.1"`)
	require.NoError(t, err)
	require.Len(t, validations, 1)
	require.True(t, validations[0].Valid)
}
