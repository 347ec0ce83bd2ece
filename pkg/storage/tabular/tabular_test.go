package tabular

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func mustNode(t *testing.T, name string) *types.Node {
	t.Helper()
	n, err := types.NewNodeBuilder().Name(name).Domain("example.com").Vendor(types.VendorCisco).Build()
	require.NoError(t, err)
	return n
}

func TestCreateGetNode(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	n := mustNode(t, "core-1")
	created, err := s.CreateNode(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, n.ID, created.ID)

	got, err := s.GetNode(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, "core-1", got.Name)
}

func TestNodesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	n := mustNode(t, "core-2")
	_, err = s.CreateNode(context.Background(), n)
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.GetNode(context.Background(), n.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "core-2", got.Name)
}

func TestUpdateAndDeleteNode(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	n := mustNode(t, "core-3")
	_, err = s.CreateNode(context.Background(), n)
	require.NoError(t, err)

	n.Platform = "ios-xe"
	updated, err := s.UpdateNode(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, "ios-xe", updated.Platform)

	require.NoError(t, s.DeleteNode(context.Background(), n.ID))
	got, err := s.GetNode(context.Background(), n.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListNodesFilterAndPaginate(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := s.CreateNode(context.Background(), mustNode(t, name))
		require.NoError(t, err)
	}

	page, err := s.ListNodes(context.Background(), storage.QueryOptions{
		Pagination: &storage.Pagination{Offset: 0, Limit: 2},
		Sort:       []storage.Sort{{Field: "Name", Direction: storage.SortAscending}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 2)
	require.Equal(t, "alpha", page.Items[0].Name)
}

func TestGetNodeAsContextAndSetCustomData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	n := mustNode(t, "edge-1")
	_, err = s.CreateNode(context.Background(), n)
	require.NoError(t, err)

	doc, err := s.GetNodeAsContext(context.Background(), n.ID)
	require.NoError(t, err)
	node, ok := doc["node"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "edge-1", node["name"])

	require.NoError(t, s.UpdateNodeCustomData(context.Background(), n.ID, map[string]any{"managed": true}))
	got, err := s.GetNode(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"managed": true}, got.CustomData)
}

func TestTransactionRollbackRestoresNodes(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	n := mustNode(t, "orig")
	_, err = s.CreateNode(context.Background(), n)
	require.NoError(t, err)

	err = storage.WithTransaction(context.Background(), s, func(ctx context.Context) error {
		_, err := s.CreateNode(ctx, mustNode(t, "rolled-back"))
		require.NoError(t, err)
		return errors.New("force rollback")
	})
	require.Error(t, err)

	all, err := s.ListNodes(context.Background(), storage.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	require.Equal(t, "orig", all.Items[0].Name)
}
