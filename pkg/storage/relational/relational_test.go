package relational

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unet.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustNode(t *testing.T, name string) *types.Node {
	t.Helper()
	n, err := types.NewNodeBuilder().Name(name).Domain("example.com").Vendor(types.VendorCisco).Build()
	require.NoError(t, err)
	return n
}

func TestCreateGetNode(t *testing.T) {
	s := openTestStore(t)
	n := mustNode(t, "core-1")
	created, err := s.CreateNode(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, n.ID, created.ID)

	got, err := s.GetNode(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, "core-1", got.Name)
}

func TestUpdateAndDeleteNode(t *testing.T) {
	s := openTestStore(t)
	n := mustNode(t, "core-2")
	_, err := s.CreateNode(context.Background(), n)
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
	s := openTestStore(t)
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

func TestGetNodeAsContextAndCustomData(t *testing.T) {
	s := openTestStore(t)
	n := mustNode(t, "edge-1")
	_, err := s.CreateNode(context.Background(), n)
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

// TestDeleteNodeCascadesLinks exercises the schema's ON DELETE CASCADE
// from nodes to links, the referential integrity the tabular backend
// does not enforce.
func TestDeleteNodeCascadesLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := mustNode(t, "a")
	b := mustNode(t, "b")
	_, err := s.CreateNode(ctx, a)
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, b)
	require.NoError(t, err)

	link, err := types.NewLinkBuilder().Name("a-b").SourceNodeID(a.ID).NodeAInterface("Gi0/0").
		DestNodeID(b.ID).NodeZInterface("Gi0/1").Build()
	require.NoError(t, err)
	_, err = s.CreateLink(ctx, link)
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(ctx, a.ID))

	got, err := s.GetLink(ctx, link.ID)
	require.NoError(t, err)
	require.Nil(t, got, "link should cascade-delete when its source node is deleted")
}

func TestTransactionCommitPersists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := storage.WithTransaction(ctx, s, func(ctx context.Context) error {
		_, err := s.CreateNode(ctx, mustNode(t, "committed"))
		return err
	})
	require.NoError(t, err)

	all, err := s.ListNodes(ctx, storage.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	require.Equal(t, "committed", all.Items[0].Name)
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNode(ctx, mustNode(t, "orig"))
	require.NoError(t, err)

	err = storage.WithTransaction(ctx, s, func(ctx context.Context) error {
		_, err := s.CreateNode(ctx, mustNode(t, "rolled-back"))
		require.NoError(t, err)
		return errors.New("force rollback")
	})
	require.Error(t, err)

	all, err := s.ListNodes(ctx, storage.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	require.Equal(t, "orig", all.Items[0].Name)
}

func TestRecordChangeAndTemplateUsage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordChange(ctx, policy.ChangeRecord{
		ChangeType: "set", EntityType: "node", EntityID: "node-1",
		Description: "set platform", OldValue: "", NewValue: "ios-xe",
	}))
	require.NoError(t, s.RecordTemplateUsage(ctx, policy.TemplateUsage{
		TemplatePath: "templates/core.yaml", NodeID: "node-1", Operation: "apply", Status: "success",
	}))

	stats, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["change_count"])
}

func TestPutNodeStatusAndMissingSystemInfo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	n := mustNode(t, "mon-1")
	_, err := s.CreateNode(ctx, n)
	require.NoError(t, err)

	require.NoError(t, s.PutNodeStatus(ctx, n.ID, true, time.Now()))
	status, err := s.GetNodeStatus(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, status.Reachable)

	info, err := s.GetSystemInfo(ctx, n.ID)
	require.NoError(t, err)
	require.Nil(t, info)
}
