package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/metrics"
	"github.com/unet-io/unet/pkg/storage/tabular"
	"github.com/unet-io/unet/pkg/types"
)

func TestCollectorUpdatesInventoryGauges(t *testing.T) {
	store, err := tabular.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	n, err := types.NewNodeBuilder().Name("core-1").Domain("example.com").
		Vendor(types.VendorCisco).Role(types.NodeRoleRouter).Build()
	require.NoError(t, err)
	_, err = store.CreateNode(context.Background(), n)
	require.NoError(t, err)

	l, err := types.NewLocationBuilder().Name("dc-1").Build()
	require.NoError(t, err)
	_, err = store.CreateLocation(context.Background(), l)
	require.NoError(t, err)

	c := metrics.NewCollector(store)
	c.Collect()

	require.Equal(t, float64(1),
		testutil.ToFloat64(metrics.NodesTotal.WithLabelValues("router", string(n.Lifecycle))))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.LocationsTotal))
}
