package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeBuilder_RequiresName(t *testing.T) {
	_, err := NewNodeBuilder().Domain("example.com").Build()
	require.Error(t, err)
}

func TestNodeFQDN(t *testing.T) {
	n, err := NewNodeBuilder().Name("router-1").Domain("example.com").Vendor(VendorCisco).Build()
	require.NoError(t, err)
	require.Equal(t, "router-1.example.com", n.FQDN())
}

func TestNodeCustomDataRoundTrip(t *testing.T) {
	n, err := NewNodeBuilder().Name("router-1").Domain("example.com").Build()
	require.NoError(t, err)

	require.NoError(t, n.SetCustomData("assigned_templates", []any{}))
	v, ok := n.GetCustomData("assigned_templates")
	require.True(t, ok)
	require.Equal(t, []any{}, v)

	require.False(t, n.HasManagementIP())
	require.False(t, n.HasLocation())
}
