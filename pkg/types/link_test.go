package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLinkBuilder_InternetCircuit(t *testing.T) {
	link, err := NewLinkBuilder().
		Name("circuit-1").
		SourceNodeID(uuid.New()).
		NodeAInterface("eth0").
		InternetCircuit().
		Build()

	require.NoError(t, err)
	require.True(t, link.IsInternetCircuit)
	require.Nil(t, link.DestNodeID)
}

func TestLinkBuilder_InternetCircuitRejectsNodeZ(t *testing.T) {
	source := uuid.New()
	dest := uuid.New()

	link := &Link{
		Name:              "circuit-2",
		SourceNodeID:      source,
		NodeAInterface:    "eth0",
		DestNodeID:        &dest,
		IsInternetCircuit: true,
	}

	err := link.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "internet circuits cannot have node Z")
}

func TestLinkBuilder_RegularLinkRequiresNodeZ(t *testing.T) {
	_, err := NewLinkBuilder().
		Name("link-1").
		SourceNodeID(uuid.New()).
		NodeAInterface("eth0").
		Build()

	require.Error(t, err)
	require.Contains(t, err.Error(), "regular links must have node Z")
}

func TestLinkBuilder_RejectsSelfLoop(t *testing.T) {
	node := uuid.New()

	_, err := NewLinkBuilder().
		Name("loop").
		SourceNodeID(node).
		NodeAInterface("eth0").
		DestNodeID(node).
		NodeZInterface("eth1").
		Build()

	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot connect a node to itself")
}

func TestLinkCustomDataRoundTrip(t *testing.T) {
	link, err := NewLinkBuilder().
		Name("link-1").
		SourceNodeID(uuid.New()).
		NodeAInterface("eth0").
		DestNodeID(uuid.New()).
		NodeZInterface("eth1").
		Build()
	require.NoError(t, err)

	require.NoError(t, link.SetCustomData("circuit.provider", "acme"))
	v, ok := link.GetCustomData("circuit.provider")
	require.True(t, ok)
	require.Equal(t, "acme", v)

	_, ok = link.GetCustomData("circuit.missing")
	require.False(t, ok)
}
