package errcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundErrorMessage(t *testing.T) {
	err := NotFoundError{EntityType: "Node", ID: "abc-123"}
	require.Equal(t, "DB_NOT_FOUND", err.Code())
	require.Equal(t, "Node not found: abc-123", err.Error())
}

func TestPoolExhaustedErrorMessage(t *testing.T) {
	err := PoolExhaustedError{MaxConnections: 10}
	require.Equal(t, "SNMP_POOL_EXHAUSTED", err.Code())
	require.Contains(t, err.Error(), "max_connections=10")
}

func TestParseErrorMessage(t *testing.T) {
	err := ParseError{Line: 3, Column: 7, Message: "unexpected token"}
	require.Equal(t, "POLICY_PARSE_FAILED", err.Code())
	require.Equal(t, "parse error at 3:7: unexpected token", err.Error())
}

func TestSelfLinkErrorMessage(t *testing.T) {
	err := SelfLinkError{NodeID: "node-1"}
	require.Equal(t, "VALID_SELF_LINK", err.Code())
	require.Contains(t, err.Error(), "node-1")
}
