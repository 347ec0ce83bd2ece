package snmp

import "time"

// Version selects the SNMP protocol version used for a session.
type Version int

const (
	VersionV2c Version = iota
	VersionV3
)

// Credentials carries either a community string (v2c) or a USM
// user/auth/priv triple (v3). Exactly one of Community or User should
// be set, matching the session's Version.
type Credentials struct {
	Community string

	User            string
	AuthProtocol    string
	AuthPassword    string
	PrivProtocol    string
	PrivPassword    string
}

// SessionConfig describes how to reach and authenticate to one
// target, per spec.md §4.4.
type SessionConfig struct {
	Address            string
	Version            Version
	Credentials        Credentials
	Timeout            time.Duration
	Retries            int
	MaxVarsPerRequest  int
}

// DefaultSessionConfig returns sane defaults for a v2c session with
// the given community, overridable per field.
func DefaultSessionConfig(address, community string) SessionConfig {
	return SessionConfig{
		Address:           address,
		Version:           VersionV2c,
		Credentials:       Credentials{Community: community},
		Timeout:           5 * time.Second,
		Retries:           2,
		MaxVarsPerRequest: 10,
	}
}
