package snmp

import (
	"context"
	"sync"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/sync/semaphore"

	"github.com/unet-io/unet/pkg/errcode"
)

// session wraps a live gosnmp connection for one address.
type session struct {
	conn *gosnmp.GoSNMP
}

// sessionManager caches live sessions by address up to maxConnections.
// Exhaustion returns PoolExhaustedError rather than blocking — callers
// already hold a semaphore permit and blocking here would nest two
// forms of backpressure.
type sessionManager struct {
	mu             sync.Mutex
	sessions       map[string]*session
	maxConnections int
}

func newSessionManager(maxConnections int) *sessionManager {
	return &sessionManager{sessions: map[string]*session{}, maxConnections: maxConnections}
}

func (m *sessionManager) checkout(cfg SessionConfig) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[cfg.Address]; ok {
		return s, nil
	}
	if m.maxConnections <= 0 || len(m.sessions) >= m.maxConnections {
		return nil, errcode.PoolExhaustedError{MaxConnections: m.maxConnections}
	}

	conn, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{conn: conn}
	m.sessions[cfg.Address] = s
	return s, nil
}

func (m *sessionManager) release(cfg SessionConfig) {
	// Sessions are kept warm for reuse; release is a no-op hook kept
	// for symmetry with acquire and to give future eviction a home.
	_ = cfg
}

func connect(cfg SessionConfig) (*gosnmp.GoSNMP, error) {
	g := &gosnmp.GoSNMP{
		Target:    cfg.Address,
		Port:      161,
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
		Transport: "udp",
	}
	switch cfg.Version {
	case VersionV3:
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel
		g.MsgFlags = securityFlags(cfg.Credentials)
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cfg.Credentials.User,
			AuthenticationProtocol:   authProtocol(cfg.Credentials.AuthProtocol),
			AuthenticationPassphrase: cfg.Credentials.AuthPassword,
			PrivacyProtocol:          privProtocol(cfg.Credentials.PrivProtocol),
			PrivacyPassphrase:        cfg.Credentials.PrivPassword,
		}
	default:
		g.Version = gosnmp.Version2c
		g.Community = cfg.Credentials.Community
	}

	if err := g.Connect(); err != nil {
		return nil, errcode.UnreachableError{Address: cfg.Address}
	}
	return g, nil
}

func securityFlags(c Credentials) gosnmp.SnmpV3MsgFlags {
	switch {
	case c.PrivPassword != "":
		return gosnmp.AuthPriv
	case c.AuthPassword != "":
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func authProtocol(name string) gosnmp.SnmpV3AuthProtocol {
	switch name {
	case "SHA":
		return gosnmp.SHA
	case "MD5":
		return gosnmp.MD5
	default:
		return gosnmp.NoAuth
	}
}

func privProtocol(name string) gosnmp.SnmpV3PrivProtocol {
	switch name {
	case "AES":
		return gosnmp.AES
	case "DES":
		return gosnmp.DES
	default:
		return gosnmp.NoPriv
	}
}

// Client is the SNMP client described by spec.md §4.5: a session
// manager keyed by address plus a global semaphore bounding the
// configured maximum concurrent wire operations.
type Client struct {
	sessions *sessionManager
	sem      *semaphore.Weighted
}

// NewClient creates a Client whose session pool and concurrency cap
// are both bounded by maxConnections.
func NewClient(maxConnections int) *Client {
	return &Client{
		sessions: newSessionManager(maxConnections),
		sem:      semaphore.NewWeighted(int64(maxConnections)),
	}
}

// Get fetches the given OIDs from address, chunking into groups of
// cfg.MaxVarsPerRequest.
func (c *Client) Get(ctx context.Context, cfg SessionConfig, oids []string) (map[string]Value, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, errcode.SemaphoreClosedError{}
	}
	defer c.sem.Release(1)

	s, err := c.sessions.checkout(cfg)
	if err != nil {
		return nil, err
	}
	defer c.sessions.release(cfg)

	out := map[string]Value{}
	chunkSize := cfg.MaxVarsPerRequest
	if chunkSize <= 0 {
		chunkSize = len(oids)
	}
	for start := 0; start < len(oids); start += chunkSize {
		end := start + chunkSize
		if end > len(oids) {
			end = len(oids)
		}
		result, err := s.conn.Get(oids[start:end])
		if err != nil {
			return nil, errcode.SessionTimeoutError{Address: cfg.Address}
		}
		for _, v := range result.Variables {
			out[v.Name] = fromPDU(v)
		}
	}
	return out, nil
}

// Walk performs an SNMP walk starting at startOid.
func (c *Client) Walk(ctx context.Context, cfg SessionConfig, startOid string) ([]OidValue, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, errcode.SemaphoreClosedError{}
	}
	defer c.sem.Release(1)

	s, err := c.sessions.checkout(cfg)
	if err != nil {
		return nil, err
	}
	defer c.sessions.release(cfg)

	var out []OidValue
	walkFn := func(pdu gosnmp.SnmpPDU) error {
		out = append(out, OidValue{Oid: pdu.Name, Value: fromPDU(pdu)})
		return nil
	}

	var walkErr error
	if s.conn.Version == gosnmp.Version1 {
		walkErr = s.conn.Walk(startOid, walkFn)
	} else {
		walkErr = s.conn.BulkWalk(startOid, walkFn)
	}
	if walkErr != nil {
		return nil, errcode.SessionTimeoutError{Address: cfg.Address}
	}
	return out, nil
}

// OidValue pairs a resolved OID with its decoded value, preserving
// wire order for Walk results.
type OidValue struct {
	Oid   string
	Value Value
}

func fromPDU(pdu gosnmp.SnmpPDU) Value {
	switch pdu.Type {
	case gosnmp.Integer:
		if n, ok := pdu.Value.(int); ok {
			return Value{Kind: KindInteger, Int: int64(n)}
		}
		return Value{Kind: KindInteger}
	case gosnmp.OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			return Value{Kind: KindString, Str: string(b)}
		}
		return Value{Kind: KindString}
	case gosnmp.Counter32:
		return Value{Kind: KindCounter32, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}
	case gosnmp.Gauge32:
		return Value{Kind: KindGauge32, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}
	case gosnmp.Counter64:
		return Value{Kind: KindCounter64, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}
	case gosnmp.TimeTicks:
		return Value{Kind: KindTimeTicks, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}
	case gosnmp.ObjectIdentifier:
		if s, ok := pdu.Value.(string); ok {
			return Value{Kind: KindOid, Oid: s}
		}
		return Value{Kind: KindOid}
	case gosnmp.IPAddress:
		if s, ok := pdu.Value.(string); ok {
			return Value{Kind: KindIPAddress, IP: s}
		}
		return Value{Kind: KindIPAddress}
	case gosnmp.NoSuchObject:
		return Value{Kind: KindNoSuchObject}
	case gosnmp.NoSuchInstance:
		return Value{Kind: KindNoSuchInstance}
	case gosnmp.EndOfMibView:
		return Value{Kind: KindEndOfMibView}
	case gosnmp.Null:
		return Value{Kind: KindNull}
	default:
		return Value{Kind: KindUnknown, UnknownTag: byte(pdu.Type)}
	}
}
