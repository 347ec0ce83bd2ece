// Package snmp implements the SNMP value model, OID registry (C4), and
// a session-pooled client (C5) bounded by a global connection
// semaphore. Wire encoding is delegated to github.com/gosnmp/gosnmp;
// this package owns only the observable value model spec.md §3/§4.4
// describes.
package snmp

import "github.com/unet-io/unet/pkg/derived"

// ValueKind discriminates the tagged Value union.
type ValueKind int

const (
	KindInteger ValueKind = iota
	KindString
	KindCounter32
	KindGauge32
	KindCounter64
	KindTimeTicks
	KindOid
	KindIPAddress
	KindNull
	KindNoSuchObject
	KindNoSuchInstance
	KindEndOfMibView
	KindUnknown
)

// Value is the tagged SNMP value union from spec.md §3. Unknown
// variants are preserved verbatim (UnknownTag/UnknownBytes) so
// round-trips through storage lose nothing.
type Value struct {
	Kind        ValueKind
	Int         int64
	Str         string
	Uint        uint64
	Oid         string
	IP          string
	UnknownTag  byte
	UnknownData []byte
}

// AsInt64 returns the value as an int64 where that is meaningful.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindInteger:
		return v.Int, true
	case KindCounter32, KindGauge32, KindCounter64, KindTimeTicks:
		return int64(v.Uint), true
	default:
		return 0, false
	}
}

// AsString returns the value as a string where that is meaningful.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindOid:
		return v.Oid, true
	case KindIPAddress:
		return v.IP, true
	default:
		return "", false
	}
}

// ClampedPercent interprets the value as a gauge and clamps it to
// [0, 100], per spec.md §4.4's bounded-domain-type rule.
func (v Value) ClampedPercent() float64 {
	n, ok := v.AsInt64()
	if !ok {
		return 0
	}
	return derived.ClampPercent(float64(n))
}
