package snmp

import "sort"

// StandardOid names a well-known MIB-II OID used for basic device and
// interface monitoring.
type StandardOid string

const (
	SysDescr    StandardOid = "SysDescr"
	SysObjectID StandardOid = "SysObjectId"
	SysUpTime   StandardOid = "SysUpTime"
	SysContact  StandardOid = "SysContact"
	SysName     StandardOid = "SysName"
	SysLocation StandardOid = "SysLocation"
	SysServices StandardOid = "SysServices"

	IfNumber       StandardOid = "IfNumber"
	IfTable        StandardOid = "IfTable"
	IfIndex        StandardOid = "IfIndex"
	IfDescr        StandardOid = "IfDescr"
	IfType         StandardOid = "IfType"
	IfMtu          StandardOid = "IfMtu"
	IfSpeed        StandardOid = "IfSpeed"
	IfPhysAddress  StandardOid = "IfPhysAddress"
	IfAdminStatus  StandardOid = "IfAdminStatus"
	IfOperStatus   StandardOid = "IfOperStatus"
	IfLastChange   StandardOid = "IfLastChange"
	IfInOctets     StandardOid = "IfInOctets"
	IfInUcastPkts  StandardOid = "IfInUcastPkts"
	IfInErrors     StandardOid = "IfInErrors"
	IfOutOctets    StandardOid = "IfOutOctets"
	IfOutUcastPkts StandardOid = "IfOutUcastPkts"
	IfOutErrors    StandardOid = "IfOutErrors"
)

var standardOidStrings = map[StandardOid]string{
	SysDescr:    "1.3.6.1.2.1.1.1.0",
	SysObjectID: "1.3.6.1.2.1.1.2.0",
	SysUpTime:   "1.3.6.1.2.1.1.3.0",
	SysContact:  "1.3.6.1.2.1.1.4.0",
	SysName:     "1.3.6.1.2.1.1.5.0",
	SysLocation: "1.3.6.1.2.1.1.6.0",
	SysServices: "1.3.6.1.2.1.1.7.0",

	IfNumber:       "1.3.6.1.2.1.2.1.0",
	IfTable:        "1.3.6.1.2.1.2.2.1",
	IfIndex:        "1.3.6.1.2.1.2.2.1.1",
	IfDescr:        "1.3.6.1.2.1.2.2.1.2",
	IfType:         "1.3.6.1.2.1.2.2.1.3",
	IfMtu:          "1.3.6.1.2.1.2.2.1.4",
	IfSpeed:        "1.3.6.1.2.1.2.2.1.5",
	IfPhysAddress:  "1.3.6.1.2.1.2.2.1.6",
	IfAdminStatus:  "1.3.6.1.2.1.2.2.1.7",
	IfOperStatus:   "1.3.6.1.2.1.2.2.1.8",
	IfLastChange:   "1.3.6.1.2.1.2.2.1.9",
	IfInOctets:     "1.3.6.1.2.1.2.2.1.10",
	IfInUcastPkts:  "1.3.6.1.2.1.2.2.1.11",
	IfInErrors:     "1.3.6.1.2.1.2.2.1.14",
	IfOutOctets:    "1.3.6.1.2.1.2.2.1.16",
	IfOutUcastPkts: "1.3.6.1.2.1.2.2.1.17",
	IfOutErrors:    "1.3.6.1.2.1.2.2.1.20",
}

var standardOidDescriptions = map[StandardOid]string{
	SysDescr:    "System description",
	SysObjectID: "System object identifier",
	SysUpTime:   "System uptime in hundredths of seconds",
	SysContact:  "System contact information",
	SysName:     "System name",
	SysLocation: "System location",
	SysServices: "System services",

	IfNumber:       "Number of network interfaces",
	IfTable:        "Network interface table",
	IfIndex:        "Interface index",
	IfDescr:        "Interface description",
	IfType:         "Interface type",
	IfMtu:          "Interface MTU",
	IfSpeed:        "Interface speed in bits per second",
	IfPhysAddress:  "Interface physical address",
	IfAdminStatus:  "Interface administrative status",
	IfOperStatus:   "Interface operational status",
	IfLastChange:   "Interface last change time",
	IfInOctets:     "Interface input octets",
	IfInUcastPkts:  "Interface input unicast packets",
	IfInErrors:     "Interface input errors",
	IfOutOctets:    "Interface output octets",
	IfOutUcastPkts: "Interface output unicast packets",
	IfOutErrors:    "Interface output errors",
}

// OID returns the dotted OID string for o, or "" if unknown.
func (o StandardOid) OID() string { return standardOidStrings[o] }

// Description returns a short human description of o.
func (o StandardOid) Description() string { return standardOidDescriptions[o] }

// SystemOids are the base sysDescr..sysServices group polled for
// general device identity.
func SystemOids() []StandardOid {
	return []StandardOid{SysDescr, SysObjectID, SysUpTime, SysContact, SysName, SysLocation, SysServices}
}

// InterfaceOids are the ifTable columns polled per interface.
func InterfaceOids() []StandardOid {
	return []StandardOid{
		IfNumber, IfIndex, IfDescr, IfType, IfMtu, IfSpeed, IfPhysAddress,
		IfAdminStatus, IfOperStatus, IfLastChange, IfInOctets, IfInUcastPkts,
		IfInErrors, IfOutOctets, IfOutUcastPkts, IfOutErrors,
	}
}

// VendorOid is a vendor enterprise MIB OID tagged with its vendor name.
// Built-in sets exist for Cisco, Juniper and Arista only.
type VendorOid struct {
	Vendor      string
	OID         string
	Description string
}

// CiscoCommon returns the commonly polled Cisco enterprise OIDs.
func CiscoCommon() []VendorOid {
	return []VendorOid{
		{Vendor: "Cisco", OID: "1.3.6.1.4.1.9.2.1.3.0", Description: "Cisco CPU utilization"},
		{Vendor: "Cisco", OID: "1.3.6.1.4.1.9.2.1.8.0", Description: "Cisco memory utilization"},
		{Vendor: "Cisco", OID: "1.3.6.1.4.1.9.9.13.1.3.1.3", Description: "Cisco temperature sensor"},
	}
}

// JuniperCommon returns the commonly polled Juniper enterprise OIDs.
func JuniperCommon() []VendorOid {
	return []VendorOid{
		{Vendor: "Juniper", OID: "1.3.6.1.4.1.2636.3.1.13.1.8", Description: "Juniper CPU utilization"},
		{Vendor: "Juniper", OID: "1.3.6.1.4.1.2636.3.1.13.1.11", Description: "Juniper memory utilization"},
		{Vendor: "Juniper", OID: "1.3.6.1.4.1.2636.3.1.13.1.7", Description: "Juniper temperature"},
	}
}

// AristaCommon returns the commonly polled Arista enterprise OIDs.
func AristaCommon() []VendorOid {
	return []VendorOid{
		{Vendor: "Arista", OID: "1.3.6.1.4.1.30065.3.1.1.1.1.1", Description: "Arista CPU utilization"},
		{Vendor: "Arista", OID: "1.3.6.1.4.1.30065.3.1.1.1.2.1", Description: "Arista memory utilization"},
	}
}

// OidMap is a lookup registry from logical name to OID, seeded with
// every standard and common vendor OID and extensible with custom
// entries discovered at runtime.
type OidMap struct {
	standard map[string]StandardOid
	vendor   map[string]VendorOid
	custom   map[string]string
}

// NewOidMap returns a registry pre-populated with the standard system
// and interface OIDs plus common Cisco/Juniper/Arista entries.
func NewOidMap() *OidMap {
	m := &OidMap{
		standard: map[string]StandardOid{},
		vendor:   map[string]VendorOid{},
		custom:   map[string]string{},
	}
	for _, o := range SystemOids() {
		m.standard[string(o)] = o
	}
	for _, o := range InterfaceOids() {
		m.standard[string(o)] = o
	}
	for _, v := range CiscoCommon() {
		m.vendor["Cisco_"+v.Description] = v
	}
	for _, v := range JuniperCommon() {
		m.vendor["Juniper_"+v.Description] = v
	}
	for _, v := range AristaCommon() {
		m.vendor["Arista_"+v.Description] = v
	}
	return m
}

// AddStandard registers a standard OID under name.
func (m *OidMap) AddStandard(name string, o StandardOid) { m.standard[name] = o }

// AddVendor registers a vendor OID under name.
func (m *OidMap) AddVendor(name string, o VendorOid) { m.vendor[name] = o }

// AddCustom registers a raw OID string under name.
func (m *OidMap) AddCustom(name, oid string) { m.custom[name] = oid }

// Resolve maps a logical name to its dotted OID string, checking
// standard, then vendor, then custom entries.
func (m *OidMap) Resolve(name string) (string, bool) {
	if o, ok := m.standard[name]; ok {
		return o.OID(), true
	}
	if v, ok := m.vendor[name]; ok {
		return v.OID, true
	}
	if oid, ok := m.custom[name]; ok {
		return oid, true
	}
	return "", false
}

// ListNames returns every registered name, sorted.
func (m *OidMap) ListNames() []string {
	names := make([]string, 0, len(m.standard)+len(m.vendor)+len(m.custom))
	for n := range m.standard {
		names = append(names, n)
	}
	for n := range m.vendor {
		names = append(names, n)
	}
	for n := range m.custom {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
