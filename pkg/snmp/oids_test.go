package snmp

import "testing"

func TestStandardOidStrings(t *testing.T) {
	if SysDescr.OID() != "1.3.6.1.2.1.1.1.0" {
		t.Fatalf("unexpected sysDescr OID: %s", SysDescr.OID())
	}
	if SysName.OID() != "1.3.6.1.2.1.1.5.0" {
		t.Fatalf("unexpected sysName OID: %s", SysName.OID())
	}
}

func TestOidMapResolutionPrecedence(t *testing.T) {
	m := NewOidMap()
	m.AddCustom("SysDescr", "9.9.9.9.9")

	oid, ok := m.Resolve("SysDescr")
	if !ok {
		t.Fatal("expected SysDescr to resolve")
	}
	if oid != SysDescr.OID() {
		t.Fatalf("expected standard OID to win over custom, got %s", oid)
	}

	oid, ok = m.Resolve("does-not-exist")
	if ok || oid != "" {
		t.Fatal("expected unresolved name to report not-found")
	}
}

func TestOidMapCustomAndVendor(t *testing.T) {
	m := NewOidMap()
	m.AddCustom("my_custom", "1.2.3.4.5")

	oid, ok := m.Resolve("my_custom")
	if !ok || oid != "1.2.3.4.5" {
		t.Fatalf("expected custom OID resolution, got %s, %v", oid, ok)
	}

	found := false
	for _, name := range m.ListNames() {
		if name == "my_custom" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected my_custom to appear in ListNames")
	}

	cisco := CiscoCommon()
	if len(cisco) == 0 {
		t.Fatal("expected non-empty cisco OID list")
	}
	for _, c := range cisco {
		if c.Vendor != "Cisco" {
			t.Fatalf("unexpected vendor %q in cisco list", c.Vendor)
		}
	}
}
