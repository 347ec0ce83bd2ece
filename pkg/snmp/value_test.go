package snmp

import "testing"

func TestValueClampedPercent(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{Value{Kind: KindInteger, Int: 150}, 100},
		{Value{Kind: KindInteger, Int: -5}, 0},
		{Value{Kind: KindInteger, Int: 42}, 42},
		{Value{Kind: KindString, Str: "n/a"}, 0},
	}
	for _, c := range cases {
		if got := c.v.ClampedPercent(); got != c.want {
			t.Fatalf("ClampedPercent(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestValueAsInt64AndString(t *testing.T) {
	v := Value{Kind: KindCounter32, Uint: 9000}
	n, ok := v.AsInt64()
	if !ok || n != 9000 {
		t.Fatalf("expected counter32 to convert to int64, got %v, %v", n, ok)
	}

	s := Value{Kind: KindString, Str: "cisco ios"}
	str, ok := s.AsString()
	if !ok || str != "cisco ios" {
		t.Fatalf("expected string value, got %v, %v", str, ok)
	}

	_, ok = s.AsInt64()
	if ok {
		t.Fatal("expected string value to not convert to int64")
	}
}
