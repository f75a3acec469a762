package scyjava

import (
	"testing"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		v1, v2 string
		want   int // sign only
	}{
		{"2.50", "2.50.0", 0},
		{"2.50", "2.50.0.1", -1},
		{"1.9", "1.10", -1},
		{"2.0.0", "1.99.99", 1},
		{"3.9.9", "3.9.9", 0},
		{"1.0-beta", "1.0-alpha", 1},
	}
	for _, c := range cases {
		got := CompareVersions(c.v1, c.v2)
		sign := 0
		if got > 0 {
			sign = 1
		} else if got < 0 {
			sign = -1
		}
		if sign != c.want {
			t.Errorf("CompareVersions(%q, %q): expected sign %d, got %d", c.v1, c.v2, c.want, got)
		}
	}
}

func TestIsVersionAtLeast(t *testing.T) {
	if !IsVersionAtLeast("2.50.1", "2.50") {
		t.Error("Expected 2.50.1 >= 2.50")
	}
	if !IsVersionAtLeast("2.50", "2.50") {
		t.Error("Expected 2.50 >= 2.50")
	}
	if IsVersionAtLeast("2.49.9", "2.50") {
		t.Error("Expected 2.49.9 < 2.50")
	}
}

func TestModuleVersionUnknown(t *testing.T) {
	if v := ModuleVersion("example.com/definitely/not/linked"); v != "" {
		t.Errorf("Expected empty version for unknown module, got '%s'", v)
	}
}
