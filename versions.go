package scyjava

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

// GetVersion returns the version of the component providing the given Java
// class: the Implementation-Version from the jar manifest, falling back to
// org.scijava.util.VersionUtils when it is on the classpath. Returns "" if
// no version can be determined.
func GetVersion(cls *JClass) (string, error) {
	result, err := cls.gateway.Call("class_version", 0, map[string]interface{}{"cls": cls.Name})
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected version value: %v", result)
	}
	return s, nil
}

// ModuleVersion returns the version of a Go module dependency of the
// running binary, or "" if the module is not linked in. The running main
// module itself reports "(devel)" outside of released builds.
func ModuleVersion(modulePath string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if info.Main.Path == modulePath {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			return dep.Version
		}
	}
	return ""
}

// CompareVersions compares two dotted version strings component-wise.
// Numeric components compare numerically, anything else lexically; missing
// components count as zero, so "2.50" precedes "2.50.0.1". Returns a
// negative number, zero, or a positive number as v1 sorts before, equal
// to, or after v2.
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	longest := len(parts1)
	if len(parts2) > longest {
		longest = len(parts2)
	}
	for i := 0; i < longest; i++ {
		p1, p2 := "0", "0"
		if i < len(parts1) {
			p1 = parts1[i]
		}
		if i < len(parts2) {
			p2 = parts2[i]
		}
		n1, err1 := strconv.Atoi(p1)
		n2, err2 := strconv.Atoi(p2)
		if err1 == nil && err2 == nil {
			if n1 != n2 {
				return n1 - n2
			}
			continue
		}
		if c := strings.Compare(p1, p2); c != 0 {
			return c
		}
	}
	return 0
}

// IsVersionAtLeast reports whether the actual version is at least the
// minimum version.
func IsVersionAtLeast(actual, minimum string) bool {
	return CompareVersions(actual, minimum) >= 0
}
