package scyjava

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version represents a dotted numeric version with major, minor, and patch
// components. Minor and Patch may be -1 if not specified (e.g., "21" parses
// as {21, -1, -1}).
type Version struct {
	// Major is the major version number (required).
	Major int

	// Minor is the minor version number (-1 if not specified).
	Minor int

	// Patch is the patch version number (-1 if not specified).
	Patch int
}

// ParseVersion parses a version string into a Version struct.
// Accepts formats: "X.Y.Z", "X.Y", or "X". Any trailing text is ignored.
//
// Examples:
//   - "17.0.1" -> {17, 0, 1}
//   - "3.9" -> {3, 9, -1}
//   - "21" -> {21, -1, -1}
//   - "11.0.9-internal" -> {11, 0, 9}
func ParseVersion(versionStr string) (Version, error) {
	version := Version{
		Minor: -1,
		Patch: -1,
	}
	_, err := fmt.Sscanf(versionStr, "%d.%d.%d", &version.Major, &version.Minor, &version.Patch)
	if err != nil {
		// If the version string is not in the format "X.Y.Z", try parsing it as "X.Y"
		_, err = fmt.Sscanf(versionStr, "%d.%d", &version.Major, &version.Minor)
		if err != nil {
			// If the version string is not in the format "X.Y", try parsing it as "X"
			_, err = fmt.Sscanf(versionStr, "%d", &version.Major)
			if err != nil {
				return Version{}, fmt.Errorf("error parsing version: %v", err)
			}
		}
	}
	if version.Major < 0 || version.Minor < -1 || version.Patch < -1 {
		return Version{}, fmt.Errorf("invalid version: %s", versionStr)
	}
	return version, nil
}

// javaVersionRegex matches the quoted version in 'java -version' output,
// e.g. `openjdk version "17.0.1" 2021-10-19`.
var javaVersionRegex = regexp.MustCompile(`version "(([0-9]+\.)*[0-9]+)`)

// ParseJavaVersion parses output from "java -version".
//
// Handles both modern and legacy version schemes:
//   - `openjdk version "17.0.1" 2021-10-19` -> {17, 0, 1}
//   - `java version "1.8.0_312"` -> {8, 0, 312}
//
// The legacy "1.x" scheme is normalized so that 1.8.0_312 reports major
// version 8, matching the java.version system property convention.
func ParseJavaVersion(versionStr string) (Version, error) {
	flat := strings.ReplaceAll(strings.ReplaceAll(versionStr, "\n", " "), "\r", "")
	m := javaVersionRegex.FindStringSubmatch(flat)
	if m == nil {
		return Version{}, fmt.Errorf("inscrutable java version output: %s", versionStr)
	}
	v, err := ParseVersion(m[1])
	if err != nil {
		return Version{}, err
	}
	if v.Major == 1 && v.Minor >= 0 {
		// Legacy scheme: shift 1.8.0 -> 8.0, and pick up the
		// underscore update number as the patch when present.
		update := -1
		if i := strings.Index(flat, "_"); i >= 0 {
			tail := flat[i+1:]
			j := 0
			for j < len(tail) && tail[j] >= '0' && tail[j] <= '9' {
				j++
			}
			if j > 0 {
				update, _ = strconv.Atoi(tail[:j])
			}
		}
		v = Version{Major: v.Minor, Minor: v.Patch, Patch: update}
	}
	return v, nil
}

// ParseMavenVersion parses output from "mvn --version"
// (e.g., "Apache Maven 3.9.9 (8e8579a9e76f7d015ee5ec7bfcdc97d260186937)").
func ParseMavenVersion(versionStr string) (Version, error) {
	line := versionStr
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	parts := strings.Fields(line)
	if len(parts) < 3 || parts[0] != "Apache" || parts[1] != "Maven" {
		return Version{}, fmt.Errorf("invalid maven version string: %s", versionStr)
	}
	return ParseVersion(parts[2])
}

// Compare returns -1 if v < other, 0 if v == other, or 1 if v > other.
// Comparison is done component by component (major, then minor, then patch).
func (v *Version) Compare(other Version) int {
	if v.Major > other.Major {
		return 1
	}
	if v.Major < other.Major {
		return -1
	}
	if v.Minor > other.Minor {
		return 1
	}
	if v.Minor < other.Minor {
		return -1
	}
	if v.Patch > other.Patch {
		return 1
	}
	if v.Patch < other.Patch {
		return -1
	}
	return 0
}

// String returns the version as a string, omitting unspecified components.
// Examples: "17.0.1", "3.9", "21"
func (v *Version) String() string {
	if v.Patch != -1 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != -1 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d", v.Major)
}

// IsValid reports whether the version carries parsed components. The zero
// Version, left behind when e.g. no Maven installation was detected, is
// not valid.
func (v *Version) IsValid() bool {
	return *v != (Version{})
}
