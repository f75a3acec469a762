package scyjava

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Endpoint identifies a Maven artifact to place on the classpath, in
// groupId:artifactId[:version[:classifier]] form. A missing version means
// "RELEASE", the newest release known to the remote repositories.
type Endpoint struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
}

// ParseEndpoint parses a single coordinate string. Registered shortcuts are
// applied to the whole string before parsing, so "sj" can expand to a full
// coordinate.
func ParseEndpoint(s string) (Endpoint, error) {
	s = applyShortcuts(s)

	parts := strings.Split(s, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: expected groupId:artifactId[:version[:classifier]]", s)
	}
	if len(parts) > 4 {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: too many components", s)
	}

	ep := Endpoint{GroupID: parts[0], ArtifactID: parts[1], Version: "RELEASE"}
	if len(parts) > 2 && parts[2] != "" {
		ep.Version = parts[2]
	}
	if len(parts) > 3 {
		ep.Classifier = parts[3]
	}
	return ep, nil
}

// ParseEndpoints parses a '+'-joined list of coordinates, applying shortcuts
// to each element.
func ParseEndpoints(joined string) ([]Endpoint, error) {
	var eps []Endpoint
	for _, s := range strings.Split(joined, "+") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ep, err := ParseEndpoint(s)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("no endpoints in %q", joined)
	}
	return eps, nil
}

// String renders the coordinate, omitting trailing defaults.
func (ep Endpoint) String() string {
	s := ep.GroupID + ":" + ep.ArtifactID
	if ep.Classifier != "" {
		return s + ":" + ep.Version + ":" + ep.Classifier
	}
	if ep.Version != "" && ep.Version != "RELEASE" {
		return s + ":" + ep.Version
	}
	return s
}

// applyShortcuts expands a registered shortcut, following chains until no
// shortcut matches. Longest keys win so overlapping shortcuts behave
// predictably.
func applyShortcuts(s string) string {
	shortcuts := Shortcuts()
	keys := make([]string, 0, len(shortcuts))
	for k := range shortcuts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for changed := true; changed; {
		changed = false
		for _, k := range keys {
			if s == k {
				s = shortcuts[k]
				changed = true
				break
			}
			if strings.HasPrefix(s, k+"+") {
				s = shortcuts[k] + s[len(k):]
				changed = true
				break
			}
		}
	}
	return s
}

// Resolver fetches Maven artifacts and their transitive dependencies into a
// per-endpoint-set workspace, producing a classpath of jar files.
//
// Each distinct set of endpoints gets its own workspace directory under the
// cache directory, keyed by the SHA-1 of the sorted coordinates. A workspace
// that already contains resolved jars is reused without invoking Maven,
// unless the fetch mode demands an update.
type Resolver struct {
	env *JavaEnvironment
}

// NewResolver returns a Resolver backed by the given Java environment.
// Maven availability is ensured lazily on first resolve.
func NewResolver(env *JavaEnvironment) *Resolver {
	return &Resolver{env: env}
}

// WorkspaceDir returns the cache workspace for a set of endpoints.
// Order does not matter: coordinates are sorted before hashing.
func WorkspaceDir(endpoints []Endpoint) string {
	coords := make([]string, len(endpoints))
	for i, ep := range endpoints {
		coords[i] = ep.String()
	}
	sort.Strings(coords)
	sum := sha1.Sum([]byte(strings.Join(coords, "+")))
	return filepath.Join(CacheDir(), hex.EncodeToString(sum[:]))
}

// Resolve fetches the given endpoints and their transitive dependencies,
// returning the absolute paths of all jars to place on the classpath.
//
// With FetchNever, Maven runs offline and resolution fails if artifacts are
// missing from the local repository. With FetchAlways, snapshot and RELEASE
// metadata is re-checked even when the workspace already has jars.
func (r *Resolver) Resolve(endpoints []Endpoint, progressCallback ProgressCallback) ([]string, error) {
	if len(endpoints) == 0 {
		return nil, nil
	}

	workspace := WorkspaceDir(endpoints)
	jarsDir := filepath.Join(workspace, "jars")
	fetch, _, _ := JavaConstraints()

	if fetch != FetchAlways {
		if jars := FindJars(jarsDir); len(jars) > 0 {
			Logger().Debug("reusing resolved workspace",
				zap.String("workspace", workspace),
				zap.Int("jars", len(jars)))
			return jars, nil
		}
	}

	if err := r.env.EnsureMaven(progressCallback); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("error creating workspace: %v", err)
	}

	pomPath := filepath.Join(workspace, "pom.xml")
	if err := os.WriteFile(pomPath, []byte(generatePOM(endpoints)), 0644); err != nil {
		return nil, fmt.Errorf("error writing pom: %v", err)
	}

	args := []string{
		"-B", "-f", pomPath,
		"dependency:copy-dependencies",
		"-DoutputDirectory=" + jarsDir,
		"-Dmdep.useRepositoryLayout=false",
	}
	if m2 := M2Repo(); m2 != "" {
		args = append(args, "-Dmaven.repo.local="+m2)
	}
	switch fetch {
	case FetchNever:
		args = append(args, "--offline")
	case FetchAlways:
		args = append(args, "--update-snapshots")
	}

	Logger().Info("resolving maven endpoints",
		zap.Stringers("endpoints", stringers(endpoints)),
		zap.String("workspace", workspace))

	cmd := exec.Command(r.env.MavenPath, args...)
	cmd.Env = append(os.Environ(), "JAVA_HOME="+r.env.JavaHome)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("maven resolution failed: %v\n%s", err, out)
	}
	if progressCallback != nil {
		progressCallback("Maven resolution complete", 100, 100)
	}

	jars := FindJars(jarsDir)
	if len(jars) == 0 {
		return nil, fmt.Errorf("maven resolution produced no jars in %s", jarsDir)
	}
	return jars, nil
}

// generatePOM builds a minimal pom.xml declaring the endpoints as
// dependencies and the configured remote repositories.
func generatePOM(endpoints []Endpoint) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.scijava</groupId>
  <artifactId>scyjava-bootstrap</artifactId>
  <version>0</version>
  <packaging>pom</packaging>
  <dependencies>
`)
	for _, ep := range endpoints {
		b.WriteString("    <dependency>\n")
		fmt.Fprintf(&b, "      <groupId>%s</groupId>\n", ep.GroupID)
		fmt.Fprintf(&b, "      <artifactId>%s</artifactId>\n", ep.ArtifactID)
		fmt.Fprintf(&b, "      <version>%s</version>\n", ep.Version)
		if ep.Classifier != "" {
			fmt.Fprintf(&b, "      <classifier>%s</classifier>\n", ep.Classifier)
		}
		b.WriteString("    </dependency>\n")
	}
	b.WriteString("  </dependencies>\n  <repositories>\n")

	repos := Repositories()
	names := make([]string, 0, len(repos))
	for name := range repos {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("    <repository>\n")
		fmt.Fprintf(&b, "      <id>%s</id>\n", name)
		fmt.Fprintf(&b, "      <url>%s</url>\n", repos[name])
		b.WriteString("    </repository>\n")
	}
	b.WriteString("  </repositories>\n</project>\n")
	return b.String()
}

func stringers(endpoints []Endpoint) []fmt.Stringer {
	out := make([]fmt.Stringer, len(endpoints))
	for i, ep := range endpoints {
		out[i] = ep
	}
	return out
}
