package scyjava

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEndpointConfig(t *testing.T) {
	resetConfig()
	defer resetConfig()

	AddEndpoints("net.imagej:imagej:2.1.0", "org.scijava:scijava-common")
	eps := Endpoints()
	if len(eps) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(eps))
	}
	if eps[0] != "net.imagej:imagej:2.1.0" {
		t.Errorf("Expected first endpoint preserved, got '%s'", eps[0])
	}

	// Returned slice is a copy.
	eps[0] = "mutated"
	if Endpoints()[0] != "net.imagej:imagej:2.1.0" {
		t.Error("Endpoints() should return a copy")
	}

	ClearEndpoints()
	if len(Endpoints()) != 0 {
		t.Error("Expected no endpoints after ClearEndpoints")
	}
}

func TestRepositoryConfig(t *testing.T) {
	resetConfig()
	defer resetConfig()

	repos := Repositories()
	if repos["scijava.public"] == "" {
		t.Error("Expected scijava.public repository by default")
	}

	AddRepository("example", "https://maven.example.com/releases")
	repos = Repositories()
	if repos["example"] != "https://maven.example.com/releases" {
		t.Errorf("Expected added repository, got '%s'", repos["example"])
	}
}

func TestHeapOptions(t *testing.T) {
	resetConfig()
	defer resetConfig()

	if err := SetHeapMin(512, 0); err != nil {
		t.Fatalf("SetHeapMin failed: %v", err)
	}
	if err := SetHeapMax(0, 4); err != nil {
		t.Fatalf("SetHeapMax failed: %v", err)
	}
	opts := Options()
	if len(opts) != 2 || opts[0] != "-Xms512m" || opts[1] != "-Xmx4g" {
		t.Errorf("Unexpected heap options: %v", opts)
	}

	if err := SetHeapMax(1, 1); err == nil {
		t.Error("Expected error when both mb and gb are given")
	}
	if err := SetHeapMax(0, 0); err == nil {
		t.Error("Expected error when neither mb nor gb is given")
	}
}

func TestHeadlessAndDebugOptions(t *testing.T) {
	resetConfig()
	defer resetConfig()

	EnableHeadlessMode()
	EnableRemoteDebugging(8000, true)
	opts := Options()
	if opts[0] != "-Djava.awt.headless=true" {
		t.Errorf("Unexpected headless option: '%s'", opts[0])
	}
	if !strings.Contains(opts[1], "suspend=y") || !strings.Contains(opts[1], "address=localhost:8000") {
		t.Errorf("Unexpected debug option: '%s'", opts[1])
	}
}

func TestJavaConstraints(t *testing.T) {
	resetConfig()
	defer resetConfig()

	fetch, vendor, version := JavaConstraints()
	if fetch != FetchAuto || vendor != "zulu-jre" || version != "11" {
		t.Errorf("Unexpected defaults: %s/%s/%s", fetch, vendor, version)
	}

	if err := SetJavaConstraints(FetchNever, "temurin", "17"); err != nil {
		t.Fatalf("SetJavaConstraints failed: %v", err)
	}
	fetch, vendor, version = JavaConstraints()
	if fetch != FetchNever || vendor != "temurin" || version != "17" {
		t.Errorf("Constraints not applied: %s/%s/%s", fetch, vendor, version)
	}

	// Empty arguments leave values unchanged.
	if err := SetJavaConstraints("", "", ""); err != nil {
		t.Fatalf("SetJavaConstraints with empty args failed: %v", err)
	}
	if _, v, _ := JavaConstraints(); v != "temurin" {
		t.Errorf("Expected vendor unchanged, got '%s'", v)
	}

	if err := SetJavaConstraints("sometimes", "", ""); err == nil {
		t.Error("Expected error for invalid fetch mode")
	}
}

func TestShortcutConfig(t *testing.T) {
	resetConfig()
	defer resetConfig()

	AddShortcut("fiji", "sc.fiji:fiji")
	shortcuts := Shortcuts()
	if shortcuts["fiji"] != "sc.fiji:fiji" {
		t.Errorf("Expected shortcut registered, got '%s'", shortcuts["fiji"])
	}
}

func TestMavenDistributionConfig(t *testing.T) {
	resetConfig()
	defer resetConfig()

	url, sha := MavenDistribution()
	if url == "" || sha == "" {
		t.Error("Expected a default Maven distribution with checksum")
	}

	// Setting a custom URL without a hash skips verification.
	SetMavenDistribution("https://example.com/maven.tar.gz", "")
	url, sha = MavenDistribution()
	if url != "https://example.com/maven.tar.gz" {
		t.Errorf("Unexpected URL: '%s'", url)
	}
	if sha != "" {
		t.Errorf("Expected empty hash for custom URL, got '%s'", sha)
	}
}

func TestFindJars(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		filepath.Join(dir, "a.jar"),
		filepath.Join(sub, "b.JAR"),
		filepath.Join(dir, "notes.txt"),
	} {
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	jars := FindJars(dir)
	if len(jars) != 2 {
		t.Errorf("Expected 2 jars, got %d: %v", len(jars), jars)
	}
}

func TestClasspathConfig(t *testing.T) {
	resetConfig()
	defer resetConfig()

	AddClasspath("/opt/jars/foo.jar", "/opt/jars/bar.jar")
	cp := Classpath()
	if len(cp) != 2 || cp[1] != "/opt/jars/bar.jar" {
		t.Errorf("Unexpected classpath: %v", cp)
	}
}
