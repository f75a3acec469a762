package scyjava

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FetchMode controls whether a JDK and Maven distribution may be downloaded
// when none can be located on the system.
type FetchMode string

const (
	// FetchAuto downloads a JDK/Maven only when none is found on the system.
	FetchAuto FetchMode = "auto"

	// FetchAlways downloads and uses a cached JDK/Maven even when a system
	// installation exists.
	FetchAlways FetchMode = "always"

	// FetchNever disables downloading entirely; a missing JDK or Maven
	// installation becomes a startup error.
	FetchNever FetchMode = "never"
)

// Default Maven distribution used when none is found on the system.
const (
	defaultMavenURL = "https://dlcdn.apache.org/maven/maven-3/3.9.9/binaries/apache-maven-3.9.9-bin.tar.gz"
	defaultMavenSHA = "a555254d6b53d267965a3404ecb14e53c3827c09c3b94b5678835887ab404556bfaf78dcfe03ba76fa2508649dca8531c74bca4d5846513522404d48e8c4ac8b"
)

// config holds the process-global JVM and resolver configuration.
// All access goes through the exported package functions, which lock it.
type config struct {
	endpoints    []string
	repositories map[string]string
	options      []string
	classpath    []string
	shortcuts    map[string]string
	cacheDir     string
	m2Repo       string
	manageDeps   bool
	fetchJava    FetchMode
	javaVendor   string
	javaVersion  string
	mavenURL     string
	mavenSHA     string
}

var (
	cfgMu sync.Mutex
	cfg   = defaultConfig()
)

func defaultConfig() config {
	home, _ := os.UserHomeDir()
	return config{
		repositories: map[string]string{
			"scijava.public": "https://maven.scijava.org/content/groups/public",
		},
		shortcuts:   map[string]string{},
		cacheDir:    filepath.Join(home, ".scyjava", "cache"),
		m2Repo:      filepath.Join(home, ".m2", "repository"),
		manageDeps:  true,
		fetchJava:   FetchAuto,
		javaVendor:  "zulu-jre",
		javaVersion: "11",
		mavenURL:    defaultMavenURL,
		mavenSHA:    defaultMavenSHA,
	}
}

// AddEndpoints appends one or more Maven endpoints to be placed on the JVM
// class path at startup. An endpoint is a Maven coordinate of the form
// "groupId:artifactId[:version][:classifier]", for example
// "net.imagej:imagej:2.1.0". The first endpoint added is treated as the
// primary artifact; the remainder are sorted before resolution so that the
// same set always maps to the same resolver workspace.
func AddEndpoints(endpoints ...string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	Logger().Debug("adding endpoints", zap.Strings("endpoints", endpoints))
	cfg.endpoints = append(cfg.endpoints, endpoints...)
}

// Endpoints returns a copy of the configured Maven endpoints.
func Endpoints() []string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return append([]string(nil), cfg.endpoints...)
}

// ClearEndpoints removes all configured endpoints.
func ClearEndpoints() {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.endpoints = nil
}

// AddRepository registers a named Maven repository to be used when resolving
// endpoints, e.g. AddRepository("scijava.public",
// "https://maven.scijava.org/content/groups/public").
func AddRepository(name, url string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	Logger().Debug("adding repository", zap.String("name", name), zap.String("url", url))
	cfg.repositories[name] = url
}

// Repositories returns a copy of the configured Maven repositories.
func Repositories() map[string]string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	repos := make(map[string]string, len(cfg.repositories))
	for k, v := range cfg.repositories {
		repos[k] = v
	}
	return repos
}

// AddOption adds a single option to pass at JVM startup. Examples:
//
//	-Djava.awt.headless=true
//	-Xmx10g
//	--add-opens=java.base/java.lang=ALL-UNNAMED
//	-XX:+UnlockExperimentalVMOptions
func AddOption(option string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.options = append(cfg.options, option)
}

// AddOptions adds one or more options to pass at JVM startup.
func AddOptions(options ...string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.options = append(cfg.options, options...)
}

// Options returns a copy of the options to be passed at JVM startup.
func Options() []string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return append([]string(nil), cfg.options...)
}

// SetHeapMin sets the initial Java heap size: a shortcut for passing
// -Xms###m or -Xms###g to Java. Exactly one of mb or gb must be non-zero.
func SetHeapMin(mb, gb int) error {
	v, err := memValue(mb, gb)
	if err != nil {
		return err
	}
	AddOption("-Xms" + v)
	return nil
}

// SetHeapMax sets the maximum Java heap size: a shortcut for passing
// -Xmx###m or -Xmx###g to Java. Exactly one of mb or gb must be non-zero.
func SetHeapMax(mb, gb int) error {
	v, err := memValue(mb, gb)
	if err != nil {
		return err
	}
	AddOption("-Xmx" + v)
	return nil
}

func memValue(mb, gb int) (string, error) {
	if mb > 0 && gb == 0 {
		return fmt.Sprintf("%dm", mb), nil
	}
	if gb > 0 && mb == 0 {
		return fmt.Sprintf("%dg", gb), nil
	}
	return "", fmt.Errorf("exactly one of mb or gb must be given")
}

// EnableHeadlessMode configures the JVM to run without a display, preventing
// any graphical elements from popping up. Shortcut for passing
// -Djava.awt.headless=true to Java.
func EnableHeadlessMode() {
	AddOption("-Djava.awt.headless=true")
}

// EnableRemoteDebugging enables the JDWP debugger, listening on the given
// port of localhost. If suspend is true, the JVM pauses at startup until a
// client debugger connects.
func EnableRemoteDebugging(port int, suspend bool) {
	s := "n"
	if suspend {
		s = "y"
	}
	AddOption(fmt.Sprintf(
		"-agentlib:jdwp=transport=dt_socket,server=y,suspend=%s,address=localhost:%d", s, port))
}

// AddClasspath adds elements to the Java class path.
//
// See also FindJars, which can be combined with AddClasspath to add all the
// JARs beneath a given directory:
//
//	scyjava.AddClasspath(scyjava.FindJars("/path/to/folder-of-jars")...)
func AddClasspath(paths ...string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.classpath = append(cfg.classpath, paths...)
}

// Classpath returns a copy of the manually configured class path elements.
// Jars resolved from endpoints are not included; they are computed at JVM
// startup.
func Classpath() []string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return append([]string(nil), cfg.classpath...)
}

// FindJars finds .jar files beneath a given directory.
func FindJars(directory string) []string {
	var jars []string
	filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".jar") {
			jars = append(jars, path)
		}
		return nil
	})
	return jars
}

// SetCacheDir sets the location of the resolver workspace cache.
func SetCacheDir(dir string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	Logger().Debug("setting cache dir", zap.String("dir", dir), zap.String("was", cfg.cacheDir))
	cfg.cacheDir = dir
}

// CacheDir returns the location of the resolver workspace cache.
func CacheDir() string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return cfg.cacheDir
}

// SetM2Repo sets the location of the local Maven repository cache.
func SetM2Repo(dir string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.m2Repo = dir
}

// M2Repo returns the location of the local Maven repository cache.
func M2Repo() string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return cfg.m2Repo
}

// SetManageDeps sets whether the resolver re-resolves endpoint workspaces
// that already exist, keeping transitive dependency versions managed.
func SetManageDeps(manage bool) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.manageDeps = manage
}

// ManageDeps returns whether the resolver runs in managed mode.
func ManageDeps() bool {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return cfg.manageDeps
}

// AddShortcut registers a shortcut key/value used when evaluating endpoints.
// A shortcut endpoint is replaced by its expansion before parsing, so e.g.
// AddShortcut("fiji", "sc.fiji:fiji") makes "fiji" usable as an endpoint.
func AddShortcut(k, v string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg.shortcuts[k] = v
}

// Shortcuts returns a copy of the registered endpoint shortcuts.
func Shortcuts() map[string]string {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	shortcuts := make(map[string]string, len(cfg.shortcuts))
	for k, v := range cfg.shortcuts {
		shortcuts[k] = v
	}
	return shortcuts
}

// SetJavaConstraints sets constraints on the Java installation to be used.
//
// The fetch mode controls whether a JDK/JRE and Maven distribution are
// downloaded when missing (see FetchMode). The vendor and version describe
// the distribution to download, e.g. ("zulu-jre", "11") or ("temurin", "17").
// Empty arguments leave the current value unchanged.
func SetJavaConstraints(fetch FetchMode, vendor, version string) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if fetch != "" {
		switch fetch {
		case FetchAuto, FetchAlways, FetchNever:
			cfg.fetchJava = fetch
		default:
			return fmt.Errorf("fetch mode %q is not one of auto, always, never", fetch)
		}
	}
	if vendor != "" {
		cfg.javaVendor = vendor
	}
	if version != "" {
		cfg.javaVersion = version
	}
	return nil
}

// JavaConstraints returns the configured fetch mode, vendor, and version
// for Java installations. To set these values, see SetJavaConstraints.
func JavaConstraints() (FetchMode, string, string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return cfg.fetchJava, cfg.javaVendor, cfg.javaVersion
}

// SetMavenDistribution sets the URL and hash of the Maven binary
// distribution to download when Maven is not found on the system. The hash
// must be hex-encoded SHA-1, SHA-256, or SHA-512; pass an empty sha to skip
// verification of a custom URL.
func SetMavenDistribution(url, sha string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if url != "" {
		cfg.mavenURL = url
		cfg.mavenSHA = ""
	}
	if sha != "" {
		cfg.mavenSHA = sha
	}
}

// MavenDistribution returns the configured Maven distribution URL and hash.
func MavenDistribution() (string, string) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	return cfg.mavenURL, cfg.mavenSHA
}

// resetConfig restores the default configuration. Used by tests.
func resetConfig() {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg = defaultConfig()
}
