package scyjava

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Runtime defines common operations for any managed Java installation.
// This interface allows code to work with different installation types
// (system JDK, downloaded JRE, explicit executable) in a uniform way.
type Runtime interface {
	// Name returns the environment identifier.
	Name() string

	// Path returns the base environment path (JAVA_HOME).
	Path() string

	// BinPath returns the path to executables.
	BinPath() string

	// Freeze serializes the environment to a file for reproducibility.
	Freeze(filePath string) error
}

// BaseEnvironment contains common fields for any managed installation.
// It is embedded in runtime-specific environment types like JavaEnvironment.
type BaseEnvironment struct {
	// EnvironmentName is the identifier for this environment (e.g., "system", "jdk-11").
	EnvironmentName string

	// RootDir is the root directory containing the managed installation.
	RootDir string

	// EnvPath is the full path to the installation directory.
	EnvPath string

	// EnvBinPath is the path to the bin directory.
	EnvBinPath string

	// IsNew indicates whether this installation was newly downloaded (true)
	// or already existed (false).
	IsNew bool
}

// JavaEnvironment represents a Java installation with all necessary paths and
// version information. It can be created from the system Java, an explicit
// java executable, a downloaded distribution, or restored from a JSON
// specification file.
//
// The JavaEnvironment struct provides methods for launching the gateway
// process, resolving Maven artifacts, and running jshell.
type JavaEnvironment struct {
	// BaseEnvironment contains installation-agnostic fields.
	BaseEnvironment

	// JavaVersion is the detected Java version (e.g., 11.0.19).
	JavaVersion Version

	// JavaHome is the root of the Java installation.
	JavaHome string

	// JavaPath is the full path to the java executable.
	JavaPath string

	// JavacPath is the full path to the javac executable.
	// Empty for JRE-only installations.
	JavacPath string

	// JShellPath is the full path to the jshell executable.
	// Empty for JRE-only installations.
	JShellPath string

	// Vendor is the distribution vendor ("zulu-jre", "temurin", "system", ...).
	Vendor string

	// MavenPath is the full path to the mvn executable, once located.
	// Empty until EnsureMaven is called or a system mvn is detected.
	MavenPath string

	// MavenVersion is the detected Maven version, if MavenPath is set.
	MavenVersion Version
}

// Name returns the environment identifier.
// Implements the Runtime interface.
func (env *JavaEnvironment) Name() string {
	return env.EnvironmentName
}

// Path returns the base environment path.
// Implements the Runtime interface.
func (env *JavaEnvironment) Path() string {
	return env.EnvPath
}

// BinPath returns the path to executables.
// Implements the Runtime interface.
func (env *JavaEnvironment) BinPath() string {
	return env.EnvBinPath
}

// Freeze serializes the environment to a file for reproducibility.
// Implements the Runtime interface. This is an alias for FreezeToFile.
func (env *JavaEnvironment) Freeze(filePath string) error {
	return env.FreezeToFile(filePath)
}

// EnvironmentSpec represents a complete environment specification that can be
// serialized to JSON and used to recreate an equivalent setup on another
// machine. This is the format used by FreezeToFile and
// CreateEnvironmentFromJSONFile.
type EnvironmentSpec struct {
	// Name is the environment name.
	Name string `json:"name"`

	// JavaVersion is the Java version the environment was frozen with.
	JavaVersion string `json:"java_version,omitempty"`

	// Vendor is the distribution vendor.
	Vendor string `json:"vendor,omitempty"`

	// Endpoints lists the Maven endpoints active at freeze time.
	Endpoints []string `json:"endpoints,omitempty"`

	// Repositories maps repository names to URLs.
	Repositories map[string]string `json:"repositories,omitempty"`

	// MavenVersion optionally records the Maven version used.
	MavenVersion string `json:"maven_version,omitempty"`
}

// CreateEnvironmentJDK ensures a Java distribution of the given vendor and
// version exists under rootDir, downloading one if necessary, and returns a
// JavaEnvironment for it.
//
// Parameters:
//   - rootDir: Root directory for downloaded distributions
//   - vendor: Distribution vendor (e.g., "zulu-jre"); a vendor containing
//     "jre" selects a headless JRE image
//   - version: Java version to install (e.g., "11"); defaults to "11" if empty
//   - progressCallback: Optional callback for progress updates; may be nil
//
// If a matching installation already exists under rootDir it is reused and
// IsNew will be false.
func CreateEnvironmentJDK(rootDir, vendor, version string, progressCallback ProgressCallback) (*JavaEnvironment, error) {
	if vendor == "" {
		vendor = "zulu-jre"
	}
	if version == "" {
		version = "11"
	}

	if _, err := os.Stat(rootDir); os.IsNotExist(err) {
		if err := os.MkdirAll(rootDir, 0755); err != nil {
			return nil, fmt.Errorf("error creating directory: %v", err)
		}
	}
	if !isDirWritable(rootDir) {
		return nil, fmt.Errorf("root directory is not writable: %s", rootDir)
	}

	existed := findJavaHome(filepath.Join(rootDir, "jre-"+version)) != "" ||
		findJavaHome(filepath.Join(rootDir, "jdk-"+version)) != ""

	javaHome, err := ExpectJDK(rootDir, vendor, version, progressCallback)
	if err != nil {
		return nil, err
	}

	env, err := environmentFromHome(javaHome)
	if err != nil {
		return nil, err
	}
	env.EnvironmentName = fmt.Sprintf("jdk-%s", version)
	env.RootDir = rootDir
	env.Vendor = vendor
	env.IsNew = !existed

	requested, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("error parsing requested java version: %v", err)
	}
	if env.JavaVersion.Compare(requested) < 0 {
		return nil, fmt.Errorf("requested java version %s is not available, found %s",
			requested.String(), env.JavaVersion.String())
	}

	return env, nil
}

// CreateEnvironmentFromExecutable creates a JavaEnvironment from an existing
// java executable. This is useful when you have a specific Java installation
// you want to use.
func CreateEnvironmentFromExecutable(javaPath string) (*JavaEnvironment, error) {
	javaHome := filepath.Dir(filepath.Dir(javaPath))
	env, err := environmentFromHome(javaHome)
	if err != nil {
		return nil, err
	}
	env.JavaPath = javaPath
	env.EnvironmentName = "system"
	env.RootDir = javaHome
	env.Vendor = "system"
	return env, nil
}

// CreateEnvironmentFromSystem creates a JavaEnvironment using the system Java
// installation.
//
// JAVA_HOME is honored first; otherwise "java" is located via exec.LookPath.
// Returns an error if no Java installation is found.
func CreateEnvironmentFromSystem() (*JavaEnvironment, error) {
	if home := os.Getenv("JAVA_HOME"); home != "" {
		exe := "java"
		if runtime.GOOS == "windows" {
			exe = "java.exe"
		}
		javaPath := filepath.Join(home, "bin", exe)
		if _, err := os.Stat(javaPath); err == nil {
			return CreateEnvironmentFromExecutable(javaPath)
		}
	}

	javaPath, err := exec.LookPath("java")
	if err != nil {
		return nil, fmt.Errorf("no java installation found: %v", err)
	}
	// LookPath may return a symlink (e.g. /usr/bin/java); resolve it so
	// JAVA_HOME points at the real installation.
	if resolved, err := filepath.EvalSymlinks(javaPath); err == nil {
		javaPath = resolved
	}
	return CreateEnvironmentFromExecutable(javaPath)
}

// environmentFromHome probes a JAVA_HOME directory for executables and
// version information.
func environmentFromHome(javaHome string) (*JavaEnvironment, error) {
	exeSuffix := ""
	if runtime.GOOS == "windows" {
		exeSuffix = ".exe"
	}

	binDir := filepath.Join(javaHome, "bin")
	javaPath := filepath.Join(binDir, "java"+exeSuffix)
	if _, err := os.Stat(javaPath); err != nil {
		return nil, fmt.Errorf("no java executable at %s: %v", javaPath, err)
	}

	env := &JavaEnvironment{
		BaseEnvironment: BaseEnvironment{
			EnvPath:    javaHome,
			EnvBinPath: binDir,
		},
		JavaHome: javaHome,
		JavaPath: javaPath,
	}

	vout, err := RunReadCombined(javaPath, "-version")
	if err != nil {
		return nil, fmt.Errorf("error running java -version: %v", err)
	}
	env.JavaVersion, err = ParseJavaVersion(vout)
	if err != nil {
		return nil, fmt.Errorf("error parsing java version: %v", err)
	}

	// javac and jshell are absent from JRE-only images.
	javacPath := filepath.Join(binDir, "javac"+exeSuffix)
	if _, err := os.Stat(javacPath); err == nil {
		env.JavacPath = javacPath
	}
	jshellPath := filepath.Join(binDir, "jshell"+exeSuffix)
	if _, err := os.Stat(jshellPath); err == nil {
		env.JShellPath = jshellPath
	}

	if mvnPath, err := exec.LookPath("mvn"); err == nil {
		if mout, err := RunReadStdout(mvnPath, "--version"); err == nil {
			if mver, err := ParseMavenVersion(mout); err == nil {
				env.MavenPath = mvnPath
				env.MavenVersion = mver
			}
		}
	}

	return env, nil
}

// EnsureMaven guarantees that env.MavenPath points at a usable mvn
// executable, downloading the configured Maven distribution into the cache
// directory if no system Maven is available.
func (env *JavaEnvironment) EnsureMaven(progressCallback ProgressCallback) error {
	if env.MavenPath != "" {
		return nil
	}

	url, sha := MavenDistribution()
	mvnPath, err := ExpectMaven(CacheDir(), url, sha, progressCallback)
	if err != nil {
		return err
	}

	mout, err := RunReadStdout(mvnPath, "--version")
	if err != nil {
		return fmt.Errorf("error running mvn --version: %v", err)
	}
	mver, err := ParseMavenVersion(mout)
	if err != nil {
		return fmt.Errorf("error parsing maven version: %v", err)
	}

	env.MavenPath = mvnPath
	env.MavenVersion = mver
	return nil
}

// FreezeToFile writes a JSON specification of the environment and the active
// endpoint configuration, suitable for recreating an equivalent setup with
// CreateEnvironmentFromJSONFile.
func (env *JavaEnvironment) FreezeToFile(filePath string) error {
	spec := EnvironmentSpec{
		Name:        env.EnvironmentName,
		JavaVersion: env.JavaVersion.String(),
		Vendor:      env.Vendor,
		Endpoints:   Endpoints(),
	}
	if env.MavenVersion.IsValid() {
		spec.MavenVersion = env.MavenVersion.String()
	}

	repos := Repositories()
	if len(repos) > 0 {
		spec.Repositories = make(map[string]string, len(repos))
		for name, url := range repos {
			spec.Repositories[name] = url
		}
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing environment spec: %v", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing environment spec: %v", err)
	}
	return nil
}

// CreateEnvironmentFromJSONFile restores an environment from a specification
// previously written by FreezeToFile. The recorded endpoints and repositories
// are applied to the active configuration, and a Java installation matching
// the recorded vendor and version is ensured under rootDir.
func CreateEnvironmentFromJSONFile(filePath string, rootDir string, progressCallback ProgressCallback) (*JavaEnvironment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading environment spec: %v", err)
	}

	var spec EnvironmentSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("error parsing environment spec: %v", err)
	}

	for name, url := range spec.Repositories {
		AddRepository(name, url)
	}
	if len(spec.Endpoints) > 0 {
		AddEndpoints(spec.Endpoints...)
	}

	version := spec.JavaVersion
	if idx := strings.Index(version, "."); idx > 0 {
		// the major version is enough to select a distribution
		version = version[:idx]
	}

	env, err := CreateEnvironmentJDK(rootDir, spec.Vendor, version, progressCallback)
	if err != nil {
		return nil, err
	}
	if spec.Name != "" {
		env.EnvironmentName = spec.Name
	}
	return env, nil
}
