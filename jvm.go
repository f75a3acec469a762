package scyjava

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrJVMNotStarted is returned by operations that require a running JVM
// when Start has not been called.
var ErrJVMNotStarted = errors.New("the JVM is not running: call scyjava.Start first")

var (
	jvmMu      sync.Mutex
	jvmGateway *GatewayProcess
	jvmStarted bool
	startHooks []func()
	stopHooks  []func() error
)

// launchGateway spawns the gateway JVM for the given classpath and options.
// Tests substitute an in-memory implementation.
var launchGateway = func(env *JavaEnvironment, classpath []string, jvmOptions []string) (*GatewayProcess, error) {
	return env.NewGatewayProcess(classpath, jvmOptions)
}

// discoverEnvironment selects the Java installation Start will use.
// Tests substitute a stub.
var discoverEnvironment = currentEnvironment

// currentEnvironment selects a Java installation per the configured
// constraints: FetchNever uses only the system Java, FetchAlways always
// manages a downloaded distribution, and FetchAuto prefers the system Java
// when it satisfies the version constraint.
func currentEnvironment() (*JavaEnvironment, error) {
	fetch, vendor, version := JavaConstraints()

	if fetch != FetchAlways {
		env, err := CreateEnvironmentFromSystem()
		if err == nil {
			if fetch == FetchNever {
				return env, nil
			}
			minimum, perr := ParseVersion(version)
			if perr == nil && env.JavaVersion.Compare(minimum) >= 0 {
				return env, nil
			}
			Logger().Info("system java does not satisfy constraint",
				zap.String("found", env.JavaVersion.String()),
				zap.String("required", version))
		} else if fetch == FetchNever {
			return nil, fmt.Errorf("no system java available and fetching is disabled: %v", err)
		}
	}

	return CreateEnvironmentJDK(CacheDir(), vendor, version, nil)
}

// Start launches the JVM with the current configuration: endpoints are
// resolved via Maven, the classpath is assembled, the gateway process is
// spawned, and registered startup hooks run.
//
// Calling Start when the JVM is already running logs a warning and returns
// nil; the new options are NOT applied. Configuration must happen before the
// first Start.
func Start(options ...string) error {
	hooks, err := startJVM(options)
	if err != nil {
		return err
	}

	// Hooks run outside the lock so they can call back into the running
	// JVM (Import, ActiveGateway, converter registration).
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func startJVM(options []string) ([]func(), error) {
	jvmMu.Lock()
	defer jvmMu.Unlock()

	if jvmStarted {
		Logger().Warn("the JVM is already running; options are ignored",
			zap.Strings("options", options))
		return nil, nil
	}

	env, err := discoverEnvironment()
	if err != nil {
		return nil, fmt.Errorf("cannot obtain a java installation: %v", err)
	}
	Logger().Info("starting JVM",
		zap.String("java.home", env.JavaHome),
		zap.String("java.version", env.JavaVersion.String()))

	classpath := Classpath()
	if ManageDeps() {
		if endpoints := Endpoints(); len(endpoints) > 0 {
			eps, err := ParseEndpoints(joinEndpoints(endpoints))
			if err != nil {
				return nil, err
			}
			jars, err := NewResolver(env).Resolve(eps, nil)
			if err != nil {
				return nil, fmt.Errorf("cannot resolve endpoints: %v", err)
			}
			classpath = append(jars, classpath...)
		}
	}

	jvmOptions := append(Options(), options...)
	gateway, err := launchGateway(env, classpath, jvmOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot start the JVM: %v", err)
	}
	gateway.RegisterHandler("uncaught", handleUncaught)

	jvmGateway = gateway
	jvmStarted = true

	hooks := make([]func(), len(startHooks))
	copy(hooks, startHooks)
	return hooks, nil
}

// handleUncaught logs exception notifications pushed by the gateway when a
// JVM background thread dies. These never correlate with a pending request.
func handleUncaught(data interface{}, requestID string) (interface{}, error) {
	m, _ := data.(map[string]interface{})
	thread, _ := m["thread"].(string)
	fields := []zap.Field{zap.String("thread", thread)}
	if errMap, ok := m["error"].(map[string]interface{}); ok {
		fields = append(fields, zap.Error(javaExceptionFromMessage(errMap)))
	}
	Logger().Error("uncaught exception in JVM thread", fields...)
	return nil, nil
}

// joinEndpoints joins configured endpoint strings with '+' so that
// ParseEndpoints sees one combined coordinate list.
func joinEndpoints(endpoints []string) string {
	joined := ""
	for i, ep := range endpoints {
		if i > 0 {
			joined += "+"
		}
		joined += ep
	}
	return joined
}

// Started reports whether the JVM is currently running.
func Started() bool {
	jvmMu.Lock()
	defer jvmMu.Unlock()
	return jvmStarted
}

// ActiveGateway returns the gateway for the running JVM, or ErrJVMNotStarted.
func ActiveGateway() (*GatewayProcess, error) {
	jvmMu.Lock()
	defer jvmMu.Unlock()
	if !jvmStarted {
		return nil, ErrJVMNotStarted
	}
	return jvmGateway, nil
}

// WhenJVMStarts registers f to run when the JVM starts. If the JVM is
// already running, f runs immediately.
func WhenJVMStarts(f func()) {
	jvmMu.Lock()
	started := jvmStarted
	if !started {
		startHooks = append(startHooks, f)
	}
	jvmMu.Unlock()

	if started {
		f()
	}
}

// WhenJVMStops registers f to run during Shutdown, before the JVM process
// is terminated. Errors from hooks are logged, not propagated, so one
// failing hook cannot block the others.
func WhenJVMStops(f func() error) {
	jvmMu.Lock()
	defer jvmMu.Unlock()
	stopHooks = append(stopHooks, f)
}

// Shutdown stops the JVM: registered stop hooks run first, AWT windows are
// disposed so they cannot keep the JVM alive, and the gateway process is
// terminated. Calling Shutdown when no JVM is running is a no-op.
func Shutdown() error {
	jvmMu.Lock()
	if !jvmStarted {
		jvmMu.Unlock()
		return nil
	}
	gateway := jvmGateway
	hooks := stopHooks
	jvmStarted = false
	jvmGateway = nil
	jvmMu.Unlock()

	for _, hook := range hooks {
		if err := hook(); err != nil {
			Logger().Error("exception during shutdown callback", zap.Error(err))
		}
	}

	clearClassCache()
	gateway.SendCommand("dispose_windows", nil, 2, false)
	return gateway.Close()
}

// JVMVersion returns the version of the running JVM, or of the Java
// installation that would be used, if the JVM is not started yet.
func JVMVersion() (Version, error) {
	jvmMu.Lock()
	gateway, started := jvmGateway, jvmStarted
	jvmMu.Unlock()

	if started {
		result, err := gateway.Call("property", 0, map[string]interface{}{"key": "java.version"})
		if err != nil {
			return Version{}, err
		}
		s, ok := result.(string)
		if !ok {
			return Version{}, fmt.Errorf("unexpected java.version value: %v", result)
		}
		return ParseJavaVersion(`version "` + s + `"`)
	}

	env, err := discoverEnvironment()
	if err != nil {
		return Version{}, err
	}
	return env.JavaVersion, nil
}

// sysinfo fetches the gateway's runtime statistics map.
func sysinfo() (map[string]interface{}, error) {
	gateway, err := ActiveGateway()
	if err != nil {
		return nil, err
	}
	result, err := gateway.Call("sysinfo", 0, nil)
	if err != nil {
		return nil, err
	}
	info, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected sysinfo result: %v", result)
	}
	return info, nil
}

func sysinfoInt64(key string) (int64, error) {
	info, err := sysinfo()
	if err != nil {
		return 0, err
	}
	if !isInt(info[key]) {
		return 0, fmt.Errorf("unexpected %s value: %v", key, info[key])
	}
	return asInt64(info[key]), nil
}

// MemoryTotal returns the total amount of memory currently committed to
// the JVM, in bytes.
func MemoryTotal() (int64, error) {
	return sysinfoInt64("memory.total")
}

// MemoryMax returns the maximum amount of memory the JVM will attempt to
// use, in bytes.
func MemoryMax() (int64, error) {
	return sysinfoInt64("memory.max")
}

// MemoryUsed returns the amount of memory currently in use by the JVM,
// in bytes.
func MemoryUsed() (int64, error) {
	return sysinfoInt64("memory.used")
}

// AvailableProcessors returns the number of processors available to the JVM.
func AvailableProcessors() (int, error) {
	n, err := sysinfoInt64("processors")
	return int(n), err
}

// GC asks the JVM to run garbage collection.
func GC() error {
	gateway, err := ActiveGateway()
	if err != nil {
		return err
	}
	_, err = gateway.Call("gc", 0, nil)
	return err
}

// IsHeadless reports whether the JVM is running in headless mode.
func IsHeadless() (bool, error) {
	gateway, err := ActiveGateway()
	if err != nil {
		return false, err
	}
	result, err := gateway.Call("headless", 0, nil)
	if err != nil {
		return false, err
	}
	headless, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected headless value: %v", result)
	}
	return headless, nil
}

// SystemProperty returns a JVM system property value, or "" if unset.
func SystemProperty(key string) (string, error) {
	gateway, err := ActiveGateway()
	if err != nil {
		return "", err
	}
	result, err := gateway.Call("property", 0, map[string]interface{}{"key": key})
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected property value: %v", result)
	}
	return s, nil
}

// resetJVM clears all lifecycle state. Tests only.
func resetJVM() {
	jvmMu.Lock()
	defer jvmMu.Unlock()
	jvmGateway = nil
	jvmStarted = false
	startHooks = nil
	stopHooks = nil
}
