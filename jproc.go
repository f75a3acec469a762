package scyjava

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

//go:embed scripts/Gateway.java
var gatewaySource string

// JavaProcess represents a running JVM subprocess hosting the gateway.
//
// The gateway is launched via the java single-file source launcher, so no
// compilation step or gateway jar is needed. Communication occurs through
// standard streams:
//   - Stdin/Stdout: length-prefixed MessagePack frames (the RPC channel)
//   - Stderr: JVM diagnostics, forwarded to the Go process's stderr
type JavaProcess struct {
	// Cmd is the underlying exec.Cmd for the JVM process.
	Cmd *exec.Cmd

	// Stdin is the write end of the process's standard input.
	Stdin io.WriteCloser

	// Stdout is the read end of the process's standard output.
	Stdout io.ReadCloser

	// Stderr is the read end of the process's standard error.
	Stderr io.ReadCloser

	// GatewayDir is the temporary directory holding the gateway source.
	GatewayDir string
}

// NewJavaProcess launches the gateway JVM with the given classpath and JVM
// options. The embedded gateway source is written to a temporary directory
// and handed to the java launcher. The returned process has its transport
// streams connected but no RPC machinery; use NewGatewayProcess for that.
//
// Requires Java 11 or newer for the single-file source launcher.
func (env *JavaEnvironment) NewJavaProcess(classpath []string, jvmOptions []string) (*JavaProcess, error) {
	if env.JavaVersion.Major < 11 {
		return nil, fmt.Errorf("gateway requires java 11 or newer, found %s", env.JavaVersion.String())
	}

	gatewayDir, err := os.MkdirTemp("", "scyjava-gateway-")
	if err != nil {
		return nil, fmt.Errorf("error creating gateway directory: %v", err)
	}
	sourcePath := filepath.Join(gatewayDir, "Gateway.java")
	if err := os.WriteFile(sourcePath, []byte(gatewaySource), 0644); err != nil {
		os.RemoveAll(gatewayDir)
		return nil, fmt.Errorf("error writing gateway source: %v", err)
	}

	args := make([]string, 0, len(jvmOptions)+4)
	args = append(args, jvmOptions...)
	if len(classpath) > 0 {
		args = append(args, "-cp", strings.Join(classpath, string(os.PathListSeparator)))
	}
	args = append(args, sourcePath)

	cmd := exec.Command(env.JavaPath, args...)
	cmd.Env = append(os.Environ(), "JAVA_HOME="+env.JavaHome)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(gatewayDir)
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		os.RemoveAll(gatewayDir)
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		os.RemoveAll(gatewayDir)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		os.RemoveAll(gatewayDir)
		return nil, fmt.Errorf("error starting gateway JVM: %v", err)
	}

	jp := &JavaProcess{
		Cmd:        cmd,
		Stdin:      stdinPipe,
		Stdout:     stdoutPipe,
		Stderr:     stderrPipe,
		GatewayDir: gatewayDir,
	}

	setupSignalHandler(jp)

	return jp, nil
}

// Wait blocks until the JVM process exits.
// Returns an error if the process was killed or exited with a non-zero status.
func (jp *JavaProcess) Wait() error {
	err := jp.Cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == -1 {
				return errors.New("child process was killed")
			}
		}
		return err
	}
	return nil
}

// Terminate gracefully stops the JVM process by sending SIGTERM.
// If the process doesn't exit within 5 seconds, it is forcefully killed.
// Returns nil if the process wasn't running or has already finished.
func (jp *JavaProcess) Terminate() error {
	defer os.RemoveAll(jp.GatewayDir)

	if jp.Cmd.Process == nil {
		return nil
	}

	err := jp.Cmd.Process.Signal(syscall.SIGTERM)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- jp.Cmd.Wait()
	}()

	select {
	case <-time.After(5 * time.Second):
		err = jp.Cmd.Process.Kill()
		if err != nil {
			return err
		}
		<-done
	case err = <-done:
	}

	return err
}

func setupSignalHandler(jp *JavaProcess) {
	signalChan := make(chan os.Signal, 1)
	setSignalsForChannel(signalChan)

	go func() {
		<-signalChan
		jp.Terminate()
	}()
}
