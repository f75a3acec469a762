package scyjava

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// JShellProcess provides interactive Java code execution where state
// persists between calls. It wraps a jshell subprocess in silent feedback
// mode and uses delimiter-based communication for reliable output capture.
//
// The snippet state persists, so variables defined in one Execute call
// remain available in subsequent calls:
//
//	repl, _ := env.NewJShell(nil)
//	repl.Execute("int x = 42;")
//	result, _ := repl.Execute("System.out.println(x * 2);")  // returns "84"
//
// JShellProcess is safe for concurrent use by multiple goroutines. Execute
// calls are serialized via an internal mutex; the underlying jshell
// evaluates snippets single-threaded regardless.
type JShellProcess struct {
	// Cmd is the underlying exec.Cmd for the jshell process.
	Cmd *exec.Cmd

	stdin  io.WriteCloser
	stdout *bufio.Reader

	// m protects concurrent access to the REPL
	m sync.Mutex

	// closed indicates the REPL has been terminated
	closed bool
}

// replDelimiter marks the end of snippet output using non-printable ASCII
// characters, so output boundaries never collide with user code output.
const replDelimiter = "\x01\x02\x03\n"

// replSentinel is the snippet that emits the delimiter after user code ran.
const replSentinel = "System.out.print(\"\\u0001\\u0002\\u0003\\n\");\n"

// NewJShell starts a jshell subprocess for the environment. The classpath
// entries, if any, are made available to the snippets. Requires a JDK
// installation; JRE-only environments have no jshell and return an error.
func (env *JavaEnvironment) NewJShell(classpath []string) (*JShellProcess, error) {
	if env.JShellPath == "" {
		return nil, fmt.Errorf("no jshell executable in %s (JRE-only installation?)", env.JavaHome)
	}

	args := []string{"-s"}
	if len(classpath) > 0 {
		args = append(args, "--class-path", strings.Join(classpath, string(os.PathListSeparator)))
	}

	cmd := exec.Command(env.JShellPath, args...)
	cmd.Env = append(os.Environ(), "JAVA_HOME="+env.JavaHome)
	cmd.Stderr = os.Stderr

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting jshell: %v", err)
	}

	return &JShellProcess{
		Cmd:    cmd,
		stdin:  stdinPipe,
		stdout: bufio.NewReader(stdoutPipe),
	}, nil
}

// Execute runs Java code in the REPL and returns the captured stdout.
//
// Execute blocks until the code completes and all output is received. The
// REPL maintains state between calls, so variables and imports persist.
// Compilation or runtime problems surface on the Go process's stderr, the
// way jshell reports them.
//
// Trailing whitespace is trimmed from the code; a trailing semicolon is the
// caller's responsibility, as in jshell itself.
func (jsp *JShellProcess) Execute(code string) (string, error) {
	jsp.m.Lock()
	defer jsp.m.Unlock()
	return jsp.execute(code)
}

func (jsp *JShellProcess) execute(code string) (string, error) {
	if jsp.closed {
		return "", fmt.Errorf("REPL process has been closed")
	}

	code = strings.TrimRight(code, " \t\n\r")
	if _, err := io.WriteString(jsp.stdin, code+"\n"+replSentinel); err != nil {
		return "", err
	}

	var result strings.Builder
	for {
		line, err := jsp.stdout.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}

		result.WriteString(line)

		if strings.HasSuffix(result.String(), replDelimiter) {
			output := strings.TrimSuffix(result.String(), replDelimiter)
			output = strings.TrimRight(output, "\n\r")
			return output, nil
		}

		if err == io.EOF {
			return "", fmt.Errorf("unexpected EOF")
		}
	}
}

// ExecuteWithTimeout runs Java code with a maximum execution time.
//
// If the timeout is exceeded, the jshell process is terminated and the REPL
// is marked as closed. Subsequent calls will return an error; create a new
// REPL if needed.
func (jsp *JShellProcess) ExecuteWithTimeout(code string, timeout time.Duration) (string, error) {
	jsp.m.Lock()
	defer jsp.m.Unlock()

	if jsp.closed {
		return "", fmt.Errorf("REPL process has been closed")
	}

	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		output, err := jsp.execute(code)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- output
	}()

	select {
	case output := <-resultCh:
		return output, nil
	case err := <-errCh:
		return "", err
	case <-time.After(timeout):
		// Evaluation cannot be interrupted cleanly once it overruns.
		jsp.Cmd.Process.Kill()
		jsp.closed = true
		return "", fmt.Errorf("execution timed out - jshell process terminated")
	}
}

// Close terminates the jshell process and releases resources.
// After Close, the REPL cannot be reused. Returns an error if already closed.
func (jsp *JShellProcess) Close() error {
	jsp.m.Lock()
	defer jsp.m.Unlock()

	if jsp.closed {
		return fmt.Errorf("REPL process has been closed")
	}
	jsp.closed = true

	jsp.stdin.Write([]byte("/exit\n"))
	jsp.stdin.Close()

	done := make(chan error, 1)
	go func() {
		done <- jsp.Cmd.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		jsp.Cmd.Process.Kill()
		return <-done
	}
}
