package scyjava

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RunReadStdout runs the executable at path with the given arguments and
// returns its trimmed standard output.
func RunReadStdout(path string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RunReadCombined runs the executable at path and returns its trimmed
// combined stdout and stderr. The java launcher historically prints
// "-version" output to stderr, so stdout alone is not enough.
func RunReadCombined(path string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// isDirWritable reports whether the directory can be written to by
// creating and removing a probe file.
func isDirWritable(dir string) bool {
	probe := filepath.Join(dir, ".scyjava-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
