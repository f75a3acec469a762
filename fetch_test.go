package scyjava

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	content := []byte("scyjava test content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])
	if err := verifyChecksum(path, good); err != nil {
		t.Errorf("Expected matching checksum to verify, got %v", err)
	}

	// Case-insensitive comparison.
	if err := verifyChecksum(path, strings.ToUpper(good)); err != nil {
		t.Errorf("Expected uppercase hash to verify, got %v", err)
	}

	bad := "0" + good[1:]
	if bad == good {
		bad = "1" + good[1:]
	}
	if err := verifyChecksum(path, bad); err == nil {
		t.Error("Expected mismatch error for wrong checksum")
	}

	if err := verifyChecksum(path, "deadbeef"); err == nil {
		t.Error("Expected error for unrecognized hash length")
	}
}

func TestSecurePath(t *testing.T) {
	base := filepath.Join(string(os.PathSeparator), "tmp", "dest")

	if _, err := securePath(base, "apache-maven-3.9.9/bin/mvn"); err != nil {
		t.Errorf("Expected normal entry to pass, got %v", err)
	}
	if _, err := securePath(base, "../escape"); err == nil {
		t.Error("Expected traversal entry to be rejected")
	}
	if _, err := securePath(base, "../../etc/passwd"); err == nil {
		t.Error("Expected deep traversal entry to be rejected")
	}
}

func TestFindJavaHome(t *testing.T) {
	dir := t.TempDir()

	if home := findJavaHome(dir); home != "" {
		t.Errorf("Expected no java home in empty dir, got '%s'", home)
	}

	// Archives unpack into a versioned top-level directory.
	javaHome := filepath.Join(dir, "jdk-17.0.8+7")
	binDir := filepath.Join(javaHome, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := "java"
	if os.PathSeparator == '\\' {
		exe = "java.exe"
	}
	if err := os.WriteFile(filepath.Join(binDir, exe), []byte("#!"), 0o755); err != nil {
		t.Fatal(err)
	}

	if home := findJavaHome(dir); home != javaHome {
		t.Errorf("Expected java home '%s', got '%s'", javaHome, home)
	}
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "dist.tar.gz")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	content := []byte("#!/bin/sh\necho mvn\n")
	for _, entry := range []struct {
		name string
		dir  bool
	}{
		{"apache-maven-3.9.9/", true},
		{"apache-maven-3.9.9/bin/", true},
	} {
		hdr := &tar.Header{Name: entry.name, Mode: 0o755, Typeflag: tar.TypeDir}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
	}
	hdr := &tar.Header{
		Name: "apache-maven-3.9.9/bin/mvn", Mode: 0o755,
		Size: int64(len(content)), Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	if err := extractArchive(archive, dest); err != nil {
		t.Fatalf("Failed to extract archive: %v", err)
	}

	extracted := filepath.Join(dest, "apache-maven-3.9.9", "bin", "mvn")
	data, err := os.ReadFile(extracted)
	if err != nil {
		t.Fatalf("Expected extracted file: %v", err)
	}
	if string(data) != string(content) {
		t.Error("Extracted content does not match")
	}

	if os.PathSeparator != '\\' {
		if mvn := findMavenBin(dest); mvn != extracted {
			t.Errorf("Expected mvn at '%s', got '%s'", extracted, mvn)
		}
	}
}

func TestExtractTarGzRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	content := []byte("owned")
	hdr := &tar.Header{
		Name: "../outside", Mode: 0o644,
		Size: int64(len(content)), Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	tw.Close()
	gz.Close()
	f.Close()

	if err := extractArchive(archive, filepath.Join(dir, "out")); err == nil {
		t.Error("Expected traversal entry to abort extraction")
	}
}
