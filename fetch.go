package scyjava

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// ProgressCallback is called during long-running operations to report progress.
// The message describes the current operation, current is the progress value,
// and total is the expected total (-1 if unknown).
type ProgressCallback func(message string, current, total int64)

// ExpectJDK ensures a JDK/JRE distribution of the given vendor and version
// is present under rootDir, downloading and unpacking one if necessary.
// Returns the JAVA_HOME of the installation.
//
// Distributions are fetched from the Adoptium API by platform and
// architecture. A vendor string containing "jre" selects the smaller JRE
// image; anything else selects a full JDK. The download is skipped when a
// matching installation already exists under rootDir.
func ExpectJDK(rootDir, vendor, version string, progressCallback ProgressCallback) (string, error) {
	imageType := "jdk"
	if strings.Contains(strings.ToLower(vendor), "jre") {
		imageType = "jre"
	}

	installDir := filepath.Join(rootDir, fmt.Sprintf("%s-%s", imageType, version))
	if home := findJavaHome(installDir); home != "" {
		return home, nil
	}

	osName := runtime.GOOS
	switch osName {
	case "darwin":
		osName = "mac"
	}
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "aarch64"
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}

	ext := ".tar.gz"
	if runtime.GOOS == "windows" {
		ext = ".zip"
	}

	url := fmt.Sprintf(
		"https://api.adoptium.net/v3/binary/latest/%s/ga/%s/%s/%s/hotspot/normal/eclipse",
		version, osName, arch, imageType)

	Logger().Info("fetching java distribution",
		zap.String("vendor", vendor),
		zap.String("version", version),
		zap.String("url", url))

	archivePath := filepath.Join(rootDir, "download-"+imageType+"-"+version+ext)
	if err := downloadFile(url, archivePath, "Downloading Java...", progressCallback); err != nil {
		return "", fmt.Errorf("error downloading java distribution: %v", err)
	}
	defer os.Remove(archivePath)

	if err := extractArchive(archivePath, installDir); err != nil {
		return "", fmt.Errorf("error extracting java distribution: %v", err)
	}

	if progressCallback != nil {
		progressCallback("Java distribution installed", 100, 100)
	}

	home := findJavaHome(installDir)
	if home == "" {
		return "", fmt.Errorf("no java executable found inside: %s", installDir)
	}
	return home, nil
}

// ExpectMaven ensures an Apache Maven distribution is present under rootDir,
// downloading and unpacking the configured distribution if necessary.
// The archive's checksum is verified when sha is non-empty; the hash kind
// (SHA-1, SHA-256, SHA-512) is inferred from its hex length.
// Returns the path to the mvn executable.
func ExpectMaven(rootDir, url, sha string, progressCallback ProgressCallback) (string, error) {
	installDir := filepath.Join(rootDir, "maven")
	if mvn := findMavenBin(installDir); mvn != "" {
		return mvn, nil
	}

	Logger().Info("fetching maven distribution", zap.String("url", url))

	ext := ".tar.gz"
	if strings.HasSuffix(url, ".zip") {
		ext = ".zip"
	}
	archivePath := filepath.Join(rootDir, "download-maven"+ext)
	if err := downloadFile(url, archivePath, "Downloading Maven...", progressCallback); err != nil {
		return "", fmt.Errorf("error downloading maven distribution: %v", err)
	}
	defer os.Remove(archivePath)

	if sha != "" {
		if err := verifyChecksum(archivePath, sha); err != nil {
			return "", fmt.Errorf("maven distribution failed verification: %v", err)
		}
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return "", fmt.Errorf("error extracting maven distribution: %v", err)
	}

	if progressCallback != nil {
		progressCallback("Maven distribution installed", 100, 100)
	}

	mvn := findMavenBin(installDir)
	if mvn == "" {
		return "", fmt.Errorf("no mvn executable found inside: %s", installDir)
	}
	return mvn, nil
}

// findJavaHome locates a bin/java executable beneath dir and returns the
// directory containing bin, or "" if none exists. Archives typically unpack
// into a single versioned top-level directory.
func findJavaHome(dir string) string {
	exe := "java"
	if runtime.GOOS == "windows" {
		exe = "java.exe"
	}
	var home string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || home != "" {
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Name() == exe && filepath.Base(filepath.Dir(path)) == "bin" {
			home = filepath.Dir(filepath.Dir(path))
			return filepath.SkipDir
		}
		return nil
	})
	return home
}

// findMavenBin locates a bin/mvn executable beneath dir.
func findMavenBin(dir string) string {
	exe := "mvn"
	if runtime.GOOS == "windows" {
		exe = "mvn.cmd"
	}
	var mvn string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || mvn != "" {
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Name() == exe && filepath.Base(filepath.Dir(path)) == "bin" {
			mvn = path
			return filepath.SkipDir
		}
		return nil
	})
	return mvn
}

// downloadFile fetches url into dest, reporting progress as bytes arrive.
func downloadFile(url, dest, message string, progressCallback ProgressCallback) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if progressCallback != nil {
				progressCallback(message, written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return nil
}

// verifyChecksum checks the file at path against a hex-encoded hash,
// inferring the algorithm from the hash length: 40 for SHA-1, 64 for
// SHA-256, 128 for SHA-512.
func verifyChecksum(path, sha string) error {
	var h hash.Hash
	switch len(sha) {
	case 40:
		h = sha1.New()
	case 64:
		h = sha256.New()
	case 128:
		h = sha512.New()
	default:
		return fmt.Errorf("hash must be a valid sha1, sha256, or sha512 hex digest; got length %d", len(sha))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, sha) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", sha, got)
	}
	return nil
}

// extractArchive unpacks a .tar.gz or .zip archive into dir.
func extractArchive(archivePath, dir string) error {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractZip(archivePath, dir)
	}
	return extractTarGz(archivePath, dir)
}

func extractTarGz(archivePath, dir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			os.MkdirAll(filepath.Dir(target), 0755)
			os.Symlink(hdr.Linkname, target)
		}
	}
	return nil
}

func extractZip(archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, file := range zr.File {
		target, err := securePath(dir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// securePath joins base and name, rejecting entries that escape base.
func securePath(base, name string) (string, error) {
	target := filepath.Join(base, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(base)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}
