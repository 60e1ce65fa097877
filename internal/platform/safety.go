package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataDir determines where the database, session and secret live.
// When forceTemp is set the directory is re-rooted under the system temp dir
// (unless it already is there), so dev runs never touch the real data.
func ResolveDataDir(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return DefaultDataDir()
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if userPath != "" {
		if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	sub := "default"
	if userPath != "" {
		if base := filepath.Base(clean); base != "." && base != string(os.PathSeparator) {
			sub = strings.TrimPrefix(base, ".")
		}
	}
	return filepath.Join(os.TempDir(), "jot-dev", sub)
}

// DefaultDataDir is the project's .jot directory when run inside a jot
// project, else ~/.jot.
func DefaultDataDir() string {
	if wd, err := os.Getwd(); err == nil {
		if root, err := FindRoot(wd); err == nil {
			return filepath.Join(root, SystemDir)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, SystemDir)
	}
	return SystemDir
}
