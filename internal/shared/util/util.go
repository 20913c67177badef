package util

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}

// OpenInput opens path for reading, or stdin when path is empty or "-".
// Closing the returned reader never closes stdin.
func OpenInput(path string) (io.ReadCloser, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// IsStdin reports whether path designates standard input.
func IsStdin(path string) bool {
	path = strings.TrimSpace(path)
	return path == "" || path == "-"
}
