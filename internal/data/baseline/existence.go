package baseline

import (
	"log/slog"
	"os"
	"path/filepath"
)

// DiskExistence answers existence queries for root-relative paths against the local
// filesystem. Stat failures other than "not exist" count as present so an unreadable
// path never clears baseline entries.
type DiskExistence struct {
	Root string
}

func (d DiskExistence) Exists(path string) bool {
	full := filepath.FromSlash(path)
	if !filepath.IsAbs(full) {
		full = filepath.Join(d.Root, full)
	}
	_, err := os.Stat(full)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	slog.Warn("existence check failed, treating file as present", "path", full, "error", err)
	return true
}
