// Package configstore implements spec.md §6/§7: the flat binary
// configuration files, the day-numbered JSON-array log files, and
// factory reset.
package configstore

import (
	"os"
	"path/filepath"
	"runtime"
)

// ResolveRuntimeDir resolves the directory every persisted file path is
// relative to, per spec.md §6: from /proc/self/exe on Linux, "./"
// otherwise. The resolution happens once at process start; callers pass
// the result into New.
func ResolveRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if exe, err := os.Readlink("/proc/self/exe"); err == nil {
			return filepath.Dir(exe)
		}
	}
	return "."
}

// Store owns every persisted file under runtimeDir/data.
type Store struct {
	dataDir string
}

// New returns a Store rooted at runtimeDir/data, creating the directory
// if absent.
func New(runtimeDir string) (*Store, error) {
	dir := filepath.Join(runtimeDir, "data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dataDir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// LogDir is the logs/ subdirectory holding day-numbered JSON-array log
// files.
func (s *Store) LogDir() string {
	return filepath.Join(s.dataDir, "logs")
}
