package store

import (
	"os"
	"path/filepath"
)

const dirName = ".swipedo"

// Store locates a todo workspace on disk.
type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .swipedo directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir prefers a discovered .swipedo directory and otherwise falls back
// to the per-user one.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return ConfigDir()
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, "todos.sqlite")
}

// LogPath is where the rotating log file lives for this workspace.
func (s Store) LogPath() string {
	return filepath.Join(s.Dir, "swipedo.log")
}
