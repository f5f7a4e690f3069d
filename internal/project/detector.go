// Package project locates the directory qtrend reads its settings from.
package project

import (
	"os"
	"path/filepath"
)

// Markers identify a settings directory, checked in order.
var Markers = []string{".qtrendrc.json", ".qtrendrc.yaml", ".qtrendrc.yml", ".env", ".git"}

// Info describes the detected settings directory.
type Info struct {
	Root      string
	Found     bool
	Marker    string
	HasConfig bool
	HasEnv    bool
}

// FindConfigDir searches for a settings directory starting from startPath
// and climbing up the directory tree. When none is found it returns the
// absolute start path and false.
func FindConfigDir(startPath string) (string, bool, error) {
	if startPath == "" {
		startPath = "."
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", false, err
	}

	currentDir := absPath
	for {
		if marker(currentDir) != "" {
			return currentDir, true, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}
	return absPath, false, nil
}

// Detect reports what the directory found from startPath holds.
func Detect(startPath string) (*Info, error) {
	root, found, err := FindConfigDir(startPath)
	if err != nil {
		return nil, err
	}

	info := &Info{Root: root, Found: found, Marker: marker(root)}
	for _, name := range Markers[:3] {
		if exists(filepath.Join(root, name)) {
			info.HasConfig = true
			break
		}
	}
	info.HasEnv = exists(filepath.Join(root, ".env"))
	return info, nil
}

// marker returns the first marker present in dir, or "".
func marker(dir string) string {
	for _, name := range Markers {
		if exists(filepath.Join(dir, name)) {
			return name
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
