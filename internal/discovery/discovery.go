// Package discovery finds questionnaire input files and detects their format.
package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoInputs is returned when the given paths hold no supported input file.
var ErrNoInputs = errors.New("no input files found")

// TypePattern maps a glob pattern to a FileType for type detection.
// Patterns are matched in order; first match wins.
type TypePattern struct {
	Pattern  string
	FileType FileType
}

// typePatterns defines the canonical patterns for detecting input formats.
// They match case-insensitively against the slash-separated path.
var typePatterns = []TypePattern{
	{"**/*.json", FileTypeJSON},
	{"**/*.ndjson", FileTypeNDJSON},
	{"**/*.jsonl", FileTypeNDJSON},
	{"**/*.yaml", FileTypeYAML},
	{"**/*.yml", FileTypeYAML},
}

// DefaultExcludes are skipped during directory discovery: hidden files and
// directories, which include the qtrend config and baseline files.
var DefaultExcludes = []string{
	"**/.*",
	"**/.*/**",
	"**/node_modules/**",
}

// DetectFileType determines the input format from a file path using glob
// pattern matching on its extension.
//
// Example:
//
//	fileType, err := DetectFileType("exports/responses.yaml")
//	// fileType == FileTypeYAML
func DetectFileType(path string) (FileType, error) {
	slashed := strings.ToLower(filepath.ToSlash(path))

	for _, tp := range typePatterns {
		matched, err := doublestar.Match(tp.Pattern, slashed)
		if err != nil {
			continue
		}
		if matched {
			return tp.FileType, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return FileTypeUnknown, fmt.Errorf(
			"unsupported file: %s has no extension. qtrend reads .json, .ndjson, .jsonl, .yaml and .yml files", filepath.Base(path))
	}
	return FileTypeUnknown, fmt.Errorf(
		"unsupported file type: %s. qtrend reads .json, .ndjson, .jsonl, .yaml and .yml files", ext)
}

// ValidateFilePath checks that path names a readable, non-empty text file
// and returns its absolute path with symlinks resolved.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Lstat(absPath) // Lstat to detect symlinks
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		realPath, evalErr := filepath.EvalSymlinks(absPath)
		if evalErr != nil {
			return "", fmt.Errorf("cannot resolve symlink %s: %w", absPath, evalErr)
		}
		absPath = realPath
		info, err = os.Stat(absPath)
		if err != nil {
			return "", fmt.Errorf("symlink target inaccessible: %s: %w", absPath, err)
		}
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file is empty: %s", absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// File represents a discovered file with its metadata
type File struct {
	Path    string
	RelPath string
	Size    int64
	Type    FileType
}

// FileType categorizes discovered files by encoding.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeJSON
	FileTypeNDJSON
	FileTypeYAML
)

// String returns the human-readable name of the file type.
func (ft FileType) String() string {
	switch ft {
	case FileTypeJSON:
		return "json"
	case FileTypeNDJSON:
		return "ndjson"
	case FileTypeYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseFileType converts a string to a FileType.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FileTypeJSON, nil
	case "ndjson", "jsonl":
		return FileTypeNDJSON, nil
	case "yaml", "yml":
		return FileTypeYAML, nil
	default:
		return FileTypeUnknown, fmt.Errorf("invalid type %q: valid types are json, ndjson, yaml", s)
	}
}

// FileDiscovery manages file discovery operations
type FileDiscovery struct {
	rootPath       string
	followSymlinks bool
	excludes       []string
}

// NewFileDiscovery creates a new FileDiscovery instance. excludes are glob
// patterns relative to rootPath, applied on top of DefaultExcludes.
func NewFileDiscovery(rootPath string, followSymlinks bool, excludes ...string) *FileDiscovery {
	return &FileDiscovery{
		rootPath:       rootPath,
		followSymlinks: followSymlinks,
		excludes:       append(slices.Clone(DefaultExcludes), excludes...),
	}
}

// DiscoverFiles finds every supported input file under the root, in
// lexical path order.
func (fd *FileDiscovery) DiscoverFiles() ([]File, error) {
	var files []File
	seen := make(map[string]bool)

	for _, tp := range typePatterns {
		matches, err := doublestar.Glob(os.DirFS(fd.rootPath), tp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", tp.Pattern, err)
		}
		for _, match := range matches {
			if seen[match] || fd.excluded(match) {
				continue
			}
			f, ok := fd.processMatch(match, tp.FileType)
			if ok {
				seen[match] = true
				files = append(files, f)
			}
		}
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.RelPath, b.RelPath) })
	return files, nil
}

func (fd *FileDiscovery) excluded(match string) bool {
	for _, pattern := range fd.excludes {
		if ok, err := doublestar.Match(pattern, match); err == nil && ok {
			return true
		}
	}
	return false
}

// processMatch converts a glob match into a File, returning false if the match should be skipped.
func (fd *FileDiscovery) processMatch(match string, ft FileType) (File, bool) {
	fullPath := filepath.Join(fd.rootPath, match)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return File{}, false
	}

	if info.Mode()&os.ModeSymlink != 0 {
		resolved, resolvedInfo, ok := fd.resolveSymlink(fullPath)
		if !ok {
			return File{}, false
		}
		fullPath = resolved
		info = resolvedInfo
	}
	if info.IsDir() || info.Size() == 0 {
		return File{}, false
	}

	return File{
		Path:    fullPath,
		RelPath: filepath.ToSlash(match),
		Size:    info.Size(),
		Type:    ft,
	}, true
}

// resolveSymlink follows a symlink if configured, returning the resolved path and info.
// Returns false if the symlink should be skipped.
func (fd *FileDiscovery) resolveSymlink(fullPath string) (string, os.FileInfo, bool) {
	if !fd.followSymlinks {
		return "", nil, false
	}

	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return "", nil, false
	}

	root, err := filepath.EvalSymlinks(fd.rootPath)
	if err != nil || !strings.HasPrefix(realPath, root) {
		return "", nil, false
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", nil, false
	}

	return realPath, info, true
}

// Resolve expands command-line paths into input files. Directories are
// searched recursively; files are validated and typed by extension. Files
// named more than once are returned once. ErrNoInputs is returned when
// nothing usable is found.
func Resolve(paths []string, followSymlinks bool, excludes ...string) ([]File, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []File
	seen := make(map[string]bool)
	add := func(f File) {
		if !seen[f.Path] {
			seen[f.Path] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}

		if info.IsDir() {
			found, err := NewFileDiscovery(p, followSymlinks, excludes...).DiscoverFiles()
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}

		abs, err := ValidateFilePath(p)
		if err != nil {
			return nil, err
		}
		ft, err := DetectFileType(abs)
		if err != nil {
			return nil, err
		}
		add(File{Path: abs, RelPath: filepath.ToSlash(p), Size: info.Size(), Type: ft})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, strings.Join(paths, ", "))
	}
	return files, nil
}
