package knowledge

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile lists extra gitignore-style patterns inside the docs directory.
const IgnoreFile = ".searchignore"

// DefaultIgnorePatterns are common directories and files to skip.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"__pycache__",
	".cache",
	".idea",
	".vscode",
	".DS_Store",
	IgnoreFile,
}

// DefaultExtensions are the file types indexed when none are configured.
var DefaultExtensions = []string{".txt", ".md"}

// DefaultMaxFileSize caps the size of an indexed file.
const DefaultMaxFileSize int64 = 1 << 20

// ParseSize parses sizes like "512KiB", "1MB" or "1048576".
func ParseSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultMaxFileSize, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}
	return n, nil
}

// FileInfo is a file eligible for indexing.
type FileInfo struct {
	Path      string // relative to the docs root, slash-separated
	SizeBytes int64
}

// WalkResult contains the results of a docs walk.
type WalkResult struct {
	Files   []FileInfo
	Skipped int // eligible by extension but over the size cap
}

type ignoreMatcher interface{ MatchesPath(string) bool }

// loadIgnoreMatcher compiles the default patterns plus root/.searchignore.
func loadIgnoreMatcher(root string) ignoreMatcher {
	patterns := append([]string(nil), DefaultIgnorePatterns...)
	if f, err := os.Open(filepath.Join(root, IgnoreFile)); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
		f.Close()
	}
	return gitignore.CompileIgnoreLines(patterns...)
}

// eligible reports whether rel has one of the configured extensions.
func (o Options) eligible(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, e := range o.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Walk discovers indexable files under root. A missing root yields an empty
// result.
func Walk(root string, opts Options) (WalkResult, error) {
	opts = opts.withDefaults()
	var result WalkResult

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return result, nil
	}
	matcher := loadIgnoreMatcher(root)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&os.ModeSymlink != 0 || !opts.eligible(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > opts.MaxFileSize {
			result.Skipped++
			return nil
		}
		result.Files = append(result.Files, FileInfo{Path: rel, SizeBytes: info.Size()})
		return nil
	})
	if err != nil {
		return result, errors.Wrap(err, "walk docs")
	}
	return result, nil
}
