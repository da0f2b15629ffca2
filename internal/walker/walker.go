package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest document picked up by a walk (64 MB).
const DefaultMaxFileSize int64 = 64 << 20

// FileInfo describes one document found on disk.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the walk root, slash separated.
	Size        int64
	Format      string // Lowercased extension without the dot.
	ContentHash string // SHA-256 hex digest of the file content.
}

// Config controls Walk.
type Config struct {
	RootDir     string
	Formats     []string // allowed extensions; empty accepts all
	Include     []string // doublestar patterns; only matching files are kept
	Exclude     []string // doublestar patterns; matching files are dropped
	MaxFileSize int64    // 0 uses DefaultMaxFileSize
}

// Walk traverses config.RootDir and returns every document that passes the
// format, include, exclude and .gitignore filters, sorted by RelPath.
func Walk(config Config) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !matchesFormat(name, config.Formats) {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) || MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		fi, ok := describe(path, relPath, maxSize)
		if ok {
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Expand resolves command line arguments into documents. Each argument may
// be a file, a directory (walked recursively) or a doublestar glob.
// Duplicates are collapsed.
func Expand(args []string, config Config) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var out []FileInfo
	add := func(fis ...FileInfo) {
		for _, fi := range fis {
			if !seen[fi.Path] {
				seen[fi.Path] = true
				out = append(out, fi)
			}
		}
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			c := config
			c.RootDir = arg
			fis, err := Walk(c)
			if err != nil {
				return nil, err
			}
			add(fis...)

		case err == nil:
			// Explicit files bypass the format filter so the loader can
			// report them as unsupported.
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, fmt.Errorf("walker: resolve %s: %w", arg, err)
			}
			if fi, ok := describe(abs, filepath.Base(abs), maxSize); ok {
				add(fi)
			}

		default:
			matches, globErr := doublestar.FilepathGlob(arg)
			if globErr != nil {
				return nil, fmt.Errorf("walker: bad pattern %q: %w", arg, globErr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("walker: no files match %q", arg)
			}
			for _, m := range matches {
				st, err := os.Stat(m)
				if err != nil || !st.Mode().IsRegular() || !matchesFormat(m, config.Formats) {
					continue
				}
				abs, err := filepath.Abs(m)
				if err != nil {
					continue
				}
				if fi, ok := describe(abs, filepath.ToSlash(m), maxSize); ok {
					add(fi)
				}
			}
		}
	}
	return out, nil
}

func describe(path, relPath string, maxSize int64) (FileInfo, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxSize {
		return FileInfo{}, false
	}
	hash, err := hashFile(path)
	if err != nil {
		return FileInfo{}, false
	}
	return FileInfo{
		Path:        path,
		RelPath:     filepath.ToSlash(relPath),
		Size:        info.Size(),
		Format:      strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		ContentHash: hash,
	}, true
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative path matches any gitignore pattern.
func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)
	parts := strings.Split(normalized, "/")

	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			if matched, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), normalized); matched {
				return true
			}
			continue
		}

		// A slashless pattern matches any component; dir-only patterns skip
		// the file name itself.
		last := len(parts)
		if dirOnly {
			last--
		}
		for _, part := range parts[:last] {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}
