// Package discover locates cookbook roots inside a checked-out repository
// tree. A directory is a cookbook root iff it directly contains the marker
// file and at least one of the marker subdirectories.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Options struct {
	// MarkerFile is the file a cookbook root must directly contain.
	MarkerFile string

	// MarkerDirs are the subdirectory names of which at least one must
	// exist next to the marker file.
	MarkerDirs []string

	// MaxDepth bounds the search: marker files whose path has more than
	// MaxDepth components relative to the tree root are ignored. This
	// protects against crawling pathological monorepos.
	MaxDepth int
}

// CookbookRoots walks the tree under root and returns the deduplicated list
// of cookbook root paths, relative to root and slash-separated. The order is
// stable across runs: shortest paths first, ties broken lexicographically,
// so shallow cookbooks are processed before deeply nested ones. The
// repository root itself may qualify, in which case it is returned as ".".
func CookbookRoots(root string, opts Options) ([]string, error) {
	seen := make(map[string]struct{})

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			// A marker file inside this directory would sit one component
			// deeper than the directory itself.
			if rel != "." && depth(rel) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() != opts.MarkerFile {
			return nil
		}
		if depth(rel) > opts.MaxDepth {
			return nil
		}

		base := filepath.Dir(path)
		if !hasMarkerDir(base, opts.MarkerDirs) {
			return nil
		}

		relBase, relErr := filepath.Rel(root, base)
		if relErr != nil {
			return nil
		}
		seen[filepath.ToSlash(relBase)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(seen))
	for r := range seen {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool {
		if len(roots[i]) != len(roots[j]) {
			return len(roots[i]) < len(roots[j])
		}
		return roots[i] < roots[j]
	})
	return roots, nil
}

func hasMarkerDir(base string, names []string) bool {
	for _, name := range names {
		if info, err := os.Stat(filepath.Join(base, name)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// depth counts path components of a slash-separated relative path.
func depth(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
