package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides which files are test documents. Patterns are matched
// against base names.
type Matcher struct {
	include      []glob.Glob
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewMatcher(include, excludeDirs, excludeFiles []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compile(include); err != nil {
		return nil, err
	}
	if m.excludeDirs, err = compile(excludeDirs); err != nil {
		return nil, err
	}
	if m.excludeFiles, err = compile(excludeFiles); err != nil {
		return nil, err
	}
	return m, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// SkipDir reports whether the directory at path is excluded.
func (m *Matcher) SkipDir(path string) bool {
	return matchAny(m.excludeDirs, filepath.Base(path))
}

// MatchFile reports whether path names an input document. With no include
// patterns every file not excluded matches.
func (m *Matcher) MatchFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if len(m.include) > 0 && !matchAny(m.include, base) {
		return false
	}
	return !matchAny(m.excludeFiles, base)
}

// Discover expands roots into the sorted list of matching files. A root
// that is a file is returned as is, without matching.
func (m *Matcher) Discover(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && m.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if m.MatchFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
