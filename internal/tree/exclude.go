package tree

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Exclusions decides which entries the scanner leaves out. Name sets match the
// entry's base name exactly. Patterns are doublestar globs matched against the
// slash-separated path relative to the scan root.
type Exclusions struct {
	Dirs     map[string]struct{}
	Files    map[string]struct{}
	Suffixes []string
	Patterns []string
}

func NewExclusions(dirs, files, suffixes, patterns []string) (*Exclusions, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", p)
		}
	}

	return &Exclusions{
		Dirs:     toSet(dirs),
		Files:    toSet(files),
		Suffixes: append([]string(nil), suffixes...),
		Patterns: append([]string(nil), patterns...),
	}, nil
}

func DefaultExclusions() *Exclusions {
	ex, _ := NewExclusions(
		[]string{"__pycache__", ".git", "node_modules", "venv"},
		[]string{".DS_Store", "thumbs.db", ".gitignore"},
		[]string{".pyc"},
		nil,
	)
	return ex
}

func (e *Exclusions) SkipDir(name, relPath string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.Dirs[name]; ok {
		return true
	}
	return e.matchPattern(relPath)
}

func (e *Exclusions) SkipFile(name, relPath string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.Files[name]; ok {
		return true
	}
	for _, suffix := range e.Suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return e.matchPattern(relPath)
}

func (e *Exclusions) matchPattern(relPath string) bool {
	for _, pattern := range e.Patterns {
		if match, _ := doublestar.Match(pattern, relPath); match {
			return true
		}
	}
	return false
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
