package tree

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/alucardeht/docsync/internal/logger"
)

var log = logger.ForComponent("scanner")

const DefaultMaxDepth = 64

type Scanner struct {
	Exclusions *Exclusions
	// MaxDepth is the deepest directory level kept in the tree, the root's
	// entries being level 1. Directories at that level are listed but their
	// contents are not read. Zero means DefaultMaxDepth.
	MaxDepth int
	// Strict turns an unreadable subtree into a scan failure instead of a
	// skipped entry.
	Strict bool
}

type ScanResult struct {
	Root *Node
	// Skipped lists subtrees that could not be read and were left out.
	Skipped []*FilesystemAccessError
	// DepthLimited lists directories that were kept empty because MaxDepth
	// was reached.
	DepthLimited []string
}

func NewScanner(ex *Exclusions) *Scanner {
	return &Scanner{Exclusions: ex, MaxDepth: DefaultMaxDepth}
}

// Scan reads root depth-first and returns its tree. Entries that are neither
// regular files nor directories are recorded as files and never followed.
func (s *Scanner) Scan(root string) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &FilesystemAccessError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &FilesystemAccessError{Path: root, Err: fmt.Errorf("not a directory")}
	}

	result := &ScanResult{Root: NewDir("")}
	if err := s.readDir(root, "", 0, result.Root, result); err != nil {
		return nil, err
	}

	log.Debug("scan complete", "root", root, "files", result.Root.CountFiles(), "skipped", len(result.Skipped))
	return result, nil
}

func (s *Scanner) readDir(dir, rel string, depth int, node *Node, result *ScanResult) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &FilesystemAccessError{Path: dir, Err: err}
	}

	maxDepth := s.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	for _, entry := range entries {
		name := entry.Name()
		relPath := path.Join(rel, name)

		if !entry.IsDir() {
			if s.Exclusions.SkipFile(name, relPath) {
				continue
			}
			node.Add(NewFile(name))
			continue
		}

		if s.Exclusions.SkipDir(name, relPath) {
			log.Debug("excluded directory", "path", relPath)
			continue
		}

		child := NewDir(name)
		if depth+1 >= maxDepth {
			log.Warn("max depth reached, not descending", "path", relPath, "max_depth", maxDepth)
			result.DepthLimited = append(result.DepthLimited, relPath)
			node.Add(child)
			continue
		}

		err := s.readDir(filepath.Join(dir, name), relPath, depth+1, child, result)
		if err != nil {
			accessErr, ok := err.(*FilesystemAccessError)
			if !ok || s.Strict {
				return err
			}
			log.Warn("skipping unreadable directory", "path", accessErr.Path, "error", accessErr.Err)
			result.Skipped = append(result.Skipped, accessErr)
			continue
		}
		node.Add(child)
	}

	return nil
}
