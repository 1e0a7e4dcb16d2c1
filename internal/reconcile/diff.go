package reconcile

import (
	"fmt"
	"path"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/tree"
)

// FindMissing returns the part of dir that has no entry in store: files as
// empty annotations, folders only when something below them is missing.
// A file whose store entry is a group counts as present; a folder whose
// store entry is an annotation is compared against an empty group.
func FindMissing(dir *tree.Node, store *annotations.Group) *annotations.Group {
	missing := annotations.NewGroup()

	for _, file := range dir.Files() {
		if !store.Has(file.Name) {
			missing.Set(file.Name, annotations.Annotation(""))
		}
	}

	for _, sub := range dir.Dirs() {
		subMissing := FindMissing(sub, store.Sub(sub.Name))
		if subMissing.Len() > 0 {
			missing.Set(sub.Name, subMissing)
		}
	}

	return missing
}

// Conflict is a position where the tree and the store disagree on whether
// the entry is a file or a folder.
type Conflict struct {
	Path string    `json:"path"`
	Kind tree.Kind `json:"on_disk"`
}

func (c Conflict) String() string {
	if c.Kind == tree.Dir {
		return fmt.Sprintf("%s: folder on disk, annotation in store", c.Path)
	}
	return fmt.Sprintf("%s: file on disk, folder in store", c.Path)
}

func FindConflicts(dir *tree.Node, store *annotations.Group) []Conflict {
	var conflicts []Conflict
	findConflicts(dir, store, "", &conflicts)
	return conflicts
}

func findConflicts(dir *tree.Node, store *annotations.Group, prefix string, out *[]Conflict) {
	for _, child := range dir.Children() {
		v, ok := store.Get(child.Name)
		if !ok {
			continue
		}
		p := path.Join(prefix, child.Name)

		switch val := v.(type) {
		case annotations.Annotation:
			if child.IsDir() {
				*out = append(*out, Conflict{Path: p, Kind: tree.Dir})
			}
		case *annotations.Group:
			if !child.IsDir() {
				*out = append(*out, Conflict{Path: p, Kind: tree.File})
				continue
			}
			findConflicts(child, val, p, out)
		}
	}
}

// Paths flattens a missing set into slash-separated leaf paths, folders
// suffixed with "/" when they are empty.
func Paths(g *annotations.Group) []string {
	var out []string
	collectPaths(g, "", &out)
	return out
}

func collectPaths(g *annotations.Group, prefix string, out *[]string) {
	for _, k := range g.Keys() {
		v, _ := g.Get(k)
		p := path.Join(prefix, k)
		if sub, ok := v.(*annotations.Group); ok {
			if sub.Len() == 0 {
				*out = append(*out, p+"/")
				continue
			}
			collectPaths(sub, p, out)
			continue
		}
		*out = append(*out, p)
	}
}
