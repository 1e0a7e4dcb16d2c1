package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/tree"
)

func sampleTree() *tree.Node {
	root := tree.NewDir("")
	b := root.Add(tree.NewDir("b"))
	b.Add(tree.NewFile("c.txt"))
	root.Add(tree.NewFile("a.txt"))
	return root
}

func TestRenderEmptyStore(t *testing.T) {
	got := New().String(sampleTree(), annotations.NewGroup())

	want := "|   a.txt  # \n" +
		"+---b/\n" +
		"    |   c.txt  # \n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderWithAnnotations(t *testing.T) {
	store := annotations.NewGroup()
	store.Set("a.txt", annotations.Annotation("top-level entry"))
	sub := annotations.NewGroup()
	sub.Set("c.txt", annotations.Annotation("first line\nsecond line"))
	store.Set("b", sub)

	got := New().String(sampleTree(), store)

	want := "|   a.txt  # top-level entry\n" +
		"+---b/\n" +
		"    |   c.txt  # first line second line\n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderFilesBeforeFolders(t *testing.T) {
	root := tree.NewDir("")
	root.Add(tree.NewDir("a"))
	root.Add(tree.NewFile("b.txt"))
	nested := root.Add(tree.NewDir("c"))
	nested.Add(tree.NewDir("d")).Add(tree.NewFile("e.txt"))
	nested.Add(tree.NewFile("f.txt"))
	root.Add(tree.NewFile("g.txt"))

	out := New().String(root, nil)

	// Per indentation level, once a folder line is seen no sibling file line
	// may follow until the level is left.
	seenDir := map[int]bool{}
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		level := len(line) - len(trimmed)
		for l := range seenDir {
			if l > level {
				delete(seenDir, l)
			}
		}
		switch {
		case strings.HasPrefix(trimmed, "+---"):
			seenDir[level] = true
			delete(seenDir, level+DefaultIndent)
		case strings.HasPrefix(trimmed, "|   "):
			if seenDir[level] {
				t.Errorf("file line after folder at same level: %q\n%s", line, out)
			}
		}
	}

	want := "|   b.txt  # \n" +
		"|   g.txt  # \n" +
		"+---a/\n" +
		"+---c/\n" +
		"    |   f.txt  # \n" +
		"    +---d/\n" +
		"        |   e.txt  # \n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderTypeMismatch(t *testing.T) {
	store := annotations.NewGroup()
	store.Set("a.txt", annotations.NewGroup())
	store.Set("b", annotations.Annotation("not a folder"))

	got := New().String(sampleTree(), store)

	want := "|   a.txt  # \n" +
		"+---b/\n" +
		"    |   c.txt  # \n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderCustomIndent(t *testing.T) {
	r := &Renderer{Indent: 2}
	got := r.String(sampleTree(), nil)
	if !strings.Contains(got, "\n  |   c.txt  # \n") {
		t.Errorf("expected two-space indent, got:\n%s", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRenderPropagatesWriteErrors(t *testing.T) {
	err := New().Render(failingWriter{}, sampleTree(), nil)
	if err == nil {
		t.Fatal("expected write error")
	}
}
