package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/tree"
)

const DefaultIndent = 4

const (
	filePrefix = "|   "
	dirPrefix  = "+---"
)

// Renderer writes the annotated tree listing. At every level files come
// first, each followed by its annotation, then folders with their contents
// indented one step further.
type Renderer struct {
	Indent int
}

func New() *Renderer {
	return &Renderer{Indent: DefaultIndent}
}

func (r *Renderer) Render(w io.Writer, root *tree.Node, store *annotations.Group) error {
	bw := bufio.NewWriter(w)
	if err := r.render(bw, root, store, 0); err != nil {
		return err
	}
	return bw.Flush()
}

// String renders into memory.
func (r *Renderer) String(root *tree.Node, store *annotations.Group) string {
	var sb strings.Builder
	r.Render(&sb, root, store)
	return sb.String()
}

func (r *Renderer) render(w *bufio.Writer, dir *tree.Node, store *annotations.Group, indent int) error {
	pad := strings.Repeat(" ", indent)

	for _, file := range dir.Files() {
		text, _ := store.Text(file.Name)
		line := pad + filePrefix + file.Name + "  # " + singleLine(text) + "\n"
		if _, err := w.WriteString(line); err != nil {
			return err
		}
	}

	step := r.Indent
	if step <= 0 {
		step = DefaultIndent
	}

	for _, sub := range dir.Dirs() {
		if _, err := w.WriteString(pad + dirPrefix + sub.Name + "/\n"); err != nil {
			return err
		}
		if err := r.render(w, sub, store.Sub(sub.Name), indent+step); err != nil {
			return err
		}
	}

	return nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
