package generator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/fsutil"
	"github.com/alucardeht/docsync/internal/logger"
	"github.com/alucardeht/docsync/internal/reconcile"
	"github.com/alucardeht/docsync/internal/render"
	"github.com/alucardeht/docsync/internal/tree"
)

var log = logger.ForComponent("generator")

type Options struct {
	Root       string
	OutputPath string
	Store      annotations.Store
	Scanner    *tree.Scanner
	Renderer   *render.Renderer
	// Out receives the plain progress lines meant for people. Nil discards
	// them.
	Out io.Writer
}

// Generator runs scan, diff, merge, save and render in one sequential pass.
type Generator struct {
	root     string
	output   string
	store    annotations.Store
	scanner  *tree.Scanner
	renderer *render.Renderer
	out      io.Writer
}

type Report struct {
	RunID      string               `json:"run_id"`
	Root       string               `json:"root"`
	Files      int                  `json:"files"`
	Missing    []string             `json:"missing,omitempty"`
	Added      int                  `json:"added"`
	Conflicts  []reconcile.Conflict `json:"conflicts,omitempty"`
	Skipped    []string             `json:"skipped,omitempty"`
	StoreSaved bool                 `json:"store_saved"`
	OutputPath string               `json:"output_path,omitempty"`
}

func New(opts Options) *Generator {
	g := &Generator{
		root:     opts.Root,
		output:   opts.OutputPath,
		store:    opts.Store,
		scanner:  opts.Scanner,
		renderer: opts.Renderer,
		out:      opts.Out,
	}
	if g.root == "" {
		g.root = "."
	}
	if g.scanner == nil {
		g.scanner = tree.NewScanner(tree.DefaultExclusions())
	}
	if g.renderer == nil {
		g.renderer = render.New()
	}
	if g.out == nil {
		g.out = io.Discard
	}
	return g
}

type state struct {
	report  *Report
	tree    *tree.Node
	store   *annotations.Group
	missing *annotations.Group
}

// Generate synchronizes the store with the tree and writes the listing.
// The store is saved only when new entries were merged. A placeholder output
// created by this run is removed again if the run fails.
func (g *Generator) Generate() (report *Report, err error) {
	created, err := g.ensureOutput()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil && created {
			os.Remove(g.output)
		}
	}()

	st, err := g.prepare()
	if err != nil {
		return nil, err
	}

	if len(st.report.Missing) > 0 {
		g.printf("The following files/folders are missing annotations:\n")
		for _, p := range st.report.Missing {
			g.printf(" - %s\n", p)
		}

		var added int
		st.store, added = reconcile.MergeCount(st.store, st.missing)
		st.report.Added = added
		if added > 0 {
			if err := g.store.Save(st.store); err != nil {
				return nil, err
			}
			st.report.StoreSaved = true
			g.printf("Missing annotations have been added to %s. Update them as needed.\n", g.store.Location())
		} else {
			g.printf("No annotations were added to %s: resolve the type mismatches above first.\n", g.store.Location())
		}
	}

	err = fsutil.WriteFileAtomic(g.output, 0644, func(w io.Writer) error {
		return g.renderer.Render(w, st.tree, st.store)
	})
	if err != nil {
		return nil, &OutputWriteError{Path: g.output, Err: err}
	}
	st.report.OutputPath = g.output

	log.Info("structure generated",
		"run_id", st.report.RunID,
		"files", st.report.Files,
		"missing", len(st.report.Missing),
		"added", st.report.Added,
		"output", g.output,
	)
	g.printf("Folder structure has been written to '%s'.\n", g.output)
	return st.report, nil
}

// Check reports missing and conflicting entries without writing anything.
func (g *Generator) Check() (*Report, error) {
	st, err := g.prepare()
	if err != nil {
		return nil, err
	}

	if len(st.report.Missing) == 0 {
		g.printf("All files and folders are annotated.\n")
		return st.report, nil
	}

	g.printf("The following files/folders are missing annotations:\n")
	for _, p := range st.report.Missing {
		g.printf(" - %s\n", p)
	}
	return st.report, nil
}

// RenderTo writes the listing for the current tree and store to w, leaving
// both the store and the output document untouched. Missing entries render
// with empty annotations.
func (g *Generator) RenderTo(w io.Writer) (*Report, error) {
	st, err := g.prepare()
	if err != nil {
		return nil, err
	}
	if err := g.renderer.Render(w, st.tree, st.store); err != nil {
		return nil, &OutputWriteError{Path: "-", Err: err}
	}
	return st.report, nil
}

// prepare loads the store, scans the tree and computes the diff.
func (g *Generator) prepare() (*state, error) {
	report := &Report{RunID: uuid.NewString(), Root: g.root}

	store, err := g.store.Load()
	if err != nil {
		return nil, err
	}

	result, err := g.scanner.Scan(g.root)
	if err != nil {
		return nil, err
	}
	for _, skipped := range result.Skipped {
		g.printf("warning: skipped unreadable folder %s: %v\n", skipped.Path, skipped.Err)
		report.Skipped = append(report.Skipped, skipped.Path)
	}
	for _, p := range result.DepthLimited {
		g.printf("warning: folder %s is nested too deeply, contents not listed\n", p)
	}

	report.Files = result.Root.CountFiles()
	missing := reconcile.FindMissing(result.Root, store)
	report.Missing = reconcile.Paths(missing)
	report.Conflicts = reconcile.FindConflicts(result.Root, store)
	for _, c := range report.Conflicts {
		g.printf("warning: type mismatch at %s\n", c)
	}

	log.Debug("diff complete",
		"run_id", report.RunID,
		"files", report.Files,
		"missing", len(report.Missing),
		"conflicts", len(report.Conflicts),
	)

	return &state{report: report, tree: result.Root, store: store, missing: missing}, nil
}

// ensureOutput creates the output document up front so that a listing
// written inside the scanned root already appears in its own first scan.
// created reports whether the file did not exist before.
func (g *Generator) ensureOutput() (created bool, err error) {
	if dir := filepath.Dir(g.output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, &OutputWriteError{Path: g.output, Err: err}
		}
	}

	_, statErr := os.Stat(g.output)
	created = errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(g.output, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, &OutputWriteError{Path: g.output, Err: err}
	}
	return created, f.Close()
}

func (g *Generator) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}
