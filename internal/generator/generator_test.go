package generator

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/tree"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
}

type fixture struct {
	root      string
	storePath string
	output    string
	out       *bytes.Buffer
}

// newFixture keeps the store and output outside the scanned root so the
// listing only contains the files under test.
func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		root:      filepath.Join(base, "project"),
		storePath: filepath.Join(base, "comments.json"),
		output:    filepath.Join(base, "docs", "folder_structure.txt"),
		out:       &bytes.Buffer{},
	}
	os.MkdirAll(f.root, 0755)
	writeFiles(t, f.root, files)
	return f
}

func (f *fixture) generator() *Generator {
	return New(Options{
		Root:       f.root,
		OutputPath: f.output,
		Store:      annotations.NewJSONStore(f.storePath),
		Out:        f.out,
	})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s failed: %v", path, err)
	}
	return string(data)
}

func TestGenerateEmptyStore(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.txt":   "a",
		"b/c.txt": "c",
	})

	report, err := f.generator().Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(report.Missing, []string{"a.txt", "b/c.txt"}) {
		t.Errorf("unexpected missing: %v", report.Missing)
	}
	if !report.StoreSaved {
		t.Error("store should have been saved")
	}

	wantStore := `{
    "a.txt": "",
    "b": {
        "c.txt": ""
    }
}
`
	if got := readFile(t, f.storePath); got != wantStore {
		t.Errorf("store:\n%s\nwant:\n%s", got, wantStore)
	}

	wantListing := "|   a.txt  # \n" +
		"+---b/\n" +
		"    |   c.txt  # \n"
	if got := readFile(t, f.output); got != wantListing {
		t.Errorf("listing:\n%q\nwant:\n%q", got, wantListing)
	}

	if !strings.Contains(f.out.String(), " - b/c.txt") {
		t.Errorf("diagnostics should list missing paths, got:\n%s", f.out.String())
	}
}

func TestGenerateKeepsExistingAnnotations(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.txt":   "a",
		"b/c.txt": "c",
	})
	os.WriteFile(f.storePath, []byte(`{"a.txt": "top-level entry", "old.txt": "removed file"}`), 0644)

	report, err := f.generator().Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(report.Missing, []string{"b/c.txt"}) {
		t.Errorf("unexpected missing: %v", report.Missing)
	}

	wantStore := `{
    "a.txt": "top-level entry",
    "old.txt": "removed file",
    "b": {
        "c.txt": ""
    }
}
`
	if got := readFile(t, f.storePath); got != wantStore {
		t.Errorf("store:\n%s\nwant:\n%s", got, wantStore)
	}

	listing := readFile(t, f.output)
	if !strings.HasPrefix(listing, "|   a.txt  # top-level entry\n") {
		t.Errorf("annotation not rendered:\n%s", listing)
	}
	if strings.Contains(listing, "old.txt") {
		t.Error("entries absent from the tree should not be rendered")
	}
}

func TestGenerateIdempotent(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, map[string]string{
		"main.go":         "package main",
		"internal/x.go":   "package internal",
		"internal/y/z.go": "package y",
	})

	gen := New(Options{
		Root:       base,
		OutputPath: filepath.Join(base, "docs", "folder_structure.txt"),
		Store:      annotations.NewJSONStore(filepath.Join(base, "comments.json")),
	})

	if _, err := gen.Generate(); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	firstStore := readFile(t, filepath.Join(base, "comments.json"))
	firstListing := readFile(t, filepath.Join(base, "docs", "folder_structure.txt"))

	report, err := gen.Generate()
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if len(report.Missing) != 0 {
		t.Errorf("second run found missing entries: %v", report.Missing)
	}
	if report.StoreSaved {
		t.Error("second run should not save the store")
	}

	if got := readFile(t, filepath.Join(base, "comments.json")); got != firstStore {
		t.Errorf("store changed on second run:\n%s\nvs\n%s", got, firstStore)
	}
	if got := readFile(t, filepath.Join(base, "docs", "folder_structure.txt")); got != firstListing {
		t.Errorf("listing changed on second run")
	}

	if !strings.Contains(firstListing, "|   comments.json  # ") {
		t.Errorf("store document should be listed:\n%s", firstListing)
	}
	if !strings.Contains(firstListing, "    |   folder_structure.txt  # ") {
		t.Errorf("output document should be listed:\n%s", firstListing)
	}
}

func TestGenerateExcludesNoise(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py":                          "",
		"app.pyc":                         "",
		".gitignore":                      "",
		"__pycache__/app.cpython-311.pyc": "",
		"__pycache__/notes.txt":           "",
		"pkg/__pycache__/mod.txt":         "",
		"pkg/mod.py":                      "",
		".git/HEAD":                       "",
		"node_modules/left-pad/index.js":  "",
	})

	report, err := f.generator().Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(report.Missing, []string{"app.py", "pkg/mod.py"}) {
		t.Errorf("unexpected missing: %v", report.Missing)
	}

	listing := readFile(t, f.output)
	storeDoc := readFile(t, f.storePath)
	for _, noise := range []string{"__pycache__", "notes.txt", "mod.txt", ".git", "HEAD", "node_modules", "app.pyc", ".gitignore"} {
		if strings.Contains(listing, noise) {
			t.Errorf("listing contains excluded %q:\n%s", noise, listing)
		}
		if strings.Contains(storeDoc, noise) {
			t.Errorf("store contains excluded %q:\n%s", noise, storeDoc)
		}
	}
}

func TestGenerateCorruptStore(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"a.txt": [`), 0644)

	_, err := f.generator().Generate()
	if !errors.Is(err, annotations.ErrStoreCorrupt) {
		t.Fatalf("expected ErrStoreCorrupt, got %v", err)
	}

	if got := readFile(t, f.storePath); got != `{"a.txt": [` {
		t.Errorf("corrupt store was rewritten: %q", got)
	}
}

func TestGenerateOutputWriteError(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": ""})
	os.MkdirAll(f.output, 0755)

	_, err := f.generator().Generate()
	if !errors.Is(err, ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}
	var outErr *OutputWriteError
	if !errors.As(err, &outErr) || outErr.Path != f.output {
		t.Errorf("expected OutputWriteError for %s, got %v", f.output, err)
	}
}

func TestGenerateMissingRoot(t *testing.T) {
	base := t.TempDir()
	gen := New(Options{
		Root:       filepath.Join(base, "nope"),
		OutputPath: filepath.Join(base, "out.txt"),
		Store:      annotations.NewJSONStore(filepath.Join(base, "comments.json")),
	})

	_, err := gen.Generate()
	if !errors.Is(err, tree.ErrFilesystemAccess) {
		t.Fatalf("expected ErrFilesystemAccess, got %v", err)
	}
}

func TestCheckDoesNotWrite(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "", "b/c.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"a.txt": "known"}`), 0644)

	report, err := f.generator().Check()
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !reflect.DeepEqual(report.Missing, []string{"b/c.txt"}) {
		t.Errorf("unexpected missing: %v", report.Missing)
	}

	if got := readFile(t, f.storePath); got != `{"a.txt": "known"}` {
		t.Errorf("Check modified the store: %q", got)
	}
	if _, err := os.Stat(f.output); !os.IsNotExist(err) {
		t.Error("Check should not create the output document")
	}
}

func TestCheckReportsConflicts(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "", "b/c.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"a.txt": {}, "b": "a folder"}`), 0644)

	report, err := f.generator().Check()
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(report.Conflicts) != 2 {
		t.Errorf("expected 2 conflicts, got %v", report.Conflicts)
	}
	if !strings.Contains(f.out.String(), "warning: type mismatch at b: folder on disk, annotation in store") {
		t.Errorf("conflict not reported:\n%s", f.out.String())
	}
}

func TestRenderToLeavesFilesUntouched(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"a.txt": "hello"}`), 0644)

	var buf bytes.Buffer
	if _, err := f.generator().RenderTo(&buf); err != nil {
		t.Fatalf("RenderTo failed: %v", err)
	}
	if buf.String() != "|   a.txt  # hello\n" {
		t.Errorf("unexpected listing: %q", buf.String())
	}
	if _, err := os.Stat(f.output); !os.IsNotExist(err) {
		t.Error("RenderTo should not create the output document")
	}
}

func TestGenerateSQLiteBackend(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "", "b/c.txt": ""})
	dbPath := filepath.Join(filepath.Dir(f.storePath), "comments.db")

	store, err := annotations.Open(annotations.BackendSQLite, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	gen := New(Options{Root: f.root, OutputPath: f.output, Store: store})
	if _, err := gen.Generate(); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}

	report, err := gen.Generate()
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if len(report.Missing) != 0 {
		t.Errorf("sqlite store lost entries: %v", report.Missing)
	}
}

func TestGenerateConflictDoesNotRewriteStore(t *testing.T) {
	f := newFixture(t, map[string]string{"b/c.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"b": "x"}`), 0644)

	for run := 0; run < 2; run++ {
		f.out.Reset()
		report, err := f.generator().Generate()
		if err != nil {
			t.Fatalf("run %d: Generate failed: %v", run, err)
		}
		if report.StoreSaved || report.Added != 0 {
			t.Errorf("run %d: saved=%v added=%d, want nothing saved", run, report.StoreSaved, report.Added)
		}
		if !reflect.DeepEqual(report.Missing, []string{"b/c.txt"}) {
			t.Errorf("run %d: unexpected missing: %v", run, report.Missing)
		}
		if strings.Contains(f.out.String(), "have been added") {
			t.Errorf("run %d: claimed entries were added:\n%s", run, f.out.String())
		}
	}

	if got := readFile(t, f.storePath); got != `{"b": "x"}` {
		t.Errorf("store was rewritten: %q", got)
	}
}

func TestGenerateConflictStillAddsOtherEntries(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "", "b/c.txt": ""})
	os.WriteFile(f.storePath, []byte(`{"b": "x"}`), 0644)

	report, err := f.generator().Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !report.StoreSaved || report.Added != 1 {
		t.Errorf("saved=%v added=%d, want a.txt added", report.StoreSaved, report.Added)
	}

	want := `{
    "b": "x",
    "a.txt": ""
}
`
	if got := readFile(t, f.storePath); got != want {
		t.Errorf("store:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateFailureRemovesCreatedOutput(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, map[string]string{
		"a.txt":         "",
		"comments.json": `{"a.txt": [`,
	})
	output := filepath.Join(base, "docs", "folder_structure.txt")

	gen := New(Options{
		Root:       base,
		OutputPath: output,
		Store:      annotations.NewJSONStore(filepath.Join(base, "comments.json")),
	})
	if _, err := gen.Generate(); !errors.Is(err, annotations.ErrStoreCorrupt) {
		t.Fatalf("expected ErrStoreCorrupt, got %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("failed run left %s behind", output)
	}
}

func TestGenerateFailureKeepsExistingOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": ""})
	os.MkdirAll(filepath.Dir(f.output), 0755)
	os.WriteFile(f.output, []byte("previous listing\n"), 0644)
	os.WriteFile(f.storePath, []byte(`{"a.txt": [`), 0644)

	if _, err := f.generator().Generate(); err == nil {
		t.Fatal("expected Generate to fail")
	}
	if got := readFile(t, f.output); got != "previous listing\n" {
		t.Errorf("existing listing was modified: %q", got)
	}
}
