package annotations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alucardeht/docsync/internal/fsutil"
)

const jsonIndent = "    "

// JSONStore keeps annotations in a pretty-printed JSON document.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Location() string {
	return s.path
}

func (s *JSONStore) Load() (*Group, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("annotation store not found, creating", "path", s.path)
		g := NewGroup()
		if err := s.Save(g); err != nil {
			return nil, err
		}
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation store: %w", err)
	}

	log.Debug("loading annotation store", "path", s.path, "bytes", len(data))

	text, err := decodeText(data)
	if err != nil {
		return nil, &StoreCorruptError{Path: s.path, Err: err}
	}

	g, err := decodeDocument(json.NewDecoder(bytes.NewReader(text)))
	if err != nil {
		return nil, &StoreCorruptError{Path: s.path, Err: err}
	}
	return g, nil
}

func (s *JSONStore) Save(g *Group) error {
	data, err := EncodeIndented(g)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save annotation store: %w", err)
	}
	log.Debug("saved annotation store", "path", s.path, "entries", g.Len())
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// EncodeIndented renders g as the store document: four-space indentation,
// no HTML escaping, trailing newline.
func EncodeIndented(g *Group) ([]byte, error) {
	if g == nil {
		g = NewGroup()
	}
	compact, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", jsonIndent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
