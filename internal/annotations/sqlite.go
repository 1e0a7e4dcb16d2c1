package annotations

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	kindAnnotation = "annotation"
	kindGroup      = "group"

	pathSeparator = "/"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS annotations (
	position INTEGER PRIMARY KEY,
	parent TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	annotation TEXT NOT NULL DEFAULT '',
	UNIQUE(parent, name)
);

CREATE INDEX IF NOT EXISTS idx_annotations_parent ON annotations(parent)
`

// SQLiteStore keeps annotations as one row per entry. Rows are written in
// depth-first order so position alone rebuilds the original key order.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{path: path, db: db}, nil
}

func (s *SQLiteStore) Location() string {
	return s.path
}

func (s *SQLiteStore) Load() (*Group, error) {
	_, statErr := os.Stat(s.path)
	existed := !errors.Is(statErr, fs.ErrNotExist)

	if err := s.initSchema(); err != nil {
		if existed {
			return nil, &StoreCorruptError{Path: s.path, Err: err}
		}
		return nil, fmt.Errorf("failed to create annotation store: %w", err)
	}
	if !existed {
		log.Info("annotation store not found, created", "path", s.path)
	}

	rows, err := s.db.Query("SELECT parent, name, kind, annotation FROM annotations ORDER BY position")
	if err != nil {
		return nil, &StoreCorruptError{Path: s.path, Err: err}
	}
	defer rows.Close()

	root := NewGroup()
	groups := map[string]*Group{"": root}

	for rows.Next() {
		var parent, name, kind, text string
		if err := rows.Scan(&parent, &name, &kind, &text); err != nil {
			return nil, &StoreCorruptError{Path: s.path, Err: err}
		}

		g, ok := groups[parent]
		if !ok {
			return nil, &StoreCorruptError{Path: s.path, Err: fmt.Errorf("entry %q has no parent folder %q", name, parent)}
		}

		switch kind {
		case kindAnnotation:
			g.Set(name, Annotation(text))
		case kindGroup:
			sub := NewGroup()
			g.Set(name, sub)
			groups[childPath(parent, name)] = sub
		default:
			return nil, &StoreCorruptError{Path: s.path, Err: fmt.Errorf("entry %q has unknown kind %q", name, kind)}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreCorruptError{Path: s.path, Err: err}
	}

	return root, nil
}

func (s *SQLiteStore) initSchema() error {
	if err := s.db.Ping(); err != nil {
		return err
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return err
	}

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Save(g *Group) error {
	if err := s.initSchema(); err != nil {
		return fmt.Errorf("failed to prepare annotation store: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM annotations"); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO annotations (position, parent, name, kind, annotation) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	position := 0
	var insert func(parent string, g *Group) error
	insert = func(parent string, g *Group) error {
		for _, k := range g.Keys() {
			v, _ := g.Get(k)
			position++
			switch val := v.(type) {
			case Annotation:
				if _, err := stmt.Exec(position, parent, k, kindAnnotation, string(val)); err != nil {
					return err
				}
			case *Group:
				if _, err := stmt.Exec(position, parent, k, kindGroup, ""); err != nil {
					return err
				}
				if err := insert(childPath(parent, k), val); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := insert("", g); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save annotation store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save annotation store: %w", err)
	}
	log.Debug("saved annotation store", "path", s.path, "rows", position)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// childPath keys a group by its slash-joined ancestry; names never contain a
// separator since they come from directory entries.
func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + pathSeparator + name
}
