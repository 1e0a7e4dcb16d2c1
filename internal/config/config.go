package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alucardeht/docsync/internal/annotations"
	"github.com/alucardeht/docsync/internal/tree"
)

const DefaultFile = ".docsync.yaml"

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type ScanConfig struct {
	ExcludedDirs     []string `yaml:"excluded_dirs"`
	ExcludedFiles    []string `yaml:"excluded_files"`
	ExcludedSuffixes []string `yaml:"excluded_suffixes"`
	ExcludePatterns  []string `yaml:"exclude_patterns"`
	MaxDepth         int      `yaml:"max_depth"`
	Strict           bool     `yaml:"strict"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Root   string      `yaml:"root"`
	Output string      `yaml:"output"`
	Indent int         `yaml:"indent"`
	Store  StoreConfig `yaml:"store"`
	Scan   ScanConfig  `yaml:"scan"`
	Log    LogConfig   `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Root:   ".",
		Output: filepath.Join("docs", "folder_structure.txt"),
		Indent: 4,
		Store: StoreConfig{
			Backend: annotations.BackendJSON,
			Path:    "comments.json",
		},
		Scan: ScanConfig{
			ExcludedDirs:     []string{"__pycache__", ".git", "node_modules", "venv"},
			ExcludedFiles:    []string{".DS_Store", "thumbs.db", ".gitignore"},
			ExcludedSuffixes: []string{".pyc"},
			MaxDepth:         tree.DefaultMaxDepth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// DOCSYNC_* environment variables (a .env file in the working directory is
// read first). An empty path falls back to DOCSYNC_CONFIG, then to
// DefaultFile when it exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("DOCSYNC_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Root = getEnv("DOCSYNC_ROOT", c.Root)
	c.Output = getEnv("DOCSYNC_OUTPUT", c.Output)
	c.Store.Path = getEnv("DOCSYNC_STORE", c.Store.Path)
	c.Store.Backend = getEnv("DOCSYNC_STORE_BACKEND", c.Store.Backend)
	c.Log.Level = getEnv("DOCSYNC_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DOCSYNC_LOG_FORMAT", c.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.Indent, validation.Min(1), validation.Max(16)),
		validation.Field(&c.Store),
		validation.Field(&c.Scan),
		validation.Field(&c.Log),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required, validation.In(annotations.BackendJSON, annotations.BackendSQLite)),
		validation.Field(&s.Path, validation.Required),
	)
}

func (s ScanConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MaxDepth, validation.Min(0)),
		validation.Field(&s.ExcludePatterns, validation.Each(validation.By(validPattern))),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

func validPattern(value interface{}) error {
	s, _ := value.(string)
	if !doublestar.ValidatePattern(s) {
		return errors.New("not a valid glob pattern")
	}
	return nil
}

// StorePath is the store location, relative paths taken from Root.
func (c *Config) StorePath() string {
	return c.resolve(c.Store.Path)
}

// OutputPath is the listing location, relative paths taken from Root.
func (c *Config) OutputPath() string {
	return c.resolve(c.Output)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func (c *Config) Exclusions() (*tree.Exclusions, error) {
	return tree.NewExclusions(
		c.Scan.ExcludedDirs,
		c.Scan.ExcludedFiles,
		c.Scan.ExcludedSuffixes,
		c.Scan.ExcludePatterns,
	)
}

func (c *Config) Scanner() (*tree.Scanner, error) {
	ex, err := c.Exclusions()
	if err != nil {
		return nil, err
	}
	s := tree.NewScanner(ex)
	s.MaxDepth = c.Scan.MaxDepth
	s.Strict = c.Scan.Strict
	return s, nil
}
