// Package config loads the recall configuration file.
//
// The file is YAML. Every field is optional; zero values fall back to the
// defaults of the package that consumes them.
//
//	scheduler:
//	  policy: stability        # stability, ease or mastery
//	  desired_retention: 0.9
//	  enable_fuzz: false
//	session:
//	  min_offset: 2
//	  max_jitter: 2
//	  limit: 50
//	storage:
//	  backend: sqlite          # memory, sqlite or badger
//	  path: ~/.recall/recall.db
//	log:
//	  level: info
//	  format: text
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/internal/logging"
	"github.com/sky-flux/recall/session"
)

// Environment overrides.
const (
	EnvConfig  = "RECALL_CONFIG"
	EnvStorage = "RECALL_STORAGE"
	EnvHome    = "RECALL_HOME"
)

// Config is the full application configuration.
type Config struct {
	Scheduler recall.SchedulerConfig `yaml:"scheduler"`
	Session   session.Config         `yaml:"session"`
	Storage   Storage                `yaml:"storage"`
	Log       logging.Config         `yaml:"log"`
}

// Storage selects the persistence backend.
type Storage struct {
	Backend string `yaml:"backend"` // memory, sqlite or badger; empty → sqlite
	Path    string `yaml:"path"`    // empty → a default under Dir
	Dir     string `yaml:"dir"`     // data directory; empty → ~/.recall
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{Backend: "sqlite", Dir: defaultDir()},
		Log:     logging.Config{Level: "info", Format: "text"},
	}
}

func defaultDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recall"
	}
	return filepath.Join(home, ".recall")
}

// Path returns $RECALL_CONFIG, or config.yaml in the data directory.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(defaultDir(), "config.yaml")
}

// Load reads the file at path. An empty path means Path(); a missing
// default file is not an error. RECALL_STORAGE overrides the storage backend.
func Load(path string) (Config, error) {
	explicit := path != "" || os.Getenv(EnvConfig) != ""
	if path == "" {
		path = Path()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No file: defaults.
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if backend := os.Getenv(EnvStorage); backend != "" {
		cfg.Storage.Backend = backend
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultDir()
	}
	return cfg, nil
}

// Write stores cfg as YAML at path, creating the directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
