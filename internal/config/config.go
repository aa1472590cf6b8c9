package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/skimread/skim/internal/scroll"
)

const (
	appName              = "skim"
	defaultDataDirectory = ".skim"
	defaultPageSize      = 30
)

// ErrInvalidPageSize rejects a non-positive page size before any fetch is
// attempted.
var ErrInvalidPageSize = errors.New("config: page size must be positive")

// SourceKind selects where feed items come from.
type SourceKind string

const (
	SourceSQLite SourceKind = "sqlite"
	SourceREST   SourceKind = "rest"
)

type Source struct {
	Kind SourceKind `json:"kind,omitempty"`
	// URL of the REST endpoint; ignored for the sqlite source.
	URL string `json:"url,omitempty"`
}

type Options struct {
	Debug         bool   `json:"debug,omitempty"`
	DataDirectory string `json:"data_directory,omitempty"` // relative to the cwd
}

type Config struct {
	// PageSize is the batch size per fetch; the window holds at most twice
	// this many items. Fixed for the lifetime of one source.
	PageSize int `json:"page_size,omitempty"`
	// Indicator toggles the loading rows shown while a fetch is in flight.
	Indicator bool    `json:"indicator,omitempty"`
	Source    Source  `json:"source,omitempty"`
	Options   Options `json:"options,omitempty"`

	workingDir string
}

// Load reads skim.json from the working directory when present, applies
// SKIM_* environment overrides and fills in defaults. Invalid configuration
// is fatal here, before anything is fetched.
func Load(workingDir string) (*Config, error) {
	cfg := &Config{
		PageSize:  defaultPageSize,
		Indicator: true,
		Source:    Source{Kind: SourceSQLite},
		Options: Options{
			DataDirectory: defaultDataDirectory,
		},
		workingDir: workingDir,
	}

	path := filepath.Join(workingDir, appName+".json")
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidPageSize, cfg.PageSize)
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceSQLite
	}
	if cfg.Source.Kind == SourceREST && cfg.Source.URL == "" {
		return nil, fmt.Errorf("config: rest source requires a url")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKIM_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("SKIM_SOURCE_URL"); v != "" {
		cfg.Source.Kind = SourceREST
		cfg.Source.URL = v
	}
	if v := os.Getenv("SKIM_DATA_DIR"); v != "" {
		cfg.Options.DataDirectory = v
	}
	if v := os.Getenv("SKIM_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Options.Debug = b
		}
	}
}

// DataDir resolves the data directory against the working directory.
func (c *Config) DataDir() string {
	if filepath.IsAbs(c.Options.DataDirectory) {
		return c.Options.DataDirectory
	}
	return filepath.Join(c.workingDir, c.Options.DataDirectory)
}

// SourceIdentity is the token under which window state is kept: any change to
// the source configuration yields a different token and therefore a reset.
func (c *Config) SourceIdentity() uint64 {
	return scroll.Identity(string(c.Source.Kind), c.Source.URL, c.DataDir())
}
