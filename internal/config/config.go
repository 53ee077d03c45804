package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
)

// RepoDirName is the per-repository directory holding config and the editor session file.
const RepoDirName = ".pockets"

// Config holds application configuration.
type Config struct {
	// StateKey is the workspace-state key the pocket forest is persisted under
	StateKey string `json:"state_key,omitempty"`

	// SessionFile is the editor session file, relative to the workspace root unless absolute.
	SessionFile string `json:"session_file,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.pockets/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// WebBind and WebPort control the address of the tree viewer.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StateKey:    "editorpocketstorage",
		SessionFile: filepath.Join(RepoDirName, "session.json"),
		LogLevel:    "info",
		WebBind:     "127.0.0.1",
		WebPort:     8420,
	}
}

// Load reads baseDir/config.json over the defaults.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo layers the defaults, the global config in globalDir and the
// nearest repo config above startDir, in that order. Either file may be
// missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range []string{filepath.Join(globalDir, "config.json"), FindRepoConfig(startDir)} {
		layer, err := loadFileRaw(path)
		if err != nil {
			return nil, err
		}
		cfg = Merge(cfg, layer)
	}
	return cfg, nil
}

// FindRepoConfig returns the nearest .pockets/config.json at or above
// startDir, or "".
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	for dir := startDir; ; {
		path := filepath.Join(dir, RepoDirName, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SessionPath resolves the session file against the workspace root.
func (c *Config) SessionPath(workspaceRoot string) string {
	if filepath.IsAbs(c.SessionFile) {
		return c.SessionFile
	}
	return filepath.Join(workspaceRoot, c.SessionFile)
}

// SlogLevel maps LogLevel onto a slog.Level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadFileRaw reads one config file without applying defaults. A missing
// file (or no path) yields the zero Config. Comments and trailing commas are
// accepted.
func loadFileRaw(configPath string) (*Config, error) {
	cfg := &Config{}
	if configPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge layers overlay on base. Set scalars in overlay win, booleans are
// OR-ed, and lists are concatenated without duplicates.
func Merge(base, overlay *Config) *Config {
	return &Config{
		StateKey:         pick(overlay.StateKey, base.StateKey),
		SessionFile:      pick(overlay.SessionFile, base.SessionFile),
		LogLevel:         pick(overlay.LogLevel, base.LogLevel),
		AllowedPaths:     union(base.AllowedPaths, overlay.AllowedPaths),
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		DBMaxOpenConns:   pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		DisabledTools:    union(base.DisabledTools, overlay.DisabledTools),
		WebBind:          pick(overlay.WebBind, base.WebBind),
		WebPort:          pick(overlay.WebPort, base.WebPort),
	}
}

// pick returns v unless it is the zero value (or blank), else fallback.
func pick[T comparable](v, fallback T) T {
	var zero T
	if s, ok := any(v).(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	if v == zero {
		return fallback
	}
	return v
}

// union trims, drops blanks and keeps the first occurrence of each entry.
func union(lists ...[]string) []string {
	var out []string
	for _, s := range slices.Concat(lists...) {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
