package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/pockets/internal/config"
	"github.com/hpungsan/pockets/internal/errors"
)

// PathCheckMode says whether a checked path is about to be read or written.
type PathCheckMode int

const (
	PathCheckRead PathCheckMode = iota
	PathCheckWrite
)

// ValidatePath vets an export or import file path. The path must carry a
// .jsonl extension, contain no ".." element and not be a symlink. Unless
// AllowUnsafePaths is set, its parent must be exactly ~/.pockets/exports or
// one of the configured allowed_paths, and must not be a symlink either.
// A read of a missing file is FILE_NOT_FOUND.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	switch {
	case path == "":
		return errors.NewInvalidRequest("path is required")
	case containsTraversal(path):
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	case filepath.Ext(path) != ".jsonl":
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		allowed, err := allowedDirs(cfg)
		if err != nil {
			return err
		}
		parent := filepath.Dir(abs)
		if !slices.Contains(allowed, parent) {
			return errors.NewInvalidRequest(fmt.Sprintf(
				"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
		}
		if isSymlink(parent) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// allowedDirs lists the export directory and the absolute allowed_paths,
// cleaned, with symlinked entries resolved.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exports, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{exports}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	for i, d := range dirs {
		if !isSymlink(d) {
			continue
		}
		resolved, err := filepath.EvalSymlinks(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
		}
		dirs[i] = resolved
	}
	return dirs, nil
}

// DefaultExportsDir returns ~/.pockets/exports.
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, config.RepoDirName, "exports"), nil
}

// containsTraversal reports whether any element of path, split on either
// separator, is "..".
func containsTraversal(path string) bool {
	return slices.Contains(strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}), "..")
}

// SanitizeForFilename turns a pocket label into a safe filename stem:
// separators and ".." become dashes, control characters are dropped, dash
// runs collapse and edge dashes are trimmed. An empty result is "pocket".
func SanitizeForFilename(s string) string {
	s = strings.NewReplacer("/", "-", `\`, "-").Replace(s)
	s = strings.ReplaceAll(s, "..", "-")
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if s = strings.Trim(s, "-"); s == "" {
		return "pocket"
	}
	return s
}
