package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/pockets/internal/codec"
	"github.com/hpungsan/pockets/internal/config"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/pocket"
)

// ExportSchemaVersion is written into every export header.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.pockets/exports/pockets-<timestamp>.jsonl
	ID   string // optional, export a single pocket (default file named after it)
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	PocketsExport bool   `json:"_pockets_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes pockets to a JSONL file: a header line, then one durable
// pocket record per line in forest order.
func Export(ctx context.Context, eng *engine.Engine, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	records := codec.Serialize(eng.Forest())
	stem := "pockets"
	if input.ID != "" {
		p := eng.Pocket(input.ID)
		if p == nil {
			return nil, errors.NewNotFound(input.ID)
		}
		records = []codec.PocketRecord{codec.PocketToRecord(p)}
		stem = SanitizeForFilename(p.Label)
	}

	path := input.Path
	if path == "" {
		var err error
		if path, err = defaultExportPath(stem, now); err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	header := ExportHeader{
		PocketsExport: true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    now.Unix(),
	}
	if err := writeExport(ctx, path, header, records); err != nil {
		return nil, err
	}
	return &ExportOutput{Path: path, Count: len(records), ExportedAt: header.ExportedAt}, nil
}

// writeExport writes the file next to path under a temporary name and
// renames it into place once it is synced.
func writeExport(ctx context.Context, path string, header ExportHeader, records []codec.PocketRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	tmp := path + "." + strings.ToLower(pocket.NewID()) + ".tmp"
	f, err := openFileNoFollow(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	defer func() {
		if f != nil {
			f.Close()
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(header); err != nil {
		return errors.NewInternal(err)
	}
	for _, rec := range records {
		if ctx.Err() != nil {
			return errors.NewCancelled("export")
		}
		if err := enc.Encode(rec); err != nil {
			return errors.NewInternal(err)
		}
	}
	if err := f.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	closeErr := f.Close()
	f = nil
	if closeErr != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", closeErr))
	}

	// os.Rename would follow a symlinked destination.
	if isSymlink(path) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tmp, path); err != nil {
		// Windows refuses to rename over an existing file.
		if _, statErr := os.Stat(path); runtime.GOOS == "windows" && statErr == nil {
			return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	return nil
}

// defaultExportPath returns ~/.pockets/exports/<stem>-<timestamp>.jsonl.
func defaultExportPath(stem string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s.jsonl", stem, now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
