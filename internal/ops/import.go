package ops

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hpungsan/pockets/internal/codec"
	"github.com/hpungsan/pockets/internal/config"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/pocket"
)

// maxImportLine bounds a single JSONL record.
const maxImportLine = 16 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string            // required
	Mode engine.ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported        int           `json:"imported"`
	Replaced        int           `json:"replaced"`
	Renamed         int           `json:"renamed"`
	Skipped         int           `json:"skipped"`
	ClearedBranches []string      `json:"cleared_branches,omitempty"`
	Errors          []ImportError `json:"errors"`
}

// ImportError represents a line of the import file that could not be used.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Label   string `json:"label,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads pockets from a JSONL export file and merges them into the
// forest. In error mode any unreadable line aborts the import with no
// change; the other modes skip bad lines and report them.
func Import(ctx context.Context, eng *engine.Engine, cfg *config.Config, logger *slog.Logger, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	switch input.Mode {
	case "":
		input.Mode = engine.ImportModeError
	case engine.ImportModeError, engine.ImportModeReplace, engine.ImportModeRename:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		var pErr *errors.PocketsError
		if stderrors.As(err, &pErr) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	pockets, parseErrors := parseExportFile(file, codec.NewDecoder(eng.Root(), logger))
	if input.Mode == engine.ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	result, err := eng.ImportPockets(ctx, pockets, input.Mode)
	if err != nil {
		return nil, err
	}
	if parseErrors == nil {
		parseErrors = []ImportError{}
	}
	return &ImportOutput{
		Imported:        result.Added + result.Replaced + result.Renamed,
		Replaced:        result.Replaced,
		Renamed:         result.Renamed,
		Skipped:         len(parseErrors),
		ClearedBranches: result.ClearedBranches,
		Errors:          parseErrors,
	}, nil
}

// parseExportFile decodes every pocket line of an export file.
func parseExportFile(r io.Reader, dec *codec.Decoder) ([]*pocket.Pocket, []ImportError) {
	var pockets []*pocket.Pocket
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}

		var probe struct {
			PocketsExport bool   `json:"_pockets_export"`
			ID            string `json:"id"`
			Label         string `json:"label"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if probe.PocketsExport {
			continue
		}

		p, err := dec.DecodePocket(json.RawMessage(line))
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      probe.ID,
				Label:   probe.Label,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		pockets = append(pockets, p)
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return pockets, parseErrors
}
