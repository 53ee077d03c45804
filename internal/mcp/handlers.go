package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pockets/internal/config"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
// There is no user to prompt, so every pocket must be addressed explicitly.
type Handlers struct {
	eng      *engine.Engine
	cfg      *config.Config
	branches host.BranchSource
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{eng: deps.Engine, cfg: cfg, branches: deps.Branches, logger: logger}
}

// AddressRequest addresses one pocket.
type AddressRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CreateRequest represents the arguments for create.
type CreateRequest struct {
	Name     string `json:"name"`
	SaveTabs bool   `json:"save_tabs,omitempty"`
}

// RenameRequest represents the arguments for rename.
type RenameRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	NewName string `json:"new_name"`
}

// MoveRequest represents the arguments for move.
type MoveRequest struct {
	ID       string `json:"id"`
	TargetID string `json:"target_id,omitempty"`
	Index    *int   `json:"index,omitempty"`
}

// LinkBranchRequest represents the arguments for link_branch.
type LinkBranchRequest struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Branch          string `json:"branch"`
	AutoCloseOthers bool   `json:"auto_close_others,omitempty"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
	ID   string `json:"id,omitempty"`
}

// ImportRequest represents the arguments for import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// address decodes an AddressRequest and requires id or name.
func address(req mcp.CallToolRequest) (AddressRequest, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return input, errors.NewInvalidRequest(err.Error())
	}
	if err := requireAddress(input.ID, input.Name); err != nil {
		return input, err
	}
	return input, nil
}

func requireAddress(id, name string) error {
	if strings.TrimSpace(id) == "" && strings.TrimSpace(name) == "" {
		return errors.NewInvalidRequest("must specify either id or name")
	}
	return nil
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.List(h.eng))
}

// HandleShow handles the show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := address(req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Show(ctx, h.eng, nil, ops.ShowInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCreate handles the create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Name) == "" {
		return errorResult(errors.NewInvalidRequest("name is required")), nil
	}

	result, err := ops.Create(ctx, h.eng, nil, ops.CreateInput{Name: input.Name, SaveTabs: input.SaveTabs})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSaveTabs handles the save_tabs tool call.
func (h *Handlers) HandleSaveTabs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := address(req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.SaveTabs(ctx, h.eng, nil, ops.SaveTabsInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRestore handles the restore tool call.
func (h *Handlers) HandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := address(req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Restore(ctx, h.eng, nil, ops.RestoreInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRename handles the rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireAddress(input.ID, input.Name); err != nil {
		return errorResult(err), nil
	}
	if strings.TrimSpace(input.NewName) == "" {
		return errorResult(errors.NewInvalidRequest("new_name is required")), nil
	}

	result, err := ops.Rename(ctx, h.eng, nil, ops.RenameInput{ID: input.ID, Name: input.Name, NewName: input.NewName})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := address(req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Remove(ctx, h.eng, nil, ops.RemoveInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMove handles the move tool call.
func (h *Handlers) HandleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Move(ctx, h.eng, ops.MoveInput{ID: input.ID, TargetID: input.TargetID, Index: input.Index})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLinkBranch handles the link_branch tool call.
func (h *Handlers) HandleLinkBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LinkBranchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireAddress(input.ID, input.Name); err != nil {
		return errorResult(err), nil
	}
	if strings.TrimSpace(input.Branch) == "" {
		return errorResult(errors.NewInvalidRequest("branch is required")), nil
	}

	autoClose := input.AutoCloseOthers
	result, err := ops.LinkBranch(ctx, h.eng, nil, h.branches, ops.LinkBranchInput{
		ID:              input.ID,
		Name:            input.Name,
		Branch:          input.Branch,
		AutoCloseOthers: &autoClose,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUnlinkBranch handles the unlink_branch tool call.
func (h *Handlers) HandleUnlinkBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := address(req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.UnlinkBranch(ctx, h.eng, nil, ops.UnlinkBranchInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Export(ctx, h.eng, h.cfg, ops.ExportInput{Path: input.Path, ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Import(ctx, h.eng, h.cfg, h.logger, ops.ImportInput{
		Path: input.Path,
		Mode: engine.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// INTERNAL errors never carry details (paths, SQL errors).
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var pErr *errors.PocketsError
	if stderrors.As(err, &pErr) {
		// Keep any wrapping context in front of the message.
		prefix := ""
		if full := err.Error(); strings.HasSuffix(full, pErr.Error()) {
			prefix = strings.TrimSuffix(full, pErr.Error())
		}
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": prefix + pErr.Message,
			"status":  pErr.Status,
		}
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
