package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addressOptions = []mcp.ToolOption{
	mcp.WithString("id", mcp.Description("Pocket id (ULID). Mutually exclusive with name.")),
	mcp.WithString("name", mcp.Description("Pocket label. The first pocket with this exact label is used.")),
}

func withAddress(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(append([]mcp.ToolOption{}, addressOptions...), opts...)
}

var listToolDef = mcp.NewTool("list",
	mcp.WithDescription("List all pockets in order with their branch link and file counts."),
)

var showToolDef = mcp.NewTool("show", withAddress(
	mcp.WithDescription("Show one pocket: its compartments and documents, plus a markdown outline."),
)...)

var createToolDef = mcp.NewTool("create",
	mcp.WithDescription("Create a pocket. With save_tabs the current editor layout is captured into it."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Label of the new pocket")),
	mcp.WithBoolean("save_tabs", mcp.Description("Capture the open tabs into the new pocket")),
)

var saveTabsToolDef = mcp.NewTool("save_tabs", withAddress(
	mcp.WithDescription("Replace a pocket's content with the editor's current tab layout, one compartment per editor group."),
)...)

var restoreToolDef = mcp.NewTool("restore", withAddress(
	mcp.WithDescription("Reopen a pocket's documents in the editor. Files that fail to open are reported, not fatal."),
)...)

var renameToolDef = mcp.NewTool("rename",
	mcp.WithDescription("Rename a pocket or compartment. id may name either; name addresses pockets only."),
	mcp.WithString("id", mcp.Description("Pocket or compartment id")),
	mcp.WithString("name", mcp.Description("Current pocket label")),
	mcp.WithString("new_name", mcp.Required(), mcp.Description("New label")),
)

var removeToolDef = mcp.NewTool("remove",
	mcp.WithDescription("Remove a pocket, compartment or document and everything below it."),
	mcp.WithString("id", mcp.Description("Id of a node of any tier")),
	mcp.WithString("name", mcp.Description("Pocket label")),
)

var moveToolDef = mcp.NewTool("move",
	mcp.WithDescription("Move a node. Pockets move within the root (empty target_id) or onto another pocket; "+
		"compartments into a pocket or onto a sibling; documents into a compartment or onto a sibling."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Id of the node to move")),
	mcp.WithString("target_id", mcp.Description("Drop target id; empty for the root")),
	mcp.WithNumber("index", mcp.Description("Position in the destination list (default: end)")),
)

var linkBranchToolDef = mcp.NewTool("link_branch", withAddress(
	mcp.WithDescription("Link a pocket to a branch. Checking the branch out restores the pocket. "+
		"A branch is linked to at most one pocket; linking moves it."),
	mcp.WithString("branch", mcp.Required(), mcp.Description("Branch name")),
	mcp.WithBoolean("auto_close_others", mcp.Description("Close all open documents before restoring")),
)...)

var unlinkBranchToolDef = mcp.NewTool("unlink_branch", withAddress(
	mcp.WithDescription("Remove a pocket's branch link."),
)...)

var exportToolDef = mcp.NewTool("export",
	mcp.WithDescription("Export pockets to a JSONL file (default ~/.pockets/exports)."),
	mcp.WithString("path", mcp.Description("Destination .jsonl file")),
	mcp.WithString("id", mcp.Description("Export only this pocket")),
)

var importToolDef = mcp.NewTool("import",
	mcp.WithDescription("Import pockets from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl file")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "rename"),
		mcp.Description("On id collision: error aborts, replace swaps in place, rename mints fresh ids (default error)")),
)
