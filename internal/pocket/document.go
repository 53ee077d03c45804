package pocket

import (
	"net/url"
	"path/filepath"
	"strings"
)

// NewDocument creates a document for path with a fresh ID and derived labels.
func NewDocument(path, root string) *Document {
	label, desc := DocumentLabels(path, root)
	return &Document{
		ID:          NewID(),
		Path:        path,
		Label:       label,
		Description: desc,
	}
}

// DocumentLabels derives the display label and secondary label of a document.
// The label is the basename. The description is the directory relative to root,
// "" when the file sits directly in root. Files outside root (or with no root)
// are described by their absolute directory.
func DocumentLabels(path, root string) (label, description string) {
	label = filepath.Base(path)
	dir := filepath.Dir(path)
	if root == "" {
		return label, dir
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return label, dir
	}

	relDir := filepath.Dir(rel)
	if relDir == "." {
		return label, ""
	}
	return label, relDir
}

// ResolvePath turns a stored location into an absolute path.
// Accepts absolute paths, file:// URIs, and paths relative to root.
// Returns false when the location cannot be resolved.
func ResolvePath(location, root string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}

	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil || u.Path == "" {
			return "", false
		}
		location = filepath.FromSlash(u.Path)
	}

	if filepath.IsAbs(location) {
		return filepath.Clean(location), true
	}
	if root == "" {
		return "", false
	}
	return filepath.Join(root, location), true
}
