package models

// FileNode is one entry of the workspace tree returned to observers.
type FileNode struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"` // "directory" or "file"
	Path     string     `json:"path"`
	Size     int64      `json:"size,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

const (
	NodeTypeDirectory = "directory"
	NodeTypeFile      = "file"
)
