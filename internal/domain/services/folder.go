package services

import (
	"context"

	"mooki/internal/domain/models"
)

// FolderStore exposes the tree-mutation operations. Each operation
// performs its own guard reads immediately before the mutating write; the
// operations are not transactionally grouped with each other.
type FolderStore interface {
	// Create persists a new folder under the given parent. Requires an
	// authenticated actor in the context.
	Create(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// Rename changes a folder's name and, optionally, its slug.
	Rename(ctx context.Context, folderID string, req *RenameFolderRequest) (*models.Folder, error)

	// Move reparents a folder. A nil parent moves it under the forest root.
	Move(ctx context.Context, folderID string, newParentID *string) error

	// Delete removes a childless, non-root folder.
	Delete(ctx context.Context, folderID string) error
}

// TreeMaterializer produces the nested folder forest for an admin session
// load, provisioning the root folder on first use.
type TreeMaterializer interface {
	// GetAndEnsureRoot returns the forest. Failures degrade to an empty
	// forest; callers must treat an empty result as "tree unavailable."
	GetAndEnsureRoot(ctx context.Context) []*models.FolderNode
}

// CreateFolderRequest represents a folder creation request.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // nil = child of the forest root
	Slug     *string `json:"slug,omitempty"`      // override; generated from Name when absent
}

// RenameFolderRequest represents a folder rename request.
type RenameFolderRequest struct {
	Name string  `json:"name"`
	Slug *string `json:"slug,omitempty"`
}

// MoveFolderRequest represents a folder move request.
type MoveFolderRequest struct {
	ParentID *string `json:"parent_id"` // null = move under the forest root
}
