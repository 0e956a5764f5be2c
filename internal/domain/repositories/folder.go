package repositories

import (
	"context"

	"mooki/internal/domain/models"
)

// FolderRepository defines data access operations for the folders relation.
// Implementations must report uniqueness violations as domain.ErrConflict
// and missing rows as domain.ErrNotFound so callers can classify failures
// without driver knowledge.
type FolderRepository interface {
	// GetAll retrieves every folder ordered by sort key ascending
	// (nulls first) then name ascending.
	GetAll(ctx context.Context) ([]models.Folder, error)

	// GetByID retrieves a single folder by id.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// Insert persists a new folder and fills in generated columns.
	Insert(ctx context.Context, folder *models.Folder) error

	// Update applies a partial update to an existing folder. Nil fields
	// are left untouched; ParentID is applied when setParent is true so a
	// move to the forest root (NULL) is expressible.
	Update(ctx context.Context, id string, update FolderUpdate) error

	// Delete removes a folder row.
	Delete(ctx context.Context, id string) error

	// CountChildren returns the number of folders whose parent is id.
	CountChildren(ctx context.Context, id string) (int, error)
}

// FolderUpdate is a partial update of a folder row.
type FolderUpdate struct {
	Name      *string
	Slug      *string
	ParentID  *string
	SetParent bool
}
