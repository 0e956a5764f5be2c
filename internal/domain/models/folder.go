package models

import (
	"time"

	"mooki/internal/slug"
)

// Folder is a persisted row of the folders relation. Children and IsRoot
// are derived in the materialized tree and never written back.
type Folder struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Slug            string    `json:"slug" db:"slug"`
	ParentID        *string   `json:"parent_id" db:"parent_id"` // NULL = child of the forest root
	Order           *float64  `json:"order,omitempty" db:"order"`
	CreatedByUserID *string   `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder is the reserved root: the one row with
// the reserved name and no parent.
func (f *Folder) IsRoot() bool {
	return f.Name == slug.RootName && f.ParentID == nil
}

// FolderNode is a folder in the materialized tree with nested children.
type FolderNode struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	ParentID        *string       `json:"parent_id"`
	Order           *float64      `json:"order,omitempty"`
	CreatedByUserID *string       `json:"created_by_user_id,omitempty"`
	IsRoot          bool          `json:"is_root"`
	Children        []*FolderNode `json:"children"`
}
