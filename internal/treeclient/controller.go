// Package treeclient maintains the admin UI's in-memory mirror of the
// folder tree. All user-initiated structural edits go through the
// Controller, which applies them optimistically, invokes the remote store,
// and commits or rolls back when the result arrives.
package treeclient

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"mooki/internal/domain"
	"mooki/internal/domain/models"
	"mooki/internal/slug"
)

// RemoteStore is the server-side tree store as seen from the client. Every
// call is a remote round trip; errors carry the server's user-facing
// message.
type RemoteStore interface {
	FetchTree(ctx context.Context) ([]*models.FolderNode, error)
	Create(ctx context.Context, name string, parentID, slugOverride *string) (*models.Folder, error)
	Rename(ctx context.Context, folderID, newName string, newSlug *string) error
	Move(ctx context.Context, folderID string, newParentID *string) error
	Delete(ctx context.Context, folderID string) error
}

// record is one folder in the client arena. Records are plain values so
// snapshotting the arena is a map copy, not a deep clone of a nested tree.
type record struct {
	ID              string
	Name            string
	Slug            string
	ParentID        *string
	Order           *float64
	CreatedByUserID *string
	IsRoot          bool
}

// Controller mirrors the folder tree as an arena of records keyed by id,
// with parent/child relationships expressed as id references. The display
// forest is a pure projection recomputed on demand, so rollback never has
// to reconstruct nested structure: it restores the flat arena.
//
// The mutex guards the arena only and is never held across a remote round
// trip: the optimistic mutation lands before the call goes out, so the
// provisional state stays observable through Forest while the flow awaits
// the server.
type Controller struct {
	mu     sync.Mutex
	remote RemoteStore
	logger *slog.Logger
	arena  map[string]record
}

// NewController creates a controller with an empty arena. Call Load to
// populate it from the server.
func NewController(remote RemoteStore, logger *slog.Logger) *Controller {
	return &Controller{
		remote: remote,
		logger: logger,
		arena:  make(map[string]record),
	}
}

// Load fetches the materialized forest and rebuilds the arena from it.
// An empty forest means the tree is unavailable; the previous arena is
// kept in that case so a transient fetch failure does not blank the UI.
func (c *Controller) Load(ctx context.Context) error {
	forest, err := c.remote.FetchTree(ctx)
	if err != nil {
		return fmt.Errorf("load folder tree: %w", err)
	}
	if len(forest) == 0 {
		return fmt.Errorf("load folder tree: %w", domain.ErrNotFound)
	}

	arena := make(map[string]record)
	var flatten func(nodes []*models.FolderNode)
	flatten = func(nodes []*models.FolderNode) {
		for _, n := range nodes {
			arena[n.ID] = record{
				ID:              n.ID,
				Name:            n.Name,
				Slug:            n.Slug,
				ParentID:        n.ParentID,
				Order:           n.Order,
				CreatedByUserID: n.CreatedByUserID,
				IsRoot:          n.IsRoot,
			}
			flatten(n.Children)
		}
	}
	flatten(forest)

	c.mu.Lock()
	c.arena = arena
	c.mu.Unlock()
	return nil
}

// Forest projects the arena into the nested display tree. Siblings are
// ordered by sort key ascending (nulls first) then name, the same
// comparator the server query uses, with id as a final tie-break.
func (c *Controller) Forest() []*models.FolderNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectLocked()
}

// CreateFolder splices a provisional node into the arena immediately, then
// asks the remote store to create it. On success the provisional record is
// replaced by the authoritative folder; on failure it is removed and the
// server's message is returned.
func (c *Controller) CreateFolder(ctx context.Context, name string, parentID, slugOverride *string) (*models.Folder, error) {
	tempID := "temp-" + uuid.NewString()
	previewSlug := slug.Generate(name)
	if slugOverride != nil && *slugOverride != "" {
		previewSlug = *slugOverride
	}

	c.mu.Lock()
	c.arena[tempID] = record{
		ID:       tempID,
		Name:     name,
		Slug:     previewSlug,
		ParentID: parentID,
	}
	c.mu.Unlock()

	folder, err := c.remote.Create(ctx, name, parentID, slugOverride)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.arena, tempID)
	if err != nil {
		c.logger.Warn("create rolled back", "name", name, "error", err)
		return nil, fmt.Errorf("Failed to create folder: %w", err)
	}

	c.arena[folder.ID] = record{
		ID:              folder.ID,
		Name:            folder.Name,
		Slug:            folder.Slug,
		ParentID:        folder.ParentID,
		Order:           folder.Order,
		CreatedByUserID: folder.CreatedByUserID,
		IsRoot:          folder.IsRoot(),
	}
	return folder, nil
}

// RenameFolder applies the new name and slug optimistically and restores
// the snapshotted values if the remote rename fails.
func (c *Controller) RenameFolder(ctx context.Context, folderID, newName string, newSlug *string) error {
	c.mu.Lock()
	rec, ok := c.arena[folderID]
	if !ok {
		c.mu.Unlock()
		return &domain.NotFoundError{Message: "Folder not found."}
	}
	oldName, oldSlug := rec.Name, rec.Slug
	rec.Name = newName
	if newSlug != nil {
		rec.Slug = *newSlug
	}
	c.arena[folderID] = rec
	c.mu.Unlock()

	if err := c.remote.Rename(ctx, folderID, newName, newSlug); err != nil {
		c.mu.Lock()
		if cur, ok := c.arena[folderID]; ok {
			cur.Name, cur.Slug = oldName, oldSlug
			c.arena[folderID] = cur
		}
		c.mu.Unlock()
		c.logger.Warn("rename rolled back", "id", folderID, "error", err)
		return fmt.Errorf("Failed to rename folder: %w", err)
	}
	return nil
}

// DeleteFolder mirrors the server guards locally for immediate feedback,
// then removes the node optimistically. The whole arena is snapshotted
// beforehand and restored wholesale on failure.
func (c *Controller) DeleteFolder(ctx context.Context, folderID string) error {
	c.mu.Lock()
	rec, ok := c.arena[folderID]
	if !ok {
		c.mu.Unlock()
		return &domain.NotFoundError{Message: "Folder not found."}
	}
	if rec.IsRoot {
		c.mu.Unlock()
		return &domain.RootProtectedError{Message: "The root folder cannot be deleted."}
	}
	if c.childCountLocked(folderID) > 0 {
		c.mu.Unlock()
		return &domain.HasChildrenError{
			Message: "Cannot delete folder with subfolders. Please delete them first.",
		}
	}

	snapshot := c.snapshotLocked()
	delete(c.arena, folderID)
	c.mu.Unlock()

	if err := c.remote.Delete(ctx, folderID); err != nil {
		c.mu.Lock()
		c.arena = snapshot
		c.mu.Unlock()
		c.logger.Warn("delete rolled back", "id", folderID, "error", err)
		return fmt.Errorf("Failed to delete folder: %w", err)
	}
	return nil
}

// MoveFolders reparents the dragged nodes, one remote call per id in
// order, stopping at the first failure. The batch is all-or-nothing from
// the user's point of view: on failure the arena snapshot is restored and
// compensating moves are issued for the ids already committed server-side.
func (c *Controller) MoveFolders(ctx context.Context, folderIDs []string, newParentID *string) error {
	c.mu.Lock()
	originals := make(map[string]*string, len(folderIDs))
	for _, id := range folderIDs {
		rec, ok := c.arena[id]
		if !ok {
			c.mu.Unlock()
			return &domain.NotFoundError{Message: "Folder to move not found."}
		}
		if rec.IsRoot {
			c.mu.Unlock()
			return &domain.RootProtectedError{Message: "The root folder cannot be moved."}
		}
		originals[id] = rec.ParentID
	}

	snapshot := c.snapshotLocked()
	for _, id := range folderIDs {
		rec := c.arena[id]
		rec.ParentID = newParentID
		c.arena[id] = rec
	}
	c.mu.Unlock()

	for i, id := range folderIDs {
		if err := c.remote.Move(ctx, id, newParentID); err != nil {
			c.mu.Lock()
			c.arena = snapshot
			c.mu.Unlock()
			moveErr := fmt.Errorf("Failed to move folder %s: %w", displayName(snapshot, id), err)

			// Compensate the moves that already committed.
			for _, done := range folderIDs[:i] {
				if compErr := c.remote.Move(ctx, done, originals[done]); compErr != nil {
					c.logger.Error("compensating move failed",
						"id", done,
						"error", compErr,
					)
					return fmt.Errorf("%w (and restoring folder %s failed; reload to reconcile)",
						moveErr, displayName(snapshot, done))
				}
			}
			c.logger.Warn("move batch rolled back", "failed_id", id, "error", err)
			return moveErr
		}
	}
	return nil
}

func displayName(arena map[string]record, id string) string {
	if rec, ok := arena[id]; ok {
		return rec.Name
	}
	return id
}

func (c *Controller) childCountLocked(id string) int {
	count := 0
	for _, rec := range c.arena {
		if rec.ParentID != nil && *rec.ParentID == id {
			count++
		}
	}
	return count
}

func (c *Controller) snapshotLocked() map[string]record {
	snapshot := make(map[string]record, len(c.arena))
	for id, rec := range c.arena {
		snapshot[id] = rec
	}
	return snapshot
}

// projectLocked nests the arena into the display forest: root first, other
// records under their parent (nil parent means under the root), siblings
// sorted by the shared comparator with id as the final tie-break so the
// projection is deterministic across calls.
func (c *Controller) projectLocked() []*models.FolderNode {
	nodes := make(map[string]*models.FolderNode, len(c.arena))
	var root *models.FolderNode
	for id, rec := range c.arena {
		node := &models.FolderNode{
			ID:              rec.ID,
			Name:            rec.Name,
			Slug:            rec.Slug,
			ParentID:        rec.ParentID,
			Order:           rec.Order,
			CreatedByUserID: rec.CreatedByUserID,
			IsRoot:          rec.IsRoot,
			Children:        []*models.FolderNode{},
		}
		nodes[id] = node
		if rec.IsRoot && root == nil {
			root = node
		}
	}

	forest := []*models.FolderNode{}
	for id, node := range nodes {
		if root != nil && id == root.ID {
			forest = append(forest, node)
			continue
		}
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		if root != nil {
			root.Children = append(root.Children, node)
		} else {
			forest = append(forest, node)
		}
	}

	var sortChildren func(ns []*models.FolderNode)
	sortChildren = func(ns []*models.FolderNode) {
		sort.Slice(ns, func(i, j int) bool {
			a, b := ns[i], ns[j]
			switch {
			case a.Order == nil && b.Order != nil:
				return true
			case a.Order != nil && b.Order == nil:
				return false
			case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
				return *a.Order < *b.Order
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		for _, n := range ns {
			sortChildren(n.Children)
		}
	}
	sortChildren(forest)

	return forest
}
