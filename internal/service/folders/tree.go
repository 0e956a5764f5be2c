package folders

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"mooki/internal/domain/models"
	"mooki/internal/domain/repositories"
	"mooki/internal/domain/services"
	"mooki/internal/httputil"
	"mooki/internal/slug"
)

// rootOrder forces the lazily provisioned root ahead of every numbered row.
const rootOrder = float64(-1)

type tree struct {
	repo   repositories.FolderRepository
	logger *slog.Logger
}

// NewTree creates the tree materializer.
func NewTree(repo repositories.FolderRepository, logger *slog.Logger) services.TreeMaterializer {
	return &tree{repo: repo, logger: logger}
}

// GetAndEnsureRoot loads all folder rows, provisions the root row if it is
// missing, and nests the flat list into a forest. Any failure degrades to
// an empty forest: callers treat an empty result as "tree unavailable,"
// never as "tree is empty," since a healthy store always holds the root.
func (t *tree) GetAndEnsureRoot(ctx context.Context) []*models.FolderNode {
	rows, err := t.repo.GetAll(ctx)
	if err != nil {
		t.logger.Error("failed to fetch folders", "error", err)
		return []*models.FolderNode{}
	}

	rootExists := false
	for i := range rows {
		if rows[i].IsRoot() {
			rootExists = true
			break
		}
	}

	if !rootExists {
		root, err := t.provisionRoot(ctx)
		if err != nil {
			t.logger.Error("failed to insert root folder", "error", err)
			return []*models.FolderNode{}
		}
		rows = append([]models.Folder{*root}, rows...)
	}

	return Nest(rows)
}

// provisionRoot inserts the reserved root row. Unlike Create, an
// unauthenticated actor does not block provisioning; the creator id is
// simply left null.
func (t *tree) provisionRoot(ctx context.Context) (*models.Folder, error) {
	t.logger.Info("root folder not found, creating it")

	var creatorID *string
	if actor := httputil.ActorFrom(ctx); actor != nil {
		creatorID = &actor.ID
	}

	order := rootOrder
	root := &models.Folder{
		ID:              uuid.NewString(),
		Name:            slug.RootName,
		Slug:            slug.RootSlug,
		ParentID:        nil,
		Order:           &order,
		CreatedByUserID: creatorID,
	}

	if err := t.repo.Insert(ctx, root); err != nil {
		return nil, err
	}

	t.logger.Info("root folder created", "id", root.ID)
	return root, nil
}

// Nest builds the forest from a flat row list, preserving the row order
// within each sibling group and stamping the derived IsRoot flag. A nil
// parent_id means "child of the implicit forest root," so every non-root
// row without a resolvable parent hangs off the root node; the returned
// forest is expected to be exactly the root and its descendants.
func Nest(rows []models.Folder) []*models.FolderNode {
	nodes := make(map[string]*models.FolderNode, len(rows))
	var root *models.FolderNode
	for i := range rows {
		f := &rows[i]
		node := &models.FolderNode{
			ID:              f.ID,
			Name:            f.Name,
			Slug:            f.Slug,
			ParentID:        f.ParentID,
			Order:           f.Order,
			CreatedByUserID: f.CreatedByUserID,
			IsRoot:          f.IsRoot(),
			Children:        []*models.FolderNode{},
		}
		nodes[f.ID] = node
		if node.IsRoot && root == nil {
			root = node
		}
	}

	forest := []*models.FolderNode{}
	for i := range rows {
		node := nodes[rows[i].ID]
		if node.IsRoot && node == root {
			forest = append(forest, node)
			continue
		}
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		// Implicit forest root (nil parent) or orphaned row.
		if root != nil {
			root.Children = append(root.Children, node)
		} else {
			forest = append(forest, node)
		}
	}

	return forest
}
