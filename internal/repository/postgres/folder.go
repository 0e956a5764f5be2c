package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mooki/internal/domain"
	"mooki/internal/domain/models"
	"mooki/internal/domain/repositories"
)

const foldersTable = "folders"

// FolderRepository implements repositories.FolderRepository against a
// Postgres folders relation.
type FolderRepository struct {
	pool *pgxpool.Pool
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(pool *pgxpool.Pool) repositories.FolderRepository {
	return &FolderRepository{pool: pool}
}

// GetAll retrieves every folder ordered by sort key ascending (nulls
// first) then name ascending, matching the order the materializer expects.
func (r *FolderRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, parent_id, "order", created_by_user_id, created_at, updated_at
		FROM %s
		ORDER BY "order" ASC NULLS FIRST, name ASC
	`, foldersTable)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.Name,
			&folder.Slug,
			&folder.ParentID,
			&folder.Order,
			&folder.CreatedByUserID,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, parent_id, "order", created_by_user_id, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, foldersTable)

	var folder models.Folder
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&folder.ID,
		&folder.Name,
		&folder.Slug,
		&folder.ParentID,
		&folder.Order,
		&folder.CreatedByUserID,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// Insert persists a new folder. The slug column carries a unique
// constraint; violations surface as domain.ErrConflict so the store can
// map them without a racy pre-check.
func (r *FolderRepository) Insert(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, slug, parent_id, "order", created_by_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, foldersTable)

	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		folder.ID,
		folder.Name,
		folder.Slug,
		folder.ParentID,
		folder.Order,
		folder.CreatedByUserID,
		now,
		now,
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder %q: %w", folder.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("insert folder: %w", err)
	}

	return nil
}

// Update applies a partial update to a folder row.
func (r *FolderRepository) Update(ctx context.Context, id string, update repositories.FolderUpdate) error {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now()}

	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Slug != nil {
		args = append(args, *update.Slug)
		sets = append(sets, fmt.Sprintf("slug = $%d", len(args)))
	}
	if update.SetParent {
		args = append(args, update.ParentID)
		sets = append(sets, fmt.Sprintf("parent_id = $%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
		foldersTable, strings.Join(sets, ", "), len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isPgDuplicateError(err) {
			slug := ""
			if update.Slug != nil {
				slug = *update.Slug
			}
			return fmt.Errorf("folder %q: %w", slug, domain.ErrConflict)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a folder row.
func (r *FolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, foldersTable)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s still referenced: %w", id, domain.ErrHasChildren)
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountChildren returns the number of folders whose parent is id.
func (r *FolderRepository) CountChildren(ctx context.Context, id string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE parent_id = $1`, foldersTable)

	var count int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}

	return count, nil
}
