// Package folders implements the server-side folder tree: the mutation
// store enforcing the tree invariants and the materializer that projects
// the persisted rows into a nested forest.
package folders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"mooki/internal/config"
	"mooki/internal/domain"
	"mooki/internal/domain/models"
	"mooki/internal/domain/repositories"
	"mooki/internal/domain/services"
	"mooki/internal/httputil"
	"mooki/internal/reserved"
	"mooki/internal/slug"
)

type store struct {
	repo     repositories.FolderRepository
	reserved *reserved.Registry
	logger   *slog.Logger
}

// NewStore creates the folder mutation store.
func NewStore(repo repositories.FolderRepository, reserved *reserved.Registry, logger *slog.Logger) services.FolderStore {
	return &store{
		repo:     repo,
		reserved: reserved,
		logger:   logger,
	}
}

// Create persists a new folder. The slug is the override when given,
// otherwise generated from the name. Uniqueness is not pre-checked; the
// persistence layer's violation signal is mapped to a conflict instead, so
// two racing creates cannot both pass a read-then-write check.
func (s *store) Create(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	actor := httputil.ActorFrom(ctx)
	if actor == nil {
		return nil, &domain.UnauthorizedError{Message: "User authentication failed. Cannot create folder."}
	}

	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	folderSlug := slug.Generate(req.Name)
	if req.Slug != nil && *req.Slug != "" {
		folderSlug = *req.Slug
	}
	if s.reserved.IsReserved(folderSlug) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Slug %q is reserved by the application. Please choose a different name.", folderSlug),
		}
	}

	folder := &models.Folder{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Slug:            folderSlug,
		ParentID:        req.ParentID,
		CreatedByUserID: &actor.ID,
	}

	if err := s.repo.Insert(ctx, folder); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, conflictError(folderSlug)
		}
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"slug", folder.Slug,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// Rename changes a folder's name and, optionally, its slug. The root
// folder cannot be renamed, and nothing can be renamed to the root name.
func (s *store) Rename(ctx context.Context, folderID string, req *services.RenameFolderRequest) (*models.Folder, error) {
	if strings.TrimSpace(req.Name) == "" || req.Name == slug.RootName {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Invalid folder name. Name cannot be empty or %q.", slug.RootName),
		}
	}
	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	folder, err := s.repo.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Folder not found."}
		}
		return nil, err
	}
	if folder.IsRoot() {
		return nil, &domain.RootProtectedError{Message: "The root folder cannot be renamed."}
	}

	if req.Slug != nil && s.reserved.IsReserved(*req.Slug) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Slug %q is reserved by the application. Please choose a different slug.", *req.Slug),
		}
	}

	update := repositories.FolderUpdate{Name: &req.Name, Slug: req.Slug}
	if err := s.repo.Update(ctx, folderID, update); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			colliding := req.Name
			if req.Slug != nil {
				colliding = *req.Slug
			}
			return nil, conflictError(colliding)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Folder not found."}
		}
		return nil, err
	}

	folder.Name = req.Name
	if req.Slug != nil {
		folder.Slug = *req.Slug
	}

	s.logger.Info("folder renamed",
		"id", folder.ID,
		"name", folder.Name,
		"slug", folder.Slug,
	)

	return folder, nil
}

// Move reparents a folder. Self-parenting, moving the root, and moving a
// folder under any of its own descendants are all rejected. The descendant
// check walks the full ancestor chain of the candidate parent, not just
// one level.
func (s *store) Move(ctx context.Context, folderID string, newParentID *string) error {
	if newParentID != nil && folderID == *newParentID {
		return &domain.CycleError{Message: "Cannot move a folder into itself."}
	}

	folder, err := s.repo.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "Folder to move not found."}
		}
		return err
	}
	if folder.IsRoot() {
		return &domain.RootProtectedError{Message: "The root folder cannot be moved."}
	}

	if newParentID != nil {
		if err := s.checkNoCycle(ctx, folderID, *newParentID); err != nil {
			return err
		}
	}

	update := repositories.FolderUpdate{ParentID: newParentID, SetParent: true}
	if err := s.repo.Update(ctx, folderID, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "Folder to move not found."}
		}
		return err
	}

	s.logger.Info("folder moved",
		"id", folderID,
		"parent_id", newParentID,
	)

	return nil
}

// Delete removes a folder. The root folder and folders with children are
// refused; children must be removed or reparented first.
func (s *store) Delete(ctx context.Context, folderID string) error {
	folder, err := s.repo.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "Folder not found."}
		}
		return err
	}
	if folder.IsRoot() {
		return &domain.RootProtectedError{Message: "The root folder cannot be deleted."}
	}

	count, err := s.repo.CountChildren(ctx, folderID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &domain.HasChildrenError{
			Message: "Cannot delete folder with subfolders. Please delete them first.",
		}
	}

	if err := s.repo.Delete(ctx, folderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "Folder not found."}
		}
		return err
	}

	s.logger.Info("folder deleted",
		"id", folderID,
		"name", folder.Name,
	)

	return nil
}

// checkNoCycle verifies the candidate parent exists and is not the moved
// folder or one of its descendants, walking the ancestor chain up to the
// root. The visited set guards against corrupted data looping forever.
func (s *store) checkNoCycle(ctx context.Context, folderID, newParentID string) error {
	visited := map[string]struct{}{}
	currentID := newParentID

	for {
		if _, seen := visited[currentID]; seen {
			return &domain.CycleError{Message: "Cannot move a folder into its own descendant folder."}
		}
		visited[currentID] = struct{}{}

		current, err := s.repo.GetByID(ctx, currentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if currentID == newParentID {
					return &domain.NotFoundError{Message: "Target parent folder not found."}
				}
				// Ancestor chain broken mid-walk; treat the move as safe.
				return nil
			}
			return err
		}

		if current.ID == folderID {
			return &domain.CycleError{Message: "Cannot move a folder into its own descendant folder."}
		}
		if current.ParentID == nil {
			return nil
		}
		if *current.ParentID == folderID {
			return &domain.CycleError{Message: "Cannot move a folder into its own descendant folder."}
		}
		currentID = *current.ParentID
	}
}

func validateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		validation.By(nameHasNoSlash),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("Invalid folder name: %v.", err)}
	}
	return nil
}

// nameHasNoSlash rejects names containing a path separator; "/" is the
// reserved root name and slugs silently drop the character otherwise.
func nameHasNoSlash(value interface{}) error {
	name, _ := value.(string)
	if strings.Contains(name, "/") {
		return errors.New("must not contain '/'")
	}
	return nil
}

func conflictError(colliding string) error {
	return &domain.ConflictError{
		Message: fmt.Sprintf("Folder name or slug '%s' likely already exists. Please choose a different name.", colliding),
		Slug:    colliding,
	}
}
