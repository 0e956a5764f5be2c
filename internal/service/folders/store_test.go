package folders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"mooki/internal/domain"
	"mooki/internal/domain/models"
	"mooki/internal/domain/repositories"
	"mooki/internal/domain/services"
	"mooki/internal/httputil"
	"mooki/internal/reserved"
)

// fakeRepo is an in-memory FolderRepository. It enforces slug uniqueness
// the way the real relation does, so conflict mapping can be exercised
// without a database.
type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]models.Folder

	failGetAll error
	failInsert error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]models.Folder)}
}

func (r *fakeRepo) GetAll(ctx context.Context) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGetAll != nil {
		return nil, r.failGetAll
	}

	out := make([]models.Folder, 0, len(r.rows))
	for _, f := range r.rows {
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Order == nil && b.Order != nil:
			return true
		case a.Order != nil && b.Order == nil:
			return false
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *fakeRepo) Insert(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert != nil {
		return r.failInsert
	}
	for _, existing := range r.rows {
		if existing.Slug == folder.Slug {
			return fmt.Errorf("folder %q: %w", folder.Slug, domain.ErrConflict)
		}
	}
	r.rows[folder.ID] = *folder
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, update repositories.FolderUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	if update.Slug != nil {
		for otherID, existing := range r.rows {
			if otherID != id && existing.Slug == *update.Slug {
				return fmt.Errorf("folder %q: %w", *update.Slug, domain.ErrConflict)
			}
		}
		f.Slug = *update.Slug
	}
	if update.Name != nil {
		f.Name = *update.Name
	}
	if update.SetParent {
		f.ParentID = update.ParentID
	}
	r.rows[id] = f
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) CountChildren(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, f := range r.rows {
		if f.ParentID != nil && *f.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *fakeRepo) rootCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, f := range r.rows {
		if f.IsRoot() {
			count++
		}
	}
	return count
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T, repo repositories.FolderRepository) *store {
	t.Helper()
	registry, err := reserved.NewRegistry()
	if err != nil {
		t.Fatalf("load reserved registry: %v", err)
	}
	return NewStore(repo, registry, testLogger()).(*store)
}

func actorCtx() context.Context {
	return httputil.WithActor(context.Background(), &models.Actor{ID: "user-1", Email: "editor@example.com"})
}

func strptr(s string) *string { return &s }

func TestCreateRequiresActor(t *testing.T) {
	s := testStore(t, newFakeRepo())

	_, err := s.Create(context.Background(), &services.CreateFolderRequest{Name: "Docs"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestCreateGeneratesSlug(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Sales & Marketing"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if folder.Slug != "sales-and-marketing" {
		t.Errorf("slug = %q, want %q", folder.Slug, "sales-and-marketing")
	}
	if folder.ID == "" {
		t.Error("expected a generated id")
	}
	if folder.CreatedByUserID == nil || *folder.CreatedByUserID != "user-1" {
		t.Errorf("creator = %v, want user-1", folder.CreatedByUserID)
	}
}

func TestCreateSlugOverride(t *testing.T) {
	s := testStore(t, newFakeRepo())

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs", Slug: strptr("handbook")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if folder.Slug != "handbook" {
		t.Errorf("slug = %q, want %q", folder.Slug, "handbook")
	}
}

func TestCreateConflictComesFromStoreSignal(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	if _, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *domain.ConflictError, got %T", err)
	}
	if conflict.Slug != "docs" {
		t.Errorf("conflict slug = %q, want %q", conflict.Slug, "docs")
	}
}

func TestCreateRejectsReservedSlug(t *testing.T) {
	s := testStore(t, newFakeRepo())

	_, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "API"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for reserved slug, got %v", err)
	}
}

func TestNameRejectsSlash(t *testing.T) {
	s := testStore(t, newFakeRepo())

	// A slash would vanish from the slug while surviving in the name.
	_, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "a/b"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create(a/b): expected validation error, got %v", err)
	}

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = s.Rename(actorCtx(), folder.ID, &services.RenameFolderRequest{Name: "Docs/2024"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Rename(Docs/2024): expected validation error, got %v", err)
	}
}

func TestRenameValidation(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, name := range []string{"", "   ", "/"} {
		_, err := s.Rename(actorCtx(), folder.ID, &services.RenameFolderRequest{Name: name})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Rename(%q): expected validation error, got %v", name, err)
		}
	}
}

func TestRenameNotFound(t *testing.T) {
	s := testStore(t, newFakeRepo())

	_, err := s.Rename(actorCtx(), "missing", &services.RenameFolderRequest{Name: "New"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRenameRootProtected(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)
	tree := NewTree(repo, testLogger())

	forest := tree.GetAndEnsureRoot(actorCtx())
	if len(forest) != 1 {
		t.Fatalf("expected single root node, got %d", len(forest))
	}
	rootID := forest[0].ID

	_, err := s.Rename(actorCtx(), rootID, &services.RenameFolderRequest{Name: "renamed"})
	if !errors.Is(err, domain.ErrRootProtected) {
		t.Fatalf("expected root protected, got %v", err)
	}

	root, err := repo.GetByID(context.Background(), rootID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if root.Name != "/" || root.Slug != "root" {
		t.Errorf("root row changed: name=%q slug=%q", root.Name, root.Slug)
	}
}

func TestRenameAppliesNameAndSlug(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	renamed, err := s.Rename(actorCtx(), folder.ID, &services.RenameFolderRequest{Name: "Handbook", Slug: strptr("handbook")})
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "Handbook" || renamed.Slug != "handbook" {
		t.Errorf("renamed = %q/%q, want Handbook/handbook", renamed.Name, renamed.Slug)
	}

	stored, _ := repo.GetByID(context.Background(), folder.ID)
	if stored.Name != "Handbook" || stored.Slug != "handbook" {
		t.Errorf("stored = %q/%q, want Handbook/handbook", stored.Name, stored.Slug)
	}
}

func TestRenameConflict(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	if _, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Notes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = s.Rename(actorCtx(), other.ID, &services.RenameFolderRequest{Name: "Docs", Slug: strptr("docs")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMoveSelfParentNeverMutates(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Move(actorCtx(), folder.ID, &folder.ID); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), folder.ID)
	if stored.ParentID != nil {
		t.Errorf("parent changed on failed self-move: %v", *stored.ParentID)
	}
}

func TestMoveRootProtected(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)
	forest := NewTree(repo, testLogger()).GetAndEnsureRoot(actorCtx())
	rootID := forest[0].ID

	other, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Move(actorCtx(), rootID, &other.ID); !errors.Is(err, domain.ErrRootProtected) {
		t.Fatalf("expected root protected, got %v", err)
	}
}

func TestMoveTargetsMustExist(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	if err := s.Move(actorCtx(), "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing folder, got %v", err)
	}

	folder, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Move(actorCtx(), folder.ID, strptr("missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing parent, got %v", err)
	}
}

func TestMoveRejectsDirectCycle(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	a, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	b, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "B", ParentID: &a.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Move(actorCtx(), a.ID, &b.ID); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestMoveRejectsDeepCycle(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	a, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	b, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "B", ParentID: &a.ID})
	c, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "C", ParentID: &b.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// C is a grandchild of A; moving A under C is a deep cycle.
	if err := s.Move(actorCtx(), a.ID, &c.ID); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected cycle error for deep cycle, got %v", err)
	}
}

func TestMoveReparents(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	a, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	b, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "B"})

	if err := s.Move(actorCtx(), b.ID, &a.ID); err != nil {
		t.Fatalf("Move: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), b.ID)
	if stored.ParentID == nil || *stored.ParentID != a.ID {
		t.Fatalf("parent = %v, want %s", stored.ParentID, a.ID)
	}

	// nil parent moves back under the forest root.
	if err := s.Move(actorCtx(), b.ID, nil); err != nil {
		t.Fatalf("Move to root: %v", err)
	}
	stored, _ = repo.GetByID(context.Background(), b.ID)
	if stored.ParentID != nil {
		t.Fatalf("parent = %v, want nil", *stored.ParentID)
	}
}

func TestDeleteGuards(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)
	forest := NewTree(repo, testLogger()).GetAndEnsureRoot(actorCtx())
	rootID := forest[0].ID

	if err := s.Delete(actorCtx(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(actorCtx(), rootID); !errors.Is(err, domain.ErrRootProtected) {
		t.Fatalf("expected root protected, got %v", err)
	}

	parent, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if _, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "2024", ParentID: &parent.ID}); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	before := repo.rowCount()
	if err := s.Delete(actorCtx(), parent.ID); !errors.Is(err, domain.ErrHasChildren) {
		t.Fatalf("expected has-children error, got %v", err)
	}
	if repo.rowCount() != before {
		t.Error("row count changed on refused delete")
	}
}

func TestDeleteRemovesChildlessFolder(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)

	folder, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err := s.Delete(actorCtx(), folder.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), folder.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("row still present after delete: %v", err)
	}
}

func TestRootStaysSingletonAcrossOperations(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)
	tree := NewTree(repo, testLogger())

	tree.GetAndEnsureRoot(actorCtx())

	a, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "A"})
	b, _ := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "B"})
	if _, err := s.Rename(actorCtx(), a.ID, &services.RenameFolderRequest{Name: "A2"}); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := s.Move(actorCtx(), b.ID, &a.ID); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := s.Delete(actorCtx(), b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	tree.GetAndEnsureRoot(actorCtx())

	if count := repo.rootCount(); count != 1 {
		t.Fatalf("root count = %d, want 1", count)
	}
}
