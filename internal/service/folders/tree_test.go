package folders

import (
	"context"
	"errors"
	"testing"

	"mooki/internal/domain/models"
	"mooki/internal/domain/services"
)

func TestGetAndEnsureRootOnEmptyStore(t *testing.T) {
	repo := newFakeRepo()
	tree := NewTree(repo, testLogger())

	forest := tree.GetAndEnsureRoot(actorCtx())
	if len(forest) != 1 {
		t.Fatalf("forest size = %d, want 1", len(forest))
	}

	root := forest[0]
	if root.Name != "/" || root.Slug != "root" {
		t.Errorf("root = %q/%q, want \"/\"/\"root\"", root.Name, root.Slug)
	}
	if root.ParentID != nil {
		t.Error("root has a parent")
	}
	if !root.IsRoot {
		t.Error("root not flagged as root")
	}
	if len(root.Children) != 0 {
		t.Errorf("root children = %d, want 0", len(root.Children))
	}
	if root.Order == nil || *root.Order != -1 {
		t.Errorf("root order = %v, want -1", root.Order)
	}
}

func TestGetAndEnsureRootIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	tree := NewTree(repo, testLogger())

	first := tree.GetAndEnsureRoot(actorCtx())
	second := tree.GetAndEnsureRoot(actorCtx())

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("forest sizes = %d, %d, want 1, 1", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Error("root re-provisioned on second load")
	}
	if count := repo.rootCount(); count != 1 {
		t.Fatalf("root count = %d, want 1", count)
	}
}

func TestGetAndEnsureRootWithoutActorRecordsNoCreator(t *testing.T) {
	repo := newFakeRepo()
	tree := NewTree(repo, testLogger())

	forest := tree.GetAndEnsureRoot(context.Background())
	if len(forest) != 1 {
		t.Fatalf("forest size = %d, want 1", len(forest))
	}
	if forest[0].CreatedByUserID != nil {
		t.Errorf("creator = %v, want nil", *forest[0].CreatedByUserID)
	}
}

func TestGetAndEnsureRootNestsThreeLevels(t *testing.T) {
	repo := newFakeRepo()
	s := testStore(t, repo)
	tree := NewTree(repo, testLogger())

	tree.GetAndEnsureRoot(actorCtx())

	docs, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("Create Docs: %v", err)
	}
	if _, err := s.Create(actorCtx(), &services.CreateFolderRequest{Name: "2024", ParentID: &docs.ID}); err != nil {
		t.Fatalf("Create 2024: %v", err)
	}

	forest := tree.GetAndEnsureRoot(actorCtx())
	// "Docs" and "2024" both hang off parents, so only the root is top level.
	if len(forest) != 1 {
		t.Fatalf("forest size = %d, want 1", len(forest))
	}

	root := forest[0]
	if len(root.Children) != 1 || root.Children[0].Name != "Docs" {
		t.Fatalf("root children = %v, want [Docs]", names(root.Children))
	}
	docsNode := root.Children[0]
	if len(docsNode.Children) != 1 || docsNode.Children[0].Name != "2024" {
		t.Fatalf("Docs children = %v, want [2024]", names(docsNode.Children))
	}
	if len(docsNode.Children[0].Children) != 0 {
		t.Error("2024 unexpectedly has children")
	}
}

func TestGetAndEnsureRootFailsSoftOnFetchError(t *testing.T) {
	repo := newFakeRepo()
	repo.failGetAll = errors.New("connection refused")
	tree := NewTree(repo, testLogger())

	forest := tree.GetAndEnsureRoot(actorCtx())
	if forest == nil || len(forest) != 0 {
		t.Fatalf("forest = %v, want empty (tree unavailable)", forest)
	}
}

func TestGetAndEnsureRootFailsSoftOnRootInsertError(t *testing.T) {
	repo := newFakeRepo()
	repo.failInsert = errors.New("permission denied")
	tree := NewTree(repo, testLogger())

	forest := tree.GetAndEnsureRoot(actorCtx())
	if forest == nil || len(forest) != 0 {
		t.Fatalf("forest = %v, want empty (tree unavailable)", forest)
	}
}

func TestNestSurfacesOrphans(t *testing.T) {
	missing := "missing-parent"
	rows := []models.Folder{
		{ID: "a", Name: "A", Slug: "a"},
		{ID: "b", Name: "B", Slug: "b", ParentID: &missing},
	}

	forest := Nest(rows)
	if len(forest) != 2 {
		t.Fatalf("forest size = %d, want 2 (orphan surfaced at top level)", len(forest))
	}
}

func names(nodes []*models.FolderNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
