package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"mooki/internal/config"
	"mooki/internal/domain/models"
	"mooki/internal/domain/services"
	"mooki/internal/httputil"
	"mooki/internal/repository/postgres"
	"mooki/internal/reserved"
	"mooki/internal/service/folders"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	clearData := flag.Bool("clear-data", false, "Delete all folders (keep schema)")
	seedUserID := flag.String("user-id", "00000000-0000-0000-0000-000000000001", "User id recorded as the creator of seeded folders")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s)", cfg.Environment)
	} else {
		log.Printf("🌱 Seeding database (environment: %s)", cfg.Environment)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Apply migrations to ensure the schema exists
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.ApplyMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		if err := clearFolders(ctx, pool); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Clear existing data
	log.Println("⚠️  Clearing existing folders...")
	if err := clearFolders(ctx, pool); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Wire the service layer so seeding goes through the same slugging and
	// validation rules as the API
	reservedSlugs, err := reserved.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load reserved slug registry: %v", err)
	}
	folderRepo := postgres.NewFolderRepository(pool)
	store := folders.NewStore(folderRepo, reservedSlugs, logger)
	tree := folders.NewTree(folderRepo, logger)

	// Seeded folders are attributed to the given user
	actorCtx := httputil.WithActor(ctx, &models.Actor{ID: *seedUserID})

	// Provision the root node
	if forest := tree.GetAndEnsureRoot(actorCtx); len(forest) == 0 {
		log.Fatalf("Failed to provision root folder")
	}

	// Seed the folder tree
	log.Println("📁 Seeding folder structure...")
	created := 0
	for _, top := range seedForest() {
		if err := createRecursive(actorCtx, store, top, nil, &created); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
	}

	log.Printf("🎉 Seeding complete! Created %d folders", created)
}

type seedFolder struct {
	name     string
	children []seedFolder
}

// seedForest returns a small content tree shaped like a real site's
// folder structure, with names that exercise the slug generator.
func seedForest() []seedFolder {
	return []seedFolder{
		{
			name: "Blog",
			children: []seedFolder{
				{name: "2024"},
				{name: "2025", children: []seedFolder{
					{name: "Drafts & Ideas"},
				}},
			},
		},
		{
			name: "Pages",
			children: []seedFolder{
				{name: "About Us"},
				{name: "Contact"},
			},
		},
		{
			name: "Media",
			children: []seedFolder{
				{name: "Photos"},
				{name: "Downloads"},
			},
		},
	}
}

// createRecursive creates a folder and then its children underneath it.
func createRecursive(ctx context.Context, store services.FolderStore, f seedFolder, parentID *string, created *int) error {
	folder, err := store.Create(ctx, &services.CreateFolderRequest{
		Name:     f.name,
		ParentID: parentID,
	})
	if err != nil {
		return err
	}
	*created++
	log.Printf("✅ Created folder: %s (slug: %s)", folder.Name, folder.Slug)

	for _, child := range f.children {
		if err := createRecursive(ctx, store, child, &folder.ID, created); err != nil {
			return err
		}
	}
	return nil
}

// dropAllTables drops the folders table plus the migration bookkeeping so
// the next ApplyMigrations starts from scratch.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range []string{"folders", "schema_migrations"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}
	return nil
}

// clearFolders deletes every folder row. The self-referencing foreign key
// is NO ACTION, so a single statement delete is valid.
func clearFolders(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "DELETE FROM folders")
	return err
}
