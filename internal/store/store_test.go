// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"wikimerge/internal/database"
	"wikimerge/internal/fingerprint"
	"wikimerge/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "wikimerge")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "wikimerge")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// seedProject inserts a throwaway project and a user for FK references.
// The project is removed on cleanup; wiki rows cascade with it.
func seedProject(t *testing.T, db *sql.DB) (projectID, userID uuid.UUID) {
	t.Helper()

	err := db.QueryRow(`
		INSERT INTO users (display_name, email) VALUES ($1, $2) RETURNING id
	`, "Store Test User", uuid.NewString()+"@test.local").Scan(&userID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	err = db.QueryRow(`
		INSERT INTO projects (name) VALUES ($1) RETURNING id
	`, "store-test-"+uuid.NewString()).Scan(&projectID)
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM wiki_pages WHERE project_id = $1 AND parent_id IS NOT NULL", projectID)
		db.Exec("DELETE FROM wiki_pages WHERE project_id = $1", projectID)
		db.Exec("DELETE FROM issues WHERE project_id = $1", projectID)
		db.Exec("DELETE FROM features WHERE project_id = $1", projectID)
		db.Exec("DELETE FROM projects WHERE id = $1", projectID)
		db.Exec("DELETE FROM users WHERE id = $1", userID)
	})
	return projectID, userID
}

// seedIssue inserts a throwaway issue in the given project.
func seedIssue(t *testing.T, db *sql.DB, projectID uuid.UUID) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := db.QueryRow(`
		INSERT INTO issues (project_id, title, status)
		VALUES ($1, $2, 'Open') RETURNING id
	`, projectID, "store test issue").Scan(&id)
	if err != nil {
		t.Fatalf("seed issue: %v", err)
	}
	return id
}

// createTestPage inserts a page through the store with the given content.
func createTestPage(t *testing.T, s *PageStore, projectID, userID uuid.UUID, slug, content string) *models.Page {
	t.Helper()

	page, err := s.Create(&models.Page{
		ProjectID:   projectID,
		Slug:        slug,
		Title:       "Test " + slug,
		Content:     content,
		ContentHash: fingerprint.Sum(content),
		Status:      models.PageStatusDraft,
		CreatedBy:   userID,
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	return page
}
