package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"wikimerge/internal/fingerprint"
)

// Seed populates the database with initial development data: a demo project
// with two users, a sample wiki page, and one open issue and feature to link
// change proposals against. Skipped if any project exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return fmt.Errorf("seed check projects: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	var alice, bob string
	err := db.QueryRow(`
		INSERT INTO users (display_name, email)
		VALUES ('Alice', 'alice@wikimerge.local')
		RETURNING id
	`).Scan(&alice)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}
	err = db.QueryRow(`
		INSERT INTO users (display_name, email)
		VALUES ('Bob', 'bob@wikimerge.local')
		RETURNING id
	`).Scan(&bob)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	var project string
	err = db.QueryRow(`
		INSERT INTO projects (name) VALUES ('Demo Project') RETURNING id
	`).Scan(&project)
	if err != nil {
		return fmt.Errorf("seed insert project: %w", err)
	}

	if _, err := db.Exec(`
		INSERT INTO issues (project_id, title, status)
		VALUES ($1, 'Login page times out', 'Open')
	`, project); err != nil {
		return fmt.Errorf("seed insert issue: %w", err)
	}
	if _, err := db.Exec(`
		INSERT INTO features (project_id, title, status)
		VALUES ($1, 'Export to CSV', 'Planned')
	`, project); err != nil {
		return fmt.Errorf("seed insert feature: %w", err)
	}

	content := "<h1>Welcome</h1><p>This page documents the demo project.</p>"
	if _, err := db.Exec(`
		INSERT INTO wiki_pages (project_id, slug, title, content, content_hash,
		                        status, created_by, updated_by)
		VALUES ($1, 'welcome', 'Welcome', $2, $3, 'Published', $4, $4)
	`, project, content, fingerprint.Sum(content), alice); err != nil {
		return fmt.Errorf("seed insert wiki page: %w", err)
	}

	slog.Info("database seeded with demo project",
		"project_id", project,
		"users", 2,
	)

	return nil
}
