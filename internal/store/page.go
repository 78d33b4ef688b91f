// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wikimerge/internal/models"
)

// ErrStaleContent is returned by ApplyContent when the page exists but its
// content hash no longer matches the expected fingerprint — another write
// landed first. The page is left untouched.
var ErrStaleContent = errors.New("page content hash is stale")

// pageColumns lists all columns for wiki_pages SELECTs.
const pageColumns = `id, project_id, slug, title, content, content_hash,
	version, status, parent_id, sort_order, created_by, updated_by,
	created_at, updated_at`

// PageStore handles all wiki page database operations. Page content is
// never written through this store except via ApplyContent, which performs
// an atomic compare-and-swap on the content hash.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore with the given database connection.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

// scanPage scans a single wiki_pages row into a Page.
func scanPage(scanner interface{ Scan(...any) error }) (*models.Page, error) {
	var p models.Page
	err := scanner.Scan(
		&p.ID, &p.ProjectID, &p.Slug, &p.Title, &p.Content, &p.ContentHash,
		&p.Version, &p.Status, &p.ParentID, &p.SortOrder, &p.CreatedBy,
		&p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new wiki page and returns it with the generated ID.
func (s *PageStore) Create(p *models.Page) (*models.Page, error) {
	row := s.db.QueryRow(`
		INSERT INTO wiki_pages (project_id, slug, title, content, content_hash,
		                        status, parent_id, sort_order, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+pageColumns,
		p.ProjectID, p.Slug, p.Title, p.Content, p.ContentHash,
		p.Status, p.ParentID, p.SortOrder, p.CreatedBy,
	)
	created, err := scanPage(row)
	if err != nil {
		return nil, fmt.Errorf("create wiki page: %w", err)
	}
	return created, nil
}

// FindByID retrieves a page by its UUID. Returns nil if not found.
func (s *PageStore) FindByID(id uuid.UUID) (*models.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageColumns+` FROM wiki_pages WHERE id = $1`, id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wiki page by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a page by project and slug. Returns nil if not found.
func (s *PageStore) FindBySlug(projectID uuid.UUID, slug string) (*models.Page, error) {
	row := s.db.QueryRow(`
		SELECT `+pageColumns+` FROM wiki_pages
		WHERE project_id = $1 AND slug = $2
	`, projectID, slug)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wiki page by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether a slug is already taken within a project,
// ignoring the page identified by excludeID (uuid.Nil to exclude none).
func (s *PageStore) SlugExists(projectID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM wiki_pages
			WHERE project_id = $1 AND slug = $2 AND id <> $3
		)
	`, projectID, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// ListByProject returns a page of wiki pages for a project ordered by sort
// order then title, plus the total count. An empty status lists all.
func (s *PageStore) ListByProject(projectID uuid.UUID, status models.PageStatus, offset, limit int) ([]*models.Page, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM wiki_pages
		WHERE project_id = $1 AND ($2 = '' OR status = $2)
	`, projectID, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count wiki pages: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+pageColumns+` FROM wiki_pages
		WHERE project_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY sort_order, title
		OFFSET $3 LIMIT $4
	`, projectID, string(status), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list wiki pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan wiki page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, total, rows.Err()
}

// ListAllByProject returns every page in a project ordered for tree
// assembly (parents sort before their children by sort order).
func (s *PageStore) ListAllByProject(projectID uuid.UUID) ([]*models.Page, error) {
	rows, err := s.db.Query(`
		SELECT `+pageColumns+` FROM wiki_pages
		WHERE project_id = $1
		ORDER BY parent_id NULLS FIRST, sort_order, title
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list all wiki pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wiki page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountChildren returns how many pages name the given page as parent.
func (s *PageStore) CountChildren(id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM wiki_pages WHERE parent_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count child pages: %w", err)
	}
	return count, nil
}

// UpdateMeta modifies a page's title, slug, tree placement, and audit
// fields. Content, hash, and version are untouched — those only move
// through ApplyContent.
func (s *PageStore) UpdateMeta(p *models.Page) error {
	_, err := s.db.Exec(`
		UPDATE wiki_pages SET
			title = $1, slug = $2, parent_id = $3, sort_order = $4,
			updated_by = $5, updated_at = NOW()
		WHERE id = $6
	`, p.Title, p.Slug, p.ParentID, p.SortOrder, p.UpdatedBy, p.ID)
	if err != nil {
		return fmt.Errorf("update wiki page meta: %w", err)
	}
	return nil
}

// UpdateStatus sets a page's editorial status.
func (s *PageStore) UpdateStatus(id uuid.UUID, status models.PageStatus, actorID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE wiki_pages SET status = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3
	`, status, actorID, id)
	if err != nil {
		return fmt.Errorf("update wiki page status: %w", err)
	}
	return nil
}

// ApplyContent atomically replaces a page's content, fingerprint, and
// version, conditional on the current content hash still being expectedHash.
// This single conditional UPDATE is the serialization point for all merges
// against the page: of two racing applies only one can observe the matching
// hash; the other gets ErrStaleContent.
//
// Returns nil, nil if no page with the given id exists.
func (s *PageStore) ApplyContent(id uuid.UUID, expectedHash, content, contentHash string, actorID uuid.UUID) (*models.Page, error) {
	row := s.db.QueryRow(`
		UPDATE wiki_pages SET
			content = $3, content_hash = $4, version = version + 1,
			updated_by = $5, updated_at = NOW()
		WHERE id = $1 AND content_hash = $2
		RETURNING `+pageColumns,
		id, expectedHash, content, contentHash, actorID,
	)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the page is gone or the hash moved. Look again to tell
		// the two apart.
		existing, ferr := s.FindByID(id)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrStaleContent
	}
	if err != nil {
		return nil, fmt.Errorf("apply wiki page content: %w", err)
	}
	return p, nil
}

// Delete removes a page by ID. Its change history goes with it (cascade).
func (s *PageStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM wiki_pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wiki page: %w", err)
	}
	return nil
}
