// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wikimerge/internal/models"
)

// changeColumns lists all columns for wiki_page_changes SELECTs.
const changeColumns = `id, page_id, project_id, item_type, item_id, base_hash,
	delta, snapshot, snapshot_hash, change_type, status, merged_at,
	created_by, created_at, updated_at`

// ChangeStore handles all change proposal database operations. Status
// writes are conditional on the row's current status so the proposal state
// machine holds even when two callers race on the same proposal.
type ChangeStore struct {
	db *sql.DB
}

// NewChangeStore creates a new ChangeStore with the given database connection.
func NewChangeStore(db *sql.DB) *ChangeStore {
	return &ChangeStore{db: db}
}

// scanChange scans a single wiki_page_changes row into a Change.
func scanChange(scanner interface{ Scan(...any) error }) (*models.Change, error) {
	var c models.Change
	err := scanner.Scan(
		&c.ID, &c.PageID, &c.ProjectID, &c.ItemType, &c.ItemID, &c.BaseHash,
		&c.Delta, &c.Snapshot, &c.SnapshotHash, &c.ChangeType, &c.Status,
		&c.MergedAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new change proposal and returns it with the generated ID.
func (s *ChangeStore) Create(c *models.Change) (*models.Change, error) {
	row := s.db.QueryRow(`
		INSERT INTO wiki_page_changes (page_id, project_id, item_type, item_id,
			base_hash, delta, snapshot, snapshot_hash, change_type, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+changeColumns,
		c.PageID, c.ProjectID, c.ItemType, c.ItemID, c.BaseHash, c.Delta,
		c.Snapshot, c.SnapshotHash, c.ChangeType, c.Status, c.CreatedBy,
	)
	created, err := scanChange(row)
	if err != nil {
		return nil, fmt.Errorf("create change: %w", err)
	}
	return created, nil
}

// FindByID retrieves a change proposal by its UUID. Returns nil if not found.
func (s *ChangeStore) FindByID(id uuid.UUID) (*models.Change, error) {
	row := s.db.QueryRow(`SELECT `+changeColumns+` FROM wiki_page_changes WHERE id = $1`, id)
	c, err := scanChange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find change by id: %w", err)
	}
	return c, nil
}

// ListByPage returns a page of change proposals for a wiki page, newest
// first, plus the total count. An empty status lists all.
func (s *ChangeStore) ListByPage(pageID uuid.UUID, status models.ChangeStatus, offset, limit int) ([]*models.Change, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM wiki_page_changes
		WHERE page_id = $1 AND ($2 = '' OR status = $2)
	`, pageID, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count changes: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+changeColumns+` FROM wiki_page_changes
		WHERE page_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		OFFSET $3 LIMIT $4
	`, pageID, string(status), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list changes by page: %w", err)
	}
	defer rows.Close()

	changes, err := collectChanges(rows)
	return changes, total, err
}

// ListByItem returns all change proposals linked to a work item, newest first.
func (s *ChangeStore) ListByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error) {
	rows, err := s.db.Query(`
		SELECT `+changeColumns+` FROM wiki_page_changes
		WHERE item_type = $1 AND item_id = $2
		ORDER BY created_at DESC
	`, itemType, itemID)
	if err != nil {
		return nil, fmt.Errorf("list changes by item: %w", err)
	}
	defer rows.Close()
	return collectChanges(rows)
}

// ListPendingByItem returns Pending proposals for a work item, oldest first,
// so the bulk merge applies them in submission order.
func (s *ChangeStore) ListPendingByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error) {
	rows, err := s.db.Query(`
		SELECT `+changeColumns+` FROM wiki_page_changes
		WHERE item_type = $1 AND item_id = $2 AND status = 'Pending'
		ORDER BY created_at
	`, itemType, itemID)
	if err != nil {
		return nil, fmt.Errorf("list pending changes by item: %w", err)
	}
	defer rows.Close()
	return collectChanges(rows)
}

// ListByPageAndStatus returns proposals for a page in a given status,
// oldest first. Used for the pending and conflict views.
func (s *ChangeStore) ListByPageAndStatus(pageID uuid.UUID, status models.ChangeStatus) ([]*models.Change, error) {
	rows, err := s.db.Query(`
		SELECT `+changeColumns+` FROM wiki_page_changes
		WHERE page_id = $1 AND status = $2
		ORDER BY created_at
	`, pageID, status)
	if err != nil {
		return nil, fmt.Errorf("list changes by page and status: %w", err)
	}
	defer rows.Close()
	return collectChanges(rows)
}

// UpdateStatus transitions a proposal from one status to another. The
// update is conditional on the row still being in the expected status; if
// it already moved, nil is returned and the caller decides what that means.
func (s *ChangeStore) UpdateStatus(id uuid.UUID, from, to models.ChangeStatus, mergedAt *time.Time) (*models.Change, error) {
	row := s.db.QueryRow(`
		UPDATE wiki_page_changes
		SET status = $3, merged_at = COALESCE($4, merged_at), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+changeColumns,
		id, from, to, mergedAt,
	)
	c, err := scanChange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update change status: %w", err)
	}
	return c, nil
}

// UpdateSnapshot replaces the proposed content of a Pending proposal. The
// base hash is left alone — it remains the record of what the author edited
// from. Returns nil if the proposal is not Pending anymore.
func (s *ChangeStore) UpdateSnapshot(id uuid.UUID, snapshot, snapshotHash, delta string) (*models.Change, error) {
	row := s.db.QueryRow(`
		UPDATE wiki_page_changes
		SET snapshot = $2, snapshot_hash = $3, delta = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
		RETURNING `+changeColumns,
		id, snapshot, snapshotHash, delta,
	)
	c, err := scanChange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update change snapshot: %w", err)
	}
	return c, nil
}

// UpdateForResolution rewrites a Conflict proposal with manually reconciled
// content and a fresh base hash, leaving it in Conflict for the caller to
// re-merge. Returns nil if the proposal is not in Conflict.
func (s *ChangeStore) UpdateForResolution(id uuid.UUID, snapshot, snapshotHash, baseHash string) (*models.Change, error) {
	row := s.db.QueryRow(`
		UPDATE wiki_page_changes
		SET snapshot = $2, snapshot_hash = $3, base_hash = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'Conflict'
		RETURNING `+changeColumns,
		id, snapshot, snapshotHash, baseHash,
	)
	c, err := scanChange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update change for resolution: %w", err)
	}
	return c, nil
}

// Delete removes a change proposal by ID.
func (s *ChangeStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM wiki_page_changes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete change: %w", err)
	}
	return nil
}

// collectChanges drains a result set into a slice.
func collectChanges(rows *sql.Rows) ([]*models.Change, error) {
	var changes []*models.Change
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
