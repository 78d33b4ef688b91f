// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package items gives the wiki subsystem a narrow view of the work items
// (issues and features) that originate change proposals. Item lifecycle is
// owned elsewhere; the wiki only needs existence and project membership.
package items

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wikimerge/internal/models"
)

// Resolver looks up work items by their closed type tag.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a Resolver backed by the given database connection.
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the item reference for a (type, id) pair. Returns nil if
// the item does not exist, and an error for unknown item types.
func (r *Resolver) Resolve(itemType models.ItemType, itemID uuid.UUID) (*models.ItemRef, error) {
	var table string
	switch itemType {
	case models.ItemTypeIssue:
		table = "issues"
	case models.ItemTypeFeature:
		table = "features"
	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}

	ref := &models.ItemRef{Type: itemType, ID: itemID}
	err := r.db.QueryRow(
		`SELECT project_id, title, status FROM `+table+` WHERE id = $1`, itemID,
	).Scan(&ref.ProjectID, &ref.Title, &ref.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", itemType, err)
	}
	return ref, nil
}
