// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PageStatus represents the editorial state of a wiki page. It is
// orthogonal to the merge machinery — a Draft page merges exactly like a
// Published one.
type PageStatus string

const (
	PageStatusDraft     PageStatus = "Draft"
	PageStatusPublished PageStatus = "Published"
	PageStatusArchived  PageStatus = "Archived"
)

// IsValidPageStatus reports whether status is one of the known editorial states.
func IsValidPageStatus(status PageStatus) bool {
	switch status {
	case PageStatusDraft, PageStatusPublished, PageStatusArchived:
		return true
	}
	return false
}

// Page is the living document. Content and ContentHash are only ever
// written together, through PageStore.ApplyContent; Version increments by
// exactly one per successful apply.
type Page struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentHash string     `json:"contentHash"`
	Version     int        `json:"version"`
	Status      PageStatus `json:"status"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	SortOrder   int        `json:"sortOrder"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	UpdatedBy   uuid.UUID  `json:"updatedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
