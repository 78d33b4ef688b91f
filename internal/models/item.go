// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// ItemType identifies which kind of work item a change proposal belongs to.
// The set is closed: proposals only ever originate from issues or features.
type ItemType string

const (
	ItemTypeIssue   ItemType = "issue"
	ItemTypeFeature ItemType = "feature"
)

// IsValidItemType reports whether t names a known work item kind.
func IsValidItemType(t ItemType) bool {
	return t == ItemTypeIssue || t == ItemTypeFeature
}

// ItemRef is the merge subsystem's view of an external work item — just
// enough to validate a proposal's link without knowing item internals.
type ItemRef struct {
	Type      ItemType  `json:"type"`
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
}

// IsDone reports whether the work item has reached a completed state.
// Completion is what triggers the bulk merge of its pending proposals.
func (r ItemRef) IsDone() bool {
	return r.Status == "Completed" || r.Status == "Closed"
}
