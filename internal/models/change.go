// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ChangeStatus is the state of a change proposal.
//
// Pending and Conflict are live states; Merged and Rejected are terminal.
// Conflict is recoverable: manual resolution re-enters the merge path.
type ChangeStatus string

const (
	ChangeStatusPending  ChangeStatus = "Pending"
	ChangeStatusMerged   ChangeStatus = "Merged"
	ChangeStatusRejected ChangeStatus = "Rejected"
	ChangeStatusConflict ChangeStatus = "Conflict"
)

// ChangeType classifies what kind of edit a proposal carries. Informational
// only — the merge algorithm does not branch on it.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
)

// IsValidChangeStatus reports whether status is one of the four known states.
func IsValidChangeStatus(status ChangeStatus) bool {
	switch status {
	case ChangeStatusPending, ChangeStatusMerged, ChangeStatusRejected, ChangeStatusConflict:
		return true
	}
	return false
}

// changeTransitions is the allowed edge set of the proposal state machine.
var changeTransitions = map[ChangeStatus][]ChangeStatus{
	ChangeStatusPending:  {ChangeStatusMerged, ChangeStatusConflict, ChangeStatusRejected},
	ChangeStatusConflict: {ChangeStatusMerged, ChangeStatusConflict, ChangeStatusRejected},
}

// CanTransition reports whether a proposal may move from one status to
// another. Merged and Rejected have no outgoing edges. Conflict→Conflict is
// allowed: a resolution can race another merge and land in conflict again.
func CanTransition(from, to ChangeStatus) bool {
	for _, next := range changeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status permits no further transitions.
func (s ChangeStatus) IsTerminal() bool {
	return s == ChangeStatusMerged || s == ChangeStatusRejected
}

// Change is a proposed edit to a page, linked to the work item that
// motivated it.
//
// BaseHash records the page fingerprint the author edited from and is
// immutable for the life of the proposal, except during conflict resolution,
// which by definition restarts the proposal from the page's current state.
// Delta is reserved for a compact diff representation; it is persisted when
// supplied but never interpreted.
type Change struct {
	ID           uuid.UUID    `json:"id"`
	PageID       uuid.UUID    `json:"pageId"`
	ProjectID    uuid.UUID    `json:"projectId"`
	ItemType     ItemType     `json:"itemType"`
	ItemID       uuid.UUID    `json:"itemId"`
	BaseHash     string       `json:"baseHash"`
	Delta        string       `json:"delta,omitempty"`
	Snapshot     string       `json:"snapshot"`
	SnapshotHash string       `json:"snapshotHash"`
	ChangeType   ChangeType   `json:"changeType"`
	Status       ChangeStatus `json:"status"`
	MergedAt     *time.Time   `json:"mergedAt,omitempty"`
	CreatedBy    uuid.UUID    `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
