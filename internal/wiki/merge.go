// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wiki

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wikimerge/internal/fingerprint"
	"wikimerge/internal/models"
	"wikimerge/internal/store"
)

// MergeResult reports how a single proposal fared. Page is set only when
// the proposal merged — a conflicted merge leaves the page untouched.
type MergeResult struct {
	Change  *models.Change      `json:"change"`
	Page    *models.Page        `json:"page,omitempty"`
	Outcome models.ChangeStatus `json:"outcome"`
}

// PreviewResult describes what merging a proposal would do right now,
// without mutating anything.
type PreviewResult struct {
	CanMerge    bool   `json:"canMerge"`
	Content     string `json:"content,omitempty"`
	BaseHash    string `json:"baseHash"`
	CurrentHash string `json:"currentHash"`
}

// CreateChange records a proposed edit to a page on behalf of a work item.
// The proposal captures the page's current fingerprint as its base — the
// evidence of what the author edited from.
func (s *Service) CreateChange(pageID uuid.UUID, itemType models.ItemType, itemID uuid.UUID, snapshot, delta string, actorID uuid.UUID) (*models.Change, error) {
	if !models.IsValidItemType(itemType) {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, itemType)
	}
	if err := validateContent(snapshot); err != nil {
		return nil, err
	}

	page, err := s.GetPage(pageID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Resolve(itemType, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, itemType, itemID)
	}
	if item.ProjectID != page.ProjectID {
		return nil, fmt.Errorf("%w: %s belongs to a different project", ErrValidation, itemType)
	}

	return s.changes.Create(&models.Change{
		PageID:       page.ID,
		ProjectID:    page.ProjectID,
		ItemType:     itemType,
		ItemID:       itemID,
		BaseHash:     page.ContentHash,
		Delta:        delta,
		Snapshot:     snapshot,
		SnapshotHash: fingerprint.Sum(snapshot),
		ChangeType:   models.ChangeTypeUpdate,
		Status:       models.ChangeStatusPending,
		CreatedBy:    actorID,
	})
}

// GetChange returns a change proposal by ID.
func (s *Service) GetChange(id uuid.UUID) (*models.Change, error) {
	change, err := s.changes.FindByID(id)
	if err != nil {
		return nil, err
	}
	if change == nil {
		return nil, fmt.Errorf("%w: change %s", ErrNotFound, id)
	}
	return change, nil
}

// UpdateChange rewrites the proposed content of a Pending proposal. Only
// the creator may do this, and the base hash stays put — the author is
// still editing from the same starting point.
func (s *Service) UpdateChange(id uuid.UUID, snapshot, delta string, actorID uuid.UUID) (*models.Change, error) {
	if err := validateContent(snapshot); err != nil {
		return nil, err
	}

	change, err := s.GetChange(id)
	if err != nil {
		return nil, err
	}
	if change.CreatedBy != actorID {
		return nil, fmt.Errorf("%w: only the creator can update this change", ErrForbidden)
	}
	if change.Status != models.ChangeStatusPending {
		return nil, fmt.Errorf("%w: cannot update a %s change", ErrInvalidTransition, change.Status)
	}

	updated, err := s.changes.UpdateSnapshot(id, snapshot, fingerprint.Sum(snapshot), delta)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: change %s is no longer pending", ErrInvalidTransition, id)
	}
	return updated, nil
}

// DeleteChange withdraws a Pending proposal. Only the creator may withdraw.
func (s *Service) DeleteChange(id uuid.UUID, actorID uuid.UUID) error {
	change, err := s.GetChange(id)
	if err != nil {
		return err
	}
	if change.CreatedBy != actorID {
		return fmt.Errorf("%w: only the creator can delete this change", ErrForbidden)
	}
	if change.Status != models.ChangeStatusPending {
		return fmt.Errorf("%w: cannot delete a %s change", ErrInvalidTransition, change.Status)
	}
	return s.changes.Delete(id)
}

// ListChanges returns one page of a wiki page's change history, newest
// first, optionally filtered by status, plus the total count.
func (s *Service) ListChanges(pageID uuid.UUID, status models.ChangeStatus, pageNum, pageSize int) ([]*models.Change, int, error) {
	if status != "" && !models.IsValidChangeStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown change status %q", ErrValidation, status)
	}
	if _, err := s.GetPage(pageID); err != nil {
		return nil, 0, err
	}
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.changes.ListByPage(pageID, status, (pageNum-1)*pageSize, pageSize)
}

// PendingChanges returns the Pending proposals for a page, oldest first.
func (s *Service) PendingChanges(pageID uuid.UUID) ([]*models.Change, error) {
	if _, err := s.GetPage(pageID); err != nil {
		return nil, err
	}
	return s.changes.ListByPageAndStatus(pageID, models.ChangeStatusPending)
}

// ConflictChanges returns the Conflict proposals for a page, oldest first.
func (s *Service) ConflictChanges(pageID uuid.UUID) ([]*models.Change, error) {
	if _, err := s.GetPage(pageID); err != nil {
		return nil, err
	}
	return s.changes.ListByPageAndStatus(pageID, models.ChangeStatusConflict)
}

// ChangesByItem returns every proposal linked to a work item, newest first.
func (s *Service) ChangesByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error) {
	if !models.IsValidItemType(itemType) {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, itemType)
	}
	return s.changes.ListByItem(itemType, itemID)
}

// Merge attempts to apply a Pending proposal to its page.
//
// If the proposal's base hash still matches the page's current fingerprint
// the snapshot is applied through the page store's compare-and-swap and the
// proposal becomes Merged. If another change landed first, the proposal
// becomes Conflict — the page is untouched and the proposal's base hash and
// snapshot are preserved as the record of what was attempted.
func (s *Service) Merge(changeID, actorID uuid.UUID) (*MergeResult, error) {
	change, err := s.GetChange(changeID)
	if err != nil {
		return nil, err
	}
	if change.Status != models.ChangeStatusPending {
		return nil, fmt.Errorf("%w: cannot merge a %s change", ErrInvalidTransition, change.Status)
	}
	return s.applyMerge(change, actorID)
}

// MergeByItem merges every Pending proposal linked to a work item,
// independently. A conflict on one page never blocks merges on another.
// Called when the owning issue or feature completes. Zero pending
// proposals is a no-op returning an empty result.
func (s *Service) MergeByItem(itemType models.ItemType, itemID, actorID uuid.UUID) ([]*MergeResult, error) {
	if !models.IsValidItemType(itemType) {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, itemType)
	}

	pending, err := s.changes.ListPendingByItem(itemType, itemID)
	if err != nil {
		return nil, err
	}

	results := make([]*MergeResult, 0, len(pending))
	for _, change := range pending {
		res, err := s.applyMerge(change, actorID)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Resolve finalizes a Conflict proposal with manually reconciled content.
// The proposal restarts from the page's current state: its snapshot becomes
// the resolved content and its base hash the page's current fingerprint,
// then the normal merge path runs again. If yet another change merged in
// the interim, the proposal lands in Conflict once more.
func (s *Service) Resolve(changeID uuid.UUID, resolvedContent string, actorID uuid.UUID) (*MergeResult, error) {
	if err := validateContent(resolvedContent); err != nil {
		return nil, err
	}

	change, err := s.GetChange(changeID)
	if err != nil {
		return nil, err
	}
	if change.Status != models.ChangeStatusConflict {
		return nil, fmt.Errorf("%w: cannot resolve a %s change", ErrInvalidTransition, change.Status)
	}

	page, err := s.GetPage(change.PageID)
	if err != nil {
		return nil, err
	}

	updated, err := s.changes.UpdateForResolution(
		changeID, resolvedContent, fingerprint.Sum(resolvedContent), page.ContentHash,
	)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: change %s is no longer in conflict", ErrInvalidTransition, changeID)
	}

	return s.applyMerge(updated, actorID)
}

// Reject terminally declines a proposal. Valid from Pending or Conflict;
// the page is never touched.
func (s *Service) Reject(changeID, actorID uuid.UUID) (*models.Change, error) {
	change, err := s.GetChange(changeID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(change.Status, models.ChangeStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject a %s change", ErrInvalidTransition, change.Status)
	}

	updated, err := s.changes.UpdateStatus(changeID, change.Status, models.ChangeStatusRejected, nil)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: change %s moved concurrently", ErrInvalidTransition, changeID)
	}

	slog.Info("change rejected",
		"change_id", changeID,
		"page_id", updated.PageID,
		"actor_id", actorID,
	)
	return updated, nil
}

// PreviewMerge reports whether a proposal would merge cleanly right now.
// With whole-document snapshots there is nothing to compute when the base
// matches — the preview is the snapshot itself. A stale base previews as a
// conflict; nothing is mutated either way.
func (s *Service) PreviewMerge(changeID uuid.UUID) (*PreviewResult, error) {
	change, err := s.GetChange(changeID)
	if err != nil {
		return nil, err
	}
	if change.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot preview a %s change", ErrInvalidTransition, change.Status)
	}

	page, err := s.GetPage(change.PageID)
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{
		BaseHash:    change.BaseHash,
		CurrentHash: page.ContentHash,
	}
	if change.BaseHash == page.ContentHash {
		res.CanMerge = true
		res.Content = change.Snapshot
	}
	return res, nil
}

// applyMerge runs the compare-and-swap for one proposal and records the
// outcome. change.Status is Pending, or Conflict when re-entered through
// Resolve; the conditional status update uses it as the expected from-state
// so a concurrently transitioned proposal cannot be double-applied.
func (s *Service) applyMerge(change *models.Change, actorID uuid.UUID) (*MergeResult, error) {
	page, err := s.pages.ApplyContent(change.PageID, change.BaseHash, change.Snapshot, change.SnapshotHash, actorID)

	switch {
	case errors.Is(err, store.ErrStaleContent):
		// Someone else's change landed first. Preserve the proposal
		// verbatim and flag it for manual resolution.
		updated, uerr := s.changes.UpdateStatus(change.ID, change.Status, models.ChangeStatusConflict, nil)
		if uerr != nil {
			return nil, uerr
		}
		if updated == nil {
			return nil, fmt.Errorf("%w: change %s moved concurrently", ErrInvalidTransition, change.ID)
		}
		slog.Info("merge conflict detected",
			"change_id", change.ID,
			"page_id", change.PageID,
			"base_hash", change.BaseHash,
		)
		return &MergeResult{Change: updated, Outcome: models.ChangeStatusConflict}, nil

	case err != nil:
		return nil, err

	case page == nil:
		return nil, fmt.Errorf("%w: wiki page %s", ErrNotFound, change.PageID)
	}

	now := time.Now()
	updated, err := s.changes.UpdateStatus(change.ID, change.Status, models.ChangeStatusMerged, &now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: change %s moved concurrently", ErrInvalidTransition, change.ID)
	}

	slog.Info("change merged",
		"change_id", change.ID,
		"page_id", page.ID,
		"version", page.Version,
	)
	return &MergeResult{Change: updated, Page: page, Outcome: models.ChangeStatusMerged}, nil
}

// applyContent is the direct-edit path: the same CAS as a merge, with a
// stale hash surfaced as ErrStaleBase instead of a Conflict record.
func (s *Service) applyContent(pageID uuid.UUID, expectedHash, content string, actorID uuid.UUID) (*models.Page, error) {
	page, err := s.pages.ApplyContent(pageID, expectedHash, content, fingerprint.Sum(content), actorID)
	if errors.Is(err, store.ErrStaleContent) {
		return nil, fmt.Errorf("%w: expected hash %s", ErrStaleBase, expectedHash)
	}
	return page, err
}
