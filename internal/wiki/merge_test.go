// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wiki

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"wikimerge/internal/fingerprint"
	"wikimerge/internal/models"
)

func TestMergeCleanApply(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "clean", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "edited")

	res, err := env.service.Merge(change.ID, env.actorID)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if res.Outcome != models.ChangeStatusMerged {
		t.Fatalf("outcome = %s, want Merged", res.Outcome)
	}
	if res.Page == nil || res.Page.Content != "edited" {
		t.Fatalf("merged page = %+v", res.Page)
	}
	if res.Page.Version != page.Version+1 {
		t.Errorf("version = %d, want %d", res.Page.Version, page.Version+1)
	}
	if res.Page.ContentHash != fingerprint.Sum("edited") {
		t.Error("page hash does not match merged content")
	}
	if res.Change.Status != models.ChangeStatusMerged {
		t.Errorf("change status = %s, want Merged", res.Change.Status)
	}
	if res.Change.MergedAt == nil {
		t.Error("mergedAt not recorded")
	}
}

func TestMergeStaleBaseLandsInConflict(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "race", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	// Two authors branch from the same base.
	first := env.newChange(t, page, itemID, "first edit")
	second := env.newChange(t, page, itemID, "second edit")

	if res, err := env.service.Merge(first.ID, env.actorID); err != nil || res.Outcome != models.ChangeStatusMerged {
		t.Fatalf("first merge: res=%+v err=%v", res, err)
	}

	res, err := env.service.Merge(second.ID, env.actorID)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Outcome != models.ChangeStatusConflict {
		t.Fatalf("outcome = %s, want Conflict", res.Outcome)
	}
	if res.Page != nil {
		t.Error("conflicted merge must not return a page")
	}

	// The page keeps the first edit; the losing proposal is preserved.
	current, _ := env.service.GetPage(page.ID)
	if current.Content != "first edit" {
		t.Errorf("page content = %q, want %q", current.Content, "first edit")
	}
	if current.Version != page.Version+1 {
		t.Errorf("page version = %d, conflict must not bump it", current.Version)
	}
	if res.Change.Snapshot != "second edit" || res.Change.BaseHash != page.ContentHash {
		t.Error("conflicted proposal must keep its snapshot and base hash")
	}
}

func TestMergeTerminalStates(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "terminal", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "edit")

	if _, err := env.service.Merge(change.ID, env.actorID); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	// Merging again, rejecting, or resolving a Merged proposal all fail.
	if _, err := env.service.Merge(change.ID, env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-merge error = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.service.Reject(change.ID, env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject merged error = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.service.Resolve(change.ID, "x", env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("resolve merged error = %v, want ErrInvalidTransition", err)
	}
}

func TestResolveConflictThenMerge(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "resolve", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	winner := env.newChange(t, page, itemID, "winner edit")
	loser := env.newChange(t, page, itemID, "loser edit")

	env.service.Merge(winner.ID, env.actorID)
	conflicted, err := env.service.Merge(loser.ID, env.actorID)
	if err != nil || conflicted.Outcome != models.ChangeStatusConflict {
		t.Fatalf("setup conflict: res=%+v err=%v", conflicted, err)
	}

	res, err := env.service.Resolve(loser.ID, "reconciled content", env.actorID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != models.ChangeStatusMerged {
		t.Fatalf("resolve outcome = %s, want Merged", res.Outcome)
	}
	if res.Page.Content != "reconciled content" {
		t.Errorf("page content = %q, want reconciled", res.Page.Content)
	}
	if res.Change.BaseHash != fingerprint.Sum("winner edit") {
		t.Error("resolution must rebase onto the page state it resolved against")
	}
	if res.Page.Version != page.Version+2 {
		t.Errorf("version = %d, want %d", res.Page.Version, page.Version+2)
	}
}

func TestResolveRequiresConflict(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "resolve-pending", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "edit")

	if _, err := env.service.Resolve(change.ID, "x", env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolve pending error = %v, want ErrInvalidTransition", err)
	}
}

func TestRejectFromPendingAndConflict(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "reject", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	pending := env.newChange(t, page, itemID, "pending edit")
	rejected, err := env.service.Reject(pending.ID, env.actorID)
	if err != nil {
		t.Fatalf("Reject pending: %v", err)
	}
	if rejected.Status != models.ChangeStatusRejected {
		t.Errorf("status = %s, want Rejected", rejected.Status)
	}

	// A rejected proposal never touches the page.
	current, _ := env.service.GetPage(page.ID)
	if current.Content != "original" || current.Version != page.Version {
		t.Error("reject must leave the page untouched")
	}

	winner := env.newChange(t, page, itemID, "winner")
	loser := env.newChange(t, page, itemID, "loser")
	env.service.Merge(winner.ID, env.actorID)
	env.service.Merge(loser.ID, env.actorID)

	fromConflict, err := env.service.Reject(loser.ID, env.actorID)
	if err != nil {
		t.Fatalf("Reject conflict: %v", err)
	}
	if fromConflict.Status != models.ChangeStatusRejected {
		t.Errorf("status = %s, want Rejected", fromConflict.Status)
	}

	// Terminal: rejecting twice fails.
	if _, err := env.service.Reject(loser.ID, env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double reject error = %v, want ErrInvalidTransition", err)
	}
}

func TestMergeByItemMixedOutcomes(t *testing.T) {
	env := newTestEnv(t)
	pageA := env.newPage(t, "bulk-a", "a content")
	pageB := env.newPage(t, "bulk-b", "b content")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	cleanA := env.newChange(t, pageA, itemID, "a edited")
	staleB := env.newChange(t, pageB, itemID, "b edited")

	// Another change lands on page B first, so staleB will conflict.
	if _, err := env.service.EditContent(pageB.ID, "b overtaken", env.actorID); err != nil {
		t.Fatalf("EditContent: %v", err)
	}

	results, err := env.service.MergeByItem(models.ItemTypeIssue, itemID, env.actorID)
	if err != nil {
		t.Fatalf("MergeByItem: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	outcomes := map[uuid.UUID]models.ChangeStatus{}
	for _, res := range results {
		outcomes[res.Change.ID] = res.Outcome
	}
	if outcomes[cleanA.ID] != models.ChangeStatusMerged {
		t.Errorf("page A outcome = %s, want Merged", outcomes[cleanA.ID])
	}
	if outcomes[staleB.ID] != models.ChangeStatusConflict {
		t.Errorf("page B outcome = %s, want Conflict", outcomes[staleB.ID])
	}

	// A conflict on one page never blocks the merge on another.
	a, _ := env.service.GetPage(pageA.ID)
	if a.Content != "a edited" {
		t.Errorf("page A content = %q, want merged edit", a.Content)
	}
	b, _ := env.service.GetPage(pageB.ID)
	if b.Content != "b overtaken" {
		t.Errorf("page B content = %q, conflict must not overwrite", b.Content)
	}
}

func TestMergeByItemNoPending(t *testing.T) {
	env := newTestEnv(t)
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	results, err := env.service.MergeByItem(models.ItemTypeIssue, itemID, env.actorID)
	if err != nil {
		t.Fatalf("MergeByItem: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want empty", len(results))
	}
}

func TestMergeByItemOrder(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "bulk-order", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	first := env.newChange(t, page, itemID, "first")
	second := env.newChange(t, page, itemID, "second")

	results, err := env.service.MergeByItem(models.ItemTypeIssue, itemID, env.actorID)
	if err != nil {
		t.Fatalf("MergeByItem: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	// Submission order: the older proposal merges, the newer one conflicts
	// because both branched from the same base.
	if results[0].Change.ID != first.ID || results[0].Outcome != models.ChangeStatusMerged {
		t.Errorf("first result = %s/%s", results[0].Change.ID, results[0].Outcome)
	}
	if results[1].Change.ID != second.ID || results[1].Outcome != models.ChangeStatusConflict {
		t.Errorf("second result = %s/%s", results[1].Change.ID, results[1].Outcome)
	}
}

func TestPreviewMerge(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "preview", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "edited")

	preview, err := env.service.PreviewMerge(change.ID)
	if err != nil {
		t.Fatalf("PreviewMerge: %v", err)
	}
	if !preview.CanMerge || preview.Content != "edited" {
		t.Fatalf("clean preview = %+v", preview)
	}

	// Preview never mutates: the proposal is still Pending.
	got, _ := env.service.GetChange(change.ID)
	if got.Status != models.ChangeStatusPending {
		t.Errorf("status after preview = %s, want Pending", got.Status)
	}

	// After the page moves, the same proposal previews as a conflict.
	if _, err := env.service.EditContent(page.ID, "moved on", env.actorID); err != nil {
		t.Fatalf("EditContent: %v", err)
	}
	preview, err = env.service.PreviewMerge(change.ID)
	if err != nil {
		t.Fatalf("PreviewMerge stale: %v", err)
	}
	if preview.CanMerge {
		t.Error("stale preview must report CanMerge=false")
	}
	if preview.BaseHash == preview.CurrentHash {
		t.Error("stale preview must expose the diverged hashes")
	}
}

func TestCreateChangeCapturesBase(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "capture", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	change := env.newChange(t, page, itemID, "edited")

	if change.BaseHash != page.ContentHash {
		t.Error("base hash must capture the page fingerprint at creation")
	}
	if change.SnapshotHash != fingerprint.Sum("edited") {
		t.Error("snapshot hash must fingerprint the proposed content")
	}
	if change.Status != models.ChangeStatusPending {
		t.Errorf("status = %s, want Pending", change.Status)
	}
}

func TestCreateChangeValidation(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "validate", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	if _, err := env.service.CreateChange(page.ID, "epic", itemID, "x", "", env.actorID); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown item type error = %v, want ErrValidation", err)
	}
	if _, err := env.service.CreateChange(page.ID, models.ItemTypeIssue, itemID, "", "", env.actorID); !errors.Is(err, ErrValidation) {
		t.Errorf("empty snapshot error = %v, want ErrValidation", err)
	}

	missing := env.items.add(models.ItemTypeFeature, env.projectID)
	if _, err := env.service.CreateChange(page.ID, models.ItemTypeIssue, missing, "x", "", env.actorID); !errors.Is(err, ErrNotFound) {
		t.Errorf("type mismatch error = %v, want ErrNotFound", err)
	}

	foreign := env.items.add(models.ItemTypeIssue, uuid.New())
	if _, err := env.service.CreateChange(page.ID, models.ItemTypeIssue, foreign, "x", "", env.actorID); !errors.Is(err, ErrValidation) {
		t.Errorf("cross-project error = %v, want ErrValidation", err)
	}
}

func TestUpdateChangeCreatorOnly(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "update-change", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "v1")

	stranger := env.actorID
	stranger[0] ^= 0xff
	if _, err := env.service.UpdateChange(change.ID, "v2", "", stranger); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger update error = %v, want ErrForbidden", err)
	}

	updated, err := env.service.UpdateChange(change.ID, "v2", "", env.actorID)
	if err != nil {
		t.Fatalf("UpdateChange: %v", err)
	}
	if updated.Snapshot != "v2" || updated.SnapshotHash != fingerprint.Sum("v2") {
		t.Fatalf("updated change = %+v", updated)
	}
	if updated.BaseHash != change.BaseHash {
		t.Error("base hash must not move on snapshot update")
	}

	env.service.Merge(change.ID, env.actorID)
	if _, err := env.service.UpdateChange(change.ID, "v3", "", env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("update merged error = %v, want ErrInvalidTransition", err)
	}
}

func TestDeleteChangeCreatorOnlyPending(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "delete-change", "original")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)
	change := env.newChange(t, page, itemID, "doomed")

	stranger := env.actorID
	stranger[0] ^= 0xff
	if err := env.service.DeleteChange(change.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger delete error = %v, want ErrForbidden", err)
	}

	if err := env.service.DeleteChange(change.ID, env.actorID); err != nil {
		t.Fatalf("DeleteChange: %v", err)
	}
	if _, err := env.service.GetChange(change.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete error = %v, want ErrNotFound", err)
	}

	merged := env.newChange(t, page, itemID, "merged")
	env.service.Merge(merged.ID, env.actorID)
	if err := env.service.DeleteChange(merged.ID, env.actorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("delete merged error = %v, want ErrInvalidTransition", err)
	}
}

func TestEditContentSelfMerge(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "direct-edit", "original")

	updated, err := env.service.EditContent(page.ID, "directly edited", env.actorID)
	if err != nil {
		t.Fatalf("EditContent: %v", err)
	}
	if updated.Content != "directly edited" || updated.Version != page.Version+1 {
		t.Fatalf("edited page = %+v", updated)
	}
	if updated.ContentHash != fingerprint.Sum("directly edited") {
		t.Error("hash does not track the direct edit")
	}
}

func TestSequentialMergesAdvanceVersion(t *testing.T) {
	env := newTestEnv(t)
	page := env.newPage(t, "sequential", "v0")
	itemID := env.items.add(models.ItemTypeIssue, env.projectID)

	// Each proposal is filed after the previous merge, so all apply cleanly.
	for i, content := range []string{"v1", "v2", "v3"} {
		current, _ := env.service.GetPage(page.ID)
		change, err := env.service.CreateChange(current.ID, models.ItemTypeIssue, itemID, content, "", env.actorID)
		if err != nil {
			t.Fatalf("create change %d: %v", i, err)
		}
		res, err := env.service.Merge(change.ID, env.actorID)
		if err != nil {
			t.Fatalf("merge %d: %v", i, err)
		}
		if res.Outcome != models.ChangeStatusMerged {
			t.Fatalf("merge %d outcome = %s", i, res.Outcome)
		}
		if res.Page.Version != page.Version+i+1 {
			t.Errorf("merge %d version = %d, want %d", i, res.Page.Version, page.Version+i+1)
		}
	}
}
