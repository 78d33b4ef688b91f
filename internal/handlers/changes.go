// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wikimerge/internal/cache"
	"wikimerge/internal/models"
	"wikimerge/internal/wiki"
)

// Changes groups the change proposal and merge HTTP handlers. Merge
// outcomes, including conflicts, are reported with 200; only state machine
// violations produce a 409.
type Changes struct {
	service   *wiki.Service
	pageCache *cache.PageCache
}

// NewChanges creates a new Changes handler group. pageCache may be nil
// when Valkey is not configured.
func NewChanges(service *wiki.Service, pageCache *cache.PageCache) *Changes {
	return &Changes{service: service, pageCache: pageCache}
}

type createChangeRequest struct {
	ItemType models.ItemType `json:"itemType"`
	ItemID   uuid.UUID       `json:"itemId"`
	Snapshot string          `json:"snapshot"`
	Delta    string          `json:"delta"`
}

// Create handles POST /api/wiki/{pageID}/changes.
func (h *Changes) Create(w http.ResponseWriter, r *http.Request) {
	pageID, err := pathUUID(r, "pageID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createChangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	change, err := h.service.CreateChange(pageID, req.ItemType, req.ItemID, req.Snapshot, req.Delta, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, change)
}

// ListByPage handles GET /api/wiki/{pageID}/changes.
func (h *Changes) ListByPage(w http.ResponseWriter, r *http.Request) {
	pageID, err := pathUUID(r, "pageID")
	if err != nil {
		writeError(w, err)
		return
	}

	pageNum := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	status := models.ChangeStatus(r.URL.Query().Get("status"))

	changes, total, err := h.service.ListChanges(pageID, status, pageNum, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []*models.Change{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: changes, Total: total, Page: pageNum, Size: pageSize})
}

// ListPending handles GET /api/wiki/{pageID}/changes/pending.
func (h *Changes) ListPending(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, h.service.PendingChanges)
}

// ListConflicts handles GET /api/wiki/{pageID}/changes/conflicts.
func (h *Changes) ListConflicts(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, h.service.ConflictChanges)
}

func (h *Changes) listByStatus(w http.ResponseWriter, r *http.Request, list func(uuid.UUID) ([]*models.Change, error)) {
	pageID, err := pathUUID(r, "pageID")
	if err != nil {
		writeError(w, err)
		return
	}

	changes, err := list(pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []*models.Change{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// Get handles GET /api/changes/{changeID}.
func (h *Changes) Get(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}

	change, err := h.service.GetChange(changeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

type updateChangeRequest struct {
	Snapshot string `json:"snapshot"`
	Delta    string `json:"delta"`
}

// Update handles PUT /api/changes/{changeID}. Creator only, Pending only.
func (h *Changes) Update(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateChangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	change, err := h.service.UpdateChange(changeID, req.Snapshot, req.Delta, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// Delete handles DELETE /api/changes/{changeID}. Creator only, Pending only.
func (h *Changes) Delete(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteChange(changeID, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview handles GET /api/changes/{changeID}/preview.
func (h *Changes) Preview(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}

	preview, err := h.service.PreviewMerge(changeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Merge handles POST /api/changes/{changeID}/merge. Both the Merged and
// Conflict outcomes are 200; the body says which.
func (h *Changes) Merge(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Merge(changeID, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, result.Page)
	writeJSON(w, http.StatusOK, result)
}

type resolveRequest struct {
	Content string `json:"content"`
}

// Resolve handles POST /api/changes/{changeID}/resolve.
func (h *Changes) Resolve(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.Resolve(changeID, req.Content, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, result.Page)
	writeJSON(w, http.StatusOK, result)
}

// Reject handles POST /api/changes/{changeID}/reject.
func (h *Changes) Reject(w http.ResponseWriter, r *http.Request) {
	changeID, err := pathUUID(r, "changeID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	change, err := h.service.Reject(changeID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// ListByItem handles GET /api/items/{itemType}/{itemID}/changes.
func (h *Changes) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemType := models.ItemType(chi.URLParam(r, "itemType"))
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, err)
		return
	}

	changes, err := h.service.ChangesByItem(itemType, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []*models.Change{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// MergeByItem handles POST /api/items/{itemType}/{itemID}/merge, the bulk
// merge triggered when a work item completes. Always 200; each proposal
// reports its own outcome, and no pending proposals yields an empty list.
func (h *Changes) MergeByItem(w http.ResponseWriter, r *http.Request) {
	itemType := models.ItemType(chi.URLParam(r, "itemType"))
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := h.service.MergeByItem(itemType, itemID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []*wiki.MergeResult{}
	}

	for _, res := range results {
		h.invalidate(r, res.Page)
	}
	writeJSON(w, http.StatusOK, results)
}

// invalidate drops a merged page's cache entry. The bulk path may touch
// several pages in one project; per-page invalidation keeps unrelated
// entries warm.
func (h *Changes) invalidate(r *http.Request, page *models.Page) {
	if h.pageCache == nil || page == nil {
		return
	}
	h.pageCache.Invalidate(r.Context(), cache.SlugKey(page.ProjectID, page.Slug))
}
