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

// Pages groups the wiki page HTTP handlers. Slug reads go through the
// Valkey cache; every content mutation invalidates the page's entry.
type Pages struct {
	service   *wiki.Service
	pageCache *cache.PageCache
}

// NewPages creates a new Pages handler group. pageCache may be nil when
// Valkey is not configured; reads then always hit the database.
func NewPages(service *wiki.Service, pageCache *cache.PageCache) *Pages {
	return &Pages{service: service, pageCache: pageCache}
}

type createPageRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ParentID  *uuid.UUID `json:"parentId"`
	SortOrder int        `json:"sortOrder"`
}

// Create handles POST /api/projects/{projectID}/wiki.
func (h *Pages) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createPageRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	page, err := h.service.CreatePage(projectID, req.Title, req.Content, req.ParentID, req.SortOrder, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// List handles GET /api/projects/{projectID}/wiki.
func (h *Pages) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	pageNum := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	status := models.PageStatus(r.URL.Query().Get("status"))

	pages, total, err := h.service.ListPages(projectID, status, pageNum, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if pages == nil {
		pages = []*models.Page{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: pages, Total: total, Page: pageNum, Size: pageSize})
}

// Tree handles GET /api/projects/{projectID}/wiki/tree.
func (h *Pages) Tree(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}

	tree, err := h.service.PageTree(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tree == nil {
		tree = []*wiki.PageNode{}
	}
	writeJSON(w, http.StatusOK, tree)
}

// GetBySlug handles GET /api/projects/{projectID}/wiki/slug/{slug}.
func (h *Pages) GetBySlug(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSlug := chi.URLParam(r, "slug")

	if h.pageCache != nil {
		if page, ok := h.pageCache.Get(r.Context(), cache.SlugKey(projectID, pageSlug)); ok {
			writeJSON(w, http.StatusOK, page)
			return
		}
	}

	page, err := h.service.GetPageBySlug(projectID, pageSlug)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.pageCache != nil {
		h.pageCache.Set(r.Context(), cache.SlugKey(projectID, pageSlug), page)
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/wiki/{pageID}.
func (h *Pages) Get(w http.ResponseWriter, r *http.Request) {
	pageID, err := pathUUID(r, "pageID")
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.service.GetPage(pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type updatePageRequest struct {
	Title     string     `json:"title"`
	ParentID  *uuid.UUID `json:"parentId"`
	SortOrder int        `json:"sortOrder"`
}

// Update handles PUT /api/wiki/{pageID}. Metadata only; content changes go
// through UpdateContent or the change proposal flow.
func (h *Pages) Update(w http.ResponseWriter, r *http.Request) {
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

	var req updatePageRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	old, err := h.service.GetPage(pageID)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.service.UpdatePageMeta(pageID, req.Title, req.ParentID, req.SortOrder, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, old)
	if page.Slug != old.Slug {
		h.invalidate(r, page)
	}
	writeJSON(w, http.StatusOK, page)
}

type updateContentRequest struct {
	Content string `json:"content"`
}

// UpdateContent handles PUT /api/wiki/{pageID}/content, the direct edit
// path. A 409 means a merge landed between the caller's read and this
// write; reload and retry.
func (h *Pages) UpdateContent(w http.ResponseWriter, r *http.Request) {
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

	var req updateContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	page, err := h.service.EditContent(pageID, req.Content, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, page)
	writeJSON(w, http.StatusOK, page)
}

type updateStatusRequest struct {
	Status models.PageStatus `json:"status"`
}

// UpdateStatus handles PUT /api/wiki/{pageID}/status.
func (h *Pages) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	page, err := h.service.UpdatePageStatus(pageID, req.Status, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, page)
	writeJSON(w, http.StatusOK, page)
}

// Delete handles DELETE /api/wiki/{pageID}.
func (h *Pages) Delete(w http.ResponseWriter, r *http.Request) {
	pageID, err := pathUUID(r, "pageID")
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.service.GetPage(pageID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeletePage(pageID); err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r, page)
	w.WriteHeader(http.StatusNoContent)
}

// invalidate drops a page's cache entry after a mutation.
func (h *Pages) invalidate(r *http.Request, page *models.Page) {
	if h.pageCache == nil || page == nil {
		return
	}
	h.pageCache.Invalidate(r.Context(), cache.SlugKey(page.ProjectID, page.Slug))
}
