// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wiki implements the page change tracking and merge service:
// versioned pages, change proposals linked to work items, and the
// optimistic-concurrency merge engine that decides whether a proposal
// applies cleanly or lands in conflict.
package wiki

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"wikimerge/internal/fingerprint"
	"wikimerge/internal/models"
	"wikimerge/internal/slug"
)

// PageStore is the persistence surface the service needs for pages.
// Implemented by store.PageStore; faked in tests.
type PageStore interface {
	Create(p *models.Page) (*models.Page, error)
	FindByID(id uuid.UUID) (*models.Page, error)
	FindBySlug(projectID uuid.UUID, slug string) (*models.Page, error)
	SlugExists(projectID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	ListByProject(projectID uuid.UUID, status models.PageStatus, offset, limit int) ([]*models.Page, int, error)
	ListAllByProject(projectID uuid.UUID) ([]*models.Page, error)
	CountChildren(id uuid.UUID) (int, error)
	UpdateMeta(p *models.Page) error
	UpdateStatus(id uuid.UUID, status models.PageStatus, actorID uuid.UUID) error
	ApplyContent(id uuid.UUID, expectedHash, content, contentHash string, actorID uuid.UUID) (*models.Page, error)
	Delete(id uuid.UUID) error
}

// ChangeStore is the persistence surface for change proposals.
type ChangeStore interface {
	Create(c *models.Change) (*models.Change, error)
	FindByID(id uuid.UUID) (*models.Change, error)
	ListByPage(pageID uuid.UUID, status models.ChangeStatus, offset, limit int) ([]*models.Change, int, error)
	ListByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error)
	ListPendingByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error)
	ListByPageAndStatus(pageID uuid.UUID, status models.ChangeStatus) ([]*models.Change, error)
	UpdateStatus(id uuid.UUID, from, to models.ChangeStatus, mergedAt *time.Time) (*models.Change, error)
	UpdateSnapshot(id uuid.UUID, snapshot, snapshotHash, delta string) (*models.Change, error)
	UpdateForResolution(id uuid.UUID, snapshot, snapshotHash, baseHash string) (*models.Change, error)
	Delete(id uuid.UUID) error
}

// ItemResolver looks up the external work items proposals link to.
type ItemResolver interface {
	Resolve(itemType models.ItemType, itemID uuid.UUID) (*models.ItemRef, error)
}

// Service ties pages, change proposals, and work items together. All page
// content mutation funnels through PageStore.ApplyContent so the
// compare-and-swap invariant holds regardless of which operation writes.
type Service struct {
	pages   PageStore
	changes ChangeStore
	items   ItemResolver
}

// NewService creates a wiki Service over the given stores.
func NewService(pages PageStore, changes ChangeStore, items ItemResolver) *Service {
	return &Service{pages: pages, changes: changes, items: items}
}

// Content size limits, matching the store columns.
const (
	maxTitleLen   = 255
	maxContentLen = 1_000_000
)

// validateTitle returns an ErrValidation-wrapped error for unusable titles.
func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	return nil
}

// validateContent returns an ErrValidation-wrapped error for unusable content.
func validateContent(content string) error {
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if len(content) > maxContentLen {
		return fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, maxContentLen)
	}
	return nil
}

// CreatePage creates a new wiki page in Draft status. The slug is derived
// from the title; on collision within the project a timestamp suffix is
// appended.
func (s *Service) CreatePage(projectID uuid.UUID, title, content string, parentID *uuid.UUID, sortOrder int, actorID uuid.UUID) (*models.Page, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if parentID != nil {
		if err := s.checkParent(*parentID, projectID, uuid.Nil); err != nil {
			return nil, err
		}
	}

	pageSlug := slug.Generate(title)
	taken, err := s.pages.SlugExists(projectID, pageSlug, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		pageSlug = slug.Timestamped(pageSlug, time.Now())
	}

	return s.pages.Create(&models.Page{
		ProjectID:   projectID,
		Slug:        pageSlug,
		Title:       title,
		Content:     content,
		ContentHash: fingerprint.Sum(content),
		Status:      models.PageStatusDraft,
		ParentID:    parentID,
		SortOrder:   sortOrder,
		CreatedBy:   actorID,
	})
}

// checkParent validates a prospective parent page: it must exist, belong to
// the same project, and not be the page itself.
func (s *Service) checkParent(parentID, projectID, selfID uuid.UUID) error {
	if parentID == selfID {
		return fmt.Errorf("%w: page cannot be its own parent", ErrValidation)
	}
	parent, err := s.pages.FindByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: parent page %s", ErrNotFound, parentID)
	}
	if parent.ProjectID != projectID {
		return fmt.Errorf("%w: parent page belongs to a different project", ErrValidation)
	}
	return nil
}

// GetPage returns a page by ID.
func (s *Service) GetPage(id uuid.UUID) (*models.Page, error) {
	page, err := s.pages.FindByID(id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("%w: wiki page %s", ErrNotFound, id)
	}
	return page, nil
}

// GetPageBySlug returns a page by project and slug.
func (s *Service) GetPageBySlug(projectID uuid.UUID, pageSlug string) (*models.Page, error) {
	page, err := s.pages.FindBySlug(projectID, pageSlug)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("%w: wiki page %q", ErrNotFound, pageSlug)
	}
	return page, nil
}

// ListPages returns one page of a project's wiki pages plus the total
// count. pageNum is 1-based; pageSize is clamped to 1..100.
func (s *Service) ListPages(projectID uuid.UUID, status models.PageStatus, pageNum, pageSize int) ([]*models.Page, int, error) {
	if status != "" && !models.IsValidPageStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown page status %q", ErrValidation, status)
	}
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.pages.ListByProject(projectID, status, (pageNum-1)*pageSize, pageSize)
}

// PageNode is a page with its children, for the tree view.
type PageNode struct {
	*models.Page
	Children []*PageNode `json:"children,omitempty"`
}

// PageTree returns the project's pages assembled into their hierarchy.
// Pages whose parent is missing are lifted to the root rather than dropped.
func (s *Service) PageTree(projectID uuid.UUID) ([]*PageNode, error) {
	pages, err := s.pages.ListAllByProject(projectID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*PageNode, len(pages))
	for _, p := range pages {
		nodes[p.ID] = &PageNode{Page: p}
	}

	var roots []*PageNode
	for _, p := range pages {
		node := nodes[p.ID]
		if p.ParentID != nil {
			if parent, ok := nodes[*p.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// UpdatePageMeta changes a page's title, tree placement, and sort order.
// A title change regenerates the slug. Content and version are untouched.
func (s *Service) UpdatePageMeta(id uuid.UUID, title string, parentID *uuid.UUID, sortOrder int, actorID uuid.UUID) (*models.Page, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	page, err := s.GetPage(id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if err := s.checkParent(*parentID, page.ProjectID, id); err != nil {
			return nil, err
		}
	}

	if title != page.Title {
		pageSlug := slug.Generate(title)
		taken, err := s.pages.SlugExists(page.ProjectID, pageSlug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			pageSlug = slug.Timestamped(pageSlug, time.Now())
		}
		page.Slug = pageSlug
		page.Title = title
	}

	page.ParentID = parentID
	page.SortOrder = sortOrder
	page.UpdatedBy = actorID

	if err := s.pages.UpdateMeta(page); err != nil {
		return nil, err
	}
	return s.GetPage(id)
}

// UpdatePageStatus sets a page's editorial status.
func (s *Service) UpdatePageStatus(id uuid.UUID, status models.PageStatus, actorID uuid.UUID) (*models.Page, error) {
	if !models.IsValidPageStatus(status) {
		return nil, fmt.Errorf("%w: unknown page status %q", ErrValidation, status)
	}
	if _, err := s.GetPage(id); err != nil {
		return nil, err
	}
	if err := s.pages.UpdateStatus(id, status, actorID); err != nil {
		return nil, err
	}
	return s.GetPage(id)
}

// EditContent replaces a page's content directly, outside the proposal
// flow. It is a self-merge: the apply is conditional on the hash the caller
// just read, so a concurrent merge turns the edit into ErrStaleBase instead
// of silently overwriting the merged content.
func (s *Service) EditContent(id uuid.UUID, content string, actorID uuid.UUID) (*models.Page, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	page, err := s.GetPage(id)
	if err != nil {
		return nil, err
	}

	updated, err := s.applyContent(page.ID, page.ContentHash, content, actorID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: wiki page %s", ErrNotFound, id)
	}
	return updated, nil
}

// DeletePage removes a page and its change history. Pages with children
// must be re-parented first.
func (s *Service) DeletePage(id uuid.UUID) error {
	if _, err := s.GetPage(id); err != nil {
		return err
	}
	children, err := s.pages.CountChildren(id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: page has %d child pages", ErrValidation, children)
	}
	return s.pages.Delete(id)
}
