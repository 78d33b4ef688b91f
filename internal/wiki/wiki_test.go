// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// wiki_test.go provides in-memory store fakes shared by the service and
// merge tests. The fakes mirror the real stores' contracts: nil results
// for missing rows, conditional updates that report a miss as nil, and a
// compare-and-swap ApplyContent.
package wiki

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"wikimerge/internal/fingerprint"
	"wikimerge/internal/models"
	"wikimerge/internal/store"
)

type fakePageStore struct {
	pages map[uuid.UUID]*models.Page
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: make(map[uuid.UUID]*models.Page)}
}

func (f *fakePageStore) Create(p *models.Page) (*models.Page, error) {
	cp := *p
	cp.ID = uuid.New()
	cp.Version = 1
	cp.UpdatedBy = p.CreatedBy
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.pages[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePageStore) FindByID(id uuid.UUID) (*models.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePageStore) FindBySlug(projectID uuid.UUID, slug string) (*models.Page, error) {
	for _, p := range f.pages {
		if p.ProjectID == projectID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePageStore) SlugExists(projectID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	for _, p := range f.pages {
		if p.ProjectID == projectID && p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePageStore) ListByProject(projectID uuid.UUID, status models.PageStatus, offset, limit int) ([]*models.Page, int, error) {
	var all []*models.Page
	for _, p := range f.pages {
		if p.ProjectID == projectID && (status == "" || p.Status == status) {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakePageStore) ListAllByProject(projectID uuid.UUID) ([]*models.Page, error) {
	pages, _, err := f.ListByProject(projectID, "", 0, len(f.pages)+1)
	return pages, err
}

func (f *fakePageStore) CountChildren(id uuid.UUID) (int, error) {
	count := 0
	for _, p := range f.pages {
		if p.ParentID != nil && *p.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (f *fakePageStore) UpdateMeta(p *models.Page) error {
	cur, ok := f.pages[p.ID]
	if !ok {
		return nil
	}
	cur.Title = p.Title
	cur.Slug = p.Slug
	cur.ParentID = p.ParentID
	cur.SortOrder = p.SortOrder
	cur.UpdatedBy = p.UpdatedBy
	cur.UpdatedAt = time.Now()
	return nil
}

func (f *fakePageStore) UpdateStatus(id uuid.UUID, status models.PageStatus, actorID uuid.UUID) error {
	if p, ok := f.pages[id]; ok {
		p.Status = status
		p.UpdatedBy = actorID
	}
	return nil
}

func (f *fakePageStore) ApplyContent(id uuid.UUID, expectedHash, content, contentHash string, actorID uuid.UUID) (*models.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, nil
	}
	if p.ContentHash != expectedHash {
		return nil, store.ErrStaleContent
	}
	p.Content = content
	p.ContentHash = contentHash
	p.Version++
	p.UpdatedBy = actorID
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakePageStore) Delete(id uuid.UUID) error {
	delete(f.pages, id)
	return nil
}

type fakeChangeStore struct {
	changes map[uuid.UUID]*models.Change
	seq     int
}

func newFakeChangeStore() *fakeChangeStore {
	return &fakeChangeStore{changes: make(map[uuid.UUID]*models.Change)}
}

func (f *fakeChangeStore) Create(c *models.Change) (*models.Change, error) {
	cp := *c
	cp.ID = uuid.New()
	f.seq++
	cp.CreatedAt = time.Unix(int64(f.seq), 0)
	cp.UpdatedAt = cp.CreatedAt
	f.changes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeChangeStore) FindByID(id uuid.UUID) (*models.Change, error) {
	c, ok := f.changes[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChangeStore) list(match func(*models.Change) bool, ascending bool) []*models.Change {
	var out []*models.Change
	for _, c := range f.changes {
		if match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	return out
}

func (f *fakeChangeStore) ListByPage(pageID uuid.UUID, status models.ChangeStatus, offset, limit int) ([]*models.Change, int, error) {
	all := f.list(func(c *models.Change) bool {
		return c.PageID == pageID && (status == "" || c.Status == status)
	}, false)
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeChangeStore) ListByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error) {
	return f.list(func(c *models.Change) bool {
		return c.ItemType == itemType && c.ItemID == itemID
	}, false), nil
}

func (f *fakeChangeStore) ListPendingByItem(itemType models.ItemType, itemID uuid.UUID) ([]*models.Change, error) {
	return f.list(func(c *models.Change) bool {
		return c.ItemType == itemType && c.ItemID == itemID && c.Status == models.ChangeStatusPending
	}, true), nil
}

func (f *fakeChangeStore) ListByPageAndStatus(pageID uuid.UUID, status models.ChangeStatus) ([]*models.Change, error) {
	return f.list(func(c *models.Change) bool {
		return c.PageID == pageID && c.Status == status
	}, true), nil
}

func (f *fakeChangeStore) UpdateStatus(id uuid.UUID, from, to models.ChangeStatus, mergedAt *time.Time) (*models.Change, error) {
	c, ok := f.changes[id]
	if !ok || c.Status != from {
		return nil, nil
	}
	c.Status = to
	if mergedAt != nil {
		c.MergedAt = mergedAt
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (f *fakeChangeStore) UpdateSnapshot(id uuid.UUID, snapshot, snapshotHash, delta string) (*models.Change, error) {
	c, ok := f.changes[id]
	if !ok || c.Status != models.ChangeStatusPending {
		return nil, nil
	}
	c.Snapshot = snapshot
	c.SnapshotHash = snapshotHash
	c.Delta = delta
	cp := *c
	return &cp, nil
}

func (f *fakeChangeStore) UpdateForResolution(id uuid.UUID, snapshot, snapshotHash, baseHash string) (*models.Change, error) {
	c, ok := f.changes[id]
	if !ok || c.Status != models.ChangeStatusConflict {
		return nil, nil
	}
	c.Snapshot = snapshot
	c.SnapshotHash = snapshotHash
	c.BaseHash = baseHash
	cp := *c
	return &cp, nil
}

func (f *fakeChangeStore) Delete(id uuid.UUID) error {
	delete(f.changes, id)
	return nil
}

type fakeItemResolver struct {
	items map[uuid.UUID]*models.ItemRef
}

func newFakeItemResolver() *fakeItemResolver {
	return &fakeItemResolver{items: make(map[uuid.UUID]*models.ItemRef)}
}

func (f *fakeItemResolver) add(itemType models.ItemType, projectID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.items[id] = &models.ItemRef{Type: itemType, ID: id, ProjectID: projectID, Title: "test item", Status: "Open"}
	return id
}

func (f *fakeItemResolver) Resolve(itemType models.ItemType, itemID uuid.UUID) (*models.ItemRef, error) {
	item, ok := f.items[itemID]
	if !ok || item.Type != itemType {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

// testEnv bundles a service over fresh fakes with a seeded page.
type testEnv struct {
	service   *Service
	pages     *fakePageStore
	changes   *fakeChangeStore
	items     *fakeItemResolver
	projectID uuid.UUID
	actorID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		pages:     newFakePageStore(),
		changes:   newFakeChangeStore(),
		items:     newFakeItemResolver(),
		projectID: uuid.New(),
		actorID:   uuid.New(),
	}
	env.service = NewService(env.pages, env.changes, env.items)
	return env
}

// newPage seeds a page directly through the fake store.
func (env *testEnv) newPage(t *testing.T, slug, content string) *models.Page {
	t.Helper()
	page, err := env.pages.Create(&models.Page{
		ProjectID:   env.projectID,
		Slug:        slug,
		Title:       "Page " + slug,
		Content:     content,
		ContentHash: fingerprint.Sum(content),
		Status:      models.PageStatusDraft,
		CreatedBy:   env.actorID,
	})
	if err != nil {
		t.Fatalf("seed page: %v", err)
	}
	return page
}

// newChange files a proposal against a page through the service.
func (env *testEnv) newChange(t *testing.T, page *models.Page, itemID uuid.UUID, snapshot string) *models.Change {
	t.Helper()
	change, err := env.service.CreateChange(page.ID, models.ItemTypeIssue, itemID, snapshot, "", env.actorID)
	if err != nil {
		t.Fatalf("create change: %v", err)
	}
	return change
}
