// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for wiki page reads. Slug lookups
// are the hot path (every page view), so resolved pages are stored as JSON
// keyed by project and slug. Any content mutation invalidates the entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wikimerge/internal/models"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached wiki pages.
	pageKeyPrefix = "wiki:page:"

	// DefaultPageTTL is how long a resolved page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache caches wiki pages in Valkey. The cache is an accelerator, not
// a source of truth: every error degrades to a miss.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// SlugKey returns the cache key for a page slug within a project.
func SlugKey(projectID uuid.UUID, slug string) string {
	return fmt.Sprintf("%s:%s", projectID, slug)
}

// Get retrieves a cached page. Returns nil, false on miss or decode failure.
func (pc *PageCache) Get(ctx context.Context, key string) (*models.Page, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}

	var page models.Page
	if err := json.Unmarshal(val, &page); err != nil {
		slog.Warn("page cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return &page, true
}

// Set stores a page under the given key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, page *models.Page) {
	val, err := json.Marshal(page)
	if err != nil {
		slog.Warn("page cache encode error", "key", key, "error", err)
		return
	}
	if err := pc.client.Set(ctx, pageKeyPrefix+key, val, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single page from the cache.
func (pc *PageCache) Invalidate(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidateProject removes every cached page of a project by scanning for
// its key prefix. Used for bulk merges, where several pages may change.
func (pc *PageCache) InvalidateProject(ctx context.Context, projectID uuid.UUID) {
	pattern := fmt.Sprintf("%s%s:*", pageKeyPrefix, projectID)
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared for project", "project_id", projectID, "deleted", deleted)
	}
}
