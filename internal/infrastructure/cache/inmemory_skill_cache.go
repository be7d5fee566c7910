package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/skill"
)

type skillEntry struct {
	content   skill.Content
	libraryID uuid.UUID
	expiresAt time.Time
}

// InMemorySkillCache implements skill.ContentCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemorySkillCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]skillEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySkillCache creates a new in-memory skill content cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemorySkillCache() *InMemorySkillCache {
	c := &InMemorySkillCache{
		entries:  make(map[uuid.UUID]skillEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached content for a skill, if present and not expired
func (c *InMemorySkillCache) Get(ctx context.Context, libraryID, skillID uuid.UUID) (*skill.Content, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[skillID]
	if !exists || e.libraryID != libraryID {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		return nil, false
	}
	content := e.content
	return &content, true
}

// Set caches a skill's content with the given TTL
func (c *InMemorySkillCache) Set(ctx context.Context, libraryID uuid.UUID, content skill.Content, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[content.SkillID] = skillEntry{
		content:   content,
		libraryID: libraryID,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateLibrary drops all cached content for a library
func (c *InMemorySkillCache) InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if e.libraryID == libraryID {
			delete(c.entries, id)
		}
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemorySkillCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemorySkillCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemorySkillCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemorySkillCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemorySkillCache implements ContentCache
var _ skill.ContentCache = (*InMemorySkillCache)(nil)

// NoopSkillCache is the default cache: every read misses, writes are dropped.
// The pipeline's correctness never depends on caching.
type NoopSkillCache struct{}

// NewNoopSkillCache creates a no-op skill content cache
func NewNoopSkillCache() *NoopSkillCache {
	return &NoopSkillCache{}
}

// Get always misses
func (NoopSkillCache) Get(ctx context.Context, libraryID, skillID uuid.UUID) (*skill.Content, bool) {
	return nil, false
}

// Set drops the content
func (NoopSkillCache) Set(ctx context.Context, libraryID uuid.UUID, content skill.Content, ttl time.Duration) {
}

// InvalidateLibrary has nothing to drop
func (NoopSkillCache) InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error {
	return nil
}

// Ensure NoopSkillCache implements ContentCache
var _ skill.ContentCache = (*NoopSkillCache)(nil)
