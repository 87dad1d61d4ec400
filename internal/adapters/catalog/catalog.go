// Package catalog resolves chapters to their owning series' genre list
// and image count. The reading service only needs this one lookup; the
// full series/chapter data lives with the surrounding application.
package catalog

import (
	"context"
	"sync"
)

// ChapterInfo is what the tracker needs to know about a chapter.
type ChapterInfo struct {
	SeriesID   string   `json:"series_id" koanf:"series_id"`
	Genres     []string `json:"genres" koanf:"genres"`
	ImageCount int      `json:"image_count" koanf:"image_count"`
}

// Catalog looks up chapter metadata.
type Catalog interface {
	// Chapter returns metadata for chapterID, or ErrChapterUnknown.
	Chapter(ctx context.Context, chapterID string) (ChapterInfo, error)
}

// MemCatalog is an in-memory Catalog, fed by the application at startup.
type MemCatalog struct {
	mu       sync.RWMutex
	chapters map[string]ChapterInfo
}

// NewMemCatalog creates an empty in-memory catalog.
func NewMemCatalog() *MemCatalog {
	return &MemCatalog{chapters: make(map[string]ChapterInfo)}
}

// Put registers or replaces a chapter's metadata.
func (c *MemCatalog) Put(chapterID string, info ChapterInfo) {
	c.mu.Lock()
	c.chapters[chapterID] = info
	c.mu.Unlock()
}

// Chapter returns metadata for chapterID.
func (c *MemCatalog) Chapter(ctx context.Context, chapterID string) (ChapterInfo, error) {
	c.mu.RLock()
	info, ok := c.chapters[chapterID]
	c.mu.RUnlock()
	if !ok {
		return ChapterInfo{}, ErrChapterUnknown
	}
	return info, nil
}

// Len returns the number of registered chapters.
func (c *MemCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chapters)
}
