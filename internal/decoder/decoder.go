// Package decoder turns PDF files into positioned text runs. It is the only
// package that touches PDF libraries; everything above it consumes plain
// cell slices and can be fed synthetic runs in tests.
package decoder

import (
	"sync"

	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
)

// Document is one decoded PDF: its page count and every non-empty text run
// as a cell in top-left-origin coordinates.
type Document struct {
	Path      string
	PageCount int
	Cells     []geometry.Cell
}

// CellsForPages returns the document's cells restricted to pages
// [1, maxPage]. Used by the classifier, which only reads the first pages.
func (d *Document) CellsForPages(maxPage int) []geometry.Cell {
	var out []geometry.Cell
	for _, c := range d.Cells {
		if c.Page <= maxPage {
			out = append(out, c)
		}
	}
	return out
}

// Provider yields decoded documents for file paths.
type Provider interface {
	Decode(path string) (*Document, error)
}

// Cache memoizes decode results per path so one parse serves every field
// resolution and classification pass in a session. Safe for concurrent use.
type Cache struct {
	provider Provider

	mu   sync.Mutex
	docs map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	doc  *Document
	err  error
}

// NewCache wraps a provider with per-path memoization.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		docs:     make(map[string]*cacheEntry),
	}
}

// Decode returns the cached document for path, decoding it on first use.
// Concurrent callers for the same path share a single decode.
func (c *Cache) Decode(path string) (*Document, error) {
	c.mu.Lock()
	entry, ok := c.docs[path]
	if !ok {
		entry = &cacheEntry{}
		c.docs[path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.doc, entry.err = c.provider.Decode(path)
	})
	return entry.doc, entry.err
}
