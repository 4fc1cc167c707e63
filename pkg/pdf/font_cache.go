package pdf

import "sort"

// FontCacheEntry ties a resolved font file to the font object embedding it.
type FontCacheEntry struct {
	Path string
	Font *Font
}

// FontCache holds at most one font object per resolved file path. Entries
// are kept sorted by path.
type FontCache struct {
	entries []FontCacheEntry
}

// NewFontCache returns an empty cache.
func NewFontCache() *FontCache {
	return &FontCache{}
}

func (c *FontCache) search(path string) int {
	return sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Path >= path
	})
}

// Lookup returns the font stored for path.
func (c *FontCache) Lookup(path string) (*Font, bool) {
	i := c.search(path)
	if i < len(c.entries) && c.entries[i].Path == path {
		return c.entries[i].Font, true
	}
	return nil, false
}

// Insert adds a font for path. An existing entry for the same path is kept
// and returned instead.
func (c *FontCache) Insert(path string, f *Font) *Font {
	i := c.search(path)
	if i < len(c.entries) && c.entries[i].Path == path {
		return c.entries[i].Font
	}
	c.entries = append(c.entries, FontCacheEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = FontCacheEntry{Path: path, Font: f}
	return f
}

// Remove drops the entry for path.
func (c *FontCache) Remove(path string) bool {
	i := c.search(path)
	if i >= len(c.entries) || c.entries[i].Path != path {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return true
}

// Len returns the number of cached fonts.
func (c *FontCache) Len() int { return len(c.entries) }

// Entries returns the cache contents in path order.
func (c *FontCache) Entries() []FontCacheEntry {
	return append([]FontCacheEntry(nil), c.entries...)
}
