package perf

// RowHeightCache remembers measured row heights by row index.
//
// This type is not safe for concurrent use.
type RowHeightCache struct {
	heights       map[int]int
	defaultHeight int
}

// NewRowHeightCache returns a cache that reports defaultHeight for rows that
// were never measured.
func NewRowHeightCache(defaultHeight int) *RowHeightCache {
	return &RowHeightCache{
		heights:       make(map[int]int),
		defaultHeight: defaultHeight,
	}
}

// Get returns the measured height of a row, or the default height.
func (c *RowHeightCache) Get(index int) int {
	if h, ok := c.heights[index]; ok {
		return h
	}
	return c.defaultHeight
}

// Set stores a measured height. It returns false, and writes nothing, when
// the row already has that height.
func (c *RowHeightCache) Set(index, height int) bool {
	if h, ok := c.heights[index]; ok && h == height {
		return false
	}
	c.heights[index] = height
	return true
}

// Clear forgets every measurement.
func (c *RowHeightCache) Clear() {
	clear(c.heights)
}

// ClearAfterIndex forgets the measurements of index and every later row.
// Rows before index keep their heights.
func (c *RowHeightCache) ClearAfterIndex(index int) {
	for k := range c.heights {
		if k >= index {
			delete(c.heights, k)
		}
	}
}

// Offset returns the total height of rows [0, index).
func (c *RowHeightCache) Offset(index int) int {
	if index <= 0 {
		return 0
	}
	total := index * c.defaultHeight
	for k, h := range c.heights {
		if k < index {
			total += h - c.defaultHeight
		}
	}
	return total
}

// IndexAt returns the row containing the given vertical offset, scanning at
// most count rows.
func (c *RowHeightCache) IndexAt(offset, count int) int {
	if offset <= 0 || count <= 0 {
		return 0
	}
	y := 0
	for i := 0; i < count; i++ {
		y += c.Get(i)
		if y > offset {
			return i
		}
	}
	return count - 1
}

// Len returns the number of measured rows.
func (c *RowHeightCache) Len() int {
	return len(c.heights)
}

// DefaultHeight returns the fallback height.
func (c *RowHeightCache) DefaultHeight() int {
	return c.defaultHeight
}
