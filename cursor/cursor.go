// Package cursor tracks the getUpdates offset of the poll loop.
package cursor

// Cursor holds the next offset to request. The zero value starts at offset 0,
// the beginning of the platform backlog. It only moves forward and is not safe
// for concurrent writers; the poll loop is its single owner.
type Cursor struct {
	next int
}

func New(start int) *Cursor {
	if start < 0 {
		start = 0
	}
	return &Cursor{next: start}
}

// Current returns the offset to pass to the next fetch.
func (c *Cursor) Current() int {
	return c.next
}

// AdvancePast moves the cursor to updateID+1 if that is ahead of the current
// offset. It reports whether the cursor moved.
func (c *Cursor) AdvancePast(updateID int) bool {
	if updateID+1 <= c.next {
		return false
	}
	c.next = updateID + 1
	return true
}
