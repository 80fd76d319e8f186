package imageresolver

import "slices"

// Cursor marks the currently attempted location within one candidate list.
// A Cursor belongs to exactly one display context and is not safe for concurrent use.
type Cursor struct {
	candidates []string
	index      int // len(candidates) once exhausted
}

// NewCursor positions a cursor on the first candidate. An empty list starts exhausted.
func NewCursor(candidates []string) *Cursor {
	return &Cursor{candidates: slices.Clone(candidates)}
}

// Active returns the location to display, or false when the placeholder must be rendered.
func (c *Cursor) Active() (string, bool) {
	if c.index < len(c.candidates) {
		return c.candidates[c.index], true
	}
	return "", false
}

// Advance handles a load failure of the active location and moves to the next candidate.
// Advancing an exhausted cursor keeps it exhausted; it never wraps.
func (c *Cursor) Advance() (string, bool) {
	if c.index < len(c.candidates) {
		c.index++
	}
	return c.Active()
}

// Reset replaces the candidate list. The position goes back to 0 only when the list differs
// from the current one; an identical list keeps its progress. Reports whether a reset happened.
func (c *Cursor) Reset(candidates []string) bool {
	if slices.Equal(c.candidates, candidates) {
		return false
	}
	c.candidates = slices.Clone(candidates)
	c.index = 0
	return true
}

// Index is the current position, equal to Len once exhausted.
func (c *Cursor) Index() int {
	return c.index
}

// Len is the number of candidates.
func (c *Cursor) Len() int {
	return len(c.candidates)
}

// Exhausted reports whether every candidate has failed (or there were none).
func (c *Cursor) Exhausted() bool {
	return c.index >= len(c.candidates)
}
