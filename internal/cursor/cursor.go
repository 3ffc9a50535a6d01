// Package cursor implements a bidirectional cursor over a shared, read-only slice.
package cursor

// Cursor points into a slice. Besides the elements it knows two sentinel
// positions: Start, before the first element, and End, after the last one.
//
// The slice is never modified through a Cursor, so any number of cursors may
// share it. Copying a Cursor (or calling Clone) yields an independent cursor
// over the same slice.
type Cursor[T any] struct {
	items []T
	// pos is 0 at Start, len(items)+1 at End and i+1 when at element i.
	pos int
}

// NewAtStart returns a cursor positioned before the first element.
func NewAtStart[T any](items []T) Cursor[T] {
	return Cursor[T]{items: items}
}

// NewAtEnd returns a cursor positioned after the last element.
func NewAtEnd[T any](items []T) Cursor[T] {
	return Cursor[T]{items: items, pos: len(items) + 1}
}

// NewAt returns a cursor positioned at element i.
// It panics if i is not a valid index into items.
func NewAt[T any](items []T, i int) Cursor[T] {
	if i < 0 || i >= len(items) {
		panic("cursor: index out of range")
	}
	return Cursor[T]{items: items, pos: i + 1}
}

func (c *Cursor[T]) end() int { return len(c.items) + 1 }

// Len returns the number of elements in the underlying slice.
func (c *Cursor[T]) Len() int { return len(c.items) }

// Index returns the index of the current element, -1 at Start and Len() at End.
func (c *Cursor[T]) Index() int { return c.pos - 1 }

// AtStart reports whether the cursor is before the first element.
func (c *Cursor[T]) AtStart() bool { return c.pos == 0 }

// AtEnd reports whether the cursor is after the last element.
func (c *Cursor[T]) AtEnd() bool { return c.pos == c.end() }

// Current returns the element under the cursor. It returns false at Start and End.
func (c *Cursor[T]) Current() (T, bool) {
	if c.pos == 0 || c.pos == c.end() {
		var zero T
		return zero, false
	}
	return c.items[c.pos-1], true
}

// Next moves the cursor one position forward and returns the new current element.
// Moving past the last element leaves the cursor at End; at End it stays there.
func (c *Cursor[T]) Next() (T, bool) {
	if c.pos < c.end() {
		c.pos++
	}
	return c.Current()
}

// Prev moves the cursor one position back and returns the new current element.
func (c *Cursor[T]) Prev() (T, bool) {
	if c.pos > 0 {
		c.pos--
	}
	return c.Current()
}

// PeekNext returns the element Next would return without moving the cursor.
func (c *Cursor[T]) PeekNext() (T, bool) {
	if c.pos < len(c.items) {
		return c.items[c.pos], true
	}
	var zero T
	return zero, false
}

// PeekPrev returns the element Prev would return without moving the cursor.
func (c *Cursor[T]) PeekPrev() (T, bool) {
	if c.pos >= 2 {
		return c.items[c.pos-2], true
	}
	var zero T
	return zero, false
}

// AdvanceBy moves the cursor n positions forward, saturating at End.
// It returns the number of steps that could not be taken.
// A negative n moves backwards like RevertBy.
func (c *Cursor[T]) AdvanceBy(n int) int {
	if n < 0 {
		return -c.RevertBy(-n)
	}
	if room := c.end() - c.pos; n > room {
		c.pos = c.end()
		return n - room
	}
	c.pos += n
	return 0
}

// RevertBy moves the cursor n positions back, saturating at Start.
// It returns the number of steps that could not be taken.
func (c *Cursor[T]) RevertBy(n int) int {
	if n < 0 {
		return -c.AdvanceBy(-n)
	}
	if n > c.pos {
		rest := n - c.pos
		c.pos = 0
		return rest
	}
	c.pos -= n
	return 0
}

// Clone returns an independent cursor at the same position over the same slice.
func (c *Cursor[T]) Clone() Cursor[T] { return *c }

// Equal reports whether both cursors share the same slice and position.
func (c *Cursor[T]) Equal(o Cursor[T]) bool {
	if c.pos != o.pos || len(c.items) != len(o.items) || cap(c.items) != cap(o.items) {
		return false
	}
	return len(c.items) == 0 || &c.items[0] == &o.items[0]
}
