package module

import "fmt"

// Container is an ordered list of children without side effects beyond
// membership.
type Container[T comparable] struct {
	items []T
}

// Append adds child at the end.
func (c *Container[T]) Append(child T) {
	c.items = append(c.items, child)
}

// InsertBefore adds child directly before anchor.
func (c *Container[T]) InsertBefore(child, anchor T) error {
	i := c.IndexOf(anchor)
	if i < 0 {
		return fmt.Errorf("insert before missing anchor: %w", ErrChildNotFound)
	}
	c.items = append(c.items, child)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = child
	return nil
}

// Remove deletes child.
func (c *Container[T]) Remove(child T) error {
	i := c.IndexOf(child)
	if i < 0 {
		return fmt.Errorf("remove missing child: %w", ErrChildNotFound)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// IndexOf returns the position of child or -1.
func (c *Container[T]) IndexOf(child T) int {
	for i, x := range c.items {
		if x == child {
			return i
		}
	}
	return -1
}

// Len returns the number of children.
func (c *Container[T]) Len() int { return len(c.items) }

// At returns the child at i; ok is false when out of range.
func (c *Container[T]) At(i int) (child T, ok bool) {
	if i < 0 || i >= len(c.items) {
		return child, false
	}
	return c.items[i], true
}

// Items returns a copy of the children.
func (c *Container[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
