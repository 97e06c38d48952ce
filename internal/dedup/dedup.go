// Package dedup suppresses repeated values.
package dedup

// Deduplicator remembers the last value it accepted. The zero value is ready
// to use.
type Deduplicator[T comparable] struct {
	last    T
	hasLast bool
}

// Next records v and reports whether it differs from the previously recorded
// value. The first call always returns true.
func (d *Deduplicator[T]) Next(v T) bool {
	if d.hasLast && d.last == v {
		return false
	}
	d.last = v
	d.hasLast = true
	return true
}

// HasValue reports whether any value has been recorded.
func (d *Deduplicator[T]) HasValue() bool {
	return d.hasLast
}
