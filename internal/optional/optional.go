// Package optional provides a value that may be absent.
package optional

// Optional holds either a value of type T or nothing.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// ValueOr returns the held value, or def when empty.
func (o Optional[T]) ValueOr(def T) T {
	if o.present {
		return o.value
	}
	return def
}
