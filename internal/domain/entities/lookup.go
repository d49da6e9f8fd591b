package entities

// Lookup is the result of a read that may legitimately find nothing.
// Together with the error return of the call it covers the three provider
// outcomes: found, absent, and a backend failure.
type Lookup[T any] struct {
	value T
	found bool
}

// Found wraps a present value.
func Found[T any](value T) Lookup[T] {
	return Lookup[T]{value: value, found: true}
}

// Absent is the not-found outcome.
func Absent[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get returns the value and whether it was found.
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

// IsFound reports whether the lookup found a value.
func (l Lookup[T]) IsFound() bool {
	return l.found
}
