package domain

// Patch carries one field of a partial update. An unset Patch leaves the
// stored value untouched; a set Patch with a nil Value clears it.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Patch assigning v.
func SetTo[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: &v}
}

// Clear returns a Patch that nulls the field.
func Clear[T any]() Patch[T] {
	return Patch[T]{Set: true}
}
