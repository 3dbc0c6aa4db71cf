package shared

// controlBlock bundles an owned value with the operation that destroys it as
// the concrete type it was created with. One block exists per ownership group.
type controlBlock[T any] struct {
	value   T
	destroy func(T)
}

func newControlBlock[T any](value T, destroy func(T)) *controlBlock[T] {
	return &controlBlock[T]{value: value, destroy: destroy}
}

// run destroys the owned value and clears the block. Calls after the first
// do nothing.
func (cb *controlBlock[T]) run() {
	value, destroy := cb.value, cb.destroy

	var zero T
	cb.value = zero
	cb.destroy = nil

	if destroy != nil {
		destroy(value)
	}
}
