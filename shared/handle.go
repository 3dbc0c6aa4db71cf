package shared

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
)

// noCopy makes go vet's copylocks check report Handle values copied by
// assignment. A struct copy aliases the group without counting it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is a shared owner of a single value viewed as T.
//
// The zero value is an empty handle. Populated handles come from Make,
// MakeAs, MakeWithDeleter or Clone. Every populated handle must eventually be
// released with Release, Reset or by being assigned over; the value is
// destroyed when the last handle of its group lets go.
//
// Handle is not safe for concurrent use.
type Handle[T any] struct {
	_    noCopy
	cb   *controlBlock[T]
	refs *int
}

func newHandle[T any](value T, destroy func(T)) *Handle[T] {
	refs := new(int)
	*refs = 1
	return &Handle[T]{
		cb:   newControlBlock(value, destroy),
		refs: refs,
	}
}

// Clone returns a new handle in the same ownership group, incrementing the
// use count. Cloning an empty handle yields an empty handle.
func (h *Handle[T]) Clone() *Handle[T] {
	c := &Handle[T]{}
	if h != nil {
		c.adopt(h.cb, h.refs)
	}
	return c
}

// Assign makes h an owner of other's group, releasing whatever h owned
// before. Assigning a handle to itself, or to another handle of the same
// group, leaves the count unchanged. A nil or empty other empties h.
func (h *Handle[T]) Assign(other *Handle[T]) {
	if other == nil {
		h.release()
		return
	}
	if h == other || h.refs == other.refs {
		return
	}

	cb, refs := h.cb, h.refs
	h.adopt(other.cb, other.refs)
	releaseGroup(cb, refs)
}

// Swap exchanges the groups of h and other. Counts are unchanged.
func (h *Handle[T]) Swap(other *Handle[T]) {
	h.cb, other.cb = other.cb, h.cb
	h.refs, other.refs = other.refs, h.refs
}

// Get returns the owned value.
// It panics with an *errors.Error of kind empty_handle if h is empty.
func (h *Handle[T]) Get() T {
	if h == nil || h.cb == nil {
		panic(errors.EmptyHandle(typeName[T]()))
	}
	return h.cb.value
}

// Value returns the owned value and whether h is populated.
func (h *Handle[T]) Value() (T, bool) {
	if h == nil || h.cb == nil {
		var zero T
		return zero, false
	}
	return h.cb.value, true
}

// Reset drops h's ownership and leaves it empty. Resetting an empty handle
// is a no-op.
func (h *Handle[T]) Reset() {
	h.release()
}

// Release ends h's ownership. It is the end-of-lifetime call for a handle,
// usually deferred right after the handle is obtained, and follows the same
// protocol as Reset.
func (h *Handle[T]) Release() {
	h.release()
}

// UseCount reports how many handles share h's group, or 0 if h is empty.
func (h *Handle[T]) UseCount() int {
	if h == nil || h.refs == nil {
		return 0
	}
	return *h.refs
}

// Empty reports whether h owns nothing.
func (h *Handle[T]) Empty() bool {
	return h == nil || h.refs == nil
}

// SameGroup reports whether h and other share one ownership group.
// Two empty handles are not considered the same group.
func (h *Handle[T]) SameGroup(other *Handle[T]) bool {
	if h.Empty() || other.Empty() {
		return false
	}
	return h.refs == other.refs
}

func (h *Handle[T]) String() string {
	if h.Empty() {
		return fmt.Sprintf("shared.Handle[%s](empty)", typeName[T]())
	}
	return fmt.Sprintf("shared.Handle[%s](use_count=%d)", typeName[T](), *h.refs)
}

func (h *Handle[T]) adopt(cb *controlBlock[T], refs *int) {
	h.cb, h.refs = cb, refs
	if refs != nil {
		*refs++
	}
}

// release empties h before running any destruction so that a destroy
// closure reaching back into h observes an empty handle.
func (h *Handle[T]) release() {
	if h == nil {
		return
	}
	cb, refs := h.cb, h.refs
	h.cb, h.refs = nil, nil
	releaseGroup(cb, refs)
}

// releaseGroup is the single decrement-and-maybe-destroy path. The decision
// to destroy uses the value this call produced.
func releaseGroup[T any](cb *controlBlock[T], refs *int) {
	if refs == nil {
		return
	}

	*refs--
	n := *refs
	if n > 0 {
		return
	}
	if n < 0 {
		panic(errors.New(errors.PhaseRelease, errors.KindInvalidData).
			GoType(typeName[T]()).
			Detail("use count dropped to %d", n).
			Build())
	}

	Logger().Debug("destroying shared value", zap.String("type", typeName[T]()))
	cb.run()
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
