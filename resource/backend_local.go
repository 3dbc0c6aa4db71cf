package resource

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharedptr/errors"
	"github.com/wippyai/sharedptr/shared"
)

// LocalBackend is the slot storage behind a Table. Each valid slot holds one
// owning reference. The backend never releases references itself; callers
// receive them back from Drop and Close.
type LocalBackend[T any] struct {
	entries  []entry[T]
	freeList []Handle
	closed   bool
}

// Slot is an occupied table position returned by Close.
type Slot[T any] struct {
	Owner   *shared.Handle[T]
	Def     *wit.TypeDef
	Handle  Handle
	Borrows uint32
}

type entry[T any] struct {
	owner       *shared.Handle[T]
	def         *wit.TypeDef
	borrowCount uint32
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend[T any]() *LocalBackend[T] {
	return &LocalBackend[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores an owning reference and returns its handle.
func (b *LocalBackend[T]) Create(def *wit.TypeDef, owner *shared.Handle[T]) (Handle, error) {
	if b.closed {
		return 0, errors.Closed(errors.PhaseTable, "resource backend")
	}

	e := entry[T]{
		owner: owner,
		def:   def,
		valid: true,
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

func (b *LocalBackend[T]) lookup(handle Handle) *entry[T] {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// Owner returns the reference stored at handle without taking a new one.
func (b *LocalBackend[T]) Owner(handle Handle) (*shared.Handle[T], bool) {
	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.owner, true
}

// TypeDef returns the resource type stored with handle.
func (b *LocalBackend[T]) TypeDef(handle Handle) (*wit.TypeDef, bool) {
	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.def, true
}

// Drop frees the slot and hands its reference back to the caller, who must
// release it.
func (b *LocalBackend[T]) Drop(handle Handle) (*shared.Handle[T], error) {
	e := b.lookup(handle)
	if e == nil {
		return nil, errors.NotFound(errors.PhaseTable, "handle", handle)
	}
	if e.borrowCount > 0 {
		return nil, errors.Borrowed(errors.PhaseTable, handle, e.borrowCount)
	}

	owner := e.owner
	*e = entry[T]{}
	b.freeList = append(b.freeList, handle)
	return owner, nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend[T]) Borrow(handle Handle) bool {
	e := b.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend[T]) ReturnBorrow(handle Handle) bool {
	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Len returns the number of occupied slots.
func (b *LocalBackend[T]) Len() int {
	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over occupied slots in handle order.
func (b *LocalBackend[T]) Each(fn func(Handle, *wit.TypeDef, *shared.Handle[T]) bool) {
	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.def, e.owner) {
				break
			}
		}
	}
}

// Close stops accepting new entries and returns every stored reference,
// borrowed or not. The backend is empty afterwards.
func (b *LocalBackend[T]) Close() []Slot[T] {
	if b.closed {
		return nil
	}
	b.closed = true

	var owners []Slot[T]
	for i, e := range b.entries {
		if e.valid {
			owners = append(owners, Slot[T]{
				Owner:   e.owner,
				Def:     e.def,
				Handle:  Handle(i + 1),
				Borrows: e.borrowCount,
			})
		}
	}

	b.entries = nil
	b.freeList = nil
	return owners
}
