package resource

import (
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
	"github.com/wippyai/sharedptr/shared"
)

// Table maps integer handles to owning references of shared values.
//
// Every occupied slot counts as one owner in its value's group. Inserting
// clones the caller's handle, and removing a slot releases the table's
// reference, which destroys the value if no other owner is left.
//
// Table is not safe for concurrent use.
type Table[T any] struct {
	backend   *LocalBackend[T]
	observers []Observer
	closed    bool
}

// NewTable creates a new table with a LocalBackend.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		backend: NewLocalBackend[T](),
	}
}

// Insert stores a new reference to owner's group under a WIT resource type
// and returns its handle. The caller keeps its own reference.
func (t *Table[T]) Insert(def *wit.TypeDef, owner *shared.Handle[T]) (Handle, error) {
	if t.closed {
		return 0, errors.Closed(errors.PhaseTable, "resource table")
	}
	if err := checkResourceType(def); err != nil {
		return 0, err
	}
	if owner.Empty() {
		return 0, errors.InvalidInput(errors.PhaseTable, "cannot insert empty handle")
	}

	ref := owner.Clone()
	handle, err := t.backend.Create(def, ref)
	if err != nil {
		ref.Release()
		return 0, err
	}

	t.notify(Event{
		Type:     EventCreated,
		Handle:   handle,
		TypeName: TypeName(def),
		UseCount: ref.UseCount(),
	})

	return handle, nil
}

// Get returns the value behind a handle without taking a reference.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	owner, ok := t.backend.Owner(handle)
	if !ok {
		var zero T
		return zero, false
	}
	return owner.Value()
}

// GetTyped returns the value only if it was inserted under def.
func (t *Table[T]) GetTyped(handle Handle, def *wit.TypeDef) (T, bool) {
	actual, ok := t.backend.TypeDef(handle)
	if !ok || actual != def {
		var zero T
		return zero, false
	}
	return t.Get(handle)
}

// Acquire returns a new owning reference to the value behind a handle.
// The caller must release it.
func (t *Table[T]) Acquire(handle Handle) (*shared.Handle[T], bool) {
	owner, ok := t.backend.Owner(handle)
	if !ok {
		return nil, false
	}
	return owner.Clone(), true
}

// UseCount reports the group count of the value behind a handle, or 0 if
// the handle is invalid.
func (t *Table[T]) UseCount(handle Handle) int {
	owner, ok := t.backend.Owner(handle)
	if !ok {
		return 0
	}
	return owner.UseCount()
}

// Remove frees a slot and releases the table's reference.
// It fails if the handle is unknown or has outstanding borrows.
func (t *Table[T]) Remove(handle Handle) error {
	def, _ := t.backend.TypeDef(handle)
	owner, err := t.backend.Drop(handle)
	if err != nil {
		return err
	}
	t.release(handle, def, owner)
	return nil
}

// Borrow records a borrow on a handle. Borrowed slots cannot be removed.
func (t *Table[T]) Borrow(handle Handle) bool {
	if !t.backend.Borrow(handle) {
		return false
	}
	t.notifyBorrow(EventBorrowed, handle)
	return true
}

// ReturnBorrow ends one borrow on a handle.
func (t *Table[T]) ReturnBorrow(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	t.notifyBorrow(EventBorrowReturned, handle)
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of occupied slots.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each iterates over occupied slots in handle order.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.backend.Each(func(h Handle, _ *wit.TypeDef, owner *shared.Handle[T]) bool {
		v, _ := owner.Value()
		return fn(h, v)
	})
}

// Clear removes every slot without outstanding borrows.
func (t *Table[T]) Clear() {
	// Collect handles first; releasing may run destruction code that
	// touches the table.
	var handles []Handle
	t.backend.Each(func(h Handle, _ *wit.TypeDef, _ *shared.Handle[T]) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_ = t.Remove(h)
	}
}

// Close releases every reference, borrowed or not, and stops accepting
// operations. Closing twice is a no-op.
func (t *Table[T]) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	slots := t.backend.Close()
	if n := countBorrowed(slots); n > 0 {
		Logger().Warn("closing resource table with outstanding borrows", zap.Int("borrowed", n))
	}
	for _, s := range slots {
		t.release(s.Handle, s.Def, s.Owner)
	}
	return nil
}

func (t *Table[T]) release(handle Handle, def *wit.TypeDef, owner *shared.Handle[T]) {
	remaining := owner.UseCount() - 1
	owner.Release()

	Logger().Debug("resource dropped",
		zap.Uint32("handle", uint32(handle)),
		zap.String("type", TypeName(def)),
		zap.Int("use_count", remaining))

	t.notify(Event{
		Type:     EventDropped,
		Handle:   handle,
		TypeName: TypeName(def),
		UseCount: remaining,
	})
}

func (t *Table[T]) notifyBorrow(typ EventType, handle Handle) {
	def, _ := t.backend.TypeDef(handle)
	t.notify(Event{
		Type:     typ,
		Handle:   handle,
		TypeName: TypeName(def),
		UseCount: t.UseCount(handle),
	})
}

func (t *Table[T]) notify(e Event) {
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

func countBorrowed[T any](slots []Slot[T]) int {
	n := 0
	for _, s := range slots {
		if s.Borrows > 0 {
			n++
		}
	}
	return n
}
