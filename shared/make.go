package shared

import (
	"github.com/wippyai/sharedptr/errors"
)

// Dropper is optionally implemented by owned values that need cleanup when
// the last handle of their group is released.
type Dropper interface {
	Drop()
}

// Make returns the sole owner of v. When the group is destroyed, v is
// dropped as T.
func Make[T any](v T) *Handle[T] {
	return newHandle(v, dropAs[T])
}

// MakeAs returns the sole owner of u, viewed through the handle type T.
// The destruction operation is bound to U here, so u is torn down as a U
// even though the handle only knows T.
//
// It fails with a type_mismatch error if a U cannot be used as a T.
func MakeAs[T, U any](u U) (*Handle[T], error) {
	t, ok := any(u).(T)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseMake, typeName[U](), typeName[T]())
	}
	return newHandle(t, func(t T) {
		dropAs(any(t).(U))
	}), nil
}

// MakeWithDeleter is like MakeAs but destroys the value with del instead of
// its Drop method.
func MakeWithDeleter[T, U any](u U, del func(U)) (*Handle[T], error) {
	if del == nil {
		return nil, errors.InvalidInput(errors.PhaseMake, "nil deleter")
	}
	t, ok := any(u).(T)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseMake, typeName[U](), typeName[T]())
	}
	return newHandle(t, func(t T) {
		del(any(t).(U))
	}), nil
}

func dropAs[U any](u U) {
	if d, ok := any(u).(Dropper); ok {
		d.Drop()
	}
}
