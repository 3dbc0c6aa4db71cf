// Package shared provides reference-counted handles with deterministic
// destruction.
//
// A Handle owns a value together with every other handle in its ownership
// group. The group's value is destroyed exactly once, when the last handle
// is released.
//
// # Ownership
//
//	h := shared.Make(newBuffer())     // use_count 1
//	defer h.Release()
//
//	c := h.Clone()                    // use_count 2
//	c.Release()                       // use_count 1
//
//	var other shared.Handle[*Buffer]  // empty
//	other.Assign(h)                   // use_count 2
//	other.Reset()                     // use_count 1
//
// Go copies structs silently, so a Handle must never be copied by value;
// use Clone or Assign. go vet reports such copies.
//
// # Destruction through a narrower type
//
// The destruction operation is bound to the concrete type when the handle is
// made, so a handle declared over an interface still tears the value down as
// what it really is:
//
//	h, err := shared.MakeAs[fmt.Stringer](&File{...})
//	// When the last owner releases, (*File).Drop runs even though
//	// fmt.Stringer has no Drop method.
//
// Values implementing Dropper have Drop called on destruction.
// MakeWithDeleter supplies an explicit destruction function instead.
//
// # Empty handles
//
// Get on an empty handle panics with an *errors.Error of kind empty_handle.
// Use Value or UseCount to check first.
//
// # Thread Safety
//
// Handles use a plain counter and are NOT safe for concurrent use. Guard a
// group with external synchronization if it crosses goroutines.
package shared
