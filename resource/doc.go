// Package resource provides Component Model resource tables whose slots own
// shared values.
//
// A table maps integer handles, the representation a WASM guest sees, to
// owning references created by package shared. Each occupied slot is one
// owner in its value's group, so a host value stays alive while either the
// table or any host-side handle still refers to it.
//
// # Handle Table
//
//	table := resource.NewTable[*File]()
//	defer table.Close()
//
//	file := shared.Make(openFile())
//	defer file.Release()
//
//	// Insert takes its own reference: file.UseCount() == 2
//	h, err := table.Insert(resource.WASIDescriptor, file)
//
//	// Borrow the value, or take a new reference to it
//	f, ok := table.Get(h)
//	ref, ok := table.Acquire(h)
//	ref.Release()
//
//	// Remove releases the table's reference
//	err = table.Remove(h)
//
// # Resource Types
//
// Slots are tagged with WIT resource type definitions. Definitions are
// compared by identity:
//
//	value, ok := table.GetTyped(h, resource.WASIDescriptor) // ok
//	value, ok := table.GetTyped(h, resource.WASITCPSocket)  // !ok
//
// # Borrows
//
// Borrow and ReturnBorrow track borrow<T> handles lent to a guest. A slot
// with outstanding borrows cannot be removed. Close releases every slot
// regardless and logs a warning if borrows were still outstanding.
//
// # Observers
//
// Subscribe an Observer to receive Created, Dropped, Borrowed and
// BorrowReturned events. Dropped events carry the group's remaining use
// count; 0 means the value was destroyed.
package resource
