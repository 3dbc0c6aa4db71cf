// Package sharedptr provides shared-ownership handles with deterministic
// destruction for Go hosts that manage non-memory resources.
//
// Go's garbage collector frees memory, but it does not close files, sockets,
// wazero runtimes or component-model resources at a predictable time. The
// handles in this module track how many owners a value has and run its
// destruction logic exactly once, when the last owner lets go.
//
// # Architecture Overview
//
//	sharedptr/
//	├── shared/        Handle[T]: reference-counted owner with type-erased destruction
//	├── resource/      Component Model resource tables whose slots own handles
//	├── wasmshare/     wazero runtimes and modules behind shared handles
//	├── errors/        Structured error types
//	└── cmd/sharedemo/ Demonstration CLI and interactive TUI
//
// # Quick Start
//
//	h, err := shared.MakeAs[io.Reader](newPipeEnd())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Release()
//
//	c := h.Clone()            // h.UseCount() == 2
//	queue.Push(c)             // the queue now owns c and releases it later
//
// When the last handle is released, the value's Drop method runs as its
// concrete type, even though the handles only know it as an io.Reader.
//
// # Thread Safety
//
// Handles and tables are NOT thread-safe. Use them from a single goroutine,
// or synchronize access externally.
package sharedptr
