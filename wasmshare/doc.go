// Package wasmshare puts wazero runtimes, compiled modules and module
// instances behind shared handles.
//
// Each object is closed when the last handle to it is released. Dependent
// objects keep their parents alive: a module instance holds a reference on
// its runtime and its compiled module, so releasing the runtime handle first
// is safe.
//
//	rt, err := wasmshare.NewRuntime(ctx, &wasmshare.Config{MemoryLimitPages: 256})
//	if err != nil {
//	    return err
//	}
//	defer rt.Release()
//
//	mod, err := wasmshare.Instantiate(ctx, rt, "guest", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	defer mod.Release()
//
// Close errors cannot be returned from a release, so they are logged through
// Logger at warn level.
package wasmshare
