package wasmshare

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
	"github.com/wippyai/sharedptr/shared"
)

// Config holds configuration for runtime creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CloseOnContextDone makes function calls stop when their context is
	// cancelled.
	CloseOnContextDone bool
}

// NewRuntime creates a wazero runtime owned by the returned handle.
// The runtime is closed when the last owner is released.
func NewRuntime(ctx context.Context, cfg *Config) (*shared.Handle[wazero.Runtime], error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	closeCtx := context.WithoutCancel(ctx)

	return shared.MakeWithDeleter[wazero.Runtime](rt, func(r wazero.Runtime) {
		if err := r.Close(closeCtx); err != nil {
			Logger().Warn("failed to close runtime", zap.Error(err))
		}
	})
}

// Compile compiles a module on a shared runtime. The compiled module holds a
// reference on the runtime until it is closed.
func Compile(ctx context.Context, rt *shared.Handle[wazero.Runtime], bin []byte) (*shared.Handle[wazero.CompiledModule], error) {
	if rt.Empty() {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty runtime handle")
	}

	compiled, err := rt.Get().CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("module compilation failed", err)
	}

	rtRef := rt.Clone()
	closeCtx := context.WithoutCancel(ctx)

	return shared.MakeWithDeleter[wazero.CompiledModule](compiled, func(cm wazero.CompiledModule) {
		if err := cm.Close(closeCtx); err != nil {
			Logger().Warn("failed to close compiled module", zap.Error(err))
		}
		rtRef.Release()
	})
}

// Instantiate compiles and instantiates bin under name. The module holds a
// reference on the runtime until it is closed.
func Instantiate(ctx context.Context, rt *shared.Handle[wazero.Runtime], name string, bin []byte) (*shared.Handle[api.Module], error) {
	compiled, err := Compile(ctx, rt, bin)
	if err != nil {
		return nil, err
	}
	defer compiled.Release()

	return InstantiateCompiled(ctx, rt, compiled, name)
}

// InstantiateCompiled instantiates a shared compiled module under name. The
// module holds references on both the runtime and the compiled module until
// it is closed.
func InstantiateCompiled(ctx context.Context, rt *shared.Handle[wazero.Runtime], compiled *shared.Handle[wazero.CompiledModule], name string) (*shared.Handle[api.Module], error) {
	if rt.Empty() {
		return nil, errors.InvalidInput(errors.PhaseHost, "empty runtime handle")
	}
	if compiled.Empty() {
		return nil, errors.InvalidInput(errors.PhaseHost, "empty compiled module handle")
	}

	mod, err := rt.Get().InstantiateModule(ctx, compiled.Get(), wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Instantiation(name, err)
	}

	rtRef := rt.Clone()
	compiledRef := compiled.Clone()
	closeCtx := context.WithoutCancel(ctx)

	return shared.MakeWithDeleter[api.Module](mod, func(m api.Module) {
		if err := m.Close(closeCtx); err != nil {
			Logger().Warn("failed to close module",
				zap.String("module", name),
				zap.Error(err))
		}
		compiledRef.Release()
		rtRef.Release()
	})
}
