package wasmshare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	sperrors "github.com/wippyai/sharedptr/errors"
	"github.com/wippyai/sharedptr/shared"
)

// emptyModule is the smallest valid core module: magic and version only.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestInstantiate_ModuleClosedOnLastRelease(t *testing.T) {
	ctx := context.Background()

	rt, err := NewRuntime(ctx, nil)
	require.NoError(t, err)
	defer rt.Release()

	mod, err := Instantiate(ctx, rt, "guest", emptyModule)
	require.NoError(t, err)
	// One reference from the module, one from its compiled module.
	assert.Equal(t, 3, rt.UseCount())
	assert.Equal(t, "guest", mod.Get().Name())

	raw := mod.Get()
	c := mod.Clone()
	mod.Release()
	assert.False(t, raw.IsClosed())

	c.Release()
	assert.True(t, raw.IsClosed())
	assert.Equal(t, 1, rt.UseCount())

	// The name is free again once the module is closed.
	again, err := Instantiate(ctx, rt, "guest", emptyModule)
	require.NoError(t, err)
	again.Release()
}

func TestInstantiate_ModuleKeepsRuntimeAlive(t *testing.T) {
	ctx := context.Background()

	rt, err := NewRuntime(ctx, &Config{MemoryLimitPages: 16, CloseOnContextDone: true})
	require.NoError(t, err)

	mod, err := Instantiate(ctx, rt, "guest", emptyModule)
	require.NoError(t, err)

	// A module instantiated directly on the runtime closes with it.
	sibling, err := rt.Get().Instantiate(ctx, emptyModule)
	require.NoError(t, err)

	rt.Release()
	assert.True(t, rt.Empty())
	assert.False(t, sibling.IsClosed(), "runtime closed while a module still owns it")

	mod.Release()
	assert.True(t, sibling.IsClosed())
}

func TestInstantiateCompiled_SharesCompiledModule(t *testing.T) {
	ctx := context.Background()

	rt, err := NewRuntime(ctx, nil)
	require.NoError(t, err)
	defer rt.Release()

	compiled, err := Compile(ctx, rt, emptyModule)
	require.NoError(t, err)
	assert.Equal(t, 2, rt.UseCount())

	var mods []*shared.Handle[api.Module]
	for _, name := range []string{"a", "b", "c"} {
		m, err := InstantiateCompiled(ctx, rt, compiled, name)
		require.NoError(t, err)
		mods = append(mods, m)
	}
	assert.Equal(t, 4, compiled.UseCount())
	assert.Equal(t, 5, rt.UseCount())

	compiled.Release()
	for _, m := range mods {
		m.Release()
	}
	assert.Equal(t, 1, rt.UseCount())
}

func TestInstantiate_Errors(t *testing.T) {
	ctx := context.Background()

	rt, err := NewRuntime(ctx, nil)
	require.NoError(t, err)
	defer rt.Release()

	t.Run("invalid binary", func(t *testing.T) {
		mod, err := Instantiate(ctx, rt, "bad", []byte("not wasm"))
		assert.Nil(t, mod)
		assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseLoad, Kind: sperrors.KindInvalidData}), "got %v", err)
		assert.Equal(t, 1, rt.UseCount())
	})

	t.Run("duplicate name", func(t *testing.T) {
		first, err := Instantiate(ctx, rt, "dup", emptyModule)
		require.NoError(t, err)
		defer first.Release()

		second, err := Instantiate(ctx, rt, "dup", emptyModule)
		assert.Nil(t, second)
		assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseHost, Kind: sperrors.KindInstantiation}), "got %v", err)
		assert.Equal(t, 3, rt.UseCount())
	})

	t.Run("empty runtime", func(t *testing.T) {
		var empty shared.Handle[wazero.Runtime]
		_, err := Instantiate(ctx, &empty, "x", emptyModule)
		assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseLoad, Kind: sperrors.KindInvalidInput}))

		compiled, err := Compile(ctx, rt, emptyModule)
		require.NoError(t, err)
		defer compiled.Release()
		_, err = InstantiateCompiled(ctx, &empty, compiled, "x")
		assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseHost, Kind: sperrors.KindInvalidInput}))
	})
}

func TestRelease_CleanCloseDoesNotWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	ctx := context.Background()
	rt, err := NewRuntime(ctx, nil)
	require.NoError(t, err)
	mod, err := Instantiate(ctx, rt, "quiet", emptyModule)
	require.NoError(t, err)

	mod.Release()
	rt.Release()
	assert.Zero(t, logs.Len(), "clean close should not warn")
}
