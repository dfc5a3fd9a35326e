package execution_test

import (
	"context"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/andrewwormald/execution"
)

func echo(ctx context.Context, input map[string]any) (any, error) {
	return input, nil
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry := execution.NewRegistry()

	err := registry.Register("echo", echo)
	jtest.RequireNil(t, err)

	fn, err := registry.Resolve("echo")
	jtest.RequireNil(t, err)
	require.NotNil(t, fn)

	result, err := fn(context.Background(), map[string]any{"x": 1})
	jtest.RequireNil(t, err)
	require.Equal(t, map[string]any{"x": 1}, result)
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := execution.NewRegistry()

	_, err := registry.Resolve("missing")
	jtest.Require(t, execution.ErrFuncNotRegistered, err)
}

func TestRegistryDuplicateName(t *testing.T) {
	registry := execution.NewRegistry()

	err := registry.Register("echo", echo)
	jtest.RequireNil(t, err)

	err = registry.Register("echo", echo)
	jtest.Require(t, execution.ErrFuncAlreadyRegistered, err)
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	registry := execution.NewRegistry()

	err := registry.Register("", echo)
	require.Error(t, err)

	err = registry.Register("echo", nil)
	require.Error(t, err)
}

func TestRegistryNames(t *testing.T) {
	registry := execution.NewRegistry()
	require.Empty(t, registry.Names())

	jtest.RequireNil(t, registry.Register("b", echo))
	jtest.RequireNil(t, registry.Register("a", echo))

	require.Equal(t, []string{"a", "b"}, registry.Names())
}
