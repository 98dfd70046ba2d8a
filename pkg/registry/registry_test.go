package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/registry"
)

func TestRegistry(t *testing.T) {
	reg := registry.New()
	reg.Register("set_name", func(convCtx, value map[string]any) error {
		convCtx["name"] = value["name"]
		return nil
	})

	assert.True(t, reg.Has("set_name"))
	assert.False(t, reg.Has("missing"))

	convCtx := map[string]any{}
	require.NoError(t, reg.Apply("set_name", convCtx, map[string]any{"name": "Alice"}))
	assert.Equal(t, "Alice", convCtx["name"])
}

func TestRegistry_UnknownCallback(t *testing.T) {
	err := registry.New().Apply("ghost", map[string]any{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCallback)
}

func TestRegistry_PropagatesCallbackError(t *testing.T) {
	reg := registry.New()
	boom := errors.New("boom")
	reg.Register("fail", func(convCtx, value map[string]any) error { return boom })

	assert.ErrorIs(t, reg.Apply("fail", map[string]any{}, nil), boom)
}
