package maitre_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/observability"
	"github.com/maitre-bot/maitre/pkg/registry"
	"github.com/maitre-bot/maitre/pkg/schema"
)

func newFacadeTable(t *testing.T) (*flow.Table, *registry.Registry) {
	t.Helper()
	table, err := flow.New(
		domain.State{
			ID:        "INIT",
			Prompt:    "Name?",
			Validator: schema.Schema{"name": schema.String()},
			Callback:  "set_name",
			Next:      map[domain.Token]string{domain.TokenOK: "DONE"},
		},
		domain.State{ID: "DONE", Prompt: "Welcome, {name}!"},
	)
	require.NoError(t, err)

	reg := registry.New()
	reg.Register("set_name", func(convCtx, value map[string]any) error {
		convCtx["name"] = value["name"]
		return nil
	})
	return table, reg
}

func TestNew_ValidatesTable(t *testing.T) {
	table, err := flow.New(
		domain.State{
			ID:        "INIT",
			Prompt:    "hi",
			Validator: schema.Schema{"v": schema.String()},
			Next:      map[domain.Token]string{domain.TokenOK: "MISSING"},
		},
	)
	require.NoError(t, err)

	_, err = maitre.New(table, registry.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownState)
}

func TestEngine_EndToEnd(t *testing.T) {
	table, reg := newFacadeTable(t)
	engine, err := maitre.New(table, reg)
	require.NoError(t, err)

	ctx := context.Background()
	conv, prompt, err := engine.Start(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Name?", prompt.Body)

	result, err := engine.ProcessTurn(ctx, conv, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice!", result.Prompt.Body)
	assert.True(t, result.Terminal)
}

func TestEngine_WithMetrics(t *testing.T) {
	table, reg := newFacadeTable(t)
	registerer := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registerer)

	engine, err := maitre.New(table, reg, maitre.WithMetrics(metrics))
	require.NoError(t, err)

	ctx := context.Background()
	conv, _, err := engine.Start(ctx, "user-1")
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, conv, "   ")
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, conv, "Alice")
	require.NoError(t, err)

	families, err := registerer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["maitre_turns_total"], "turn counter not collected: %v", names)
	assert.True(t, names["maitre_validation_failures_total"], "failure counter not collected: %v", names)
}

func TestEngine_WithEntryState(t *testing.T) {
	table, reg := newFacadeTable(t)
	engine, err := maitre.New(table, reg, maitre.WithEntryState("DONE"))
	require.NoError(t, err)

	conv, _, err := engine.Start(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "DONE", conv.Current)
	assert.Equal(t, "DONE", engine.EntryState())
}

func TestEngine_Inspect(t *testing.T) {
	table, reg := newFacadeTable(t)
	engine, err := maitre.New(table, reg)
	require.NoError(t, err)

	states := engine.Inspect()
	require.Len(t, states, 2)
	assert.Equal(t, "INIT", states[0].ID)
}
