package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/registry"
	"github.com/maitre-bot/maitre/pkg/schema"
)

func TestNew(t *testing.T) {
	t.Run("Rejects Duplicate IDs", func(t *testing.T) {
		_, err := flow.New(
			domain.State{ID: "A", Prompt: "a"},
			domain.State{ID: "A", Prompt: "again"},
		)
		assert.ErrorContains(t, err, "duplicate state id")
	})

	t.Run("Rejects Empty ID", func(t *testing.T) {
		_, err := flow.New(domain.State{Prompt: "anonymous"})
		assert.ErrorContains(t, err, "empty id")
	})

	t.Run("Preserves Registration Order", func(t *testing.T) {
		table, err := flow.New(
			domain.State{ID: "B", Prompt: "b"},
			domain.State{ID: "A", Prompt: "a"},
		)
		require.NoError(t, err)

		states := table.States()
		require.Len(t, states, 2)
		assert.Equal(t, "B", states[0].ID)
		assert.Equal(t, "A", states[1].ID)
	})
}

func TestTable_Lookup(t *testing.T) {
	table, err := flow.New(domain.State{ID: "A", Prompt: "a"})
	require.NoError(t, err)

	s, err := table.Lookup("A")
	require.NoError(t, err)
	assert.Equal(t, "A", s.ID)

	_, err = table.Lookup("MISSING")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownState)

	var unknownErr *domain.UnknownStateError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "MISSING", unknownErr.ID)
}

func TestTable_Validate(t *testing.T) {
	valid := func() []domain.State {
		return []domain.State{
			{
				ID:        "A",
				Prompt:    "a",
				Validator: schema.Schema{"v": schema.String()},
				Next:      map[domain.Token]string{domain.TokenOK: "B"},
			},
			{ID: "B", Prompt: "b"},
		}
	}

	t.Run("Accepts Valid Table", func(t *testing.T) {
		table, err := flow.New(valid()...)
		require.NoError(t, err)
		assert.NoError(t, table.Validate(nil))
	})

	t.Run("Rejects Dangling Next Target", func(t *testing.T) {
		states := valid()
		states[0].Next[domain.TokenOK] = "NOWHERE"
		table, err := flow.New(states...)
		require.NoError(t, err)

		err = table.Validate(nil)
		var unknownErr *domain.UnknownStateError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "NOWHERE", unknownErr.ID)
		assert.Equal(t, "A", unknownErr.ReferencedBy)
	})

	t.Run("Rejects Unreachable Token", func(t *testing.T) {
		states := valid()
		// "aiValid" cannot resolve: state A declares no extraction.
		states[0].Next[domain.TokenAIValid] = "B"
		table, err := flow.New(states...)
		require.NoError(t, err)

		assert.ErrorContains(t, table.Validate(nil), "unreachable")
	})

	t.Run("Rejects Neither Prompt Nor Template", func(t *testing.T) {
		table, err := flow.New(domain.State{ID: "A"})
		require.NoError(t, err)
		assert.ErrorContains(t, table.Validate(nil), "neither prompt nor template")
	})

	t.Run("Rejects Both Prompt And Template", func(t *testing.T) {
		table, err := flow.New(domain.State{
			ID:       "A",
			Prompt:   "a",
			Template: &domain.Template{Kind: domain.TemplateText, Body: "a"},
		})
		require.NoError(t, err)
		assert.ErrorContains(t, table.Validate(nil), "both prompt and template")
	})

	t.Run("Rejects Transitions Without Input Path", func(t *testing.T) {
		table, err := flow.New(
			domain.State{
				ID:     "A",
				Prompt: "a",
				Next:   map[domain.Token]string{domain.TokenOK: "B"},
			},
			domain.State{ID: "B", Prompt: "b"},
		)
		require.NoError(t, err)
		assert.Error(t, table.Validate(nil))
	})

	t.Run("Rejects Unknown Callback", func(t *testing.T) {
		states := valid()
		states[0].Callback = "not_registered"
		table, err := flow.New(states...)
		require.NoError(t, err)

		err = table.Validate(registry.New())
		assert.ErrorIs(t, err, domain.ErrUnknownCallback)
	})

	t.Run("Nil Registry Skips Callback Checks", func(t *testing.T) {
		states := valid()
		states[0].Callback = "not_registered"
		table, err := flow.New(states...)
		require.NoError(t, err)
		assert.NoError(t, table.Validate(nil))
	})
}
