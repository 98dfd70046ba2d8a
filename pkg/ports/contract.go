package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// RunConversationStoreContract verifies that a ConversationStore
// implementation adheres to the interface contract. Adapter test suites
// call it against their concrete store.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	convID := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		conv := domain.NewConversation(convID, "INIT")
		conv.Context["companyName"] = "Acme Foods"
		conv.Context["yearsActive"] = 12

		require.NoError(t, store.Save(ctx, conv))

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, conv.Current, loaded.Current)
		assert.Equal(t, "Acme Foods", loaded.Context["companyName"])
		// JSON-backed stores may round integers through float64; only
		// presence is part of the contract.
		assert.NotNil(t, loaded.Context["yearsActive"])
		assert.Equal(t, []string{"INIT"}, loaded.History)
	})

	t.Run("Load isolates the stored snapshot", func(t *testing.T) {
		conv := domain.NewConversation(convID+"-iso", "INIT")
		require.NoError(t, store.Save(ctx, conv))

		first, err := store.Load(ctx, conv.ID)
		require.NoError(t, err)
		first.Context["mutated"] = true

		second, err := store.Load(ctx, conv.ID)
		require.NoError(t, err)
		assert.NotContains(t, second.Context, "mutated")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewConversation(convID, "INIT")))
		require.NoError(t, store.Delete(ctx, convID))

		_, err := store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("List", func(t *testing.T) {
		a := domain.NewConversation(convID+"-a", "INIT")
		b := domain.NewConversation(convID+"-b", "INIT")
		require.NoError(t, store.Save(ctx, a))
		require.NoError(t, store.Save(ctx, b))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, a.ID)
		assert.Contains(t, ids, b.ID)
	})
}
