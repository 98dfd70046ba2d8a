package onboarding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flows/onboarding"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/schema"
)

// stubExtractor returns a fixed extraction for every call.
func stubExtractor(result map[string]any) ports.Extractor {
	return ports.ExtractorFunc(func(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error) {
		if result == nil {
			return nil, ports.ErrNoExtraction
		}
		return result, nil
	})
}

func newEngine(t *testing.T, opts ...maitre.Option) *maitre.Engine {
	t.Helper()
	table, callbacks, err := onboarding.New()
	require.NoError(t, err)

	engine, err := maitre.New(table, callbacks, opts...)
	require.NoError(t, err)
	return engine
}

func TestOnboarding_TableIsValid(t *testing.T) {
	table, callbacks, err := onboarding.New()
	require.NoError(t, err)
	assert.NoError(t, table.Validate(callbacks))
}

func TestOnboarding_EveryNextTargetExists(t *testing.T) {
	table, _, err := onboarding.New()
	require.NoError(t, err)

	for _, state := range table.States() {
		for token, target := range state.Next {
			assert.Truef(t, table.Has(target),
				"state %s next[%s] -> %s does not exist", state.ID, token, target)
		}
	}
}

func TestOnboarding_LegalID(t *testing.T) {
	engine := newEngine(t)

	t.Run("Valid Nine Digits Advance", func(t *testing.T) {
		conv := domain.NewConversation("u", onboarding.LegalID)
		conv.Context[onboarding.KeyCompanyName] = "Acme Foods"

		result, err := engine.ProcessTurn(context.Background(), conv, "123456789")
		require.NoError(t, err)

		assert.Equal(t, onboarding.RestaurantName, result.Conversation.Current)
		assert.Equal(t, "123456789", result.Conversation.Context[onboarding.KeyLegalID])
	})

	t.Run("Letters Are Rejected", func(t *testing.T) {
		conv := domain.NewConversation("u", onboarding.LegalID)
		conv.Context[onboarding.KeyCompanyName] = "Acme Foods"

		result, err := engine.ProcessTurn(context.Background(), conv, "abc")
		require.NoError(t, err)

		assert.True(t, result.ValidationFailed)
		assert.Equal(t, onboarding.LegalID, result.Conversation.Current)
		assert.NotContains(t, result.Conversation.Context, onboarding.KeyLegalID)
		assert.Equal(t, "A legal ID is exactly 9 digits. Please check and try again.", result.Prompt.Body)
	})
}

func TestOnboarding_InitOptionToken(t *testing.T) {
	// A declared option token resolves directly, without validator or AI.
	engine := newEngine(t, maitre.WithExtractor(stubExtractor(nil)))

	conv := domain.NewConversation("u", onboarding.Init)
	result, err := engine.ProcessTurn(context.Background(), conv, "new_restaurant")
	require.NoError(t, err)

	assert.Equal(t, domain.Token("new_restaurant"), result.Token)
	assert.Equal(t, onboarding.CompanyName, result.Conversation.Current)
}

func TestOnboarding_SupplierCategoryExtraction(t *testing.T) {
	engine := newEngine(t, maitre.WithExtractor(stubExtractor(
		map[string]any{"category": []any{"vegetables", "fish"}},
	)))

	conv := domain.NewConversation("u", onboarding.SupplierCategory)
	result, err := engine.ProcessTurn(context.Background(), conv, "ירקות, דגים")
	require.NoError(t, err)

	assert.Equal(t, domain.TokenAIValid, result.Token)
	assert.Equal(t, onboarding.SupplierContact, result.Conversation.Current)
	assert.Equal(t, []any{"vegetables", "fish"}, result.Conversation.Context[onboarding.KeySupplierCategories])
}

func TestOnboarding_SupplierCategoryWithoutExtractorHolds(t *testing.T) {
	// No extractor configured: extraction-only states cannot advance on
	// free text, and the context stays untouched.
	engine := newEngine(t)

	conv := domain.NewConversation("u", onboarding.SupplierCategory)
	result, err := engine.ProcessTurn(context.Background(), conv, "vegetables and fish")
	require.NoError(t, err)

	assert.True(t, result.ValidationFailed)
	assert.Equal(t, onboarding.SupplierCategory, result.Conversation.Current)
	assert.Empty(t, result.Conversation.Context)
}

func TestOnboarding_FinalizeSupplier(t *testing.T) {
	engine := newEngine(t)

	conv := domain.NewConversation("u", onboarding.SuppliersAdditional)
	conv.Context[onboarding.KeySupplierName] = "Green Farm"
	conv.Context[onboarding.KeySupplierWhatsapp] = "+972501234567"
	conv.Context[onboarding.KeySupplierCategories] = []any{"vegetables"}
	conv.Context[onboarding.KeySupplierReminders] = map[string]any{
		"days": []any{"sunday", "wednesday"},
		"hour": 14,
	}
	conv.Context[onboarding.KeySupplierProducts] = []any{"tomatoes", "cucumbers"}

	result, err := engine.ProcessTurn(context.Background(), conv, "add_supplier")
	require.NoError(t, err)

	assert.Equal(t, onboarding.SupplierCategory, result.Conversation.Current)

	// The completed supplier moved into the list.
	list, ok := result.Conversation.Context[onboarding.KeySuppliersList].([]onboarding.Supplier)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "Green Farm", list[0].Name)
	assert.Equal(t, "+972501234567", list[0].Whatsapp)
	assert.Equal(t, []string{"vegetables"}, list[0].Categories)
	assert.Equal(t, []string{"sunday", "wednesday"}, list[0].Reminders.Days)
	assert.Equal(t, 14, list[0].Reminders.Hour)
	assert.Equal(t, []string{"tomatoes", "cucumbers"}, list[0].Products)

	// Transient keys are cleared for the next supplier.
	for _, key := range []string{
		onboarding.KeySupplierName, onboarding.KeySupplierWhatsapp,
		onboarding.KeySupplierCategories, onboarding.KeySupplierReminders,
		onboarding.KeySupplierProducts,
	} {
		assert.NotContains(t, result.Conversation.Context, key)
	}
}

func TestOnboarding_WaitingForPaymentHolds(t *testing.T) {
	engine := newEngine(t)

	conv := domain.NewConversation("u", onboarding.WaitingForPayment)
	result, err := engine.ProcessTurn(context.Background(), conv, "did it go through?")
	require.NoError(t, err)

	assert.False(t, result.ValidationFailed)
	assert.Equal(t, onboarding.WaitingForPayment, result.Conversation.Current)
	assert.False(t, result.Terminal)
}

func TestOnboarding_PaymentMethodEmitsCreateRestaurant(t *testing.T) {
	engine := newEngine(t)

	// Entering PaymentMethod from the email step emits the restaurant
	// creation action with the accumulated company details.
	conv := domain.NewConversation("u", onboarding.ContactEmail)
	conv.Context[onboarding.KeyCompanyName] = "Acme Foods"
	conv.Context[onboarding.KeyRestaurantName] = "Chez Acme"
	conv.Context[onboarding.KeyContactName] = "Dana"

	result, err := engine.ProcessTurn(context.Background(), conv, "dana@example.com")
	require.NoError(t, err)

	assert.Equal(t, onboarding.PaymentMethod, result.Conversation.Current)
	require.NotNil(t, result.Action)
	assert.Equal(t, onboarding.ActionCreateRestaurant, result.Action.Name)
	assert.Equal(t, "Acme Foods", result.Action.Snapshot[onboarding.KeyCompanyName])
	assert.Equal(t, "dana@example.com", result.Action.Snapshot[onboarding.KeyContactEmail])
}

func TestOnboarding_SkipEmail(t *testing.T) {
	engine := newEngine(t)

	conv := domain.NewConversation("u", onboarding.ContactEmail)
	conv.Context[onboarding.KeyRestaurantName] = "Chez Acme"

	result, err := engine.ProcessTurn(context.Background(), conv, "skip")
	require.NoError(t, err)

	assert.Equal(t, domain.TokenSkip, result.Token)
	assert.Equal(t, onboarding.PaymentMethod, result.Conversation.Current)
	assert.NotContains(t, result.Conversation.Context, onboarding.KeyContactEmail)
}

func TestOnboarding_FullHappyPath(t *testing.T) {
	extractions := map[string]map[string]any{
		onboarding.SupplierCategory: {"category": []any{"vegetables"}},
		onboarding.SupplierContact:  {"name": "Green Farm", "whatsapp": "+972501234567"},
		onboarding.SupplierReminders: {
			"days": []any{"sunday"}, "hour": "14",
		},
		onboarding.SupplierProducts: {"products": []any{"tomatoes"}},
	}

	var current string
	engine := newEngine(t, maitre.WithExtractor(
		ports.ExtractorFunc(func(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error) {
			if result, ok := extractions[current]; ok {
				return result, nil
			}
			return nil, ports.ErrNoExtraction
		})))

	conv, _, err := engine.Start(context.Background(), "u")
	require.NoError(t, err)

	steps := []struct {
		input string
		want  string
	}{
		{"new_restaurant", onboarding.CompanyName},
		{"Acme Foods", onboarding.LegalID},
		{"123456789", onboarding.RestaurantName},
		{"Chez Acme", onboarding.YearsActive},
		{"3", onboarding.ContactName},
		{"Dana", onboarding.ContactEmail},
		{"skip", onboarding.PaymentMethod},
		{"credit_card", onboarding.WaitingForPayment},
	}
	for _, step := range steps {
		current = conv.Current
		result, err := engine.ProcessTurn(context.Background(), conv, step.input)
		require.NoError(t, err, "input %q at %s", step.input, conv.Current)
		require.Falsef(t, result.ValidationFailed, "input %q rejected at %s", step.input, conv.Current)
		require.Equal(t, step.want, result.Conversation.Current)
		conv = result.Conversation
	}

	// Payment webhook moves the held conversation forward.
	conv.Advance(onboarding.SetupStart)

	setup := []struct {
		input string
		want  string
	}{
		{"add_supplier", onboarding.SupplierCategory},
		{"vegetables please", onboarding.SupplierContact},
		{"Green Farm +972501234567", onboarding.SupplierReminders},
		{"sunday at 14", onboarding.SupplierProducts},
		{"tomatoes", onboarding.SuppliersAdditional},
		{"finish_setup", onboarding.SetupFinished},
	}
	var last *domain.TurnResult
	for _, step := range setup {
		current = conv.Current
		result, err := engine.ProcessTurn(context.Background(), conv, step.input)
		require.NoError(t, err, "input %q at %s", step.input, conv.Current)
		require.Falsef(t, result.ValidationFailed, "input %q rejected at %s", step.input, conv.Current)
		require.Equal(t, step.want, result.Conversation.Current)
		conv = result.Conversation
		last = result
	}

	require.NotNil(t, last.Action)
	assert.Equal(t, onboarding.ActionCompleteOnboarding, last.Action.Name)
	assert.True(t, last.Terminal)

	list, ok := conv.Context[onboarding.KeySuppliersList].([]onboarding.Supplier)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "Green Farm", list[0].Name)
}
