package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/schema"
)

func TestState_AcceptedTokens(t *testing.T) {
	s := domain.State{
		ID: "FULL",
		Template: &domain.Template{
			Kind:    domain.TemplateButton,
			Body:    "pick",
			Options: []domain.Option{{Label: "A", Token: "a"}},
		},
		Validator:  schema.Schema{"v": schema.String()},
		Extraction: &domain.Extraction{Instruction: "extract"},
		Skippable:  true,
	}

	assert.ElementsMatch(t,
		[]domain.Token{"a", domain.TokenOK, domain.TokenAIValid, domain.TokenSkip},
		s.AcceptedTokens())

	bare := domain.State{ID: "BARE", Prompt: "bye"}
	assert.Empty(t, bare.AcceptedTokens())
}

func TestState_IsTerminal(t *testing.T) {
	terminal := domain.State{ID: "DONE", Prompt: "bye"}
	assert.True(t, terminal.IsTerminal())

	// A state with no transitions but a validator holds for an external
	// event; it is not finished.
	holding := domain.State{
		ID:        "WAITING",
		Prompt:    "hold on",
		Validator: schema.Schema{"note": schema.String()},
	}
	assert.False(t, holding.IsTerminal())

	active := domain.State{
		ID:        "ASK",
		Prompt:    "name?",
		Validator: schema.Schema{"name": schema.String()},
		Next:      map[domain.Token]string{domain.TokenOK: "DONE"},
	}
	assert.False(t, active.IsTerminal())
}

func TestState_OptionToken(t *testing.T) {
	s := domain.State{
		ID: "PICK",
		Template: &domain.Template{
			Kind:    domain.TemplateList,
			Body:    "pick",
			Options: []domain.Option{{Label: "Credit card", Token: "credit_card"}},
		},
	}

	token, ok := s.OptionToken("credit_card")
	assert.True(t, ok)
	assert.Equal(t, domain.Token("credit_card"), token)

	// Matching is verbatim on the token, never the label.
	_, ok = s.OptionToken("Credit card")
	assert.False(t, ok)

	plain := domain.State{ID: "PLAIN", Prompt: "hi"}
	_, ok = plain.OptionToken("credit_card")
	assert.False(t, ok)
}

func TestConversation_Clone(t *testing.T) {
	conv := domain.NewConversation("user-1", "INIT")
	conv.Context["name"] = "Alice"

	clone := conv.Clone()
	clone.Context["name"] = "Bob"
	clone.Advance("NEXT")

	assert.Equal(t, "Alice", conv.Context["name"])
	assert.Equal(t, "INIT", conv.Current)
	assert.Equal(t, []string{"INIT"}, conv.History)

	assert.Equal(t, "Bob", clone.Context["name"])
	assert.Equal(t, "NEXT", clone.Current)
	assert.Equal(t, []string{"INIT", "NEXT"}, clone.History)
}
