package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maitre-bot/maitre/pkg/domain"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render produces the prompt for a conversation's current state without
// advancing it.
func (e *Engine) Render(conv *domain.Conversation) (domain.RenderedPrompt, error) {
	def, err := e.table.Lookup(conv.Current)
	if err != nil {
		return domain.RenderedPrompt{}, err
	}
	return e.renderPrompt(def, conv.Context), nil
}

// renderPrompt produces the outbound message for a state using the given
// (post-callback) context.
func (e *Engine) renderPrompt(def *domain.State, convCtx map[string]any) domain.RenderedPrompt {
	if def.Template != nil {
		return domain.RenderedPrompt{
			Kind:    def.Template.Kind,
			Body:    e.interpolate(def.Template.Body, convCtx, def.ID),
			Options: def.Template.Options,
		}
	}
	return domain.RenderedPrompt{
		Kind: domain.TemplateText,
		Body: e.interpolate(def.Prompt, convCtx, def.ID),
	}
}

// renderReprompt produces the validation-failure message for a state.
// Options are carried through so transports can re-offer buttons.
func (e *Engine) renderReprompt(def *domain.State, convCtx map[string]any) domain.RenderedPrompt {
	msg := def.ValidationMessage
	if msg == "" {
		msg = DefaultValidationMessage
	}
	prompt := domain.RenderedPrompt{
		Kind: domain.TemplateText,
		Body: e.interpolate(msg, convCtx, def.ID),
	}
	if def.Template != nil && len(def.Template.Options) > 0 {
		prompt.Kind = def.Template.Kind
		prompt.Options = def.Template.Options
	}
	return prompt
}

// interpolate substitutes {field} placeholders from the context. A missing
// key renders empty and logs a warning: context completeness depends on
// prior-turn success, which the engine cannot guarantee against host bugs,
// so substitution must never crash a turn.
func (e *Engine) interpolate(text string, convCtx map[string]any, stateID string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := convCtx[key]
		if !ok {
			e.logger.Warn("prompt placeholder missing from context",
				"state", stateID, "placeholder", key)
			return ""
		}
		return formatValue(value)
	})
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
