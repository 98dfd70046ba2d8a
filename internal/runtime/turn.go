package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/schema"
)

// Start creates a fresh conversation at the entry state and renders its
// opening prompt.
func (e *Engine) Start(ctx context.Context, convID string) (*domain.Conversation, domain.RenderedPrompt, error) {
	def, err := e.table.Lookup(e.entryState)
	if err != nil {
		return nil, domain.RenderedPrompt{}, err
	}

	conv := domain.NewConversation(convID, e.entryState)
	e.emitStateEnter(ctx, conv.ID, def.ID, "")
	return conv, e.renderPrompt(def, conv.Context), nil
}

// ProcessTurn interprets one inbound message for a conversation.
//
// Resolution order: a verbatim option-token match always wins, then the
// skip word on skippable states, then AI-assisted extraction when
// declared, then the direct validator. Extraction failures (including
// timeouts and cancellation) fall back to the validator; if every path
// fails the conversation stays put and the result carries the re-prompt
// with ValidationFailed set.
//
// On success the state's callback mutates a cloned context before the
// resolved token is looked up in Next. A token without an entry keeps the
// conversation on the current state, which is how states waiting on an
// external event behave. The outbound prompt is rendered after the new
// state is entered, with the post-callback context, so a just-captured
// value can appear in the very next message.
func (e *Engine) ProcessTurn(ctx context.Context, conv *domain.Conversation, rawInput string) (*domain.TurnResult, error) {
	if conv == nil {
		return nil, fmt.Errorf("nil conversation")
	}

	def, err := e.table.Lookup(conv.Current)
	if err != nil {
		// Configuration bug: abort the turn loudly, no user-facing prompt.
		return nil, err
	}

	trimmed := strings.TrimSpace(rawInput)

	token, value, ok := e.resolveInput(ctx, conv, def, trimmed)
	if !ok {
		e.emitValidationFail(ctx, conv.ID, def.ID, "no accepted input path matched")
		return &domain.TurnResult{
			Conversation:     conv,
			Prompt:           e.renderReprompt(def, conv.Context),
			ValidationFailed: true,
			Terminal:         def.IsTerminal(),
		}, nil
	}

	next := conv.Clone()
	if def.Callback != "" {
		if err := e.callbacks.Apply(def.Callback, next.Context, value); err != nil {
			return nil, fmt.Errorf("callback %q on state %q: %w", def.Callback, def.ID, err)
		}
	}

	result := &domain.TurnResult{Conversation: next, Token: token}

	entered := def
	if target, found := def.Next[token]; found {
		entered, err = e.table.Lookup(target)
		if err != nil {
			return nil, err
		}
		next.Advance(target)
		e.emitStateEnter(ctx, next.ID, target, token)

		if entered.Action != "" {
			result.Action = &domain.ActionRequest{
				Name:           entered.Action,
				IdempotencyKey: e.newIdempotencyKey(),
				Snapshot:       snapshotContext(next.Context),
			}
			e.emitActionEmit(ctx, next.ID, entered.ID, entered.Action)
		}
	} else {
		e.logger.Debug("token has no transition, holding state",
			"conversation", conv.ID, "state", def.ID, "token", token)
	}

	result.Prompt = e.renderPrompt(entered, next.Context)
	result.Terminal = entered.IsTerminal()
	return result, nil
}

// resolveInput runs the resolution ladder and returns the token plus the
// validated value destined for the callback.
func (e *Engine) resolveInput(ctx context.Context, conv *domain.Conversation, def *domain.State, input string) (domain.Token, map[string]any, bool) {
	// A tapped button must never be creatively reinterpreted: verbatim
	// option tokens win over every other path.
	if token, ok := def.OptionToken(input); ok {
		return token, map[string]any{"token": string(token)}, true
	}

	if def.Skippable && strings.EqualFold(input, domain.SkipWord) {
		return domain.TokenSkip, map[string]any{"token": string(domain.TokenSkip)}, true
	}

	if def.Extraction != nil && e.extractor != nil && input != "" {
		extracted, err := e.extractor.Extract(ctx, def.Extraction.Instruction, def.Extraction.Schema, input, conv.Context)
		if err == nil {
			if verr := schema.Validate(def.Extraction.Schema, extracted); verr == nil {
				e.emitExtraction(ctx, conv.ID, def.ID, true)
				return domain.TokenAIValid, extracted, true
			}
			e.logger.Warn("extractor returned value failing its target schema",
				"conversation", conv.ID, "state", def.ID)
		} else {
			e.logger.Debug("extraction failed, falling back to validator",
				"conversation", conv.ID, "state", def.ID, "err", err)
		}
		e.emitExtraction(ctx, conv.ID, def.ID, false)
	}

	if len(def.Validator) > 0 {
		field, err := schema.ValidateValue(def.Validator, input)
		if err == nil {
			return domain.TokenOK, map[string]any{field: input}, true
		}
		e.logger.Debug("validator rejected input",
			"conversation", conv.ID, "state", def.ID, "err", err)
	}

	return "", nil, false
}

// snapshotContext copies the context so the emitted action is immune to
// later turns.
func snapshotContext(convCtx map[string]any) map[string]any {
	snapshot := make(map[string]any, len(convCtx))
	for k, v := range convCtx {
		snapshot[k] = v
	}
	return snapshot
}

func (e *Engine) emitStateEnter(ctx context.Context, convID, stateID string, token domain.Token) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: eventBase(domain.EventStateEnter, convID),
		StateID:   stateID,
		Token:     token,
	})
}

func (e *Engine) emitValidationFail(ctx context.Context, convID, stateID, reason string) {
	if e.hooks.OnValidationFail == nil {
		return
	}
	e.hooks.OnValidationFail(ctx, &domain.ValidationEvent{
		EventBase: eventBase(domain.EventValidationFail, convID),
		StateID:   stateID,
		Reason:    reason,
	})
}

func (e *Engine) emitExtraction(ctx context.Context, convID, stateID string, succeeded bool) {
	if e.hooks.OnExtraction == nil {
		return
	}
	e.hooks.OnExtraction(ctx, &domain.ExtractionEvent{
		EventBase: eventBase(domain.EventExtraction, convID),
		StateID:   stateID,
		Succeeded: succeeded,
	})
}

func (e *Engine) emitActionEmit(ctx context.Context, convID, stateID, action string) {
	if e.hooks.OnActionEmit == nil {
		return
	}
	e.hooks.OnActionEmit(ctx, &domain.ActionEvent{
		EventBase: eventBase(domain.EventActionEmit, convID),
		StateID:   stateID,
		Action:    action,
	})
}

func eventBase(t domain.EventType, convID string) domain.EventBase {
	return domain.EventBase{
		Timestamp:      time.Now(),
		Type:           t,
		ConversationID: convID,
	}
}
