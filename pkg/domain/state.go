package domain

import "github.com/maitre-bot/maitre/pkg/schema"

// Template kinds define how the host should present a prompt.
const (
	// TemplateText is a plain message with no tappable options.
	TemplateText = "text"
	// TemplateButton presents up to three tappable reply buttons.
	TemplateButton = "button"
	// TemplateList presents a scrollable option list.
	TemplateList = "list"
	// TemplateCard presents a rich card with a header and options.
	TemplateCard = "card"
)

// Token is a resolution identifier used to look up the next state.
// It is either an option token declared by a state's template or one of
// the literal tokens below.
type Token string

const (
	// TokenOK resolves a successful direct-validator turn.
	TokenOK Token = "ok"
	// TokenAIValid resolves a successful AI-assisted extraction turn.
	TokenAIValid Token = "aiValid"
	// TokenSkip resolves an explicit skip of an optional question.
	TokenSkip Token = "skip"
)

// SkipWord is the literal reply that resolves to TokenSkip on states
// declaring a skip transition.
const SkipWord = "skip"

// Option is one tappable (label, token) pair offered by a template.
type Option struct {
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Token Token  `json:"token" yaml:"token" mapstructure:"token"`
}

// Template is a structured outbound message. Body may contain {field}
// placeholders resolved from the conversation context.
type Template struct {
	Kind    string   `json:"kind" yaml:"kind" mapstructure:"kind"`
	Body    string   `json:"body" yaml:"body" mapstructure:"body"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// Extraction declares AI-assisted validation for free-text replies that
// need semantic interpretation rather than strict matching.
type Extraction struct {
	// Instruction is the natural-language extraction brief handed to the
	// extractor together with the raw input.
	Instruction string `json:"instruction" yaml:"instruction"`

	// Schema describes the shape the extractor must produce. The engine
	// re-validates extracted values against it before trusting them.
	Schema schema.Schema `json:"-" yaml:"-"`
}

// State is one step of a conversation flow. It is pure data: callbacks are
// referenced by name and resolved through a registry, so a table can be
// loaded from files, diffed, and validated without executing anything.
type State struct {
	// ID uniquely identifies the state. IDs are stable and never reused.
	ID string `json:"id" yaml:"id"`

	// Prompt is the plain-text outbound message. Exactly one of Prompt or
	// Template is set.
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	// Template is the structured outbound message, if any.
	Template *Template `json:"template,omitempty" yaml:"template,omitempty"`

	// Validator checks direct (non-AI) replies. Optional for states whose
	// only valid inputs are their template's option tokens.
	Validator schema.Schema `json:"-" yaml:"-"`

	// Extraction enables the AI-assisted path for free-text replies.
	Extraction *Extraction `json:"extraction,omitempty" yaml:"extraction,omitempty"`

	// Callback names the context mutation to run on a successful turn out
	// of this state. Empty means no mutation.
	Callback string `json:"callback,omitempty" yaml:"callback,omitempty"`

	// Action names a side effect the host must perform after this state is
	// entered. The engine only emits the token; it never executes it.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// ValidationMessage is the re-prompt shown when a reply fails
	// validation. A default is used when empty.
	ValidationMessage string `json:"validation_message,omitempty" yaml:"validation_message,omitempty"`

	// Skippable allows the literal "skip" reply to resolve TokenSkip.
	Skippable bool `json:"skippable,omitempty" yaml:"skippable,omitempty"`

	// Next maps resolution tokens to state IDs. An empty map marks a
	// terminal state. A resolved token with no entry keeps the
	// conversation where it is (states waiting on an external event).
	Next map[Token]string `json:"next,omitempty" yaml:"next,omitempty"`
}

// IsTerminal reports whether the conversation is finished at this state:
// no outgoing transitions and no input path that could ever resolve. A
// state with an empty Next map but a validator (e.g. one waiting on an
// external event) is holding, not terminal.
func (s *State) IsTerminal() bool {
	return len(s.Next) == 0 && len(s.AcceptedTokens()) == 0
}

// HasOptions reports whether the state offers tappable option tokens.
func (s *State) HasOptions() bool {
	return s.Template != nil && len(s.Template.Options) > 0
}

// OptionToken returns the option matching raw verbatim, if any.
func (s *State) OptionToken(raw string) (Token, bool) {
	if s.Template == nil {
		return "", false
	}
	for _, opt := range s.Template.Options {
		if string(opt.Token) == raw {
			return opt.Token, true
		}
	}
	return "", false
}

// AcceptedTokens enumerates every resolution token this state can produce,
// derived from its own declarations. Table validation uses it to reject
// Next entries that no turn could ever reach.
func (s *State) AcceptedTokens() []Token {
	var tokens []Token
	if s.Template != nil {
		for _, opt := range s.Template.Options {
			tokens = append(tokens, opt.Token)
		}
	}
	if len(s.Validator) > 0 {
		tokens = append(tokens, TokenOK)
	}
	if s.Extraction != nil {
		tokens = append(tokens, TokenAIValid)
	}
	if s.Skippable {
		tokens = append(tokens, TokenSkip)
	}
	return tokens
}
