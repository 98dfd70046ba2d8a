// Package gemini implements the AI-assisted extractor on top of the
// official genai client. It turns a state's extraction instruction and
// target schema into a JSON-mode prompt, and maps every low-confidence or
// malformed outcome to ports.ErrNoExtraction so the engine can fall back
// to direct validation.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/schema"
)

// DefaultModel is used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Extractor implements ports.Extractor via the Gemini API.
type Extractor struct {
	cli      *genai.Client
	model    string
	logger   *slog.Logger
	attempts int
}

// Option configures the Extractor.
type Option func(*Extractor)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(e *Extractor) {
		if model != "" {
			e.model = model
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor. The API key is read from the environment by
// the genai client (GEMINI_API_KEY / GOOGLE_API_KEY).
func New(ctx context.Context, opts ...Option) (*Extractor, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	e := &Extractor{
		cli:      cli,
		model:    DefaultModel,
		logger:   logging.NewNop(),
		attempts: 2,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract implements ports.Extractor. Any outcome that is not a confident,
// schema-conforming value (API errors, timeouts, empty candidates,
// invalid JSON, or an explicit refusal) is returned as ErrNoExtraction.
func (e *Extractor) Extract(ctx context.Context, instruction string, target schema.Schema, input string, convCtx map[string]any) (map[string]any, error) {
	prompt := buildPrompt(instruction, target, input, convCtx)

	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrNoExtraction, ctx.Err())
		}

		resp, err := e.cli.Models.GenerateContent(ctx, e.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(200*(1<<attempt)) * time.Millisecond)
			continue
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = fmt.Errorf("empty model response")
			continue
		}

		text := resp.Candidates[0].Content.Parts[0].Text
		value, perr := parseResult(text)
		if perr != nil {
			e.logger.Debug("extraction result rejected", "err", perr)
			lastErr = perr
			continue
		}
		return value, nil
	}

	return nil, fmt.Errorf("%w: %v", ports.ErrNoExtraction, lastErr)
}

// resultEnvelope is what the model is instructed to return. The explicit
// confident flag keeps "could not extract" distinct from "extracted an
// empty value".
type resultEnvelope struct {
	Confident bool           `json:"confident"`
	Value     map[string]any `json:"value"`
}

func parseResult(text string) (map[string]any, error) {
	var envelope resultEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON from model: %w", err)
	}
	if !envelope.Confident || envelope.Value == nil {
		return nil, fmt.Errorf("model not confident")
	}
	return envelope.Value, nil
}

func buildPrompt(instruction string, target schema.Schema, input string, convCtx map[string]any) string {
	var sb strings.Builder
	sb.WriteString("You extract structured data from a WhatsApp message.\n\n")
	sb.WriteString("Task: ")
	sb.WriteString(instruction)
	sb.WriteString("\n\nExpected fields:\n")

	fields := make([]string, 0, len(target))
	for name := range target {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		fmt.Fprintf(&sb, "  - %s: %s\n", name, target[name].Name())
	}

	if len(convCtx) > 0 {
		if ctxJSON, err := json.Marshal(convCtx); err == nil {
			sb.WriteString("\nConversation context (may disambiguate the message):\n")
			sb.Write(ctxJSON)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nReply with JSON only: {\"confident\": bool, \"value\": {field: value}}.\n")
	sb.WriteString("Set confident=false if the message does not clearly provide the expected fields. Never guess.\n")
	sb.WriteString("\nMessage:\n")
	sb.WriteString(input)
	return sb.String()
}
