// Package tui renders prompts for the interactive chat command.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour,
// auto-detecting the terminal background.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PromptMarkdown converts a rendered prompt into the markdown shown in
// the chat REPL. Options become a bullet list with the reply token in
// bold, mirroring how the WhatsApp transport degrades them.
func PromptMarkdown(p domain.RenderedPrompt) string {
	if len(p.Options) == 0 {
		return p.Body
	}
	var b strings.Builder
	b.WriteString(p.Body)
	b.WriteString("\n")
	for _, opt := range p.Options {
		fmt.Fprintf(&b, "\n- %s: reply **%s**", opt.Label, opt.Token)
	}
	return b.String()
}
