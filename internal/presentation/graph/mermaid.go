package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
)

// Overlay contains dynamic conversation data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// Mermaid produces a Mermaid flowchart from a flow table. Shapes carry
// semantics:
//   - entry state: ((circle))
//   - state with an action: [[subroutine]]
//   - state with tappable options: [/parallelogram/]
//   - everything else: [rectangle]
//
// Edges are labeled with the resolution token that drives them. Visited
// and current overlay styles are applied if provided.
func Mermaid(table *flow.Table, entryState string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range table.States() {
		safeID := sanitizeMermaidID(state.ID)

		opener, closer := "[", "]"
		switch {
		case state.ID == entryState:
			opener, closer = "((", "))"
		case state.Action != "":
			opener, closer = "[[", "]]"
		case state.HasOptions():
			opener, closer = "[/", "/]"
		}

		label := state.ID
		if state.Action != "" {
			label = fmt.Sprintf("%s <br/> ⚙ %s", state.ID, state.Action)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		// Deterministic edge order regardless of map iteration.
		tokens := make([]string, 0, len(state.Next))
		for token := range state.Next {
			tokens = append(tokens, string(token))
		}
		sort.Strings(tokens)

		for _, token := range tokens {
			safeTo := sanitizeMermaidID(state.Next[domain.Token(token)])
			arrow := fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(token, "\"", "'"))
			if domain.Token(token) == domain.TokenSkip {
				arrow = fmt.Sprintf("-. \"%s\" .->", token)
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}

		// Holding states wait on an external event and loop on themselves.
		if len(state.Next) == 0 && !state.IsTerminal() {
			sb.WriteString(fmt.Sprintf("    %s -. \"⏳ external event\" .-> %s\n", safeID, safeID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentState != "" {
			safeCurrent := sanitizeMermaidID(overlay.CurrentState)
			sb.WriteString(fmt.Sprintf("    class %s current;\n", safeCurrent))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
