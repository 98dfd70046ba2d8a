package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/internal/presentation/tui"
	"github.com/maitre-bot/maitre/pkg/adapters/gemini"
	"github.com/maitre-bot/maitre/pkg/adapters/memory"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive conversation in the terminal",
	Long: `Drives the flow locally with an in-memory store, replacing the WhatsApp
transport with a terminal REPL. Useful for authoring and debugging flows.

If a Gemini API key is configured, AI-assisted extraction works exactly
as it would in production.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := buildLogger(cmd)

		var engineOpts []maitre.Option
		if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
			extractor, err := gemini.New(cmd.Context(),
				gemini.WithModel(os.Getenv("GEMINI_MODEL")),
				gemini.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("failed to initialize extractor: %w", err)
			}
			engineOpts = append(engineOpts, maitre.WithExtractor(extractor))
		}

		engine, err := buildEngine(cmd, logger, engineOpts...)
		if err != nil {
			return err
		}

		sessions := session.NewManager(engine, memory.NewStore(), session.WithLogger(logger))
		render := tui.NewRenderer()

		tui.PrintBanner()

		const convID = "local"
		result, err := sessions.Handle(cmd.Context(), convID, "")
		if err != nil {
			return err
		}
		printPrompt(render, result.Prompt)

		reader := bufio.NewReader(os.Stdin)
		for {
			if result.Terminal {
				fmt.Println("Conversation finished.")
				return nil
			}

			fmt.Print("> ")
			text, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println()
				return nil
			}
			input := strings.TrimSpace(text)
			if input == "exit" || input == "quit" {
				fmt.Println("Bye!")
				return nil
			}

			result, err = sessions.Handle(cmd.Context(), convID, input)
			if err != nil {
				return err
			}
			if result.Action != nil {
				fmt.Printf("[action] %s (key %s)\n", result.Action.Name, result.Action.IdempotencyKey)
			}
			printPrompt(render, result.Prompt)
		}
	},
}

func printPrompt(render func(string) (string, error), p domain.RenderedPrompt) {
	out, err := render(tui.PromptMarkdown(p))
	if err != nil {
		fmt.Println(p.Body)
		return
	}
	fmt.Print(out)
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
