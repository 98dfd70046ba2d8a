package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the chat command.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Warm gradient (amber to rose), à la maison.
	s1 := termenv.String(`                  _ _            `).Foreground(p.Color("#fbbf24"))
	s2 := termenv.String(` _ __ ___   __ _(_) |_ _ __ ___ `).Foreground(p.Color("#f59e0b"))
	s3 := termenv.String("| '_ ` _ \\ / _` | | __| '__/ _ \\").Foreground(p.Color("#f97316"))
	s4 := termenv.String(`| | | | | | (_| | | |_| | |  __/`).Foreground(p.Color("#f43f5e"))
	s5 := termenv.String(`|_| |_| |_|\__,_|_|\__|_|  \___|`).Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
