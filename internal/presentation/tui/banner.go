package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when a session starts.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String(`                           _   `).Foreground(p.Color("#818cf8"))
	s2 := termenv.String(` _ __ ___   ___   ___ | |_ `).Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("| '_ ` _ \\ / _ \\ / _ \\| __|").Foreground(p.Color("#c084fc"))
	s4 := termenv.String(`| | | | | | (_) | (_) | |_ `).Foreground(p.Color("#e879f9"))
	s5 := termenv.String(`|_| |_| |_|\___/ \___/ \__|`).Foreground(p.Color("#f472b6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}

// Score renders a score with a severity color.
func Score(score int) string {
	p := termenv.ColorProfile()
	var color string
	switch {
	case score >= 80:
		color = "#22c55e"
	case score >= 50:
		color = "#eab308"
	default:
		color = "#ef4444"
	}
	return termenv.String(fmt.Sprintf("%d%%", score)).Foreground(p.Color(color)).Bold().String()
}
