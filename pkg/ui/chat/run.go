package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PromptFunc submits one message to the running relay and returns the
// analysis text.
type PromptFunc func(ctx context.Context, message string) (string, error)

// Run starts the interactive terminal session against a running relay.
func Run(ctx context.Context, serverURL string, promptFn PromptFunc) error {
	model := newModel(ctx, promptFn, serverURL)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("25")).
		Padding(1, 2)

	return style.Render("🛡️ Grazie per aver usato Sentinella")
}
