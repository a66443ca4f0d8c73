package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"taskseek/internal/interaction"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// stdinSource feeds the interaction loop from the terminal. "exit" and
// "quit" end the session.
type stdinSource struct {
	reader *bufio.Reader
}

func (s *stdinSource) Next(ctx context.Context) (string, error) {
	fmt.Print(promptStyle.Render(">>> ") + " ")

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "exit", "quit":
		return "", io.EOF
	}
	return line, nil
}

// runInteractive drives the chat loop until the user exits or the context is
// cancelled.
func runInteractive(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	fmt.Println(agentStyle.Render("taskseek " + a.cfg.Version))
	fmt.Println(dimStyle.Render("Type a query, or \"exit\" to quit."))
	fmt.Println()

	source := &stdinSource{reader: bufio.NewReader(os.Stdin)}
	return a.loop.Run(ctx, source, func(c interaction.Cycle) {
		printCycle(renderer, c)
	})
}

// printCycle renders one completed cycle to the terminal.
func printCycle(renderer *glamour.TermRenderer, c interaction.Cycle) {
	fmt.Println(dimStyle.Render(fmt.Sprintf("[%s]", c.AgentName)))

	if !c.Result.Success && strings.HasPrefix(c.Result.Answer, "error:") {
		fmt.Println(errorStyle.Render(c.Result.Answer))
		fmt.Println()
		return
	}

	out, err := renderer.Render(c.Result.Answer)
	if err != nil {
		out = c.Result.Answer + "\n"
	}
	fmt.Print(out)
}
