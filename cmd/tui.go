package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tcgtrack/internal/shared"
	"github.com/desertthunder/tcgtrack/internal/ui"
)

// tuiCommand returns the top-level TUI command for browsing the collection.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the collection interactively",
		Action:  r.TUI,
	}
}

// TUI launches the interactive collection browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logFile := r.config.Log.File
	if logFile == "" {
		logFile = "tcgtrack.log"
	}
	fileLogger, f, err := shared.NewFileLogger(logFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())

	if err := r.SetLogger(shared.WithLogger(fileLogger, "component", "tui")); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.viewModel(), ui.ModelOpts{Logger: r.logger})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
