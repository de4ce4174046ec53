package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/uus/internal/shared"
	"github.com/desertthunder/uus/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()

	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	cat, err := r.catalog()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, cat, cmd.String("user"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
