package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	coreapp "czar/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI shows the dashboard while the watcher rebuilds in the background.
// Quitting the dashboard stops the watcher.
func runUI(ctx context.Context, app *coreapp.App, paths []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(paths), tea.WithAltScreen(), tea.WithContext(ctx))
	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{update: update, at: time.Now()})
	})

	go func() {
		p.Send(updateMsg{update: app.CurrentUpdate(), at: time.Now()})
	}()

	done := make(chan error, 1)
	go func() {
		done <- app.Watch(ctx, paths, nil)
	}()

	_, err := p.Run()
	cancel()
	if werr := <-done; werr != nil {
		slog.Error("watch failed", "error", werr)
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
