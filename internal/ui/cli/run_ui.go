package cli

import (
	"context"
	"errors"
	"time"

	coreapp "umlc/internal/core/app"
	"umlc/internal/data/history"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App) error {
	var loadTrend trendLoader
	if app.History() != nil {
		loadTrend = func(path string) (history.TrendReport, error) {
			trendCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return app.TrendReport(trendCtx, path, 24*time.Hour)
		}
	}

	p := tea.NewProgram(initialModel(loadTrend), tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{update: update})
	})

	go p.Send(updateMsg{update: app.CurrentUpdate()})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
