package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	coreapp "loadscript/internal/core/app"
)

func runUI(ctx context.Context, app *coreapp.App) error {
	m := initialModel(app.Root, app.History())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{update: update})
	})
	defer app.SetUpdateHandler(nil)

	go func() {
		p.Send(updateMsg{update: app.CurrentUpdate()})
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
