package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clipdeck/clipdeck/internal/bridge"
	"github.com/clipdeck/clipdeck/internal/infra/logger"
)

// Start runs the history browser until the user quits.
func Start(b *bridge.Bridge) error {
	model := NewHistoryModel(b, logger.L())
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	model.deletes.OnError(func(ids []int64, err error) {
		p.Send(deleteFailedMsg{ids: ids, err: err})
	})

	if _, err := p.Run(); err != nil {
		logger.Error("Error running history browser", logger.Err(err))
		return fmt.Errorf("history browser: %w", err)
	}
	return nil
}
