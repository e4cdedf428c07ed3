package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clipdeck/clipdeck/internal/perf"
)

type scrollSettledMsg time.Time

// scrollSettleTick redraws once the scroll velocity has decayed so the
// overscan shrinks back to its base size.
func scrollSettleTick() tea.Cmd {
	return tea.Tick(perf.VelocityDecay+20*time.Millisecond, func(t time.Time) tea.Msg {
		return scrollSettledMsg(t)
	})
}
