package preview

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/morph"
)

// waitForChangeCmd blocks until a subscription fires or ctx ends.
func waitForChangeCmd(ctx context.Context, changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-changed:
			return ChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// requestThemeCmd asks the coordinator for a new vibe and waits for the outcome.
func requestThemeCmd(ctx context.Context, coord *coordinator.Coordinator, description string) tea.Cmd {
	return func() tea.Msg {
		outcome := <-coord.RequestThemeChange(ctx, description)
		return OutcomeMsg{Description: description, Outcome: outcome}
	}
}

// rewriteCmd re-runs the text adaptation for the current voice.
func rewriteCmd(ctx context.Context, text *morph.Text) tea.Cmd {
	return func() tea.Msg {
		return RewriteMsg{Result: <-text.Rewrite(ctx)}
	}
}
