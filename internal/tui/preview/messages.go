package preview

import (
	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/morph"
)

// Focus determines which pane receives key presses.
type Focus int

const (
	FocusInput Focus = iota
	FocusText
)

// ChangedMsg is sent when the coordinator or the text published a new state.
// The model re-reads both snapshots, so bursts of changes collapse into one.
type ChangedMsg struct{}

// OutcomeMsg carries the end of a theme change request.
type OutcomeMsg struct {
	Description string
	Outcome     coordinator.Outcome
}

// RewriteMsg carries the end of a manual rewrite.
type RewriteMsg struct {
	Result morph.Result
}

// ClearStatusMsg requests status line dismissal.
type ClearStatusMsg struct{}
