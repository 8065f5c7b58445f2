// Package preview is the interactive terminal view of the active vibe and the
// text adapted to its voice.
package preview

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/morph"
)

// Config wires a Model to its collaborators.
type Config struct {
	Coordinator *coordinator.Coordinator
	Text        *morph.Text
	Unicode     bool
}

// Model is the Bubble Tea state of the preview.
type Model struct {
	ctx     context.Context
	coord   *coordinator.Coordinator
	text    *morph.Text
	changed chan struct{}
	unsubs  []func()

	// Mirrors of the observed state, refreshed on ChangedMsg.
	snapshot coordinator.Snapshot
	buffer   morph.Buffer

	// Component state
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	focus    Focus

	status     string
	statusErr  bool
	pending    int
	width      int
	height     int
	useUnicode bool
}

// NewModel creates a preview model and subscribes it to cfg's coordinator and
// text. Call Close once the program has exited.
func NewModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Describe a vibe, e.g. dark hacker terminal"
	input.Prompt = "› "
	input.CharLimit = 280
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	vp := viewport.New(76, 10)

	m := Model{
		ctx:        ctx,
		coord:      cfg.Coordinator,
		text:       cfg.Text,
		changed:    make(chan struct{}, 1),
		input:      input,
		spinner:    s,
		viewport:   vp,
		focus:      FocusInput,
		width:      80,
		height:     24,
		useUnicode: cfg.Unicode,
	}
	if !m.useUnicode {
		m.input.Prompt = "> "
	}

	notify := func() {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	}
	m.unsubs = append(m.unsubs, m.coord.Subscribe(func(coordinator.Snapshot) { notify() }))
	if m.text != nil {
		m.unsubs = append(m.unsubs, m.text.Subscribe(func(morph.Buffer) { notify() }))
	}

	m.refresh()
	return m
}

// Init starts the spinner, the cursor blink and the change listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForChangeCmd(m.ctx, m.changed),
	)
}

// Close drops the subscriptions made by NewModel.
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
}

// Snapshot returns the coordinator state the view was last rendered from.
func (m Model) Snapshot() coordinator.Snapshot {
	return m.snapshot
}

// Buffer returns the text state the view was last rendered from.
func (m Model) Buffer() morph.Buffer {
	return m.buffer
}

// Focus reports which pane has focus.
func (m Model) Focus() Focus {
	return m.focus
}

// Pending is the number of theme requests this view is still waiting on.
func (m Model) Pending() int {
	return m.pending
}

// Status returns the transient status line.
func (m Model) Status() string {
	return m.status
}

func (m *Model) refresh() {
	m.snapshot = m.coord.Snapshot()
	if m.text != nil {
		m.buffer = m.text.Snapshot()
	}
	m.viewport.SetContent(m.renderText())
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	if f == FocusInput {
		m.input.Focus()
		return
	}
	m.input.Blur()
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
