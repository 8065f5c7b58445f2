package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/morph"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
)

var readingModeKeys = map[string]string{
	"s": "simple",
	"e": "expert",
	"v": "visual",
}

// Update handles incoming messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ApplyMaxWidth(m.width)
		m.viewport.Width = max(m.width-4, 20)
		m.viewport.Height = max(m.height-headerLines, 3)
		m.input.Width = max(m.width-8, 10)
		m.viewport.SetContent(m.renderText())
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ChangedMsg:
		m.refresh()
		return m, waitForChangeCmd(m.ctx, m.changed)

	case OutcomeMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.handleOutcome(msg)
		return m, nil

	case RewriteMsg:
		switch msg.Result.Status {
		case morph.StatusFailed:
			m.setStatus("Rewrite failed, showing the original text", true)
		case morph.StatusCompleted:
			m.setStatus("Text rewritten", false)
		case morph.StatusPassthrough:
			m.setStatus("Neutral voice, showing the original text", false)
		}
		return m, nil

	case ClearStatusMsg:
		m.setStatus("", false)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleOutcome(msg OutcomeMsg) {
	switch msg.Outcome.Status {
	case coordinator.StatusApplied:
		m.setStatus(fmt.Sprintf("Applied %q", msg.Outcome.Vibe.ThemeName), false)
	case coordinator.StatusFailed:
		m.setStatus(fmt.Sprintf("Could not generate %q", msg.Description), true)
	case coordinator.StatusSuperseded:
		if m.pending == 0 && m.status == "" {
			m.setStatus("Request replaced by a newer change", false)
		}
	}
}

// handleKeyPress routes keys to the focused pane.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == FocusInput {
			m.setFocus(FocusText)
		} else {
			m.setFocus(FocusInput)
		}
		return m, nil
	}

	if m.focus == FocusInput {
		return m.handleInputKeys(msg)
	}
	return m.handleTextKeys(msg)
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		description := strings.TrimSpace(m.input.Value())
		if description == "" {
			return m, nil
		}
		m.input.Reset()
		return m.startRequest(description)

	case "esc":
		m.setFocus(FocusText)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleTextKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		entries := m.coord.Registry().Entries()
		index := int(key[0] - '1')
		if index >= len(entries) {
			return m, nil
		}
		if m.coord.ApplyPreset(entries[index].Key) {
			m.setStatus(fmt.Sprintf("Applied preset %s", entries[index].Vibe.ThemeName), false)
		}
		m.refresh()
		return m, nil

	case "s", "e", "v":
		mode, ok := presets.ReadingModeByID(readingModeKeys[key])
		if !ok {
			return m, nil
		}
		return m.startRequest(mode.Prompt)

	case "r":
		m.coord.ResetToDefault()
		m.setStatus("Reset to the default vibe", false)
		m.refresh()
		return m, nil

	case "w":
		if m.text == nil {
			return m, nil
		}
		m.setStatus("Rewriting…", false)
		return m, tea.Batch(rewriteCmd(m.ctx, m.text), m.spinner.Tick)

	case "a":
		if m.text == nil {
			return m, nil
		}
		m.text.SetAuto(!m.text.Auto())
		if m.text.Auto() {
			m.setStatus("Automatic rewrites on", false)
		} else {
			m.setStatus("Automatic rewrites off, press w to rewrite", false)
		}
		return m, nil

	case "enter", "i":
		m.setFocus(FocusInput)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) startRequest(description string) (tea.Model, tea.Cmd) {
	m.pending++
	m.setStatus("", false)
	return m, tea.Batch(requestThemeCmd(m.ctx, m.coord, description), m.spinner.Tick)
}
