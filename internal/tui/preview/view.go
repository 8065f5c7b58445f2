package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/chameleon/internal/morph"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// headerLines is the height reserved above and below the text pane.
const headerLines = 18

// View renders the current model state.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var content strings.Builder

	content.WriteString(m.renderHeader())
	content.WriteString("\n")
	content.WriteString(m.renderTheme())
	content.WriteString("\n")
	content.WriteString(m.renderPresets())
	content.WriteString("\n\n")
	content.WriteString(m.input.View())
	content.WriteString("\n")
	if line := m.renderStatus(); line != "" {
		content.WriteString(line)
		content.WriteString("\n")
	}
	content.WriteString(m.renderTextPane())
	content.WriteString("\n")
	content.WriteString(m.renderFooter())

	return content.String()
}

func (m Model) renderHeader() string {
	icon := "🦎 "
	if !m.useUnicode {
		icon = ""
	}
	v := m.snapshot.Vibe
	title := titleStyle.Render(icon + "Chameleon")
	name := themeTitleStyle(v.Colors.Primary).Render(v.ThemeName)

	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, title, name))
}

func (m Model) renderTheme() string {
	v := m.snapshot.Vibe
	rows := []string{
		m.renderSwatches(v.Colors),
		m.row("Typography", fmt.Sprintf("%s, %s", v.Typography.FontFamily, v.Typography.BaseSize)),
		m.row("Layout", fmt.Sprintf("%s, radius %s, max %s", v.Layout.Style, orDash(v.Layout.BorderRadius), v.Layout.Style.MaxWidth())),
		m.row("Voice", fmt.Sprintf("%s, %s emoji", v.Voice.Tone, v.Voice.EmojiFrequency)),
		m.row("Contrast", m.renderContrast(v)),
	}

	if mode, ok := presets.ReadingModeByID(presets.ActiveReadingMode(v)); ok {
		label := mode.Label
		if m.useUnicode {
			label = mode.Icon + " " + label
		}
		rows = append(rows, m.row("Reading", label))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func (m Model) renderSwatches(c vibe.Colors) string {
	slots := []struct {
		name string
		hex  string
	}{
		{"primary", c.Primary},
		{"bg", c.Background},
		{"text", c.Text},
		{"accent", c.Accent},
	}

	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		if m.useUnicode {
			parts = append(parts, swatchStyle(slot.hex).Render("")+" "+valueStyle.Render(slot.hex))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", slot.name, slot.hex))
	}
	return m.row("Colors", strings.Join(parts, "  "))
}

func (m Model) renderContrast(v vibe.Vibe) string {
	ratio := vibe.Contrast(v)
	text := fmt.Sprintf("%.1f:1", ratio)
	if v.ReadableContrast() {
		return text + " readable"
	}
	return advisoryStyle.Render(text + " low contrast")
}

func (m Model) renderPresets() string {
	reg := m.coord.Registry()
	activeKey, _ := reg.KeyFor(m.snapshot.Vibe)

	var parts []string
	for i, entry := range reg.Entries() {
		label := fmt.Sprintf("%d %s", i+1, entry.Vibe.ThemeName)
		if entry.Key == activeKey {
			parts = append(parts, activePresetStyle.Render(label))
			continue
		}
		parts = append(parts, presetStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStatus() string {
	switch {
	case m.snapshot.Loading:
		return m.spinner.View() + " Generating theme…"
	case m.snapshot.Error != "":
		return errorBannerStyle.Render(m.snapshot.Error)
	case m.status != "" && m.statusErr:
		return errorBannerStyle.Render(m.status)
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) renderTextPane() string {
	style := textBoxStyle
	if m.focus == FocusText {
		style = focusedTextBoxStyle
	}

	heading := "Preview"
	if m.useUnicode {
		heading = morph.Heading(heading, m.snapshot.Vibe.Voice.EmojiFrequency)
	}
	if m.buffer.Streaming {
		heading += " " + m.spinner.View()
	}
	if m.text != nil && !m.text.Auto() {
		heading += " (manual)"
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(heading), m.viewport.View()))
}

// renderText is the viewport content: the buffer, with a cursor while streaming.
func (m Model) renderText() string {
	text := m.buffer.Text
	if m.buffer.Streaming {
		cursor := "▌"
		if !m.useUnicode {
			cursor = "_"
		}
		text += cursor
	}
	if m.buffer.Err != nil {
		text += "\n\n" + advisoryStyle.Render("Rewrite failed, showing the original text.")
	}
	return lipgloss.NewStyle().Width(max(m.viewport.Width-2, 10)).Render(text)
}

func (m Model) renderFooter() string {
	var help string
	if m.focus == FocusInput {
		help = "enter: generate • tab/esc: text pane • ctrl+c: quit"
	} else {
		help = "1-4: presets • s/e/v: reading modes • r: reset • w: rewrite • a: auto • tab: input • q: quit"
	}
	if !m.useUnicode {
		help = strings.ReplaceAll(help, "•", "|")
	}
	return footerStyle.Render(help)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
