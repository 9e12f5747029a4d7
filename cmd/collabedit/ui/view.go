package ui

import (
	"fmt"
	"strings"

	"collabedit/internal/chat"
	"collabedit/internal/transform"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var left string
	if m.controller.State() == transform.StateStaged {
		left = m.renderPreview()
	} else {
		left = m.renderEditor()
	}

	var right string
	if m.focus == focusAgent {
		right = m.renderAgent()
	} else {
		right = m.renderChat()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	title := "Collaborative AI Editor"
	if m.gateway.DemoActive() {
		title += "  " + m.styles.Badge.Render("DEMO")
	}
	if m.gateway.Busy() {
		title += "  " + m.spinner.View() + m.styles.Muted.Render(" working")
	}
	return m.styles.Header.Width(m.width).Render(title)
}

func (m Model) renderFooter() string {
	stats := transform.ComputeStats(m.doc.Text())
	counts := fmt.Sprintf("%d words · %d chars", stats.Words, stats.Chars)

	hints := "tab: switch pane · ctrl+d: demo · ctrl+c: quit"
	switch m.focus {
	case focusEditor:
		hints = "shift+arrows: select · 1-5: transform selection · " + hints
	case focusChat:
		hints = "enter: send · ctrl+g/ctrl+s: quick prompts · " + hints
	case focusAgent:
		hints = "enter: search · ctrl+y: insert summary · ctrl+r: crawl · " + hints
	}

	line := counts + "   " + hints
	if m.status != "" {
		line = m.styles.Error.Render(m.status) + "   " + line
	}
	return m.styles.Footer.Width(m.width).Render(line)
}

func (m Model) renderEditor() string {
	width := m.editorWidth()
	var sb strings.Builder

	if m.tracker.ToolbarVisible() {
		sb.WriteString(m.renderToolbar(width))
		sb.WriteString("\n")
	}

	sb.WriteString(m.renderDocument())

	style := m.styles.Blurred
	if m.focus == focusEditor {
		style = m.styles.Focused
	}
	pane := style.Width(width).Height(m.bodyHeight()).Render(sb.String())
	title := m.styles.PaneTitle.Render(" Document ")
	return lipgloss.JoinVertical(lipgloss.Left, title, pane)
}

// renderToolbar draws the floating action bar, indented toward the
// selection's anchor column.
func (m Model) renderToolbar(width int) string {
	var parts []string
	for i, action := range transform.Actions() {
		parts = append(parts, m.styles.ToolKey.Render(fmt.Sprintf("%d", i+1))+" "+action.Label())
	}
	bar := m.styles.Toolbar.Render(strings.Join(parts, "  "))

	indent := m.tracker.Anchor().X
	if max := width - lipgloss.Width(bar) - 2; indent > max {
		indent = max
	}
	if indent < 0 {
		indent = 0
	}
	return strings.Repeat(" ", indent) + bar
}

// renderDocument shows the buffer with the selection highlighted and
// the cursor marked.
func (m Model) renderDocument() string {
	text := m.doc.Text()
	start, end, empty := m.doc.Selection()

	if !empty {
		return text[:start] +
			m.styles.Selection.Render(text[start:end]) +
			text[end:]
	}

	cursor := m.doc.Cursor()
	if cursor >= len(text) {
		return text + m.styles.Cursor.Render(" ")
	}
	ch := string(text[cursor])
	if ch == "\n" {
		return text[:cursor] + m.styles.Cursor.Render(" ") + text[cursor:]
	}
	return text[:cursor] + m.styles.Cursor.Render(ch) + text[cursor+1:]
}

func (m Model) renderPreview() string {
	staged, ok := m.controller.Staged()
	if !ok {
		return m.renderEditor()
	}

	cmp := transform.Compare(staged.Original, staged.Suggestion)

	var sb strings.Builder
	sb.WriteString(m.styles.PreviewTitle.Render(staged.Action.String()))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderDiff(transform.DiffSpans(staged.Original, staged.Suggestion)))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.StatsLine.Render(fmt.Sprintf(
		"Original: %d words, %d chars", cmp.Original.Words, cmp.Original.Chars)))
	sb.WriteString("\n")
	sb.WriteString(m.styles.StatsLine.Render(fmt.Sprintf(
		"Suggestion: %d words (%+d), %d chars (%+d)",
		cmp.Suggestion.Words, cmp.WordDelta, cmp.Suggestion.Chars, cmp.CharDelta)))
	if !cmp.Changed {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render("No changes suggested."))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Success.Render("y") + " apply   " + m.styles.Error.Render("n") + " discard")

	box := m.styles.PreviewBox.Width(m.editorWidth() - 4).Render(sb.String())
	title := m.styles.PaneTitle.Render(" Preview ")
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

func (m Model) renderDiff(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(m.styles.DiffInsert.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(m.styles.DiffDelete.Render(d.Text))
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}

func (m Model) renderChat() string {
	width := m.sidebarWidth()
	var sb strings.Builder

	for _, msg := range m.router.Transcript().Messages() {
		sb.WriteString(m.renderChatMessage(msg))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.chatInput.View())

	style := m.styles.Blurred
	if m.focus == focusChat {
		style = m.styles.Focused
	}
	pane := style.Width(width).Height(m.bodyHeight()).Render(sb.String())
	title := m.styles.PaneTitle.Render(" AI Assistant ")
	return lipgloss.JoinVertical(lipgloss.Left, title, pane)
}

func (m Model) renderChatMessage(msg chat.Message) string {
	ts := m.styles.Timestamp.Render(msg.Timestamp.Format("15:04"))
	if msg.Role == chat.RoleUser {
		return m.styles.UserMsg.Render("You ") + ts + "\n" + msg.Content
	}
	if msg.IsError {
		return m.styles.UserMsg.Render("AI ") + ts + "\n" + m.styles.ErrorMsg.Render(msg.Content)
	}
	content := msg.Content
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}
	return m.styles.UserMsg.Render("AI ") + ts + "\n" + m.styles.AssistantMsg.Render(content)
}

func (m Model) renderAgent() string {
	width := m.sidebarWidth()
	var sb strings.Builder

	sb.WriteString(m.agentInput.View())
	sb.WriteString("\n\n")

	for _, result := range m.panel.Results() {
		sb.WriteString(m.styles.UserMsg.Render(result.Title))
		sb.WriteString("\n")
		sb.WriteString(result.Snippet)
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render(result.URL))
		sb.WriteString("\n")
		if result.AISummary != "" {
			sb.WriteString(m.styles.PaneTitle.Render("AI Summary"))
			sb.WriteString("\n")
			sb.WriteString(result.AISummary)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	style := m.styles.Blurred
	if m.focus == focusAgent {
		style = m.styles.Focused
	}
	pane := style.Width(width).Height(m.bodyHeight()).Render(sb.String())
	title := m.styles.PaneTitle.Render(" Web Agent ")
	return lipgloss.JoinVertical(lipgloss.Left, title, pane)
}

func (m Model) bodyHeight() int {
	h := m.height - 5
	if h < 10 {
		h = 10
	}
	return h
}
