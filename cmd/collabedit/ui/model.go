package ui

import (
	"context"
	"strings"

	"collabedit/internal/agent"
	"collabedit/internal/ai"
	"collabedit/internal/chat"
	"collabedit/internal/document"
	"collabedit/internal/logging"
	"collabedit/internal/selection"
	"collabedit/internal/transform"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusEditor focusArea = iota
	focusChat
	focusAgent
)

// Quick prompts surfaced as key-bound canned chat inputs.
const (
	quickPromptGrammar = "Help me improve the grammar in my document"
	quickPromptSearch  = "Search for latest news about React.js"
)

// Messages produced by background work.
type (
	transformDoneMsg struct{ err error }
	confirmDoneMsg   struct{ err error }
	chatDoneMsg      struct{}
	searchDoneMsg    struct{ err error }
	crawlDoneMsg     struct{ err error }
)

// Deps carries the assembled application into the UI.
type Deps struct {
	Doc        *document.Buffer
	Tracker    *selection.Tracker
	Controller *transform.Controller
	Router     *chat.Router
	Panel      *agent.Panel
	Gateway    *ai.Gateway
	Styles     Styles
	Logger     *zap.Logger
}

// Model is the bubbletea model for the whole editor.
type Model struct {
	styles Styles
	log    *zap.Logger

	doc        *document.Buffer
	tracker    *selection.Tracker
	controller *transform.Controller
	router     *chat.Router
	panel      *agent.Panel
	gateway    *ai.Gateway

	chatInput  textarea.Model
	agentInput textarea.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer

	focus  focusArea
	width  int
	height int
	ready  bool
	status string
}

// NewModel wires the UI around the assembled components.
func NewModel(deps Deps) Model {
	styles := deps.Styles

	chatInput := textarea.New()
	chatInput.Placeholder = "Ask AI anything..."
	chatInput.SetHeight(3)
	chatInput.CharLimit = 4096
	chatInput.ShowLineNumbers = false

	agentInput := textarea.New()
	agentInput.Placeholder = "Search the web and insert summary..."
	agentInput.SetHeight(1)
	agentInput.CharLimit = 512
	agentInput.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(60),
	)

	return Model{
		styles:     styles,
		log:        logging.OrNop(deps.Logger),
		doc:        deps.Doc,
		tracker:    deps.Tracker,
		controller: deps.Controller,
		router:     deps.Router,
		panel:      deps.Panel,
		gateway:    deps.Gateway,
		chatInput:  chatInput,
		agentInput: agentInput,
		spinner:    sp,
		renderer:   renderer,
		focus:      focusEditor,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		sidebar := m.sidebarWidth()
		m.chatInput.SetWidth(sidebar - 4)
		m.agentInput.SetWidth(sidebar - 4)
		if wrap := sidebar - 6; wrap > 20 {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(wrap),
			)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case transformDoneMsg:
		if msg.err != nil {
			m.status = ai.Humanize(msg.err)
		} else {
			m.status = ""
		}
		return m, nil

	case confirmDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = "Change applied"
			m.tracker.Hide()
		}
		return m, nil

	case chatDoneMsg:
		return m, nil

	case searchDoneMsg:
		if msg.err != nil {
			m.status = ai.Humanize(msg.err)
		}
		return m, nil

	case crawlDoneMsg:
		if msg.err != nil {
			m.status = ai.Humanize(msg.err)
		} else {
			m.status = "Content inserted"
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The preview overlay captures everything until resolved.
	if m.controller.State() == transform.StateStaged {
		return m.updatePreviewKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 3
		m.syncFocus()
		return m, nil
	case "ctrl+e":
		m.focus = focusEditor
		m.syncFocus()
		return m, nil
	case "ctrl+d":
		m.gateway.SetDemoMode(!m.gateway.DemoActive())
		return m, nil
	}

	switch m.focus {
	case focusEditor:
		return m.updateEditorKey(msg)
	case focusChat:
		return m.updateChatKey(msg)
	case focusAgent:
		return m.updateAgentKey(msg)
	}
	return m, nil
}

func (m *Model) syncFocus() {
	m.chatInput.Blur()
	m.agentInput.Blur()
	switch m.focus {
	case focusChat:
		m.chatInput.Focus()
	case focusAgent:
		m.agentInput.Focus()
	}
}

func (m Model) updatePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		return m, func() tea.Msg {
			return confirmDoneMsg{err: m.controller.Confirm()}
		}
	case "n", "esc", "ctrl+c":
		m.controller.Cancel()
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m Model) updateEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// With a selection live, digit keys pick a transform action.
	if m.tracker.ToolbarVisible() {
		if action, ok := actionForKey(msg.String()); ok {
			return m.startTransform(action)
		}
	}

	cursor := m.doc.Cursor()
	switch msg.String() {
	case "left":
		m.doc.MoveCursor(cursor - 1)
	case "right":
		m.doc.MoveCursor(cursor + 1)
	case "up":
		m.doc.MoveCursor(m.verticalTarget(-1))
	case "down":
		m.doc.MoveCursor(m.verticalTarget(1))
	case "shift+left":
		m.doc.ExtendSelection(cursor - 1)
	case "shift+right":
		m.doc.ExtendSelection(cursor + 1)
	case "shift+up":
		m.doc.ExtendSelection(m.verticalTarget(-1))
	case "shift+down":
		m.doc.ExtendSelection(m.verticalTarget(1))
	case "home":
		m.doc.MoveCursor(m.lineStart(cursor))
	case "end":
		m.doc.MoveCursor(m.lineEnd(cursor))
	case "ctrl+a":
		m.doc.SetSelection(0, m.doc.Len())
	case "esc":
		m.doc.MoveCursor(cursor)
	case "enter":
		m.insertText("\n")
	case "backspace":
		m.deleteBackward()
	default:
		if msg.Type == tea.KeyRunes {
			m.insertText(string(msg.Runes))
		} else if msg.Type == tea.KeySpace {
			m.insertText(" ")
		}
	}
	return m, nil
}

func actionForKey(key string) (transform.Action, bool) {
	actions := transform.Actions()
	switch key {
	case "1":
		return actions[0], true
	case "2":
		return actions[1], true
	case "3":
		return actions[2], true
	case "4":
		return actions[3], true
	case "5":
		return actions[4], true
	}
	return 0, false
}

func (m Model) startTransform(action transform.Action) (tea.Model, tea.Cmd) {
	span, ok := m.tracker.Active()
	if !ok {
		return m, nil
	}
	m.status = "Thinking..."
	return m, func() tea.Msg {
		return transformDoneMsg{err: m.controller.Request(context.Background(), action, span)}
	}
}

func (m *Model) insertText(text string) {
	if start, end, empty := m.doc.Selection(); !empty {
		// Typing over a selection replaces it.
		if err := m.doc.Replace(start, end, text); err != nil {
			m.log.Debug("replace failed", zap.Error(err))
		}
		return
	}
	m.doc.InsertAtCursor(text)
}

func (m *Model) deleteBackward() {
	start, end, empty := m.doc.Selection()
	if !empty {
		if err := m.doc.Replace(start, end, ""); err != nil {
			m.log.Debug("delete failed", zap.Error(err))
		}
		return
	}
	cursor := m.doc.Cursor()
	if cursor == 0 {
		return
	}
	if err := m.doc.Replace(cursor-1, cursor, ""); err != nil {
		m.log.Debug("delete failed", zap.Error(err))
	}
}

// verticalTarget maps the cursor one line up or down, keeping the
// column where possible.
func (m Model) verticalTarget(delta int) int {
	text := m.doc.Text()
	cursor := m.doc.Cursor()
	col, line := m.doc.CoordsAt(cursor)

	lines := strings.Split(text, "\n")
	target := line + delta
	if target < 0 || target >= len(lines) {
		return cursor
	}

	offset := 0
	for i := 0; i < target; i++ {
		offset += len(lines[i]) + 1
	}
	if col > len(lines[target]) {
		col = len(lines[target])
	}
	return offset + col
}

func (m Model) lineStart(cursor int) int {
	text := m.doc.Text()
	if cursor > len(text) {
		cursor = len(text)
	}
	if idx := strings.LastIndexByte(text[:cursor], '\n'); idx >= 0 {
		return idx + 1
	}
	return 0
}

func (m Model) lineEnd(cursor int) int {
	text := m.doc.Text()
	if cursor > len(text) {
		cursor = len(text)
	}
	if idx := strings.IndexByte(text[cursor:], '\n'); idx >= 0 {
		return cursor + idx
	}
	return len(text)
}

func (m Model) updateChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.chatInput.Value())
		if input == "" {
			return m, nil
		}
		m.chatInput.Reset()
		return m, func() tea.Msg {
			m.router.Submit(context.Background(), input)
			return chatDoneMsg{}
		}
	case "ctrl+g":
		m.chatInput.SetValue(quickPromptGrammar)
		return m, nil
	case "ctrl+s":
		m.chatInput.SetValue(quickPromptSearch)
		return m, nil
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m Model) updateAgentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.agentInput.Value())
		if query == "" {
			return m, nil
		}
		m.agentInput.Reset()
		m.status = "Searching..."
		return m, func() tea.Msg {
			_, err := m.panel.Search(context.Background(), query)
			return searchDoneMsg{err: err}
		}
	case "ctrl+y":
		results := m.panel.Results()
		if len(results) > 0 && results[0].AISummary != "" {
			m.panel.InsertSummary(results[0].AISummary)
			m.status = "Summary inserted"
		}
		return m, nil
	case "ctrl+r":
		results := m.panel.Results()
		if len(results) == 0 || results[0].URL == "" {
			return m, nil
		}
		url := results[0].URL
		m.status = "Crawling..."
		return m, func() tea.Msg {
			return crawlDoneMsg{err: m.panel.Crawl(context.Background(), url)}
		}
	}

	var cmd tea.Cmd
	m.agentInput, cmd = m.agentInput.Update(msg)
	return m, cmd
}

func (m Model) sidebarWidth() int {
	if m.width == 0 {
		return 40
	}
	w := m.width / 3
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) editorWidth() int {
	if m.width == 0 {
		return 80
	}
	return m.width - m.sidebarWidth() - 4
}
