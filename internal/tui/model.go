package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

// ToastTTL is how long a notification stays on screen.
const ToastTTL = 2 * time.Second

const detailWidth = 52

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3b82f6"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#facc15"))

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b82f6")).
			Padding(0, 1).
			Width(detailWidth)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	toastStyles = map[explorer.Level]lipgloss.Style{
		explorer.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#15803d")),
		explorer.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ca8a04")),
		explorer.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

type promptMode int

const (
	promptNone promptMode = iota
	promptAuthor
	promptKeywords
	promptTitle
	promptArticle
)

func (p promptMode) label() string {
	switch p {
	case promptAuthor:
		return "Author"
	case promptKeywords:
		return "Keywords (comma separated)"
	case promptTitle:
		return "Title"
	case promptArticle:
		return "Article ID"
	}
	return ""
}

type toast struct {
	id    int
	level explorer.Level
	text  string
}

type (
	toastExpiredMsg int
	summaryMsg      struct {
		nodeID string
		text   string
		err    error
	}
)

// Model is the explorer program state. The engine owns the graph; the
// model only mirrors the latest snapshot it was sent.
type Model struct {
	ctx    context.Context
	engine *explorer.Engine
	router *explorer.Router
	layout explorer.Layout

	snap   explorer.Snapshot
	rows   []ui.TreeRow
	cursor int
	offset int

	detail        model.Payload
	detailVisible bool
	inspected     *explorer.Node
	summaries     map[string]string

	toasts    []toast
	nextToast int

	prompt     textinput.Model
	promptMode promptMode

	initial tea.Cmd
	help    help.Model
	keys    keyMap
	width   int
	height  int
}

// New creates the program model. initial, when set, runs once at start-up,
// typically a root load.
func New(ctx context.Context, engine *explorer.Engine, initial func(ctx context.Context, e *explorer.Engine)) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50

	m := Model{
		ctx:       ctx,
		engine:    engine,
		layout:    engine.Layout(),
		summaries: make(map[string]string),
		prompt:    ti,
		help:      help.New(),
		keys:      keys,
	}
	if initial != nil {
		m.initial = m.run(initial)
	}
	return m
}

// Run starts a full-screen program wired to bridge and blocks until it exits.
func Run(ctx context.Context, engine *explorer.Engine, bridge *Bridge, initial func(ctx context.Context, e *explorer.Engine), opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, engine, initial), opts...)
	bridge.Attach(p)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.initial
}

// run executes fn against the engine off the program loop.
func (m Model) run(fn func(ctx context.Context, e *explorer.Engine)) tea.Cmd {
	ctx, e := m.ctx, m.engine
	return func() tea.Msg {
		fn(ctx, e)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.clampOffset()
		return m, nil

	case bindMsg:
		m.router = msg.router
		m.layout = msg.layout
		m.inspected = nil
		return m, nil

	case snapshotMsg:
		m.applySnapshot(explorer.Snapshot(msg))
		return m, nil

	case fitMsg:
		if id := string(msg); id != "" {
			m.selectNode(id)
		}
		return m, nil

	case detailMsg:
		m.detail = msg.meta
		m.detailVisible = msg.visible
		if msg.visible {
			m.inspected = nil
		}
		return m, nil

	case inspectMsg:
		n := explorer.Node(msg)
		m.inspected = &n
		return m, nil

	case toastMsg:
		return m.addToast(msg.level, msg.text)

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == int(msg) {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case summaryMsg:
		if msg.err != nil {
			return m.addToast(explorer.LevelError, "summary failed: "+msg.err.Error())
		}
		m.summaries[msg.nodeID] = msg.text
		return m, nil

	case tea.KeyMsg:
		if m.promptMode != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.clampOffset()
		}

	case key.Matches(msg, m.keys.Click):
		if id, ok := m.selected(); ok && m.router != nil {
			r, ctx := m.router, m.ctx
			return m, func() tea.Msg {
				_, _ = r.Click(ctx, id)
				return nil
			}
		}

	case key.Matches(msg, m.keys.Open):
		if id, ok := m.selected(); ok && m.router != nil {
			r := m.router
			return m, func() tea.Msg {
				_ = r.DoubleClick(id)
				return nil
			}
		}

	case key.Matches(msg, m.keys.Summary):
		id, ok := m.selected()
		if !ok {
			break
		}
		if n, _ := m.nodeAt(m.cursor); n.Kind != explorer.KindArticle {
			return m.addToast(explorer.LevelWarn, "select an article to summarize")
		}
		ctx, e := m.ctx, m.engine
		return m, func() tea.Msg {
			text, err := e.Summary(ctx, id)
			return summaryMsg{nodeID: id, text: text, err: err}
		}

	case key.Matches(msg, m.keys.Close):
		m.inspected = nil
		return m, m.run(func(_ context.Context, e *explorer.Engine) { e.CloseDetail() })

	case key.Matches(msg, m.keys.Clear):
		m.summaries = make(map[string]string)
		m.inspected = nil
		return m, m.run(func(_ context.Context, e *explorer.Engine) { e.Clear() })

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Author):
		return m.openPrompt(promptAuthor)
	case key.Matches(msg, m.keys.Keywords):
		return m.openPrompt(promptKeywords)
	case key.Matches(msg, m.keys.Title):
		return m.openPrompt(promptTitle)
	case key.Matches(msg, m.keys.Article):
		return m.openPrompt(promptArticle)
	}
	return m, nil
}

func (m Model) openPrompt(mode promptMode) (tea.Model, tea.Cmd) {
	m.promptMode = mode
	m.prompt.Reset()
	m.prompt.Placeholder = mode.label()
	return m, m.prompt.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.promptMode = promptNone
		m.prompt.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		mode, value := m.promptMode, strings.TrimSpace(m.prompt.Value())
		m.promptMode = promptNone
		m.prompt.Blur()
		return m.submit(mode, value)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submit starts a root load for a prompt value.
func (m Model) submit(mode promptMode, value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m.addToast(explorer.LevelWarn, mode.label()+" is required")
	}
	var load func(ctx context.Context, e *explorer.Engine)
	switch mode {
	case promptAuthor:
		load = func(ctx context.Context, e *explorer.Engine) { _, _ = e.LoadAuthor(ctx, value) }
	case promptKeywords:
		kws := model.SplitList(value)
		load = func(ctx context.Context, e *explorer.Engine) { _, _ = e.LoadKeywords(ctx, kws) }
	case promptTitle:
		load = func(ctx context.Context, e *explorer.Engine) { _, _ = e.LoadTitle(ctx, value) }
	case promptArticle:
		id, err := strconv.Atoi(value)
		if err != nil || id < 0 {
			return m.addToast(explorer.LevelError, fmt.Sprintf("invalid article id %q", value))
		}
		load = func(ctx context.Context, e *explorer.Engine) { _, _ = e.LoadArticle(ctx, id) }
	default:
		return m, nil
	}
	m.summaries = make(map[string]string)
	m.inspected = nil
	return m, m.run(load)
}

func (m Model) addToast(level explorer.Level, text string) (tea.Model, tea.Cmd) {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, level: level, text: text})
	return m, tea.Tick(ToastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
}

// applySnapshot installs s unless it is older than the one shown. The
// cursor stays on the same node when that node survives.
func (m *Model) applySnapshot(s explorer.Snapshot) {
	if s.Revision != 0 && s.Revision < m.snap.Revision {
		return
	}
	prev, hadPrev := m.selected()
	m.snap = s
	m.rows = ui.TreeRows(s)
	if !hadPrev || !m.selectNode(prev) {
		m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
		m.clampOffset()
	}
}

func (m *Model) selectNode(id string) bool {
	for i, r := range m.rows {
		if r.Node.ID == id {
			m.cursor = i
			m.clampOffset()
			return true
		}
	}
	return false
}

func (m Model) selected() (string, bool) {
	n, ok := m.nodeAt(m.cursor)
	return n.ID, ok
}

func (m Model) nodeAt(i int) (explorer.Node, bool) {
	if i < 0 || i >= len(m.rows) {
		return explorer.Node{}, false
	}
	return m.rows[i].Node, true
}

// treeHeight is the number of outline rows that fit on screen.
func (m Model) treeHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-8, 3)
}

func (m *Model) clampOffset() {
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(m.offset, 0)
}

func (m Model) View() string {
	var s strings.Builder
	nodes, edges := len(m.snap.Nodes), len(m.snap.Edges)
	s.WriteString(titleStyle.Render("litgraph explorer"))
	s.WriteString(labelStyle.Render(fmt.Sprintf("  %d nodes · %d edges", nodes, edges)))
	s.WriteString("\n\n")

	body := m.treeView()
	if side := m.sideView(); side != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", side)
	}
	s.WriteString(body)

	if m.promptMode != promptNone {
		s.WriteString("\n\n" + labelStyle.Render(m.promptMode.label()+": ") + m.prompt.View())
	}
	for _, t := range m.toasts {
		s.WriteString("\n" + toastStyles[t.level].Render(t.text))
	}
	s.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) treeView() string {
	if len(m.rows) == 0 {
		return labelStyle.Render("Nothing loaded. Press a, k, t or i to start.")
	}
	end := min(m.offset+m.treeHeight(), len(m.rows))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		line := marker + row.Prefix + ui.NodeLine(row.Node, m.layout, m.snap.Focus)
		if row.Node.Kind == explorer.KindArticle && m.engine.Loading(row.Node.ID) {
			line += labelStyle.Render(" loading…")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) sideView() string {
	switch {
	case m.detailVisible:
		return detailStyle.Render(m.articleDetail())
	case m.inspected != nil:
		return detailStyle.Render(inspectDetail(*m.inspected))
	}
	if id, ok := m.selected(); ok {
		if text := m.summaries[id]; text != "" {
			return detailStyle.Render(labelStyle.Render("Summary") + "\n" + text)
		}
	}
	return ""
}

func (m Model) articleDetail() string {
	meta := m.detail
	var b strings.Builder
	b.WriteString(titleStyle.Render(meta.String("Title", "title_full", "title")) + "\n")
	field := func(name, value string) {
		if value != "" {
			b.WriteString(labelStyle.Render(name+": ") + value + "\n")
		}
	}
	field("Authors", strings.Join(meta.Strings("Authors", "authors"), ", "))
	field("Published", meta.String("PublicationDate", "publication_date"))
	field("PMCID", meta.String("Pmcid", "pmcid", "PMCID"))
	field("Keywords", strings.Join(meta.Strings("Keywords", "keywords"), ", "))
	field("Link", explorer.LinkFor(meta))

	summary := meta.String(explorer.SummaryKey)
	if summary == "" {
		summary = m.summaries[m.snap.Focus]
	}
	if summary != "" {
		b.WriteString("\n" + labelStyle.Render("Summary") + "\n" + summary + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func inspectDetail(n explorer.Node) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(n.Label) + "\n")
	b.WriteString(labelStyle.Render(n.Kind.String()) + "\n")
	if n.Kind == explorer.KindAuthor {
		pubmed, scholar := explorer.AuthorSearchLinks(n.Label)
		b.WriteString(labelStyle.Render("PubMed: ") + pubmed + "\n")
		b.WriteString(labelStyle.Render("Scholar: ") + scholar)
	}
	return strings.TrimRight(b.String(), "\n")
}
