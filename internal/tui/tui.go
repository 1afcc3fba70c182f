// Package tui implements the Bubble Tea terminal user interface for
// browsing a review and applying its fixes.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/coderev/internal/filetree"
	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
)

// viewMode selects what the code pane shows.
type viewMode int

const (
	viewOriginal viewMode = iota
	viewFixed
	viewDiff
)

func (v viewMode) String() string {
	switch v {
	case viewFixed:
		return "fixed"
	case viewDiff:
		return "diff"
	default:
		return "original"
	}
}

// Model is the top-level Bubble Tea model for coderev.
type Model struct {
	review *model.Review
	sub    model.Submission
	tree   *filetree.Tree
	state  *fix.State

	// UI state
	width  int
	height int

	// Selection
	fileIndex  int // currently selected file
	issueIndex int // selected issue within the current file

	// Code viewport
	scrollOffset int // scroll position within the code pane
	viewHeight   int // number of visible lines in the code area

	// Rendered rows for the current file and view mode
	lines []renderedLine

	mode viewMode

	statusMsg string

	// Help
	showHelp bool
}

// New creates a TUI model over a review and the submission it covers.
func New(review *model.Review, sub model.Submission) Model {
	m := Model{
		review: review,
		sub:    sub,
		tree:   filetree.Build(review.Issues),
		state:  fix.NewState(sub.Code),
	}
	m.updateLines()
	return m
}

func (m *Model) currentIssues() []model.Issue {
	files := m.tree.Files()
	if m.fileIndex >= len(files) {
		return nil
	}
	return m.tree.Select(files[m.fileIndex])
}

func (m *Model) fixedSet() map[string]bool {
	fixed := make(map[string]bool, len(m.state.Records))
	for id := range m.state.Records {
		fixed[id] = true
	}
	return fixed
}

func (m *Model) updateLines() {
	switch m.mode {
	case viewDiff:
		m.lines = renderDiff(m.state)
	case viewFixed:
		m.lines = renderFixed(m.state, m.sub, m.currentIssues())
	default:
		m.lines = renderCode(m.state.Original, m.sub, m.currentIssues(), m.fixedSet())
	}
	if m.scrollOffset >= len(m.lines) && len(m.lines) > 0 {
		m.scrollOffset = len(m.lines) - 1
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + help bar + borders
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.scrollOffset < len(m.lines)-1 {
				m.scrollOffset++
			}

		case key.Matches(msg, keys.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case key.Matches(msg, keys.NextFile):
			if m.fileIndex < len(m.tree.Files())-1 {
				m.fileIndex++
				m.issueIndex = 0
				m.scrollOffset = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.PrevFile):
			if m.fileIndex > 0 {
				m.fileIndex--
				m.issueIndex = 0
				m.scrollOffset = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.NextIssue):
			if m.issueIndex < len(m.currentIssues())-1 {
				m.issueIndex++
				m.scrollToIssue()
			}

		case key.Matches(msg, keys.PrevIssue):
			if m.issueIndex > 0 {
				m.issueIndex--
				m.scrollToIssue()
			}

		case key.Matches(msg, keys.Toggle):
			m.mode = (m.mode + 1) % 3
			m.scrollOffset = 0
			m.updateLines()

		case key.Matches(msg, keys.Apply):
			m.applySelected()

		case key.Matches(msg, keys.Undo):
			m.undoSelected()

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

func (m *Model) scrollToIssue() {
	for i, rl := range m.lines {
		if rl.Kind == kindAnnotation && rl.IssueIdx == m.issueIndex {
			m.scrollOffset = i
			return
		}
	}
}

func (m *Model) applySelected() {
	issues := m.currentIssues()
	if m.issueIndex >= len(issues) {
		return
	}

	res, err := m.state.Apply(issues[m.issueIndex])
	switch {
	case err != nil:
		m.statusMsg = "no fix target"
	case !res.Changed:
		m.statusMsg = "no automatic fix"
	default:
		m.statusMsg = "fix applied"
	}
	m.updateLines()
}

func (m *Model) undoSelected() {
	issues := m.currentIssues()
	if m.issueIndex >= len(issues) {
		return
	}

	if m.state.Undo(issues[m.issueIndex].ID) {
		m.statusMsg = "fix undone"
	} else {
		m.statusMsg = "nothing to undo"
	}
	m.updateLines()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	// Layout: file list on left, code on right
	fileListWidth := m.fileListWidth()
	codeWidth := m.width - fileListWidth - 1 // -1 for gap

	fileList := m.renderFileList(fileListWidth, m.height-2)
	codeView := m.renderCodeView(codeWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, fileList, " ", codeView)

	statusBar := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, main, statusBar)
}

func (m Model) fileListWidth() int {
	// Calculate based on longest filename, capped
	maxLen := 20
	for _, path := range m.tree.Files() {
		if len(path) > maxLen {
			maxLen = len(path)
		}
	}
	w := maxLen + 10 // padding + stats
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderFileList(width, height int) string {
	files := m.tree.Files()
	innerHeight := height - 2 // borders

	if len(files) == 0 {
		return fileListStyle.Width(width).Height(innerHeight).Render("No issues")
	}

	var b strings.Builder
	for i, path := range files {
		name := path

		// Truncate name if needed
		maxName := width - 8
		if maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		stats := fmt.Sprintf("%d %s", m.tree.Count(path), severityBadge(m.tree.MaxSeverity(path)))
		line := fmt.Sprintf("%-*s %s", maxName, name, stats)

		style := fileItemStyle
		if i == m.fileIndex {
			style = fileItemSelectedStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(files)-1 {
			b.WriteByte('\n')
		}
	}

	return fileListStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderCodeView(width, height int) string {
	innerWidth := width - 4 // borders + padding
	innerHeight := height - 2

	header := fileHeaderStyle.Render(m.paneTitle())

	// Calculate visible lines
	visibleLines := innerHeight - 2 // header takes some space
	if visibleLines < 1 {
		visibleLines = 1
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')

	end := m.scrollOffset + visibleLines
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for i := m.scrollOffset; i < end; i++ {
		selected := m.lines[i].Kind == kindAnnotation && m.lines[i].IssueIdx == m.issueIndex
		b.WriteString(styleLine(m.lines[i], innerWidth, selected))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	return codeViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) paneTitle() string {
	title := m.sub.Path()
	if files := m.tree.Files(); m.fileIndex < len(files) {
		title = files[m.fileIndex]
	}
	return fmt.Sprintf("%s (%s)", title, m.mode)
}

func (m Model) renderStatusBar() string {
	issues := m.currentIssues()

	left := fmt.Sprintf(" File %d/%d", m.fileIndex+1, len(m.tree.Files()))
	if len(issues) > 0 {
		left += fmt.Sprintf("  Issue %d/%d", m.issueIndex+1, len(issues))
	}

	right := fmt.Sprintf("score %d  %d fixed  %s  ? help ", m.review.Score, len(m.state.Records), m.mode)
	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("coderev — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Scroll up"},
		{"↓/j", "Scroll down"},
		{"n/Tab", "Next file"},
		{"N/S-Tab", "Previous file"},
		{"]", "Next issue"},
		{"[", "Previous issue"},
		{"v", "Cycle original/fixed/diff view"},
		{"a", "Apply fix for selected issue"},
		{"u", "Undo applied fix"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the TUI application and returns the session's fix ledger so
// the caller can write out the fixed code.
func Run(review *model.Review, sub model.Submission) (*fix.State, error) {
	m := New(review, sub)
	p := tea.NewProgram(m, tea.WithAltScreen())
	out, err := p.Run()
	if err != nil {
		return nil, err
	}
	if final, ok := out.(Model); ok {
		return final.state, nil
	}
	return m.state, nil
}
