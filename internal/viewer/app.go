// Package viewer is the terminal host application: it drives the decode
// pipeline from the UI tick and renders the trace log, timeline and profile
// views.
package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/swotrace/utils"
)

type TabType int

const (
	TabLog TabType = iota
	TabTimeline
	TabProfile

	tabMax = TabProfile
)

func (t TabType) String() string {
	switch t {
	case TabLog:
		return "Log"
	case TabTimeline:
		return "Timeline"
	case TabProfile:
		return "Profile"
	}
	return "Unknown"
}

const pollInterval = 100 * time.Millisecond

// Model is the bubbletea model for the trace viewer.
type Model struct {
	session *Session
	help    help.Model
	search  textinput.Model

	width  int
	height int

	activeTab TabType
	scrollPos map[TabType]int
	follow    bool

	searching bool
	pattern   string
	matchLine int

	status string
}

func initialModel(session *Session) *Model {
	search := textinput.New()
	search.Placeholder = "pattern (? * / wildcards)"
	search.Prompt = "/"
	search.CharLimit = 128

	return &Model{
		session:   session,
		help:      help.New(),
		search:    search,
		activeTab: TabLog,
		scrollPos: make(map[TabType]int),
		follow:    true,
		matchLine: -1,
	}
}

// StartTUI runs the viewer until the user quits. Capture, if any, must
// already be started; it is stopped (joined, transport released) before this
// returns.
func StartTUI(session *Session) error {
	model := initialModel(session)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := program.Run()
	if session.Live() && session.Capture.Running() {
		session.Capture.Stop()
	}
	if err != nil {
		return fmt.Errorf("unable to run viewer: %w", err)
	}
	return nil
}

type TickMsg time.Time

func scheduleTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return scheduleTick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.session.Timeline.FitWidth = float64(max(msg.Width-chartGutter, 10))
		return m, nil

	case TickMsg:
		m.session.ProcessPending()
		if m.activeTab == TabTimeline {
			m.session.Timeline.Rebuild(m.session.Store, m.session.Table, 0, false)
		}
		return m, scheduleTick()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		m.searching = false
		m.pattern = m.search.Value()
		m.search.Blur()
		m.findFrom(m.matchLine)
		return m, nil
	case key.Matches(msg, keys.Escape):
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		utils.CycleEnumPtr(&m.activeTab, 1, tabMax)
		return m, nil

	case key.Matches(msg, keys.Up):
		m.follow = false
		m.scrollBy(-1)
	case key.Matches(msg, keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, keys.PageUp):
		m.follow = false
		m.scrollBy(-m.contentHeight())
	case key.Matches(msg, keys.PageDown):
		m.scrollBy(m.contentHeight())
	case key.Matches(msg, keys.Follow):
		m.follow = !m.follow

	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.SetValue("")
		return m, m.search.Focus()
	case key.Matches(msg, keys.NextMatch):
		m.findFrom(m.matchLine)
	case key.Matches(msg, keys.PrevMatch):
		m.findBackFrom(m.matchLine)

	case key.Matches(msg, keys.Bookmark):
		m.toggleBookmarkAtCursor()
	case key.Matches(msg, keys.NextBookmark):
		if i := m.session.Store.BookmarkNext(); i >= 0 {
			m.jumpTo(i)
		}
	case key.Matches(msg, keys.PrevBookmark):
		if i := m.session.Store.BookmarkPrev(); i >= 0 {
			m.jumpTo(i)
		}

	case key.Matches(msg, keys.ZoomIn):
		m.session.Timeline.ZoomIn()
		m.session.Timeline.Rebuild(m.session.Store, m.session.Table, 0, false)
	case key.Matches(msg, keys.ZoomOut):
		m.session.Timeline.ZoomOut()
		m.session.Timeline.Rebuild(m.session.Store, m.session.Table, 0, false)
	case key.Matches(msg, keys.ZoomFit):
		m.session.Timeline.Rebuild(m.session.Store, m.session.Table, 0, true)

	case key.Matches(msg, keys.Save):
		m.saveTrace()
	case key.Matches(msg, keys.Clear):
		m.session.Clear()
		m.matchLine = -1
		m.scrollPos[TabLog] = 0
		m.status = "cleared"
	case key.Matches(msg, keys.ResetCounts):
		m.session.Queue.ResetOverflows()
		m.status = "overflow counter reset"
	}
	return m, nil
}

func (m *Model) saveTrace() {
	path := time.Now().Format("swotrace-20060102-150405.csv")
	n, err := m.session.Store.Save(path, m.session.Table)
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("saved %d lines to %s", n, path)
}

func (m *Model) findFrom(from int) {
	if m.pattern == "" {
		return
	}
	if i := m.session.Store.Find(m.session.Matcher, m.pattern, from); i >= 0 {
		m.matchLine = i
		m.jumpTo(i)
		m.status = fmt.Sprintf("match at line %d", i+1)
	} else {
		m.status = fmt.Sprintf("no match for %q", m.pattern)
	}
}

// findBackFrom walks matches forward until the one just before from. The
// store only searches forward; wrapping makes this correct if slow.
func (m *Model) findBackFrom(from int) {
	if m.pattern == "" {
		return
	}
	store := m.session.Store
	first := store.Find(m.session.Matcher, m.pattern, from)
	if first < 0 {
		m.status = fmt.Sprintf("no match for %q", m.pattern)
		return
	}
	prev := first
	for {
		next := store.Find(m.session.Matcher, m.pattern, prev)
		if next == first || wrapsPast(prev, next, from) {
			break
		}
		prev = next
	}
	m.matchLine = prev
	m.jumpTo(prev)
	m.status = fmt.Sprintf("match at line %d", prev+1)
}

// wrapsPast reports whether stepping prev -> next moved past from again.
func wrapsPast(prev, next, from int) bool {
	if next == prev {
		return true
	}
	// Normalize to distance from `from` along the search direction.
	dist := func(i int) int {
		d := i - from
		if d <= 0 {
			d += 1 << 30
		}
		return d
	}
	return dist(next) < dist(prev)
}

func (m *Model) toggleBookmarkAtCursor() {
	i := m.cursorLine()
	if i < 0 {
		return
	}
	m.session.Store.ToggleBookmark(i)
}

// cursorLine is the last visible log line, which follow mode keeps at the
// tail.
func (m *Model) cursorLine() int {
	count := m.session.Store.Len()
	if count == 0 {
		return -1
	}
	if m.follow {
		return count - 1
	}
	i := m.scrollPos[TabLog] + m.contentHeight() - 1
	if i >= count {
		i = count - 1
	}
	return i
}

func (m *Model) jumpTo(line int) {
	m.follow = false
	pos := line - m.contentHeight()/2
	if pos < 0 {
		pos = 0
	}
	m.scrollPos[TabLog] = pos
}

func (m *Model) scrollBy(delta int) {
	pos := m.scrollPos[m.activeTab] + delta
	if pos < 0 {
		pos = 0
	}
	m.scrollPos[m.activeTab] = pos
}

func (m *Model) contentHeight() int {
	// Header, separator, tab bar, help bar and optional search prompt.
	reserved := 4
	if m.searching {
		reserved++
	}
	return max(m.height-reserved, 1)
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := m.renderHeader()
	tabBar := m.renderTabBar()
	helpView := m.help.View(keys)

	var content string
	switch m.activeTab {
	case TabLog:
		content = m.renderLogTab()
	case TabTimeline:
		content = m.renderTimelineTab()
	case TabProfile:
		content = m.renderProfileTab()
	}
	content = lipgloss.NewStyle().Height(m.contentHeight()).MaxHeight(m.contentHeight()).Render(content)

	sections := []string{header, tabBar, content}
	if m.searching {
		sections = append(sections, m.search.View())
	}
	sections = append(sections, helpView)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	title := "SWO Trace"
	if m.session.Live() {
		title += " - " + m.session.Capture.Config().String()
	} else {
		title += " - saved trace"
	}

	headerLine := title + " • " + m.renderStatus()
	separatorLine := strings.Repeat("─", m.width)

	return lipgloss.JoinVertical(lipgloss.Left,
		utils.HeaderStyle.Width(m.width).Render(headerLine),
		utils.MutedStyle.Render(separatorLine),
	)
}

func (m *Model) renderStatus() string {
	s := m.session
	parts := []string{
		fmt.Sprintf("%d lines", s.Store.Len()),
	}
	if s.Live() {
		state := "capturing"
		if lastErr := s.Capture.LastError(); lastErr != "" {
			state = utils.CriticalStyle.Render(lastErr)
		}
		parts = append(parts, state,
			utils.FormatDuration(s.Capture.Uptime()),
			fmt.Sprintf("%d pkts", s.Capture.Packets()))
	}
	if n := s.Queue.Overflows(); n > 0 {
		parts = append(parts, utils.WarningStyle.Render(fmt.Sprintf("%d dropped", n)))
	}
	if n := s.Reassembler.PacketErrors(); n > 0 {
		parts = append(parts, utils.WarningStyle.Render(fmt.Sprintf("%d bad hdrs", n)))
	}
	if n := s.Reassembler.OverflowMarks(); n > 0 {
		parts = append(parts, utils.WarningStyle.Render(fmt.Sprintf("%d itm ovf", n)))
	}
	if m.status != "" {
		parts = append(parts, utils.InfoStyle.Render(m.status))
	}
	return strings.Join(parts, " • ")
}

func (m *Model) renderTabBar() string {
	var tabs []string
	for t := TabLog; t <= tabMax; t++ {
		if t == m.activeTab {
			tabs = append(tabs, utils.TabActiveStyle.Render(t.String()))
		} else {
			tabs = append(tabs, utils.TabInactiveStyle.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
