package viewer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/swotrace/internal/trace"
	"github.com/mabhi256/swotrace/utils"
)

var severityStyles = map[trace.Severity]lipgloss.Style{
	trace.SeverityDebug:  utils.MutedStyle,
	trace.SeverityInfo:   utils.InfoStyle,
	trace.SeverityWarn:   utils.WarningStyle,
	trace.SeverityError:  utils.CriticalLightStyle,
	trace.SeverityFatal:  utils.CriticalStyle,
	trace.SeverityAssert: utils.CriticalStyle,
	trace.SeverityPanic:  utils.CriticalStyle,
}

func severityStyle(s trace.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return utils.TextStyle
}

func (m *Model) renderLogTab() string {
	store := m.session.Store
	count := store.Len()
	height := m.contentHeight()

	if count == 0 {
		return utils.MutedStyle.Render("  waiting for trace data...")
	}

	top := m.scrollPos[TabLog]
	if m.follow || top > count-height {
		top = max(count-height, 0)
	}
	m.scrollPos[TabLog] = top

	var b strings.Builder
	store.Each(func(i int, l *trace.Line) bool {
		if i < top {
			return true
		}
		if i >= top+height {
			return false
		}
		b.WriteString(m.renderLine(i, l))
		b.WriteByte('\n')
		return true
	})
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderLine(i int, l *trace.Line) string {
	marker := " "
	switch {
	case l.ActiveBookmark:
		marker = utils.CriticalLightStyle.Render("▶")
	case l.Bookmarked:
		marker = utils.WarningStyle.Render("●")
	}

	name := m.session.Table.Name(l.Channel)
	nameStyle := lipgloss.NewStyle().Foreground(m.channelColor(l.Channel))

	parts := []string{
		marker,
		utils.MutedStyle.Render(l.TimeText),
		nameStyle.Render(utils.PadRight(name, 8)),
		severityStyle(l.Severity).Render(utils.PadRight(l.Severity.Name(), 6)),
		utils.TextStyle.Render(utils.SanitizeString(string(l.Text))),
	}
	line := strings.Join(parts, " ")
	if i == m.matchLine && m.pattern != "" {
		return utils.HeaderStyle.Render(line)
	}
	return line
}

func (m *Model) channelColor(channel int) lipgloss.Color {
	ch := m.session.Table.Get(channel)
	if ch == nil {
		return utils.TextColor
	}
	return lipgloss.Color(ch.Color.Hex())
}
