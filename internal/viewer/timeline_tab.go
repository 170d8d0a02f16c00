package viewer

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/swotrace/internal/itm"
	"github.com/mabhi256/swotrace/utils"
)

// chartGutter is the label column to the left of each channel chart.
const chartGutter = 12

func (m *Model) renderTimelineTab() string {
	agg := m.session.Timeline
	chartWidth := max(m.width-chartGutter, 10)

	var rows []string
	for id := 0; id < itm.NumChannels; id++ {
		if !m.session.Table.Enabled(id) {
			continue
		}
		marks := agg.Marks(id)
		if len(marks) == 0 {
			continue
		}

		buckets := make([]float64, chartWidth)
		for _, mark := range marks {
			col := int(mark.Position)
			if col < 0 {
				continue
			}
			if col >= chartWidth {
				col = chartWidth - 1
			}
			buckets[col] += float64(mark.Count)
		}

		style := lipgloss.NewStyle().Foreground(m.channelColor(id))
		chart := sparkline.New(chartWidth, 1, sparkline.WithStyle(style))
		chart.PushAll(buckets)
		chart.Draw()

		label := utils.PadRight(utils.TruncateString(m.session.Table.Name(id), chartGutter-2), chartGutter)
		rows = append(rows, style.Render(label)+chart.View())
	}

	if len(rows) == 0 {
		return utils.MutedStyle.Render("  no trace activity yet")
	}

	footer := utils.MutedStyle.Render(fmt.Sprintf(
		"%s%s • max %d/div • +/- zoom, z fit",
		strings.Repeat(" ", chartGutter), agg.ScaleLabel(), agg.MaxCount,
	))
	rows = append(rows, footer)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
