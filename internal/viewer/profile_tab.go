package viewer

import (
	"fmt"
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/swotrace/utils"
)

// profileBlockSize groups the byte-granular histogram into blocks for
// display; one bar per hot block.
const profileBlockSize = 256

const profileTopN = 16

type hotBlock struct {
	offset  int
	samples uint64
}

func (m *Model) renderProfileTab() string {
	p := m.session.Profiler
	if p.Samples() == 0 {
		return utils.MutedStyle.Render("  no PC samples yet (enable PC sampling in the DWT)")
	}

	blocks, overflow := m.hotBlocks()
	height := max(m.contentHeight()-3, 4)

	chart := barchart.New(m.width, height)
	for _, b := range blocks {
		chart.Push(barchart.BarData{
			Label: fmt.Sprintf("+%04X", b.offset),
			Values: []barchart.BarValue{{
				Name:  "samples",
				Value: float64(b.samples),
				Style: utils.InfoStyle,
			}},
		})
	}
	chart.Draw()

	summary := fmt.Sprintf("%d samples • code base 0x%08X • %d B/bar",
		p.Samples(), p.CodeBase, profileBlockSize)
	if overflow > 0 {
		summary += utils.WarningStyle.Render(fmt.Sprintf(" • %d outside range", overflow))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		chart.View(),
		utils.MutedStyle.Render(summary),
	)
}

// hotBlocks aggregates the histogram into blocks and returns the hottest
// ones by sample count, plus the out-of-range total.
func (m *Model) hotBlocks() ([]hotBlock, uint64) {
	hist := m.session.Profiler.Histogram
	if len(hist) < 2 {
		return nil, 0
	}
	overflow := uint64(hist[len(hist)-1])
	hist = hist[:len(hist)-1]

	var blocks []hotBlock
	for start := 0; start < len(hist); start += profileBlockSize {
		end := min(start+profileBlockSize, len(hist))
		var sum uint64
		for _, n := range hist[start:end] {
			sum += uint64(n)
		}
		if sum > 0 {
			blocks = append(blocks, hotBlock{offset: start, samples: sum})
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].samples > blocks[j].samples
	})
	if len(blocks) > profileTopN {
		blocks = blocks[:profileTopN]
	}
	// Presentation order is by address, hotness only picks which blocks show.
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].offset < blocks[j].offset
	})
	return blocks, overflow
}
