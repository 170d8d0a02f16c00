package itm

import "fmt"

// NumChannels is the number of stimulus channels multiplexed in an ITM
// stream. The channel number lives in bits 3-7 of the sub-packet header.
const NumChannels = 32

type RGBA struct {
	R, G, B, A uint8
}

// Hex returns the color as "#RRGGBB" for terminal styling.
func (c RGBA) Hex() string {
	const digits = "0123456789ABCDEF"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		out[1+2*i] = digits[v>>4]
		out[2+2*i] = digits[v&0xF]
	}
	return string(out)
}

type Channel struct {
	ID      int
	Enabled bool
	Name    string
	Color   RGBA
}

// ChannelTable holds the per-channel display configuration. It is owned by
// the capture context and mutated only through configuration; the decode and
// view paths read it.
type ChannelTable struct {
	channels [NumChannels]Channel
}

// Default palette, cycled across channels.
var defaultColors = []RGBA{
	{0x46, 0x82, 0xB4, 0xFF}, // steel blue
	{0x22, 0x8B, 0x22, 0xFF}, // forest green
	{0xFF, 0x88, 0x00, 0xFF}, // orange
	{0xCC, 0x33, 0x33, 0xFF}, // dark red
	{0x88, 0xAA, 0xCC, 0xFF}, // light blue
	{0x66, 0xBB, 0x66, 0xFF}, // light green
	{0xFF, 0xAA, 0x44, 0xFF}, // light orange
	{0xCC, 0xCC, 0xCC, 0xFF}, // gray
}

func NewChannelTable() *ChannelTable {
	t := &ChannelTable{}
	for i := range t.channels {
		t.channels[i] = Channel{
			ID:      i,
			Enabled: true,
			Name:    defaultChannelName(i),
			Color:   defaultColors[i%len(defaultColors)],
		}
	}
	return t
}

func defaultChannelName(id int) string {
	return fmt.Sprintf("ITM%d", id)
}

func (t *ChannelTable) Get(id int) *Channel {
	if id < 0 || id >= NumChannels {
		return nil
	}
	return &t.channels[id]
}

func (t *ChannelTable) Enabled(id int) bool {
	if ch := t.Get(id); ch != nil {
		return ch.Enabled
	}
	return false
}

func (t *ChannelTable) Name(id int) string {
	if ch := t.Get(id); ch != nil {
		return ch.Name
	}
	return ""
}

func (t *ChannelTable) SetEnabled(id int, enabled bool) {
	if ch := t.Get(id); ch != nil {
		ch.Enabled = enabled
	}
}

func (t *ChannelTable) SetName(id int, name string) {
	if ch := t.Get(id); ch != nil {
		ch.Name = name
	}
}

func (t *ChannelTable) SetColor(id int, color RGBA) {
	if ch := t.Get(id); ch != nil {
		ch.Color = color
	}
}
