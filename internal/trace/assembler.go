package trace

import "github.com/mabhi256/swotrace/internal/itm"

// ChannelMode selects how a channel's byte stream becomes trace lines.
type ChannelMode int

const (
	// ModePlain treats the stream as text: CR/LF terminate lines.
	ModePlain ChannelMode = iota
	// ModeStructured hands each chunk to the stream decoder; every decoded
	// message is one complete line.
	ModeStructured
)

// AssemblerOptions are the line-splitting policies. Explicit so they are
// testable; the defaults match the hardware tooling this format comes from.
type AssemblerOptions struct {
	// MaxLineLen closes a plain-text line once it reaches this many bytes.
	MaxLineLen int
	// LineGap closes an open line when the next fragment on its channel
	// arrives more than this many seconds after the line started.
	LineGap float64
}

func DefaultAssemblerOptions() AssemblerOptions {
	return AssemblerOptions{MaxLineLen: 256, LineGap: 0.1}
}

// Assembler consumes reassembled ITM events and grows the trace store.
// Disabled channels are dropped here, before any store mutation.
type Assembler struct {
	store   *Store
	table   *itm.ChannelTable
	opts    AssemblerOptions
	modes   [itm.NumChannels]ChannelMode
	decoder StreamDecoder
}

func NewAssembler(store *Store, table *itm.ChannelTable, opts AssemblerOptions) *Assembler {
	if opts.MaxLineLen <= 0 {
		opts.MaxLineLen = 256
	}
	return &Assembler{store: store, table: table, opts: opts}
}

// SetDecoder installs the structured stream decoder used by every channel in
// ModeStructured.
func (a *Assembler) SetDecoder(dec StreamDecoder) {
	a.decoder = dec
}

func (a *Assembler) SetMode(channel int, mode ChannelMode) {
	if channel >= 0 && channel < itm.NumChannels {
		a.modes[channel] = mode
	}
}

func (a *Assembler) Mode(channel int) ChannelMode {
	if channel < 0 || channel >= itm.NumChannels {
		return ModePlain
	}
	return a.modes[channel]
}

// Consume dispatches one reassembler event. PC samples and overflow marks
// are not line material and are handled by the profiler and counters.
func (a *Assembler) Consume(ev itm.Event) {
	switch e := ev.(type) {
	case itm.ChannelChunk:
		a.Chunk(e.Channel, e.Data, e.Timestamp)
	case itm.InvalidHeader:
		// Bytes were lost; anything the decoder buffered mid-message is
		// garbage now.
		if a.decoder != nil {
			a.decoder.Reset()
		}
	}
}

// Chunk feeds one channel's reassembled bytes into line assembly.
func (a *Assembler) Chunk(channel int, data []byte, ts float64) {
	if channel < 0 || channel >= itm.NumChannels || !a.table.Enabled(channel) {
		return
	}
	if a.modes[channel] == ModeStructured && a.decoder != nil {
		a.structuredChunk(channel, data, ts)
		return
	}
	a.plainChunk(channel, data, ts)
}

func (a *Assembler) plainChunk(channel int, data []byte, ts float64) {
	for _, b := range data {
		if b == '\r' || b == '\n' {
			// Terminators are consumed, not stored. A terminator with no
			// open line is an empty line: discarded.
			a.store.CloseOpen()
			continue
		}

		open := a.store.OpenLine()
		if open != nil {
			if open.Channel != channel ||
				len(open.Text) >= a.opts.MaxLineLen ||
				ts-open.Timestamp > a.opts.LineGap {
				a.store.CloseOpen()
				open = nil
			}
		}
		if open == nil {
			open = a.store.StartLine(channel, SeverityInfo, ts, false)
		}
		open.Text = append(open.Text, b)
	}
}

func (a *Assembler) structuredChunk(channel int, data []byte, ts float64) {
	for _, msg := range a.decoder.Decode(channel, data) {
		mts := msg.Timestamp
		if mts == 0 {
			mts = ts
		}
		sev := msg.Severity
		if !sev.Valid() {
			sev = SeverityInfo
		}
		line := a.store.StartLine(channel, sev, mts, true)
		line.Text = append(line.Text, msg.Text...)
		a.store.CloseOpen()
	}
}
