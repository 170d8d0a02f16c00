package itm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stim builds a stimulus sub-packet for a channel. Payload length must be
// 1, 2 or 4.
func stim(channel int, payload ...byte) []byte {
	var sz byte
	switch len(payload) {
	case 1:
		sz = 1
	case 2:
		sz = 2
	case 4:
		sz = 3
	default:
		panic("stimulus payload must be 1, 2 or 4 bytes")
	}
	return append([]byte{byte(channel<<3) | sz}, payload...)
}

func pcSample(pc uint32) []byte {
	return []byte{headerPCSample, byte(pc), byte(pc >> 8), byte(pc >> 16), byte(pc >> 24)}
}

func processAll(r *Reassembler, packets ...[]byte) []Event {
	var events []Event
	for _, p := range packets {
		var pkt RawPacket
		pkt.Len = copy(pkt.Data[:], p)
		events = append(events, r.Process(&pkt)...)
	}
	return events
}

// chunkRuns projects events onto (channel, bytes) runs, concatenating
// adjacent chunks for the same channel. Transport packet boundaries flush
// chunks, so runs rather than raw chunks are what must be split-invariant.
// Non-chunk events sit at fixed stream positions and end the run around
// them, whole or split.
func chunkRuns(events []Event) []ChannelChunk {
	var runs []ChannelChunk
	open := false
	for _, ev := range events {
		c, ok := ev.(ChannelChunk)
		if !ok {
			open = false
			continue
		}
		if n := len(runs); open && runs[n-1].Channel == c.Channel {
			runs[n-1].Data = append(runs[n-1].Data, c.Data...)
			continue
		}
		runs = append(runs, ChannelChunk{Channel: c.Channel, Data: append([]byte(nil), c.Data...)})
		open = true
	}
	return runs
}

func TestReassemblerSingleChannel(t *testing.T) {
	r := NewReassembler(DefaultReassemblerOptions())
	events := processAll(r, append(stim(0, 'H'), append(stim(0, 'i', '!'), stim(0, 'n', 'o', 'w', '.')...)...))

	want := []ChannelChunk{{Channel: 0, Data: []byte("Hi!now.")}}
	if diff := cmp.Diff(want, chunkRuns(events)); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}
}

func TestReassemblerChannelSwitchFlushes(t *testing.T) {
	var stream []byte
	stream = append(stream, stim(1, 'a')...)
	stream = append(stream, stim(1, 'b')...)
	stream = append(stream, stim(5, 'X', 'Y')...)
	stream = append(stream, stim(1, 'c')...)

	r := NewReassembler(DefaultReassemblerOptions())
	events := processAll(r, stream)

	want := []ChannelChunk{
		{Channel: 1, Data: []byte("ab")},
		{Channel: 5, Data: []byte("XY")},
		{Channel: 1, Data: []byte("c")},
	}
	if diff := cmp.Diff(want, chunkRuns(events)); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}
}

func TestReassemblerSpecialPackets(t *testing.T) {
	var stream []byte
	stream = append(stream, stim(2, 'a')...)
	stream = append(stream, pcSample(0x0800_1234)...)
	stream = append(stream, headerOverflow)
	stream = append(stream, stim(2, 'b')...)

	r := NewReassembler(DefaultReassemblerOptions())
	events := processAll(r, stream)

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %#v", len(events), events)
	}
	if c, ok := events[0].(ChannelChunk); !ok || string(c.Data) != "a" {
		t.Errorf("events[0] = %#v, want chunk \"a\"", events[0])
	}
	if s, ok := events[1].(PCSample); !ok || s.PC != 0x0800_1234 {
		t.Errorf("events[1] = %#v, want PC sample 0x08001234", events[1])
	}
	if _, ok := events[2].(OverflowMark); !ok {
		t.Errorf("events[2] = %#v, want overflow mark", events[2])
	}
	if c, ok := events[3].(ChannelChunk); !ok || string(c.Data) != "b" {
		t.Errorf("events[3] = %#v, want chunk \"b\"", events[3])
	}
	if r.OverflowMarks() != 1 {
		t.Errorf("overflow marks = %d, want 1", r.OverflowMarks())
	}
}

func TestReassemblerInvalidHeader(t *testing.T) {
	// 0x08 has size bits 0 and is not a recognized special header.
	var stream []byte
	stream = append(stream, stim(3, 'a')...)
	stream = append(stream, 0x08)
	stream = append(stream, stim(3, 'b')...)

	r := NewReassembler(DefaultReassemblerOptions())
	events := processAll(r, stream)

	var invalid int
	for _, ev := range events {
		if _, ok := ev.(InvalidHeader); ok {
			invalid++
		}
	}
	if invalid != 1 {
		t.Errorf("invalid header events = %d, want 1", invalid)
	}
	if r.PacketErrors() != 1 {
		t.Errorf("packet errors = %d, want 1", r.PacketErrors())
	}

	// Decode resumes at the next byte; both payloads survive.
	want := []ChannelChunk{
		{Channel: 3, Data: []byte("a")},
		{Channel: 3, Data: []byte("b")},
	}
	if diff := cmp.Diff(want, chunkRuns(events)); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}
}

// Decoding the same byte stream split at every possible boundary must yield
// the same (channel, bytes) runs as decoding it in one piece.
func TestReassemblerSplitInvariance(t *testing.T) {
	var stream []byte
	stream = append(stream, stim(0, 'h', 'e')...)
	stream = append(stream, stim(0, 'l', 'l', 'o', '\n')...)
	stream = append(stream, pcSample(0x2000_0000)...)
	stream = append(stream, stim(7, 'x')...)
	stream = append(stream, headerOverflow)
	stream = append(stream, stim(7, 'y', 'z')...)
	stream = append(stream, stim(31, 'Q', 'R', 'S', 'T')...)

	whole := processAll(NewReassembler(DefaultReassemblerOptions()), stream)
	wantRuns := chunkRuns(whole)
	wantEvents := countSpecials(whole)

	for cut1 := 0; cut1 <= len(stream); cut1++ {
		for cut2 := cut1; cut2 <= len(stream); cut2++ {
			r := NewReassembler(DefaultReassemblerOptions())
			events := processAll(r, stream[:cut1], stream[cut1:cut2], stream[cut2:])

			if diff := cmp.Diff(wantRuns, chunkRuns(events)); diff != "" {
				t.Fatalf("cuts (%d,%d): chunk mismatch (-want +got):\n%s", cut1, cut2, diff)
			}
			if got := countSpecials(events); got != wantEvents {
				t.Fatalf("cuts (%d,%d): specials = %+v, want %+v", cut1, cut2, got, wantEvents)
			}
			if r.PacketErrors() != 0 {
				t.Fatalf("cuts (%d,%d): unexpected packet errors: %d", cut1, cut2, r.PacketErrors())
			}
		}
	}
}

type specialCounts struct {
	pcSamples, overflows int
	firstPC              uint32
}

func countSpecials(events []Event) specialCounts {
	var c specialCounts
	for _, ev := range events {
		switch s := ev.(type) {
		case PCSample:
			if c.pcSamples == 0 {
				c.firstPC = s.PC
			}
			c.pcSamples++
		case OverflowMark:
			c.overflows++
		}
	}
	return c
}

func TestReassemblerCacheInvalidation(t *testing.T) {
	r := NewReassembler(ReassemblerOptions{CacheGap: 0.25})

	// First packet ends mid-sub-packet.
	partial := stim(4, 'a', 'b', 'c', 'd')[:3]
	var pkt RawPacket
	pkt.Len = copy(pkt.Data[:], partial)
	pkt.Timestamp = 1.0
	if events := r.Process(&pkt); len(events) != 0 {
		t.Fatalf("partial packet produced events: %#v", events)
	}

	// The continuation arrives far too late: the fragment must be dropped,
	// not completed with these bytes.
	var late RawPacket
	late.Len = copy(late.Data[:], stim(4, 'z'))
	late.Timestamp = 2.0
	events := r.Process(&late)

	want := []ChannelChunk{{Channel: 4, Data: []byte("z")}}
	if diff := cmp.Diff(want, chunkRuns(events)); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}
	if r.PacketErrors() != 1 {
		t.Errorf("packet errors = %d, want 1 (stale cache)", r.PacketErrors())
	}
}

func TestReassemblerPCSampleFragmented(t *testing.T) {
	sample := pcSample(0xDEAD_BEEF)

	for cut := 1; cut < len(sample); cut++ {
		r := NewReassembler(DefaultReassemblerOptions())
		events := processAll(r, sample[:cut], sample[cut:])

		if len(events) != 1 {
			t.Fatalf("cut %d: got %d events, want 1", cut, len(events))
		}
		s, ok := events[0].(PCSample)
		if !ok || s.PC != 0xDEAD_BEEF {
			t.Errorf("cut %d: event = %#v, want PC sample 0xDEADBEEF", cut, events[0])
		}
	}
}
