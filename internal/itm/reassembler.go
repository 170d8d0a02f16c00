// Package itm decodes the ARM ITM/SWO trace protocol: multiplexed stimulus
// channel packets, PC samples and overflow markers, arriving fragmented
// across arbitrary transport packet boundaries.
package itm

// Special sub-packet headers. Everything else is either a stimulus packet
// (size bits 1-3, channel in bits 3-7) or malformed.
const (
	headerPCSample = 0x17 // hardware PC sampling, 4-byte payload
	headerOverflow = 0x70 // target-side trace overflow, no payload
)

// payloadSizes maps the low 3 header bits to the payload length. Size bits
// of 3 mean a 4-byte payload; 0 and anything above 3 are not stimulus
// packets.
var payloadSizes = [4]int{0, 1, 2, 4}

// Event is one decoded unit from the ITM stream.
type Event interface {
	eventTimestamp() float64
}

// ChannelChunk is a maximal run of payload bytes for one stimulus channel,
// bounded by channel switches, special packets, or the end of a transport
// packet. Consecutive chunks for the same channel concatenate to the
// channel's byte stream.
type ChannelChunk struct {
	Channel   int
	Data      []byte
	Timestamp float64
}

// PCSample is one hardware program-counter sample.
type PCSample struct {
	PC        uint32
	Timestamp float64
}

// OverflowMark records that the target dropped trace data. Distinct from
// local queue overflow.
type OverflowMark struct {
	Timestamp float64
}

// InvalidHeader records a malformed header byte. Consumers feeding a
// structured decoder must reset it, since bytes were likely lost mid-message.
type InvalidHeader struct {
	Header    byte
	Timestamp float64
}

func (e ChannelChunk) eventTimestamp() float64  { return e.Timestamp }
func (e PCSample) eventTimestamp() float64      { return e.Timestamp }
func (e OverflowMark) eventTimestamp() float64  { return e.Timestamp }
func (e InvalidHeader) eventTimestamp() float64 { return e.Timestamp }

// ReassemblerOptions control fragment handling.
type ReassemblerOptions struct {
	// CacheGap is the largest inter-packet gap, in seconds, across which a
	// partial sub-packet is carried. A larger gap means the transport lost
	// data mid-packet, so the fragment is discarded instead of being
	// completed with unrelated bytes. Zero disables the check.
	CacheGap float64
}

func DefaultReassemblerOptions() ReassemblerOptions {
	return ReassemblerOptions{CacheGap: 0.25}
}

// Reassembler demultiplexes ITM sub-packets out of a stream of transport
// packets. A sub-packet split across a transport boundary is cached (header
// plus up to 4 payload bytes) and completed from the next packet. All state
// is owned by the decode side; no locking.
type Reassembler struct {
	opts ReassemblerOptions

	// Partial sub-packet carried across transport packets.
	cache    [5]byte
	cacheLen int
	haveLast bool
	lastTS   float64

	// Chunk accumulation within one transport packet.
	currChannel int
	acc         []byte

	packetErrors  uint64
	overflowMarks uint64
}

func NewReassembler(opts ReassemblerOptions) *Reassembler {
	return &Reassembler{opts: opts, currChannel: -1}
}

// Reset drops all carried state and counters.
func (r *Reassembler) Reset() {
	r.cacheLen = 0
	r.haveLast = false
	r.lastTS = 0
	r.currChannel = -1
	r.acc = nil
	r.packetErrors = 0
	r.overflowMarks = 0
}

// PacketErrors is the number of malformed header bytes seen. Observable,
// never fatal.
func (r *Reassembler) PacketErrors() uint64 { return r.packetErrors }

// OverflowMarks is the number of target-side overflow markers seen.
func (r *Reassembler) OverflowMarks() uint64 { return r.overflowMarks }

// Process decodes one transport packet and returns the events it completes,
// in stream order. Chunk accumulation flushes on channel switches, special
// packets, and at the end of the transport packet; a trailing partial
// sub-packet is cached for the next call.
func (r *Reassembler) Process(pkt *RawPacket) []Event {
	ts := pkt.Timestamp
	data := pkt.Bytes()

	var events []Event

	// A stale fragment would be completed with bytes from after the loss.
	if r.cacheLen > 0 && r.opts.CacheGap > 0 && r.haveLast && ts-r.lastTS > r.opts.CacheGap {
		r.cacheLen = 0
		r.packetErrors++
		events = append(events, InvalidHeader{Header: r.cache[0], Timestamp: ts})
	}
	r.lastTS = ts
	r.haveLast = true

	i := 0

	// Complete the cached sub-packet first.
	if r.cacheLen > 0 {
		need := 1 + r.headerPayloadLen(r.cache[0]) - r.cacheLen
		take := min(need, len(data))
		copy(r.cache[r.cacheLen:], data[:take])
		r.cacheLen += take
		i = take
		if take < need {
			return events
		}
		events = r.emitSubPacket(events, r.cache[0], r.cache[1:r.cacheLen], ts)
		r.cacheLen = 0
	}

	for i < len(data) {
		h := data[i]
		n := r.headerPayloadLen(h)
		if n < 0 {
			// Malformed header: count, surface, resume at the next byte.
			events = r.flushChunk(events, ts)
			r.packetErrors++
			events = append(events, InvalidHeader{Header: h, Timestamp: ts})
			i++
			continue
		}
		if i+1+n > len(data) {
			// Sub-packet split across the transport boundary.
			r.cacheLen = copy(r.cache[:], data[i:])
			break
		}
		events = r.emitSubPacket(events, h, data[i+1:i+1+n], ts)
		i += 1 + n
	}

	return r.flushChunk(events, ts)
}

// headerPayloadLen returns the payload length for a header byte, or -1 for a
// malformed one. Special packets have fixed lengths.
func (r *Reassembler) headerPayloadLen(h byte) int {
	switch h {
	case headerPCSample:
		return 4
	case headerOverflow:
		return 0
	}
	sz := int(h & 7)
	if sz == 0 || sz > 3 {
		return -1
	}
	return payloadSizes[sz]
}

func (r *Reassembler) emitSubPacket(events []Event, h byte, payload []byte, ts float64) []Event {
	switch h {
	case headerPCSample:
		events = r.flushChunk(events, ts)
		pc := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
		return append(events, PCSample{PC: pc, Timestamp: ts})
	case headerOverflow:
		events = r.flushChunk(events, ts)
		r.overflowMarks++
		return append(events, OverflowMark{Timestamp: ts})
	}

	channel := int(h >> 3)
	if channel != r.currChannel {
		events = r.flushChunk(events, ts)
		r.currChannel = channel
	}
	r.acc = append(r.acc, payload...)
	return events
}

func (r *Reassembler) flushChunk(events []Event, ts float64) []Event {
	if len(r.acc) == 0 {
		return events
	}
	chunk := ChannelChunk{
		Channel:   r.currChannel,
		Data:      append([]byte(nil), r.acc...),
		Timestamp: ts,
	}
	r.acc = r.acc[:0]
	return append(events, chunk)
}
