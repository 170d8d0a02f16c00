package viewer

import (
	"github.com/mabhi256/swotrace/internal/capture"
	"github.com/mabhi256/swotrace/internal/itm"
	"github.com/mabhi256/swotrace/internal/timeline"
	"github.com/mabhi256/swotrace/internal/trace"
)

const (
	defaultQueueCapacity = 1024

	// Profiled code window: one histogram slot per byte offset plus the
	// overflow bucket.
	defaultProfileRange = 64 * 1024
	defaultCodeBase     = 0x0800_0000 // Cortex-M flash base
)

// Session owns the whole decode pipeline on the consumer side: packets come
// out of the queue and fan out into the trace store and the profiler. All of
// it is single-threaded relative to the UI loop; only the queue is shared
// with the capture goroutine.
type Session struct {
	Table       *itm.ChannelTable
	Queue       *itm.PacketQueue
	Reassembler *itm.Reassembler
	Store       *trace.Store
	Assembler   *trace.Assembler
	Timeline    *timeline.Aggregator
	Profiler    *timeline.Profiler
	Matcher     trace.Matcher

	// Capture is nil when viewing a saved trace.
	Capture *capture.Capture
}

// NewSession builds the pipeline. config may be nil for a view-only session
// over a loaded trace file.
func NewSession(config *capture.Config) *Session {
	table := itm.NewChannelTable()
	store := trace.NewStore()
	queue := itm.NewPacketQueue(defaultQueueCapacity)

	s := &Session{
		Table:       table,
		Queue:       queue,
		Reassembler: itm.NewReassembler(itm.DefaultReassemblerOptions()),
		Store:       store,
		Assembler:   trace.NewAssembler(store, table, trace.DefaultAssemblerOptions()),
		Timeline:    timeline.NewAggregator(),
		Profiler:    timeline.NewProfiler(make([]uint32, defaultProfileRange+1), defaultCodeBase),
		Matcher:     trace.WildcardMatcher{},
	}
	if config != nil {
		s.Capture = capture.New(config, queue)
	}
	return s
}

// Live reports whether this session has a capture source.
func (s *Session) Live() bool {
	return s.Capture != nil
}

// ProcessPending drains the packet queue through the reassembler and
// dispatches the decoded events. Never blocks; called from the UI tick and
// on queue notifications. Returns the number of packets consumed.
func (s *Session) ProcessPending() int {
	processed := 0
	var pkt itm.RawPacket
	for s.Queue.TryDequeue(&pkt) {
		processed++
		for _, ev := range s.Reassembler.Process(&pkt) {
			switch e := ev.(type) {
			case itm.PCSample:
				s.Profiler.AddSample(e.PC)
			default:
				// Channel chunks and invalid headers drive line assembly
				// and decoder resets; overflow marks are already counted.
				s.Assembler.Consume(ev)
			}
		}
	}
	return processed
}

// Clear drops all decoded data but keeps capture running.
func (s *Session) Clear() {
	s.Store.Clear()
	s.Profiler.Reset()
	s.Reassembler.Reset()
}
