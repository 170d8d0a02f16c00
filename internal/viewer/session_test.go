package viewer

import (
	"testing"
)

// One transport packet carrying "hi\n" on channel 0 plus a PC sample inside
// the default profiled range.
func testPacket() []byte {
	return []byte{
		0x01, 'h',
		0x01, 'i',
		0x01, '\n',
		0x17, 0x10, 0x00, 0x00, 0x08, // PC 0x08000010
	}
}

func TestSessionPipeline(t *testing.T) {
	s := NewSession(nil)

	if s.Live() {
		t.Fatal("session without a config should not be live")
	}

	if !s.Queue.Enqueue(testPacket(), 0.5) {
		t.Fatal("enqueue failed")
	}
	if got := s.ProcessPending(); got != 1 {
		t.Fatalf("ProcessPending = %d, want 1", got)
	}

	if got := s.Store.Len(); got != 1 {
		t.Fatalf("store has %d lines, want 1", got)
	}
	if got := s.Store.At(0).String(); got != "hi" {
		t.Errorf("line text = %q, want %q", got, "hi")
	}
	if s.Store.At(0).Open() {
		t.Error("terminated line should be closed")
	}

	if got := s.Profiler.Samples(); got != 1 {
		t.Fatalf("profiler saw %d samples, want 1", got)
	}
	if got := s.Profiler.Histogram[0x10]; got != 1 {
		t.Errorf("histogram[0x10] = %d, want 1", got)
	}

	s.Clear()
	if s.Store.Len() != 0 {
		t.Error("clear should empty the store")
	}
	if s.Profiler.Samples() != 0 {
		t.Error("clear should reset the profiler")
	}
}

func TestSessionProcessPendingEmptyQueue(t *testing.T) {
	s := NewSession(nil)
	if got := s.ProcessPending(); got != 0 {
		t.Fatalf("ProcessPending on empty queue = %d, want 0", got)
	}
}
