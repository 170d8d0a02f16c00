package itm

import "sync/atomic"

// MaxPacketSize is the largest transport read that fits in one queue slot.
// USB bulk transfers from SWO probes arrive in chunks of at most 64 bytes.
const MaxPacketSize = 64

// RawPacket is one timestamped transport read. Immutable once enqueued.
type RawPacket struct {
	Data      [MaxPacketSize]byte
	Len       int
	Timestamp float64 // seconds, monotonic from capture start
}

func (p *RawPacket) Bytes() []byte {
	return p.Data[:p.Len]
}

// PacketQueue is a bounded single-producer single-consumer ring. The capture
// goroutine owns tail, the decode side owns head; the atomic stores publish
// each side's index to the other. When full the newest packet is dropped and
// counted, never blocked on.
type PacketQueue struct {
	slots    []RawPacket
	head     atomic.Uint32 // next slot to dequeue, consumer-owned
	tail     atomic.Uint32 // next slot to fill, producer-owned
	overflow atomic.Uint64
	notify   chan struct{}
}

func NewPacketQueue(capacity int) *PacketQueue {
	if capacity < 1 {
		capacity = 1
	}
	// One slot stays empty so a full queue is distinguishable from an empty
	// one without touching the other side's index.
	return &PacketQueue{
		slots:  make([]RawPacket, capacity+1),
		notify: make(chan struct{}, 1),
	}
}

// Enqueue copies b into the queue. Returns false when the queue is full; the
// packet is dropped and the overflow counter incremented. Producer side only.
func (q *PacketQueue) Enqueue(b []byte, timestamp float64) bool {
	tail := q.tail.Load()
	next := (tail + 1) % uint32(len(q.slots))
	if next == q.head.Load() {
		q.overflow.Add(1)
		return false
	}

	slot := &q.slots[tail]
	slot.Len = copy(slot.Data[:], b)
	slot.Timestamp = timestamp
	q.tail.Store(next)

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue copies the oldest packet into out. Never blocks. Consumer side
// only.
func (q *PacketQueue) TryDequeue(out *RawPacket) bool {
	head := q.head.Load()
	if head == q.tail.Load() {
		return false
	}
	*out = q.slots[head]
	q.head.Store((head + 1) % uint32(len(q.slots)))
	return true
}

// Notify is signalled after each enqueue. The channel is 1-buffered and the
// send non-blocking, so a reader drains the queue on each wakeup rather than
// counting signals.
func (q *PacketQueue) Notify() <-chan struct{} {
	return q.notify
}

func (q *PacketQueue) Overflows() uint64 {
	return q.overflow.Load()
}

// ResetOverflows clears the overflow counter. Only meaningful while capture
// is running.
func (q *PacketQueue) ResetOverflows() {
	q.overflow.Store(0)
}

func (q *PacketQueue) Capacity() int {
	return len(q.slots) - 1
}
