package itm

import (
	"sync"
	"testing"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewPacketQueue(4)

	if !q.Enqueue([]byte{1, 2, 3}, 0.5) {
		t.Fatal("enqueue into empty queue failed")
	}

	var pkt RawPacket
	if !q.TryDequeue(&pkt) {
		t.Fatal("dequeue after enqueue failed")
	}
	if pkt.Len != 3 || pkt.Data[0] != 1 || pkt.Data[2] != 3 {
		t.Errorf("dequeued packet = %v (len %d), want [1 2 3]", pkt.Data[:pkt.Len], pkt.Len)
	}
	if pkt.Timestamp != 0.5 {
		t.Errorf("timestamp = %v, want 0.5", pkt.Timestamp)
	}

	if q.TryDequeue(&pkt) {
		t.Error("dequeue from empty queue succeeded")
	}
}

func TestQueueOverflowCount(t *testing.T) {
	const capacity = 8
	const attempts = 100

	q := NewPacketQueue(capacity)
	for i := 0; i < attempts; i++ {
		q.Enqueue([]byte{byte(i)}, float64(i))
	}

	if got, want := q.Overflows(), uint64(attempts-capacity); got != want {
		t.Errorf("overflow count = %d, want %d", got, want)
	}

	// Exactly the first `capacity` packets survive, in order.
	var pkt RawPacket
	for i := 0; i < capacity; i++ {
		if !q.TryDequeue(&pkt) {
			t.Fatalf("dequeue %d failed", i)
		}
		if pkt.Data[0] != byte(i) {
			t.Errorf("packet %d payload = %d, want %d", i, pkt.Data[0], i)
		}
	}
	if q.TryDequeue(&pkt) {
		t.Error("queue had more than capacity packets")
	}

	q.ResetOverflows()
	if q.Overflows() != 0 {
		t.Error("overflow count survived reset")
	}
}

func TestQueueTruncatesOversizedRead(t *testing.T) {
	q := NewPacketQueue(2)
	big := make([]byte, MaxPacketSize+16)
	q.Enqueue(big, 0)

	var pkt RawPacket
	if !q.TryDequeue(&pkt) {
		t.Fatal("dequeue failed")
	}
	if pkt.Len != MaxPacketSize {
		t.Errorf("stored length = %d, want %d", pkt.Len, MaxPacketSize)
	}
}

// One producer, one consumer, no locks: every packet is either delivered in
// order or counted as an overflow.
func TestQueueConcurrentProducerConsumer(t *testing.T) {
	const total = 10000

	q := NewPacketQueue(64)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			var b [4]byte
			b[0] = byte(i)
			b[1] = byte(i >> 8)
			q.Enqueue(b[:], float64(i))
		}
	}()

	received := 0
	lastSeq := -1
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var pkt RawPacket
	for {
		if q.TryDequeue(&pkt) {
			seq := int(pkt.Data[0]) | int(pkt.Data[1])<<8
			// Sequence numbers wrap at 64K but total is below that.
			if seq <= lastSeq {
				t.Fatalf("out of order: %d after %d", seq, lastSeq)
			}
			lastSeq = seq
			received++
			continue
		}
		select {
		case <-done:
			if !q.TryDequeue(&pkt) {
				if received+int(q.Overflows()) != total {
					t.Errorf("received %d + overflow %d != %d", received, q.Overflows(), total)
				}
				return
			}
			seq := int(pkt.Data[0]) | int(pkt.Data[1])<<8
			if seq <= lastSeq {
				t.Fatalf("out of order: %d after %d", seq, lastSeq)
			}
			lastSeq = seq
			received++
		default:
		}
	}
}
