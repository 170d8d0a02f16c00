// Package capture owns the trace transport and the real-time read loop that
// feeds the packet queue. Everything else in the pipeline runs on the
// consumer side; the queue is the only structure shared with this package's
// goroutine.
package capture

import (
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/mabhi256/swotrace/internal/itm"
)

const (
	transientBackoff = 20 * time.Millisecond

	// Consecutive non-timeout read failures before the transport is
	// declared dead.
	maxConsecutiveErrors = 5
)

// Capture runs the blocking read loop on its own goroutine: read, timestamp,
// enqueue. Stop is cooperative: a flag checked each iteration, then a join;
// the transport handle is released only after the loop has fully exited, so
// the goroutine can never be left holding a freed handle.
type Capture struct {
	config *Config
	queue  *itm.PacketQueue

	// openTransport is swappable for tests; nil means open().
	openTransport func(*Config) (Transport, error)

	transport Transport
	epoch     time.Time
	stop      atomic.Bool
	done      chan struct{}
	running   bool

	packets atomic.Uint64
	bytes   atomic.Uint64
	lastErr atomic.Value // error string, for the status line
}

func New(config *Config, queue *itm.PacketQueue) *Capture {
	return &Capture{config: config, queue: queue}
}

// Start opens the transport and begins the read loop. Open failures are
// classified (ErrNoDevice, ErrNoInterface, ErrAccessDenied,
// ErrEndpointNotFound) and nothing is retried here.
func (c *Capture) Start() error {
	if c.running {
		return ErrAlreadyRunning
	}

	openFn := c.openTransport
	if openFn == nil {
		openFn = open
	}
	transport, err := openFn(c.config)
	if err != nil {
		return err
	}

	c.transport = transport
	c.epoch = time.Now()
	c.stop.Store(false)
	c.done = make(chan struct{})
	c.running = true
	c.lastErr.Store("")

	go c.readLoop()
	return nil
}

// Stop requests the read loop to exit, joins it, and only then closes the
// transport. Safe to call from the consumer side, and idempotent.
func (c *Capture) Stop() {
	if !c.running {
		return
	}
	c.stop.Store(true)
	<-c.done
	c.transport.Close()
	c.transport = nil
	c.running = false
}

// Running reports whether the read loop is alive. False once the loop gave
// up on a fatal transport error, even before Stop releases the transport.
func (c *Capture) Running() bool {
	if !c.running {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Capture) Config() *Config {
	return c.config
}

// Uptime is the time since capture started.
func (c *Capture) Uptime() time.Duration {
	if c.epoch.IsZero() {
		return 0
	}
	return time.Since(c.epoch)
}

// Packets is the number of transport reads enqueued so far.
func (c *Capture) Packets() uint64 { return c.packets.Load() }

// Bytes is the number of payload bytes read so far.
func (c *Capture) Bytes() uint64 { return c.bytes.Load() }

// LastError describes why the read loop gave up, or "" while healthy.
func (c *Capture) LastError() string {
	s, _ := c.lastErr.Load().(string)
	return s
}

func (c *Capture) readLoop() {
	defer close(c.done)

	buf := make([]byte, itm.MaxPacketSize)
	consecutive := 0

	for !c.stop.Load() {
		n, err := c.transport.Read(buf)
		if n > 0 {
			ts := time.Since(c.epoch).Seconds()
			c.queue.Enqueue(buf[:n], ts)
			c.packets.Add(1)
			c.bytes.Add(uint64(n))
			consecutive = 0
		}
		if err == nil {
			continue
		}

		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// Idle transport; the timeout already paced the loop.
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			c.lastErr.Store("transport closed: " + err.Error())
			return
		}

		consecutive++
		if consecutive >= maxConsecutiveErrors {
			c.lastErr.Store("transport failed: " + err.Error())
			return
		}
		time.Sleep(transientBackoff)
	}
}
