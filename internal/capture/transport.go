package capture

import (
	"fmt"
	"io"
	"net"
	"time"
)

// Transport is a byte source for the capture loop. Reads must return within
// the configured read timeout; a timeout is reported as an error satisfying
// net.Error with Timeout() true.
type Transport interface {
	io.ReadCloser
}

// tcpTransport reads from an SWO-over-TCP bridge (e.g. an on-network debug
// probe). Every read gets a fresh deadline so a stalled bridge cannot wedge
// the capture loop.
type tcpTransport struct {
	conn    net.Conn
	timeout time.Duration
}

func dialTCP(config *Config) (Transport, error) {
	addr := net.JoinHostPort(config.Host, fmt.Sprintf("%d", config.Port))
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return &tcpTransport{conn: conn, timeout: config.readTimeout()}, nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	t.conn.SetReadDeadline(time.Now().Add(t.timeout))
	return t.conn.Read(p)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// open dials the transport selected by the config, classifying failures.
func open(config *Config) (Transport, error) {
	if config.USB {
		return openUSB(config)
	}
	if config.Host == "" {
		return nil, fmt.Errorf("%w: empty target", ErrNoDevice)
	}
	return dialTCP(config)
}
