package graphite

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/kitmetrics/metrics/util/conn"
)

// ErrNotConnected is returned by Flush while the sender has no connection.
var ErrNotConnected = errors.New("not connected to graphite")

// Sender delivers plaintext-protocol lines to Graphite.
type Sender interface {
	// Send buffers one "path value timestamp" line.
	Send(path, value string, timestamp int64)
	// Flush writes the buffered lines. Buffered lines are dropped whether or
	// not the write succeeds.
	Flush() error
	// FailureCount returns how many flushes have failed.
	FailureCount() int64
	Close() error
}

// TCPSender is a Sender over a connection kept alive by a conn.Manager.
type TCPSender struct {
	mgr      *conn.Manager
	mtx      sync.Mutex
	buf      bytes.Buffer
	failures atomic.Int64
}

// NewTCPSender dials address over TCP with net.Dial.
func NewTCPSender(address string, options ...conn.Option) *TCPSender {
	return NewSender(net.Dial, "tcp", address, options...)
}

// NewSender is the same as NewTCPSender, but allows you to specify your own
// Dialer and network. This is primarily useful for tests.
func NewSender(dialer conn.Dialer, network, address string, options ...conn.Option) *TCPSender {
	return &TCPSender{mgr: conn.NewManager(dialer, network, address, options...)}
}

// Send implements Sender.
func (s *TCPSender) Send(path, value string, timestamp int64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	fmt.Fprintf(&s.buf, "%s %s %d\n", sanitize(path), value, timestamp)
}

// Flush implements Sender.
func (s *TCPSender) Flush() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	defer s.buf.Reset()

	c := s.mgr.Take()
	if c == nil {
		s.failures.Inc()
		return ErrNotConnected
	}
	_, err := c.Write(s.buf.Bytes())
	s.mgr.Put(err)
	if err != nil {
		s.failures.Inc()
		return errors.Wrap(err, "write to graphite")
	}
	return nil
}

// FailureCount implements Sender.
func (s *TCPSender) FailureCount() int64 { return s.failures.Load() }

// Close implements Sender.
func (s *TCPSender) Close() error { return s.mgr.Close() }

var _ Sender = (*TCPSender)(nil)

var pathReplacer = strings.NewReplacer(" ", "-", "\n", "-", "\t", "-")

func sanitize(path string) string { return pathReplacer.Replace(path) }
