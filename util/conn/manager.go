// Package conn keeps a network connection to a metrics backend alive,
// redialing with backoff whenever a write reports it broken.
package conn

import (
	"net"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/kitmetrics/metrics/backoff"
)

// Dialer dials a network and address. net.Dial is a good default Dialer.
type Dialer func(network, address string) (net.Conn, error)

// Backoff schedules reconnect attempts. *backoff.ExponentialBackoff is the
// default.
type Backoff interface {
	// After returns a channel that fires when the next attempt may start.
	After() <-chan time.Time
	// Reset is called after a successful dial.
	Reset()
}

// Manager manages a net.Conn. Clients should take the conn when they want to
// use it, and put back whatever error they receive from an e.g. Write. When a
// non-nil error is put, the conn is invalidated and a new conn is established.
// Connection failures are retried after a backoff.
type Manager struct {
	dial    Dialer
	network string
	address string
	backoff Backoff
	logger  log.Logger

	takec chan net.Conn
	putc  chan error

	closeOnce sync.Once
	quitc     chan struct{}
	donec     chan struct{}
}

// Option sets an optional parameter for managers.
type Option func(*Manager)

// WithBackoff sets the reconnect schedule.
func WithBackoff(b Backoff) Option {
	return func(m *Manager) { m.backoff = b }
}

// WithLogger sets the logger dial and write failures are reported to. The
// default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager dials network/address and starts maintaining the connection.
// Call Close to release it.
func NewManager(d Dialer, network, address string, options ...Option) *Manager {
	m := &Manager{
		dial:    d,
		network: network,
		address: address,
		logger:  log.NewNopLogger(),

		takec: make(chan net.Conn),
		putc:  make(chan error),
		quitc: make(chan struct{}),
		donec: make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	if m.backoff == nil {
		m.backoff = backoff.New()
	}
	go m.loop()
	return m
}

// Take returns the current conn, which is nil while disconnected and after
// Close.
func (m *Manager) Take() net.Conn {
	select {
	case conn := <-m.takec:
		return conn
	case <-m.donec:
		return nil
	}
}

// Put reports the result of using the conn. A non-nil error invalidates it.
func (m *Manager) Put(err error) {
	select {
	case m.putc <- err:
	case <-m.donec:
	}
}

// Close stops reconnecting and closes the current conn.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.quitc) })
	<-m.donec
	return nil
}

func (m *Manager) loop() {
	defer close(m.donec)
	var (
		conn       = m.dialOnce() // may block slightly
		connc      = make(chan net.Conn, 1)
		reconnectc <-chan time.Time // initially nil
	)
	if conn == nil {
		reconnectc = m.backoff.After()
	}

	for {
		select {
		case <-reconnectc:
			reconnectc = nil
			go func() { connc <- m.dialOnce() }()

		case conn = <-connc:
			if conn == nil {
				reconnectc = m.backoff.After()
			} else {
				m.backoff.Reset()
				reconnectc = nil
			}

		case m.takec <- conn:
			// might be nil

		case err := <-m.putc:
			if err != nil && conn != nil {
				level.Warn(m.logger).Log("msg", "connection broken", "addr", m.address, "err", err)
				conn.Close()
				conn = nil                  // connection is bad
				reconnectc = closedTimeChan // trigger immediately
			}

		case <-m.quitc:
			if conn != nil {
				conn.Close()
			}
			return
		}
	}
}

func (m *Manager) dialOnce() net.Conn {
	conn, err := m.dial(m.network, m.address)
	if err != nil {
		level.Warn(m.logger).Log("msg", "dial failed", "addr", m.address, "err", err)
		return nil
	}
	return conn
}

var closedTimeChan = func() <-chan time.Time {
	c := make(chan time.Time)
	close(c)
	return c
}()
