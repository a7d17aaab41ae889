// Package netmon tracks network reachability as a single process-wide
// boolean. The value starts optimistically connected and is refreshed
// by a periodic probe; consumers read it synchronously or subscribe for
// change notifications.
package netmon

import (
	"context"
	"net"
	"sync"
	"time"
)

const (
	// DefaultProbeAddr is dialed to decide reachability.
	DefaultProbeAddr = "api.nytimes.com:443"

	defaultInterval    = 5 * time.Second
	defaultDialTimeout = 2 * time.Second
)

// Probe reports whether the network is currently reachable.
type Probe func(ctx context.Context) bool

// Monitor holds the current connectivity flag and a subscriber list.
type Monitor struct {
	probe    Probe
	interval time.Duration

	mu        sync.Mutex
	connected bool
	subs      map[int]chan bool
	nextSub   int
}

// New creates a monitor that dials addr on each probe tick.
func New(addr string, interval time.Duration) *Monitor {
	if addr == "" {
		addr = DefaultProbeAddr
	}
	return NewWithProbe(dialProbe(addr), interval)
}

// NewWithProbe creates a monitor with a custom probe, used in tests.
func NewWithProbe(probe Probe, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		probe:     probe,
		interval:  interval,
		connected: true,
		subs:      make(map[int]chan bool),
	}
}

// IsConnected returns the current connectivity flag.
func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Subscribe registers for change notifications. Each underlying change
// is surfaced as-is, no debouncing. The returned func unsubscribes.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan bool, 4)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Run probes until the context is cancelled. It blocks; callers start
// it in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.setConnected(m.probe(ctx))
		}
	}
}

func (m *Monitor) setConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == connected {
		return
	}
	m.connected = connected

	for _, ch := range m.subs {
		select {
		case ch <- connected:
		default:
			// Subscriber is not keeping up; it will read the
			// current value from IsConnected on its next turn.
		}
	}
}

func dialProbe(addr string) Probe {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	return func(ctx context.Context) bool {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}
