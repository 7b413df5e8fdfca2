package sensor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is how long the link may stay silent before a warning.
const DefaultTimeout = 30 * time.Second

// Monitor warns once when no packet has arrived for longer than its timeout.
// It is armed by any packet that sets a nonzero LastArrival and disarms itself
// by resetting LastArrival to zero when it fires.
type Monitor struct {
	state   *State
	timeout uint32
	log     zerolog.Logger
}

// NewMonitor watches state. A non-positive timeout selects DefaultTimeout.
func NewMonitor(state *State, timeout time.Duration, log zerolog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{state: state, timeout: uint32(timeout.Milliseconds()), log: log}
}

// Armed reports whether a silence warning can still fire.
func (m *Monitor) Armed() bool {
	return m.state.LastArrival != 0
}

// Poll checks the silence window at uptime now and reports whether the
// warning fired. The subtraction wraps together with the uptime counter.
func (m *Monitor) Poll(now uint32) bool {
	if now-m.state.LastArrival <= m.timeout || m.state.LastArrival == 0 {
		return false
	}
	m.log.Warn().Msgf("No sensor data received for %s", m.window())
	m.state.LastArrival = 0
	return true
}

func (m *Monitor) window() string {
	if m.timeout%1000 == 0 {
		return fmt.Sprintf("%d+ seconds", m.timeout/1000)
	}
	return fmt.Sprintf("%d+ ms", m.timeout)
}
