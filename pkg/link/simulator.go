package link

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/ericogr/sensecap-to-mqtt/pkg/cobs"
	"github.com/ericogr/sensecap-to-mqtt/pkg/packet"
	"github.com/ericogr/sensecap-to-mqtt/pkg/timeutil"
)

// DefaultSimulatorInterval is how often the simulator emits a packet burst.
const DefaultSimulatorInterval = 2 * time.Second

type walk struct {
	value, step, min, max float32
}

// Simulator is a Port that behaves like the sensor co-processor: every
// interval it emits one COBS framed packet per known type, with values
// drifting randomly inside plausible ranges.
type Simulator struct {
	clock    timeutil.Clock
	interval time.Duration
	next     time.Time
	pending  []byte
	walks    map[packet.Type]*walk
	rnd      *rand.Rand
	closed   bool
	mu       sync.Mutex
}

func NewSimulator(clock timeutil.Clock, interval time.Duration, seed int64) *Simulator {
	if interval <= 0 {
		interval = DefaultSimulatorInterval
	}
	return &Simulator{
		clock:    clock,
		interval: interval,
		rnd:      rand.New(rand.NewSource(seed)),
		walks: map[packet.Type]*walk{
			packet.SCD41Temperature: {value: 22.8, step: 0.2, min: 15, max: 35},
			packet.SCD41Humidity:    {value: 44, step: 0.5, min: 20, max: 80},
			packet.SCD41CO2:         {value: 650, step: 15, min: 400, max: 2500},
			packet.AHT20Temperature: {value: 22.5, step: 0.2, min: 15, max: 35},
			packet.AHT20Humidity:    {value: 45, step: 0.5, min: 20, max: 80},
			packet.SGP40TVOC:        {value: 100, step: 5, min: 0, max: 500},
		},
	}
}

func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if len(s.pending) == 0 {
		now := s.clock.Now()
		if now.Before(s.next) {
			return 0, nil
		}
		s.pending = s.burst()
		s.next = now.Add(s.interval)
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Write accepts and drops commands; the co-processor never answers them.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Simulator) burst() []byte {
	var out []byte
	for _, t := range packet.Types {
		w := s.walks[t]
		w.value += (s.rnd.Float32()*2 - 1) * w.step
		if w.value < w.min {
			w.value = w.min
		}
		if w.value > w.max {
			w.value = w.max
		}
		b, _ := packet.Packet{Type: t, Value: w.value}.MarshalBinary()
		out = append(out, cobs.Encode(b)...)
		out = append(out, cobs.Delimiter)
	}
	return out
}
