// Package bridge wires the frame decoder, interpreter, staleness monitor and
// reporter into the host's lifecycle hooks and drives them from one loop.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericogr/sensecap-to-mqtt/pkg/cobs"
	"github.com/ericogr/sensecap-to-mqtt/pkg/link"
	"github.com/ericogr/sensecap-to-mqtt/pkg/report"
	"github.com/ericogr/sensecap-to-mqtt/pkg/sensor"
	"github.com/ericogr/sensecap-to-mqtt/pkg/timeutil"
	"github.com/rs/zerolog"
)

const (
	readBufferSize = 64
	idleSleep      = 5 * time.Millisecond
	slowTick       = 5 * time.Second
)

// Hooks are the calls a host scheduler makes into a custom module.
type Hooks interface {
	Setup() error
	Loop() error
	EverySecond()
	Every5Seconds()
	PinInUse(pin uint8) bool
	GetSensors(doc map[string]any)
	TopicPayload(topic, payload string, source uint8)
	StateSubtopic(subtopic, payload string)
}

// Options configure a Module.
type Options struct {
	MaxFrameSize   int
	StaleTimeout   time.Duration
	ReportInterval time.Duration
}

// Module is the sensor co-processor integration. It owns the sensor state;
// every method must be called from the same goroutine.
type Module struct {
	port     link.Port
	clock    timeutil.Clock
	uptime   *timeutil.Uptime
	decoder  *cobs.Decoder
	state    *sensor.State
	interp   *sensor.Interpreter
	monitor  *sensor.Monitor
	reporter *report.Reporter
	interval time.Duration
	buf      []byte
	log      zerolog.Logger
}

var _ Hooks = (*Module)(nil)

// New builds a Module reading from port. reporter must read from state.
func New(port link.Port, clock timeutil.Clock, state *sensor.State, reporter *report.Reporter, opts Options, log zerolog.Logger) *Module {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = time.Second
	}
	uptime := timeutil.NewUptime(clock)
	return &Module{
		port:     port,
		clock:    clock,
		uptime:   uptime,
		decoder:  cobs.NewDecoder(opts.MaxFrameSize),
		state:    state,
		interp:   sensor.NewInterpreter(state, uptime, log),
		monitor:  sensor.NewMonitor(state, opts.StaleTimeout, log),
		reporter: reporter,
		interval: opts.ReportInterval,
		buf:      make([]byte, readBufferSize),
		log:      log,
	}
}

// State returns the state owned by the module.
func (m *Module) State() *sensor.State { return m.state }

// Setup resets the decoder; the port is already open.
func (m *Module) Setup() error {
	m.decoder.Reset()
	m.log.Info().Msg("SenseCAP Indicator sensor integration initialized")
	return nil
}

// Loop drains the bytes available on the port, interprets every completed
// frame and checks for a silent link. It never waits for data.
func (m *Module) Loop() error {
	_, err := m.drain()
	return err
}

func (m *Module) drain() (int, error) {
	total := 0
	for {
		n, err := m.port.Read(m.buf)
		if n > 0 {
			total += n
			for _, frame := range m.decoder.Feed(m.buf[:n]) {
				m.interp.Interpret(frame)
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return total, fmt.Errorf("read sensor link: %w", err)
		}
		if n < len(m.buf) || err != nil {
			break
		}
	}
	m.monitor.Poll(m.uptime.Millis())
	return total, nil
}

// EverySecond refreshes the display and the retained state topics.
func (m *Module) EverySecond() {
	m.reporter.Tick()
}

// Every5Seconds has nothing to do yet.
func (m *Module) Every5Seconds() {}

// PinInUse reports whether the module claims a GPIO; the link is opened by
// the host, so none are.
func (m *Module) PinInUse(uint8) bool { return false }

// The module exposes no sensors to the host and consumes no host messages.
func (m *Module) GetSensors(map[string]any)          {}
func (m *Module) TopicPayload(string, string, uint8) {}
func (m *Module) StateSubtopic(string, string)       {}

// Run calls the hooks cooperatively until ctx is cancelled or the link fails.
func (m *Module) Run(ctx context.Context) error {
	if err := m.Setup(); err != nil {
		return err
	}
	tick := m.clock.NewTicker(m.interval)
	defer tick.Stop()
	slow := m.clock.NewTicker(slowTick)
	defer slow.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C():
			m.EverySecond()
		case <-slow.C():
			m.Every5Seconds()
		default:
		}

		n, err := m.drain()
		if err != nil {
			return err
		}
		if n == 0 {
			m.clock.Sleep(idleSleep)
		}
	}
}
