package sensor

import (
	"fmt"

	"github.com/ericogr/sensecap-to-mqtt/pkg/packet"
	"github.com/rs/zerolog"
)

// rawDumpLimit caps how many bytes of a frame are written to the debug log.
const rawDumpLimit = 16

// Result describes what Interpret did with a frame.
type Result int

const (
	// Rejected frames had the wrong size and changed nothing.
	Rejected Result = iota
	// Applied frames overwrote a State field.
	Applied
	// Ignored frames came from a known but unsurfaced sensor line.
	Ignored
	// Unknown frames carried an unrecognised type tag.
	Unknown
)

func (r Result) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Interpreter applies decoded frames to a State.
type Interpreter struct {
	state *State
	clock Clock
	log   zerolog.Logger
}

func NewInterpreter(state *State, clock Clock, log zerolog.Logger) *Interpreter {
	return &Interpreter{state: state, clock: clock, log: log}
}

// Interpret validates frame and updates the state. Every correctly sized frame
// refreshes LastArrival, whatever its type.
func (i *Interpreter) Interpret(frame []byte) Result {
	if e := i.log.Debug(); e.Enabled() {
		n := len(frame)
		if n > rawDumpLimit {
			n = rawDumpLimit
		}
		e.Msgf("RP RAW[%d]: % X", len(frame), frame[:n])
	}

	p, err := packet.Parse(frame)
	if err != nil {
		i.log.Error().Msgf("Invalid packet size: %d", len(frame))
		return Rejected
	}

	i.state.LastArrival = i.clock.Millis()

	switch p.Type {
	case packet.AHT20Temperature:
		i.state.Temperature = p.Value
	case packet.AHT20Humidity:
		i.state.Humidity = p.Value
	case packet.SGP40TVOC:
		i.state.TVOC = p.Value
	case packet.SCD41CO2:
		i.state.CO2 = p.Value
	case packet.SCD41Temperature, packet.SCD41Humidity:
		return Ignored
	default:
		i.log.Warn().Msgf("Unknown packet type: 0x%02X", byte(p.Type))
		return Unknown
	}
	return Applied
}
