// Package report formats the sensor state for the display and the broker.
package report

import (
	"fmt"

	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
	"github.com/ericogr/sensecap-to-mqtt/pkg/sensor"
	"github.com/rs/zerolog"
)

// StateTopicFmt is filled with the device hostname and the field name.
const StateTopicFmt = "hasp/%s/state/%s"

// Field describes how one reading is shown and published.
type Field struct {
	// Name is the canonical field name used in topics.
	Name string
	// Ref is the display object showing the value.
	Ref output.Ref
	// Precision is the number of decimals for both display and payload.
	Precision int
	// Unit is appended to the display text only.
	Unit  string
	Value func(*sensor.State) float32
}

// DisplayText renders v with its unit.
func (f Field) DisplayText(v float32) string {
	return fmt.Sprintf("%.*f%s", f.Precision, v, f.Unit)
}

// Payload renders v as a bare number.
func (f Field) Payload(v float32) string {
	return fmt.Sprintf("%.*f", f.Precision, v)
}

// DefaultRefs maps field names to the display tags of the stock layout.
var DefaultRefs = map[string]string{
	"temperature": "temp",
	"humidity":    "humid",
	"co2":         "co2",
	"tvoc":        "tvoc",
}

// Fields returns the reported fields in display order. refs overrides
// DefaultRefs per field name; each reference is resolved once here.
func Fields(refs map[string]string) []Field {
	ref := func(name string) output.Ref {
		if s, ok := refs[name]; ok && s != "" {
			return output.ParseRef(s)
		}
		return output.ParseRef(DefaultRefs[name])
	}
	return []Field{
		{Name: "temperature", Ref: ref("temperature"), Precision: 1, Unit: "°C",
			Value: func(s *sensor.State) float32 { return s.Temperature }},
		{Name: "humidity", Ref: ref("humidity"), Precision: 1, Unit: "%",
			Value: func(s *sensor.State) float32 { return s.Humidity }},
		{Name: "co2", Ref: ref("co2"), Precision: 0, Unit: " ppm",
			Value: func(s *sensor.State) float32 { return s.CO2 }},
		{Name: "tvoc", Ref: ref("tvoc"), Precision: 0, Unit: " ppb",
			Value: func(s *sensor.State) float32 { return s.TVOC }},
	}
}

// Reporter pushes the current state out through the display and messaging
// sinks. Either sink may be nil.
type Reporter struct {
	state     *sensor.State
	fields    []Field
	display   output.Display
	messaging output.Messaging
	hostname  string
	log       zerolog.Logger
}

func NewReporter(state *sensor.State, fields []Field, display output.Display, messaging output.Messaging, hostname string, log zerolog.Logger) *Reporter {
	return &Reporter{
		state:     state,
		fields:    fields,
		display:   display,
		messaging: messaging,
		hostname:  hostname,
		log:       log,
	}
}

// Tick refreshes the display and, when connected, publishes every field.
func (r *Reporter) Tick() {
	r.Display()
	r.Publish()
}

// Display writes every field to its display object.
func (r *Reporter) Display() {
	if r.display == nil {
		return
	}
	for _, f := range r.fields {
		text := f.DisplayText(f.Value(r.state))
		if err := r.display.SetText(f.Ref, text); err != nil {
			r.log.Error().Err(err).Str("ref", f.Ref.Selector()).Msg("display update failed")
		}
	}
}

// Publish sends every field as a retained message. It does nothing while the
// messaging sink is disconnected.
func (r *Reporter) Publish() {
	if r.messaging == nil || !r.messaging.IsConnected() {
		return
	}
	for _, f := range r.fields {
		topic := StateTopic(r.hostname, f.Name)
		payload := f.Payload(f.Value(r.state))
		if err := r.messaging.Publish(topic, []byte(payload), true); err != nil {
			r.log.Error().Err(err).Str("topic", topic).Msg("state publish failed")
		}
	}
}

// StateTopic returns the retained state topic of field on device hostname.
func StateTopic(hostname, field string) string {
	return fmt.Sprintf(StateTopicFmt, hostname, field)
}
