package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
	"github.com/ericogr/sensecap-to-mqtt/pkg/sensor"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type textCall struct {
	Ref  string
	Text string
}

type recordingDisplay struct {
	calls []textCall
	err   error
}

func (d *recordingDisplay) SetText(ref output.Ref, text string) error {
	d.calls = append(d.calls, textCall{Ref: ref.Selector(), Text: text})
	return d.err
}

type pubCall struct {
	Topic   string
	Payload string
	Retain  bool
}

type recordingMessaging struct {
	connected bool
	calls     []pubCall
	err       error
}

func (m *recordingMessaging) IsConnected() bool { return m.connected }

func (m *recordingMessaging) Publish(topic string, payload []byte, retain bool) error {
	m.calls = append(m.calls, pubCall{Topic: topic, Payload: string(payload), Retain: retain})
	return m.err
}

func TestTickDisplaysAndPublishes(t *testing.T) {
	st := &sensor.State{Temperature: 23.5, Humidity: 41.26, CO2: 812, TVOC: 96.6}
	d := &recordingDisplay{}
	m := &recordingMessaging{connected: true}
	r := NewReporter(st, Fields(nil), d, m, "plate", zerolog.Nop())

	r.Tick()

	wantText := []textCall{
		{"#temp", "23.5°C"},
		{"#humid", "41.3%"},
		{"#co2", "812 ppm"},
		{"#tvoc", "97 ppb"},
	}
	if diff := cmp.Diff(wantText, d.calls); diff != "" {
		t.Fatalf("display mismatch (-want +got):\n%s", diff)
	}
	wantPub := []pubCall{
		{"hasp/plate/state/temperature", "23.5", true},
		{"hasp/plate/state/humidity", "41.3", true},
		{"hasp/plate/state/co2", "812", true},
		{"hasp/plate/state/tvoc", "97", true},
	}
	if diff := cmp.Diff(wantPub, m.calls); diff != "" {
		t.Fatalf("publish mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsBeforeFirstReading(t *testing.T) {
	d := &recordingDisplay{}
	NewReporter(&sensor.State{}, Fields(nil), d, nil, "plate", zerolog.Nop()).Tick()
	want := []string{"0.0°C", "0.0%", "0 ppm", "0 ppb"}
	for i, c := range d.calls {
		assert.Equal(t, want[i], c.Text)
	}
}

func TestPublishSkippedWhileDisconnected(t *testing.T) {
	m := &recordingMessaging{}
	NewReporter(&sensor.State{CO2: 812}, Fields(nil), nil, m, "plate", zerolog.Nop()).Tick()
	assert.Empty(t, m.calls)
}

func TestFieldsRefOverrides(t *testing.T) {
	fields := Fields(map[string]string{"temperature": "p0b8", "co2": "air", "tvoc": ""})
	got := map[string]output.Ref{}
	for _, f := range fields {
		got[f.Name] = f.Ref
	}
	assert.Equal(t, output.Coordinate("p0b8"), got["temperature"])
	assert.Equal(t, output.Tag("humid"), got["humidity"])
	assert.Equal(t, output.Tag("air"), got["co2"])
	assert.Equal(t, output.Tag("tvoc"), got["tvoc"])
}

func TestSinkErrorsAreLoggedAndTickContinues(t *testing.T) {
	var buf bytes.Buffer
	d := &recordingDisplay{err: errors.New("panel gone")}
	m := &recordingMessaging{connected: true, err: errors.New("broker gone")}
	NewReporter(&sensor.State{}, Fields(nil), d, m, "plate", zerolog.New(&buf)).Tick()

	assert.Len(t, d.calls, 4)
	assert.Len(t, m.calls, 4)
	assert.Contains(t, buf.String(), "display update failed")
	assert.Contains(t, buf.String(), `"topic":"hasp/plate/state/co2"`)
}

func TestStateTopic(t *testing.T) {
	assert.Equal(t, "hasp/indicator-1/state/co2", StateTopic("indicator-1", "co2"))
}
