package mqtt

import (
	"bytes"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ericogr/sensecap-to-mqtt/pkg/config"
	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
	"github.com/ericogr/sensecap-to-mqtt/pkg/report"
	"github.com/ericogr/sensecap-to-mqtt/pkg/sensor"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  string
}

type doneToken struct {
	err     error
	pending bool
}

func (t doneToken) Wait() bool                     { return !t.pending }
func (t doneToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

// fakeClient records publishes; methods the output never calls are left to
// the embedded nil interface.
type fakeClient struct {
	mqtt.Client
	connected    bool
	pubs         []published
	err          error
	pending      bool
	disconnected bool
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeClient) Disconnect(uint)        { c.disconnected = true }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.pubs = append(c.pubs, published{Topic: topic, QoS: qos, Retained: retained, Payload: string(payload.([]byte))})
	return doneToken{err: c.err, pending: c.pending}
}

func TestPublishRetained(t *testing.T) {
	c := &fakeClient{connected: true}
	m := New(c, 1, "plate")

	require.True(t, m.IsConnected())
	require.NoError(t, m.Publish("hasp/plate/state/co2", []byte("812"), true))

	want := []published{{Topic: "hasp/plate/state/co2", QoS: 1, Retained: true, Payload: "812"}}
	if diff := cmp.Diff(want, c.pubs); diff != "" {
		t.Fatalf("publishes mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishErrors(t *testing.T) {
	c := &fakeClient{connected: true, err: errors.New("connection reset")}
	m := New(c, 0, "plate")
	assert.EqualError(t, m.Publish("t", []byte("x"), false), "connection reset")

	c = &fakeClient{connected: true, pending: true}
	m = New(c, 1, "plate")
	m.timeout = time.Millisecond
	assert.ErrorIs(t, m.Publish("t", []byte("x"), false), ErrPublishTimeout)

	assert.ErrorIs(t, (&MQTTOutput{}).Publish("t", nil, false), ErrNotConnected)
	assert.False(t, (&MQTTOutput{}).IsConnected())
}

func TestPublishQoS0DoesNotWait(t *testing.T) {
	c := &fakeClient{connected: true, pending: true}
	m := New(c, 0, "plate")
	m.timeout = time.Hour

	require.NoError(t, m.Publish("hasp/plate/state/tvoc", []byte("120"), true))
	assert.Len(t, c.pubs, 1)
}

func TestDisconnectedDropsMessages(t *testing.T) {
	c := &fakeClient{}
	m := New(c, 1, "plate")

	assert.False(t, m.IsConnected())
	assert.ErrorIs(t, m.Publish("hasp/plate/state/co2", []byte("812"), true), ErrNotConnected)
	assert.ErrorIs(t, m.SetText(output.Tag("co2"), "812 ppm"), ErrNotConnected)
	assert.Empty(t, c.pubs)
}

func TestUnreachableBrokerDoesNotBlockReporting(t *testing.T) {
	log := zerolog.Nop()
	m, err := NewMQTT(config.MQTTConfig{
		Server:                 "tcp://127.0.0.1:1",
		ConnectTimeoutMs:       200,
		ConnectRetryIntervalMs: 50,
	}, "plate", log)
	require.NoError(t, err)
	defer m.Close()

	assert.False(t, m.IsConnected())

	state := &sensor.State{Temperature: 23.5, Humidity: 41, CO2: 812, TVOC: 120}
	rep := report.NewReporter(state, report.Fields(nil), m, m, "plate", log)
	start := time.Now()
	rep.Tick()
	assert.Less(t, time.Since(start), time.Second)
}

func TestSetTextUsesCommandTopic(t *testing.T) {
	c := &fakeClient{connected: true}
	m := New(c, 0, "plate")

	require.NoError(t, m.SetText(output.Tag("temp"), "23.5°C"))
	require.NoError(t, m.SetText(output.Coordinate("p0b8"), "41.0%"))

	want := []published{
		{Topic: "hasp/plate/command", Payload: `#temp.text="23.5°C"`},
		{Topic: "hasp/plate/command", Payload: `p0b8.text="41.0%"`},
	}
	if diff := cmp.Diff(want, c.pubs); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestClose(t *testing.T) {
	c := &fakeClient{}
	require.NoError(t, New(c, 0, "plate").Close())
	assert.True(t, c.disconnected)
}

func TestPahoLogger(t *testing.T) {
	var buf bytes.Buffer
	l := pahoLogger{log: zerolog.New(&buf), level: zerolog.WarnLevel}
	l.Println("[client]", "lost connection")
	l.Printf("retry in %d", 5)
	assert.Contains(t, buf.String(), `"message":"[client] lost connection"`)
	assert.Contains(t, buf.String(), `"message":"retry in 5"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
