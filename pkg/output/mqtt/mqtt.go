package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ericogr/sensecap-to-mqtt/pkg/config"
	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
	"github.com/rs/zerolog"
)

const (
	// defaults
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "sensecap-bridge"
	// openHASP listens for command lines on this topic
	commandTopicFmt = "hasp/%s/command"

	defaultConnectTimeout = 5 * time.Second
	defaultRetryInterval  = 10 * time.Second
	defaultPublishTimeout = 250 * time.Millisecond
	disconnectQuiesceMs   = 250
)

var (
	ErrPublishTimeout = errors.New("mqtt publish timed out")
	ErrNotConnected   = errors.New("mqtt not connected")
)

// MQTTOutput publishes sensor state to a broker and can forward display
// commands to an openHASP panel listening on the same broker.
type MQTTOutput struct {
	client       mqtt.Client
	qos          byte
	commandTopic string
	timeout      time.Duration
}

// NewMQTT connects to the broker described by cfg. The client keeps retrying
// in the background, so an unreachable broker at startup is only logged.
func NewMQTT(cfg config.MQTTConfig, hostname string, log zerolog.Logger) (*MQTTOutput, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos %d: must be 0, 1 or 2", cfg.QoS)
	}
	connectTimeout := time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	retryInterval := time.Duration(cfg.ConnectRetryIntervalMs) * time.Millisecond
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}

	routeLogs(log)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Server).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info().Str("server", cfg.Server).Msg("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn().Str("server", cfg.Server).Msg("mqtt broker not reachable yet, retrying in background")
	} else if token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return New(client, cfg.QoS, hostname), nil
}

// New wraps an existing client.
func New(client mqtt.Client, qos byte, hostname string) *MQTTOutput {
	return &MQTTOutput{
		client:       client,
		qos:          qos,
		commandTopic: fmt.Sprintf(commandTopicFmt, hostname),
		timeout:      defaultPublishTimeout,
	}
}

// IsConnected reports whether the broker connection is up. paho's own
// IsConnected is also true while it is still retrying, so this asks for an
// open connection instead.
func (m *MQTTOutput) IsConnected() bool {
	return m.client != nil && m.client.IsConnectionOpen()
}

// Publish publishes a raw payload to the given topic. The caller can set the
// retain flag so late subscribers get the last value. Nothing is queued while
// the connection is down, and QoS 0 publishes do not wait for the network.
func (m *MQTTOutput) Publish(topic string, payload []byte, retained bool) error {
	if !m.IsConnected() {
		return fmt.Errorf("%s: %w", topic, ErrNotConnected)
	}
	token := m.client.Publish(topic, m.qos, retained, payload)
	if m.qos == 0 {
		select {
		case <-token.Done():
			return token.Error()
		default:
			return nil
		}
	}
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	return token.Error()
}

// SetText sends a text command for ref to the panel's command topic. Commands
// are dropped with ErrNotConnected while the broker is unreachable.
func (m *MQTTOutput) SetText(ref output.Ref, text string) error {
	return m.Publish(m.commandTopic, []byte(output.Command(ref, text)), false)
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

// pahoLogger forwards the client library's internal logs to zerolog.
type pahoLogger struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (l pahoLogger) Println(v ...interface{}) {
	l.log.WithLevel(l.level).Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.log.WithLevel(l.level).Msgf(format, v...)
}

func routeLogs(log zerolog.Logger) {
	log = log.With().Str("component", "paho").Logger()
	mqtt.CRITICAL = pahoLogger{log: log, level: zerolog.ErrorLevel}
	mqtt.ERROR = pahoLogger{log: log, level: zerolog.ErrorLevel}
	mqtt.WARN = pahoLogger{log: log, level: zerolog.WarnLevel}
	mqtt.DEBUG = pahoLogger{log: log, level: zerolog.TraceLevel}
}
