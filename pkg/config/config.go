package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericogr/sensecap-to-mqtt/pkg/link"
	"github.com/ericogr/sensecap-to-mqtt/pkg/report"
	"gopkg.in/yaml.v2"
)

const (
	SensorReal       = "real"
	SensorSimulation = "simulation"

	DisplayConsole = "console"
	DisplayMQTT    = "mqtt"
	DisplayNone    = "none"

	// openHASP's factory hostname
	defaultHostname = "plate"
)

type MQTTConfig struct {
	Server           string `json:"server" yaml:"server"`
	Username         string `json:"username" yaml:"username"`
	Password         string `json:"password" yaml:"password"`
	ClientID         string `json:"client_id" yaml:"client_id"`
	QoS              byte   `json:"qos" yaml:"qos"`
	ConnectTimeoutMs int    `json:"connect_timeout_ms" yaml:"connect_timeout_ms"`

	// delay between reconnect attempts while the broker is unreachable
	ConnectRetryIntervalMs int `json:"connect_retry_interval_ms,omitempty" yaml:"connect_retry_interval_ms,omitempty"`
}

type SerialConfig struct {
	Port          string `json:"port" yaml:"port"`
	BaudRate      int    `json:"baud_rate" yaml:"baud_rate"`
	DataBits      int    `json:"data_bits" yaml:"data_bits"`
	StopBits      int    `json:"stop_bits" yaml:"stop_bits"`
	Parity        string `json:"parity" yaml:"parity"`
	ReadTimeoutMs int    `json:"read_timeout_ms" yaml:"read_timeout_ms"`
}

// Options returns the line settings of the serial port.
func (s SerialConfig) Options() link.PortOptions {
	return link.PortOptions{BaudRate: s.BaudRate, DataBits: s.DataBits, StopBits: s.StopBits, Parity: s.Parity}
}

type DisplayConfig struct {
	Type string `json:"type" yaml:"type"`
	// Refs overrides the display object of a field, e.g. "temperature": "p0b8".
	Refs map[string]string `json:"refs,omitempty" yaml:"refs,omitempty"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	Pretty     bool   `json:"pretty" yaml:"pretty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

type Config struct {
	SensorType          string        `json:"sensor_type" yaml:"sensor_type"`
	Serial              SerialConfig  `json:"serial" yaml:"serial"`
	Hostname            string        `json:"hostname" yaml:"hostname"`
	MQTT                *MQTTConfig   `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	Display             DisplayConfig `json:"display" yaml:"display"`
	StaleTimeoutMs      int           `json:"stale_timeout_ms" yaml:"stale_timeout_ms"`
	ReportIntervalMs    int           `json:"report_interval_ms" yaml:"report_interval_ms"`
	MaxFrameSize        int           `json:"max_frame_size" yaml:"max_frame_size"`
	SimulatorIntervalMs int           `json:"simulator_interval_ms" yaml:"simulator_interval_ms"`
	Log                 LogConfig     `json:"log" yaml:"log"`
}

func DefaultConfig() Config {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = defaultHostname
	}
	return Config{
		SensorType: SensorReal,
		Serial: SerialConfig{
			Port:          "/dev/ttyS1",
			BaudRate:      115200,
			DataBits:      8,
			StopBits:      1,
			Parity:        "N",
			ReadTimeoutMs: 10,
		},
		Hostname:            hostname,
		Display:             DisplayConfig{Type: DisplayConsole},
		StaleTimeoutMs:      30000,
		ReportIntervalMs:    1000,
		MaxFrameSize:        256,
		SimulatorIntervalMs: 2000,
		Log:                 LogConfig{Level: "info"},
	}
}

// LoadFromFlags loads configuration from the process command line.
func LoadFromFlags() (Config, error) {
	return Load(os.Args[1:])
}

// Load reads an optional JSON or YAML config file and then applies flags.
// Flags override values present in the file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("sensecap-to-mqtt", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to JSON or YAML config file")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagSerialPort := fs.String("serial-port", "", "Serial device connected to the sensor co-processor")
	flagBaudRate := fs.Int("baud-rate", -1, "Serial baud rate")
	flagHostname := fs.String("hostname", "", "Device hostname used in MQTT topics")
	flagMQTTServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := fs.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := fs.String("mqtt-pass", "", "MQTT password")
	flagClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	flagQoS := fs.Int("mqtt-qos", -1, "MQTT publish QoS (0-2)")
	flagDisplay := fs.String("display", "", "display sink: console|mqtt|none")
	flagDisplayRefs := fs.String("display-refs", "", "Display objects per field e.g. temperature=p0b8,co2=co2")
	flagStale := fs.Int("stale-timeout-ms", -1, "Warn when no packet arrives for this long")
	flagReport := fs.Int("report-interval-ms", -1, "Display/publish interval in ms")
	flagLogLevel := fs.String("log-level", "", "Log level: trace|debug|info|warn|error")
	flagLogFile := fs.String("log-file", "", "Write logs to this file, rotated")
	flagLogPretty := fs.Bool("log-pretty", false, "Human readable console logs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		if err := loadFile(*cfgPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagSerialPort != "" {
		cfg.Serial.Port = *flagSerialPort
	}
	if *flagBaudRate != -1 {
		cfg.Serial.BaudRate = *flagBaudRate
	}
	if *flagHostname != "" {
		cfg.Hostname = *flagHostname
	}
	// mqtt flags create the mqtt section when the file has none
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagQoS != -1 {
		if cfg.MQTT == nil {
			cfg.MQTT = &MQTTConfig{}
		}
		if *flagMQTTServer != "" {
			cfg.MQTT.Server = *flagMQTTServer
		}
		if *flagMQTTUser != "" {
			cfg.MQTT.Username = *flagMQTTUser
		}
		if *flagMQTTPass != "" {
			cfg.MQTT.Password = *flagMQTTPass
		}
		if *flagClientID != "" {
			cfg.MQTT.ClientID = *flagClientID
		}
		if *flagQoS != -1 {
			if *flagQoS < 0 || *flagQoS > 2 {
				return cfg, fmt.Errorf("mqtt-qos %d: must be 0, 1 or 2", *flagQoS)
			}
			cfg.MQTT.QoS = byte(*flagQoS)
		}
	}
	if *flagDisplay != "" {
		cfg.Display.Type = *flagDisplay
	}
	if *flagDisplayRefs != "" {
		refs, err := parseKeyStringMap(*flagDisplayRefs)
		if err != nil {
			return cfg, fmt.Errorf("display-refs: %w", err)
		}
		if cfg.Display.Refs == nil {
			cfg.Display.Refs = map[string]string{}
		}
		for k, v := range refs {
			cfg.Display.Refs[k] = v
		}
	}
	if *flagStale != -1 {
		cfg.StaleTimeoutMs = *flagStale
	}
	if *flagReport != -1 {
		cfg.ReportIntervalMs = *flagReport
	}
	if *flagLogLevel != "" {
		cfg.Log.Level = *flagLogLevel
	}
	if *flagLogFile != "" {
		cfg.Log.File = *flagLogFile
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "log-pretty" {
			cfg.Log.Pretty = *flagLogPretty
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted downstream.
func (c Config) Validate() error {
	switch c.SensorType {
	case SensorReal:
		if c.Serial.Port == "" {
			return errors.New("serial port is required for sensor type real")
		}
		if _, err := c.Serial.Options().Normalize(); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
	case SensorSimulation:
	default:
		return fmt.Errorf("unknown sensor type %q", c.SensorType)
	}
	switch c.Display.Type {
	case DisplayConsole, DisplayNone:
	case DisplayMQTT:
		if c.MQTT == nil {
			return errors.New("display type mqtt requires an mqtt section")
		}
	default:
		return fmt.Errorf("unknown display type %q", c.Display.Type)
	}
	for field := range c.Display.Refs {
		if _, ok := report.DefaultRefs[field]; !ok {
			return fmt.Errorf("display ref for unknown field %q", field)
		}
	}
	if c.MQTT != nil && c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos %d: must be 0, 1 or 2", c.MQTT.QoS)
	}
	if c.Hostname == "" {
		return errors.New("hostname must not be empty")
	}
	if c.StaleTimeoutMs <= 0 {
		return errors.New("stale-timeout-ms must be > 0")
	}
	if c.ReportIntervalMs <= 0 {
		return errors.New("report-interval-ms must be > 0")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func parseKeyStringMap(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid entry '%s': expected key=value", p)
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			return nil, fmt.Errorf("invalid entry '%s': empty key or value", p)
		}
		out[k] = v
	}
	return out, nil
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
