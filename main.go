package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/sensecap-to-mqtt/pkg/bridge"
	"github.com/ericogr/sensecap-to-mqtt/pkg/config"
	"github.com/ericogr/sensecap-to-mqtt/pkg/link"
	"github.com/ericogr/sensecap-to-mqtt/pkg/logging"
	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
	"github.com/ericogr/sensecap-to-mqtt/pkg/output/console"
	mqttout "github.com/ericogr/sensecap-to-mqtt/pkg/output/mqtt"
	"github.com/ericogr/sensecap-to-mqtt/pkg/report"
	"github.com/ericogr/sensecap-to-mqtt/pkg/sensor"
	"github.com/ericogr/sensecap-to-mqtt/pkg/timeutil"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}
	defer logCloser.Close()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("bridge stopped")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	port, err := openPort(cfg, clock)
	if err != nil {
		return err
	}
	defer port.Close()

	outs, err := initOutputs(cfg, log, dialMQTT(log))
	if err != nil {
		return err
	}
	defer outs.Close()

	state := &sensor.State{}
	rep := report.NewReporter(state, report.Fields(cfg.Display.Refs), outs.display, outs.messaging, cfg.Hostname,
		log.With().Str("component", "report").Logger())
	module := bridge.New(port, clock, state, rep, bridge.Options{
		MaxFrameSize:   cfg.MaxFrameSize,
		StaleTimeout:   time.Duration(cfg.StaleTimeoutMs) * time.Millisecond,
		ReportInterval: time.Duration(cfg.ReportIntervalMs) * time.Millisecond,
	}, log.With().Str("component", "sensors").Logger())

	log.Info().Str("sensor_type", cfg.SensorType).Str("hostname", cfg.Hostname).
		Str("display", cfg.Display.Type).Bool("mqtt", cfg.MQTT != nil).Msg("starting")
	return module.Run(ctx)
}

func openPort(cfg config.Config, clock timeutil.Clock) (link.Port, error) {
	switch cfg.SensorType {
	case config.SensorSimulation:
		interval := time.Duration(cfg.SimulatorIntervalMs) * time.Millisecond
		return link.NewSimulator(clock, interval, clock.Now().UnixNano()), nil
	case config.SensorReal:
		timeout := time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond
		return link.OpenSerial(cfg.Serial.Port, cfg.Serial.Options(), timeout)
	}
	return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
}

// mqttSink is what the broker connection provides to the reporter.
type mqttSink interface {
	output.Display
	output.Messaging
	io.Closer
}

type dialFunc func(cfg config.MQTTConfig, hostname string) (mqttSink, error)

func dialMQTT(log zerolog.Logger) dialFunc {
	return func(cfg config.MQTTConfig, hostname string) (mqttSink, error) {
		return mqttout.NewMQTT(cfg, hostname, log.With().Str("component", "mqtt").Logger())
	}
}

type outputs struct {
	display   output.Display
	messaging output.Messaging
	closers   []io.Closer
}

func (o *outputs) Close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func initOutputs(cfg config.Config, log zerolog.Logger, dial dialFunc) (*outputs, error) {
	outs := &outputs{}
	var sink mqttSink
	if cfg.MQTT != nil {
		s, err := dial(*cfg.MQTT, cfg.Hostname)
		if err != nil {
			return nil, fmt.Errorf("init mqtt: %w", err)
		}
		sink = s
		outs.messaging = sink
		outs.closers = append(outs.closers, sink)
	}

	switch cfg.Display.Type {
	case config.DisplayConsole:
		outs.display = console.NewConsole()
	case config.DisplayMQTT:
		if sink == nil {
			return nil, errors.New("display type mqtt requires an mqtt section")
		}
		outs.display = sink
	case config.DisplayNone, "":
	default:
		outs.Close()
		return nil, fmt.Errorf("unknown display type %q", cfg.Display.Type)
	}
	log.Debug().Bool("display", outs.display != nil).Bool("messaging", outs.messaging != nil).Msg("outputs ready")
	return outs, nil
}
