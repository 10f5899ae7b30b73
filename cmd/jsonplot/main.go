// Command jsonplot tails a telemetry source (JSON log file, serial port,
// or MQTT broker), runs the configured filter chain on every refresh tick,
// and serves the filtered series over HTTP for a plotting front end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rjboer/jsonplot/internal/app"
	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/mqttfeed"
	"github.com/rjboer/jsonplot/internal/serialfeed"
	"github.com/rjboer/jsonplot/internal/source"
	"github.com/rjboer/jsonplot/internal/telemetry"
)

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "jsonplot: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("jsonplot", flag.ContinueOnError)
	configPath := fs.String("config", "jsonplot.yaml", "Path to the YAML configuration file")
	webAddr := fs.String("web-addr", "", "Override the web listen address")
	logLevel := fs.String("log-level", "", "Override the log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *webAddr != "" {
		cfg.Web.Addr = *webAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return err
	}
	logger := logging.New(level, format, os.Stderr)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	chain, err := cfg.buildChain()
	if err != nil {
		return err
	}

	hub := telemetry.NewHub(chain, logger)
	go telemetry.NewWebServer(cfg.Web.Addr, hub, logger).Start(ctx)
	logger.Info("serving filtered series", logging.Field{Key: "addr", Value: cfg.Web.Addr})

	runner := app.NewRunner(src, chain, hub, app.Config{
		RefreshInterval: cfg.refreshInterval(),
		Topics:          cfg.Topics,
	}, logger)
	return runner.Run(ctx)
}

func openSource(ctx context.Context, cfg Config, logger logging.Logger) (source.Source, error) {
	switch cfg.Source.Kind {
	case "file":
		return source.NewFile(cfg.Source.File.Path, logger)

	case "serial":
		mgr := serialfeed.NewManager(cfg.Source.Serial.Baud, logger)
		if err := mgr.Start(ctx, cfg.Source.Serial.Port); err != nil {
			return nil, err
		}
		src, ok := mgr.Source(cfg.Source.Serial.Port)
		if !ok {
			return nil, serialfeed.ErrNotConnected
		}
		return src, nil

	case "mqtt":
		feed := mqttfeed.New(logger)
		if err := feed.Connect(cfg.Source.MQTT.Host, cfg.Source.MQTT.Port); err != nil {
			return nil, err
		}
		if len(cfg.Source.MQTT.Topics) == 0 {
			// nothing selected yet: scan so the topic list fills in
			if err := feed.StartScan(); err != nil {
				return nil, err
			}
			return feed, nil
		}
		for _, t := range cfg.Source.MQTT.Topics {
			if err := feed.Subscribe(t); err != nil {
				return nil, err
			}
		}
		return feed, nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
