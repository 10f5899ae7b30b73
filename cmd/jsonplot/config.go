package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rjboer/jsonplot/internal/filter"
	"github.com/rjboer/jsonplot/internal/mqttfeed"
	"github.com/rjboer/jsonplot/internal/serialfeed"
)

// Config is the daemon configuration, loaded from YAML with flag overrides.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Web     WebConfig     `yaml:"web"`
	Refresh int           `yaml:"refresh_ms"`
	Source  SourceConfig  `yaml:"source"`
	Topics  []string      `yaml:"topics"`
	Filters []FilterSpec  `yaml:"filters"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WebConfig contains the HTTP listener settings.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig selects and configures the telemetry transport.
type SourceConfig struct {
	Kind   string       `yaml:"kind"` // file | serial | mqtt
	File   FileConfig   `yaml:"file"`
	Serial SerialConfig `yaml:"serial"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

// FileConfig points at a newline-delimited JSON capture.
type FileConfig struct {
	Path string `yaml:"path"`
}

// SerialConfig selects the port feeding live telemetry.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTTConfig selects the broker and the topics to retain.
type MQTTConfig struct {
	Host   string   `yaml:"host"`
	Port   int      `yaml:"port"`
	Topics []string `yaml:"topics"`
}

// FilterSpec configures one chain stage.
type FilterSpec struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Web:     WebConfig{Addr: ":8080"},
		Refresh: 1000,
		Source: SourceConfig{
			Kind:   "file",
			Serial: SerialConfig{Baud: serialfeed.DefaultBaudRate},
			MQTT:   MQTTConfig{Host: "127.0.0.1", Port: 1883},
		},
	}
}

// loadConfig reads the YAML config at path on top of the defaults. A
// missing file leaves the defaults untouched.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Source.Kind {
	case "file":
		if c.Source.File.Path == "" {
			return fmt.Errorf("source.file.path is required for a file source")
		}
	case "serial":
		if c.Source.Serial.Port == "" {
			return fmt.Errorf("source.serial.port is required for a serial source")
		}
	case "mqtt":
		ok := false
		for _, p := range mqttfeed.AuthorizedPorts {
			if p == c.Source.MQTT.Port {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("source.mqtt.port %d is not an authorized MQTT port %v",
				c.Source.MQTT.Port, mqttfeed.AuthorizedPorts)
		}
	default:
		return fmt.Errorf("unknown source kind %q (want file, serial, or mqtt)", c.Source.Kind)
	}
	return nil
}

// refreshInterval converts the configured cadence to a duration.
func (c Config) refreshInterval() time.Duration {
	return time.Duration(c.Refresh) * time.Millisecond
}

// buildChain constructs the filter chain described by the config.
func (c Config) buildChain() (*filter.Chain, error) {
	chain := filter.NewChain()
	for i, spec := range c.Filters {
		f, err := filter.New(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		for name, value := range spec.Params {
			if err := f.Set(name, value); err != nil {
				return nil, fmt.Errorf("filters[%d] %s.%s: %w", i, spec.Kind, name, err)
			}
		}
		chain.Add(f)
	}
	return chain, nil
}
