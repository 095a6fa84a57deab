package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"godaq/host/daq"
	"godaq/host/serial"
)

// Config represents the host tool configuration.
type Config struct {
	Serial          serial.Config  `yaml:"serial"`
	ResponseTimeout time.Duration  `yaml:"response_timeout"`
	LogLevel        string         `yaml:"log_level"`
	Acquisition     daq.Plan       `yaml:"acquisition"`
	Waveform        daq.Waveform   `yaml:"waveform"`
	Recorder        RecorderConfig `yaml:"recorder"`
}

// RecorderConfig contains block recorder configuration.
type RecorderConfig struct {
	Path string `yaml:"path"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial:          *serial.DefaultConfig("/dev/ttyACM0"),
		ResponseTimeout: 2 * time.Second,
		LogLevel:        "info",
		Acquisition:     daq.DefaultPlan(),
		Waveform: daq.Waveform{
			Shape:       daq.Sine,
			Length:      64,
			AmplitudeMV: 5000,
			Channel:     1,
			PeriodUs:    100,
		},
		Recorder: RecorderConfig{
			Path: "daq.db",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills fields a partial file left empty
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Device == "" {
		c.Serial.Device = def.Serial.Device
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.OpenTimeout == 0 {
		c.Serial.OpenTimeout = def.Serial.OpenTimeout
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	a := &c.Acquisition
	if a.SamplePeriodUs == 0 {
		a.SamplePeriodUs = def.Acquisition.SamplePeriodUs
	}
	if a.Averaging == 0 {
		a.Averaging = def.Acquisition.Averaging
	}
	if len(a.Sequence) == 0 {
		a.Sequence = def.Acquisition.Sequence
	}
	if a.BlockSize == 0 {
		a.BlockSize = def.Acquisition.BlockSize
	}
	if a.Mode == "" {
		a.Mode = def.Acquisition.Mode
	}

	w := &c.Waveform
	if w.Shape == "" {
		w.Shape = def.Waveform.Shape
	}
	if w.Length == 0 {
		w.Length = def.Waveform.Length
	}
	if w.Channel == 0 {
		w.Channel = def.Waveform.Channel
	}
	if w.PeriodUs == 0 {
		w.PeriodUs = def.Waveform.PeriodUs
	}

	if c.Recorder.Path == "" {
		c.Recorder.Path = def.Recorder.Path
	}
}

// Validate checks the acquisition plan and waveform
func (c *Config) Validate() error {
	if err := c.Acquisition.Validate(); err != nil {
		return fmt.Errorf("acquisition: %w", err)
	}
	if _, err := c.Waveform.Synthesize(); err != nil {
		return fmt.Errorf("waveform: %w", err)
	}
	return nil
}
