package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultReceiveTimeout = 2 * time.Second
	DefaultSendTimeout    = 2 * time.Second
	DefaultMaxFrames      = 200
	DefaultFallback       = "eth0"
	DefaultBackend        = "packet"

	// maxIfaceNameLen is IFNAMSIZ minus the terminating NUL.
	maxIfaceNameLen = 15
)

// Config holds all configuration settings for the application.
type Config struct {
	Interface         string        `yaml:"interface"`
	FallbackInterface string        `yaml:"fallback_interface"`
	ReceiveTimeout    time.Duration `yaml:"receive_timeout"`
	SendTimeout       time.Duration `yaml:"send_timeout"`
	MaxFrames         int           `yaml:"max_frames"`
	Backend           string        `yaml:"backend"`
	KernelFilter      bool          `yaml:"kernel_filter"`
	DumpFile          string        `yaml:"dump_file"`
	OutputFile        string        `yaml:"output_file"`
	LogLevel          string        `yaml:"log_level"`
	LogFile           string        `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FallbackInterface: DefaultFallback,
		ReceiveTimeout:    DefaultReceiveTimeout,
		SendTimeout:       DefaultSendTimeout,
		MaxFrames:         DefaultMaxFrames,
		Backend:           DefaultBackend,
		LogLevel:          "INFO",
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the resolver cannot use.
func (c *Config) Validate() error {
	if c.ReceiveTimeout <= 0 {
		return fmt.Errorf("receive timeout must be positive, got %v", c.ReceiveTimeout)
	}
	if c.SendTimeout < 0 {
		return fmt.Errorf("send timeout must not be negative, got %v", c.SendTimeout)
	}
	if c.MaxFrames <= 0 {
		return fmt.Errorf("max frames must be a positive integer, got %d", c.MaxFrames)
	}
	switch c.Backend {
	case "packet", "pcap":
	default:
		return fmt.Errorf("backend must be either 'packet' or 'pcap', got %q", c.Backend)
	}
	if c.FallbackInterface == "" {
		return fmt.Errorf("fallback interface must not be empty")
	}
	for _, name := range []string{c.Interface, c.FallbackInterface} {
		if len(name) > maxIfaceNameLen {
			return fmt.Errorf("interface name %q exceeds %d bytes", name, maxIfaceNameLen)
		}
	}
	return nil
}
