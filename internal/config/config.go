package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/integration/debug/adapters"
	"github.com/dshills/stepscope/internal/integration/debug/dap"
)

// Config is the complete stepscope configuration.
type Config struct {
	Adapter     AdapterConfig     `toml:"adapter" yaml:"adapter" envPrefix:"ADAPTER_"`
	Session     SessionConfig     `toml:"session" yaml:"session" envPrefix:"SESSION_"`
	Log         LogConfig         `toml:"log" yaml:"log" envPrefix:"LOG_"`
	Breakpoints BreakpointsConfig `toml:"breakpoints" yaml:"breakpoints" envPrefix:"BREAKPOINTS_"`
	Connect     ConnectConfig     `toml:"connect" yaml:"connect" envPrefix:"CONNECT_"`
}

// AdapterConfig selects and reaches the debug adapter.
type AdapterConfig struct {
	// Type is "delve", "python", "generic" or empty to detect from the file.
	Type string `toml:"type" yaml:"type" env:"TYPE"`

	// Address of an adapter that is already listening.
	Address string `toml:"address" yaml:"address" env:"ADDRESS"`

	// Command and Args start the adapter.
	Command string   `toml:"command" yaml:"command" env:"COMMAND"`
	Args    []string `toml:"args" yaml:"args" env:"ARGS" envSeparator:" "`

	// Request is "launch" or "attach".
	Request string `toml:"request" yaml:"request" env:"REQUEST"`

	StopOnEntry bool `toml:"stop_on_entry" yaml:"stop_on_entry" env:"STOP_ON_ENTRY"`

	// Arguments are merged into the launch or attach arguments.
	Arguments map[string]any `toml:"arguments" yaml:"arguments"`
}

// SessionConfig mirrors debug.SessionConfig.
type SessionConfig struct {
	ClientID        string   `toml:"client_id" yaml:"client_id" env:"CLIENT_ID"`
	ClientName      string   `toml:"client_name" yaml:"client_name" env:"CLIENT_NAME"`
	AdapterID       string   `toml:"adapter_id" yaml:"adapter_id" env:"ADAPTER_ID"`
	TerminateOnStop bool     `toml:"terminate_on_stop" yaml:"terminate_on_stop" env:"TERMINATE_ON_STOP"`
	StopTimeout     Duration `toml:"stop_timeout" yaml:"stop_timeout" env:"STOP_TIMEOUT"`
	RequestTimeout  Duration `toml:"request_timeout" yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" env:"LEVEL"`
	Format string `toml:"format" yaml:"format" env:"FORMAT"`
}

// BreakpointsConfig configures breakpoint persistence.
type BreakpointsConfig struct {
	// File stores breakpoints between runs. Empty disables persistence.
	File string `toml:"file" yaml:"file" env:"FILE"`

	// Watch reloads File when it changes on disk.
	Watch bool `toml:"watch" yaml:"watch" env:"WATCH"`
}

// ConnectConfig bounds dialing TCP adapters.
type ConnectConfig struct {
	Retries         uint64   `toml:"retries" yaml:"retries" env:"RETRIES"`
	InitialInterval Duration `toml:"initial_interval" yaml:"initial_interval" env:"INITIAL_INTERVAL"`
	MaxInterval     Duration `toml:"max_interval" yaml:"max_interval" env:"MAX_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	session := debug.DefaultSessionConfig()
	return &Config{
		Adapter: AdapterConfig{Request: "launch"},
		Session: SessionConfig{
			ClientID:        session.ClientID,
			ClientName:      session.ClientName,
			TerminateOnStop: session.TerminateOnStop,
			StopTimeout:     Duration(session.StopTimeout),
			RequestTimeout:  Duration(session.RequestTimeout),
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Connect: ConnectConfig{
			Retries:         10,
			InitialInterval: Duration(100 * time.Millisecond),
			MaxInterval:     Duration(time.Second),
		},
	}
}

// Validate checks every setting and returns ValidationErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	switch adapters.Kind(c.Adapter.Type) {
	case "", adapters.KindDelve, adapters.KindPython, adapters.KindGeneric:
	default:
		add("adapter.type", "must be delve, python or generic", c.Adapter.Type)
	}
	switch c.Adapter.Request {
	case "", "launch", "attach":
	default:
		add("adapter.request", "must be launch or attach", c.Adapter.Request)
	}
	if c.Adapter.Args != nil && c.Adapter.Command == "" {
		add("adapter.args", "set without adapter.command", c.Adapter.Args)
	}
	if c.Session.StopTimeout < 0 {
		add("session.stop_timeout", "must not be negative", c.Session.StopTimeout)
	}
	if c.Session.RequestTimeout < 0 {
		add("session.request_timeout", "must not be negative", c.Session.RequestTimeout)
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			add("log.level", "unknown level", c.Log.Level)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		add("log.format", "must be text or json", c.Log.Format)
	}
	if c.Breakpoints.Watch && c.Breakpoints.File == "" {
		add("breakpoints.watch", "requires breakpoints.file", c.Breakpoints.Watch)
	}
	if c.Connect.InitialInterval < 0 || c.Connect.MaxInterval < 0 {
		add("connect", "intervals must not be negative", c.Connect)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SessionConfig converts the session section to a debug.SessionConfig.
func (c *Config) SessionConfig() debug.SessionConfig {
	cfg := debug.DefaultSessionConfig()
	if c.Session.ClientID != "" {
		cfg.ClientID = c.Session.ClientID
	}
	if c.Session.ClientName != "" {
		cfg.ClientName = c.Session.ClientName
	}
	if c.Session.AdapterID != "" {
		cfg.AdapterID = c.Session.AdapterID
	}
	cfg.TerminateOnStop = c.Session.TerminateOnStop
	if c.Session.StopTimeout > 0 {
		cfg.StopTimeout = time.Duration(c.Session.StopTimeout)
	}
	if c.Session.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(c.Session.RequestTimeout)
	}
	return cfg
}

// AdapterOptions converts the adapter and connect sections for program.
func (c *Config) AdapterOptions(program string) adapters.Options {
	return adapters.Options{
		Kind:        adapters.Kind(c.Adapter.Type),
		Program:     program,
		Address:     c.Adapter.Address,
		Command:     c.Adapter.Command,
		Args:        c.Adapter.Args,
		Request:     c.Adapter.Request,
		StopOnEntry: c.Adapter.StopOnEntry,
		Arguments:   c.Adapter.Arguments,
		Retry: dap.RetryPolicy{
			MaxRetries:      c.Connect.Retries,
			InitialInterval: time.Duration(c.Connect.InitialInterval),
			MaxInterval:     time.Duration(c.Connect.MaxInterval),
		},
	}
}

// Duration is a time.Duration written as a string such as "1.5s" in files
// and environment variables.
type Duration time.Duration

// String formats d like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
