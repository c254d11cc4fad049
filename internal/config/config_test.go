package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stepscope/internal/integration/debug/adapters"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "launch", cfg.Adapter.Request)
	assert.Equal(t, "stepscope", cfg.Session.ClientID)
	assert.True(t, cfg.Session.TerminateOnStop)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Session.StopTimeout))
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := load("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[adapter]
type = "delve"
address = "127.0.0.1:4711"
stop_on_entry = true

[adapter.arguments]
buildFlags = "-tags=dev"

[session]
stop_timeout = "500ms"
terminate_on_stop = false

[log]
level = "debug"
format = "json"

[breakpoints]
file = "/tmp/bps.json"

[connect]
retries = 3
`)

	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "delve", cfg.Adapter.Type)
	assert.Equal(t, "127.0.0.1:4711", cfg.Adapter.Address)
	assert.True(t, cfg.Adapter.StopOnEntry)
	assert.Equal(t, "-tags=dev", cfg.Adapter.Arguments["buildFlags"])
	assert.Equal(t, 500*time.Millisecond, time.Duration(cfg.Session.StopTimeout))
	assert.False(t, cfg.Session.TerminateOnStop)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/bps.json", cfg.Breakpoints.File)
	assert.Equal(t, uint64(3), cfg.Connect.Retries)
	// Untouched keys keep their defaults.
	assert.Equal(t, "launch", cfg.Adapter.Request)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Session.RequestTimeout))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
adapter:
  type: python
  command: python3
  args: ["-m", "debugpy.adapter"]
session:
  request_timeout: 3s
`)

	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "python", cfg.Adapter.Type)
	assert.Equal(t, []string{"-m", "debugpy.adapter"}, cfg.Adapter.Args)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.Session.RequestTimeout))
}

func TestLoad_EmptyYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "")
	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.toml", `
[adapter]
address = "127.0.0.1:4711"
`)

	cfg, err := load(path, map[string]string{
		"STEPSCOPE_ADAPTER_ADDRESS":      "127.0.0.1:9999",
		"STEPSCOPE_ADAPTER_ARGS":         "dap --listen 127.0.0.1:0",
		"STEPSCOPE_ADAPTER_COMMAND":      "dlv",
		"STEPSCOPE_LOG_LEVEL":            "warn",
		"STEPSCOPE_SESSION_STOP_TIMEOUT": "1s",
		"STEPSCOPE_CONNECT_RETRIES":      "7",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Adapter.Address)
	assert.Equal(t, []string{"dap", "--listen", "127.0.0.1:0"}, cfg.Adapter.Args)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, time.Second, time.Duration(cfg.Session.StopTimeout))
	assert.Equal(t, uint64(7), cfg.Connect.Retries)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := load(filepath.Join(t.TempDir(), "nope.toml"), map[string]string{})
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := load(writeFile(t, "config.ini", "x=1"), map[string]string{})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("toml syntax", func(t *testing.T) {
		_, err := load(writeFile(t, "config.toml", "[adapter]\naddress = \n"), map[string]string{})
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 2, pe.Line)
		assert.Contains(t, pe.Error(), "config.toml at line 2")
	})

	t.Run("toml unknown field", func(t *testing.T) {
		_, err := load(writeFile(t, "config.toml", "[adapter]\nadress = \"x\"\n"), map[string]string{})
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Message, "adapter.adress")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := load(writeFile(t, "config.yaml", "session:\n  stop_timeout: soon\n"), map[string]string{})
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("yaml unknown field", func(t *testing.T) {
		_, err := load(writeFile(t, "config.yaml", "log:\n  colour: red\n"), map[string]string{})
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 2, pe.Line)
	})

	t.Run("bad env", func(t *testing.T) {
		_, err := load("", map[string]string{"STEPSCOPE_CONNECT_RETRIES": "many"})
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Type = "cobol"
	cfg.Adapter.Request = "restart"
	cfg.Adapter.Args = []string{"-v"}
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Session.StopTimeout = Duration(-time.Second)
	cfg.Breakpoints.Watch = true

	err := cfg.Validate()
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)

	paths := make([]string, len(errs))
	for i, e := range errs {
		paths[i] = e.Path
	}
	assert.ElementsMatch(t, []string{
		"adapter.type",
		"adapter.request",
		"adapter.args",
		"session.stop_timeout",
		"log.level",
		"log.format",
		"breakpoints.watch",
	}, paths)
	assert.Contains(t, err.Error(), `invalid log.level "loud"`)
}

func TestConfig_SessionConfig(t *testing.T) {
	cfg := Default()
	cfg.Session.AdapterID = "debugpy"
	cfg.Session.StopTimeout = Duration(5 * time.Second)
	cfg.Session.TerminateOnStop = false

	sc := cfg.SessionConfig()
	assert.Equal(t, "debugpy", sc.AdapterID)
	assert.Equal(t, "stepscope", sc.ClientID)
	assert.Equal(t, 5*time.Second, sc.StopTimeout)
	assert.False(t, sc.TerminateOnStop)
}

func TestConfig_AdapterOptions(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Type = "delve"
	cfg.Adapter.Address = "127.0.0.1:4711"
	cfg.Connect.Retries = 4

	opts := cfg.AdapterOptions("main.go")
	assert.Equal(t, adapters.KindDelve, opts.Kind)
	assert.Equal(t, "main.go", opts.Program)
	assert.Equal(t, "127.0.0.1:4711", opts.Address)
	assert.Equal(t, uint64(4), opts.Retry.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, opts.Retry.InitialInterval)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("HOME", "/home/u")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(path))
	assert.Equal(t, "stepscope", filepath.Base(filepath.Dir(path)))
}
