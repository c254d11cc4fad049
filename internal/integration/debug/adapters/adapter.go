// Package adapters resolves how to reach a debug adapter and what to send it:
// a connector for the session plus launch or attach arguments.
package adapters

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/integration/debug/dap"
)

// Kind identifies a debug adapter.
type Kind string

const (
	// KindDelve is the Go debugger (dlv dap).
	KindDelve Kind = "delve"
	// KindPython is debugpy.
	KindPython Kind = "python"
	// KindGeneric is any other DAP adapter, configured explicitly.
	KindGeneric Kind = "generic"
)

// ErrNoAdapter is returned when a generic adapter has neither an address
// nor a command.
var ErrNoAdapter = errors.New("no adapter address or command configured")

// Options describes the program to debug and, optionally, how to reach the
// adapter. Empty fields fall back to the defaults of Kind.
type Options struct {
	// Kind selects defaults. Empty means Detect(Program).
	Kind Kind

	// Program is the file or package being debugged.
	Program string

	// Address connects to an adapter that is already listening. It wins
	// over Command.
	Address string

	// Command and Args start the adapter.
	Command string
	Args    []string

	// Request is "launch" or "attach". Empty means "launch".
	Request string

	// StopOnEntry pauses the debuggee before its first line.
	StopOnEntry bool

	// Arguments are merged over the generated launch or attach arguments.
	Arguments map[string]any

	// Retry bounds dialing adapters that listen on TCP.
	Retry dap.RetryPolicy
}

// Plan is a resolved adapter configuration.
type Plan struct {
	Kind      Kind
	AdapterID string
	Connector debug.Connector
	Request   string
	Arguments map[string]any
}

// Apply copies the plan's request settings into cfg.
func (p Plan) Apply(cfg *debug.SessionConfig) {
	cfg.AdapterID = p.AdapterID
	cfg.Request = p.Request
	cfg.Arguments = p.Arguments
}

// Resolve builds a Plan from opts.
func Resolve(opts Options) (Plan, error) {
	kind := opts.Kind
	if kind == "" {
		kind = Detect(opts.Program)
	}

	request := opts.Request
	if request == "" {
		request = "launch"
	}
	if request != "launch" && request != "attach" {
		return Plan{}, fmt.Errorf("invalid request type: %s", request)
	}

	var (
		plan Plan
		err  error
	)
	switch kind {
	case KindDelve:
		plan, err = delvePlan(opts, request)
	case KindPython:
		plan, err = pythonPlan(opts, request)
	case KindGeneric:
		plan, err = genericPlan(opts, request)
	default:
		return Plan{}, fmt.Errorf("unknown adapter type: %s", kind)
	}
	if err != nil {
		return Plan{}, err
	}

	plan.Kind = kind
	plan.Request = request
	for k, v := range opts.Arguments {
		plan.Arguments[k] = v
	}
	return plan, nil
}

func genericPlan(opts Options, request string) (Plan, error) {
	var connector debug.Connector
	switch {
	case opts.Address != "":
		connector = TCP(opts.Address, opts.Retry)
	case opts.Command != "":
		connector = Stdio(opts.Command, opts.Args...)
	default:
		return Plan{}, ErrNoAdapter
	}

	args := map[string]any{}
	if opts.Program != "" {
		args["program"] = opts.Program
	}
	if opts.StopOnEntry {
		args["stopOnEntry"] = true
	}
	return Plan{AdapterID: "generic", Connector: connector, Arguments: args}, nil
}

// Detect picks an adapter kind from a file name.
func Detect(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".go":
		return KindDelve
	case ".py":
		return KindPython
	default:
		return KindGeneric
	}
}

// FindExecutable searches for an executable in PATH.
func FindExecutable(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}
