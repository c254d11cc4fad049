package adapters

import (
	"fmt"
	"path/filepath"
)

// delvePlan runs "dlv dap" on a free local port unless an address or
// command is given.
func delvePlan(opts Options, request string) (Plan, error) {
	plan := Plan{AdapterID: "go"}

	switch {
	case opts.Address != "":
		plan.Connector = TCP(opts.Address, opts.Retry)
	case opts.Command != "":
		plan.Connector = Stdio(opts.Command, opts.Args...)
	default:
		dlv, err := FindExecutable("dlv")
		if err != nil {
			return Plan{}, fmt.Errorf("delve debugger not found: %w (install with: go install github.com/go-delve/delve/cmd/dlv@latest)", err)
		}
		plan.Connector = Spawn(dlv, []string{"dap", "--listen", "{addr}"}, opts.Retry)
	}

	if request == "attach" {
		plan.Arguments = map[string]any{
			"mode":        "local",
			"stopOnEntry": opts.StopOnEntry,
		}
		return plan, nil
	}

	if opts.Program == "" {
		return Plan{}, fmt.Errorf("program is required for launch request")
	}
	program, err := filepath.Abs(opts.Program)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve program: %w", err)
	}
	plan.Arguments = map[string]any{
		"mode":            "debug",
		"program":         program,
		"stopOnEntry":     opts.StopOnEntry,
		"stackTraceDepth": 50,
	}
	return plan, nil
}
