package adapters

import (
	"fmt"
)

// pythonPlan speaks to "python3 -m debugpy.adapter" over stdio unless an
// address or command is given.
func pythonPlan(opts Options, request string) (Plan, error) {
	plan := Plan{AdapterID: "debugpy"}

	switch {
	case opts.Address != "":
		plan.Connector = TCP(opts.Address, opts.Retry)
	case opts.Command != "":
		plan.Connector = Stdio(opts.Command, opts.Args...)
	default:
		python, err := FindExecutable("python3")
		if err != nil {
			python, err = FindExecutable("python")
			if err != nil {
				return Plan{}, fmt.Errorf("python interpreter not found in PATH (install Python 3 and debugpy: pip install debugpy)")
			}
		}
		plan.Connector = Stdio(python, "-m", "debugpy.adapter")
	}

	args := map[string]any{
		"type":        "python",
		"request":     request,
		"stopOnEntry": opts.StopOnEntry,
		"justMyCode":  true,
		"console":     "internalConsole",
	}
	if request == "launch" {
		if opts.Program == "" {
			return Plan{}, fmt.Errorf("program is required for launch request")
		}
		args["program"] = opts.Program
	}
	plan.Arguments = args
	return plan, nil
}
