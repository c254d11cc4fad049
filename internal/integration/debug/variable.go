package debug

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	godap "github.com/google/go-dap"
)

// ScopeType represents the type of a variable scope.
type ScopeType string

const (
	// ScopeLocals represents local variables.
	ScopeLocals ScopeType = "locals"
	// ScopeArguments represents function arguments.
	ScopeArguments ScopeType = "arguments"
	// ScopeGlobals represents global variables.
	ScopeGlobals ScopeType = "globals"
	// ScopeRegisters represents CPU registers.
	ScopeRegisters ScopeType = "registers"
)

// Scope is one named group of variables in the top stack frame.
type Scope struct {
	Name string
	Type ScopeType

	// VariablesReference fetches the scope's variables.
	VariablesReference int

	// Expensive scopes are listed but their variables are not fetched
	// eagerly; use ExpandVariable with the reference.
	Expensive bool

	Variables []Variable
}

// Variable is a named value reported by the adapter.
type Variable struct {
	Name  string
	Value string

	// Type may be empty when the adapter does not report types.
	Type string

	// VariablesReference is non-zero when the variable has children, which
	// are fetched lazily with Session.ExpandVariable.
	VariablesReference int

	NamedVariables   int
	IndexedVariables int
	EvaluateName     string
}

// HasChildren returns true if this variable has child variables.
func (v Variable) HasChildren() bool {
	return v.VariablesReference > 0
}

var (
	intPrefix   = regexp.MustCompile(`^[+-]?[0-9]+`)
	floatPrefix = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?`)
)

// Presented returns the value for display. Variables of type "int" and
// "float" are returned as int64 and float64, parsed from the longest decimal
// prefix of the value after leading whitespace, so an int "42.0" is 42 and a
// float "2.5f" is 2.5. A value with no such prefix, "inf" or "nan" for
// instance, stays the value string, as does every other type.
func (v Variable) Presented() any {
	value := strings.TrimLeft(v.Value, " \t\r\n")
	switch v.Type {
	case "int":
		if n, err := strconv.ParseInt(intPrefix.FindString(value), 10, 64); err == nil {
			return n
		}
	case "float":
		if f, err := strconv.ParseFloat(floatPrefix.FindString(value), 64); err == nil {
			return f
		}
	}
	return v.Value
}

// String formats the variable as "name: value".
func (v Variable) String() string {
	return fmt.Sprintf("%s: %v", v.Name, v.Presented())
}

func mapScopeType(hint string) ScopeType {
	switch hint {
	case "arguments":
		return ScopeArguments
	case "globals":
		return ScopeGlobals
	case "registers":
		return ScopeRegisters
	default:
		return ScopeLocals
	}
}

func scopeFromDAP(s godap.Scope) Scope {
	return Scope{
		Name:               s.Name,
		Type:               mapScopeType(s.PresentationHint),
		VariablesReference: s.VariablesReference,
		Expensive:          s.Expensive,
	}
}

func variablesFromDAP(vars []godap.Variable) []Variable {
	out := make([]Variable, len(vars))
	for i, dv := range vars {
		out[i] = Variable{
			Name:               dv.Name,
			Value:              dv.Value,
			Type:               dv.Type,
			VariablesReference: dv.VariablesReference,
			NamedVariables:     dv.NamedVariables,
			IndexedVariables:   dv.IndexedVariables,
			EvaluateName:       dv.EvaluateName,
		}
	}
	return out
}
