package debug

import (
	"testing"

	godap "github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
)

func TestVariable_Presented(t *testing.T) {
	tests := []struct {
		name string
		v    Variable
		want any
	}{
		{"int", Variable{Type: "int", Value: "42"}, int64(42)},
		{"negative int", Variable{Type: "int", Value: "-7"}, int64(-7)},
		{"float", Variable{Type: "float", Value: "3.14"}, 3.14},
		{"string", Variable{Type: "string", Value: "hi"}, "hi"},
		{"untyped", Variable{Value: "42"}, "42"},
		{"int64 is not int", Variable{Type: "int64", Value: "42"}, "42"},
		{"unparseable int", Variable{Type: "int", Value: "<optimized out>"}, "<optimized out>"},
		{"unparseable float", Variable{Type: "float", Value: "NaN?"}, "NaN?"},
		{"int with fraction", Variable{Type: "int", Value: "42.0"}, int64(42)},
		{"int with leading space", Variable{Type: "int", Value: "  5"}, int64(5)},
		{"int with suffix", Variable{Type: "int", Value: "12 (0xc)"}, int64(12)},
		{"float with suffix", Variable{Type: "float", Value: "2.5f"}, 2.5},
		{"float exponent", Variable{Type: "float", Value: "1e3"}, 1000.0},
		{"float leading dot", Variable{Type: "float", Value: "-.5"}, -0.5},
		{"float inf", Variable{Type: "float", Value: "inf"}, "inf"},
		{"float nan", Variable{Type: "float", Value: "nan"}, "nan"},
		{"int overflow", Variable{Type: "int", Value: "99999999999999999999"}, "99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Presented())
		})
	}
}

func TestVariable_String(t *testing.T) {
	assert.Equal(t, "x: 1", Variable{Name: "x", Value: "1", Type: "int"}.String())
	assert.Equal(t, `s: "hi"`, Variable{Name: "s", Value: `"hi"`, Type: "string"}.String())
}

func TestVariable_HasChildren(t *testing.T) {
	assert.False(t, Variable{}.HasChildren())
	assert.True(t, Variable{VariablesReference: 5}.HasChildren())
	assert.False(t, Variable{VariablesReference: -1}.HasChildren())
}

func TestMapScopeType(t *testing.T) {
	tests := []struct {
		hint string
		want ScopeType
	}{
		{"locals", ScopeLocals},
		{"arguments", ScopeArguments},
		{"globals", ScopeGlobals},
		{"registers", ScopeRegisters},
		{"", ScopeLocals},
		{"unknown", ScopeLocals},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, mapScopeType(tt.hint))
		})
	}
}

func TestVariablesFromDAP(t *testing.T) {
	vars := variablesFromDAP([]godap.Variable{
		{Name: "m", Value: "map[string]int [...]", Type: "map[string]int", VariablesReference: 9, NamedVariables: 3, EvaluateName: "m"},
	})

	assert.Equal(t, []Variable{{
		Name:               "m",
		Value:              "map[string]int [...]",
		Type:               "map[string]int",
		VariablesReference: 9,
		NamedVariables:     3,
		EvaluateName:       "m",
	}}, vars)
}
