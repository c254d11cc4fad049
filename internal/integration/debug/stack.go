package debug

import (
	"fmt"
	"path/filepath"

	godap "github.com/google/go-dap"
)

// StackFrame is one frame of the stopped thread's call stack.
type StackFrame struct {
	ID     int
	Name   string
	Path   string
	Line   int
	Column int
}

// HasSource returns true if the frame has source information.
func (f StackFrame) HasSource() bool {
	return f.Path != ""
}

// Location returns the frame location as "file.go:42".
func (f StackFrame) Location() string {
	if f.Path == "" {
		return fmt.Sprintf("<unknown>:%d", f.Line)
	}
	return fmt.Sprintf("%s:%d", filepath.Base(f.Path), f.Line)
}

func framesFromDAP(frames []godap.StackFrame) []StackFrame {
	out := make([]StackFrame, len(frames))
	for i, f := range frames {
		out[i] = StackFrame{
			ID:     f.Id,
			Name:   f.Name,
			Line:   f.Line,
			Column: f.Column,
		}
		if f.Source != nil {
			out[i].Path = f.Source.Path
		}
	}
	return out
}
