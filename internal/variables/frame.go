package variables

import (
	"path/filepath"

	"github.com/google/go-dap"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

// StackFrame presents one frame of the current stop.
type StackFrame struct {
	// ID is the frame's handle.
	ID int

	Remote *dbgp.StackFrame
}

// DAP converts the frame for the host.
func (f *StackFrame) DAP() dap.StackFrame {
	frame := dap.StackFrame{
		Id:     f.ID,
		Name:   f.Remote.Where,
		Line:   f.Remote.Line,
		Column: 1,
	}
	if f.Remote.FileName != "" {
		frame.Source = &dap.Source{
			Name: filepath.Base(f.Remote.FileName),
			Path: f.Remote.FileName,
		}
	}
	return frame
}
