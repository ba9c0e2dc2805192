package playbook

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
)

// Mode is how a run treats its hosts
type Mode int

const (
	// ModeApply evaluates and applies every task
	ModeApply Mode = iota

	// ModeCheck evaluates every task but reports changes instead of making them
	ModeCheck

	// ModeSyntaxOnly validates playbook structure without real variable values
	ModeSyntaxOnly
)

// String returns the mode name as accepted by ParseMode
func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeCheck:
		return "check"
	case ModeSyntaxOnly:
		return "syntax"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name
func ParseMode(name string) (Mode, error) {
	switch name {
	case "apply":
		return ModeApply, nil
	case "check":
		return ModeCheck, nil
	case "syntax":
		return ModeSyntaxOnly, nil
	default:
		return ModeApply, fmt.Errorf("unknown run mode: %s", name)
	}
}

// RunState is shared by every host pipeline in a run
type RunState struct {
	mu   sync.RWMutex
	mode Mode

	// Context is the shared playbook context
	Context *Context

	// Fs is the control-node filesystem used for local asset lookups
	Fs afero.Fs
}

// NewRunState creates a run state. A nil fs means the OS filesystem.
func NewRunState(mode Mode, ctx *Context, fs afero.Fs) *RunState {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &RunState{
		mode:    mode,
		Context: ctx,
		Fs:      fs,
	}
}

// Mode returns the current run mode
func (r *RunState) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetMode changes the run mode. Accessors already created keep the mode
// they were built with.
func (r *RunState) SetMode(mode Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

// IsSyntaxOnly reports whether the run is a syntax-only pass
func (r *RunState) IsSyntaxOnly() bool {
	return r.Mode() == ModeSyntaxOnly
}
