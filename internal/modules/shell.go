package modules

import (
	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// ShellTask runs a command on the managed host
type ShellTask struct {
	Cmd         string  `yaml:"cmd"`
	Unsafe      *string `yaml:"unsafe"`
	Save        *string `yaml:"save"`
	FailedWhen  *string `yaml:"failed_when"`
	ChangedWhen *string `yaml:"changed_when"`
	Timeout     *string `yaml:"timeout"`
}

// ShellFields are the resolved shell fields
type ShellFields struct {
	Cmd         string  `json:"cmd"`
	Unsafe      bool    `json:"unsafe"`
	Save        *string `json:"save,omitempty"`
	FailedWhen  *string `json:"failed_when,omitempty"`
	ChangedWhen *string `json:"changed_when,omitempty"`
	Timeout     *int64  `json:"timeout,omitempty"`
}

func (ShellFields) ModuleName() string { return "shell" }

// Evaluate resolves the shell fields. cmd is screened unless unsafe is set.
func (t *ShellTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	unsafe, err := h.Template.BooleanOptionDefaultFalse(req, "unsafe", t.Unsafe)
	if err != nil {
		return nil, err
	}

	var cmd string
	if unsafe {
		cmd, err = h.Template.StringUnsafe(req, "cmd", t.Cmd)
	} else {
		cmd, err = h.Template.String(req, "cmd", t.Cmd)
	}
	if err != nil {
		return nil, err
	}

	save, err := h.Template.StringOptionNoSpaces(req, "save", t.Save)
	if err != nil {
		return nil, err
	}
	timeout, err := h.Template.IntegerOption(req, "timeout", t.Timeout)
	if err != nil {
		return nil, err
	}

	return ShellFields{
		Cmd:         cmd,
		Unsafe:      unsafe,
		Save:        save,
		FailedWhen:  h.Template.NoTemplateStringOptionTrim(t.FailedWhen),
		ChangedWhen: h.Template.NoTemplateStringOptionTrim(t.ChangedWhen),
		Timeout:     timeout,
	}, nil
}
