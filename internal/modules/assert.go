package modules

import (
	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// AssertTask fails when any condition in that is false
type AssertTask struct {
	That []string `yaml:"that"`
	Msg  *string  `yaml:"msg"`
}

// AssertFields are the resolved assert fields
type AssertFields struct {
	Checked int     `json:"checked"`
	Msg     *string `json:"msg,omitempty"`
}

func (AssertFields) ModuleName() string { return "assert" }

// Evaluate tests each condition in order and stops at the first false one
func (t *AssertTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	if len(t.That) == 0 {
		return nil, h.Response.IsFailed(req, "field (that): at least one condition is required")
	}

	msg, err := h.Template.StringOption(req, "msg", t.Msg)
	if err != nil {
		return nil, err
	}

	for _, expr := range t.That {
		ok, err := h.Template.TestCond(req, expr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, h.Response.IsFailed(req, "assertion failed: "+expr)
		}
	}

	return AssertFields{Checked: len(t.That), Msg: msg}, nil
}
